package memory

import (
	"sync"

	"pint-quiz-service/internal/app"
)

// GradebookStore is an in-memory implementation of app.GradebookRepository.
type GradebookStore struct {
	mu         sync.RWMutex
	gradebooks map[string]*app.LiveGradebook
}

func NewGradebookStore() *GradebookStore {
	return &GradebookStore{
		gradebooks: make(map[string]*app.LiveGradebook),
	}
}

func (s *GradebookStore) GetOrCreate(quizID string) (*app.LiveGradebook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gb, ok := s.gradebooks[quizID]; ok {
		return gb, false
	}
	gb := app.NewLiveGradebook(quizID)
	s.gradebooks[quizID] = gb
	return gb, true
}

func (s *GradebookStore) Get(quizID string) (*app.LiveGradebook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gb, ok := s.gradebooks[quizID]
	return gb, ok
}

func (s *GradebookStore) DeleteIfIdle(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gb, ok := s.gradebooks[quizID]
	if !ok {
		return
	}
	if !gb.HasSubscribers() {
		delete(s.gradebooks, quizID)
	}
}
