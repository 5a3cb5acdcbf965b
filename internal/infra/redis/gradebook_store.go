package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"pint-quiz-service/internal/app"
)

// GradebookStore is a Redis-aware implementation of app.GradebookRepository.
// Gradebooks and their subscribers live in process; Redis carries a
// liveness marker per watched quiz so other instances and operators can see
// which gradebooks are open.
type GradebookStore struct {
	client     *redis.Client
	ttl        time.Duration
	mu         sync.RWMutex
	gradebooks map[string]*app.LiveGradebook
}

func NewGradebookStore(client *redis.Client, ttl time.Duration) *GradebookStore {
	return &GradebookStore{
		client:     client,
		ttl:        ttl,
		gradebooks: make(map[string]*app.LiveGradebook),
	}
}

func (s *GradebookStore) GetOrCreate(quizID string) (*app.LiveGradebook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// best-effort liveness marker, refreshed on every subscribe
	_ = s.client.Set(context.Background(), s.key(quizID), "1", s.ttl).Err()
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
		_ = s.client.Del(context.Background(), s.key(quizID)).Err()
	}
}

func (s *GradebookStore) key(quizID string) string {
	return "quiz:gradebook:" + quizID
}
