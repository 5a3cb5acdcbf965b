package app

import (
	"sort"
	"sync"
	"time"

	"pint-quiz-service/internal/domain"
)

// LiveGradebook tracks each learner's best grade on one quiz and fans out
// snapshots to subscribers as submissions are graded.
type LiveGradebook struct {
	quizID      string
	now         func() time.Time
	mu          sync.RWMutex
	entries     map[string]*domain.GradebookEntry
	recorded    map[string]struct{}
	seeded      bool
	subscribers map[chan domain.Gradebook]struct{}
}

// NewLiveGradebook is exported for infrastructure layers that need to seed gradebooks.
func NewLiveGradebook(quizID string) *LiveGradebook {
	return NewLiveGradebookWithClock(quizID, time.Now)
}

// NewLiveGradebookWithClock allows deterministic timestamps in tests.
func NewLiveGradebookWithClock(quizID string, now func() time.Time) *LiveGradebook {
	return &LiveGradebook{
		quizID:      quizID,
		now:         now,
		entries:     make(map[string]*domain.GradebookEntry),
		recorded:    make(map[string]struct{}),
		subscribers: make(map[chan domain.Gradebook]struct{}),
	}
}

// Record folds a graded submission into the gradebook and broadcasts the new snapshot.
func (g *LiveGradebook) Record(sub domain.Submission) domain.Gradebook {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recordLocked(sub)
	return g.broadcastLocked()
}

// seed folds stored submissions into the gradebook, marks it seeded and
// broadcasts the result to anyone who subscribed while it was loading.
func (g *LiveGradebook) seed(subs []domain.Submission) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, sub := range subs {
		g.recordLocked(sub)
	}
	g.seeded = true
	if len(g.subscribers) > 0 {
		g.broadcastLocked()
	}
}

// Seeded reports whether stored submissions have been loaded.
func (g *LiveGradebook) Seeded() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.seeded
}

// recordLocked ignores a submission ID it has already folded in, so a
// submission both recorded live and listed while seeding counts once.
func (g *LiveGradebook) recordLocked(sub domain.Submission) {
	if sub.ID != "" {
		if _, dup := g.recorded[sub.ID]; dup {
			return
		}
		g.recorded[sub.ID] = struct{}{}
	}
	entry, ok := g.entries[sub.UserID]
	if !ok {
		g.entries[sub.UserID] = &domain.GradebookEntry{
			UserID:       sub.UserID,
			Attempts:     1,
			Best:         sub.Grade,
			BestAttempt:  sub.Attempt,
			LastGradedAt: sub.SubmittedAt,
		}
		return
	}
	entry.Attempts++
	if sub.Grade.ScaledScore > entry.Best.ScaledScore {
		entry.Best = sub.Grade
		entry.BestAttempt = sub.Attempt
	}
	if sub.SubmittedAt.After(entry.LastGradedAt) {
		entry.LastGradedAt = sub.SubmittedAt
	}
}

// Snapshot returns the current ordered gradebook.
func (g *LiveGradebook) Snapshot() domain.Gradebook {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshotLocked()
}

// HasSubscribers reports whether anyone is watching the gradebook.
func (g *LiveGradebook) HasSubscribers() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.subscribers) > 0
}

func (g *LiveGradebook) subscribe() (<-chan domain.Gradebook, func()) {
	ch := make(chan domain.Gradebook, 8)

	g.mu.Lock()
	g.subscribers[ch] = struct{}{}
	ch <- g.snapshotLocked()
	g.mu.Unlock()

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return ch, cancel
}

func (g *LiveGradebook) broadcastLocked() domain.Gradebook {
	gb := g.snapshotLocked()
	for ch := range g.subscribers {
		select {
		case ch <- gb:
		default:
			// Slow subscriber: replace its oldest pending snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- gb
		}
	}
	return gb
}

func (g *LiveGradebook) snapshotLocked() domain.Gradebook {
	entries := make([]domain.GradebookEntry, 0, len(g.entries))
	for _, entry := range g.entries {
		entries = append(entries, *entry)
	}

	// Best score first, then the earlier latest submission, then user ID.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Best.ScaledScore != entries[j].Best.ScaledScore {
			return entries[i].Best.ScaledScore > entries[j].Best.ScaledScore
		}
		if !entries[i].LastGradedAt.Equal(entries[j].LastGradedAt) {
			return entries[i].LastGradedAt.Before(entries[j].LastGradedAt)
		}
		return entries[i].UserID < entries[j].UserID
	})

	return domain.Gradebook{
		QuizID:    g.quizID,
		Entries:   entries,
		UpdatedAt: g.now(),
	}
}
