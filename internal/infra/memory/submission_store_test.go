package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"pint-quiz-service/internal/domain"
	"pint-quiz-service/internal/scoring"
)

func TestSubmissionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSubmissionStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	second := domain.Submission{ID: "b", QuizID: "quiz-1", UserID: "u1", SubmittedAt: base.Add(time.Minute), Grade: domain.Grade{Correct: 1, Total: 1, ScaledScore: 20}}
	first := domain.Submission{ID: "a", QuizID: "quiz-1", UserID: "u2", SubmittedAt: base, Grade: domain.Grade{Total: 1}}
	other := domain.Submission{ID: "c", QuizID: "quiz-2", UserID: "u1", SubmittedAt: base}
	for _, sub := range []domain.Submission{second, first, other} {
		if err := store.Save(ctx, sub); err != nil {
			t.Fatalf("save %s: %v", sub.ID, err)
		}
	}

	subs, err := store.ListByQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 || subs[0].ID != "a" || subs[1].ID != "b" {
		t.Fatalf("expected oldest first, got %+v", subs)
	}

	if err := store.UpdateGrade(ctx, "a", domain.Grade{Correct: 1, Total: 1, ScaledScore: 20}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.Get(ctx, "a")
	if err != nil || got.Grade.Correct != 1 {
		t.Fatalf("expected updated grade, got %+v err=%v", got, err)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrSubmissionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmissionStoreRejectsOutOfRangeGrades(t *testing.T) {
	store := NewSubmissionStore()
	err := store.Save(context.Background(), domain.Submission{ID: "x", Grade: domain.Grade{Correct: 3, Total: 4, ScaledScore: 300}})
	if !errors.Is(err, scoring.ErrScoreOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
}

func TestAttemptNumbersPerLearner(t *testing.T) {
	ctx := context.Background()
	store := NewSubmissionStore()
	store.Seed(domain.Submission{ID: "legacy", QuizID: "quiz-1", UserID: "u1", Attempt: 2})

	for want := 3; want <= 4; want++ {
		got, _ := store.Next(ctx, "quiz-1", "u1")
		if got != want {
			t.Fatalf("expected attempt %d, got %d", want, got)
		}
	}
	if got, _ := store.Next(ctx, "quiz-1", "u2"); got != 1 {
		t.Fatalf("expected first attempt for new learner, got %d", got)
	}
}
