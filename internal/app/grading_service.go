package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pint-quiz-service/internal/domain"
	"pint-quiz-service/internal/scoring"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SubmissionRepository persists graded submissions.
type SubmissionRepository interface {
	Save(ctx context.Context, sub domain.Submission) error
	Get(ctx context.Context, id string) (domain.Submission, error)
	ListByQuiz(ctx context.Context, quizID string) ([]domain.Submission, error)
	UpdateGrade(ctx context.Context, id string, grade domain.Grade) error
}

// AttemptCounter hands out per-learner attempt numbers starting at 1.
type AttemptCounter interface {
	Next(ctx context.Context, quizID, userID string) (int, error)
}

// GradebookRepository abstracts where live gradebooks are kept (in-memory, Redis, etc).
type GradebookRepository interface {
	GetOrCreate(quizID string) (*LiveGradebook, bool)
	Get(quizID string) (*LiveGradebook, bool)
	DeleteIfIdle(quizID string)
}

// EventPublisher announces graded submissions to other services.
type EventPublisher interface {
	PublishGraded(ctx context.Context, sub domain.Submission) error
}

// Dependencies wires a GradingService. Quizzes, Submissions and Attempts are required.
type Dependencies struct {
	Quizzes     QuizRepository
	Submissions SubmissionRepository
	Attempts    AttemptCounter
	Gradebooks  GradebookRepository
	Events      EventPublisher
	Logger      *zap.Logger
	Now         func() time.Time
}

// GradingService contains the submission and grading use cases.
type GradingService struct {
	quizzes     QuizRepository
	submissions SubmissionRepository
	attempts    AttemptCounter
	gradebooks  GradebookRepository
	events      EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

func NewGradingService(deps Dependencies) *GradingService {
	s := &GradingService{
		quizzes:     deps.Quizzes,
		submissions: deps.Submissions,
		attempts:    deps.Attempts,
		gradebooks:  deps.Gradebooks,
		events:      deps.Events,
		logger:      deps.Logger,
		now:         deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Submit grades a learner's answers and stores the result as a new attempt.
// Unscorable submissions are returned as errors and never stored.
func (s *GradingService) Submit(ctx context.Context, quizID, userID string, answers []domain.Answer) (domain.Submission, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return domain.Submission{}, err
	}

	grade, err := scoring.Grade(quiz, answers)
	if err != nil {
		s.logger.Info("submission rejected",
			zap.String("quiz_id", quizID),
			zap.String("user_id", userID),
			zap.Error(err))
		return domain.Submission{}, err
	}

	attempt, err := s.attempts.Next(ctx, quizID, userID)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("allocate attempt: %w", err)
	}

	sub := domain.Submission{
		ID:          uuid.NewString(),
		QuizID:      quizID,
		UserID:      userID,
		Answers:     answers,
		SubmittedAt: s.now().UTC(),
		Attempt:     attempt,
		Grade:       grade,
	}
	if err := s.submissions.Save(ctx, sub); err != nil {
		return domain.Submission{}, fmt.Errorf("save submission: %w", err)
	}

	if s.gradebooks != nil {
		if gb, ok := s.gradebooks.Get(quizID); ok {
			gb.Record(sub)
		}
	}
	if s.events != nil {
		if err := s.events.PublishGraded(ctx, sub); err != nil {
			// grade is already stored
			s.logger.Warn("publish graded event failed",
				zap.String("submission_id", sub.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("submission graded",
		zap.String("submission_id", sub.ID),
		zap.String("quiz_id", quizID),
		zap.String("user_id", userID),
		zap.Int("attempt", attempt),
		zap.Int("correct", grade.Correct),
		zap.Int("total", grade.Total),
		zap.Float64("scaled_score", grade.Rounded()))
	return sub, nil
}

// GetSubmission returns a stored submission by ID.
func (s *GradingService) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	return s.submissions.Get(ctx, id)
}

// ListSubmissions returns every stored submission for a quiz.
func (s *GradingService) ListSubmissions(ctx context.Context, quizID string) ([]domain.Submission, error) {
	return s.submissions.ListByQuiz(ctx, quizID)
}

// Gradebook returns the best-grade-per-learner view of a quiz, live if
// someone is watching it and rebuilt from storage otherwise.
func (s *GradingService) Gradebook(ctx context.Context, quizID string) (domain.Gradebook, error) {
	if s.gradebooks != nil {
		if gb, ok := s.gradebooks.Get(quizID); ok && gb.Seeded() {
			return gb.Snapshot(), nil
		}
	}
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.Gradebook{}, err
	}
	subs, err := s.submissions.ListByQuiz(ctx, quizID)
	if err != nil {
		return domain.Gradebook{}, err
	}
	return s.rebuild(quizID, subs), nil
}

// ExportData returns a quiz with its stored submissions and the gradebook
// derived from them, for building reports.
func (s *GradingService) ExportData(ctx context.Context, quizID string) (domain.Quiz, []domain.Submission, domain.Gradebook, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, domain.Gradebook{}, err
	}
	subs, err := s.submissions.ListByQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, domain.Gradebook{}, err
	}
	return quiz, subs, s.rebuild(quizID, subs), nil
}

func (s *GradingService) rebuild(quizID string, subs []domain.Submission) domain.Gradebook {
	gb := NewLiveGradebookWithClock(quizID, s.now)
	gb.seed(subs)
	return gb.Snapshot()
}

// Subscribe returns a channel that receives gradebook snapshots for a quiz,
// starting with the current one. The caller must invoke the returned cancel
// function to avoid leaks.
func (s *GradingService) Subscribe(ctx context.Context, quizID string) (<-chan domain.Gradebook, func(), error) {
	if s.gradebooks == nil {
		return nil, nil, domain.ErrFeedNotFound
	}
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, nil, err
	}

	gb, created := s.gradebooks.GetOrCreate(quizID)
	if created {
		subs, err := s.submissions.ListByQuiz(ctx, quizID)
		if err != nil {
			s.gradebooks.DeleteIfIdle(quizID)
			return nil, nil, err
		}
		gb.seed(subs)
	}

	ch, cancel := gb.subscribe()
	return ch, func() {
		cancel()
		s.gradebooks.DeleteIfIdle(quizID)
	}, nil
}

// RegradeEntry describes one stored submission whose grade disagrees with a
// fresh computation, or that can no longer be scored.
type RegradeEntry struct {
	SubmissionID string       `json:"submissionId"`
	UserID       string       `json:"userId"`
	Attempt      int          `json:"attempt"`
	Stored       domain.Grade `json:"stored"`
	Recomputed   domain.Grade `json:"recomputed"`
	OutOfRange   bool         `json:"outOfRange"`
	Error        string       `json:"error,omitempty"`
}

// RegradeReport summarizes a regrade pass over a quiz.
type RegradeReport struct {
	QuizID     string         `json:"quizId"`
	Checked    int            `json:"checked"`
	Changed    []RegradeEntry `json:"changed"`
	Unscorable []RegradeEntry `json:"unscorable"`
	Applied    bool           `json:"applied"`
}

// Regrade recomputes every stored grade of a quiz from its stored answers.
// Grades that differ (including out-of-range, double-scaled ones) are
// reported and, when apply is set, overwritten with the recomputed grade.
func (s *GradingService) Regrade(ctx context.Context, quizID string, apply bool) (RegradeReport, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return RegradeReport{}, err
	}
	subs, err := s.submissions.ListByQuiz(ctx, quizID)
	if err != nil {
		return RegradeReport{}, err
	}

	report := RegradeReport{QuizID: quizID, Checked: len(subs), Applied: apply}
	for _, sub := range subs {
		entry := RegradeEntry{
			SubmissionID: sub.ID,
			UserID:       sub.UserID,
			Attempt:      sub.Attempt,
			Stored:       sub.Grade,
			OutOfRange:   scoring.ValidateGrade(sub.Grade) != nil,
		}

		recomputed, err := scoring.Grade(quiz, sub.Answers)
		if err != nil {
			entry.Error = err.Error()
			report.Unscorable = append(report.Unscorable, entry)
			continue
		}
		entry.Recomputed = recomputed
		if sameGrade(sub.Grade, recomputed) {
			continue
		}
		report.Changed = append(report.Changed, entry)

		if apply {
			if err := s.submissions.UpdateGrade(ctx, sub.ID, recomputed); err != nil {
				return report, fmt.Errorf("update grade %s: %w", sub.ID, err)
			}
		}
	}

	s.logger.Info("regrade finished",
		zap.String("quiz_id", quizID),
		zap.Int("checked", report.Checked),
		zap.Int("changed", len(report.Changed)),
		zap.Int("unscorable", len(report.Unscorable)),
		zap.Bool("applied", apply))
	return report, nil
}

func (s *GradingService) loadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := quiz.Validate(); err != nil {
		s.logger.Error("stored quiz is invalid", zap.String("quiz_id", quizID), zap.Error(err))
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func sameGrade(a, b domain.Grade) bool {
	return a.Correct == b.Correct && a.Total == b.Total && a.Rounded() == b.Rounded()
}

// IsUnscorable reports whether err means the submission itself is bad, as
// opposed to a storage or lookup failure.
func IsUnscorable(err error) bool {
	return errors.Is(err, scoring.ErrMalformedSubmission) || errors.Is(err, scoring.ErrQuestionCountMismatch)
}
