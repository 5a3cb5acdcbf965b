package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"pint-quiz-service/internal/domain"
	"pint-quiz-service/internal/scoring"
)

type submissionRow struct {
	bun.BaseModel `bun:"table:submissions"`

	ID          string          `bun:"id,pk"`
	QuizID      string          `bun:"quiz_id,notnull"`
	UserID      string          `bun:"user_id,notnull"`
	Attempt     int             `bun:"attempt,notnull"`
	Answers     []domain.Answer `bun:"answers,type:jsonb,notnull"`
	SubmittedAt time.Time       `bun:"submitted_at,notnull"`
	Correct     int             `bun:"correct,notnull"`
	Total       int             `bun:"total,notnull"`
	ScaledScore float64         `bun:"scaled_score,notnull"`
}

func toRow(sub domain.Submission) submissionRow {
	return submissionRow{
		ID:          sub.ID,
		QuizID:      sub.QuizID,
		UserID:      sub.UserID,
		Attempt:     sub.Attempt,
		Answers:     sub.Answers,
		SubmittedAt: sub.SubmittedAt,
		Correct:     sub.Grade.Correct,
		Total:       sub.Grade.Total,
		ScaledScore: sub.Grade.ScaledScore,
	}
}

func (r submissionRow) toDomain() domain.Submission {
	return domain.Submission{
		ID:          r.ID,
		QuizID:      r.QuizID,
		UserID:      r.UserID,
		Answers:     r.Answers,
		SubmittedAt: r.SubmittedAt,
		Attempt:     r.Attempt,
		Grade: domain.Grade{
			Correct:     r.Correct,
			Total:       r.Total,
			ScaledScore: r.ScaledScore,
		},
	}
}

// SubmissionStore persists submissions with bun. Grades are range-checked on
// every write; rows already out of range are returned as-is and logged so a
// regrade can repair them.
type SubmissionStore struct {
	db     *bun.DB
	logger *zap.Logger
}

func NewSubmissionStore(db *bun.DB, logger *zap.Logger) *SubmissionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionStore{db: db, logger: logger}
}

func (s *SubmissionStore) Save(ctx context.Context, sub domain.Submission) error {
	if err := scoring.ValidateGrade(sub.Grade); err != nil {
		return err
	}
	row := toRow(sub)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *SubmissionStore) Get(ctx context.Context, id string) (domain.Submission, error) {
	var row submissionRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("select submission: %w", err)
	}
	s.checkStored(row)
	return row.toDomain(), nil
}

// ListByQuiz returns a quiz's submissions oldest first.
func (s *SubmissionStore) ListByQuiz(ctx context.Context, quizID string) ([]domain.Submission, error) {
	var rows []submissionRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("quiz_id = ?", quizID).
		Order("submitted_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	out := make([]domain.Submission, 0, len(rows))
	for _, row := range rows {
		s.checkStored(row)
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *SubmissionStore) UpdateGrade(ctx context.Context, id string, grade domain.Grade) error {
	if err := scoring.ValidateGrade(grade); err != nil {
		return err
	}
	res, err := s.db.NewUpdate().
		Model((*submissionRow)(nil)).
		Set("correct = ?", grade.Correct).
		Set("total = ?", grade.Total).
		Set("scaled_score = ?", grade.ScaledScore).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

// Next derives the next attempt number from stored rows. The unique
// (quiz_id, user_id, attempt) index turns a concurrent duplicate into an
// insert error instead of a silent collision.
func (s *SubmissionStore) Next(ctx context.Context, quizID, userID string) (int, error) {
	var last int
	err := s.db.NewSelect().
		Model((*submissionRow)(nil)).
		ColumnExpr("COALESCE(MAX(attempt), 0)").
		Where("quiz_id = ?", quizID).
		Where("user_id = ?", userID).
		Scan(ctx, &last)
	if err != nil {
		return 0, fmt.Errorf("next attempt: %w", err)
	}
	return last + 1, nil
}

func (s *SubmissionStore) checkStored(row submissionRow) {
	if err := scoring.ValidateScaled(row.ScaledScore); err != nil {
		s.logger.Warn("stored grade out of range",
			zap.String("submission_id", row.ID),
			zap.Float64("scaled_score", row.ScaledScore))
	}
}
