package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pint-quiz-service/internal/domain"
)

const (
	submissionsSheet = "Submissions"
	gradebookSheet   = "Gradebook"
)

var submissionHeaders = []string{"Submission ID", "User ID", "Attempt", "Submitted At", "Correct", "Total", "Score (0-20)"}

var gradebookHeaders = []string{"User ID", "Attempts", "Best Attempt", "Best Correct", "Total", "Best Score (0-20)"}

// WriteGradebook writes a quiz's submissions and best-grade summary as an
// .xlsx workbook. Scores are written rounded to two decimals.
func WriteGradebook(w io.Writer, quiz domain.Quiz, subs []domain.Submission, gb domain.Gradebook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", submissionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, submissionsSheet, 1, headerRow(submissionHeaders)); err != nil {
		return err
	}
	for i, sub := range subs {
		row := []interface{}{
			sub.ID,
			sub.UserID,
			sub.Attempt,
			sub.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
			sub.Grade.Correct,
			sub.Grade.Total,
			sub.Grade.Rounded(),
		}
		if err := writeRow(f, submissionsSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(gradebookSheet); err != nil {
		return fmt.Errorf("create gradebook sheet: %w", err)
	}
	if err := writeRow(f, gradebookSheet, 1, headerRow(gradebookHeaders)); err != nil {
		return err
	}
	for i, entry := range gb.Entries {
		row := []interface{}{
			entry.UserID,
			entry.Attempts,
			entry.BestAttempt,
			entry.Best.Correct,
			entry.Best.Total,
			entry.Best.Rounded(),
		}
		if err := writeRow(f, gradebookSheet, i+2, row); err != nil {
			return err
		}
	}

	if quiz.Title != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Title: quiz.Title, Subject: quiz.ID}); err != nil {
			return fmt.Errorf("set doc props: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func headerRow(headers []string) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return row
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
