package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pint-quiz-service/internal/infra/memory"
	"pint-quiz-service/internal/scoring"
)

// NewGradeCmd grades one answers file against a quiz file without any
// running backend.
func NewGradeCmd() *cobra.Command {
	var quizFile, quizID, answersFile string
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade an answers JSON file against a quiz file offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrade(cmd, quizFile, quizID, answersFile)
		},
	}
	cmd.Flags().StringVar(&quizFile, "quizzes", "config/quizzes.yaml", "YAML or JSON quiz document")
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz ID within the document")
	cmd.Flags().StringVar(&answersFile, "answers", "-", "answers JSON array, or - for stdin")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}

func runGrade(cmd *cobra.Command, quizFile, quizID, answersFile string) error {
	loader, err := memory.LoadQuizFile(quizFile)
	if err != nil {
		return err
	}
	quiz, err := loader.LoadQuiz(cmd.Context(), quizID)
	if err != nil {
		return fmt.Errorf("quiz %s: %w", quizID, err)
	}

	var raw []byte
	if answersFile == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(answersFile)
	}
	if err != nil {
		return err
	}

	answers, err := scoring.DecodeAnswers(raw)
	if err != nil {
		return err
	}
	grade, err := scoring.Grade(quiz, answers)
	if err != nil {
		return err
	}
	return writeIndented(cmd.OutOrStdout(), grade)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
