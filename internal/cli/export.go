package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pint-quiz-service/internal/domain"
	"pint-quiz-service/internal/export"
)

// NewExportCmd writes a quiz's gradebook to an .xlsx file.
func NewExportCmd(configPath *string) *cobra.Command {
	var quizID, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a quiz gradebook as an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			quiz, subs, gb, err := rt.service.ExportData(cmd.Context(), quizID)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("%s-gradebook.xlsx", quizID)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := writeGradebookFile(f, quiz, subs, gb); err != nil {
				return err
			}
			rt.logger.Info("gradebook exported",
				zap.String("quiz_id", quizID),
				zap.Int("submissions", len(subs)),
				zap.String("path", out))
			return nil
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz ID to export")
	cmd.Flags().StringVar(&out, "out", "", "output path (default <quiz>-gradebook.xlsx)")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}

// writeGradebookFile writes the workbook and closes f.
func writeGradebookFile(f *os.File, quiz domain.Quiz, subs []domain.Submission, gb domain.Gradebook) error {
	if err := export.WriteGradebook(f, quiz, subs, gb); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
