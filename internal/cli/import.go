package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pint-quiz-service/internal/infra/memory"
)

// NewImportCmd loads quizzes from a YAML or JSON document into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import quizzes from a file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			quizzes, err := memory.LoadQuizFile(file)
			if err != nil {
				return err
			}

			rt, err := loadRuntime(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if rt.pgQuizzes == nil {
				return fmt.Errorf("postgres url not configured")
			}

			for _, quiz := range quizzes.All() {
				if err := rt.pgQuizzes.SaveQuiz(ctx, quiz); err != nil {
					return fmt.Errorf("quiz %s: %w", quiz.ID, err)
				}
				if rt.redisCache != nil {
					if err := rt.redisCache.Invalidate(ctx, quiz.ID); err != nil {
						rt.logger.Warn("invalidate cached quiz", zap.String("quiz_id", quiz.ID), zap.Error(err))
					}
				}
				rt.logger.Info("quiz imported", zap.String("quiz_id", quiz.ID), zap.Int("questions", len(quiz.Questions)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "config/quizzes.yaml", "YAML or JSON quiz document")
	return cmd
}
