package cli

import (
	"github.com/spf13/cobra"
)

// NewRegradeCmd recomputes stored grades for a quiz, repairing
// double-scaled or stale scores when --apply is given.
func NewRegradeCmd(configPath *string) *cobra.Command {
	var quizID string
	var apply bool
	cmd := &cobra.Command{
		Use:   "regrade",
		Short: "Recompute stored grades of a quiz and report differences",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.service.Regrade(cmd.Context(), quizID, apply)
			if err != nil {
				return err
			}
			return writeIndented(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz ID to regrade")
	cmd.Flags().BoolVar(&apply, "apply", false, "write recomputed grades back")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}
