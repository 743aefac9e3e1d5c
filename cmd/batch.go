package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate every item of a file and print the results as a JSON array",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		path, _ := cmd.Flags().GetString("input")
		generateOnly, _ := cmd.Flags().GetBool("generate-only")

		run(func(ctx context.Context, app *application) error {
			input, err := readInput(path)
			if err != nil {
				return err
			}

			if generateOnly {
				questions := input.questions()
				app.logger.Info("generating model answers", zap.Int("count", len(questions)))
				return writeJSON(cmd.OutOrStdout(), app.coach.GenerateAnswersBatch(ctx, questions))
			}

			app.logger.Info("evaluating answers", zap.Int("count", len(input.Items)))
			return writeJSON(cmd.OutOrStdout(), app.coach.EvaluateAnswersBatch(ctx, input.Items))
		})
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("input", "i", "", "YAML or JSON file with items (question, answer, reference, skills)")
	batchCmd.Flags().Bool("generate-only", false, "only generate model answers for the questions of the file")

	batchCmd.MarkFlagRequired("input")
}
