package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print a model answer for an interview question",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		question, _ := cmd.Flags().GetString("question")
		skills, _ := cmd.Flags().GetStringSlice("skill")

		run(func(ctx context.Context, app *application) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), app.coach.GenerateAnswer(ctx, question, skills))
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("question", "q", "", "interview question")
	generateCmd.Flags().StringSliceP("skill", "s", nil, "skill tag, may be repeated")

	generateCmd.MarkFlagRequired("question")
}
