package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spigell/pm-coach/internal/evaluation"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score an answer to an interview question",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := evaluateRequest(cmd)
		if err != nil {
			return err
		}

		run(func(ctx context.Context, app *application) error {
			return writeJSON(cmd.OutOrStdout(), app.coach.EvaluateAnswer(ctx, req))
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringP("question", "q", "", "interview question")
	evaluateCmd.Flags().StringP("answer", "a", "", "candidate answer")
	evaluateCmd.Flags().String("answer-file", "", "read the candidate answer from a file")
	evaluateCmd.Flags().StringP("reference", "r", "", "reference answer (generated when empty)")
	evaluateCmd.Flags().StringSliceP("skill", "s", nil, "skill tag, may be repeated")

	evaluateCmd.MarkFlagRequired("question")
	evaluateCmd.MarkFlagsMutuallyExclusive("answer", "answer-file")
}

func evaluateRequest(cmd *cobra.Command) (evaluation.Request, error) {
	question, _ := cmd.Flags().GetString("question")
	answer, _ := cmd.Flags().GetString("answer")
	answerFile, _ := cmd.Flags().GetString("answer-file")
	ref, _ := cmd.Flags().GetString("reference")
	skills, _ := cmd.Flags().GetStringSlice("skill")

	if strings.TrimSpace(question) == "" {
		return evaluation.Request{}, errors.New("question is required")
	}

	if answerFile != "" {
		data, err := os.ReadFile(answerFile)
		if err != nil {
			return evaluation.Request{}, fmt.Errorf("reading answer file: %w", err)
		}
		answer = string(data)
	}

	return evaluation.Request{
		Question:  question,
		Answer:    answer,
		Reference: ref,
		Skills:    skills,
	}, nil
}
