package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spigell/pm-coach/internal/evaluation"
	"github.com/spigell/pm-coach/internal/reference"
	"go.uber.org/zap"
)

const (
	PromptExit        = "Exit"
	PromptNext        = "Next question"
	PromptModelAnswer = "Show the model answer"
	PromptRetry       = "Answer again"
)

var errExit = errors.New("exit requested")

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Answer questions interactively and get feedback",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		path, _ := cmd.Flags().GetString("input")

		run(func(ctx context.Context, app *application) error {
			input, err := readInput(path)
			if err != nil {
				return err
			}
			questions := input.questions()
			if len(questions) == 0 {
				app.logger.Info("exiting", zap.String("reason", "no questions in the input file"))
				return nil
			}

			for {
				err := practiceRound(ctx, app, cmd.OutOrStdout(), questions)
				if errors.Is(err, errExit) || errors.Is(err, promptui.ErrInterrupt) {
					return nil
				}
				if err != nil {
					return err
				}
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(practiceCmd)

	practiceCmd.Flags().StringP("input", "i", "", "YAML or JSON file with questions")
	practiceCmd.MarkFlagRequired("input")
}

func practiceRound(ctx context.Context, app *application, out io.Writer, questions []reference.Question) error {
	items := make([]string, 0, len(questions)+1)
	for i, q := range questions {
		items = append(items, fmt.Sprintf("%d. %s", i+1, q.Text))
	}

	questionPrompt := promptui.Select{
		Label: "Choose a question and press ENTER",
		Items: append(items, PromptExit),
		Size:  10,
	}
	idx, selected, err := questionPrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptExit {
		return errExit
	}
	question := questions[idx]

	for {
		answerPrompt := promptui.Prompt{Label: "Your answer"}
		answer, err := answerPrompt.Run()
		if err != nil {
			return err
		}

		result := app.coach.EvaluateAnswer(ctx, evaluation.Request{
			Question: question.Text,
			Answer:   answer,
			Skills:   question.Skills,
		})
		printResult(out, result)

		next, err := afterAnswer(out, result)
		if err != nil || next != PromptRetry {
			return err
		}
	}
}

// afterAnswer asks what to do next and returns the chosen action.
func afterAnswer(out io.Writer, result evaluation.Result) (string, error) {
	for {
		actionPrompt := promptui.Select{
			Label: "What next?",
			Items: []string{PromptNext, PromptModelAnswer, PromptRetry, PromptExit},
		}
		_, action, err := actionPrompt.Run()
		if err != nil {
			return "", err
		}

		switch action {
		case PromptModelAnswer:
			fmt.Fprintf(out, "\n%s\n\n", result.ReferenceAnswer)
		case PromptExit:
			return "", errExit
		default:
			return action, nil
		}
	}
}

func printResult(out io.Writer, result evaluation.Result) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", result.Feedback)
	if !strings.HasPrefix(result.Feedback, "Score:") {
		fmt.Fprintf(&b, "Score: %d/100 (%s)\n", result.Score, result.Label)
	}
	if len(result.PriorityActions) > 0 {
		b.WriteString("\nPriority actions:\n")
		for _, action := range result.PriorityActions {
			fmt.Fprintf(&b, "- %s\n", action)
		}
	}
	if len(result.SkillBreakdown) > 0 {
		b.WriteString("\nSkills:\n")
		for _, skill := range sortedSkills(result.SkillBreakdown) {
			fmt.Fprintf(&b, "- %s: %d\n", skill, result.SkillBreakdown[skill].Score)
		}
	}
	if result.RecommendedSnippet != "" {
		fmt.Fprintf(&b, "\nFrom the model answer:\n%s\n", result.RecommendedSnippet)
	}
	b.WriteString("\n")
	fmt.Fprint(out, b.String())
}

func sortedSkills(breakdown map[string]evaluation.SkillScore) []string {
	skills := make([]string, 0, len(breakdown))
	for skill := range breakdown {
		skills = append(skills, skill)
	}
	slices.Sort(skills)
	return skills
}
