package evaluation

import (
	"fmt"
	"strings"

	"github.com/spigell/pm-coach/internal/utils"
)

const (
	strengthExample   = "You included a concrete example which helps demonstrate your experience."
	strengthMetric    = "You referenced measurable outcomes which helps validate impact."
	strengthStructure = "Your answer had a clear structure or roadmap."

	weaknessEmpty     = "No answer provided. Write at least a short recommendation to be evaluated."
	weaknessExample   = "No concise example. Add a 1-2 sentence STAR example to show execution."
	weaknessMetric    = "Missing concrete metrics. Add baselines and targets to make impact tangible."
	weaknessStructure = "Answer lacked a short opening summary. Start with a single-sentence recommendation."

	stepExample   = "Pick one relevant project and summarize Situation, Action, and Result with a number."
	stepMetric    = "State the metric you'll track and the target change (e.g., +8% activation)."
	stepStructure = "Open with one sentence that clearly states your recommendation and main trade-off."

	// WeaknessUnavailable is reported when a mandatory backend could not evaluate.
	WeaknessUnavailable = "Evaluation unavailable: the generative backend did not return a usable evaluation."

	defaultSnippet  = "Start with a one-line recommendation, then 2-3 steps (approach), one concise example, and 1 metric target."
	snippetMinRunes = 40
	snippetMaxRunes = 600
	snippetMaxSents = 4
	maxPriority     = 4
)

var tipBank = []string{
	"Start with a one-sentence summary, then outline 2-4 steps, and finish with expected impact.",
	"Use the STAR format: Situation, Task, Action, Result. Be concise and include metrics.",
	"Quantify impact where possible (e.g., % lift, absolute users). Mention how you'd measure success.",
	"Lead with the decision, then explain trade-offs and measurable outcomes.",
}

type actionRule struct {
	keywords []string
	action   string
}

var actionRules = []actionRule{
	{keywords: []string{"metric", "target", "baseline"}, action: "Add baseline + explicit target (e.g., +6% MAU in 8 weeks) and state how you'll measure it."},
	{keywords: []string{"segment", "customer"}, action: "Pick 1 prioritized customer segment and state why the change helps them."},
	{keywords: []string{"experiment", "a/b"}, action: "Define control vs variant, primary metric, MDE, sample size and timeline (e.g., 8 weeks)."},
	{keywords: []string{"trade-off", "tradeoffs", "trade off"}, action: "State trade-offs (revenue vs MAU, support cost) and guardrails to monitor."},
	{keywords: []string{"example", "project"}, action: "Include a 1-2 sentence STAR example with numbers (impact + metric)."},
}

const defaultAction = "Pick one testable hypothesis, one metric, one timeline, and one owner."

// signalFeedback maps each signal to one fixed sentence. Claims are only
// made for signals that are present.
func signalFeedback(sig Signals, empty bool) (strengths, weaknesses, steps []string) {
	if empty {
		return nil,
			[]string{weaknessEmpty, weaknessExample, weaknessMetric, weaknessStructure},
			[]string{stepStructure, stepExample, stepMetric}
	}

	if sig.HasExample {
		strengths = append(strengths, strengthExample)
	} else {
		weaknesses = append(weaknesses, weaknessExample)
		steps = append(steps, stepExample)
	}
	if sig.HasMetric {
		strengths = append(strengths, strengthMetric)
	} else {
		weaknesses = append(weaknesses, weaknessMetric)
		steps = append(steps, stepMetric)
	}
	if sig.HasStructure {
		strengths = append(strengths, strengthStructure)
	} else {
		weaknesses = append(weaknesses, weaknessStructure)
		steps = append(steps, stepStructure)
	}

	return utils.Dedupe(strengths), utils.Dedupe(weaknesses), utils.Dedupe(steps)
}

func composeFeedback(score int, label Label, strengths, weaknesses, steps, missing []string, tip string) string {
	lines := []string{fmt.Sprintf("Score: %d/100 (%s)", score, label)}
	lines = appendSection(lines, "What you did well:", strengths)
	lines = appendSection(lines, "What to improve:", weaknesses)
	lines = appendSection(lines, "Concrete next steps:", steps)
	lines = appendSection(lines, "Points from the ideal answer you may have missed:", missing)
	if tip != "" {
		lines = append(lines, "Tip: "+tip)
	}
	return strings.Join(lines, "\n")
}

func appendSection(lines []string, title string, items []string) []string {
	if len(items) == 0 {
		return lines
	}
	lines = append(lines, title)
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return lines
}

// PriorityActions turns up to four weaknesses into concrete, deduplicated actions.
func PriorityActions(weaknesses []string) []string {
	actions := make([]string, 0, maxPriority)
	for i, w := range weaknesses {
		if i >= maxPriority {
			break
		}
		actions = append(actions, actionFor(strings.ToLower(w)))
	}
	return utils.Dedupe(actions)
}

func actionFor(weakness string) string {
	for _, rule := range actionRules {
		for _, kw := range rule.keywords {
			if strings.Contains(weakness, kw) {
				return rule.action
			}
		}
	}
	return defaultAction
}

// RecommendedSnippet condenses the reference answer to its first sentences.
func RecommendedSnippet(reference string) string {
	reference = strings.TrimSpace(reference)
	if len([]rune(reference)) <= snippetMinRunes {
		return defaultSnippet
	}

	sentences := splitSentences(reference)
	if len(sentences) > snippetMaxSents {
		sentences = sentences[:snippetMaxSents]
	}
	snippet := strings.Join(sentences, " ")

	runes := []rune(snippet)
	if len(runes) > snippetMaxRunes {
		cut := string(runes[:snippetMaxRunes])
		if idx := strings.LastIndex(cut, " "); idx > 0 {
			cut = cut[:idx]
		}
		snippet = cut + "..."
	}
	return snippet
}
