package evaluation

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/pm-coach/internal/utils"
)

const (
	skillAlignmentThreshold = 0.2
	maxSkillTips            = 2

	skillExampleSnippet = "Example: 'On project X, I led a 6-week experiment that improved activation by 8% " +
		"(from 12% to 20%) by changing onboarding flows; tracked via funnel cohorts.'"
)

var skillTipBank = []string{
	"Open with a short recommendation, then 2-3 steps and a metric.",
	"Add a STAR example (Situation, Task, Action, Result) with a number.",
	"Mention how you'd measure success (dashboard, cohorts, A/B test).",
	"Call out one trade-off and the decision you made.",
}

// skillBreakdown scores the answer once per skill tag, or per default skill
// when the request has none.
func (s *Scorer) skillBreakdown(ctx context.Context, req Request, sig Signals, empty bool) map[string]SkillScore {
	skills := utils.Dedupe(req.Skills)
	if len(skills) == 0 {
		skills = DefaultSkills
	}

	lower := strings.ToLower(req.Answer)
	tokens := tokenSet(req.Answer)

	out := make(map[string]SkillScore, len(skills))
	for _, skill := range skills {
		keywords := s.skills.Keywords(skill)
		if empty {
			out[skill] = emptySkillScore(skill, keywords)
			continue
		}

		present := countMarkers(lower, tokens, keywords)
		affinity := float64(present) / float64(max(1, len(keywords)))
		if s.similarity.Available() {
			if sem, ok := s.similarity.SkillAffinity(ctx, req.Answer, keywords); ok {
				affinity = sem
			}
		}

		w := s.weights.Skill
		raw := w.Affinity*clampFloat(affinity, 0, 1) +
			w.Overlap*minFloat(1, sig.OverlapRatio) +
			w.Length*sig.LengthScore
		if sig.HasExample {
			raw += w.Example
		}
		if sig.HasMetric {
			raw += w.Metric
		}
		if sig.HasStructure {
			raw += w.Structure
		}
		raw += Noise(s.weights.SkillNoise, req.Question, req.Answer, skill)
		score := roundScore(raw)

		var strengths, weaknesses, tips []string
		if present > 0 {
			noun := "terms"
			if present == 1 {
				noun = "term"
			}
			strengths = append(strengths, fmt.Sprintf("Mentioned %d %s related to %s.", present, noun, skill))
		} else {
			weaknesses = append(weaknesses, fmt.Sprintf("Could explicitly name 1-2 %s techniques or concepts.", skill))
			tips = append(tips, fmt.Sprintf("Try adding: %s and briefly say how you'd apply them.", strings.Join(firstN(keywords, 3), ", ")))
		}
		if sig.OverlapRatio > skillAlignmentThreshold {
			strengths = append(strengths, "Good topical alignment with the ideal answer.")
		}
		if sig.HasExample {
			strengths = append(strengths, "Used an example to illustrate your approach.")
		} else {
			weaknesses = append(weaknesses, "No concise project or example. Include a short STAR example.")
			tips = append(tips, "Write a 1-2 sentence example describing context, action, and result.")
		}
		if sig.HasMetric {
			strengths = append(strengths, "Included measurable outcomes or targets.")
		} else {
			weaknesses = append(weaknesses, "No metrics. Add a baseline and target to show impact.")
			tips = append(tips, "State what you'd measure (e.g., activation) and a target (e.g., +5-10%).")
		}
		if sig.HasStructure {
			strengths = append(strengths, "Clear structure or roadmap present.")
		} else {
			weaknesses = append(weaknesses, "Consider opening with a one-line summary before diving into steps.")
			tips = append(tips, "Start with: 'In short, I would ...' then list steps and finish with impact.")
		}

		snippet := ""
		if !sig.HasExample || !sig.HasMetric {
			snippet = skillExampleSnippet
		}
		tip := skillTipBank[Pick(len(skillTipBank), req.Question, req.Answer, skill)]

		out[skill] = SkillScore{
			Score:          score,
			Strengths:      utils.Dedupe(strengths),
			Weaknesses:     utils.Dedupe(weaknesses),
			Feedback:       skillFeedback(skill, score, strengths, weaknesses, tips, tip, snippet),
			ExampleSnippet: snippet,
		}
	}

	return out
}

func emptySkillScore(skill string, keywords []string) SkillScore {
	weaknesses := []string{
		fmt.Sprintf("Could explicitly name 1-2 %s techniques or concepts.", skill),
		"No concise project or example. Include a short STAR example.",
		"No metrics. Add a baseline and target to show impact.",
		"Consider opening with a one-line summary before diving into steps.",
	}
	tips := []string{fmt.Sprintf("Try adding: %s and briefly say how you'd apply them.", strings.Join(firstN(keywords, 3), ", "))}
	return SkillScore{
		Score:          0,
		Strengths:      []string{},
		Weaknesses:     weaknesses,
		Feedback:       skillFeedback(skill, 0, nil, weaknesses, tips, "", skillExampleSnippet),
		ExampleSnippet: skillExampleSnippet,
	}
}

func skillFeedback(skill string, score int, strengths, weaknesses, tips []string, tip, snippet string) string {
	lines := []string{fmt.Sprintf("Skill: %s (%d/100)", skill, score)}
	lines = appendSection(lines, "What went well:", strengths)
	lines = appendSection(lines, "Opportunities:", weaknesses)
	lines = appendSection(lines, "Quick tips:", firstN(tips, maxSkillTips))
	if tip != "" {
		lines = append(lines, "Try this: "+tip)
	}
	feedback := strings.Join(lines, "\n")
	if snippet != "" {
		feedback += "\n\n" + snippet
	}
	return feedback
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
