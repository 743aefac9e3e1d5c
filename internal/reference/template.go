package reference

import (
	"fmt"
	"strings"
)

const defaultSkillsText = "product thinking, execution, and measurement"

// Template is the deterministic reference answer used when no backend answer
// is available. It has the same Summary, Approach, Example and Metrics shape
// the backend is asked for.
func Template(question string, skills []string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		question = "this question"
	}

	return fmt.Sprintf(
		"Summary:\nFor %q, give a concise recommendation and the primary outcome you expect.\n\n"+
			"Approach:\n1) Clarify goals and target users. 2) Break the problem into key pillars (user research, MVP, metrics). "+
			"3) Design experiments and success criteria. 4) Iterate with cross-functional partners.\n\n"+
			"Example:\nDescribe a specific project: timeline, decisions made, trade-offs, stakeholders involved, and measurable outcomes.\n\n"+
			"Metrics & Impact:\nList the metrics you would track (e.g., activation, retention, NPS) and target improvements.\n\n"+
			"Skills emphasized: %s.\n",
		question,
		skillsText(skills),
	)
}

func skillsText(skills []string) string {
	cleaned := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return defaultSkillsText
	}
	return strings.Join(cleaned, ", ")
}
