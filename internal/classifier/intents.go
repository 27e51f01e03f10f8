package classifier

import (
	"strings"

	"github.com/ShayCichocki/switchboard/internal/agent"
)

// IntentMapping maps a model intent label to agents.
type IntentMapping struct {
	Intent string
	Agents []string
}

// DefaultIntentMappings is searched for an exact label first, then for a
// label that contains or is contained in an entry. Labels shorter than
// three characters only match exactly.
var DefaultIntentMappings = []IntentMapping{
	{"code_generation", []string{agent.NameCoder}},
	{"code_review", []string{agent.NameCoder, agent.NameQAChecker}},
	{"test_writing", []string{agent.NameTestWriter}},
	{"test_generation", []string{agent.NameTestWriter}},
	{"requirement_analysis", []string{agent.NameRequirementAnalyzer}},
	{"requirements", []string{agent.NameRequirementAnalyzer}},
	{"jira", []string{agent.NameRequirementAnalyzer}},
	{"qa_checking", []string{agent.NameQAChecker}},
	{"quality_assurance", []string{agent.NameQAChecker}},
	{"code_quality", []string{agent.NameQAChecker}},
	{"documentation", []string{agent.NameDocs}},
	{"docs", []string{agent.NameDocs}},
	{"slack", []string{agent.NameDocs}},
	{"confluence", []string{agent.NameRequirementAnalyzer, agent.NameDocs}},
	{"ci_cd", []string{agent.NameDevOps}},
	{"cicd", []string{agent.NameDevOps}},
	{"deployment", []string{agent.NameDevOps}},
	{"deploy", []string{agent.NameDevOps}},
	{"release", []string{agent.NameDevOps}},
	{"release_management", []string{agent.NameDevOps}},
	{"github_actions", []string{agent.NameDevOps}},
	{"workflow", []string{agent.NameDevOps}},
	{"pipeline", []string{agent.NameDevOps}},
	{"docker", []string{agent.NameDevOps}},
	{"dockerfile", []string{agent.NameDevOps}},
	{"containerization", []string{agent.NameDevOps}},
	{"infrastructure", []string{agent.NameDevOps}},
	{"devops", []string{agent.NameDevOps}},
	{"ship", []string{agent.NameDevOps}},
	{"production", []string{agent.NameDevOps}},
}

// mapIntent returns the registered agents for an intent label, or nil.
func (c *Classifier) mapIntent(intent string) []string {
	intent = strings.ToLower(strings.TrimSpace(intent))
	if intent == "" {
		return nil
	}
	for _, m := range c.intents {
		if m.Intent == intent {
			if agents := c.registered(m.Agents); len(agents) > 0 {
				return agents
			}
		}
	}
	if len(intent) < 3 {
		return nil
	}
	for _, m := range c.intents {
		if strings.Contains(intent, m.Intent) || strings.Contains(m.Intent, intent) {
			if agents := c.registered(m.Agents); len(agents) > 0 {
				return agents
			}
		}
	}
	return nil
}

func (c *Classifier) registered(names []string) []string {
	var out []string
	for _, n := range names {
		if c.reg.Has(n) {
			out = append(out, n)
		}
	}
	return out
}
