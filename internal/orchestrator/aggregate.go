package orchestrator

import (
	"fmt"
	"strings"
)

// aggregate combines successful outputs. A lone successful agent's text is
// returned as-is; otherwise each gets a section headed by its name.
func (o *Orchestrator) aggregate(results []AgentResult) string {
	var ok []AgentResult
	for _, r := range results {
		if r.Err == nil {
			ok = append(ok, r)
		}
	}

	switch {
	case len(ok) == 0:
		return o.policy.Output.EmptyResponse
	case len(results) == 1:
		if strings.TrimSpace(ok[0].Result.Text) == "" {
			return "Task completed."
		}
		return ok[0].Result.Text
	}

	sections := make([]string, len(ok))
	for i, r := range ok {
		sections[i] = fmt.Sprintf(o.policy.Output.SectionFormat, r.Agent, strings.TrimSpace(r.Result.Text))
	}
	return strings.Join(sections, "\n\n")
}
