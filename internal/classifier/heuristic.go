package classifier

import (
	"strings"
	"unicode"

	"github.com/ShayCichocki/switchboard/internal/agent"
)

// KeywordRule routes a request to Agent when any keyword matches.
type KeywordRule struct {
	Agent    string
	Keywords []string
}

// DefaultKeywordRules is checked in order and the first matching rule wins.
// Test and review rules come before coder so "write tests for this code"
// goes to the test writer.
var DefaultKeywordRules = []KeywordRule{
	{Agent: agent.NameTestWriter, Keywords: []string{"test", "pytest", "unittest"}},
	{Agent: agent.NameRequirementAnalyzer, Keywords: []string{"jira", "ticket", "requirement", "spec"}},
	{Agent: agent.NameQAChecker, Keywords: []string{"lint", "quality", "review", "check"}},
	{Agent: agent.NameDocs, Keywords: []string{"document", "docs", "readme", "slack"}},
	{Agent: agent.NameDevOps, Keywords: []string{"deploy", "docker", "pipeline", "workflow", "release", "ci"}},
	{Agent: agent.NameCoder, Keywords: []string{"code", "implement", "fix", "bug", "refactor", "function"}},
}

// words lowercases text and splits it on anything that is not a letter or digit.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// matchesKeyword reports whether kw is a prefix of some word. Two-letter
// keywords like "ci" must match a whole word.
func matchesKeyword(ws []string, kw string) bool {
	for _, w := range ws {
		if len(kw) <= 2 {
			if w == kw {
				return true
			}
			continue
		}
		if strings.HasPrefix(w, kw) {
			return true
		}
	}
	return false
}

// matchesTag reports whether a capability tag such as "user_guides" appears
// in the request as consecutive words.
func matchesTag(ws []string, tag string) bool {
	parts := strings.Split(strings.ToLower(tag), "_")
	if len(parts) == 1 {
		return matchesKeyword(ws, parts[0])
	}
	for i := 0; i+len(parts) <= len(ws); i++ {
		ok := true
		for j, p := range parts {
			if ws[i+j] != p {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// heuristic picks an agent by keyword, then by capability tag. Rules naming
// agents the registry does not know are skipped. It returns "" when nothing
// matches.
func (c *Classifier) heuristic(request string) string {
	ws := words(request)
	for _, rule := range c.rules {
		if !c.reg.Has(rule.Agent) {
			continue
		}
		for _, kw := range rule.Keywords {
			if matchesKeyword(ws, kw) {
				return rule.Agent
			}
		}
	}
	for _, d := range c.reg.All() {
		if d.Name == agent.NameGeneral {
			continue
		}
		for _, tag := range d.Tags {
			if matchesTag(ws, tag) {
				return d.Name
			}
		}
	}
	return ""
}
