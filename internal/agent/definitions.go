package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Built-in agent names.
const (
	NameCoder               = "coder"
	NameTestWriter          = "test_writer"
	NameRequirementAnalyzer = "requirement_analyzer"
	NameQAChecker           = "qa_checker"
	NameDocs                = "docs_agent"
	NameDevOps              = "devops"
	NameGeneral             = "general"
)

// Definition describes an LLM-backed agent.
type Definition struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	// DependsOn names agents whose output this agent consumes when both run in one turn.
	DependsOn []string `yaml:"depends_on"`
	Prompt    string   `yaml:"prompt"`
}

// Builtins returns the default agent set in registration order.
func Builtins() []Definition {
	return []Definition{
		{
			Name:        NameCoder,
			Description: "Writes, modifies, debugs and refactors code",
			Tags:        []string{"code_generation", "code_modification", "debugging", "refactoring"},
			Prompt:      coderPrompt,
		},
		{
			Name:        NameTestWriter,
			Description: "Writes and improves test suites",
			Tags:        []string{"test_generation", "test_improvement", "test_coverage"},
			DependsOn:   []string{NameCoder},
			Prompt:      testWriterPrompt,
		},
		{
			Name:        NameRequirementAnalyzer,
			Description: "Analyzes requirements, tickets and specifications",
			Tags:        []string{"requirement_analysis", "jira", "confluence", "specification"},
			Prompt:      requirementPrompt,
		},
		{
			Name:        NameQAChecker,
			Description: "Reviews code quality, linting and security",
			Tags:        []string{"code_review", "quality_check", "linting", "security"},
			DependsOn:   []string{NameCoder},
			Prompt:      qaPrompt,
		},
		{
			Name:        NameDocs,
			Description: "Writes documentation, guides and summaries",
			Tags:        []string{"documentation", "slack_summary", "user_guides", "api_docs"},
			DependsOn:   []string{NameCoder},
			Prompt:      docsPrompt,
		},
		{
			Name:        NameDevOps,
			Description: "Handles CI/CD, deployment, releases and infrastructure",
			Tags:        []string{"ci_cd", "deployment", "release_management", "github_actions", "docker", "infrastructure"},
			Prompt:      devopsPrompt,
		},
		{
			Name:        NameGeneral,
			Description: "Handles requests no specialized agent claims",
			Tags:        []string{"general"},
			Prompt:      generalPrompt,
		},
	}
}

type definitionsFile struct {
	Agents []Definition `yaml:"agents"`
}

// LoadDefinitions reads custom agent definitions from a YAML file of the form
//
//	agents:
//	  - name: security_auditor
//	    tags: [security, audit]
//	    prompt: |
//	      You audit code for vulnerabilities.
func LoadDefinitions(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent definitions: %w", err)
	}

	var f definitionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse agent definitions %s: %w", path, err)
	}

	for i, d := range f.Agents {
		if d.Name == "" {
			return nil, fmt.Errorf("agent definition %d in %s has no name", i, path)
		}
		if d.Prompt == "" {
			return nil, fmt.Errorf("agent %q in %s has no prompt", d.Name, path)
		}
	}
	return f.Agents, nil
}

// Merge returns base with overrides applied. An override with an existing name
// replaces that definition in place; new names are appended in order.
func Merge(base, overrides []Definition) []Definition {
	out := append([]Definition(nil), base...)
	index := make(map[string]int, len(out))
	for i, d := range out {
		index[d.Name] = i
	}
	for _, d := range overrides {
		if i, ok := index[d.Name]; ok {
			out[i] = d
			continue
		}
		index[d.Name] = len(out)
		out = append(out, d)
	}
	return out
}
