package classifier

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/switchboard/internal/registry"
)

const systemPromptHeader = `You are an intelligent request router for a multi-agent software development system.

Your task is to analyze user requests and classify their intent to route to the appropriate specialized agent(s).

## Available Agents
`

const systemPromptBody = `
## Intent Classification

Analyze the user query and determine:
1. **Primary Intent**: The main goal of the request
2. **Required Agents**: Which agent(s) should handle this, in the order they should run
3. **Execution Order**: single, sequential or parallel
4. **Confidence**: How confident you are in this classification (0.0-1.0)

## Common Patterns

### Single Agent
- "Write a function to..." -> coder
- "Generate tests for..." -> test_writer
- "Read Jira ticket PROJ-123" -> requirement_analyzer
- "Check code quality in..." -> qa_checker
- "Document the API..." -> docs_agent
- "Set up a GitHub Actions workflow..." -> devops

### Multiple Agents (Sequential)
- "Implement feature from JIRA-123" -> requirement_analyzer, then coder
- "Write code and tests for..." -> coder, then test_writer
- "Create and review function..." -> coder, then qa_checker

### Multiple Agents (Parallel)
- "Review code and documentation" -> qa_checker + docs_agent
- "Analyze requirements and check deployment status" -> requirement_analyzer + devops

Use "general" only when no other agent fits.

## Output Format

Respond with only a JSON object:

{
  "intent": "code_generation",
  "confidence": 0.95,
  "agents": ["coder"],
  "execution": "single",
  "reasoning": "User wants to create new code functionality"
}
`

// SystemPrompt builds the routing prompt from the agents in reg.
func SystemPrompt(reg *registry.Registry) string {
	var b strings.Builder
	b.WriteString(systemPromptHeader)
	for i, d := range reg.All() {
		fmt.Fprintf(&b, "%d. **%s**: %s", i+1, d.Name, d.Description)
		if len(d.Tags) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(d.Tags, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString(systemPromptBody)
	return b.String()
}

// UserPrompt wraps the request with the conversation summary, if any.
func UserPrompt(request, summary string) string {
	if strings.TrimSpace(summary) == "" {
		return "User request:\n" + request
	}
	return fmt.Sprintf("Conversation summary:\n%s\n\nUser request:\n%s", summary, request)
}
