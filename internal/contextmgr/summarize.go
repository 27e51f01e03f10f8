package contextmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShayCichocki/switchboard/internal/llm"
	"github.com/ShayCichocki/switchboard/pkg/models"
)

const summarizeSystemPrompt = "You maintain a running summary of a software development conversation."

const summarizePromptTemplate = `Summarize this conversation, preserving:
- Key technical decisions and specifications
- Files that have been created or modified
- Tasks that have been completed
- Current work-in-progress items
- Any errors or issues encountered

Be concise but retain all important technical details.

Previous summary:
%s

Recent conversation:
%s

Provide a comprehensive summary that incorporates both the previous summary and new information.`

// recentActions is how many task history entries go into a summary request.
const recentActions = 10

func buildSummaryPrompt(previous string, turns []models.Turn, files, tasks []string) string {
	if strings.TrimSpace(previous) == "" {
		previous = "None"
	}

	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n\n", t.Request, t.Response)
	}
	if len(files) > 0 {
		b.WriteString("Active Files:\n")
		for _, f := range files {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
		b.WriteString("\n")
	}
	if len(tasks) > 0 {
		if len(tasks) > recentActions {
			tasks = tasks[len(tasks)-recentActions:]
		}
		b.WriteString("Recent Actions:\n")
		for _, t := range tasks {
			fmt.Fprintf(&b, "  - %s\n", t)
		}
	}
	return fmt.Sprintf(summarizePromptTemplate, previous, strings.TrimRight(b.String(), "\n"))
}

func summarize(ctx context.Context, c llm.Completer, previous string, turns []models.Turn, files, tasks []string) (string, error) {
	text, err := c.Complete(ctx, summarizeSystemPrompt, []llm.Message{llm.User(buildSummaryPrompt(previous, turns, files, tasks))})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}
