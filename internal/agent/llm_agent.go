package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/switchboard/internal/llm"
	"github.com/ShayCichocki/switchboard/internal/logger"
	"github.com/ShayCichocki/switchboard/internal/tools"
)

const (
	toolCallPrefix = "TOOL_CALL "
	filePrefix     = "FILE:"

	// DefaultMaxToolRounds bounds the tool-call loop of one execution.
	DefaultMaxToolRounds = 3

	// recentTurnsForAgent is how many recent turns are replayed to the model.
	recentTurnsForAgent = 2
)

// LLMAgent is a Handler that answers with a single model, optionally using tools.
type LLMAgent struct {
	def       Definition
	llm       llm.Completer
	tools     tools.Provider
	maxRounds int
}

var _ Handler = (*LLMAgent)(nil)

// Option configures an LLMAgent.
type Option func(*LLMAgent)

// WithTools gives the agent access to external tools.
func WithTools(p tools.Provider) Option {
	return func(a *LLMAgent) { a.tools = p }
}

// WithMaxToolRounds sets how many tool-call rounds one execution may use.
func WithMaxToolRounds(n int) Option {
	return func(a *LLMAgent) {
		if n >= 0 {
			a.maxRounds = n
		}
	}
}

// NewLLMAgent creates an agent from a definition and a completer.
func NewLLMAgent(def Definition, completer llm.Completer, opts ...Option) *LLMAgent {
	a := &LLMAgent{
		def:       def,
		llm:       completer,
		tools:     tools.Nop{},
		maxRounds: DefaultMaxToolRounds,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Definition returns the agent's definition.
func (a *LLMAgent) Definition() Definition {
	return a.def
}

type toolCall struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// Execute builds the conversation from the task, calls the model, and resolves
// any tool calls it makes, up to the configured number of rounds.
func (a *LLMAgent) Execute(ctx context.Context, task Task) (Result, error) {
	log := logger.With("agent", a.def.Name)

	available, err := a.tools.DiscoverTools(ctx)
	if err != nil {
		log.Warn("tool discovery failed, continuing without tools", "error", err)
		available = nil
	}

	system := a.def.Prompt
	if len(available) > 0 {
		system += fmt.Sprintf(toolInstructions, formatTools(available))
	}

	messages := BuildMessages(task)
	var actions []string

	for round := 0; ; round++ {
		text, err := a.llm.Complete(ctx, system, messages)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", a.def.Name, err)
		}

		calls, rest := parseToolCalls(text)
		if len(calls) == 0 || len(available) == 0 || round >= a.maxRounds {
			final := text
			if len(calls) > 0 {
				final = rest
			}
			log.Debug("agent finished", "rounds", round, "tool_actions", len(actions))
			return Result{
				Text:         strings.TrimSpace(final),
				TouchedFiles: parseTouchedFiles(final),
				Actions:      actions,
				Success:      true,
			}, nil
		}

		messages = append(messages, llm.Assistant(text))
		var results []string
		for _, call := range calls {
			actions = append(actions, "Used tool: "+call.Tool)
			log.Info("tool call", "tool", call.Tool)

			res, err := a.tools.CallTool(ctx, call.Tool, call.Arguments)
			switch {
			case err != nil:
				results = append(results, fmt.Sprintf("TOOL_RESULT %s (error): %v", call.Tool, err))
			case res.IsError:
				results = append(results, fmt.Sprintf("TOOL_RESULT %s (error): %s", call.Tool, res.Text))
			default:
				results = append(results, fmt.Sprintf("TOOL_RESULT %s:\n%s", call.Tool, res.Text))
			}
		}
		messages = append(messages, llm.User(strings.Join(results, "\n\n")))
	}
}

// BuildMessages turns a task into the conversation sent to the model: the
// summary, the last two recent turns, then the request with active files and
// upstream outputs appended.
func BuildMessages(task Task) []llm.Message {
	var messages []llm.Message

	if task.Context.Summary != "" {
		messages = append(messages,
			llm.User("Previous conversation summary:\n"+task.Context.Summary),
			llm.Assistant("I understand the previous context."),
		)
	}

	recent := task.Context.RecentTurns
	if len(recent) > recentTurnsForAgent {
		recent = recent[len(recent)-recentTurnsForAgent:]
	}
	for _, turn := range recent {
		messages = append(messages, llm.User(turn.Request), llm.Assistant(turn.Response))
	}

	var sb strings.Builder
	sb.WriteString(task.Request)

	if len(task.Context.ActiveFiles) > 0 {
		sb.WriteString("\n\nActive files:\n")
		for _, f := range task.Context.ActiveFiles {
			sb.WriteString("  - " + f + "\n")
		}
	}

	if len(task.Upstream) > 0 {
		sb.WriteString("\n\nOutput from earlier agents in this request:\n")
		for _, up := range task.Upstream {
			if up.Failed {
				fmt.Fprintf(&sb, "\n### %s (upstream failed: %s)\n", up.Agent, up.Reason)
				if up.Text != "" {
					sb.WriteString(up.Text + "\n")
				}
				continue
			}
			fmt.Fprintf(&sb, "\n### %s\n%s\n", up.Agent, up.Text)
		}
	}

	messages = append(messages, llm.User(sb.String()))
	return messages
}

func formatTools(ts []tools.Tool) string {
	var sb strings.Builder
	for _, t := range ts {
		if t.Description != "" {
			fmt.Fprintf(&sb, "- %s: %s\n", t.Name, t.Description)
		} else {
			fmt.Fprintf(&sb, "- %s\n", t.Name)
		}
	}
	return sb.String()
}

// parseToolCalls extracts TOOL_CALL lines and returns the remaining text.
// Malformed calls are left in the text.
func parseToolCalls(text string) ([]toolCall, string) {
	var calls []toolCall
	var rest []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, toolCallPrefix) {
			rest = append(rest, line)
			continue
		}
		var call toolCall
		if err := json.Unmarshal([]byte(strings.TrimPrefix(trimmed, toolCallPrefix)), &call); err != nil || call.Tool == "" {
			rest = append(rest, line)
			continue
		}
		calls = append(calls, call)
	}
	return calls, strings.Join(rest, "\n")
}

func parseTouchedFiles(text string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, filePrefix) {
			continue
		}
		path := strings.TrimSpace(strings.TrimPrefix(trimmed, filePrefix))
		path = strings.Trim(path, "`")
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		files = append(files, path)
	}
	return files
}
