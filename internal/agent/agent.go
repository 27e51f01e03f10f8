// Package agent defines the agent contract and the LLM-backed specialized handlers.
package agent

import (
	"context"

	"github.com/ShayCichocki/switchboard/pkg/models"
)

// Handler executes one request on behalf of an agent.
// A non-nil error means the agent failed; Result is ignored in that case.
type Handler interface {
	Execute(ctx context.Context, task Task) (Result, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, task Task) (Result, error)

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, task Task) (Result, error) {
	return f(ctx, task)
}

// Task is the input handed to an agent.
type Task struct {
	// Request is the original user request, unchanged.
	Request string
	// Context is the bounded session view shared by every agent in the turn.
	Context models.ContextView
	// Upstream holds outputs of agents that ran earlier in a sequential pipeline.
	// It is always empty in parallel mode.
	Upstream []Upstream
}

// Upstream is the output of an earlier agent in the same turn.
type Upstream struct {
	Agent  string
	Text   string
	Failed bool
	Reason string
}

// Result is what an agent reports after a successful execution.
type Result struct {
	// Text is the agent's answer.
	Text string
	// TouchedFiles lists paths the agent created or modified.
	TouchedFiles []string
	// Actions are short descriptions appended to the session's task history.
	Actions []string
	// Success is false when the agent completed but could not do the work.
	Success bool
}
