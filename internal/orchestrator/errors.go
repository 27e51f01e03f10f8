package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrAgentTimeout matches any AgentError caused by the per-agent deadline.
	ErrAgentTimeout = errors.New("agent timed out")
	// ErrAgentPanic wraps a recovered panic from an agent handler.
	ErrAgentPanic = errors.New("agent panicked")
	// ErrAgentUnsuccessful is used when a handler returns no error but reports failure.
	ErrAgentUnsuccessful = errors.New("agent reported failure")
)

// AgentError records why one agent invocation failed.
type AgentError struct {
	Agent   string
	Err     error
	Timeout bool
}

func (e *AgentError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("agent %s timed out: %v", e.Agent, e.Err)
	}
	return fmt.Sprintf("agent %s failed: %v", e.Agent, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }

// Is reports timeouts as ErrAgentTimeout.
func (e *AgentError) Is(target error) bool {
	return target == ErrAgentTimeout && e.Timeout
}

// Reason is the short failure text handed to downstream agents.
func (e *AgentError) Reason() string {
	if e.Timeout {
		return "timed out"
	}
	return e.Err.Error()
}
