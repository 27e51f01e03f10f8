package models

import (
	"time"
	"unicode/utf8"
)

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

const (
	// SessionActive indicates the session accepts new turns.
	SessionActive SessionStatus = "active"
	// SessionClosed indicates the summary is finalized and the session is read-only
	// until explicitly reopened.
	SessionClosed SessionStatus = "closed"
)

// Valid returns true if the status is a known value.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionActive, SessionClosed:
		return true
	default:
		return false
	}
}

// Turn is one request/response exchange within a session.
type Turn struct {
	// Request is the user's request text.
	Request string `json:"request"`
	// Response is the aggregated response text.
	Response string `json:"response"`
	// Timestamp is when the exchange completed.
	Timestamp time.Time `json:"timestamp"`
	// Agents lists the agents that handled the request, in invocation order.
	Agents []string `json:"agents,omitempty"`
	// Tokens is the estimated token count of request plus response.
	Tokens int `json:"tokens"`
}

// Session is the durable record of one interaction stream.
type Session struct {
	// ID is the opaque session identifier.
	ID string `json:"id"`
	// Status is the current lifecycle state.
	Status SessionStatus `json:"status"`
	// CreatedAt is when the session was started.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the session was last mutated.
	UpdatedAt time.Time `json:"updated_at"`
	// Turns is the append-only history, including turns already folded into Summary.
	Turns []Turn `json:"turns"`
	// Summary is the rolling summary of all folded turns.
	Summary string `json:"summary,omitempty"`
	// SummarizedThrough is the number of leading turns covered by Summary.
	SummarizedThrough int `json:"summarized_through"`
	// ActiveFiles holds the paths touched so far, in first-touch order.
	ActiveFiles []string `json:"active_files,omitempty"`
	// TaskHistory holds short descriptions of actions taken, oldest first.
	TaskHistory []string `json:"task_history,omitempty"`
	// TotalTokensUsed is the running estimate of tokens exchanged in this session.
	TotalTokensUsed int `json:"total_tokens_used"`
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Turns = make([]Turn, len(s.Turns))
	for i, t := range s.Turns {
		t.Agents = append([]string(nil), t.Agents...)
		c.Turns[i] = t
	}
	c.ActiveFiles = append([]string(nil), s.ActiveFiles...)
	c.TaskHistory = append([]string(nil), s.TaskHistory...)
	return &c
}

// ContextView is the bounded view of a session handed to the classifier and agents.
type ContextView struct {
	// SessionID identifies the session the view was taken from.
	SessionID string
	// Summary is the rolling summary, empty if nothing has been folded.
	Summary string
	// RecentTurns holds the unfolded turns in chronological order.
	RecentTurns []Turn
	// ActiveFiles is always the full set.
	ActiveFiles []string
	// TaskHistory is always the full list.
	TaskHistory []string
	// Tokens is the estimate for Summary plus RecentTurns.
	Tokens int
	// Summarized is true if this call folded turns into a new summary.
	Summarized bool
	// SummarizationFailed is true if folding was needed but the call failed.
	SummarizationFailed bool
	// SummaryError describes the summarization failure, if any.
	SummaryError string
	// OverBudget is true if Tokens exceeds the hard context limit.
	OverBudget bool
}

// EstimateTokens returns an approximate token count for text.
// It is a deterministic proxy (one token per four characters), not a tokenizer.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// EstimateTurn returns the token estimate for a turn's request and response.
func EstimateTurn(request, response string) int {
	return EstimateTokens(request) + EstimateTokens(response)
}
