package orchestrator

import (
	"time"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventRequestStarted indicates a request has been accepted.
	EventRequestStarted EventType = "request_started"
	// EventClassified indicates the request has been routed.
	EventClassified EventType = "classified"
	// EventAgentStarted indicates an agent invocation has started.
	EventAgentStarted EventType = "agent_started"
	// EventAgentCompleted indicates an agent finished successfully.
	EventAgentCompleted EventType = "agent_completed"
	// EventAgentFailed indicates an agent failed or timed out.
	EventAgentFailed EventType = "agent_failed"
	// EventRequestCompleted indicates the response has been assembled.
	EventRequestCompleted EventType = "request_completed"
	// EventSummarizationFailed indicates the context view could not be summarized.
	EventSummarizationFailed EventType = "summarization_failed"
)

// Event represents an event emitted by the orchestrator.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// SessionID is the session the request belongs to.
	SessionID string
	// RequestID is shared by every event of one Handle call.
	RequestID string
	// Agent is the related agent, if applicable.
	Agent string
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Duration is the elapsed time for completion events.
	Duration time.Duration
}

// requestScope identifies one Handle call.
type requestScope struct {
	session string
	id      string
}

// emit delivers ev to the handler. Deliveries are serialized, so handlers
// need not be safe for concurrent use.
func (o *Orchestrator) emit(ev Event) {
	if o.onEvent == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	o.eventMu.Lock()
	defer o.eventMu.Unlock()
	o.onEvent(ev)
}
