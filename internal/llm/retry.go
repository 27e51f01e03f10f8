package llm

import (
	"context"
	"time"

	"github.com/ShayCichocki/switchboard/internal/logger"
)

// Retrying wraps a Completer and retries failed calls with linear backoff.
type Retrying struct {
	inner    Completer
	attempts int
	backoff  time.Duration
	timeout  time.Duration
}

var _ Completer = (*Retrying)(nil)

// NewRetrying wraps inner so each Complete is attempted up to attempts times.
// A positive timeout bounds every individual attempt.
func NewRetrying(inner Completer, attempts int, backoff, timeout time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{inner: inner, attempts: attempts, backoff: backoff, timeout: timeout}
}

// Complete calls the wrapped completer until it succeeds, the attempts run out,
// or ctx is done.
func (r *Retrying) Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		text, err := r.once(ctx, systemPrompt, messages)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == r.attempts {
			break
		}
		logger.Debug("llm call failed, retrying", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.backoff * time.Duration(attempt)):
		}
	}
	return "", lastErr
}

// Tracker returns the wrapped completer's token tracker, if it has one.
func (r *Retrying) Tracker() *TokenTracker {
	return UsageOf(r.inner)
}

func (r *Retrying) once(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	if r.timeout <= 0 {
		return r.inner.Complete(ctx, systemPrompt, messages)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Complete(callCtx, systemPrompt, messages)
}
