package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc_Complete(t *testing.T) {
	var gotSystem string
	var gotMessages []Message
	f := Func(func(_ context.Context, sp string, msgs []Message) (string, error) {
		gotSystem = sp
		gotMessages = msgs
		return "ok", nil
	})

	out, err := f.Complete(context.Background(), "sys", []Message{User("hi"), Assistant("hello")})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "sys", gotSystem)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}}, gotMessages)
}

func TestRetrying_SucceedsAfterFailures(t *testing.T) {
	var calls int32
	inner := Func(func(context.Context, string, []Message) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", errors.New("transient")
		}
		return "done", nil
	})

	r := NewRetrying(inner, 3, time.Millisecond, 0)
	out, err := r.Complete(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetrying_ReturnsLastError(t *testing.T) {
	var calls int32
	inner := Func(func(context.Context, string, []Message) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("permanent")
	})

	r := NewRetrying(inner, 2, time.Millisecond, 0)
	_, err := r.Complete(context.Background(), "", nil)
	require.Error(t, err)
	assert.Equal(t, "permanent", err.Error())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRetrying_StopsWhenContextCancelled(t *testing.T) {
	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	inner := Func(func(context.Context, string, []Message) (string, error) {
		atomic.AddInt32(&calls, 1)
		cancel()
		return "", errors.New("boom")
	})

	r := NewRetrying(inner, 5, time.Second, 0)
	_, err := r.Complete(ctx, "", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetrying_AppliesPerAttemptTimeout(t *testing.T) {
	inner := Func(func(ctx context.Context, _ string, _ []Message) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	r := NewRetrying(inner, 1, 0, 10*time.Millisecond)
	_, err := r.Complete(context.Background(), "", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRetrying_MinimumOneAttempt(t *testing.T) {
	r := NewRetrying(Func(func(context.Context, string, []Message) (string, error) { return "x", nil }), 0, 0, 0)
	assert.Equal(t, 1, r.attempts)
}

func TestProviders(t *testing.T) {
	assert.ElementsMatch(t, []string{"anthropic", "bedrock", "openai", "openrouter", "gemini"}, Providers())
}

func TestRetrying_ForwardsTracker(t *testing.T) {
	client, err := NewAnthropicClient(AnthropicConfig{APIKey: "test-key"})
	require.NoError(t, err)

	wrapped := NewRetrying(client, 3, time.Millisecond, 0)
	assert.Same(t, client.Tracker(), UsageOf(wrapped))

	plain := NewRetrying(Func(func(context.Context, string, []Message) (string, error) {
		return "", nil
	}), 1, 0, 0)
	assert.Nil(t, UsageOf(plain))
}
