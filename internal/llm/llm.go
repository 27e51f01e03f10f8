// Package llm defines the single completion capability used by the classifier,
// the context manager, and the agents, plus one implementation per provider.
package llm

import (
	"context"
	"errors"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks messages written by the user or the orchestrator.
	RoleUser Role = "user"
	// RoleAssistant marks messages written by the model.
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation sent to a model.
type Message struct {
	Role    Role
	Content string
}

// User builds a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant builds an assistant message.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Completer is the provider-agnostic completion capability.
// Implementations must be safe for concurrent use.
type Completer interface {
	// Complete sends the system prompt and messages and returns the response text.
	Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error)
}

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("empty response content")

// Func adapts a plain function to the Completer interface.
type Func func(ctx context.Context, systemPrompt string, messages []Message) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	return f(ctx, systemPrompt, messages)
}

// Provider names accepted in configuration.
const (
	ProviderAnthropic  = "anthropic"
	ProviderBedrock    = "bedrock"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// OpenRouterBaseURL is the OpenAI-compatible endpoint used for OpenRouter.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Providers lists every supported provider name.
func Providers() []string {
	return []string{ProviderAnthropic, ProviderBedrock, ProviderOpenAI, ProviderOpenRouter, ProviderGemini}
}
