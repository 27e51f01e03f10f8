package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ShayCichocki/switchboard/internal/logger"
)

// OpenAIConfig contains configuration for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	// Provider is the reported provider name ("openai" or "openrouter").
	Provider string
	// APIKey is required.
	APIKey string
	// BaseURL overrides the API endpoint; OpenRouter uses OpenRouterBaseURL.
	BaseURL string
	// Model is the chat model identifier.
	Model string
	// MaxTokens caps the response length. Zero leaves the provider default.
	MaxTokens int64
}

// OpenAIClient implements Completer for OpenAI and OpenAI-compatible APIs.
// The SDK client is created lazily on the first request.
type OpenAIClient struct {
	cfg OpenAIConfig

	mu     sync.Mutex
	client *openai.Client
}

var _ Completer = (*OpenAIClient)(nil)

// NewOpenAIClient creates a new OpenAI-compatible completer.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key not configured", providerOr(cfg.Provider, ProviderOpenAI))
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s model not configured", providerOr(cfg.Provider, ProviderOpenAI))
	}
	if cfg.Provider == ProviderOpenRouter && cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	return &OpenAIClient{cfg: cfg}, nil
}

// Provider returns the provider name this client was built for.
func (c *OpenAIClient) Provider() string {
	return providerOr(c.cfg.Provider, ProviderOpenAI)
}

func (c *OpenAIClient) sdk() *openai.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client
	}

	options := []option.RequestOption{option.WithAPIKey(c.cfg.APIKey)}
	if c.cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(c.cfg.BaseURL))
	}
	client := openai.NewClient(options...)
	c.client = &client
	logger.Debug("openai client initialized", "provider", c.Provider(), "base_url", c.cfg.BaseURL)
	return c.client
}

// Complete sends a chat completion request and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(systemPrompt))
	}
	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.cfg.Model),
		Messages: msgs,
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(c.cfg.MaxTokens)
	}

	logger.Debug("openai request", "provider", c.Provider(), "model", c.cfg.Model, "messages", len(msgs))
	completion, err := c.sdk().Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", c.Provider(), err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s: no response choices returned", c.Provider())
	}

	content := completion.Choices[0].Message.Content
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func providerOr(p, def string) string {
	if p == "" {
		return def
	}
	return p
}
