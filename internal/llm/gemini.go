package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/ShayCichocki/switchboard/internal/logger"
)

// GeminiConfig contains configuration for the Gemini API.
type GeminiConfig struct {
	APIKey    string
	Model     string
	MaxTokens int32
}

// GeminiClient implements Completer for Google Gemini.
// The SDK client is created lazily on the first request.
type GeminiClient struct {
	cfg GeminiConfig

	mu     sync.Mutex
	client *genai.Client
}

var _ Completer = (*GeminiClient)(nil)

// NewGeminiClient creates a new Gemini-backed completer.
func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("google API key not configured")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model not configured")
	}
	return &GeminiClient{cfg: cfg}, nil
}

func (c *GeminiClient) sdk(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	logger.Debug("gemini client initialized", "model", c.cfg.Model)
	return client, nil
}

// Complete sends a GenerateContent request and joins the non-thought text parts.
func (c *GeminiClient) Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return "", err
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: m.Content}},
			Role:  string(role),
		})
	}

	cfg := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if c.cfg.MaxTokens > 0 {
		cfg.MaxOutputTokens = c.cfg.MaxTokens
	}

	logger.Debug("gemini request", "model", c.cfg.Model, "messages", len(contents))
	result, err := client.Models.GenerateContent(ctx, c.cfg.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text == "" || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
