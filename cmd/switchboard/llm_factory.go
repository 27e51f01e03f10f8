package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/switchboard/internal/config"
	"github.com/ShayCichocki/switchboard/internal/llm"
)

// defaultModels are used when llm.model is empty for providers whose client
// requires an explicit model.
var defaultModels = map[string]string{
	llm.ProviderOpenAI:     "gpt-4o",
	llm.ProviderOpenRouter: "anthropic/claude-sonnet-4.5",
	llm.ProviderGemini:     "gemini-2.5-flash",
}

const retryBackoff = time.Second

// newCompleter builds the configured provider client wrapped in retries.
func newCompleter(cfg *config.Config) (llm.Completer, error) {
	provider := strings.ToLower(cfg.LLM.Provider)
	if provider == llm.ProviderAnthropic && cfg.LLM.UseBedrock {
		provider = llm.ProviderBedrock
	}

	key, err := config.GetAPIKey(cfg, provider)
	if err != nil && provider != llm.ProviderBedrock {
		if !isKnownProvider(provider) {
			return nil, unknownProvider(provider)
		}
		return nil, err
	}

	model := cfg.LLM.Model
	if model == "" {
		model = defaultModels[provider]
	}

	var inner llm.Completer
	switch provider {
	case llm.ProviderAnthropic, llm.ProviderBedrock:
		inner, err = llm.NewAnthropicClient(llm.AnthropicConfig{
			Model:         anthropic.Model(model),
			APIKey:        key,
			MaxTokens:     int64(cfg.LLM.MaxTokens),
			UseAWSBedrock: provider == llm.ProviderBedrock,
			AWSRegion:     cfg.LLM.AWSRegion,
			AWSProfile:    cfg.LLM.AWSProfile,
		})
	case llm.ProviderOpenAI, llm.ProviderOpenRouter:
		inner, err = llm.NewOpenAIClient(llm.OpenAIConfig{
			Provider:  provider,
			APIKey:    key,
			BaseURL:   cfg.LLM.BaseURL,
			Model:     model,
			MaxTokens: int64(cfg.LLM.MaxTokens),
		})
	case llm.ProviderGemini:
		inner, err = llm.NewGeminiClient(llm.GeminiConfig{
			APIKey:    key,
			Model:     model,
			MaxTokens: int32(cfg.LLM.MaxTokens),
		})
	default:
		return nil, unknownProvider(provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", provider, err)
	}

	return llm.NewRetrying(inner, cfg.LLM.MaxRetries, retryBackoff, cfg.LLM.Timeout), nil
}

func isKnownProvider(name string) bool {
	for _, p := range llm.Providers() {
		if p == name {
			return true
		}
	}
	return false
}

func unknownProvider(name string) error {
	return fmt.Errorf("unknown provider %q (supported: %s)", name, strings.Join(llm.Providers(), ", "))
}
