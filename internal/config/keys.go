package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured for a provider.
var ErrNoAPIKey = errors.New("no API key configured")

// keyEnv lists the environment variables checked per provider, in order.
var keyEnv = map[string][]string{
	"anthropic":  {"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"},
	"openai":     {"OPENAI_API_KEY"},
	"openrouter": {"OPENROUTER_API_KEY"},
	"gemini":     {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

func configuredKey(cfg *Config, provider string) string {
	if cfg == nil {
		return ""
	}
	var key string
	switch provider {
	case "anthropic":
		key = cfg.Keys.Anthropic
	case "openai":
		key = cfg.Keys.OpenAI
	case "openrouter":
		key = cfg.Keys.OpenRouter
	case "gemini":
		key = cfg.Keys.Gemini
	}
	key = os.ExpandEnv(key)
	if strings.HasPrefix(key, "${") {
		return ""
	}
	return key
}

// GetAPIKey returns the API key for provider.
// It checks in order: environment variables, config file.
// Bedrock authenticates through the AWS credential chain and needs no key.
func GetAPIKey(cfg *Config, provider string) (string, error) {
	if provider == "bedrock" {
		return "", nil
	}
	for _, name := range keyEnv[provider] {
		if key := os.Getenv(name); key != "" {
			return key, nil
		}
	}
	if key := configuredKey(cfg, provider); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%w for provider %s", ErrNoAPIKey, provider)
}

// MaskAPIKey returns a masked version of the API key for display.
// Shows the first 7 characters and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:7] + "..." + key[len(key)-4:]
}

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// GetAPIKeySource returns where the API key for provider was sourced from.
func GetAPIKeySource(cfg *Config, provider string) KeySource {
	for _, name := range keyEnv[provider] {
		if os.Getenv(name) != "" {
			return KeySourceEnv
		}
	}
	if configuredKey(cfg, provider) != "" {
		return KeySourceConfig
	}
	return KeySourceNone
}
