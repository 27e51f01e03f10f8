package config

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// field is one scalar configuration key addressable by its dotted name.
type field struct {
	key    string
	secret bool
	get    func(*Config) any
	set    func(*Config, string) error
}

func stringField(key string, secret bool, p func(*Config) *string) field {
	return field{
		key:    key,
		secret: secret,
		get:    func(c *Config) any { return *p(c) },
		set:    func(c *Config, s string) error { *p(c) = s; return nil },
	}
}

func intField(key string, p func(*Config) *int) field {
	return field{
		key: key,
		get: func(c *Config) any { return *p(c) },
		set: func(c *Config, s string) error {
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("invalid integer for %s: %s", key, s)
			}
			*p(c) = n
			return nil
		},
	}
}

func floatField(key string, p func(*Config) *float64) field {
	return field{
		key: key,
		get: func(c *Config) any { return *p(c) },
		set: func(c *Config, s string) error {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid number for %s: %s", key, s)
			}
			*p(c) = f
			return nil
		},
	}
}

func boolField(key string, p func(*Config) *bool) field {
	return field{
		key: key,
		get: func(c *Config) any { return *p(c) },
		set: func(c *Config, s string) error {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return fmt.Errorf("invalid boolean for %s: %s", key, s)
			}
			*p(c) = b
			return nil
		},
	}
}

// durationField reads and writes durations in time.Duration string form.
func durationField(key string, p func(*Config) *time.Duration) field {
	return field{
		key: key,
		get: func(c *Config) any { return p(c).String() },
		set: func(c *Config, s string) error {
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, s)
			}
			*p(c) = d
			return nil
		},
	}
}

var fields = []field{
	stringField("llm.provider", false, func(c *Config) *string { return &c.LLM.Provider }),
	stringField("llm.model", false, func(c *Config) *string { return &c.LLM.Model }),
	intField("llm.max_tokens", func(c *Config) *int { return &c.LLM.MaxTokens }),
	intField("llm.max_retries", func(c *Config) *int { return &c.LLM.MaxRetries }),
	durationField("llm.timeout", func(c *Config) *time.Duration { return &c.LLM.Timeout }),
	stringField("llm.base_url", false, func(c *Config) *string { return &c.LLM.BaseURL }),
	boolField("llm.use_bedrock", func(c *Config) *bool { return &c.LLM.UseBedrock }),
	stringField("llm.aws_region", false, func(c *Config) *string { return &c.LLM.AWSRegion }),
	stringField("llm.aws_profile", false, func(c *Config) *string { return &c.LLM.AWSProfile }),

	stringField("keys.anthropic", true, func(c *Config) *string { return &c.Keys.Anthropic }),
	stringField("keys.openai", true, func(c *Config) *string { return &c.Keys.OpenAI }),
	stringField("keys.openrouter", true, func(c *Config) *string { return &c.Keys.OpenRouter }),
	stringField("keys.gemini", true, func(c *Config) *string { return &c.Keys.Gemini }),

	intField("context.max_tokens", func(c *Config) *int { return &c.Context.MaxTokens }),
	floatField("context.summarization_threshold", func(c *Config) *float64 { return &c.Context.SummarizationThreshold }),
	intField("context.recent_turns", func(c *Config) *int { return &c.Context.RecentTurns }),

	stringField("session.storage_path", false, func(c *Config) *string { return &c.Session.StoragePath }),
	stringField("session.backend", false, func(c *Config) *string { return &c.Session.Backend }),

	boolField("orchestrator.parallel", func(c *Config) *bool { return &c.Orchestrator.Parallel }),
	durationField("orchestrator.agent_timeout", func(c *Config) *time.Duration { return &c.Orchestrator.AgentTimeout }),
	floatField("orchestrator.min_confidence", func(c *Config) *float64 { return &c.Orchestrator.MinConfidence }),
	intField("orchestrator.max_parallel", func(c *Config) *int { return &c.Orchestrator.MaxParallel }),

	stringField("agents.definitions_file", false, func(c *Config) *string { return &c.Agents.DefinitionsFile }),
	intField("agents.max_tool_rounds", func(c *Config) *int { return &c.Agents.MaxToolRounds }),

	stringField("tools.policy_file", false, func(c *Config) *string { return &c.Tools.PolicyFile }),

	stringField("integrations.jira.url", false, func(c *Config) *string { return &c.Integrations.Jira.URL }),
	stringField("integrations.jira.email", false, func(c *Config) *string { return &c.Integrations.Jira.Email }),
	stringField("integrations.jira.api_token", true, func(c *Config) *string { return &c.Integrations.Jira.APIToken }),
	stringField("integrations.confluence.url", false, func(c *Config) *string { return &c.Integrations.Confluence.URL }),
	stringField("integrations.confluence.email", false, func(c *Config) *string { return &c.Integrations.Confluence.Email }),
	stringField("integrations.confluence.api_token", true, func(c *Config) *string { return &c.Integrations.Confluence.APIToken }),
	stringField("integrations.slack.bot_token", true, func(c *Config) *string { return &c.Integrations.Slack.BotToken }),
	stringField("integrations.slack.app_token", true, func(c *Config) *string { return &c.Integrations.Slack.AppToken }),
	stringField("integrations.github.token", true, func(c *Config) *string { return &c.Integrations.GitHub.Token }),
	stringField("integrations.github.owner", false, func(c *Config) *string { return &c.Integrations.GitHub.Owner }),
	stringField("integrations.github.repo", false, func(c *Config) *string { return &c.Integrations.GitHub.Repo }),

	stringField("logging.level", false, func(c *Config) *string { return &c.Logging.Level }),
	stringField("logging.file", false, func(c *Config) *string { return &c.Logging.File }),
}

func lookup(key string) (field, bool) {
	for _, f := range fields {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

// Keys returns every settable configuration key in sorted order.
func Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	sort.Strings(keys)
	return keys
}

// IsSecret reports whether key holds a credential that should be masked.
func IsSecret(key string) bool {
	f, ok := lookup(key)
	return ok && f.secret
}

// Get returns the value of key formatted for display. Secrets are returned
// unmasked; callers decide whether to mask them.
func (c *Config) Get(key string) (string, error) {
	f, ok := lookup(key)
	if !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return fmt.Sprint(f.get(c)), nil
}

// Set parses value into key.
func (c *Config) Set(key, value string) error {
	f, ok := lookup(key)
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	return f.set(c, value)
}
