// Package config handles configuration loading and management for switchboard.
// It supports XDG config paths, project-level overrides, .env files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ShayCichocki/switchboard/internal/tools"
)

// ProjectConfigName is the per-project override file searched up from the
// working directory.
const ProjectConfigName = ".switchboard.yaml"

// Config holds all configuration for switchboard.
type Config struct {
	LLM          LLMConfig          `mapstructure:"llm"`
	Keys         KeysConfig         `mapstructure:"keys"`
	Context      ContextConfig      `mapstructure:"context"`
	Session      SessionConfig      `mapstructure:"session"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Agents       AgentsConfig       `mapstructure:"agents"`
	Tools        ToolsConfig        `mapstructure:"tools"`
	Integrations IntegrationsConfig `mapstructure:"integrations"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// LLMConfig selects and tunes the model provider.
type LLMConfig struct {
	// Provider is one of anthropic, bedrock, openai, openrouter or gemini.
	Provider string `mapstructure:"provider"`
	// Model overrides the provider's default model.
	Model      string        `mapstructure:"model"`
	MaxTokens  int           `mapstructure:"max_tokens"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
	BaseURL    string        `mapstructure:"base_url"`
	UseBedrock bool          `mapstructure:"use_bedrock"`
	AWSRegion  string        `mapstructure:"aws_region"`
	AWSProfile string        `mapstructure:"aws_profile"`
}

// KeysConfig holds provider API keys. Values may reference ${VARS}.
type KeysConfig struct {
	Anthropic  string `mapstructure:"anthropic"`
	OpenAI     string `mapstructure:"openai"`
	OpenRouter string `mapstructure:"openrouter"`
	Gemini     string `mapstructure:"gemini"`
}

// ContextConfig bounds the context view handed to agents.
type ContextConfig struct {
	MaxTokens              int     `mapstructure:"max_tokens"`
	SummarizationThreshold float64 `mapstructure:"summarization_threshold"`
	RecentTurns            int     `mapstructure:"recent_turns"`
}

// SessionConfig controls session persistence.
type SessionConfig struct {
	StoragePath string `mapstructure:"storage_path"`
	// Backend is "file" or "sqlite".
	Backend string `mapstructure:"backend"`
}

// OrchestratorConfig holds routing and execution settings.
type OrchestratorConfig struct {
	Parallel      bool          `mapstructure:"parallel"`
	AgentTimeout  time.Duration `mapstructure:"agent_timeout"`
	MinConfidence float64       `mapstructure:"min_confidence"`
	MaxParallel   int           `mapstructure:"max_parallel"`
}

// AgentsConfig holds agent definition settings.
type AgentsConfig struct {
	// DefinitionsFile is an optional YAML file of extra or overriding agents.
	DefinitionsFile string `mapstructure:"definitions_file"`
	MaxToolRounds   int    `mapstructure:"max_tool_rounds"`
}

// ToolsConfig holds external tool server settings.
type ToolsConfig struct {
	Servers []tools.ServerConfig `mapstructure:"servers"`
	// PolicyFile is an optional rego policy replacing the built-in one.
	PolicyFile string `mapstructure:"policy_file"`
}

// IntegrationsConfig holds credentials for the bundled tool servers.
type IntegrationsConfig struct {
	Jira       AtlassianConfig `mapstructure:"jira"`
	Confluence AtlassianConfig `mapstructure:"confluence"`
	Slack      SlackConfig     `mapstructure:"slack"`
	GitHub     GitHubConfig    `mapstructure:"github"`
}

// AtlassianConfig holds Jira or Confluence credentials.
type AtlassianConfig struct {
	URL      string `mapstructure:"url"`
	Email    string `mapstructure:"email"`
	APIToken string `mapstructure:"api_token"`
}

// SlackConfig holds Slack credentials.
type SlackConfig struct {
	BotToken string `mapstructure:"bot_token"`
	AppToken string `mapstructure:"app_token"`
}

// GitHubConfig holds GitHub CI credentials and the default repository.
type GitHubConfig struct {
	Token string `mapstructure:"token"`
	Owner string `mapstructure:"owner"`
	Repo  string `mapstructure:"repo"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// HasJiraConfig reports whether all Jira credentials are set.
func (c *Config) HasJiraConfig() bool {
	j := c.Integrations.Jira
	return j.URL != "" && j.Email != "" && j.APIToken != ""
}

// HasConfluenceConfig reports whether all Confluence credentials are set.
func (c *Config) HasConfluenceConfig() bool {
	j := c.Integrations.Confluence
	return j.URL != "" && j.Email != "" && j.APIToken != ""
}

// HasSlackConfig reports whether both Slack tokens are set.
func (c *Config) HasSlackConfig() bool {
	s := c.Integrations.Slack
	return s.BotToken != "" && s.AppToken != ""
}

// HasGitHubConfig reports whether the GitHub token and repository are set.
func (c *Config) HasGitHubConfig() bool {
	g := c.Integrations.GitHub
	return g.Token != "" && g.Owner != "" && g.Repo != ""
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string][]string{
	"llm.provider":                      {"MODEL_PROVIDER"},
	"llm.model":                         {"DEFAULT_MODEL"},
	"llm.max_retries":                   {"MAX_RETRIES"},
	"llm.base_url":                      {"OPENROUTER_BASE_URL"},
	"llm.aws_region":                    {"AWS_REGION"},
	"llm.aws_profile":                   {"AWS_PROFILE"},
	"keys.anthropic":                    {"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"},
	"keys.openai":                       {"OPENAI_API_KEY"},
	"keys.openrouter":                   {"OPENROUTER_API_KEY"},
	"keys.gemini":                       {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"context.max_tokens":                {"MAX_CONTEXT_TOKENS"},
	"context.summarization_threshold":   {"SUMMARIZATION_THRESHOLD"},
	"context.recent_turns":              {"RECENT_TURNS_TO_KEEP"},
	"session.storage_path":              {"SESSION_STORAGE_PATH"},
	"orchestrator.parallel":             {"ENABLE_PARALLEL_EXECUTION"},
	"integrations.jira.url":             {"JIRA_URL"},
	"integrations.jira.email":           {"JIRA_EMAIL"},
	"integrations.jira.api_token":       {"JIRA_API_TOKEN"},
	"integrations.confluence.url":       {"CONFLUENCE_URL"},
	"integrations.confluence.email":     {"CONFLUENCE_EMAIL"},
	"integrations.confluence.api_token": {"CONFLUENCE_API_TOKEN"},
	"integrations.slack.bot_token":      {"SLACK_BOT_TOKEN"},
	"integrations.slack.app_token":      {"SLACK_APP_TOKEN"},
	"integrations.github.token":         {"GITHUB_TOKEN"},
	"integrations.github.owner":         {"GITHUB_OWNER"},
	"integrations.github.repo":          {"GITHUB_REPO"},
	"logging.level":                     {"LOG_LEVEL"},
	"logging.file":                      {"LOG_FILE"},
}

// Load loads configuration from XDG paths, project overrides, .env and
// environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (including values from .env)
// 2. Project config (.switchboard.yaml in current directory or parent)
// 3. User config (~/.config/switchboard/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	bindEnv(v)
	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file over the defaults.
// Environment variables still apply; .env files and the user config do not.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	bindEnv(v)
	return unmarshal(v)
}

// LoadFile loads a single config file over the defaults, ignoring the
// environment. A missing file yields the defaults. It is used to edit the
// user config without persisting values that came from the environment.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}
	return unmarshal(v)
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("SWITCHBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		// BindEnv replaces the automatic name, so the prefixed one goes first.
		names := append([]string{"SWITCHBOARD_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, envs...)
		v.BindEnv(append([]string{key}, names...)...)
	}
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.expand()
	return cfg, nil
}

// expand resolves ${VAR} references in secrets.
func (c *Config) expand() {
	c.Keys.Anthropic = os.ExpandEnv(c.Keys.Anthropic)
	c.Keys.OpenAI = os.ExpandEnv(c.Keys.OpenAI)
	c.Keys.OpenRouter = os.ExpandEnv(c.Keys.OpenRouter)
	c.Keys.Gemini = os.ExpandEnv(c.Keys.Gemini)
	c.Integrations.Jira.APIToken = os.ExpandEnv(c.Integrations.Jira.APIToken)
	c.Integrations.Confluence.APIToken = os.ExpandEnv(c.Integrations.Confluence.APIToken)
	c.Integrations.Slack.BotToken = os.ExpandEnv(c.Integrations.Slack.BotToken)
	c.Integrations.Slack.AppToken = os.ExpandEnv(c.Integrations.Slack.AppToken)
	c.Integrations.GitHub.Token = os.ExpandEnv(c.Integrations.GitHub.Token)
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	return SaveTo(cfg, GetUserConfigPath())
}

// SaveTo writes the configuration to path.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	for _, f := range fields {
		v.Set(f.key, f.get(cfg))
	}
	if len(cfg.Tools.Servers) > 0 {
		v.Set("tools.servers", cfg.Tools.Servers)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()
	for _, f := range fields {
		v.SetDefault(f.key, f.get(d))
	}
	v.SetDefault("tools.servers", []tools.ServerConfig{})
}

// getUserConfigDir returns the XDG config directory for switchboard.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "switchboard")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "switchboard")
	}
	return filepath.Join(home, ".config", "switchboard")
}

// findProjectConfig searches for .switchboard.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:   "anthropic",
			MaxTokens:  4096,
			MaxRetries: 3,
			Timeout:    5 * time.Minute,
		},
		Context: ContextConfig{
			MaxTokens:              4000,
			SummarizationThreshold: 0.8,
			RecentTurns:            3,
		},
		Session: SessionConfig{
			StoragePath: "sessions/",
			Backend:     "file",
		},
		Orchestrator: OrchestratorConfig{
			AgentTimeout:  5 * time.Minute,
			MinConfidence: 0.5,
			MaxParallel:   4,
		},
		Agents: AgentsConfig{
			MaxToolRounds: 3,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}
