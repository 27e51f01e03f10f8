package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/switchboard/internal/config"
	"github.com/ShayCichocki/switchboard/internal/llm"
)

var (
	initForce   bool
	initWithEnv bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a switchboard project",
	Long: `Initialize a directory for use with switchboard.

This command:
  - Checks which LLM provider keys are available
  - Creates the session storage directory
  - Writes a .switchboard.yaml project config template
  - Adds session storage and .env to .gitignore in git repositories

The directory argument is optional and defaults to the current directory.

Examples:
  switchboard init                # Initialize current directory
  switchboard init ./myproject    # Initialize specific directory
  switchboard init --force        # Overwrite an existing .switchboard.yaml
  switchboard init --with-env     # Also write a .env.example file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing project config")
	initCmd.Flags().BoolVar(&initWithEnv, "with-env", false, "Write a .env.example with every supported variable")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing switchboard in %s...\n\n", absPath)

	configPath := filepath.Join(absPath, config.ProjectConfigName)
	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Printf("Directory already initialized. Use --force to reinitialize.\n")
		return nil
	}

	if err := config.LoadDotEnv(filepath.Join(absPath, ".env")); err != nil {
		printStatus("⚠", err.Error(), color.FgYellow)
	}
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	provider := cfg.LLM.Provider
	if flagProvider != "" {
		provider = flagProvider
	}

	anyKey := checkProviderKeys(cfg, provider)
	checkIntegrations(cfg)

	storage := filepath.Join(absPath, strings.TrimSuffix(cfg.Session.StoragePath, "/"))
	if filepath.IsAbs(cfg.Session.StoragePath) {
		storage = cfg.Session.StoragePath
	}
	if err := os.MkdirAll(storage, 0755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	printStatus("✓", "Created session directory "+storage, color.FgGreen)

	if err := createProjectConfig(configPath, provider); err != nil {
		return fmt.Errorf("creating project config: %w", err)
	}
	printStatus("✓", "Created "+config.ProjectConfigName+" template", color.FgGreen)

	if initWithEnv {
		if err := createEnvExample(absPath); err != nil {
			return fmt.Errorf("creating .env.example: %w", err)
		}
		printStatus("✓", "Created .env.example", color.FgGreen)
	}

	if _, err := os.Stat(filepath.Join(absPath, ".git")); err == nil {
		if err := updateGitignore(absPath, cfg.Session.StoragePath); err != nil {
			return fmt.Errorf("updating .gitignore: %w", err)
		}
		printStatus("✓", "Updated .gitignore with switchboard entries", color.FgGreen)
	}

	fmt.Printf("\n%s switchboard initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	if !anyKey {
		fmt.Println("  1. Set an API key for your provider, for example:")
		fmt.Println("     export ANTHROPIC_API_KEY=your-key-here")
		fmt.Println()
	}
	fmt.Println("  2. Start a session:")
	fmt.Println("     switchboard")
	fmt.Println("     # or: switchboard -q \"write tests for the parser\"")
	fmt.Println()
	fmt.Println("  3. Learn more:")
	fmt.Println("     switchboard --help")

	return nil
}

// checkProviderKeys prints one status line per provider and reports whether
// the selected provider has credentials.
func checkProviderKeys(cfg *config.Config, selected string) bool {
	ready := false
	for _, p := range llm.Providers() {
		if p == llm.ProviderBedrock {
			continue
		}
		marker := ""
		if p == selected {
			marker = " (selected)"
		}
		switch config.GetAPIKeySource(cfg, p) {
		case config.KeySourceEnv:
			printStatus("✓", fmt.Sprintf("%s key found in environment%s", p, marker), color.FgGreen)
			ready = ready || p == selected
		case config.KeySourceConfig:
			printStatus("✓", fmt.Sprintf("%s key found in config file%s", p, marker), color.FgGreen)
			ready = ready || p == selected
		default:
			if p == selected {
				printStatus("⚠", fmt.Sprintf("%s key not set%s (you can set it later)", p, marker), color.FgYellow)
			}
		}
	}
	if selected == llm.ProviderBedrock || cfg.LLM.UseBedrock {
		printStatus("✓", "Bedrock uses the AWS credential chain", color.FgGreen)
		ready = true
	}
	return ready
}

// checkIntegrations reports which bundled tool servers will start.
func checkIntegrations(cfg *config.Config) {
	servers := cfg.MCPServers()
	if len(servers) == 0 {
		printStatus("·", "No tool servers configured", color.FgWhite)
		return
	}
	for _, s := range servers {
		if _, err := exec.LookPath(s.Command); err != nil {
			printStatus("⚠", fmt.Sprintf("Tool server %s: %s not found in PATH", s.Name, s.Command), color.FgYellow)
			continue
		}
		printStatus("✓", "Tool server "+s.Name+" configured", color.FgGreen)
	}
}

// createProjectConfig writes the .switchboard.yaml template.
func createProjectConfig(path, provider string) error {
	template := `# switchboard project configuration
# This file overrides defaults from ~/.config/switchboard/config.yaml

llm:
  provider: %s
#  model: claude-sonnet-4-5-20250929
#  max_retries: 3
#  timeout: 5m

# context:
#   max_tokens: 4000
#   summarization_threshold: 0.8
#   recent_turns: 3

# session:
#   storage_path: sessions/
#   backend: file        # or sqlite

# orchestrator:
#   parallel: false
#   agent_timeout: 5m
#   min_confidence: 0.5
#   max_parallel: 4

# agents:
#   definitions_file: agents.yaml
#   max_tool_rounds: 3

# tools:
#   policy_file: tools.rego
#   servers:
#     - name: files
#       command: mcp-server-filesystem
#       args: ["."]

# integrations:
#   jira:
#     url: https://example.atlassian.net
#     email: you@example.com
#     api_token: ${JIRA_API_TOKEN}
#   github:
#     token: ${GITHUB_TOKEN}
#     owner: your-org
#     repo: your-repo

# logging:
#   level: warn
#   file: logs/switchboard.log
`
	if provider == "" {
		provider = llm.ProviderAnthropic
	}
	return os.WriteFile(path, []byte(fmt.Sprintf(template, provider)), 0644)
}

// createEnvExample writes .env.example unless it already exists.
func createEnvExample(repoPath string) error {
	path := filepath.Join(repoPath, ".env.example")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	content := `MODEL_PROVIDER=anthropic
ANTHROPIC_API_KEY=
OPENAI_API_KEY=
OPENROUTER_API_KEY=
GEMINI_API_KEY=
DEFAULT_MODEL=

MAX_CONTEXT_TOKENS=4000
SUMMARIZATION_THRESHOLD=0.8
RECENT_TURNS_TO_KEEP=3
SESSION_STORAGE_PATH=sessions/
ENABLE_PARALLEL_EXECUTION=false

JIRA_URL=
JIRA_EMAIL=
JIRA_API_TOKEN=
CONFLUENCE_URL=
CONFLUENCE_EMAIL=
CONFLUENCE_API_TOKEN=
SLACK_BOT_TOKEN=
SLACK_APP_TOKEN=
GITHUB_TOKEN=
GITHUB_OWNER=
GITHUB_REPO=

LOG_LEVEL=warn
LOG_FILE=
`
	return os.WriteFile(path, []byte(content), 0644)
}

// updateGitignore adds switchboard entries to .gitignore if not present
func updateGitignore(repoPath, storagePath string) error {
	gitignorePath := filepath.Join(repoPath, ".gitignore")

	var existingContent string
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existingContent = string(data)
	}

	if storagePath == "" || filepath.IsAbs(storagePath) {
		storagePath = "sessions/"
	}
	if !strings.HasSuffix(storagePath, "/") {
		storagePath += "/"
	}
	entries := []string{storagePath, ".env", "logs/"}

	var missing []string
	for _, entry := range entries {
		if !strings.Contains(existingContent, entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var newContent strings.Builder
	newContent.WriteString(existingContent)
	if len(existingContent) > 0 && !strings.HasSuffix(existingContent, "\n") {
		newContent.WriteString("\n")
	}
	newContent.WriteString("\n# switchboard\n")
	for _, entry := range missing {
		newContent.WriteString(entry + "\n")
	}

	return os.WriteFile(gitignorePath, []byte(newContent.String()), 0644)
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
