package config

import (
	"github.com/ShayCichocki/switchboard/internal/tools"
)

// Names of the bundled integration servers.
const (
	ServerAtlassian = "atlassian"
	ServerSlack     = "slack"
	ServerGitHub    = "github_ci"
)

// MCPServers returns the tool servers to launch: every explicitly configured
// server, followed by the bundled integration servers whose credentials are
// present. An explicit server with the same name replaces the bundled one.
func (c *Config) MCPServers() []tools.ServerConfig {
	servers := append([]tools.ServerConfig(nil), c.Tools.Servers...)
	explicit := make(map[string]bool, len(servers))
	for _, s := range servers {
		explicit[s.Name] = true
	}

	add := func(s tools.ServerConfig) {
		if !explicit[s.Name] {
			servers = append(servers, s)
		}
	}

	if c.HasJiraConfig() || c.HasConfluenceConfig() {
		env := map[string]string{}
		if c.HasJiraConfig() {
			env["JIRA_URL"] = c.Integrations.Jira.URL
			env["JIRA_EMAIL"] = c.Integrations.Jira.Email
			env["JIRA_API_TOKEN"] = c.Integrations.Jira.APIToken
		}
		if c.HasConfluenceConfig() {
			env["CONFLUENCE_URL"] = c.Integrations.Confluence.URL
			env["CONFLUENCE_EMAIL"] = c.Integrations.Confluence.Email
			env["CONFLUENCE_API_TOKEN"] = c.Integrations.Confluence.APIToken
		}
		add(tools.ServerConfig{
			Name:    ServerAtlassian,
			Command: "python",
			Args:    []string{"-m", "mcp_atlassian"},
			Env:     env,
		})
	}

	if c.HasSlackConfig() {
		add(tools.ServerConfig{
			Name:    ServerSlack,
			Command: "python",
			Args:    []string{"-m", "slack_mcp"},
			Env: map[string]string{
				"SLACK_BOT_TOKEN": c.Integrations.Slack.BotToken,
				"SLACK_APP_TOKEN": c.Integrations.Slack.AppToken,
			},
		})
	}

	if c.HasGitHubConfig() {
		add(tools.ServerConfig{
			Name:    ServerGitHub,
			Command: "python",
			Args:    []string{"-m", "github_mcp"},
			Env: map[string]string{
				"GITHUB_TOKEN": c.Integrations.GitHub.Token,
				"GITHUB_OWNER": c.Integrations.GitHub.Owner,
				"GITHUB_REPO":  c.Integrations.GitHub.Repo,
			},
		})
	}

	return servers
}
