package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/switchboard/internal/agent"
	"github.com/ShayCichocki/switchboard/internal/tools"
)

var toolsAgent string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect and call external tools",
	Long: `Inspect and call tools exposed by the configured MCP servers.

Servers come from tools.servers in the config plus the bundled Jira/Confluence,
Slack and GitHub servers when their credentials are set. Every call passes
through the tool policy for the selected agent.`,
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tools visible to an agent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTools(cmd, func(p tools.Provider) error {
			list, err := p.DiscoverTools(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No tools available.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOOL\tDESCRIPTION")
			for _, t := range list {
				fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
			}
			return w.Flush()
		})
	},
}

var toolsCallCmd = &cobra.Command{
	Use:   "call <server.tool> [json-arguments]",
	Short: "Call a tool as an agent",
	Example: `  switchboard tools call atlassian.jira_get_issue '{"issue_key": "PROJ-1"}'
  switchboard tools call --agent devops github_ci.list_workflow_runs`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		arguments := map[string]any{}
		if len(args) == 2 {
			if err := json.Unmarshal([]byte(args[1]), &arguments); err != nil {
				return fmt.Errorf("parse tool arguments: %w", err)
			}
		}
		return withTools(cmd, func(p tools.Provider) error {
			res, err := p.CallTool(cmd.Context(), args[0], arguments)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			if res.IsError {
				return fmt.Errorf("tool %s reported an error", args[0])
			}
			return nil
		})
	},
}

func init() {
	toolsCmd.PersistentFlags().StringVar(&toolsAgent, "agent", agent.NameGeneral, "Agent whose tool policy applies")
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsCallCmd)
}

// withTools starts the tool servers and hands fn the view of toolsAgent.
func withTools(cmd *cobra.Command, fn func(tools.Provider) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gate, err := openTools(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer gate.Close()

	return fn(gate.ForAgent(toolsAgent))
}
