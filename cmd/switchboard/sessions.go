package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/switchboard/internal/config"
	"github.com/ShayCichocki/switchboard/internal/contextmgr"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List, inspect and delete saved sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(m *contextmgr.Manager) error {
			infos, err := m.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				fmt.Fprintln(out, "No saved sessions.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tTURNS\tUPDATED")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", info.ID, info.Status, info.Turns, info.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		})
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session's summary and turns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(m *contextmgr.Manager) error {
			sess, err := m.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			snap := sess.Snapshot()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, titleStyle.Render("Session "+snap.ID))
			fmt.Fprintf(out, "  status: %s\n  created: %s\n  updated: %s\n  tokens used: %d\n",
				snap.Status, snap.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				snap.UpdatedAt.Local().Format("2006-01-02 15:04:05"), snap.TotalTokensUsed)
			if snap.Summary != "" {
				fmt.Fprintf(out, "  summarized turns: %d\n  summary:\n%s\n", snap.SummarizedThrough, indent(snap.Summary, "    "))
			}
			if len(snap.ActiveFiles) > 0 {
				fmt.Fprintln(out, "  active files:")
				for _, f := range snap.ActiveFiles {
					fmt.Fprintln(out, "    - "+f)
				}
			}
			for i, t := range snap.Turns {
				fmt.Fprintf(out, "\n%s %s\n", agentStyle.Render(fmt.Sprintf("[%d]", i+1)), mutedStyle.Render(fmt.Sprint(t.Agents)))
				fmt.Fprintln(out, "User: "+t.Request)
				fmt.Fprintln(out, "Assistant: "+t.Response)
			}
			return nil
		})
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete saved sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(m *contextmgr.Manager) error {
			for _, id := range args {
				if err := m.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", id)
			}
			return nil
		})
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

// withManager opens the session store without building the LLM pipeline.
func withManager(cmd *cobra.Command, fn func(*contextmgr.Manager) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	return fn(contextmgr.NewManager(store, nil, managerOptions(cfg)))
}

func managerOptions(cfg *config.Config) contextmgr.Options {
	return contextmgr.Options{
		MaxContextTokens:       cfg.Context.MaxTokens,
		SummarizationThreshold: cfg.Context.SummarizationThreshold,
		RecentTurnsToKeep:      cfg.Context.RecentTurns,
	}
}
