package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/switchboard/internal/logger"
	"github.com/ShayCichocki/switchboard/internal/orchestrator"
)

var (
	flagQuery      string
	flagSession    string
	flagVerbose    bool
	flagListAgents bool
	flagParallel   bool
	flagProvider   string
	flagModel      string
)

// finishTimeout bounds the final summarization and save on exit.
const finishTimeout = 2 * time.Minute

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "Route development requests to specialized agents",
	Long: `Switchboard classifies natural-language software development requests and
routes them to specialized agents (coding, testing, requirements, QA, docs,
devops). Conversation history is kept in a token-bounded context that is
summarized automatically and persisted per session.

With no arguments, starts an interactive session. Use -q for a single query
and -s to resume an existing session.`,
	SilenceUsage: true,
	RunE:         runRoot,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "Run a single query and exit")
	rootCmd.Flags().StringVarP(&flagSession, "session", "s", "", "Resume (or create) the session with this ID")
	rootCmd.Flags().BoolVar(&flagListAgents, "list-agents", false, "List available agents and exit")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging and show orchestration events")
	rootCmd.PersistentFlags().BoolVar(&flagParallel, "parallel", false, "Allow independent agents to run in parallel")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "LLM provider (anthropic, bedrock, openai, openrouter, gemini)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "Model identifier for the provider")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(versionCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	r := newRenderer(out)

	var onEvent func(orchestrator.Event)
	if flagVerbose {
		onEvent = r.event
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if flagListAgents {
		descs, err := agentCatalog(cfg)
		if err != nil {
			return err
		}
		r.agents(descs)
		return nil
	}

	a, err := newApp(ctx, cfg, onEvent)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.openSession(ctx, flagSession)
	if err != nil {
		return err
	}
	logger.Info("session ready", "session", sess.ID(), "turns", len(sess.Turns()))

	s := &shell{app: a, sess: sess, render: r, in: cmd.InOrStdin(), out: out}
	if flagQuery != "" {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigs)
		s.sigs = sigs

		err = s.ask(ctx, flagQuery)
		if ferr := s.finish(); err == nil {
			err = ferr
		}
		return err
	}
	return s.run(ctx)
}

// finishContext returns a context for the final save that outlives a
// cancelled request context.
func finishContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), finishTimeout)
}

func printSessionHint(out io.Writer, id string) {
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("session %s saved; resume with: switchboard -s %s", id, id)))
}
