package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ShayCichocki/switchboard/internal/agent"
	"github.com/ShayCichocki/switchboard/internal/classifier"
	"github.com/ShayCichocki/switchboard/internal/config"
	"github.com/ShayCichocki/switchboard/internal/contextmgr"
	"github.com/ShayCichocki/switchboard/internal/llm"
	"github.com/ShayCichocki/switchboard/internal/logger"
	"github.com/ShayCichocki/switchboard/internal/orchestrator"
	"github.com/ShayCichocki/switchboard/internal/orchestrator/policy"
	"github.com/ShayCichocki/switchboard/internal/registry"
	"github.com/ShayCichocki/switchboard/internal/state"
	"github.com/ShayCichocki/switchboard/internal/tools"
	"github.com/ShayCichocki/switchboard/internal/version"
)

// app holds every long-lived component of one switchboard invocation.
type app struct {
	cfg          *config.Config
	llm          llm.Completer
	store        state.Store
	manager      *contextmgr.Manager
	tools        tools.Provider
	gate         *tools.Gate
	registry     *registry.Registry
	orchestrator *orchestrator.Orchestrator
}

// loadConfig loads configuration and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagProvider != "" {
		cfg.LLM.Provider = flagProvider
	}
	if flagModel != "" {
		cfg.LLM.Model = flagModel
	}
	if flagParallel {
		cfg.Orchestrator.Parallel = true
	}
	if flagVerbose {
		cfg.Logging.Level = "debug"
	}
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	return cfg, nil
}

// openStore opens the configured session backend.
func openStore(cfg *config.Config) (state.Store, error) {
	path := cfg.Session.StoragePath
	if path == "" {
		path = state.DefaultStoragePath
	}
	switch strings.ToLower(cfg.Session.Backend) {
	case "", "file":
		return state.NewFileStore(path)
	case "sqlite":
		return state.OpenStore(path)
	default:
		return nil, fmt.Errorf("unknown session backend %q (supported: file, sqlite)", cfg.Session.Backend)
	}
}

// openTools starts the configured tool servers behind the policy gate.
func openTools(ctx context.Context, cfg *config.Config) (*tools.Gate, error) {
	var provider tools.Provider = tools.Nop{}
	if servers := cfg.MCPServers(); len(servers) > 0 {
		provider = tools.NewMCPProvider(ctx, servers, tools.WithClientInfo("switchboard", version.Get()))
	}

	rules := tools.DefaultPolicy
	if cfg.Tools.PolicyFile != "" {
		var err error
		if rules, err = tools.LoadPolicy(cfg.Tools.PolicyFile); err != nil {
			provider.Close()
			return nil, err
		}
	}

	gate, err := tools.NewGate(ctx, provider, rules)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("compile tool policy: %w", err)
	}
	return gate, nil
}

// agentDefinitions merges built-in agents with the optional definitions file.
func agentDefinitions(cfg *config.Config) ([]agent.Definition, error) {
	defs := agent.Builtins()
	if cfg.Agents.DefinitionsFile == "" {
		return defs, nil
	}
	custom, err := agent.LoadDefinitions(cfg.Agents.DefinitionsFile)
	if err != nil {
		return nil, err
	}
	return agent.Merge(defs, custom), nil
}

// agentCatalog describes the configured agents without creating handlers
// or an LLM client.
func agentCatalog(cfg *config.Config) ([]registry.Descriptor, error) {
	defs, err := agentDefinitions(cfg)
	if err != nil {
		return nil, err
	}
	descs := make([]registry.Descriptor, 0, len(defs))
	for _, def := range defs {
		descs = append(descs, registry.Descriptor{
			Name:        def.Name,
			Description: def.Description,
			Tags:        def.Tags,
			DependsOn:   def.DependsOn,
		})
	}
	return descs, nil
}

// routingPolicy builds the orchestrator policy from cfg, with out-of-range
// values reset to defaults.
func routingPolicy(cfg *config.Config) (*policy.Config, error) {
	p := policy.Default()
	p.Routing.MinConfidence = cfg.Orchestrator.MinConfidence
	p.Execution.AgentTimeout = cfg.Orchestrator.AgentTimeout
	p.Execution.MaxParallel = cfg.Orchestrator.MaxParallel
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("orchestrator policy: %w", err)
	}
	return p, nil
}

// newApp wires the full request pipeline from cfg.
func newApp(ctx context.Context, cfg *config.Config, onEvent func(orchestrator.Event)) (*app, error) {
	completer, err := newCompleter(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, llm: completer}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	if a.store, err = openStore(cfg); err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	if a.gate, err = openTools(ctx, cfg); err != nil {
		return nil, err
	}
	a.tools = a.gate

	defs, err := agentDefinitions(cfg)
	if err != nil {
		return nil, err
	}
	a.registry, err = registry.FromDefinitions(defs, func(def agent.Definition) agent.Handler {
		return agent.NewLLMAgent(def, completer,
			agent.WithTools(a.gate.ForAgent(def.Name)),
			agent.WithMaxToolRounds(cfg.Agents.MaxToolRounds))
	})
	if err != nil {
		return nil, fmt.Errorf("build agent registry: %w", err)
	}

	a.manager = contextmgr.NewManager(a.store, completer, managerOptions(cfg))

	p, err := routingPolicy(cfg)
	if err != nil {
		return nil, err
	}
	routing := classifier.New(completer, a.registry,
		classifier.WithMinConfidence(p.Routing.MinConfidence))

	opts := []orchestrator.Option{
		orchestrator.WithPolicy(p),
		orchestrator.WithParallel(cfg.Orchestrator.Parallel),
		orchestrator.WithManager(a.manager),
	}
	if onEvent != nil {
		opts = append(opts, orchestrator.WithEventHandler(onEvent))
	}
	a.orchestrator = orchestrator.New(orchestrator.RequiredConfig{
		Registry:   a.registry,
		Classifier: routing,
	}, opts...)

	ok = true
	return a, nil
}

// openSession resumes id when given, otherwise starts a new session.
func (a *app) openSession(ctx context.Context, id string) (*contextmgr.Session, error) {
	if id == "" {
		return a.manager.Start(ctx, "")
	}
	sess, err := a.manager.Resume(ctx, id)
	if errors.Is(err, contextmgr.ErrSessionNotFound) {
		logger.Info("session not found, starting new one", "session", id)
		return a.manager.Start(ctx, id)
	}
	return sess, err
}

// Close releases tool servers and the session store.
func (a *app) Close() error {
	var errs []error
	if a.tools != nil {
		errs = append(errs, a.tools.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
