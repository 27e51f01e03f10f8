package orchestrator

import (
	"time"

	"github.com/ShayCichocki/switchboard/internal/classifier"
	"github.com/ShayCichocki/switchboard/internal/contextmgr"
	"github.com/ShayCichocki/switchboard/internal/orchestrator/policy"
	"github.com/ShayCichocki/switchboard/internal/registry"
)

// RequiredConfig contains the minimal required configuration for an Orchestrator.
// All fields are required and have no defaults.
type RequiredConfig struct {
	// Registry resolves agent names to handlers.
	Registry *registry.Registry
	// Classifier routes requests to candidate agents.
	Classifier *classifier.Classifier
}

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

// orchestratorOptions holds all optional configuration.
type orchestratorOptions struct {
	parallel     bool
	agentTimeout time.Duration
	policyConfig *policy.Config
	onEvent      func(Event)
	manager      *contextmgr.Manager
}

// WithParallel allows parallel execution of independent agents.
func WithParallel(b bool) Option {
	return func(o *orchestratorOptions) { o.parallel = b }
}

// WithAgentTimeout overrides the policy's per-agent timeout.
func WithAgentTimeout(d time.Duration) Option {
	return func(o *orchestratorOptions) { o.agentTimeout = d }
}

// WithPolicy sets the policy configuration.
func WithPolicy(p *policy.Config) Option {
	return func(o *orchestratorOptions) { o.policyConfig = p }
}

// WithEventHandler registers a callback for orchestrator events.
func WithEventHandler(fn func(Event)) Option {
	return func(o *orchestratorOptions) { o.onEvent = fn }
}

// WithManager saves the session through m after every recorded turn.
func WithManager(m *contextmgr.Manager) Option {
	return func(o *orchestratorOptions) { o.manager = m }
}
