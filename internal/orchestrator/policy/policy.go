// Package policy defines configurable policy parameters for orchestrator behavior.
// It centralizes routing thresholds, execution limits and output formatting so
// they can be configured and tested in one place.
package policy

import (
	"fmt"
	"strings"
	"time"
)

// Config contains all configurable policy parameters for the orchestrator.
type Config struct {
	// Routing policies
	Routing RoutingPolicy

	// Execution policies
	Execution ExecutionPolicy

	// Output policies
	Output OutputPolicy
}

// RoutingPolicy controls how requests are assigned to agents.
type RoutingPolicy struct {
	// MinConfidence is the classifier confidence below which the keyword heuristic is used.
	MinConfidence float64
}

// ExecutionPolicy controls how agents are run.
type ExecutionPolicy struct {
	// AgentTimeout bounds a single agent invocation.
	AgentTimeout time.Duration

	// MaxParallel is the maximum number of agents running at once in parallel mode.
	MaxParallel int
}

// OutputPolicy controls how agent results are combined.
type OutputPolicy struct {
	// SectionFormat formats one agent's section of a multi-agent response.
	// It receives the agent name and its text, in that order.
	SectionFormat string

	// EmptyResponse is returned when no agent produced output.
	EmptyResponse string
}

// Default values.
const (
	DefaultMinConfidence = 0.5
	DefaultAgentTimeout  = 2 * time.Minute
	DefaultMaxParallel   = 4
	DefaultSectionFormat = "## %s\n\n%s"
	DefaultEmptyResponse = "No response generated."
)

// Default returns the default policy configuration.
func Default() *Config {
	return &Config{
		Routing: RoutingPolicy{
			MinConfidence: DefaultMinConfidence,
		},
		Execution: ExecutionPolicy{
			AgentTimeout: DefaultAgentTimeout,
			MaxParallel:  DefaultMaxParallel,
		},
		Output: OutputPolicy{
			SectionFormat: DefaultSectionFormat,
			EmptyResponse: DefaultEmptyResponse,
		},
	}
}

// Validate resets out-of-range values to their defaults. It returns an error
// only for a SectionFormat that does not take exactly two string verbs.
func (c *Config) Validate() error {
	if c.Routing.MinConfidence < 0 || c.Routing.MinConfidence > 1 {
		c.Routing.MinConfidence = DefaultMinConfidence
	}
	if c.Execution.AgentTimeout <= 0 {
		c.Execution.AgentTimeout = DefaultAgentTimeout
	}
	if c.Execution.MaxParallel < 1 {
		c.Execution.MaxParallel = DefaultMaxParallel
	}
	if c.Output.SectionFormat == "" {
		c.Output.SectionFormat = DefaultSectionFormat
	}
	if c.Output.EmptyResponse == "" {
		c.Output.EmptyResponse = DefaultEmptyResponse
	}
	if n := strings.Count(c.Output.SectionFormat, "%s"); n != 2 || strings.Count(c.Output.SectionFormat, "%") != 2 {
		return fmt.Errorf("section format %q must contain exactly two %%s verbs", c.Output.SectionFormat)
	}
	return nil
}
