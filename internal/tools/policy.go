package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"

	"github.com/ShayCichocki/switchboard/internal/logger"
)

// Policy decisions returned by the rego query.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// DefaultPolicy blocks destructive tools for every agent except devops.
const DefaultPolicy = `
package tool_policy

default decision = "allow"

destructive_verbs = {"delete", "drop", "destroy", "force_push", "remove"}

decision = "block" {
	some verb
	destructive_verbs[verb]
	contains(lower(input.tool), verb)
	input.agent != "devops"
}
`

// LoadPolicy returns the policy file's contents, or DefaultPolicy when path is empty.
func LoadPolicy(path string) (string, error) {
	if path == "" {
		return DefaultPolicy, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read tool policy: %w", err)
	}
	return string(data), nil
}

// Gate is a Provider decorator that evaluates an OPA policy before exposing or
// invoking a tool. The policy must define data.tool_policy.decision.
type Gate struct {
	inner Provider
	query rego.PreparedEvalQuery
	agent string
}

var _ Provider = (*Gate)(nil)

// NewGate prepares the policy and wraps inner.
func NewGate(ctx context.Context, inner Provider, policy string) (*Gate, error) {
	r := rego.New(
		rego.Query("data.tool_policy.decision"),
		rego.Module("tool_policy.rego", policy),
	)
	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare tool policy: %w", err)
	}
	return &Gate{inner: inner, query: query}, nil
}

// ForAgent returns a gate that evaluates calls on behalf of the named agent.
func (g *Gate) ForAgent(agent string) Provider {
	c := *g
	c.agent = agent
	return &c
}

// Evaluate returns the policy decision and optional reason for a tool call.
// The query may yield a plain string or an object {decision, reason}.
func (g *Gate) Evaluate(ctx context.Context, tool string, args map[string]any) (string, string, error) {
	server, _ := SplitName(tool)
	if args == nil {
		args = map[string]any{}
	}
	input := map[string]any{
		"agent":  g.agent,
		"tool":   tool,
		"server": server,
		"args":   args,
	}

	results, err := g.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("evaluate tool policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "default", nil
	}

	switch v := results[0].Expressions[0].Value.(type) {
	case string:
		return v, "", nil
	case map[string]interface{}:
		decision, _ := v["decision"].(string)
		reason, _ := v["reason"].(string)
		if decision == "" {
			return DecisionBlock, "policy object without decision", nil
		}
		return decision, reason, nil
	default:
		return DecisionBlock, "unexpected policy result type", nil
	}
}

// DiscoverTools returns only the tools the policy allows for this agent.
func (g *Gate) DiscoverTools(ctx context.Context) ([]Tool, error) {
	all, err := g.inner.DiscoverTools(ctx)
	if err != nil {
		return nil, err
	}

	allowed := make([]Tool, 0, len(all))
	for _, t := range all {
		decision, _, err := g.Evaluate(ctx, t.Name, nil)
		if err != nil {
			return nil, err
		}
		if decision == DecisionAllow {
			allowed = append(allowed, t)
		}
	}
	return allowed, nil
}

// CallTool evaluates the policy and forwards allowed calls.
func (g *Gate) CallTool(ctx context.Context, name string, args map[string]any) (*Result, error) {
	decision, reason, err := g.Evaluate(ctx, name, args)
	if err != nil {
		return nil, err
	}
	if decision != DecisionAllow {
		logger.Warn("tool call blocked", "agent", g.agent, "tool", name, "decision", decision, "reason", reason)
		if reason != "" {
			return nil, fmt.Errorf("%w: %s (%s)", ErrToolBlocked, name, reason)
		}
		return nil, fmt.Errorf("%w: %s", ErrToolBlocked, name)
	}
	return g.inner.CallTool(ctx, name, args)
}

// Close closes the wrapped provider.
func (g *Gate) Close() error {
	return g.inner.Close()
}
