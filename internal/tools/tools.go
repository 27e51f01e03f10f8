// Package tools exposes external tools to agents through a small discovery and
// invocation contract, with an MCP-backed implementation and a no-op default.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToolNotFound is returned when a tool name is not known to the provider.
	ErrToolNotFound = errors.New("tool not found")
	// ErrToolBlocked is returned when policy forbids a call.
	ErrToolBlocked = errors.New("tool call blocked by policy")
)

// Tool describes one callable tool.
type Tool struct {
	// Name is the qualified name, "server.tool".
	Name string `json:"name"`
	// Server is the name of the server that provides the tool.
	Server string `json:"server"`
	// Description is the tool's human-readable description.
	Description string `json:"description,omitempty"`
	// InputSchema is the JSON schema of the tool's arguments.
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// Result is the outcome of a tool call.
type Result struct {
	// Text is the concatenated text content returned by the tool.
	Text string `json:"text"`
	// IsError is true when the tool reported a failure in its result.
	IsError bool `json:"is_error,omitempty"`
}

// Provider discovers and calls external tools. Any method may fail.
type Provider interface {
	// DiscoverTools lists the tools currently available.
	DiscoverTools(ctx context.Context) ([]Tool, error)
	// CallTool invokes a tool by qualified name.
	CallTool(ctx context.Context, name string, args map[string]any) (*Result, error)
	// Close releases any resources held by the provider.
	Close() error
}

// Nop is a Provider with no tools.
type Nop struct{}

var _ Provider = Nop{}

// DiscoverTools returns no tools.
func (Nop) DiscoverTools(context.Context) ([]Tool, error) { return nil, nil }

// CallTool always fails with ErrToolNotFound.
func (Nop) CallTool(_ context.Context, name string, _ map[string]any) (*Result, error) {
	return nil, fmtNotFound(name)
}

// Close does nothing.
func (Nop) Close() error { return nil }

// QualifiedName joins a server and tool name.
func QualifiedName(server, tool string) string {
	return server + "." + tool
}

// SplitName splits a qualified name into server and tool parts.
// A name without a dot has an empty server.
func SplitName(name string) (server, tool string) {
	if i := strings.Index(name, "."); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func fmtNotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrToolNotFound, name)
}
