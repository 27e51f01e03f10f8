package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ShayCichocki/switchboard/internal/logger"
)

// ServerConfig describes one MCP server launched over stdio.
type ServerConfig struct {
	Name    string            `mapstructure:"name" yaml:"name"`
	Command string            `mapstructure:"command" yaml:"command"`
	Args    []string          `mapstructure:"args" yaml:"args"`
	Env     map[string]string `mapstructure:"env" yaml:"env"`
}

// mcpClient is the subset of the mcp-go client used here.
type mcpClient interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

type connectFunc func(ctx context.Context, cfg ServerConfig) (mcpClient, error)

// MCPProvider routes tool discovery and calls to a set of MCP servers.
type MCPProvider struct {
	clientName    string
	clientVersion string
	connect       connectFunc

	mu      sync.Mutex
	clients map[string]mcpClient
	order   []string
	cache   []Tool
	cached  bool
}

var _ Provider = (*MCPProvider)(nil)

// MCPOption configures an MCPProvider.
type MCPOption func(*MCPProvider)

// WithClientInfo sets the client name and version sent during initialization.
func WithClientInfo(name, version string) MCPOption {
	return func(p *MCPProvider) {
		p.clientName = name
		p.clientVersion = version
	}
}

func withConnector(c connectFunc) MCPOption {
	return func(p *MCPProvider) { p.connect = c }
}

// NewMCPProvider starts and initializes every configured server.
// Servers that fail to start are logged and skipped; the provider is usable
// with whatever subset connected.
func NewMCPProvider(ctx context.Context, servers []ServerConfig, opts ...MCPOption) *MCPProvider {
	p := &MCPProvider{
		clientName:    "switchboard",
		clientVersion: "dev",
		connect:       connectStdio,
		clients:       make(map[string]mcpClient),
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, srv := range servers {
		if srv.Name == "" || srv.Command == "" {
			logger.Warn("skipping mcp server with missing name or command", "server", srv.Name)
			continue
		}
		if _, dup := p.clients[srv.Name]; dup {
			logger.Warn("skipping duplicate mcp server", "server", srv.Name)
			continue
		}
		c, err := p.start(ctx, srv)
		if err != nil {
			logger.Warn("mcp server unavailable", "server", srv.Name, "error", err)
			continue
		}
		p.clients[srv.Name] = c
		p.order = append(p.order, srv.Name)
		logger.Info("mcp server connected", "server", srv.Name)
	}
	return p
}

func (p *MCPProvider) start(ctx context.Context, srv ServerConfig) (mcpClient, error) {
	c, err := p.connect(ctx, srv)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", srv.Name, err)
	}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: p.clientName, Version: p.clientVersion}
	if _, err := c.Initialize(ctx, req); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize %s: %w", srv.Name, err)
	}
	return c, nil
}

func connectStdio(_ context.Context, cfg ServerConfig) (mcpClient, error) {
	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	c, err := client.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Servers returns the names of connected servers in configuration order.
func (p *MCPProvider) Servers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.order...)
}

// DiscoverTools lists tools from every connected server. The result is cached
// after the first successful listing. A server that fails to list is skipped.
func (p *MCPProvider) DiscoverTools(ctx context.Context) ([]Tool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached {
		return append([]Tool(nil), p.cache...), nil
	}

	var out []Tool
	var failed []string
	for _, name := range p.order {
		res, err := p.clients[name].ListTools(ctx, mcp.ListToolsRequest{})
		if err != nil {
			logger.Warn("mcp list tools failed", "server", name, "error", err)
			failed = append(failed, name)
			continue
		}
		for _, t := range res.Tools {
			out = append(out, Tool{
				Name:        QualifiedName(name, t.Name),
				Server:      name,
				Description: t.Description,
				InputSchema: schemaMap(t.InputSchema),
			})
		}
	}

	if len(failed) > 0 && len(failed) == len(p.order) {
		return nil, fmt.Errorf("list tools: all servers failed: %s", strings.Join(failed, ", "))
	}
	if len(failed) == 0 {
		p.cache = out
		p.cached = true
	}
	return append([]Tool(nil), out...), nil
}

// CallTool invokes "server.tool" on the named server.
func (p *MCPProvider) CallTool(ctx context.Context, name string, args map[string]any) (*Result, error) {
	server, tool := SplitName(name)

	p.mu.Lock()
	c, ok := p.clients[server]
	p.mu.Unlock()
	if !ok || tool == "" {
		return nil, fmtNotFound(name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	res, err := c.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}

	var parts []string
	for _, content := range res.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return &Result{Text: strings.Join(parts, "\n"), IsError: res.IsError}, nil
}

// Close shuts down every server connection.
func (p *MCPProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for _, name := range p.order {
		if err := p.clients[name].Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", name, err)
		}
	}
	p.clients = make(map[string]mcpClient)
	p.order = nil
	p.cache = nil
	p.cached = false
	return firstErr
}

func schemaMap(schema mcp.ToolInputSchema) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
