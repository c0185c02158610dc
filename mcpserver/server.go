// Package mcpserver exposes tool backends over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/rigorexec/backend"
	"github.com/jonwraymond/rigorexec/code"
	"github.com/jonwraymond/rigorexec/logging"
)

// Lister lists the tools to publish. *backend.Aggregator implements it.
type Lister interface {
	ListAllTools(ctx context.Context) ([]model.Tool, error)
}

// Config configures a Server.
type Config struct {
	// Name and Version identify the server to clients.
	Name    string
	Version string

	// Tools lists the published tools. Required.
	Tools Lister

	// Executor runs calls by tool ID, usually an interceptor in front of
	// the aggregator. Required.
	Executor backend.Executor

	Logger logging.Logger
}

// Server is an MCP server whose tools are served by a backend.Executor.
// MCP tool names are the bare tool names; each maps to one tool ID.
type Server struct {
	srv    *mcp.Server
	exec   backend.Executor
	logger logging.Logger
	ids    map[string]string
}

// New lists the configured tools and registers them with a new MCP server.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Tools == nil || cfg.Executor == nil {
		return nil, fmt.Errorf("mcpserver: Tools and Executor are required")
	}
	if cfg.Name == "" {
		cfg.Name = "rigorexec"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	tools, err := cfg.Tools.ListAllTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcpserver: list tools: %w", err)
	}

	s := &Server{
		srv:    mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil),
		exec:   cfg.Executor,
		logger: logging.OrNop(cfg.Logger),
		ids:    make(map[string]string, len(tools)),
	}
	for _, tool := range tools {
		id := backend.FormatToolID(tool.Namespace, tool.Name)
		if prev, dup := s.ids[tool.Name]; dup {
			return nil, fmt.Errorf("mcpserver: tool name %q served by both %s and %s", tool.Name, prev, id)
		}
		s.ids[tool.Name] = id

		def := tool.Tool
		if def.InputSchema == nil {
			def.InputSchema = map[string]any{"type": "object"}
		}
		s.srv.AddTool(&def, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return s.call(ctx, id, req.Params.Arguments)
		})
	}
	return s, nil
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *mcp.Server { return s.srv }

// ToolIDs maps published MCP tool names to tool IDs.
func (s *Server) ToolIDs() map[string]string {
	out := make(map[string]string, len(s.ids))
	for k, v := range s.ids {
		out[k] = v
	}
	return out
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio", "tools", len(s.ids))
	return s.srv.Run(ctx, &mcp.StdioTransport{})
}

// call runs one tool call. Tool failures, including blocked calls, are
// reported to the client as error results rather than protocol errors.
func (s *Server) call(ctx context.Context, id string, raw json.RawMessage) (*mcp.CallToolResult, error) {
	args := map[string]any{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &args); err != nil {
			return errorResult(fmt.Errorf("arguments must be a JSON object: %w", err)), nil
		}
	}

	out, err := s.exec.Execute(ctx, id, args)
	if err != nil {
		s.logger.Warn("tool call failed", "tool", id, "error", err)
		return errorResult(err), nil
	}

	body, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", id, err)
	}
	res := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
	}
	if er, ok := out.(code.ExecuteResult); ok {
		res.IsError = !er.Success && !er.NeedsConfirmation
		for _, fig := range er.Figures {
			img, err := base64.StdEncoding.DecodeString(fig.ImageBase64)
			if err != nil {
				continue
			}
			res.Content = append(res.Content, &mcp.ImageContent{Data: img, MIMEType: "image/" + fig.Format})
		}
	}
	return res, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
