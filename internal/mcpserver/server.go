// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes read-only portfolio tools for LLM integration via stdio transport.
// All calls go through the regular backend client using a dedicated service
// token; mutations are deliberately not exposed.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hversson/atrium/internal/models"
	"github.com/hversson/atrium/internal/session"
	"github.com/hversson/atrium/internal/upstream"
)

// Server wraps the MCP server with portfolio tools.
type Server struct {
	mcp          *server.MCPServer
	client       *upstream.Client
	serviceToken string
}

// New creates a new MCP server with the read-only tools registered.
func New(client *upstream.Client, serviceToken string) *Server {
	s := &Server{client: client, serviceToken: serviceToken}

	s.mcp = server.NewMCPServer(
		"Atrium",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_blogs",
		mcp.WithDescription("List all blog posts in the portfolio."),
	), s.listTool(upstream.Blog, decodeList[models.BlogPost]))

	s.mcp.AddTool(mcp.NewTool("get_blog",
		mcp.WithDescription("Read a single blog post by its id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Blog post id")),
	), s.getTool(upstream.Blog, decodeOne[models.BlogPost]))

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List all portfolio projects."),
	), s.listTool(upstream.Project, decodeList[models.Project]))

	s.mcp.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Read a single project by its id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Project id")),
	), s.getTool(upstream.Project, decodeOne[models.Project]))

	s.mcp.AddTool(mcp.NewTool("list_skills",
		mcp.WithDescription("List all skills, technical and soft."),
	), s.listTool(upstream.Skill, decodeList[models.Skill]))

	s.mcp.AddTool(mcp.NewTool("list_experiences",
		mcp.WithDescription("List all work experience entries."),
	), s.listTool(upstream.Experience, decodeList[models.Experience]))

	s.mcp.AddTool(mcp.NewTool("list_contacts",
		mcp.WithDescription("List contact form submissions."),
	), s.listTool(upstream.Contact, decodeList[models.Contact]))

	s.mcp.AddTool(mcp.NewTool("dashboard_info",
		mcp.WithDescription("Summary counts of portfolio entities."),
	), s.dashboardInfo)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) ctx(parent context.Context) context.Context {
	return session.WithToken(parent, s.serviceToken)
}

// reshape decodes the envelope payload into the typed entity it carries
// before the result is rendered back out.
type reshape func(raw json.RawMessage) (any, error)

func decodeList[T any](raw json.RawMessage) (any, error) {
	var v []T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeOne[T any](raw json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Server) listTool(res upstream.Resource, decode reshape) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env, err := s.client.List(s.ctx(ctx), res)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return envelopeResult(res.Name, env, decode)
	}
}

func (s *Server) getTool(res upstream.Resource, decode reshape) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		env, err := s.client.Get(s.ctx(ctx), res, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return envelopeResult(res.Name, env, decode)
	}
}

func (s *Server) dashboardInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	env, err := s.client.List(s.ctx(ctx), upstream.Dashboard)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return envelopeResult("dashboard", env, decodeOne[map[string]any])
}

func envelopeResult(name string, env *upstream.Envelope, decode reshape) (*mcp.CallToolResult, error) {
	if !env.Success {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", name, env.Message)), nil
	}
	v, err := decode(env.Data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: decode payload: %v", name, err)), nil
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
