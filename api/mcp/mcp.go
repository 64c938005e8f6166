// Package mcp exposes the innerself engine as MCP (Model Context Protocol)
// tools so agents can read a character's mind while composing prompts.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/innerself/pkg/innerself"
	"github.com/papercomputeco/innerself/pkg/utils"
)

type Config struct {
	// Engine answers the tool calls.
	Engine *innerself.Engine

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the innerself tools.
func NewServer(c Config) (*Server, error) {
	if c.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "innerself",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        contextToolName,
		Description: contextDescription,
	}, s.handleContext)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        brainToolName,
		Description: brainDescription,
	}, s.handleBrain)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        brainsToolName,
		Description: brainsDescription,
	}, s.handleBrains)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
