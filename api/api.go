package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/innerself/api/mcp"
	"github.com/papercomputeco/innerself/pkg/innerself"
)

// Server is the API server for the innerself engine.
type Server struct {
	config Config
	engine *innerself.Engine
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server around engine. The MCP tools are
// mounted at /mcp.
func NewServer(config Config, engine *innerself.Engine, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	mcpServer, err := mcp.NewServer(mcp.Config{Engine: engine, Logger: logger})
	if err != nil {
		return nil, err
	}

	// Routing stays on the raw path; handlers unescape :name themselves so
	// names may contain spaces and slashes.
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		engine: engine,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	app.Post("/events", s.handleEvent)
	app.Get("/context/:name", s.handleContext)

	app.Get("/settings", s.handleGetSettings)
	app.Put("/settings", s.handlePutSettings)

	app.Get("/brains", s.handleListBrains)
	app.Get("/brains/:name", s.handleGetBrain)
	app.Delete("/brains/:name", s.handleDeleteBrain)
	app.Post("/brains/:name/goals", s.handleAddGoal)
	app.Post("/brains/:name/goals/resolve", s.handleResolveGoal)
	app.Post("/brains/:name/secrets", s.handleAddSecret)
	app.Put("/brains/:name/opinions", s.handleSetOpinion)

	app.Post("/snapshot", s.handleSnapshot)

	if config.Events != nil {
		app.Get("/stream", s.handleStream)
	}

	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Handler exposes the server as a net/http handler so it can be mounted
// behind another mux or served by httptest.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

// Shutdown gracefully shuts down the API server. Open event streams end
// first, since fiber waits for active connections.
func (s *Server) Shutdown() error {
	if s.config.Events != nil {
		_ = s.config.Events.Close()
	}
	return s.app.Shutdown()
}
