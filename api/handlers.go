package api

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/innerself/pkg/innerself"
	"github.com/papercomputeco/innerself/pkg/mind"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ContextResponse is the rendered context for one character.
type ContextResponse struct {
	Name    string `json:"name"`
	Context string `json:"context"`
}

// BrainsResponse lists every tracked character.
type BrainsResponse struct {
	Count  int            `json:"count"`
	Brains []mind.Summary `json:"brains"`
}

// TextRequest carries the text of a goal or secret.
type TextRequest struct {
	Text string `json:"text"`
}

// OpinionRequest sets one opinion.
type OpinionRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

// nameParam decodes the :name segment. Routing runs on the raw path, so a
// name containing an escaped "/" still matches a single segment. The result
// is copied out of fiber's request buffer since names outlive the request.
func nameParam(c *fiber.Ctx) (string, bool) {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return "", false
	}
	return strings.Clone(name), true
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleEvent feeds one chat event to the engine.
func (s *Server) handleEvent(c *fiber.Ctx) error {
	var ev innerself.Event
	if err := c.BodyParser(&ev); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid event body")
	}

	res := s.engine.HandleEvent(c.UserContext(), ev)
	if res.Thought != "" {
		s.logger.Debug("thought formed via API", "character", res.Name)
	}
	return c.JSON(res)
}

func (s *Server) handleContext(c *fiber.Ctx) error {
	name, ok := nameParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "invalid character name")
	}
	return c.JSON(ContextResponse{Name: name, Context: s.engine.Context(name)})
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.engine.Settings())
}

// handlePutSettings replaces the engine settings. Invalid settings are
// rejected and the current ones are kept.
func (s *Server) handlePutSettings(c *fiber.Ctx) error {
	settings := s.engine.Settings()
	if err := c.BodyParser(&settings); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid settings body")
	}

	if err := s.engine.UpdateSettings(settings); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(s.engine.Settings())
}

func (s *Server) handleListBrains(c *fiber.Ctx) error {
	brains := s.engine.Store().Summaries()
	return c.JSON(BrainsResponse{Count: len(brains), Brains: brains})
}

func (s *Server) handleGetBrain(c *fiber.Ctx) error {
	name, ok := nameParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "invalid character name")
	}
	r, ok := s.engine.Store().Get(name)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "brain not found")
	}
	return c.JSON(r)
}

func (s *Server) handleDeleteBrain(c *fiber.Ctx) error {
	name, ok := nameParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "invalid character name")
	}
	if !s.engine.Store().Clear(name) {
		return errorJSON(c, fiber.StatusNotFound, "brain not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleSnapshot persists the store now rather than at the next interval.
func (s *Server) handleSnapshot(c *fiber.Ctx) error {
	if err := s.engine.Save(c.UserContext()); err != nil {
		s.logger.Error("snapshot failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "snapshot failed")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleAddGoal(c *fiber.Ctx) error {
	text, problem := parseText(c)
	if problem != "" {
		return errorJSON(c, fiber.StatusBadRequest, problem)
	}

	name, ok := nameParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "invalid character name")
	}
	s.engine.Store().AddGoal(name, text)
	return s.respondRecord(c, fiber.StatusCreated, name)
}

func (s *Server) handleResolveGoal(c *fiber.Ctx) error {
	text, problem := parseText(c)
	if problem != "" {
		return errorJSON(c, fiber.StatusBadRequest, problem)
	}

	name, ok := nameParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "invalid character name")
	}
	if _, ok := s.engine.Store().Get(name); !ok {
		return errorJSON(c, fiber.StatusNotFound, "brain not found")
	}
	if !s.engine.Store().ResolveGoal(name, text) {
		return errorJSON(c, fiber.StatusNotFound, "active goal not found")
	}
	return s.respondRecord(c, fiber.StatusOK, name)
}

func (s *Server) handleAddSecret(c *fiber.Ctx) error {
	text, problem := parseText(c)
	if problem != "" {
		return errorJSON(c, fiber.StatusBadRequest, problem)
	}

	name, ok := nameParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "invalid character name")
	}
	s.engine.Store().AddSecret(name, text)
	return s.respondRecord(c, fiber.StatusCreated, name)
}

func (s *Server) handleSetOpinion(c *fiber.Ctx) error {
	var req OpinionRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid opinion body")
	}
	if strings.TrimSpace(req.Key) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "key is required")
	}

	name, ok := nameParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "invalid character name")
	}
	s.engine.Store().SetOpinion(name, req.Key, req.Value)
	return s.respondRecord(c, fiber.StatusOK, name)
}

// parseText reads a TextRequest. A non-empty problem describes why the
// body was rejected.
func parseText(c *fiber.Ctx) (text, problem string) {
	var req TextRequest
	if err := c.BodyParser(&req); err != nil {
		return "", "invalid body"
	}
	text = strings.TrimSpace(req.Text)
	if text == "" {
		return "", "text is required"
	}
	return text, ""
}

func (s *Server) respondRecord(c *fiber.Ctx, status int, name string) error {
	r, _ := s.engine.Store().Get(name)
	return c.Status(status).JSON(r)
}
