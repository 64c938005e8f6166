package api

import (
	"bufio"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/innerself/pkg/sse"
)

const keepAliveInterval = 15 * time.Second

// handleStream streams mind events as Server-Sent Events until the client
// disconnects or the hub closes. The optional character query parameter
// limits the stream to one character.
func (s *Server) handleStream(c *fiber.Ctx) error {
	character := strings.Clone(c.Query("character"))
	events, cancel := s.config.Events.Subscribe(0)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		if err := sse.WriteComment(w, "connected"); err != nil || w.Flush() != nil {
			return
		}

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if character != "" && ev.Character != character {
					continue
				}

				data, err := json.Marshal(ev)
				if err != nil {
					s.logger.Warn("failed to encode stream event", "error", err)
					continue
				}
				err = sse.Write(w, sse.Event{ID: ev.EventID, Type: ev.EventType, Data: string(data)})
				if err != nil || w.Flush() != nil {
					s.logger.Debug("stream client disconnected")
					return
				}

			case <-ticker.C:
				if err := sse.WriteComment(w, "keep-alive"); err != nil || w.Flush() != nil {
					s.logger.Debug("stream client disconnected")
					return
				}
			}
		}
	})

	return nil
}
