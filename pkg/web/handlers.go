package web

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-silverlink/internal/config"
	"github.com/teslashibe/go-silverlink/pkg/assistant"
	"github.com/teslashibe/go-silverlink/pkg/hub"
	"github.com/teslashibe/go-silverlink/pkg/memo"
	"github.com/teslashibe/go-silverlink/pkg/voice"
)

// turnResponse is returned by the push-to-talk routes.
type turnResponse struct {
	Snapshot voice.Snapshot `json:"snapshot"`
	Error    string         `json:"error,omitempty"`
}

func (s *Server) turn(c *fiber.Ctx, err error) error {
	resp := turnResponse{Snapshot: s.assistant.Snapshot()}
	if err == nil {
		return c.JSON(resp)
	}
	resp.Error = err.Error()

	switch {
	case errors.Is(err, voice.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(resp)
	case errors.Is(err, voice.ErrMissingCredential):
		return c.Status(fiber.StatusPreconditionRequired).JSON(resp)
	case errors.Is(err, voice.ErrCaptureFailure):
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	default:
		// The turn ran and ended; the snapshot carries the status.
		return c.JSON(resp)
	}
}

// handleStatus returns the current snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.assistant.Snapshot())
}

// Turns outlive the request, so they run on the assistant's context.
func (s *Server) handleStart(c *fiber.Ctx) error {
	return s.turn(c, s.assistant.Start(s.assistant.Context()))
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	return s.turn(c, s.assistant.Stop(s.assistant.Context()))
}

func (s *Server) handleCancel(c *fiber.Ctx) error {
	return s.turn(c, s.assistant.Cancel())
}

func (s *Server) handleListMemos(c *fiber.Ctx) error {
	return c.JSON(s.assistant.Snapshot().Memos)
}

func (s *Server) handleDeleteMemo(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid memo id",
		})
	}

	if err := s.assistant.DeleteMemo(id); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, memo.ErrNotFound) {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.assistant.Snapshot().Memos)
}

func (s *Server) handleUpdateKeys(c *fiber.Ctx) error {
	var req config.Keys
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body",
		})
	}

	if err := s.assistant.UpdateKeys(req); err != nil {
		s.logger.Error("save keys", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	snap := s.assistant.Snapshot()
	return c.JSON(fiber.Map{
		"needsSetup": snap.NeedsSetup,
		"status":     snap.Status,
	})
}

func (s *Server) handleSetView(c *fiber.Ctx) error {
	view, ok := assistant.ParseView(c.Params("name"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown view",
		})
	}
	s.assistant.SetView(view)
	return c.JSON(s.assistant.Snapshot())
}

// handleMetrics returns per-stage latency of the last turn and the average.
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	m := s.assistant.Metrics()
	avg := m.Average()
	resp := fiber.Map{
		"turns":   m.Turns(),
		"average": avg,
		"summary": avg.FormatLatency(),
	}
	if last, ok := m.Last(); ok {
		resp["last"] = last
	}
	return c.JSON(resp)
}

func (s *Server) requireDocs(c *fiber.Ctx) error {
	if s.cfg.Docs == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Google Docs sync not configured",
		})
	}
	return c.Next()
}

func (s *Server) handleDocsStatus(c *fiber.Ctx) error {
	return c.JSON(s.cfg.Docs.Status())
}

func (s *Server) handleDocsAuth(c *fiber.Ctx) error {
	return c.Redirect(s.cfg.Docs.AuthURL())
}

func (s *Server) handleDocsCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing code",
		})
	}
	if err := s.cfg.Docs.HandleCallback(c.UserContext(), code); err != nil {
		s.logger.Error("docs authorization failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Redirect("/")
}

func (s *Server) handleDocsDisconnect(c *fiber.Ctx) error {
	if err := s.cfg.Docs.Disconnect(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.cfg.Docs.Status())
}

// handleStatusWS streams snapshots; the hub replays the latest on connect.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	hub.NewClient(s.statusHub, c).Run()
}
