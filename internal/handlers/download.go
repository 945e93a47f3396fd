package handlers

import (
	"bufio"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/savemedia/gateway/internal/download"
	apperrors "github.com/savemedia/gateway/internal/errors"
	"github.com/savemedia/gateway/internal/types"
)

// DownloadHandler serves POST /api/download
type DownloadHandler struct {
	supervisor *download.Supervisor
	logger     *zap.Logger
	production bool
}

// NewDownloadHandler creates a download handler
func NewDownloadHandler(sup *download.Supervisor, logger *zap.Logger, production bool) *DownloadHandler {
	return &DownloadHandler{
		supervisor: sup,
		logger:     logger,
		production: production,
	}
}

// HandleDownload validates the request, spawns the streaming subprocess and
// pipes its output to the client. Attachment headers are set only once the
// subprocess has started, so every failure before the first media byte still
// gets a JSON error body.
func (h *DownloadHandler) HandleDownload(c *fiber.Ctx) error {
	var req types.DownloadRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, apperrors.ErrInvalidRequest.WithCause(err), h.production)
	}

	if err := validateMediaURL(req.URL); err != nil {
		return writeError(c, err, h.production)
	}

	plan, err := h.supervisor.Plan(c.UserContext(), req)
	if err != nil {
		return writeError(c, err, h.production)
	}

	session, err := h.supervisor.Start(plan)
	if err != nil {
		return writeError(c, err, h.production)
	}

	c.Set(fiber.HeaderContentType, plan.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+plan.Filename+`"`)
	c.Set(fiber.HeaderCacheControl, "no-cache, no-store")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")

	// The fasthttp request context only ends on server shutdown, never on
	// client disconnect, and the stream writer below notices a dead peer no
	// earlier than its next write. The session polls the connection itself
	// so a stalled subprocess cannot outlive a client that went away.
	session.WatchConn(c.Context().Conn())

	reqCtx := c.Context()
	go func() {
		select {
		case <-reqCtx.Done():
			session.Terminate("server shutting down")
		case <-session.Done():
		}
	}()

	reqCtx.SetBodyStreamWriter(func(w *bufio.Writer) {
		session.Pipe(w)
	})

	return nil
}
