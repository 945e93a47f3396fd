package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/savemedia/gateway/internal/errors"
	"github.com/savemedia/gateway/internal/metrics"
	"github.com/savemedia/gateway/internal/resolver"
	"github.com/savemedia/gateway/internal/types"
)

// InfoHandler serves POST /api/info
type InfoHandler struct {
	resolver   *resolver.Resolver
	logger     *zap.Logger
	production bool
}

// NewInfoHandler creates an info handler
func NewInfoHandler(res *resolver.Resolver, logger *zap.Logger, production bool) *InfoHandler {
	return &InfoHandler{
		resolver:   res,
		logger:     logger,
		production: production,
	}
}

// HandleInfo validates the URL, fetches metadata and returns the summary
func (h *InfoHandler) HandleInfo(c *fiber.Ctx) error {
	metrics.Get().RecordInfoRequest()
	start := time.Now()

	var req types.InfoRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, apperrors.ErrInvalidRequest.WithCause(err), h.production)
	}

	if err := validateMediaURL(req.URL); err != nil {
		return writeError(c, err, h.production)
	}

	summary, err := h.resolver.Resolve(c.UserContext(), req.URL)
	if err != nil {
		return writeError(c, err, h.production)
	}

	h.logger.Info("Video info resolved",
		zap.String("url", req.URL),
		zap.String("title", summary.Title),
		zap.Int("formats", len(summary.Formats)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return c.JSON(summary)
}
