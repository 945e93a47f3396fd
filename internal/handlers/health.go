package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/savemedia/gateway/internal/extractor"
	"github.com/savemedia/gateway/internal/metrics"
	"github.com/savemedia/gateway/internal/resolver"
)

// HealthHandler provides health and metrics endpoints
type HealthHandler struct {
	extractor *extractor.Client
	resolver  *resolver.Resolver
	logger    *zap.Logger
}

// NewHealthHandler creates a health handler
func NewHealthHandler(client *extractor.Client, res *resolver.Resolver, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		extractor: client,
		resolver:  res,
		logger:    logger,
	}
}

// HandleHealth probes the external tool and reports overall service status.
// A failed probe degrades the status but the endpoint itself stays 200: the
// process is alive, only the tool is unavailable.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	health := fiber.Map{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	version, err := h.extractor.Version(c.UserContext())
	if err != nil {
		h.logger.Warn("yt-dlp health probe failed", zap.Error(err))
		health["status"] = "degraded"
		health["ytdlp"] = "error"
	} else {
		health["ytdlp"] = "working"
		health["ytdlp_version"] = version
	}

	return c.JSON(health)
}

// HandleMetrics returns the process counters snapshot
func (h *HealthHandler) HandleMetrics(c *fiber.Ctx) error {
	snapshot := metrics.Get().GetSnapshot()
	snapshot["inflight_fetches"] = h.resolver.Stats()
	return c.JSON(snapshot)
}
