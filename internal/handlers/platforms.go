package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/savemedia/gateway/internal/platform"
)

// HandlePlatforms returns the platform allowlist
func HandlePlatforms(c *fiber.Ctx) error {
	supported := platform.Supported()
	return c.JSON(fiber.Map{
		"supported_platforms": supported,
		"count":               len(supported),
		"message":             fmt.Sprintf("Supports %d+ platforms", len(supported)),
	})
}
