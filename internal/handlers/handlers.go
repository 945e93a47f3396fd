// Package handlers implements the HTTP surface of the gateway.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/savemedia/gateway/internal/errors"
	"github.com/savemedia/gateway/internal/metrics"
	"github.com/savemedia/gateway/internal/platform"
	"github.com/savemedia/gateway/internal/types"
)

// writeError sends the uniform failure body. The underlying cause is exposed
// in details only outside production.
func writeError(c *fiber.Ctx, err error, production bool) error {
	metrics.Get().RecordError()

	resp := types.ErrorResponse{Error: apperrors.GetErrorMessage(err)}
	if !production {
		var customErr *apperrors.CustomError
		if errors.As(err, &customErr) && customErr.Cause != nil {
			resp.Details = customErr.Cause.Error()
		}
	}

	return c.Status(apperrors.GetStatusCode(err)).JSON(resp)
}

// validateMediaURL runs the shared request checks: presence, URL shape,
// platform allowlist. Returns nil when the URL may reach the external tool.
func validateMediaURL(url string) error {
	if url == "" {
		return apperrors.ErrURLRequired
	}
	if !platform.ValidateURL(url) {
		return apperrors.ErrInvalidURL
	}
	if !platform.IsSupported(url) {
		return apperrors.ErrUnsupportedPlatform
	}
	return nil
}
