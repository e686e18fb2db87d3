// Package api exposes the HTTP and websocket surface.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"onebox/accounts"
	"onebox/classify"
	"onebox/events"
	"onebox/store"
	"onebox/utils"
)

// Handler carries the dependencies shared by all API routes.
type Handler struct {
	registry    *accounts.Registry
	store       store.Store
	suggester   classify.Suggester
	bus         *events.Bus
	suggestions *utils.MemoryCache
	log         zerolog.Logger
}

// New creates the API handler.
func New(registry *accounts.Registry, st store.Store, suggester classify.Suggester, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		registry:    registry,
		store:       st,
		suggester:   suggester,
		bus:         bus,
		suggestions: utils.NewMemoryCache(),
		log:         log.With().Str("component", "api").Logger(),
	}
}

// respondError translates an error into a JSON response. AppErrors keep
// their status code; anything else becomes a 500. Underlying error
// details stay in the logs, not the response.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		appErr = utils.InternalServerError("Internal server error", err)
	}

	if appErr.Code >= 500 {
		h.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	} else {
		h.log.Warn().Err(err).Str("path", c.Path()).Msg("request rejected")
	}

	return c.Status(appErr.Code).JSON(fiber.Map{"error": appErr.Message})
}
