package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"onebox/accounts"
	"onebox/imap"
	"onebox/models"
	"onebox/utils"
)

// HandleAddAccount connects a new mailbox. The request blocks until the
// historical backfill completes.
func (h *Handler) HandleAddAccount(c *fiber.Ctx) error {
	var cfg models.AccountConfig
	if err := c.BodyParser(&cfg); err != nil {
		return h.respondError(c, utils.BadRequestError("Invalid request body", err))
	}

	summary, err := h.registry.AddAccount(c.Context(), cfg)
	if err != nil {
		return h.respondError(c, mapAccountError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(summary)
}

// HandleListAccounts returns every connected account.
func (h *Handler) HandleListAccounts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"accounts": h.registry.ListAccounts()})
}

// HandleRemoveAccount disconnects an account and deletes its emails.
// Removing an unknown address succeeds, so retries are safe.
func (h *Handler) HandleRemoveAccount(c *fiber.Ctx) error {
	email := c.Params("email")
	h.registry.RemoveAccount(email)
	return c.JSON(fiber.Map{"removed": email})
}

func mapAccountError(err error) error {
	var vErr *accounts.ValidationError
	var cErr *imap.ConnectionError

	switch {
	case errors.As(err, &vErr):
		return utils.BadRequestError(vErr.Error(), err)
	case errors.Is(err, accounts.ErrAccountExists):
		return utils.ConflictError("Account already connected", err)
	case errors.Is(err, accounts.ErrAccountRemoved):
		return utils.ConflictError("Account was removed before setup finished", err)
	case errors.As(err, &cErr):
		switch cErr.Kind {
		case imap.KindAuth:
			return utils.UnprocessableError("Authentication failed - if your provider uses 2FA, use an app password", err)
		case imap.KindUnreachable:
			return utils.UnprocessableError(fmt.Sprintf("Cannot reach IMAP server %s", cErr.Host), err)
		default:
			return utils.BadGatewayError("IMAP server is not responding, try again later", err)
		}
	default:
		return utils.InternalServerError("Failed to add account", err)
	}
}
