package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"onebox/accounts"
	"onebox/store"
	"onebox/utils"
)

const suggestionTTL = 10 * time.Minute

type suggestRequest struct {
	MessageID string `json:"messageId"`
	Context   string `json:"context"`
}

// HandleSuggestReplies returns up to 3 reply drafts for a stored email.
// Results are cached per message and outreach context so repeated opens
// of the same email do not re-hit the AI service.
func (h *Handler) HandleSuggestReplies(c *fiber.Ctx) error {
	var req suggestRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, utils.BadRequestError("Invalid request body", err))
	}
	if strings.TrimSpace(req.MessageID) == "" {
		return h.respondError(c, utils.BadRequestError("messageId is required", nil))
	}

	email, ok := h.store.GetEmail(req.MessageID)
	if !ok {
		return h.respondError(c, utils.NotFoundError("Email not found", store.ErrNotFound))
	}

	cacheKey := req.MessageID + "|" + req.Context
	if cached, ok := h.suggestions.Get(cacheKey); ok {
		if replies, ok := cached.([]string); ok {
			return c.JSON(fiber.Map{"suggestions": replies, "cached": true})
		}
	}

	replies := h.suggester.Suggest(c.Context(), email, req.Context)
	h.suggestions.Set(cacheKey, replies, suggestionTTL)

	return c.JSON(fiber.Map{"suggestions": replies, "cached": false})
}

type sendReplyRequest struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

// HandleSendReply sends a reply to a stored email through the account's
// SMTP channel.
func (h *Handler) HandleSendReply(c *fiber.Ctx) error {
	var req sendReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, utils.BadRequestError("Invalid request body", err))
	}
	if strings.TrimSpace(req.MessageID) == "" || strings.TrimSpace(req.Content) == "" {
		return h.respondError(c, utils.BadRequestError("messageId and content are required", nil))
	}

	account := c.Params("email")
	sentID, err := h.registry.SendReply(c.Context(), account, req.MessageID, req.Content)
	if err != nil {
		return h.respondError(c, mapReplyError(err))
	}

	return c.JSON(fiber.Map{"sent": true, "messageId": sentID})
}

func mapReplyError(err error) error {
	switch {
	case errors.Is(err, accounts.ErrUnknownAccount):
		return utils.NotFoundError("Account not connected", err)
	case errors.Is(err, accounts.ErrCapabilityUnavailable):
		return utils.UnprocessableError("Sending is not available for this account", err)
	case errors.Is(err, store.ErrNotFound):
		return utils.NotFoundError("Email not found", err)
	default:
		return utils.BadGatewayError("Failed to send reply", err)
	}
}
