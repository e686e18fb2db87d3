package api

import (
	"github.com/gofiber/fiber/v2"

	"onebox/models"
	"onebox/store"
	"onebox/utils"
)

// HandleSearchEmails searches stored emails with optional filters and
// pagination. An empty query with no filters lists everything.
func (h *Handler) HandleSearchEmails(c *fiber.Ctx) error {
	query := c.Query("q")
	filters := store.Filters{
		Account:  c.Query("account"),
		Category: models.Category(c.Query("category")),
		Folder:   c.Query("folder"),
	}
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("pageSize", 20)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	emails, total := h.store.SearchEmails(query, filters, page, pageSize)
	return c.JSON(models.NewPaginatedEmails(emails, page, pageSize, total))
}

// HandleGetEmail returns one email by message id.
func (h *Handler) HandleGetEmail(c *fiber.Ctx) error {
	email, ok := h.store.GetEmail(c.Params("id"))
	if !ok {
		return h.respondError(c, utils.NotFoundError("Email not found", store.ErrNotFound))
	}
	return c.JSON(email)
}

// HandleStats returns aggregate category counts.
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	return c.JSON(h.store.Stats())
}

type updateCategoryRequest struct {
	Category string `json:"category"`
}

// HandleUpdateCategory overrides an email's category. Only known labels
// are accepted.
func (h *Handler) HandleUpdateCategory(c *fiber.Ctx) error {
	var req updateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, utils.BadRequestError("Invalid request body", err))
	}

	category, ok := models.ParseCategory(req.Category)
	if !ok {
		return h.respondError(c, utils.BadRequestError("Unknown category", nil))
	}

	messageID := c.Params("id")
	if !h.store.UpdateEmailCategory(messageID, category) {
		return h.respondError(c, utils.NotFoundError("Email not found", store.ErrNotFound))
	}

	h.log.Info().Str("messageId", messageID).Str("category", string(category)).Msg("category overridden")
	return c.JSON(fiber.Map{"messageId": messageID, "category": category})
}
