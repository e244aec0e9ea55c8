package handlers

import (
	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/pagination"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TabHandler handles open tab endpoints
type TabHandler struct {
	tabService *services.TabService
}

// NewTabHandler creates a new tab handler
func NewTabHandler(tabService *services.TabService) *TabHandler {
	return &TabHandler{tabService: tabService}
}

// OpenTabRequest names a new tab
type OpenTabRequest struct {
	Name string `json:"name"`
}

// List lists tabs
// @Summary List tabs
// @Tags Tabs
// @Produce json
// @Security BearerAuth
// @Param status query string false "open, closed or voided"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /tabs [get]
func (h *TabHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	tabs, total, err := h.tabService.List(c.Context(), c.Query("status"), params.Offset, params.Limit)
	if err != nil {
		return fail(c, err, "Failed to list tabs")
	}
	return response.Success(c, "Tabs retrieved successfully", pagination.NewResponse(tabs, params, total))
}

// Get returns one tab with its items
// @Summary Get tab
// @Tags Tabs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tab ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /tabs/{id} [get]
func (h *TabHandler) Get(c *fiber.Ctx) error {
	tab, err := h.tabService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to get tab")
	}
	return response.Success(c, "Tab retrieved successfully", tab)
}

// Open starts a tab
// @Summary Open tab
// @Tags Tabs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body OpenTabRequest true "Tab name"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /tabs [post]
func (h *TabHandler) Open(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req OpenTabRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	tab, err := h.tabService.Open(c.Context(), actor, req.Name)
	if err != nil {
		return fail(c, err, "Failed to open tab")
	}
	return response.Created(c, "Tab opened successfully", tab)
}

// AddItem adds a recipe or product line to an open tab
// @Summary Add tab item
// @Tags Tabs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tab ID"
// @Param body body services.LineInput true "Line"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /tabs/{id}/items [post]
func (h *TabHandler) AddItem(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var line services.LineInput
	if err := c.BodyParser(&line); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	tab, err := h.tabService.AddItem(c.Context(), actor, c.Params("id"), line)
	if err != nil {
		return fail(c, err, "Failed to add tab item")
	}
	return response.Success(c, "Item added successfully", tab)
}

// RemoveItem removes a line from an open tab
// @Summary Remove tab item
// @Tags Tabs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tab ID"
// @Param itemId path string true "Item ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /tabs/{id}/items/{itemId} [delete]
func (h *TabHandler) RemoveItem(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	tab, err := h.tabService.RemoveItem(c.Context(), actor, c.Params("id"), c.Params("itemId"))
	if err != nil {
		return fail(c, err, "Failed to remove tab item")
	}
	return response.Success(c, "Item removed successfully", tab)
}

// Void voids an open tab without a sale
// @Summary Void tab
// @Tags Tabs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tab ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /tabs/{id}/void [post]
func (h *TabHandler) Void(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.tabService.Void(c.Context(), actor, c.Params("id")); err != nil {
		return fail(c, err, "Failed to void tab")
	}
	return response.Success(c, "Tab voided successfully", nil)
}

// CloseCash closes a tab paid in cash and records the sale
// @Summary Close tab with cash
// @Tags Tabs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tab ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /tabs/{id}/close [post]
func (h *TabHandler) CloseCash(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	sale, err := h.tabService.CloseCash(c.Context(), actor, c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to close tab")
	}
	return response.Success(c, "Tab closed successfully", sale)
}
