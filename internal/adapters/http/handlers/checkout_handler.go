package handlers

import (
	"errors"

	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/core/terminal"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler drives server-side card-present checkouts. Clients poll
// GET for progress while a collect runs in the background.
type CheckoutHandler struct {
	checkoutService *services.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// Start opens a checkout and connects the reader
// @Summary Start checkout
// @Description Abandons the caller's previous checkout if one is active
// @Tags Checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.StartCheckoutInput false "Optional tab"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /checkout/sessions [post]
func (h *CheckoutHandler) Start(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.StartCheckoutInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	view, err := h.checkoutService.Start(c.Context(), actor, &input)
	if err != nil {
		return fail(c, err, "Failed to start checkout")
	}
	return response.Created(c, "Checkout started", view)
}

// Get polls a checkout
// @Summary Get checkout
// @Tags Checkout
// @Produce json
// @Security BearerAuth
// @Param id path string true "Checkout ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /checkout/sessions/{id} [get]
func (h *CheckoutHandler) Get(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	view, err := h.checkoutService.Get(c.Context(), actor, c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to get checkout")
	}
	return response.Success(c, "Checkout retrieved successfully", view)
}

// Connect retries the reader connection
// @Summary Reconnect reader
// @Tags Checkout
// @Produce json
// @Security BearerAuth
// @Param id path string true "Checkout ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /checkout/sessions/{id}/connect [post]
func (h *CheckoutHandler) Connect(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	view, err := h.checkoutService.Connect(c.Context(), actor, c.Params("id"))
	if err != nil {
		return failWithView(c, err, view, "Failed to connect reader")
	}
	return response.Success(c, "Reader connected", view)
}

// Collect starts collecting payment in the background
// @Summary Collect payment
// @Description The tab total is used when the checkout has a tab; otherwise amount is required
// @Tags Checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Checkout ID"
// @Param body body services.CollectInput false "Amount"
// @Success 202 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /checkout/sessions/{id}/collect [post]
func (h *CheckoutHandler) Collect(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CollectInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	view, err := h.checkoutService.Collect(c.Context(), actor, c.Params("id"), &input)
	if err != nil {
		return failWithView(c, err, view, "Failed to collect payment")
	}
	return response.Accepted(c, "Collecting payment", view)
}

// Cancel cancels the checkout and releases the reader
// @Summary Cancel checkout
// @Tags Checkout
// @Produce json
// @Security BearerAuth
// @Param id path string true "Checkout ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /checkout/sessions/{id}/cancel [post]
func (h *CheckoutHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	view, err := h.checkoutService.Cancel(c.Context(), actor, c.Params("id"))
	if err != nil {
		return failWithView(c, err, view, "Failed to cancel checkout")
	}
	return response.Success(c, "Checkout canceled", view)
}

// Abandon drops the checkout
// @Summary Abandon checkout
// @Tags Checkout
// @Produce json
// @Security BearerAuth
// @Param id path string true "Checkout ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /checkout/sessions/{id} [delete]
func (h *CheckoutHandler) Abandon(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.checkoutService.Abandon(c.Context(), actor, c.Params("id")); err != nil {
		return fail(c, err, "Failed to abandon checkout")
	}
	return response.Success(c, "Checkout abandoned", nil)
}

// failWithView keeps the session state in terminal failures so the client
// can render the retry prompt without another poll.
func failWithView(c *fiber.Ctx, err error, view *services.CheckoutView, fallback string) error {
	var termErr *terminal.Error
	if view == nil || !errors.As(err, &termErr) || isAny(err, badRequestErrors) {
		return fail(c, err, fallback)
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(response.Response{
		Success: false,
		Error:   termErr.UserMessage(),
		Data:    view,
	})
}
