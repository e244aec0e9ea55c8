package handlers

import (
	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/core/terminal"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// StripeHandler serves the card-present payment endpoints and the caller's
// own payment keys. Payment endpoints answer bare JSON, not the envelope.
type StripeHandler struct {
	paymentService *services.PaymentService
	keyService     *services.StripeKeyService
}

// NewStripeHandler creates a new stripe handler
func NewStripeHandler(paymentService *services.PaymentService, keyService *services.StripeKeyService) *StripeHandler {
	return &StripeHandler{
		paymentService: paymentService,
		keyService:     keyService,
	}
}

// ConnectionTokenResponse carries a reader session token
type ConnectionTokenResponse struct {
	Secret string `json:"secret"`
}

// IntentIDRequest names a payment intent
type IntentIDRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// ConfirmedIntent is the settlement view of an intent
type ConfirmedIntent struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// ConfirmPaymentResponse is the confirm-payment body. Success is true only
// when the intent has settled.
type ConfirmPaymentResponse struct {
	Success       bool            `json:"success"`
	PaymentIntent ConfirmedIntent `json:"paymentIntent"`
}

// CanceledIntent is the cancel view of an intent
type CanceledIntent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CancelPaymentResponse is the cancel-payment body
type CancelPaymentResponse struct {
	Success       bool           `json:"success"`
	PaymentIntent CanceledIntent `json:"paymentIntent"`
}

// ConnectionToken issues a reader session token
// @Summary Reader connection token
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ConnectionTokenResponse
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /stripe/connection-token [post]
func (h *StripeHandler) ConnectionToken(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	secret, err := h.paymentService.ConnectionToken(c.Context(), actor)
	if err != nil {
		return fail(c, err, "Failed to create connection token")
	}
	return c.JSON(ConnectionTokenResponse{Secret: secret})
}

// CreatePaymentIntent creates an intent tagged with the caller
// @Summary Create payment intent
// @Description amount is in major currency units; the server converts it to minor units
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateIntentInput true "Amount, currency and metadata"
// @Success 200 {object} services.CreatedIntent
// @Failure 400 {object} response.Response
// @Router /stripe/create-payment-intent [post]
func (h *StripeHandler) CreatePaymentIntent(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateIntentInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	created, err := h.paymentService.CreatePaymentIntent(c.Context(), actor, &input)
	if err != nil {
		return fail(c, err, "Failed to create payment intent")
	}
	return c.JSON(created)
}

// ConfirmPayment reports the settlement status of the caller's intent
// @Summary Confirm payment
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body IntentIDRequest true "Payment intent"
// @Success 200 {object} ConfirmPaymentResponse
// @Failure 403 {object} response.Response
// @Router /stripe/confirm-payment [post]
func (h *StripeHandler) ConfirmPayment(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req IntentIDRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	pi, err := h.paymentService.ConfirmPayment(c.Context(), actor, req.PaymentIntentID)
	if err != nil {
		return fail(c, err, "Failed to confirm payment")
	}
	return c.JSON(ConfirmPaymentResponse{
		Success: pi.Status == terminal.IntentSucceeded,
		PaymentIntent: ConfirmedIntent{
			ID:       pi.ID,
			Status:   pi.Status,
			Amount:   pi.Amount,
			Currency: pi.Currency,
		},
	})
}

// CancelPayment voids the caller's intent
// @Summary Cancel payment
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body IntentIDRequest true "Payment intent"
// @Success 200 {object} CancelPaymentResponse
// @Failure 403 {object} response.Response
// @Router /stripe/cancel-payment [post]
func (h *StripeHandler) CancelPayment(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req IntentIDRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	pi, err := h.paymentService.CancelPayment(c.Context(), actor, req.PaymentIntentID)
	if err != nil {
		return fail(c, err, "Failed to cancel payment")
	}
	return c.JSON(CancelPaymentResponse{
		Success:       true,
		PaymentIntent: CanceledIntent{ID: pi.ID, Status: pi.Status},
	})
}

// ============================================================
// Keys
// ============================================================

// KeyStatus reports which payment key the caller would use
// @Summary Payment key status
// @Tags Payment Keys
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /stripe-keys [get]
func (h *StripeHandler) KeyStatus(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	status, err := h.keyService.Status(c.Context(), actor)
	if err != nil {
		return fail(c, err, "Failed to read key status")
	}
	return response.Success(c, "Key status retrieved successfully", status)
}

// SaveKeys stores the caller's own keys
// @Summary Save payment keys
// @Tags Payment Keys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.SaveKeyInput true "Keys"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /stripe-keys [post]
func (h *StripeHandler) SaveKeys(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.SaveKeyInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	status, err := h.keyService.Save(c.Context(), actor, &input)
	if err != nil {
		return fail(c, err, "Failed to save keys")
	}
	return response.Success(c, "Keys saved successfully", status)
}

// DeleteKeys removes the caller's own keys
// @Summary Delete payment keys
// @Tags Payment Keys
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /stripe-keys [delete]
func (h *StripeHandler) DeleteKeys(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.keyService.Delete(c.Context(), actor); err != nil {
		return fail(c, err, "Failed to delete keys")
	}
	return response.Success(c, "Keys deleted successfully", nil)
}
