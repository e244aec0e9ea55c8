package handlers

import (
	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/pagination"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AlertHandler handles low-stock alert endpoints
type AlertHandler struct {
	alertService *services.StockAlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService *services.StockAlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// List lists stock alerts
// @Summary List stock alerts
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param status query string false "active, resolved or dismissed"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	alerts, total, err := h.alertService.List(c.Context(), c.Query("status"), params.Offset, params.Limit)
	if err != nil {
		return fail(c, err, "Failed to list alerts")
	}
	return response.Success(c, "Alerts retrieved successfully", pagination.NewResponse(alerts, params, total))
}

// Dismiss closes an active alert
// @Summary Dismiss stock alert
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /alerts/{id}/dismiss [post]
func (h *AlertHandler) Dismiss(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.alertService.Dismiss(c.Context(), actor, c.Params("id")); err != nil {
		return fail(c, err, "Failed to dismiss alert")
	}
	return response.Success(c, "Alert dismissed successfully", nil)
}
