package handlers

import (
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AnalyticsHandler serves model-backed reports. Each answers bare
// {stats, insights, source}; insights is null when the model is unavailable.
type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// TopSellers ranks items by units sold
// @Summary Top sellers
// @Tags Analytics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.AnalyticsRequest true "Sales and inventory"
// @Success 200 {object} services.AnalyticsResult
// @Router /analytics/top-sellers [post]
func (h *AnalyticsHandler) TopSellers(c *fiber.Ctx) error {
	return h.report(c, services.ReportTopSellers)
}

// InventoryInsights summarizes stock levels and value
// @Summary Inventory insights
// @Tags Analytics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.AnalyticsRequest true "Sales and inventory"
// @Success 200 {object} services.AnalyticsResult
// @Router /analytics/inventory-insights [post]
func (h *AnalyticsHandler) InventoryInsights(c *fiber.Ctx) error {
	return h.report(c, services.ReportInventoryInsights)
}

// BusinessSummary summarizes revenue, cost and margin
// @Summary Business summary
// @Tags Analytics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.AnalyticsRequest true "Sales and inventory"
// @Success 200 {object} services.AnalyticsResult
// @Router /analytics/business-summary [post]
func (h *AnalyticsHandler) BusinessSummary(c *fiber.Ctx) error {
	return h.report(c, services.ReportBusinessSummary)
}

// NotImplemented answers the reports that have no behavior yet
// @Summary Unavailable report
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param kind path string true "Report name"
// @Failure 501 {object} response.Response
// @Router /analytics/{kind} [post]
func (h *AnalyticsHandler) NotImplemented(c *fiber.Ctx) error {
	return response.NotImplemented(c)
}

func (h *AnalyticsHandler) report(c *fiber.Ctx, kind string) error {
	var req services.AnalyticsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.analyticsService.Report(c.Context(), kind, &req)
	if err != nil {
		return fail(c, err, "Failed to build report")
	}
	return c.JSON(result)
}
