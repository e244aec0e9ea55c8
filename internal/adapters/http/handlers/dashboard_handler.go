package handlers

import (
	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetManagerDashboard returns the floor overview
// @Summary Manager Dashboard
// @Description Sales, open tabs, stock and staff overview (manager and above)
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/manager [get]
func (h *DashboardHandler) GetManagerDashboard(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	data, err := h.dashboardService.GetManagerDashboard(c.Context(), actor)
	if err != nil {
		return fail(c, err, "Failed to get manager dashboard")
	}

	return response.Success(c, "Manager dashboard retrieved successfully", data)
}

// GetStaffDashboard returns the caller's shift summary
// @Summary Staff Dashboard
// @Description The caller's sales today, open tabs, unread notifications and due reminders
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard/staff [get]
func (h *DashboardHandler) GetStaffDashboard(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	data, err := h.dashboardService.GetStaffDashboard(c.Context(), actor)
	if err != nil {
		return fail(c, err, "Failed to get staff dashboard")
	}

	return response.Success(c, "Staff dashboard retrieved successfully", data)
}

// GetMyDashboard returns dashboard based on user role
// @Summary My Dashboard
// @Description Get dashboard based on current user's role (auto-detect)
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) GetMyDashboard(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var data interface{}
	var err error

	if actor.Role.AtLeast(domain.RoleManager) {
		data, err = h.dashboardService.GetManagerDashboard(c.Context(), actor)
	} else {
		data, err = h.dashboardService.GetStaffDashboard(c.Context(), actor)
	}

	if err != nil {
		return fail(c, err, "Failed to get dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", fiber.Map{
		"role": actor.Role,
		"data": data,
	})
}
