package handlers

import (
	"barstock-pos/internal/config"

	"github.com/gofiber/fiber/v2"
)

// BreakerState reports the state of an upstream circuit breaker
type BreakerState interface {
	State() string
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checkDB func() error
	model   BreakerState
}

// NewHealthHandler creates a new health handler; model may be nil
func NewHealthHandler(checkDB func() error, model BreakerState) *HealthHandler {
	return &HealthHandler{checkDB: checkDB, model: model}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	mode := ""
	if config.AppConfig != nil {
		mode = config.AppConfig.AppMode
	}
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "🚀 Barstock POS API v1.0 is running",
		"mode":    mode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API, database and analytics model health
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	dbStatus := "healthy"
	if err := h.checkDB(); err != nil {
		dbStatus = "unhealthy"
		status = "degraded"
	}

	modelStatus := "disabled"
	if h.model != nil {
		modelStatus = h.model.State()
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": fiber.Map{
			"api":      "healthy",
			"database": dbStatus,
			"model":    modelStatus,
		},
	})
}

// APIInfo handles API v1 info
// @Summary API v1 Info
// @Description Returns API v1 information
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1 [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Barstock POS API v1.0",
		"version": "1.0.0",
	})
}
