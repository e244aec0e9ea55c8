package handlers

import (
	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/config"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AccountHandler handles whole-account operations
type AccountHandler struct {
	accountService *services.AccountService
	cfg            *config.Config
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *services.AccountService, cfg *config.Config) *AccountHandler {
	return &AccountHandler{accountService: accountService, cfg: cfg}
}

// PurgeRequest must carry the literal confirmation text
type PurgeRequest struct {
	Confirm string `json:"confirm"`
}

// Purge deletes every user and all business data, the audit log included
// @Summary Delete account
// @Description Owner only. Send {"confirm": "DELETE"}.
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PurgeRequest true "Confirmation"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /account [delete]
func (h *AccountHandler) Purge(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req PurgeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.accountService.Purge(c.Context(), actor, req.Confirm); err != nil {
		return fail(c, err, "Failed to delete account")
	}

	clearAuthCookies(c, h.cfg)
	return response.Success(c, "Account deleted", nil)
}
