package handlers

import (
	"strings"

	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/pagination"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// InviteHandler handles invite code management
type InviteHandler struct {
	inviteService *services.InviteService
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(inviteService *services.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

// CreateInviteRequest represents an invite request body
type CreateInviteRequest struct {
	Role     string `json:"role"`
	TTLHours *int   `json:"ttlHours"`
}

// Create issues a one-time invite code
// @Summary Create invite
// @Description Issue an 8-character single-use code for admin, manager or employee (canManageUsers)
// @Tags Invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateInviteRequest true "Role and lifetime"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /invites [post]
func (h *InviteHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CreateInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	invite, err := h.inviteService.Create(c.Context(), actor, domain.Role(strings.ToLower(strings.TrimSpace(req.Role))), req.TTLHours)
	if err != nil {
		return fail(c, err, "Failed to create invite")
	}

	return response.Created(c, "Invite created successfully", invite)
}

// List returns invites, newest first
// @Summary List invites
// @Tags Invites
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /invites [get]
func (h *InviteHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	params := pagination.GetParams(c)

	invites, total, err := h.inviteService.List(c.Context(), actor, params.Offset, params.Limit)
	if err != nil {
		return fail(c, err, "Failed to list invites")
	}

	return response.Success(c, "Invites retrieved successfully", pagination.NewResponse(invites, params, total))
}

// Revoke deletes an unused invite
// @Summary Revoke invite
// @Tags Invites
// @Produce json
// @Security BearerAuth
// @Param code path string true "Invite code"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /invites/{code} [delete]
func (h *InviteHandler) Revoke(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.inviteService.Revoke(c.Context(), actor, c.Params("code")); err != nil {
		return fail(c, err, "Failed to revoke invite")
	}

	return response.Success(c, "Invite revoked successfully", nil)
}
