package handlers

import (
	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/pagination"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles the caller's notification feed
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List lists the caller's own and broadcast notifications
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	items, total, err := h.notificationService.List(c.Context(), actor.UserID, c.QueryBool("unread"), params.Offset, params.Limit)
	if err != nil {
		return fail(c, err, "Failed to list notifications")
	}
	return response.Success(c, "Notifications retrieved successfully", pagination.NewResponse(items, params, total))
}

// MarkRead marks one notification read
// @Summary Mark notification read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.notificationService.MarkRead(c.Context(), actor.UserID, c.Params("id")); err != nil {
		return fail(c, err, "Failed to mark notification read")
	}
	return response.Success(c, "Notification marked read", nil)
}

// MarkAllRead marks every visible notification read
// @Summary Mark all notifications read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	n, err := h.notificationService.MarkAllRead(c.Context(), actor.UserID)
	if err != nil {
		return fail(c, err, "Failed to mark notifications read")
	}
	return response.Success(c, "Notifications marked read", fiber.Map{"updated": n})
}
