package handlers

import (
	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/pagination"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReminderHandler handles reminder endpoints
type ReminderHandler struct {
	reminderService *services.ReminderService
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminderService *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService}
}

// List lists reminders by due time
// @Summary List reminders
// @Tags Reminders
// @Produce json
// @Security BearerAuth
// @Param include_done query bool false "Include completed reminders"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /reminders [get]
func (h *ReminderHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	reminders, total, err := h.reminderService.List(c.Context(), c.QueryBool("include_done"), params.Offset, params.Limit)
	if err != nil {
		return fail(c, err, "Failed to list reminders")
	}
	return response.Success(c, "Reminders retrieved successfully", pagination.NewResponse(reminders, params, total))
}

// Get returns one reminder
// @Summary Get reminder
// @Tags Reminders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reminder ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reminders/{id} [get]
func (h *ReminderHandler) Get(c *fiber.Ctx) error {
	reminder, err := h.reminderService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to get reminder")
	}
	return response.Success(c, "Reminder retrieved successfully", reminder)
}

// Create adds a reminder
// @Summary Create reminder
// @Tags Reminders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ReminderInput true "Reminder"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /reminders [post]
func (h *ReminderHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.ReminderInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	reminder, err := h.reminderService.Create(c.Context(), actor, &input)
	if err != nil {
		return fail(c, err, "Failed to create reminder")
	}
	return response.Created(c, "Reminder created successfully", reminder)
}

// Update edits a reminder
// @Summary Update reminder
// @Tags Reminders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reminder ID"
// @Param body body services.ReminderInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reminders/{id} [patch]
func (h *ReminderHandler) Update(c *fiber.Ctx) error {
	var input services.ReminderInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	reminder, err := h.reminderService.Update(c.Context(), c.Params("id"), &input)
	if err != nil {
		return fail(c, err, "Failed to update reminder")
	}
	return response.Success(c, "Reminder updated successfully", reminder)
}

// Delete removes a reminder
// @Summary Delete reminder
// @Tags Reminders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reminder ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reminders/{id} [delete]
func (h *ReminderHandler) Delete(c *fiber.Ctx) error {
	if err := h.reminderService.Delete(c.Context(), c.Params("id")); err != nil {
		return fail(c, err, "Failed to delete reminder")
	}
	return response.Success(c, "Reminder deleted successfully", nil)
}
