package handlers

import (
	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/pagination"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RecipeHandler handles recipe endpoints
type RecipeHandler struct {
	recipeService *services.RecipeService
}

// NewRecipeHandler creates a new recipe handler
func NewRecipeHandler(recipeService *services.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService}
}

// List lists recipes
// @Summary List recipes
// @Tags Recipes
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /recipes [get]
func (h *RecipeHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	recipes, total, err := h.recipeService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return fail(c, err, "Failed to list recipes")
	}
	return response.Success(c, "Recipes retrieved successfully", pagination.NewResponse(recipes, params, total))
}

// Get returns one recipe with its ingredients
// @Summary Get recipe
// @Tags Recipes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recipe ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /recipes/{id} [get]
func (h *RecipeHandler) Get(c *fiber.Ctx) error {
	recipe, err := h.recipeService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to get recipe")
	}
	return response.Success(c, "Recipe retrieved successfully", recipe)
}

// Create adds a recipe
// @Summary Create recipe
// @Tags Recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.RecipeInput true "Recipe"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /recipes [post]
func (h *RecipeHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.RecipeInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	recipe, err := h.recipeService.Create(c.Context(), actor, &input)
	if err != nil {
		return fail(c, err, "Failed to create recipe")
	}
	return response.Created(c, "Recipe created successfully", recipe)
}

// Update replaces a recipe and its ingredients
// @Summary Update recipe
// @Tags Recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recipe ID"
// @Param body body services.RecipeInput true "Recipe"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /recipes/{id} [put]
func (h *RecipeHandler) Update(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.RecipeInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	recipe, err := h.recipeService.Update(c.Context(), actor, c.Params("id"), &input)
	if err != nil {
		return fail(c, err, "Failed to update recipe")
	}
	return response.Success(c, "Recipe updated successfully", recipe)
}

// Delete removes a recipe
// @Summary Delete recipe
// @Tags Recipes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recipe ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /recipes/{id} [delete]
func (h *RecipeHandler) Delete(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.recipeService.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return fail(c, err, "Failed to delete recipe")
	}
	return response.Success(c, "Recipe deleted successfully", nil)
}
