package handlers

import (
	"time"

	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/pagination"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SaleHandler handles sale endpoints
type SaleHandler struct {
	saleService *services.SaleService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// QuickSale records a sale without a tab
// @Summary Quick sale
// @Tags Sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.QuickSaleInput true "Lines and payment method"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /sales [post]
func (h *SaleHandler) QuickSale(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.QuickSaleInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	sale, err := h.saleService.QuickSale(c.Context(), actor, &input)
	if err != nil {
		return fail(c, err, "Failed to record sale")
	}
	return response.Created(c, "Sale recorded successfully", sale)
}

// List lists sales, newest first
// @Summary List sales
// @Tags Sales
// @Produce json
// @Security BearerAuth
// @Param from query string false "RFC3339 lower bound"
// @Param to query string false "RFC3339 upper bound"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return response.BadRequest(c, "from must be an RFC3339 timestamp")
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return response.BadRequest(c, "to must be an RFC3339 timestamp")
	}

	params := pagination.GetParams(c)
	sales, total, err := h.saleService.List(c.Context(), from, to, params.Offset, params.Limit)
	if err != nil {
		return fail(c, err, "Failed to list sales")
	}
	return response.Success(c, "Sales retrieved successfully", pagination.NewResponse(sales, params, total))
}

// Get returns one sale with its items
// @Summary Get sale
// @Tags Sales
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /sales/{id} [get]
func (h *SaleHandler) Get(c *fiber.Ctx) error {
	sale, err := h.saleService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to get sale")
	}
	return response.Success(c, "Sale retrieved successfully", sale)
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
