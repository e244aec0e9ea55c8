package handlers

import (
	"bytes"
	"io"
	"strings"

	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/pagination"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// InventoryHandler handles product, stock and audit endpoints
type InventoryHandler struct {
	inventoryService *services.InventoryService
	auditRecorder    *services.AuditRecorder
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventoryService *services.InventoryService, auditRecorder *services.AuditRecorder) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		auditRecorder:    auditRecorder,
	}
}

// QuantityRequest carries a restock amount or an absolute quantity
type QuantityRequest struct {
	Amount   *float64 `json:"amount"`
	Quantity *float64 `json:"quantity"`
}

// ============================================================
// Products
// ============================================================

// ListProducts lists products
// @Summary List products
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param category query string false "Category"
// @Param search query string false "Name contains"
// @Param low_stock query bool false "Only products at or under their threshold"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /products [get]
func (h *InventoryHandler) ListProducts(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	input := services.ListProductsInput{
		Filter: repositories.ProductFilter{
			Category: c.Query("category"),
			Search:   strings.TrimSpace(c.Query("search")),
			LowStock: c.QueryBool("low_stock"),
		},
		Offset: params.Offset,
		Limit:  params.Limit,
	}

	products, total, err := h.inventoryService.List(c.Context(), input)
	if err != nil {
		return fail(c, err, "Failed to list products")
	}

	return response.Success(c, "Products retrieved successfully", pagination.NewResponse(products, params, total))
}

// GetProduct returns one product
// @Summary Get product
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /products/{id} [get]
func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.inventoryService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to get product")
	}
	return response.Success(c, "Product retrieved successfully", product)
}

// GetByBarcode resolves a scanned barcode or QR code
// @Summary Look up product by barcode
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param code path string true "Scanned code"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /products/barcode/{code} [get]
func (h *InventoryHandler) GetByBarcode(c *fiber.Ctx) error {
	product, err := h.inventoryService.GetByBarcode(c.Context(), c.Params("code"))
	if err != nil {
		return fail(c, err, "Failed to look up barcode")
	}
	return response.Success(c, "Product retrieved successfully", product)
}

// CreateProduct creates a product
// @Summary Create product
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ProductInput true "Product"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /products [post]
func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	product, err := h.inventoryService.Create(c.Context(), actor, &input)
	if err != nil {
		return fail(c, err, "Failed to create product")
	}

	return response.Created(c, "Product created successfully", product)
}

// UpdateProduct changes product fields; omitted fields are kept
// @Summary Update product
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param body body services.ProductInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /products/{id} [put]
func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	product, err := h.inventoryService.Update(c.Context(), actor, c.Params("id"), &input)
	if err != nil {
		return fail(c, err, "Failed to update product")
	}

	return response.Success(c, "Product updated successfully", product)
}

// DeleteProduct deletes a product
// @Summary Delete product
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /products/{id} [delete]
func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.inventoryService.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return fail(c, err, "Failed to delete product")
	}

	return response.Success(c, "Product deleted successfully", nil)
}

// Restock adds stock
// @Summary Restock product
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param body body QuantityRequest true "amount > 0"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /products/{id}/restock [post]
func (h *InventoryHandler) Restock(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req QuantityRequest
	if err := c.BodyParser(&req); err != nil || req.Amount == nil {
		return response.BadRequest(c, "amount is required")
	}

	product, err := h.inventoryService.Restock(c.Context(), actor, c.Params("id"), *req.Amount)
	if err != nil {
		return fail(c, err, "Failed to restock product")
	}

	return response.Success(c, "Product restocked successfully", product)
}

// Adjust sets the counted quantity
// @Summary Adjust product quantity
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param body body QuantityRequest true "absolute quantity"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /products/{id}/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req QuantityRequest
	if err := c.BodyParser(&req); err != nil || req.Quantity == nil {
		return response.BadRequest(c, "quantity is required")
	}

	product, err := h.inventoryService.Adjust(c.Context(), actor, c.Params("id"), *req.Quantity)
	if err != nil {
		return fail(c, err, "Failed to adjust product")
	}

	return response.Success(c, "Product quantity adjusted successfully", product)
}

// Import creates or updates products from CSV
// @Summary Import products from CSV
// @Description Header: name,category,unit,quantity,price,cost,min_quantity,barcode. Send text/csv or multipart field "file". Any malformed row rejects the whole file.
// @Tags Products
// @Accept text/csv
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /products/import [post]
func (h *InventoryHandler) Import(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var body io.Reader = bytes.NewReader(c.Body())
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return response.BadRequest(c, "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return response.BadRequest(c, "Could not read uploaded file")
		}
		defer f.Close()
		body = f
	}

	result, err := h.inventoryService.Import(c.Context(), actor, body)
	if err != nil {
		return fail(c, err, "Failed to import products")
	}

	return response.Success(c, "Products imported successfully", result)
}

// ============================================================
// Audit log
// ============================================================

// ListAuditLog lists inventory change entries, newest first
// @Summary Inventory change log
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param product_id query string false "Product ID"
// @Param action query string false "create, update, delete, restock, adjustment or sale"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /audit-log [get]
func (h *InventoryHandler) ListAuditLog(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	params := pagination.GetParams(c)
	filter := repositories.AuditFilter{
		ProductID: c.Query("product_id"),
		Action:    c.Query("action"),
	}

	entries, total, err := h.auditRecorder.List(c.Context(), actor, filter, params.Offset, params.Limit)
	if err != nil {
		return fail(c, err, "Failed to list audit log")
	}

	return response.Success(c, "Audit log retrieved successfully", pagination.NewResponse(entries, params, total))
}
