package handlers

import (
	"barstock-pos/internal/adapters/http/middleware"
	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/pagination"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// MobileHandler serves aggregated, trimmed payloads for the register tablet
type MobileHandler struct {
	inventory *services.InventoryService
	recipes   *services.RecipeService
	tabs      *services.TabService
	dashboard *services.DashboardService
}

func NewMobileHandler(
	inventory *services.InventoryService,
	recipes *services.RecipeService,
	tabs *services.TabService,
	dashboard *services.DashboardService,
) *MobileHandler {
	return &MobileHandler{
		inventory: inventory,
		recipes:   recipes,
		tabs:      tabs,
		dashboard: dashboard,
	}
}

type CatalogItem struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Barcode  string          `json:"barcode,omitempty"`
	LowStock bool            `json:"low_stock,omitempty"`
}

type CatalogResponse struct {
	Recipes  []CatalogItem `json:"recipes"`
	Products []CatalogItem `json:"products"`
}

// GetCatalog returns everything sellable in one call
// @Summary Register catalog
// @Tags Mobile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /v2/mobile/catalog [get]
func (h *MobileHandler) GetCatalog(c *fiber.Ctx) error {
	catalog, err := h.catalog(c)
	if err != nil {
		return fail(c, err, "Failed to load catalog")
	}

	c.Set("Cache-Control", "private, max-age=60")
	return response.Success(c, "Catalog retrieved successfully", catalog)
}

type TabLite struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Items     int             `json:"items"`
	Total     decimal.Decimal `json:"total"`
	OpenedBy  string          `json:"opened_by"`
	Mine      bool            `json:"mine"`
	CreatedAt string          `json:"created_at"`
}

// GetOpenTabs lists open tabs without their lines
// @Summary Open tabs (lite)
// @Tags Mobile
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /v2/mobile/open-tabs [get]
func (h *MobileHandler) GetOpenTabs(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "User not found in context")
	}

	params := pagination.GetParams(c)
	tabs, total, err := h.tabs.List(c.Context(), string(domain.TabOpen), params.Offset, params.Limit)
	if err != nil {
		return fail(c, err, "Failed to list open tabs")
	}

	c.Set("Cache-Control", "private, no-cache")
	return response.Success(c, "Open tabs retrieved successfully", fiber.Map{
		"tabs": liteTabs(tabs, actor.UserID),
		"meta": pagination.GetMeta(params, total),
	})
}

type MobileDashboardResponse struct {
	User     UserInfo                     `json:"user"`
	Stats    *services.StaffDashboardData `json:"stats"`
	OpenTabs []TabLite                    `json:"open_tabs"`
	Catalog  *CatalogResponse             `json:"catalog"`
}

type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// GetDashboard returns the shift summary, open tabs and catalog at once
// @Summary Register start-up payload
// @Tags Mobile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /v2/mobile/dashboard [get]
func (h *MobileHandler) GetDashboard(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "User not found in context")
	}

	dashboard := MobileDashboardResponse{
		User: UserInfo{ID: actor.UserID, Username: actor.Username, Role: string(actor.Role)},
	}

	stats, err := h.dashboard.GetStaffDashboard(c.Context(), actor)
	if err != nil {
		return fail(c, err, "Failed to load dashboard")
	}
	dashboard.Stats = stats

	tabs, _, err := h.tabs.List(c.Context(), string(domain.TabOpen), 0, 5)
	if err != nil {
		return fail(c, err, "Failed to load dashboard")
	}
	dashboard.OpenTabs = liteTabs(tabs, actor.UserID)

	if dashboard.Catalog, err = h.catalog(c); err != nil {
		return fail(c, err, "Failed to load dashboard")
	}

	c.Set("Cache-Control", "private, max-age=15")
	return response.Success(c, "Dashboard retrieved successfully", dashboard)
}

func (h *MobileHandler) catalog(c *fiber.Ctx) (*CatalogResponse, error) {
	recipes, _, err := h.recipes.List(c.Context(), 0, pagination.MaxLimit)
	if err != nil {
		return nil, err
	}
	products, _, err := h.inventory.List(c.Context(), services.ListProductsInput{
		Filter: repositories.ProductFilter{},
		Limit:  pagination.MaxLimit,
	})
	if err != nil {
		return nil, err
	}

	out := &CatalogResponse{
		Recipes:  make([]CatalogItem, len(recipes)),
		Products: make([]CatalogItem, len(products)),
	}
	for i, r := range recipes {
		out.Recipes[i] = CatalogItem{ID: r.ID, Kind: "recipe", Name: r.Name, Category: r.Category, Price: r.Price}
	}
	for i, p := range products {
		out.Products[i] = liteProduct(p)
	}
	return out, nil
}

func liteProduct(p *models.Product) CatalogItem {
	item := CatalogItem{
		ID:       p.ID,
		Kind:     "product",
		Name:     p.Name,
		Category: p.Category,
		Price:    p.Price,
		LowStock: p.IsLow(),
	}
	if p.Barcode != nil {
		item.Barcode = *p.Barcode
	}
	return item
}

func liteTabs(tabs []*models.Tab, userID string) []TabLite {
	out := make([]TabLite, len(tabs))
	for i, t := range tabs {
		out[i] = TabLite{
			ID:        t.ID,
			Name:      t.Name,
			Items:     len(t.Items),
			Total:     t.Total(),
			OpenedBy:  t.OpenedBy,
			Mine:      t.OpenedBy == userID,
			CreatedAt: t.CreatedAt.Format("2006-01-02 15:04"),
		}
	}
	return out
}
