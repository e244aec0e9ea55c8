package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Analytics report kinds backed by the model
const (
	ReportTopSellers        = "top-sellers"
	ReportInventoryInsights = "inventory-insights"
	ReportBusinessSummary   = "business-summary"
)

// Result sources
const (
	SourceModel    = "model"
	SourceComputed = "computed"
)

// UnimplementedReports answer 501 until their behavior is defined
var UnimplementedReports = []string{
	"reorder-recommendations",
	"profitability",
	"price-optimization",
	"anomaly-detection",
	"promotions",
	"stockout-prediction",
	"menu-engineering",
	"temporal-patterns",
	"dynamic-pricing",
	"sales-report",
	"tax-report",
}

// ErrUnknownReport is returned for a kind with no handler
var ErrUnknownReport = errors.New("unknown analytics report")

const topSellerLimit = 10

// AnalyticsSale is one client-supplied sale line
type AnalyticsSale struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Quantity float64         `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
	Date     *time.Time      `json:"date"`
}

// AnalyticsItem is one client-supplied inventory row
type AnalyticsItem struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Quantity    float64         `json:"quantity"`
	MinQuantity float64         `json:"minQuantity"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
}

// AnalyticsRequest is the body every model-backed report accepts
type AnalyticsRequest struct {
	Sales           []AnalyticsSale        `json:"sales"`
	Inventory       []AnalyticsItem        `json:"inventory"`
	BusinessProfile map[string]interface{} `json:"businessProfile,omitempty"`
}

// AnalyticsResult carries computed statistics and, when the model answered,
// its insights. Insights is null when the model was unavailable.
type AnalyticsResult struct {
	Stats    interface{}     `json:"stats"`
	Insights json.RawMessage `json:"insights"`
	Source   string          `json:"source"`
}

// TopSeller is one ranked item
type TopSeller struct {
	Name                  string  `json:"name"`
	Category              string  `json:"category,omitempty"`
	Units                 float64 `json:"units"`
	Revenue               float64 `json:"revenue"`
	EstimatedDailyUnits   float64 `json:"estimatedDailyUnits"`
	EstimatedUnitPrice    float64 `json:"estimatedUnitPrice"`
	EstimatedDailyRevenue float64 `json:"estimatedDailyRevenue"`
	ProfitMargin          float64 `json:"profitMargin"`
}

// TopSellersStats ranks items by revenue
type TopSellersStats struct {
	PeriodDays   int         `json:"periodDays"`
	TotalUnits   float64     `json:"totalUnits"`
	TotalRevenue float64     `json:"totalRevenue"`
	TopSellers   []TopSeller `json:"topSellers"`
}

// StockItem summarizes one inventory row
type StockItem struct {
	Name         string   `json:"name"`
	Quantity     float64  `json:"quantity"`
	MinQuantity  float64  `json:"minQuantity"`
	DailyUsage   float64  `json:"dailyUsage"`
	DaysOfCover  *float64 `json:"daysOfCover"`
	ProfitMargin float64  `json:"profitMargin"`
}

// InventoryStats summarizes stock levels and value
type InventoryStats struct {
	TotalItems  int         `json:"totalItems"`
	LowStock    []StockItem `json:"lowStock"`
	OutOfStock  []string    `json:"outOfStock"`
	StockValue  float64     `json:"stockValue"`
	RetailValue float64     `json:"retailValue"`
	Items       []StockItem `json:"items"`
}

// BusinessStats is the headline view of the period
type BusinessStats struct {
	PeriodDays    int     `json:"periodDays"`
	TotalRevenue  float64 `json:"totalRevenue"`
	Transactions  int     `json:"transactions"`
	AverageTicket float64 `json:"averageTicket"`
	DailyRevenue  float64 `json:"dailyRevenue"`
	TopCategory   string  `json:"topCategory,omitempty"`
	LowStockCount int     `json:"lowStockCount"`
	StockValue    float64 `json:"stockValue"`
}

// AnalyticsService computes statistics and asks a language model to
// interpret them. Identical concurrent requests share one model call.
type AnalyticsService struct {
	model    Completer
	cache    ResultCache
	cacheTTL time.Duration
	sfg      singleflight.Group
}

// NewAnalyticsService creates a new analytics service; model and cache may be nil
func NewAnalyticsService(model Completer, cache ResultCache, cacheTTL time.Duration) *AnalyticsService {
	return &AnalyticsService{
		model:    model,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Report runs a model-backed report. Model failures never fail the request:
// the caller gets the computed statistics with null insights.
func (s *AnalyticsService) Report(ctx context.Context, kind string, req *AnalyticsRequest) (*AnalyticsResult, error) {
	schema, ok := reportSchemas[kind]
	if !ok {
		return nil, ErrUnknownReport
	}

	stats := s.computeStats(kind, req)
	fallback := &AnalyticsResult{Stats: stats, Source: SourceComputed}
	if s.model == nil {
		return fallback, nil
	}

	key, err := requestKey(kind, req)
	if err != nil {
		return nil, err
	}

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		if s.cache != nil {
			if data, hit, err := s.cache.Get(ctx, key); err != nil {
				log.Printf("⚠️ analytics cache get error: %v", err)
			} else if hit {
				var cached AnalyticsResult
				if err := json.Unmarshal(data, &cached); err == nil {
					return &cached, nil
				}
			}
		}

		insights, err := s.ask(ctx, kind, schema, stats, req.BusinessProfile)
		if err != nil {
			log.Printf("⚠️ analytics %s falling back to computed stats: %v", kind, err)
			return fallback, nil
		}
		result := &AnalyticsResult{Stats: stats, Insights: insights, Source: SourceModel}

		if s.cache != nil {
			if data, err := json.Marshal(result); err == nil {
				go func() {
					if err := s.cache.Set(context.Background(), key, data, s.cacheTTL); err != nil {
						log.Printf("⚠️ analytics cache set error: %v", err)
					}
				}()
			}
		}
		return result, nil
	})
	if err != nil {
		return fallback, nil
	}
	return v.(*AnalyticsResult), nil
}

func (s *AnalyticsService) ask(ctx context.Context, kind string, schema reportSchema, stats interface{}, profile map[string]interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"report":          kind,
		"stats":           stats,
		"businessProfile": profile,
	})
	if err != nil {
		return nil, err
	}

	system := "You are an analyst for a bar or restaurant. Answer with a single JSON object and nothing else. " +
		"Use this shape: " + schema.shape
	answer, err := s.model.CompleteJSON(ctx, system, string(payload))
	if err != nil {
		return nil, err
	}

	raw := json.RawMessage(strings.TrimSpace(answer))
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("model answer is not a JSON object: %w", err)
	}
	if schema.validate != nil {
		if err := schema.validate(obj); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

func (s *AnalyticsService) computeStats(kind string, req *AnalyticsRequest) interface{} {
	switch kind {
	case ReportTopSellers:
		return computeTopSellers(req)
	case ReportInventoryInsights:
		return computeInventory(req)
	default:
		return computeBusiness(req)
	}
}

type reportSchema struct {
	shape    string
	validate func(map[string]json.RawMessage) error
}

var reportSchemas = map[string]reportSchema{
	ReportTopSellers: {
		shape: `{"topSellers":[{"name":string,"estimatedDailyUnits":number,"estimatedUnitPrice":number,` +
			`"estimatedDailyRevenue":number,"profitMargin":number,"insight":string}],"summary":string}`,
		validate: validateTopSellers,
	},
	ReportInventoryInsights: {
		shape: `{"reorderSoon":[{"name":string,"reason":string}],"overstocked":[{"name":string,"reason":string}],` +
			`"recommendations":[string],"summary":string}`,
	},
	ReportBusinessSummary: {
		shape: `{"headline":string,"highlights":[string],"concerns":[string],"nextSteps":[string]}`,
	},
}

func validateTopSellers(obj map[string]json.RawMessage) error {
	var sellers []struct {
		Name                  string   `json:"name"`
		EstimatedDailyUnits   *float64 `json:"estimatedDailyUnits"`
		EstimatedUnitPrice    *float64 `json:"estimatedUnitPrice"`
		EstimatedDailyRevenue *float64 `json:"estimatedDailyRevenue"`
		ProfitMargin          *float64 `json:"profitMargin"`
	}
	raw, ok := obj["topSellers"]
	if !ok {
		return errors.New("model answer has no topSellers")
	}
	if err := json.Unmarshal(raw, &sellers); err != nil {
		return fmt.Errorf("topSellers has non-numeric fields: %w", err)
	}
	for _, ts := range sellers {
		if ts.EstimatedDailyUnits == nil || ts.EstimatedUnitPrice == nil ||
			ts.EstimatedDailyRevenue == nil || ts.ProfitMargin == nil {
			return fmt.Errorf("topSellers entry %q is missing numeric fields", ts.Name)
		}
	}
	return nil
}

func requestKey(kind string, req *AnalyticsRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(kind+"\n"), body...))
	return "analytics:" + kind + ":" + hex.EncodeToString(sum[:]), nil
}

// periodDays spans the earliest to the latest dated sale, at least one day
func periodDays(sales []AnalyticsSale) int {
	var first, last time.Time
	for _, sale := range sales {
		if sale.Date == nil {
			continue
		}
		if first.IsZero() || sale.Date.Before(first) {
			first = *sale.Date
		}
		if sale.Date.After(last) {
			last = *sale.Date
		}
	}
	if first.IsZero() {
		return 1
	}
	days := int(math.Ceil(last.Sub(first).Hours()/24)) + 1
	if days < 1 {
		days = 1
	}
	return days
}

type itemTotals struct {
	name     string
	category string
	units    float64
	revenue  decimal.Decimal
}

func totalsByItem(sales []AnalyticsSale) map[string]*itemTotals {
	out := make(map[string]*itemTotals)
	for _, sale := range sales {
		key := strings.ToLower(strings.TrimSpace(sale.Name))
		if key == "" {
			continue
		}
		t, ok := out[key]
		if !ok {
			t = &itemTotals{name: strings.TrimSpace(sale.Name), category: sale.Category}
			out[key] = t
		}
		t.units += sale.Quantity
		t.revenue = t.revenue.Add(sale.Total)
	}
	return out
}

func inventoryByName(items []AnalyticsItem) map[string]AnalyticsItem {
	out := make(map[string]AnalyticsItem, len(items))
	for _, it := range items {
		out[strings.ToLower(strings.TrimSpace(it.Name))] = it
	}
	return out
}

func margin(price, cost decimal.Decimal) float64 {
	if !price.IsPositive() || cost.IsZero() {
		return 0
	}
	return round2(price.Sub(cost).Div(price).InexactFloat64())
}

func computeTopSellers(req *AnalyticsRequest) *TopSellersStats {
	days := periodDays(req.Sales)
	inv := inventoryByName(req.Inventory)
	stats := &TopSellersStats{PeriodDays: days, TopSellers: []TopSeller{}}

	totalRevenue := decimal.Zero
	for key, t := range totalsByItem(req.Sales) {
		revenue := t.revenue.InexactFloat64()
		seller := TopSeller{
			Name:                  t.name,
			Category:              t.category,
			Units:                 round2(t.units),
			Revenue:               round2(revenue),
			EstimatedDailyUnits:   round2(t.units / float64(days)),
			EstimatedDailyRevenue: round2(revenue / float64(days)),
		}
		if t.units > 0 {
			seller.EstimatedUnitPrice = round2(revenue / t.units)
		}
		if it, ok := inv[key]; ok {
			seller.ProfitMargin = margin(it.Price, it.Cost)
		}
		stats.TopSellers = append(stats.TopSellers, seller)
		stats.TotalUnits += t.units
		totalRevenue = totalRevenue.Add(t.revenue)
	}
	stats.TotalUnits = round2(stats.TotalUnits)
	stats.TotalRevenue = round2(totalRevenue.InexactFloat64())

	sort.Slice(stats.TopSellers, func(i, j int) bool {
		a, b := stats.TopSellers[i], stats.TopSellers[j]
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.Name < b.Name
	})
	if len(stats.TopSellers) > topSellerLimit {
		stats.TopSellers = stats.TopSellers[:topSellerLimit]
	}
	return stats
}

func computeInventory(req *AnalyticsRequest) *InventoryStats {
	days := periodDays(req.Sales)
	sold := totalsByItem(req.Sales)
	stats := &InventoryStats{
		TotalItems: len(req.Inventory),
		LowStock:   []StockItem{},
		OutOfStock: []string{},
		Items:      []StockItem{},
	}

	stockValue, retailValue := decimal.Zero, decimal.Zero
	for _, it := range req.Inventory {
		qty := decimal.NewFromFloat(it.Quantity)
		stockValue = stockValue.Add(qty.Mul(it.Cost))
		retailValue = retailValue.Add(qty.Mul(it.Price))

		item := StockItem{
			Name:         it.Name,
			Quantity:     it.Quantity,
			MinQuantity:  it.MinQuantity,
			ProfitMargin: margin(it.Price, it.Cost),
		}
		if t, ok := sold[strings.ToLower(strings.TrimSpace(it.Name))]; ok && t.units > 0 {
			item.DailyUsage = round2(t.units / float64(days))
			cover := round2(it.Quantity / (t.units / float64(days)))
			item.DaysOfCover = &cover
		}
		stats.Items = append(stats.Items, item)

		switch {
		case it.Quantity <= 0:
			stats.OutOfStock = append(stats.OutOfStock, it.Name)
		case it.MinQuantity > 0 && it.Quantity <= it.MinQuantity:
			stats.LowStock = append(stats.LowStock, item)
		}
	}
	stats.StockValue = round2(stockValue.InexactFloat64())
	stats.RetailValue = round2(retailValue.InexactFloat64())
	return stats
}

func computeBusiness(req *AnalyticsRequest) *BusinessStats {
	days := periodDays(req.Sales)
	stats := &BusinessStats{PeriodDays: days, Transactions: len(req.Sales)}

	revenue := decimal.Zero
	byCategory := map[string]decimal.Decimal{}
	for _, sale := range req.Sales {
		revenue = revenue.Add(sale.Total)
		if sale.Category != "" {
			byCategory[sale.Category] = byCategory[sale.Category].Add(sale.Total)
		}
	}
	stats.TotalRevenue = round2(revenue.InexactFloat64())
	stats.DailyRevenue = round2(stats.TotalRevenue / float64(days))
	if stats.Transactions > 0 {
		stats.AverageTicket = round2(stats.TotalRevenue / float64(stats.Transactions))
	}

	best := decimal.Zero
	for cat, total := range byCategory {
		if total.GreaterThan(best) || (total.Equal(best) && cat < stats.TopCategory) {
			best = total
			stats.TopCategory = cat
		}
	}

	inv := computeInventory(req)
	stats.LowStockCount = len(inv.LowStock) + len(inv.OutOfStock)
	stats.StockValue = inv.StockValue
	return stats
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
