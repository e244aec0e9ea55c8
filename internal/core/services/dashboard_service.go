package services

import (
	"context"
	"time"

	"barstock-pos/internal/core/domain"

	"gorm.io/gorm"
)

// DashboardService handles dashboard operations
type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, now: time.Now}
}

// ============================================================
// Manager Dashboard
// ============================================================

// ManagerDashboardData represents the floor overview for managers and up
type ManagerDashboardData struct {
	// Sales
	RevenueToday     float64 `json:"revenue_today"`
	SalesToday       int64   `json:"sales_today"`
	CardRevenueToday float64 `json:"card_revenue_today"`
	CashRevenueToday float64 `json:"cash_revenue_today"`
	RevenueThisMonth float64 `json:"revenue_this_month"`

	// Floor
	OpenTabs      int64   `json:"open_tabs"`
	OpenTabsValue float64 `json:"open_tabs_value"`

	// Stock
	TotalProducts int64 `json:"total_products"`
	LowStock      int64 `json:"low_stock"`
	ActiveAlerts  int64 `json:"active_alerts"`

	// Top items today
	TopItems []ItemSales `json:"top_items"`

	// Staff
	TopStaff []StaffSales `json:"top_staff"`
}

// ItemSales represents units and revenue for one item
type ItemSales struct {
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// StaffSales represents one staff member's sales
type StaffSales struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Sales    int64   `json:"sales"`
	Revenue  float64 `json:"revenue"`
}

// GetManagerDashboard returns manager dashboard data
func (s *DashboardService) GetManagerDashboard(ctx context.Context, actor domain.Actor) (*ManagerDashboardData, error) {
	if !actor.Role.AtLeast(domain.RoleManager) {
		return nil, domain.ErrForbidden
	}
	data := &ManagerDashboardData{}
	db := s.db.WithContext(ctx)
	startOfDay, startOfMonth := s.periodStarts()

	// Sales today
	db.Table("sales").
		Where("created_at >= ?", startOfDay).
		Count(&data.SalesToday)
	db.Table("sales").
		Where("created_at >= ?", startOfDay).
		Select("COALESCE(SUM(total), 0)").
		Scan(&data.RevenueToday)
	db.Table("sales").
		Where("created_at >= ? AND payment_method = ?", startOfDay, domain.PaymentCard).
		Select("COALESCE(SUM(total), 0)").
		Scan(&data.CardRevenueToday)
	db.Table("sales").
		Where("created_at >= ? AND payment_method = ?", startOfDay, domain.PaymentCash).
		Select("COALESCE(SUM(total), 0)").
		Scan(&data.CashRevenueToday)
	db.Table("sales").
		Where("created_at >= ?", startOfMonth).
		Select("COALESCE(SUM(total), 0)").
		Scan(&data.RevenueThisMonth)

	// Open tabs
	db.Table("tabs").Where("status = ?", domain.TabOpen).Count(&data.OpenTabs)
	db.Table("tab_items").
		Joins("JOIN tabs ON tab_items.tab_id = tabs.id").
		Where("tabs.status = ?", domain.TabOpen).
		Select("COALESCE(SUM(tab_items.quantity * tab_items.unit_price), 0)").
		Scan(&data.OpenTabsValue)

	// Stock
	db.Table("products").Count(&data.TotalProducts)
	db.Table("products").
		Where("min_quantity > 0 AND quantity <= min_quantity").
		Count(&data.LowStock)
	db.Table("stock_alerts").Where("status = ?", domain.AlertActive).Count(&data.ActiveAlerts)

	// Top items today
	var topItems []struct {
		Name     string
		Quantity int64
		Revenue  float64
	}
	db.Table("sale_items").
		Select("sale_items.name, SUM(sale_items.quantity) as quantity, SUM(sale_items.quantity * sale_items.unit_price) as revenue").
		Joins("JOIN sales ON sale_items.sale_id = sales.id").
		Where("sales.created_at >= ?", startOfDay).
		Group("sale_items.name").
		Order("revenue DESC").
		Limit(5).
		Scan(&topItems)

	data.TopItems = make([]ItemSales, len(topItems))
	for i, it := range topItems {
		data.TopItems[i] = ItemSales{Name: it.Name, Quantity: it.Quantity, Revenue: it.Revenue}
	}

	// Top staff today
	var topStaff []struct {
		UserID   string
		Username string
		Sales    int64
		Revenue  float64
	}
	db.Table("sales").
		Select("sales.sold_by as user_id, users.username, COUNT(*) as sales, COALESCE(SUM(sales.total), 0) as revenue").
		Joins("LEFT JOIN users ON sales.sold_by = users.id").
		Where("sales.created_at >= ?", startOfDay).
		Group("sales.sold_by, users.username").
		Order("revenue DESC").
		Limit(5).
		Scan(&topStaff)

	data.TopStaff = make([]StaffSales, len(topStaff))
	for i, st := range topStaff {
		data.TopStaff[i] = StaffSales{UserID: st.UserID, Username: st.Username, Sales: st.Sales, Revenue: st.Revenue}
	}

	return data, nil
}

// ============================================================
// Staff Dashboard
// ============================================================

// StaffDashboardData represents what one staff member sees on shift
type StaffDashboardData struct {
	MySalesToday   int64   `json:"my_sales_today"`
	MyRevenueToday float64 `json:"my_revenue_today"`
	MyOpenTabs     int64   `json:"my_open_tabs"`
	OpenTabs       int64   `json:"open_tabs"`
	LowStock       int64   `json:"low_stock"`
	Unread         int64   `json:"unread_notifications"`
	DueReminders   int64   `json:"due_reminders"`
}

// GetStaffDashboard returns the caller's shift summary
func (s *DashboardService) GetStaffDashboard(ctx context.Context, actor domain.Actor) (*StaffDashboardData, error) {
	data := &StaffDashboardData{}
	db := s.db.WithContext(ctx)
	startOfDay, _ := s.periodStarts()

	db.Table("sales").
		Where("sold_by = ? AND created_at >= ?", actor.UserID, startOfDay).
		Count(&data.MySalesToday)
	db.Table("sales").
		Where("sold_by = ? AND created_at >= ?", actor.UserID, startOfDay).
		Select("COALESCE(SUM(total), 0)").
		Scan(&data.MyRevenueToday)
	db.Table("tabs").
		Where("opened_by = ? AND status = ?", actor.UserID, domain.TabOpen).
		Count(&data.MyOpenTabs)
	db.Table("tabs").Where("status = ?", domain.TabOpen).Count(&data.OpenTabs)
	db.Table("products").
		Where("min_quantity > 0 AND quantity <= min_quantity").
		Count(&data.LowStock)
	db.Table("notifications").
		Where("(user_id = ? OR user_id = '') AND `read` = ?", actor.UserID, false).
		Count(&data.Unread)
	db.Table("reminders").
		Where("created_by = ? AND done = ? AND due_at <= ?", actor.UserID, false, s.now()).
		Count(&data.DueReminders)

	return data, nil
}

func (s *DashboardService) periodStarts() (time.Time, time.Time) {
	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return startOfDay, startOfMonth
}
