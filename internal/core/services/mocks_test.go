package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/config"
	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/core/terminal"
	"barstock-pos/internal/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	owner    = domain.Actor{UserID: "u-owner", Username: "olivia", Role: domain.RoleOwner}
	admin    = domain.Actor{UserID: "u-admin", Username: "adam", Role: domain.RoleAdmin}
	manager  = domain.Actor{UserID: "u-manager", Username: "maya", Role: domain.RoleManager}
	employee = domain.Actor{UserID: "u-employee", Username: "eli", Role: domain.RoleEmployee}
)

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Payments: config.PaymentsConfig{Currency: "usd"},
		Invites:  config.InviteConfig{DefaultTTLHours: 72},
	}
}

// ============================================================
// Users & tokens
// ============================================================

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	// StaleExists makes the ExistsBy checks report "free", as a concurrent
	// registration that commits between the check and the insert would
	StaleExists bool
}

func newMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: make(map[string]*models.User)}
}

func (m *MockUserRepo) put(u *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
}

func (m *MockUserRepo) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepo) CreateFirst(ctx context.Context, user *models.User) (bool, error) {
	m.mu.Lock()
	n := len(m.users)
	m.mu.Unlock()
	if n > 0 {
		return false, nil
	}
	return true, m.Create(ctx, user)
}

func (m *MockUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username })
}

func (m *MockUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *MockUserRepo) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *MockUserRepo) List(_ context.Context, offset, limit int) ([]*models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *MockUserRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *MockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.stale() {
		return false, nil
	}
	_, err := m.GetByUsername(ctx, username)
	return err == nil, nil
}

func (m *MockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.stale() {
		return false, nil
	}
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *MockUserRepo) stale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.StaleExists
}

type MockRefreshTokenRepo struct {
	mu     sync.Mutex
	nextID uint
	tokens map[uint]*models.RefreshToken
	// RevokeAllErr makes RevokeAllByUserID fail
	RevokeAllErr error
}

func newMockRefreshTokenRepo() *MockRefreshTokenRepo {
	return &MockRefreshTokenRepo{tokens: make(map[uint]*models.RefreshToken)}
}

func (m *MockRefreshTokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	token.ID = m.nextID
	cp := *token
	m.tokens[token.ID] = &cp
	return nil
}

func (m *MockRefreshTokenRepo) GetByTokenHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockRefreshTokenRepo) Revoke(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[id]; ok {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (m *MockRefreshTokenRepo) RevokeByTokenHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			now := time.Now()
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *MockRefreshTokenRepo) RevokeAllByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RevokeAllErr != nil {
		return m.RevokeAllErr
	}
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *MockRefreshTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.tokens {
		if t.IsExpired() {
			delete(m.tokens, id)
			n++
		}
	}
	return n, nil
}

func (m *MockRefreshTokenRepo) active(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	}
	return n
}

// ============================================================
// Invites & keys
// ============================================================

type MockInviteRepo struct {
	mu      sync.Mutex
	invites map[string]*models.Invite
}

func newMockInviteRepo() *MockInviteRepo {
	return &MockInviteRepo{invites: make(map[string]*models.Invite)}
}

func (m *MockInviteRepo) Create(_ context.Context, invite *models.Invite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invites[invite.Code]; ok {
		return gorm.ErrDuplicatedKey
	}
	cp := *invite
	m.invites[invite.Code] = &cp
	return nil
}

func (m *MockInviteRepo) Get(_ context.Context, code string) (*models.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	return &cp, nil
}

// Consume mirrors the conditional UPDATE: it is atomic under the mutex
func (m *MockInviteRepo) Consume(_ context.Context, code, userID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[code]
	if !ok || !inv.Usable(now) {
		return false, nil
	}
	inv.Used = true
	inv.UsedBy = &userID
	inv.UsedAt = &now
	return true, nil
}

func (m *MockInviteRepo) Release(_ context.Context, code, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[code]
	if !ok || !inv.Used || inv.UsedBy == nil || *inv.UsedBy != userID {
		return false, nil
	}
	inv.Used = false
	inv.UsedBy = nil
	inv.UsedAt = nil
	return true, nil
}

func (m *MockInviteRepo) List(_ context.Context, offset, limit int) ([]*models.Invite, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Invite
	for _, inv := range m.invites {
		cp := *inv
		out = append(out, &cp)
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *MockInviteRepo) DeleteUnused(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[code]
	if !ok || inv.Used {
		return false, nil
	}
	delete(m.invites, code)
	return true, nil
}

type MockStripeKeyRepo struct {
	mu   sync.Mutex
	keys map[string]*models.StripeKey
}

func newMockStripeKeyRepo() *MockStripeKeyRepo {
	return &MockStripeKeyRepo{keys: make(map[string]*models.StripeKey)}
}

func (m *MockStripeKeyRepo) Get(_ context.Context, userID string) (*models.StripeKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *k
	return &cp, nil
}

func (m *MockStripeKeyRepo) Upsert(_ context.Context, key *models.StripeKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *key
	m.keys[key.UserID] = &cp
	return nil
}

func (m *MockStripeKeyRepo) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, userID)
	return nil
}

// ============================================================
// Inventory
// ============================================================

type MockProductRepo struct {
	mu       sync.Mutex
	products map[string]*models.Product
	// UpdateErr makes UpdateFields fail
	UpdateErr error
	// BeforeUpdate runs at the start of UpdateFields, outside the lock, to
	// interleave another writer between a read and the update
	BeforeUpdate func()
}

func newMockProductRepo() *MockProductRepo {
	return &MockProductRepo{products: make(map[string]*models.Product)}
}

func (m *MockProductRepo) barcodeTaken(p *models.Product) bool {
	if p.Barcode == nil {
		return false
	}
	for id, other := range m.products {
		if id != p.ID && other.Barcode != nil && *other.Barcode == *p.Barcode {
			return true
		}
	}
	return false
}

func (m *MockProductRepo) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if m.barcodeTaken(p) {
		return gorm.ErrDuplicatedKey
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *MockProductRepo) GetByID(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockProductRepo) GetByBarcode(_ context.Context, code string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Barcode != nil && *p.Barcode == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockProductRepo) FindByName(_ context.Context, name string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockProductRepo) List(_ context.Context, filter repositories.ProductFilter, offset, limit int) ([]*models.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Product
	for _, p := range m.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.LowStock && !p.IsLow() {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *MockProductRepo) ListLowStock(_ context.Context) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Product
	for _, p := range m.products {
		if p.IsLow() {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// UpdateFields applies only the named columns, like a column-scoped UPDATE
func (m *MockProductRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) (*models.Product, *models.Product, error) {
	if hook := m.BeforeUpdate; hook != nil {
		m.BeforeUpdate = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return nil, nil, m.UpdateErr
	}
	p, ok := m.products[id]
	if !ok {
		return nil, nil, gorm.ErrRecordNotFound
	}
	before := *p
	after := *p
	for col, v := range fields {
		switch col {
		case "name":
			after.Name = v.(string)
		case "category":
			after.Category = v.(string)
		case "unit":
			after.Unit = v.(string)
		case "barcode":
			if v == nil {
				after.Barcode = nil
			} else {
				code := v.(string)
				after.Barcode = &code
			}
		case "quantity":
			after.Quantity = v.(float64)
		case "min_quantity":
			after.MinQuantity = v.(float64)
		case "price":
			after.Price = v.(decimal.Decimal)
		case "cost":
			after.Cost = v.(decimal.Decimal)
		default:
			return nil, nil, fmt.Errorf("unknown column %q", col)
		}
	}
	if m.barcodeTaken(&after) {
		return nil, nil, gorm.ErrDuplicatedKey
	}
	stored := after
	m.products[id] = &stored
	return &before, &after, nil
}

func (m *MockProductRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MockProductRepo) AddQuantity(_ context.Context, id string, delta float64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	p.Quantity += delta
	cp := *p
	return &cp, nil
}

func (m *MockProductRepo) quantity(id string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Quantity
}

type MockRecipeRepo struct {
	mu      sync.Mutex
	recipes map[string]*models.Recipe
}

func newMockRecipeRepo() *MockRecipeRepo {
	return &MockRecipeRepo{recipes: make(map[string]*models.Recipe)}
}

func (m *MockRecipeRepo) Create(_ context.Context, r *models.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	for i := range r.Ingredients {
		r.Ingredients[i].RecipeID = r.ID
	}
	cp := *r
	m.recipes[r.ID] = &cp
	return nil
}

func (m *MockRecipeRepo) GetByID(_ context.Context, id string) (*models.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRecipeRepo) List(_ context.Context, offset, limit int) ([]*models.Recipe, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Recipe
	for _, r := range m.recipes {
		cp := *r
		out = append(out, &cp)
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *MockRecipeRepo) Update(_ context.Context, r *models.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.recipes[r.ID] = &cp
	return nil
}

func (m *MockRecipeRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recipes, id)
	return nil
}

// MockAuditRepo is append-only like the real table
type MockAuditRepo struct {
	mu      sync.Mutex
	entries []models.InventoryChangeLog
	// CreateErr makes every write fail
	CreateErr error
}

func (m *MockAuditRepo) Create(_ context.Context, e *models.InventoryChangeLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Timestamp = time.Now()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *MockAuditRepo) List(_ context.Context, filter repositories.AuditFilter, offset, limit int) ([]*models.InventoryChangeLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.InventoryChangeLog
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if filter.ProductID != "" && e.ProductID != filter.ProductID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, &e)
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *MockAuditRepo) all() []models.InventoryChangeLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.InventoryChangeLog, len(m.entries))
	copy(out, m.entries)
	return out
}

type MockAlertRepo struct {
	mu     sync.Mutex
	alerts map[string]*models.StockAlert
	// FailSetStatus makes SetStatus fail for these alert ids
	FailSetStatus map[string]bool
}

func newMockAlertRepo() *MockAlertRepo {
	return &MockAlertRepo{alerts: make(map[string]*models.StockAlert)}
}

func (m *MockAlertRepo) Create(_ context.Context, a *models.StockAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *MockAlertRepo) GetByID(_ context.Context, id string) (*models.StockAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockAlertRepo) GetActiveByProduct(_ context.Context, productID string) (*models.StockAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.alerts {
		if a.ProductID == productID && a.Status == domain.AlertActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockAlertRepo) List(_ context.Context, status string, offset, limit int) ([]*models.StockAlert, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.StockAlert
	for _, a := range m.alerts {
		if status == "" || a.Status == status {
			cp := *a
			out = append(out, &cp)
		}
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *MockAlertRepo) SetStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSetStatus[id] {
		return errors.New("lock wait timeout")
	}
	a, ok := m.alerts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Status = status
	return nil
}

func (m *MockAlertRepo) count(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.alerts {
		if a.Status == status {
			n++
		}
	}
	return n
}

// ============================================================
// Tabs & sales
// ============================================================

type MockTabRepo struct {
	mu   sync.Mutex
	tabs map[string]*models.Tab
}

func newMockTabRepo() *MockTabRepo {
	return &MockTabRepo{tabs: make(map[string]*models.Tab)}
}

func (m *MockTabRepo) Create(_ context.Context, t *models.Tab) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	cp := *t
	cp.Items = append([]models.TabItem(nil), t.Items...)
	m.tabs[t.ID] = &cp
	return nil
}

func (m *MockTabRepo) GetByID(_ context.Context, id string) (*models.Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tabs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	cp.Items = append([]models.TabItem(nil), t.Items...)
	return &cp, nil
}

func (m *MockTabRepo) List(_ context.Context, status string, offset, limit int) ([]*models.Tab, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Tab
	for _, t := range m.tabs {
		if status == "" || t.Status == status {
			cp := *t
			out = append(out, &cp)
		}
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *MockTabRepo) AddItem(_ context.Context, item *models.TabItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tabs[item.TabID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	t.Items = append(t.Items, *item)
	return nil
}

func (m *MockTabRepo) RemoveItem(_ context.Context, tabID, itemID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tabs[tabID]
	if !ok {
		return false, nil
	}
	for i, it := range t.Items {
		if it.ID == itemID {
			t.Items = append(t.Items[:i], t.Items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MockTabRepo) Transition(_ context.Context, id, from, to string, fields map[string]interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tabs[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	if v, ok := fields["payment_method"].(string); ok {
		t.PaymentMethod = v
	}
	if v, ok := fields["payment_intent_id"].(string); ok {
		t.PaymentIntentID = v
	}
	if v, ok := fields["closed_by"].(string); ok {
		t.ClosedBy = v
	}
	return true, nil
}

type MockSaleRepo struct {
	mu    sync.Mutex
	sales []*models.Sale
	// CreateErr makes Create fail
	CreateErr error
}

func (m *MockSaleRepo) Create(_ context.Context, s *models.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now()
	cp := *s
	m.sales = append(m.sales, &cp)
	return nil
}

func (m *MockSaleRepo) GetByID(_ context.Context, id string) (*models.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sales {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockSaleRepo) GetByPaymentIntentID(_ context.Context, id string) (*models.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sales {
		if s.PaymentIntentID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockSaleRepo) List(_ context.Context, from, to *time.Time, offset, limit int) ([]*models.Sale, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Sale
	for _, s := range m.sales {
		if from != nil && s.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && !s.CreatedAt.Before(*to) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *MockSaleRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sales)
}

// ============================================================
// Reminders & notifications
// ============================================================

type MockReminderRepo struct {
	mu        sync.Mutex
	reminders map[string]*models.Reminder
}

func newMockReminderRepo() *MockReminderRepo {
	return &MockReminderRepo{reminders: make(map[string]*models.Reminder)}
}

func (m *MockReminderRepo) Create(_ context.Context, r *models.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	cp := *r
	m.reminders[r.ID] = &cp
	return nil
}

func (m *MockReminderRepo) GetByID(_ context.Context, id string) (*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockReminderRepo) List(_ context.Context, includeDone bool, offset, limit int) ([]*models.Reminder, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Reminder
	for _, r := range m.reminders {
		if includeDone || !r.Done {
			cp := *r
			out = append(out, &cp)
		}
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *MockReminderRepo) Update(_ context.Context, r *models.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.reminders[r.ID] = &cp
	return nil
}

func (m *MockReminderRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reminders, id)
	return nil
}

func (m *MockReminderRepo) ListDue(_ context.Context, now time.Time) ([]*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Reminder
	for _, r := range m.reminders {
		if !r.Done && !r.Notified && !r.DueAt.After(now) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockReminderRepo) MarkNotified(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok || r.Notified {
		return false, nil
	}
	r.Notified = true
	return true, nil
}

type MockNotificationRepo struct {
	mu    sync.Mutex
	items []*models.Notification
}

func (m *MockNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *MockNotificationRepo) visible(userID string) []*models.Notification {
	var out []*models.Notification
	for _, n := range m.items {
		if n.UserID == userID || n.UserID == "" {
			out = append(out, n)
		}
	}
	return out
}

func (m *MockNotificationRepo) ListForUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]*models.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Notification
	for _, n := range m.visible(userID) {
		if unreadOnly && n.Read {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *MockNotificationRepo) MarkRead(_ context.Context, id, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.visible(userID) {
		if n.ID == id {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (m *MockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.visible(userID) {
		if !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (m *MockNotificationRepo) byType(kind string) []*models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Notification
	for _, n := range m.items {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

type MockAccountRepo struct {
	Purged int
}

func (m *MockAccountRepo) PurgeAll(_ context.Context) error {
	m.Purged++
	return nil
}

// ============================================================
// Payments
// ============================================================

// MockGateway stores intents in memory and settles them as SettleStatus
type MockGateway struct {
	mu           sync.Mutex
	SettleStatus string
	CreateErr    error
	intents      map[string]*terminal.PaymentIntent
	seq          int
	Keys         []string
}

func newMockGateway() *MockGateway {
	return &MockGateway{SettleStatus: terminal.IntentSucceeded, intents: make(map[string]*terminal.PaymentIntent)}
}

func (m *MockGateway) ConnectionToken(_ context.Context) (string, error) {
	return "pst_test", nil
}

func (m *MockGateway) CreateIntent(_ context.Context, amountMinor int64, currency string, metadata map[string]string) (*terminal.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.seq++
	pi := &terminal.PaymentIntent{
		ID:           fmt.Sprintf("pi_%d", m.seq),
		ClientSecret: fmt.Sprintf("pi_%d_secret", m.seq),
		Status:       "requires_payment_method",
		Amount:       money.FromMinorUnits(amountMinor, currency),
		AmountMinor:  amountMinor,
		Currency:     currency,
		Metadata:     metadata,
	}
	m.intents[pi.ID] = pi
	out := *pi
	return &out, nil
}

func (m *MockGateway) GetIntent(_ context.Context, id string) (*terminal.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pi, ok := m.intents[id]
	if !ok {
		return nil, ErrIntentNotFound
	}
	out := *pi
	if out.Status != terminal.IntentCanceled {
		out.Status = m.SettleStatus
	}
	return &out, nil
}

func (m *MockGateway) CancelIntent(_ context.Context, id string) (*terminal.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pi, ok := m.intents[id]
	if !ok {
		return nil, ErrIntentNotFound
	}
	pi.Status = terminal.IntentCanceled
	out := *pi
	return &out, nil
}

func (m *MockGateway) intent(id string) *terminal.PaymentIntent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.intents[id]
}

type MockReader struct {
	mu          sync.Mutex
	Device      string
	ConnectErr  error
	CollectErr  error
	Disconnects int
	bound       bool
}

func (m *MockReader) Initialize(_ context.Context, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	return nil
}

func (m *MockReader) DiscoverAndConnect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bound = m.ConnectErr == nil
	return m.ConnectErr
}

func (m *MockReader) DeviceID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bound {
		return ""
	}
	return m.Device
}

func (m *MockReader) CollectPaymentMethod(_ context.Context, _ *terminal.PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CollectErr
}

func (m *MockReader) ProcessPayment(_ context.Context, _ *terminal.PaymentIntent) error {
	return nil
}

func (m *MockReader) Disconnect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Disconnects++
	m.bound = false
	return nil
}

func (m *MockReader) disconnects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Disconnects
}

// MockProvider hands out one gateway for every key and a fresh reader per session
type MockProvider struct {
	mu      sync.Mutex
	gateway *MockGateway
	readers []*MockReader
	// ConnectErr and Device are applied to readers created after they are set
	ConnectErr error
	Device     string
}

func newMockProvider() *MockProvider {
	return &MockProvider{gateway: newMockGateway()}
}

func (m *MockProvider) Gateway(secretKey string) PaymentGateway {
	m.gateway.mu.Lock()
	m.gateway.Keys = append(m.gateway.Keys, secretKey)
	m.gateway.mu.Unlock()
	return m.gateway
}

func (m *MockProvider) Reader(_ string) terminal.Reader {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &MockReader{ConnectErr: m.ConnectErr, Device: m.Device}
	m.readers = append(m.readers, r)
	return r
}

func (m *MockProvider) reader(i int) *MockReader {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readers[i]
}

// ============================================================
// Analytics
// ============================================================

type MockCompleter struct {
	mu       sync.Mutex
	Answer   string
	Err      error
	Calls    int
	Block    chan struct{}
	LastCall string
}

func (m *MockCompleter) CompleteJSON(_ context.Context, _ string, prompt string) (string, error) {
	if m.Block != nil {
		<-m.Block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.LastCall = prompt
	return m.Answer, m.Err
}

func (m *MockCompleter) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

type MockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *MockCache {
	return &MockCache{data: make(map[string][]byte)}
}

func (m *MockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *MockCache) setCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ============================================================
// Wiring
// ============================================================

type testEnv struct {
	users         *MockUserRepo
	tokens        *MockRefreshTokenRepo
	inviteRepo    *MockInviteRepo
	keyRepo       *MockStripeKeyRepo
	products      *MockProductRepo
	recipes       *MockRecipeRepo
	auditRepo     *MockAuditRepo
	alertRepo     *MockAlertRepo
	tabRepo       *MockTabRepo
	saleRepo      *MockSaleRepo
	reminderRepo  *MockReminderRepo
	notifRepo     *MockNotificationRepo
	provider      *MockProvider
	gate          domain.Gate
	cfg           *config.Config
	invites       *InviteService
	auth          *AuthService
	userSvc       *UserService
	notifications *NotificationService
	alerts        *StockAlertService
	audit         *AuditRecorder
	inventory     *InventoryService
	recipeSvc     *RecipeService
	sales         *SaleService
	tabs          *TabService
	keys          *StripeKeyService
	payments      *PaymentService
	checkout      *CheckoutService
	reminders     *ReminderService
}

func newTestEnv() *testEnv {
	e := &testEnv{
		users:        newMockUserRepo(),
		tokens:       newMockRefreshTokenRepo(),
		inviteRepo:   newMockInviteRepo(),
		keyRepo:      newMockStripeKeyRepo(),
		products:     newMockProductRepo(),
		recipes:      newMockRecipeRepo(),
		auditRepo:    &MockAuditRepo{},
		alertRepo:    newMockAlertRepo(),
		tabRepo:      newMockTabRepo(),
		saleRepo:     &MockSaleRepo{},
		reminderRepo: newMockReminderRepo(),
		notifRepo:    &MockNotificationRepo{},
		provider:     newMockProvider(),
		gate:         domain.NewGate(true),
		cfg:          testConfig(),
	}
	e.invites = NewInviteService(e.inviteRepo, e.gate, e.cfg.Invites.DefaultTTLHours)
	e.auth = NewAuthService(e.users, e.tokens, e.invites, e.gate, e.cfg)
	e.userSvc = NewUserService(e.users, e.tokens, e.gate)
	e.notifications = NewNotificationService(e.notifRepo)
	e.alerts = NewStockAlertService(e.alertRepo, e.products, e.notifications)
	e.audit = NewAuditRecorder(e.auditRepo, e.gate)
	e.inventory = NewInventoryService(e.products, e.audit, e.alerts, e.gate)
	e.recipeSvc = NewRecipeService(e.recipes, e.products, e.gate)
	e.sales = NewSaleService(e.saleRepo, e.recipes, e.products, e.inventory, "usd")
	e.tabs = NewTabService(e.tabRepo, e.recipes, e.products, e.sales, e.gate)
	e.keys = NewStripeKeyService(e.keyRepo, e.cfg.Payments)
	e.payments = NewPaymentService(e.keys, e.provider, "usd")
	e.checkout = NewCheckoutService(e.payments, e.tabs, e.sales, e.notifications)
	e.reminders = NewReminderService(e.reminderRepo, e.notifications)
	return e
}

// withKey stores a test secret key for actor
func (e *testEnv) withKey(actor domain.Actor) {
	_ = e.keyRepo.Upsert(context.Background(), &models.StripeKey{UserID: actor.UserID, SecretKey: "sk_test_" + actor.UserID})
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func boolPtr(b bool) *bool        { return &b }

func timePtr(t time.Time) *time.Time { return &t }
