package repositories

import (
	"context"
	"time"

	"barstock-pos/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// CreateFirst creates user only when the table is empty
	CreateFirst(ctx context.Context, user *models.User) (bool, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	Count(ctx context.Context) (int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// InviteRepository defines invite repository interface
type InviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) error
	Get(ctx context.Context, code string) (*models.Invite, error)
	// Consume marks the code used by userID if it is unused and unexpired at now
	Consume(ctx context.Context, code, userID string, now time.Time) (bool, error)
	// Release undoes Consume while the code is still marked used by userID
	Release(ctx context.Context, code, userID string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]*models.Invite, int64, error)
	// DeleteUnused removes a code nobody has redeemed yet
	DeleteUnused(ctx context.Context, code string) (bool, error)
}

// StripeKeyRepository defines per-user payment credential storage
type StripeKeyRepository interface {
	Get(ctx context.Context, userID string) (*models.StripeKey, error)
	Upsert(ctx context.Context, key *models.StripeKey) error
	Delete(ctx context.Context, userID string) error
}

// ProductFilter narrows a product listing
type ProductFilter struct {
	Category string
	Search   string
	LowStock bool
}

// ProductRepository defines product repository interface
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	// FindByName matches case-insensitively
	FindByName(ctx context.Context, name string) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter, offset, limit int) ([]*models.Product, int64, error)
	ListLowStock(ctx context.Context) ([]*models.Product, error)
	// UpdateFields writes only the given columns and returns the row as it
	// was immediately before and after that write
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (before, after *models.Product, err error)
	Delete(ctx context.Context, id string) error
	// AddQuantity applies delta in the database and returns the updated row
	AddQuantity(ctx context.Context, id string, delta float64) (*models.Product, error)
}

// RecipeRepository defines recipe repository interface
type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	GetByID(ctx context.Context, id string) (*models.Recipe, error)
	List(ctx context.Context, offset, limit int) ([]*models.Recipe, int64, error)
	// Update replaces the recipe row and its ingredient list
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id string) error
}

// AuditFilter narrows an audit listing
type AuditFilter struct {
	ProductID string
	Action    string
}

// InventoryChangeLogRepository is append-only: it offers no update or delete
type InventoryChangeLogRepository interface {
	Create(ctx context.Context, entry *models.InventoryChangeLog) error
	List(ctx context.Context, filter AuditFilter, offset, limit int) ([]*models.InventoryChangeLog, int64, error)
}

// StockAlertRepository defines stock alert repository interface
type StockAlertRepository interface {
	Create(ctx context.Context, alert *models.StockAlert) error
	GetByID(ctx context.Context, id string) (*models.StockAlert, error)
	GetActiveByProduct(ctx context.Context, productID string) (*models.StockAlert, error)
	List(ctx context.Context, status string, offset, limit int) ([]*models.StockAlert, int64, error)
	SetStatus(ctx context.Context, id, status string) error
}

// TabRepository defines tab repository interface
type TabRepository interface {
	Create(ctx context.Context, tab *models.Tab) error
	GetByID(ctx context.Context, id string) (*models.Tab, error)
	List(ctx context.Context, status string, offset, limit int) ([]*models.Tab, int64, error)
	AddItem(ctx context.Context, item *models.TabItem) error
	RemoveItem(ctx context.Context, tabID, itemID string) (bool, error)
	// Transition moves a tab from one status to another only if it is still in from
	Transition(ctx context.Context, id, from, to string, fields map[string]interface{}) (bool, error)
}

// SaleRepository defines sale repository interface
type SaleRepository interface {
	Create(ctx context.Context, sale *models.Sale) error
	GetByID(ctx context.Context, id string) (*models.Sale, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Sale, error)
	List(ctx context.Context, from, to *time.Time, offset, limit int) ([]*models.Sale, int64, error)
}

// ReminderRepository defines reminder repository interface
type ReminderRepository interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	GetByID(ctx context.Context, id string) (*models.Reminder, error)
	List(ctx context.Context, includeDone bool, offset, limit int) ([]*models.Reminder, int64, error)
	Update(ctx context.Context, reminder *models.Reminder) error
	Delete(ctx context.Context, id string) error
	ListDue(ctx context.Context, now time.Time) ([]*models.Reminder, error)
	// MarkNotified flips notified once; false means another run got there first
	MarkNotified(ctx context.Context, id string) (bool, error)
}

// NotificationRepository defines notification repository interface
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	// ListForUser returns the user's own and broadcast notifications
	ListForUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// AccountRepository removes all business data
type AccountRepository interface {
	PurgeAll(ctx context.Context) error
}

// ExportSource reads the tables mirrored into the offline store
type ExportSource interface {
	AllProducts(ctx context.Context) ([]*models.Product, error)
	AllRecipes(ctx context.Context) ([]*models.Recipe, error)
	AllTabs(ctx context.Context) ([]*models.Tab, error)
	AllSales(ctx context.Context) ([]*models.Sale, error)
	AllUsers(ctx context.Context) ([]*models.User, error)
	AllStripeKeys(ctx context.Context) ([]*models.StripeKey, error)
}
