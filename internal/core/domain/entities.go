package domain

// InventoryAction is the kind of stock mutation an audit entry records
type InventoryAction string

const (
	ActionCreate     InventoryAction = "create"
	ActionUpdate     InventoryAction = "update"
	ActionDelete     InventoryAction = "delete"
	ActionRestock    InventoryAction = "restock"
	ActionAdjustment InventoryAction = "adjustment"
	ActionSale       InventoryAction = "sale"
)

func (a InventoryAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionRestock, ActionAdjustment, ActionSale:
		return true
	}
	return false
}

// ChangeSource says what triggered an inventory mutation
type ChangeSource string

const (
	SourceManual    ChangeSource = "manual"
	SourceImport    ChangeSource = "import"
	SourceSale      ChangeSource = "sale"
	SourceAutomatic ChangeSource = "automatic"
)

func (s ChangeSource) Valid() bool {
	switch s {
	case SourceManual, SourceImport, SourceSale, SourceAutomatic:
		return true
	}
	return false
}

// TabStatus values
const (
	TabOpen   = "open"
	TabClosed = "closed"
	TabVoided = "voided"
)

// Payment methods
const (
	PaymentCash = "cash"
	PaymentCard = "card"
)

// Stock alert statuses
const (
	AlertActive    = "active"
	AlertResolved  = "resolved"
	AlertDismissed = "dismissed"
)

// Notification types
const (
	NotificationLowStock = "low_stock"
	NotificationReminder = "reminder"
	NotificationPayment  = "payment"
)

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Actor is the authenticated caller threaded through every mutating call
type Actor struct {
	UserID   string
	Username string
	Role     Role
}
