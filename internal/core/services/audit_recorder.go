package services

import (
	"context"
	"log"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/core/domain"

	"github.com/shopspring/decimal"
)

// InventoryChangeInput describes one committed stock mutation
type InventoryChangeInput struct {
	ProductID        string
	ProductName      string
	Action           domain.InventoryAction
	PreviousQuantity *float64
	NewQuantity      float64
	PreviousPrice    *decimal.Decimal
	NewPrice         *decimal.Decimal
	Source           domain.ChangeSource
	Actor            domain.Actor
}

// AuditRecorder appends inventory change entries. It never edits or
// removes an entry.
type AuditRecorder struct {
	repo repositories.InventoryChangeLogRepository
	gate domain.Gate
}

// NewAuditRecorder creates a new audit recorder
func NewAuditRecorder(repo repositories.InventoryChangeLogRepository, gate domain.Gate) *AuditRecorder {
	return &AuditRecorder{repo: repo, gate: gate}
}

// Record writes exactly one entry. It runs after the mutation has
// committed: a failure is logged and returned, and callers must not undo
// the mutation because of it.
func (r *AuditRecorder) Record(ctx context.Context, input InventoryChangeInput) error {
	source := input.Source
	if !source.Valid() {
		source = domain.SourceManual
	}
	entry := &models.InventoryChangeLog{
		ProductID:        input.ProductID,
		ProductName:      input.ProductName,
		Action:           string(input.Action),
		PreviousQuantity: input.PreviousQuantity,
		NewQuantity:      input.NewQuantity,
		PreviousPrice:    nullDecimal(input.PreviousPrice),
		NewPrice:         nullDecimal(input.NewPrice),
		Source:           string(source),
		ActingUser:       input.Actor.UserID,
		ActingUsername:   input.Actor.Username,
	}
	if err := r.repo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ AUDIT write failed: product=%s action=%s user=%s: %v",
			input.ProductID, input.Action, input.Actor.UserID, err)
		return err
	}
	return nil
}

// List returns entries newest first
func (r *AuditRecorder) List(ctx context.Context, actor domain.Actor, filter repositories.AuditFilter, offset, limit int) ([]*models.InventoryChangeLog, int64, error) {
	if !r.gate.HasPermission(actor.Role, domain.CanViewAuditLogs) {
		return nil, 0, domain.ErrForbidden
	}
	return r.repo.List(ctx, filter, offset, limit)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
