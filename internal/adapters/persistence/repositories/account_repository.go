package repositories

import (
	"context"

	"barstock-pos/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates the account purge repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// PurgeAll deletes every business table in one transaction. It is the only
// code path that removes audit entries, which requires skipping model hooks.
func (r *accountRepository) PurgeAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purge := tx.Session(&gorm.Session{AllowGlobalUpdate: true, SkipHooks: true})
		tables := []interface{}{
			&models.SaleItem{},
			&models.Sale{},
			&models.TabItem{},
			&models.Tab{},
			&models.RecipeIngredient{},
			&models.Recipe{},
			&models.StockAlert{},
			&models.InventoryChangeLog{},
			&models.Product{},
			&models.Reminder{},
			&models.Notification{},
			&models.Invite{},
			&models.StripeKey{},
			&models.RefreshToken{},
		}
		for _, table := range tables {
			if err := purge.Unscoped().Delete(table).Error; err != nil {
				return err
			}
		}
		return purge.Unscoped().Delete(&models.User{}).Error
	})
}
