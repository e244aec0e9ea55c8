package repositories

import (
	"context"

	"barstock-pos/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type exportSource struct {
	db *gorm.DB
}

// NewExportSource reads whole tables for the offline mirror
func NewExportSource(db *gorm.DB) ExportSource {
	return &exportSource{db: db}
}

func (s *exportSource) AllProducts(ctx context.Context) ([]*models.Product, error) {
	var rows []*models.Product
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (s *exportSource) AllRecipes(ctx context.Context) ([]*models.Recipe, error) {
	var rows []*models.Recipe
	err := s.db.WithContext(ctx).Preload("Ingredients").Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (s *exportSource) AllTabs(ctx context.Context) ([]*models.Tab, error) {
	var rows []*models.Tab
	err := s.db.WithContext(ctx).Preload("Items").Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (s *exportSource) AllSales(ctx context.Context) ([]*models.Sale, error) {
	var rows []*models.Sale
	err := s.db.WithContext(ctx).Preload("Items").Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (s *exportSource) AllUsers(ctx context.Context) ([]*models.User, error) {
	var rows []*models.User
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (s *exportSource) AllStripeKeys(ctx context.Context) ([]*models.StripeKey, error) {
	var rows []*models.StripeKey
	err := s.db.WithContext(ctx).Find(&rows).Error
	return rows, err
}
