package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/pkg/password"

	"gorm.io/gorm"
)

// ErrOwnerExists means the store already has users, so no bootstrap owner is created
var ErrOwnerExists = errors.New("users already exist")

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run seeds the bootstrap owner from SEED_OWNER_* variables when they are set
func (s *Seeder) Run() error {
	username := os.Getenv("SEED_OWNER_USERNAME")
	if username == "" {
		return nil
	}
	log.Println("🌱 Running database seeders...")

	err := s.SeedOwner(username, os.Getenv("SEED_OWNER_EMAIL"), os.Getenv("SEED_OWNER_PASSWORD"))
	if err != nil && !errors.Is(err, ErrOwnerExists) {
		log.Printf("⚠️ Owner seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// SeedOwner creates the owner account on an empty users table
func (s *Seeder) SeedOwner(username, email, plain string) error {
	if username == "" || email == "" {
		return fmt.Errorf("username and email are required")
	}
	if !password.ValidatePassword(plain) {
		return fmt.Errorf("password must be at least %d characters", password.MinLength)
	}

	var count int64
	if err := s.db.Unscoped().Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrOwnerExists
	}

	hashed, err := password.Hash(plain)
	if err != nil {
		return err
	}

	owner := &models.User{
		Username: username,
		Email:    email,
		Password: hashed,
		Role:     string(domain.RoleOwner),
		IsActive: true,
	}
	if err := s.db.Create(owner).Error; err != nil {
		return err
	}

	log.Printf("✅ Owner user created: %s", owner.Username)
	return nil
}
