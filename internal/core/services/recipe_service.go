package services

import (
	"context"
	"errors"
	"strings"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Recipe errors
var (
	ErrRecipeNotFound   = errors.New("recipe not found")
	ErrRecipeName       = errors.New("recipe name is required")
	ErrRecipeIngredient = errors.New("each ingredient needs an existing product and a positive quantity")
)

// RecipeService manages drinks and dishes built from products
type RecipeService struct {
	recipes  repositories.RecipeRepository
	products repositories.ProductRepository
	gate     domain.Gate
}

// NewRecipeService creates a new recipe service
func NewRecipeService(recipes repositories.RecipeRepository, products repositories.ProductRepository, gate domain.Gate) *RecipeService {
	return &RecipeService{recipes: recipes, products: products, gate: gate}
}

// IngredientInput is one product used by a recipe
type IngredientInput struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

// RecipeInput creates or replaces a recipe
type RecipeInput struct {
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Price       decimal.Decimal   `json:"price"`
	Ingredients []IngredientInput `json:"ingredients"`
}

// Create adds a recipe
func (s *RecipeService) Create(ctx context.Context, actor domain.Actor, input *RecipeInput) (*models.Recipe, error) {
	if !s.gate.HasPermission(actor.Role, domain.CanEditProducts) {
		return nil, domain.ErrForbidden
	}
	recipe := &models.Recipe{}
	if err := s.apply(ctx, recipe, input); err != nil {
		return nil, err
	}
	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Update replaces a recipe and its ingredient list
func (s *RecipeService) Update(ctx context.Context, actor domain.Actor, id string, input *RecipeInput) (*models.Recipe, error) {
	if !s.gate.HasPermission(actor.Role, domain.CanEditProducts) {
		return nil, domain.ErrForbidden
	}
	recipe, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, recipe, input); err != nil {
		return nil, err
	}
	if err := s.recipes.Update(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Delete removes a recipe
func (s *RecipeService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if !s.gate.HasPermission(actor.Role, domain.CanDeleteProducts) {
		return domain.ErrForbidden
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.recipes.Delete(ctx, id)
}

// Get returns one recipe with ingredients
func (s *RecipeService) Get(ctx context.Context, id string) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

// List returns recipes by name
func (s *RecipeService) List(ctx context.Context, offset, limit int) ([]*models.Recipe, int64, error) {
	return s.recipes.List(ctx, offset, limit)
}

func (s *RecipeService) apply(ctx context.Context, recipe *models.Recipe, input *RecipeInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return ErrRecipeName
	}
	if input.Price.IsNegative() {
		return ErrNegativePrice
	}

	ingredients := make([]models.RecipeIngredient, 0, len(input.Ingredients))
	for _, in := range input.Ingredients {
		if in.ProductID == "" || in.Quantity <= 0 || !finite(in.Quantity) {
			return ErrRecipeIngredient
		}
		if _, err := s.products.GetByID(ctx, in.ProductID); err != nil {
			if isNotFound(err) {
				return ErrRecipeIngredient
			}
			return err
		}
		ingredients = append(ingredients, models.RecipeIngredient{
			RecipeID:  recipe.ID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
		})
	}

	recipe.Name = name
	recipe.Category = strings.TrimSpace(input.Category)
	recipe.Price = input.Price.Round(2)
	recipe.Ingredients = ingredients
	return nil
}
