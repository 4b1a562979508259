// Package store holds the gorm-backed, owner-scoped repositories used by the
// costing service, the HTTP handlers and the price importer.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pxi/internal/costing"
	"pxi/models"
)

// ErrNotFound is returned when a record does not exist for the owner.
var ErrNotFound = errors.New("store: record not found")

// Store wraps a gorm handle.
type Store struct {
	db *gorm.DB
}

// New returns a Store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var (
	_ costing.IngredientRepository = (*Store)(nil)
	_ costing.RecipeRepository     = (*Store)(nil)
	_ costing.ItemRepository       = (*Store)(nil)
)

// ListIngredients returns the owner's registry in id order so that name
// collisions resolve to the oldest entry.
func (s *Store) ListIngredients(ctx context.Context, ownerID uint) ([]costing.Ingredient, error) {
	records, err := s.Ingredients(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	result := make([]costing.Ingredient, 0, len(records))
	for _, record := range records {
		result = append(result, IngredientSnapshot(record))
	}
	return result, nil
}

// FindRecipe loads a recipe with its lines in position order.
func (s *Store) FindRecipe(ctx context.Context, ownerID, recipeID uint) (costing.Recipe, error) {
	record, err := s.Recipe(ctx, ownerID, recipeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return costing.Recipe{}, costing.ErrRecipeNotFound
		}
		return costing.Recipe{}, err
	}
	return RecipeSnapshot(record), nil
}

// FindItem loads a sellable item.
func (s *Store) FindItem(ctx context.Context, ownerID, itemID uint) (costing.Item, error) {
	record, err := s.Item(ctx, ownerID, itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return costing.Item{}, costing.ErrItemNotFound
		}
		return costing.Item{}, err
	}
	return ItemSnapshot(record), nil
}

// IngredientSnapshot converts a stored ingredient for the engine.
func IngredientSnapshot(record models.Ingredient) costing.Ingredient {
	return costing.Ingredient{
		ID:               record.ID,
		Name:             record.Name,
		Unit:             record.Unit,
		CurrentCostCents: record.CurrentCostCents,
		MarketPriceCents: record.MarketPriceCents,
		MarketSummary:    record.MarketSummary,
		MarketSources:    record.Sources(),
	}
}

// RecipeSnapshot converts a stored recipe for the engine. Lines are expected
// in position order.
func RecipeSnapshot(record models.Recipe) costing.Recipe {
	recipe := costing.Recipe{
		ID:    record.ID,
		Name:  record.Name,
		Lines: make([]costing.RecipeLine, 0, len(record.Lines)),
	}
	for _, line := range record.Lines {
		recipe.Lines = append(recipe.Lines, costing.RecipeLine{
			IngredientName: line.IngredientName,
			QtyPerPortion:  line.QtyPerPortion,
			Unit:           line.Unit,
			SubRecipe:      line.SubRecipe,
		})
	}
	return recipe
}

// ItemSnapshot converts a stored item for the engine.
func ItemSnapshot(record models.Item) costing.Item {
	return costing.Item{
		ID:             record.ID,
		Name:           record.Name,
		PriceCents:     record.PriceCents,
		CostPriceCents: record.CostPriceCents,
		RecipeID:       record.RecipeID,
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	err = translate(err)
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
