package costing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	applog "pxi/internal/log"
)

var (
	// ErrItemNotFound is returned when an item id does not resolve for the owner.
	ErrItemNotFound = errors.New("costing: item not found")
	// ErrRecipeNotFound is returned by RecipeRepository for unknown ids.
	ErrRecipeNotFound = errors.New("costing: recipe not found")
	// ErrEmptyRequest is returned when a procurement report names no items.
	ErrEmptyRequest = errors.New("costing: no items requested")
)

// IngredientRepository lists the ingredient registry of one owner.
type IngredientRepository interface {
	ListIngredients(ctx context.Context, ownerID uint) ([]Ingredient, error)
}

// RecipeRepository loads recipes. FindRecipe returns ErrRecipeNotFound for
// unknown ids.
type RecipeRepository interface {
	FindRecipe(ctx context.Context, ownerID, recipeID uint) (Recipe, error)
}

// ItemRepository loads sellable items. FindItem returns ErrItemNotFound for
// unknown ids.
type ItemRepository interface {
	FindItem(ctx context.Context, ownerID, itemID uint) (Item, error)
}

// Service loads snapshots through the repositories and runs the engine.
type Service struct {
	ingredients IngredientRepository
	recipes     RecipeRepository
	items       ItemRepository
	engine      Engine
	metrics     *Metrics
	now         func() time.Time
}

// NewService wires the repositories to an engine. metrics may be nil.
func NewService(ingredients IngredientRepository, recipes RecipeRepository, items ItemRepository, engine Engine, metrics *Metrics) *Service {
	return &Service{
		ingredients: ingredients,
		recipes:     recipes,
		items:       items,
		engine:      engine,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Snapshot is everything the engine needs to cost one item.
type Snapshot struct {
	Item     Item
	Registry *Registry
	Recipes  RecipeStore
}

// Load reads the item, its recipe and the owner's registry.
func (s *Service) Load(ctx context.Context, ownerID, itemID uint) (Snapshot, error) {
	item, err := s.items.FindItem(ctx, ownerID, itemID)
	if err != nil {
		return Snapshot{}, err
	}

	recipes := RecipeStore{}
	if item.RecipeID != nil {
		recipe, err := s.recipes.FindRecipe(ctx, ownerID, *item.RecipeID)
		switch {
		case err == nil:
			recipes[recipe.ID] = recipe
		case errors.Is(err, ErrRecipeNotFound):
			// engine reports the dangling reference
		default:
			return Snapshot{}, fmt.Errorf("load recipe %d: %w", *item.RecipeID, err)
		}
	}

	ingredients, err := s.ingredients.ListIngredients(ctx, ownerID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load ingredients: %w", err)
	}

	registry := NewRegistry(ingredients)
	if collisions := registry.Collisions(); len(collisions) > 0 {
		keys := make([]string, 0, len(collisions))
		for _, c := range collisions {
			keys = append(keys, c.Key)
		}
		applog.Info(ctx, "ingredient names collide after normalization", "owner", ownerID, "keys", keys)
	}
	return Snapshot{Item: item, Registry: registry, Recipes: recipes}, nil
}

// Cost computes the breakdown for portions of an item.
func (s *Service) Cost(ctx context.Context, ownerID, itemID uint, portions int, overrides Overrides) (Result, error) {
	started := s.now()
	snapshot, err := s.Load(ctx, ownerID, itemID)
	if err != nil {
		return Result{}, err
	}
	result := s.engine.Compute(snapshot.Item, portions, snapshot.Registry, snapshot.Recipes, overrides)
	s.metrics.observe(result, s.now().Sub(started))
	return result, nil
}

// OpenWorksheet loads an item into an interactive session. Recomputes made
// through the worksheet after it is opened are recorded as costing runs.
func (s *Service) OpenWorksheet(ctx context.Context, ownerID, itemID uint) (*Worksheet, *Registry, error) {
	snapshot, err := s.Load(ctx, ownerID, itemID)
	if err != nil {
		return nil, nil, err
	}
	ws := NewWorksheet(s.engine, snapshot.Item, snapshot.Registry, snapshot.Recipes)
	if s.metrics != nil {
		ws.observe = s.metrics.observe
	}
	return ws, snapshot.Registry, nil
}

// ProcurementRequest asks for portions of one item in a report.
type ProcurementRequest struct {
	ItemID   uint
	Portions int
}

// ProcurementItem summarises one costed item within a report.
type ProcurementItem struct {
	ItemID                   uint
	ItemName                 string
	Portions                 int
	TotalIngredientCostCents int64
	RevenueCents             int64
	GrossMarginPercentage    float64
	Fallback                 bool
	ErrorCount               int
}

// ProcurementReport is a consolidated Bill of Quantities across items.
type ProcurementReport struct {
	LotNumber                string
	RunDate                  time.Time
	Items                    []ProcurementItem
	Rows                     []AggregateRow
	TotalIngredientCost      decimal.Decimal
	TotalIngredientCostCents int64
	RevenueCents             int64
	GrossMarginPercentage    float64
	WarningCount             int
}

// ProcurementReport costs every requested item and merges their lines into
// one shopping list keyed by ingredient name.
func (s *Service) ProcurementReport(ctx context.Context, ownerID uint, requests []ProcurementRequest) (ProcurementReport, error) {
	if len(requests) == 0 {
		return ProcurementReport{}, ErrEmptyRequest
	}

	report := ProcurementReport{Items: make([]ProcurementItem, 0, len(requests))}
	var lines []Line
	for _, req := range requests {
		result, err := s.Cost(ctx, ownerID, req.ItemID, req.Portions, nil)
		if err != nil {
			return ProcurementReport{}, fmt.Errorf("cost item %d: %w", req.ItemID, err)
		}
		lines = append(lines, result.Lines...)
		report.TotalIngredientCost = report.TotalIngredientCost.Add(result.TotalIngredientCost)
		report.RevenueCents += result.RevenueCents
		report.WarningCount += result.ErrorCount()
		if result.RecipeMissing {
			report.WarningCount++
		}
		report.Items = append(report.Items, ProcurementItem{
			ItemID:                   result.ItemID,
			ItemName:                 result.ItemName,
			Portions:                 result.Portions,
			TotalIngredientCostCents: result.TotalIngredientCostCents,
			RevenueCents:             result.RevenueCents,
			GrossMarginPercentage:    result.GrossMarginPercentage,
			Fallback:                 result.Fallback,
			ErrorCount:               result.ErrorCount(),
		})
	}

	report.Rows = AggregateByName(lines)
	report.TotalIngredientCostCents = roundCents(report.TotalIngredientCost)
	report.GrossMarginPercentage = grossMargin(report.RevenueCents, report.TotalIngredientCost)

	runTime := s.now().UTC()
	report.RunDate = runTime
	report.LotNumber = fmt.Sprintf("BOQ-%s-%03d", runTime.Format("20060102"), len(report.Items))
	return report, nil
}
