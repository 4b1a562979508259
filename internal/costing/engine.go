// Package costing computes Bills of Quantities for menu items: scaled
// ingredient quantities, line costs, revenue and gross margin.
//
// The engine is pure. It reads snapshots handed to it by the caller and never
// fails; lines that cannot be priced are flagged on the result instead.
package costing

import (
	"github.com/shopspring/decimal"
)

// DefaultCostRatio is the share of the sale price assumed to be ingredient
// cost when an item has neither a recipe nor a direct cost price.
const DefaultCostRatio = 0.30

// RecipeLine is one ingredient requirement for a single portion.
type RecipeLine struct {
	IngredientName string
	QtyPerPortion  float64
	Unit           string
	SubRecipe      string
}

// Recipe is an ordered list of ingredient lines.
type Recipe struct {
	ID    uint
	Name  string
	Lines []RecipeLine
}

// Item is a sellable product. RecipeID is nil for items costed directly.
type Item struct {
	ID             uint
	Name           string
	PriceCents     int64
	CostPriceCents int64
	RecipeID       *uint
}

// Overrides replaces the stored per-portion quantity of every line whose
// ingredient name matches a key (after NormalizeName), in every sub-recipe.
type Overrides map[string]float64

func (o Overrides) lookup(name string) (float64, bool) {
	if len(o) == 0 {
		return 0, false
	}
	if qty, ok := o[name]; ok && qty >= 0 {
		return qty, true
	}
	key := NormalizeName(name)
	best, found := "", false
	for candidate, qty := range o {
		if qty < 0 || NormalizeName(candidate) != key {
			continue
		}
		if !found || candidate < best {
			best, found = candidate, true
		}
	}
	if !found {
		return 0, false
	}
	return o[best], true
}

// Problem classifies why a breakdown line could not be priced.
type Problem int

const (
	ProblemNone Problem = iota
	// ProblemUnresolved: no registry entry matches the line's ingredient name.
	ProblemUnresolved
	// ProblemUnitMismatch: the line's unit cannot be converted to the unit
	// the ingredient is priced in (for example pcs against kg).
	ProblemUnitMismatch
)

func (p Problem) String() string {
	switch p {
	case ProblemUnresolved:
		return "unresolved"
	case ProblemUnitMismatch:
		return "unit_mismatch"
	default:
		return ""
	}
}

// Line is one row of the breakdown. Cost is the exact line cost in cents;
// TotalCostCents is Cost rounded for display.
type Line struct {
	IngredientName string
	QtyRequired    float64
	Unit           string
	UnitCostCents  int64
	Cost           decimal.Decimal
	TotalCostCents int64
	IsGrounded     bool
	HasError       bool
	Problem        Problem
	SubRecipe      string
}

// Quantity returns QtyRequired as a decimal for exact summation.
func (l Line) Quantity() decimal.Decimal {
	return decimal.NewFromFloat(l.QtyRequired)
}

// Result is the outcome of one costing run. It is never persisted.
// TotalIngredientCost is the exact sum of line costs in cents and scales
// linearly with portions; TotalIngredientCostCents is its rounded value.
type Result struct {
	ItemID                   uint
	ItemName                 string
	Portions                 int
	Lines                    []Line
	TotalIngredientCost      decimal.Decimal
	TotalIngredientCostCents int64
	RevenueCents             int64
	GrossMarginPercentage    float64
	// Fallback is set when the item had no usable recipe and the total was
	// derived from its cost price or the default cost ratio.
	Fallback bool
	// RecipeMissing is set when the item references a recipe id that is not
	// in the store.
	RecipeMissing bool
}

// ErrorCount returns the number of lines flagged with a problem.
func (r Result) ErrorCount() int {
	count := 0
	for _, line := range r.Lines {
		if line.HasError {
			count++
		}
	}
	return count
}

// HasWarnings reports whether the totals may be underestimated.
func (r Result) HasWarnings() bool {
	return r.RecipeMissing || r.ErrorCount() > 0
}

// PortionCostCents returns the ingredient cost of a single portion, rounded
// to the nearest cent.
func (r Result) PortionCostCents() int64 {
	if r.Portions <= 0 {
		return 0
	}
	return r.TotalIngredientCost.
		Div(decimal.NewFromInt(int64(r.Portions))).
		Round(0).
		IntPart()
}

// Engine carries tunables for Compute. The zero value uses DefaultCostRatio.
type Engine struct {
	FallbackCostRatio float64
}

// Compute runs the default engine.
func Compute(item Item, portions int, registry *Registry, recipes RecipeStore, overrides Overrides) Result {
	return Engine{}.Compute(item, portions, registry, recipes, overrides)
}

// Compute costs portions of item against the registry and recipe snapshots.
func (e Engine) Compute(item Item, portions int, registry *Registry, recipes RecipeStore, overrides Overrides) Result {
	portions = ClampPortions(portions)
	result := Result{
		ItemID:   item.ID,
		ItemName: item.Name,
		Portions: portions,
	}

	var (
		recipe Recipe
		found  bool
	)
	if item.RecipeID != nil {
		recipe, found = recipes.Lookup(*item.RecipeID)
		result.RecipeMissing = !found
	}

	total := decimal.Zero
	if !found {
		result.Fallback = true
		result.Lines = []Line{}
		total = e.fallbackUnitCost(item).Mul(decimal.NewFromInt(int64(portions)))
	} else {
		result.Lines = make([]Line, 0, len(recipe.Lines))
		for _, recipeLine := range recipe.Lines {
			line := costLine(recipeLine, portions, registry, overrides)
			total = total.Add(line.Cost)
			result.Lines = append(result.Lines, line)
		}
	}

	result.TotalIngredientCost = total
	result.TotalIngredientCostCents = roundCents(total)
	result.RevenueCents = item.PriceCents * int64(portions)
	result.GrossMarginPercentage = grossMargin(result.RevenueCents, total)
	return result
}

func (e Engine) fallbackUnitCost(item Item) decimal.Decimal {
	if item.CostPriceCents > 0 {
		return decimal.NewFromInt(item.CostPriceCents)
	}
	ratio := e.FallbackCostRatio
	if ratio <= 0 {
		ratio = DefaultCostRatio
	}
	if item.PriceCents <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(item.PriceCents).Mul(decimal.NewFromFloat(ratio))
}

func costLine(recipeLine RecipeLine, portions int, registry *Registry, overrides Overrides) Line {
	perPortion := recipeLine.QtyPerPortion
	if qty, ok := overrides.lookup(recipeLine.IngredientName); ok {
		perPortion = qty
	}
	if perPortion < 0 {
		perPortion = 0
	}
	qty := decimal.NewFromFloat(perPortion).Mul(decimal.NewFromInt(int64(portions)))

	line := Line{
		IngredientName: recipeLine.IngredientName,
		Unit:           CanonicalUnit(recipeLine.Unit),
		SubRecipe:      recipeLine.SubRecipe,
	}

	ingredient, ok := registry.Lookup(recipeLine.IngredientName)
	if !ok {
		line.setQuantity(qty)
		line.HasError = true
		line.Problem = ProblemUnresolved
		return line
	}

	stockUnit := CanonicalUnit(ingredient.Unit)
	converted, ok := convertQuantity(qty, recipeLine.Unit, stockUnit)
	if !ok {
		line.setQuantity(qty)
		line.HasError = true
		line.Problem = ProblemUnitMismatch
		return line
	}
	if stockUnit != "" {
		line.Unit = stockUnit
	}
	line.setQuantity(converted)

	unitCost, grounded := ingredient.unitCost()
	line.UnitCostCents = unitCost
	line.IsGrounded = grounded
	line.Cost = converted.Mul(decimal.NewFromInt(unitCost))
	line.TotalCostCents = roundCents(line.Cost)
	return line
}

func (l *Line) setQuantity(qty decimal.Decimal) {
	l.QtyRequired = qty.InexactFloat64()
}

func roundCents(amount decimal.Decimal) int64 {
	return amount.Round(0).IntPart()
}

func grossMargin(revenueCents int64, cost decimal.Decimal) float64 {
	if revenueCents <= 0 {
		return 0
	}
	revenue := decimal.NewFromInt(revenueCents)
	return revenue.Sub(cost).
		Div(revenue).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()
}
