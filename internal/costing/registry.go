package costing

import "sort"

// Ingredient is the engine's read-only view of a registry entry.
type Ingredient struct {
	ID               uint
	Name             string
	Unit             string
	CurrentCostCents int64
	// MarketPriceCents is set once an AI market survey has been applied and
	// then takes precedence over CurrentCostCents.
	MarketPriceCents *int64
	MarketSummary    string
	MarketSources    []string
}

// unitCost returns the price used for costing and whether it came from a
// market survey. Negative stored prices are treated as zero.
func (i Ingredient) unitCost() (int64, bool) {
	cost, grounded := i.CurrentCostCents, false
	if i.MarketPriceCents != nil {
		cost, grounded = *i.MarketPriceCents, true
	}
	if cost < 0 {
		cost = 0
	}
	return cost, grounded
}

// Collision lists registry entries sharing one normalized name. The first
// entry is the one lookups resolve to.
type Collision struct {
	Key   string
	Names []string
	IDs   []uint
}

// Registry is an immutable snapshot of a tenant's ingredients keyed by
// NormalizeName.
type Registry struct {
	byKey      map[string]Ingredient
	collisions map[string]*Collision
	order      []string
}

// NewRegistry indexes ingredients by normalized name. When several share a
// key the earliest in the slice wins, so callers should pass a stable order
// (the store lists by id).
func NewRegistry(ingredients []Ingredient) *Registry {
	r := &Registry{
		byKey:      make(map[string]Ingredient, len(ingredients)),
		collisions: make(map[string]*Collision),
	}
	for _, ingredient := range ingredients {
		key := NormalizeName(ingredient.Name)
		if key == "" {
			continue
		}
		existing, ok := r.byKey[key]
		if !ok {
			r.byKey[key] = ingredient
			r.order = append(r.order, key)
			continue
		}
		c, ok := r.collisions[key]
		if !ok {
			c = &Collision{Key: key, Names: []string{existing.Name}, IDs: []uint{existing.ID}}
			r.collisions[key] = c
		}
		c.Names = append(c.Names, ingredient.Name)
		c.IDs = append(c.IDs, ingredient.ID)
	}
	return r
}

// Lookup resolves name after normalization.
func (r *Registry) Lookup(name string) (Ingredient, bool) {
	if r == nil {
		return Ingredient{}, false
	}
	ingredient, ok := r.byKey[NormalizeName(name)]
	return ingredient, ok
}

// Len returns the number of distinct keys.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byKey)
}

// Ingredients returns one entry per key in registration order.
func (r *Registry) Ingredients() []Ingredient {
	if r == nil {
		return nil
	}
	result := make([]Ingredient, 0, len(r.order))
	for _, key := range r.order {
		result = append(result, r.byKey[key])
	}
	return result
}

// Collisions returns every normalized name registered more than once,
// sorted by key.
func (r *Registry) Collisions() []Collision {
	if r == nil || len(r.collisions) == 0 {
		return nil
	}
	result := make([]Collision, 0, len(r.collisions))
	for _, c := range r.collisions {
		result = append(result, Collision{
			Key:   c.Key,
			Names: append([]string(nil), c.Names...),
			IDs:   append([]uint(nil), c.IDs...),
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// RecipeStore is a snapshot of recipes keyed by id.
type RecipeStore map[uint]Recipe

// NewRecipeStore indexes recipes by ID.
func NewRecipeStore(recipes ...Recipe) RecipeStore {
	store := make(RecipeStore, len(recipes))
	for _, recipe := range recipes {
		store[recipe.ID] = recipe
	}
	return store
}

// Lookup returns the recipe stored under id.
func (s RecipeStore) Lookup(id uint) (Recipe, bool) {
	recipe, ok := s[id]
	return recipe, ok
}
