package costing

import (
	"strings"
	"sync"
	"time"
)

// Worksheet keeps the inputs of an interactive costing session. Every change
// recomputes the result from scratch and replaces the previous one.
type Worksheet struct {
	mu        sync.RWMutex
	engine    Engine
	item      Item
	portions  int
	overrides Overrides
	registry  *Registry
	recipes   RecipeStore
	result    Result
	observe   func(Result, time.Duration)
}

// NewWorksheet starts a session for item at one portion.
func NewWorksheet(engine Engine, item Item, registry *Registry, recipes RecipeStore) *Worksheet {
	w := &Worksheet{
		engine:    engine,
		item:      item,
		portions:  1,
		overrides: Overrides{},
		registry:  registry,
		recipes:   copyStore(recipes),
	}
	w.recompute()
	return w
}

// Result returns the latest computation.
func (w *Worksheet) Result() Result {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.result
}

// Portions returns the current portion count.
func (w *Worksheet) Portions() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.portions
}

// Overrides returns a copy of the active overrides.
func (w *Worksheet) Overrides() Overrides {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(Overrides, len(w.overrides))
	for name, qty := range w.overrides {
		out[name] = qty
	}
	return out
}

// SetPortions changes the portion multiplier; values below one become one.
func (w *Worksheet) SetPortions(n int) Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.portions = ClampPortions(n)
	return w.recompute()
}

// SetOverride replaces the per-portion quantity for ingredient name.
// Negative quantities are ignored.
func (w *Worksheet) SetOverride(name string, qtyPerPortion float64) Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	if strings.TrimSpace(name) != "" && qtyPerPortion >= 0 {
		w.overrides[name] = qtyPerPortion
	}
	return w.recompute()
}

// ClearOverride drops any override registered for name.
func (w *Worksheet) ClearOverride(name string) Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := NormalizeName(name)
	for candidate := range w.overrides {
		if NormalizeName(candidate) == key {
			delete(w.overrides, candidate)
		}
	}
	return w.recompute()
}

// ClearOverrides drops every override.
func (w *Worksheet) ClearOverrides() Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.overrides = Overrides{}
	return w.recompute()
}

// SetRecipe installs an edited recipe. The caller's store is not modified.
func (w *Worksheet) SetRecipe(recipe Recipe) Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.recipes[recipe.ID] = recipe
	return w.recompute()
}

// SetRegistry swaps in a fresh ingredient snapshot, for example after a
// market price grounding run.
func (w *Worksheet) SetRegistry(registry *Registry) Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.registry = registry
	return w.recompute()
}

// Apply replaces portions and every override in one recompute.
func (w *Worksheet) Apply(portions int, overrides Overrides) Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.portions = ClampPortions(portions)
	w.overrides = Overrides{}
	for name, qty := range overrides {
		if strings.TrimSpace(name) != "" && qty >= 0 {
			w.overrides[name] = qty
		}
	}
	return w.recompute()
}

func (w *Worksheet) recompute() Result {
	started := time.Now()
	w.result = w.engine.Compute(w.item, w.portions, w.registry, w.recipes, w.overrides)
	if w.observe != nil {
		w.observe(w.result, time.Since(started))
	}
	return w.result
}

func copyStore(src RecipeStore) RecipeStore {
	dst := make(RecipeStore, len(src))
	for id, recipe := range src {
		dst[id] = recipe
	}
	return dst
}
