package handlers

import (
	"context"
	"strings"

	"pxi/internal/ai"
	"pxi/internal/costing"
	"pxi/internal/grounding"
	"pxi/internal/store"
)

// Grounder refreshes market prices for the ingredients of one recipe.
type Grounder interface {
	Ground(ctx context.Context, ownerID, recipeID uint) (grounding.Report, error)
}

// RecipeExtractor turns free text into a structured recipe.
type RecipeExtractor interface {
	ExtractRecipe(ctx context.Context, input ai.RecipeImportInput) (ai.RecipeImportResult, error)
}

const defaultCurrency = "NGN"

var (
	costingService  *costing.Service
	groundService   Grounder
	recipeExtractor RecipeExtractor
	currency        = defaultCurrency
)

// ConfigureCosting installs the costing service and the display currency.
// When svc is nil a service over the configured database is used.
func ConfigureCosting(svc *costing.Service, currencyCode string) {
	costingService = svc
	currency = strings.ToUpper(strings.TrimSpace(currencyCode))
	if currency == "" {
		currency = defaultCurrency
	}
}

// ConfigureGrounding installs the market price service used by the tools.
func ConfigureGrounding(g Grounder) {
	groundService = g
}

// ConfigureAI installs the OpenAI client used by the recipe import tool.
func ConfigureAI(client *ai.Client) {
	if client == nil {
		recipeExtractor = nil
		return
	}
	recipeExtractor = client
}

func dataStore() *store.Store {
	if database == nil {
		return nil
	}
	return store.New(database)
}

func costingEngine() *costing.Service {
	if costingService != nil {
		return costingService
	}
	st := dataStore()
	if st == nil {
		return nil
	}
	return costing.NewService(st, st, st, costing.Engine{}, nil)
}
