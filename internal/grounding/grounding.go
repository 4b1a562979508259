// Package grounding refreshes ingredient prices from an AI market survey.
package grounding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pxi/internal/ai"
	"pxi/internal/costing"
	applog "pxi/internal/log"
	"pxi/internal/store"
)

// ErrNothingToGround is returned when the recipe has no ingredient lines.
var ErrNothingToGround = errors.New("grounding: recipe has no ingredients")

// PriceFetcher performs one market survey for a list of names.
type PriceFetcher interface {
	FetchMarketPrices(ctx context.Context, names []string, opts ai.FetchOptions) ([]ai.PriceQuote, error)
}

// PriceStore reads the registry and persists survey results.
type PriceStore interface {
	ListIngredients(ctx context.Context, ownerID uint) ([]costing.Ingredient, error)
	ApplyMarketPrices(ctx context.Context, ownerID uint, prices []store.MarketPrice, surveyedAt time.Time) error
}

// Options tunes every survey the service runs.
type Options struct {
	Currency string
	Region   string
}

// Service grounds the ingredients of one recipe per call.
type Service struct {
	fetcher PriceFetcher
	recipes costing.RecipeRepository
	prices  PriceStore
	opts    Options
	metrics *Metrics
	now     func() time.Time
}

// NewService wires a fetcher to the stores. metrics may be nil.
func NewService(fetcher PriceFetcher, recipes costing.RecipeRepository, prices PriceStore, opts Options, metrics *Metrics) *Service {
	return &Service{
		fetcher: fetcher,
		recipes: recipes,
		prices:  prices,
		opts:    opts,
		metrics: metrics,
		now:     time.Now,
	}
}

// Applied is one stored price.
type Applied struct {
	IngredientName string
	PriceCents     int64
	Unit           string
}

// Report summarises one grounding run.
type Report struct {
	RecipeID   uint
	SurveyedAt time.Time
	Applied    []Applied
	// Unmatched lists quoted names with no registry entry.
	Unmatched []string
	// Incompatible lists quotes whose unit cannot be converted to the stock unit.
	Incompatible []string
	// Unpriced lists requested names the survey returned nothing for.
	Unpriced []string
}

// Ground surveys every ingredient named by the recipe in a single request
// and stores the returned prices. When the request fails no price is changed.
func (s *Service) Ground(ctx context.Context, ownerID, recipeID uint) (Report, error) {
	recipe, err := s.recipes.FindRecipe(ctx, ownerID, recipeID)
	if err != nil {
		return Report{}, err
	}

	names := recipeNames(recipe)
	if len(names) == 0 {
		return Report{}, ErrNothingToGround
	}

	applog.Debug(ctx, "requesting market prices", "recipe", recipeID, "ingredients", len(names))
	quotes, err := s.fetcher.FetchMarketPrices(ctx, names, ai.FetchOptions{Currency: s.opts.Currency, Region: s.opts.Region})
	if err != nil {
		s.metrics.observe(outcomeFailed, 0)
		return Report{}, fmt.Errorf("fetch market prices: %w", err)
	}

	ingredients, err := s.prices.ListIngredients(ctx, ownerID)
	if err != nil {
		s.metrics.observe(outcomeFailed, 0)
		return Report{}, fmt.Errorf("load ingredients: %w", err)
	}

	report := Report{RecipeID: recipeID, SurveyedAt: s.now().UTC()}
	updates, quoted := merge(costing.NewRegistry(ingredients), quotes, &report)
	for _, name := range names {
		if _, ok := quoted[costing.NormalizeName(name)]; !ok {
			report.Unpriced = append(report.Unpriced, name)
		}
	}

	if err := s.prices.ApplyMarketPrices(ctx, ownerID, updates, report.SurveyedAt); err != nil {
		s.metrics.observe(outcomeFailed, 0)
		return Report{}, fmt.Errorf("store market prices: %w", err)
	}

	s.metrics.observe(outcomeApplied, len(updates))
	applog.Info(ctx, "market prices grounded",
		"recipe", recipeID,
		"applied", len(report.Applied),
		"unmatched", len(report.Unmatched),
		"unpriced", len(report.Unpriced),
	)
	return report, nil
}

// merge matches quotes to registry entries by normalized name and converts
// their price into the stock unit. The last quote for a name wins.
func merge(registry *costing.Registry, quotes []ai.PriceQuote, report *Report) ([]store.MarketPrice, map[string]struct{}) {
	quoted := make(map[string]struct{}, len(quotes))
	byID := make(map[uint]int)
	var updates []store.MarketPrice

	for _, quote := range quotes {
		quoted[costing.NormalizeName(quote.IngredientName)] = struct{}{}

		ingredient, ok := registry.Lookup(quote.IngredientName)
		if !ok {
			report.Unmatched = append(report.Unmatched, quote.IngredientName)
			continue
		}
		price, ok := costing.ConvertUnitPrice(quote.PriceCents, quote.Unit, ingredient.Unit)
		if !ok {
			report.Incompatible = append(report.Incompatible, quote.IngredientName)
			continue
		}

		update := store.MarketPrice{
			IngredientID: ingredient.ID,
			PriceCents:   price,
			Summary:      quote.Summary,
			Sources:      quote.Sources,
		}
		applied := Applied{IngredientName: ingredient.Name, PriceCents: price, Unit: ingredient.Unit}
		if pos, seen := byID[ingredient.ID]; seen {
			updates[pos] = update
			report.Applied[pos] = applied
			continue
		}
		byID[ingredient.ID] = len(updates)
		updates = append(updates, update)
		report.Applied = append(report.Applied, applied)
	}
	return updates, quoted
}

func recipeNames(recipe costing.Recipe) []string {
	seen := make(map[string]struct{}, len(recipe.Lines))
	names := make([]string, 0, len(recipe.Lines))
	for _, line := range recipe.Lines {
		key := costing.NormalizeName(line.IngredientName)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, line.IngredientName)
	}
	return names
}

const (
	outcomeApplied = "applied"
	outcomeFailed  = "failed"
)

// Metrics counts grounding runs. A nil *Metrics records nothing.
type Metrics struct {
	runs   *prometheus.CounterVec
	prices prometheus.Counter
}

// NewMetrics builds the grounding collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pxi_grounding_runs_total",
			Help: "Market price grounding runs by outcome",
		}, []string{"outcome"}),
		prices: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pxi_grounding_prices_applied_total",
			Help: "Ingredient prices updated from market surveys",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.prices)
	}
	return m
}

func (m *Metrics) observe(outcome string, applied int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.prices.Add(float64(applied))
}
