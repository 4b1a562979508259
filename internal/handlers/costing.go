package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pxi/internal/costing"
	applog "pxi/internal/log"
	"pxi/internal/views/pages"
)

type costingRequest struct {
	ItemID    uint               `json:"item_id"`
	Portions  int                `json:"portions"`
	Overrides map[string]float64 `json:"overrides"`
}

type costingLineResponse struct {
	IngredientName string  `json:"ingredient_name"`
	QtyRequired    float64 `json:"qty_required"`
	Unit           string  `json:"unit"`
	UnitCostCents  int64           `json:"unit_cost_cents"`
	Cost           decimal.Decimal `json:"cost"`
	TotalCostCents int64           `json:"total_cost_cents"`
	IsGrounded     bool            `json:"is_grounded"`
	HasError       bool            `json:"has_error"`
	Problem        string          `json:"problem,omitempty"`
	SubRecipe      string          `json:"sub_recipe"`
}

type costingGroupResponse struct {
	Label string                `json:"label"`
	Lines []costingLineResponse `json:"lines"`
}

type aggregateRowResponse struct {
	IngredientName string   `json:"ingredient_name"`
	Quantity       float64  `json:"quantity"`
	Unit           string   `json:"unit"`
	TotalCostCents int64    `json:"total_cost_cents"`
	LineCount      int      `json:"line_count"`
	HasError       bool     `json:"has_error"`
	MixedUnits     bool     `json:"mixed_units,omitempty"`
	Groups         []string `json:"groups"`
}

type costingResponse struct {
	ItemID                   uint                   `json:"item_id"`
	ItemName                 string                 `json:"item_name"`
	Portions                 int                    `json:"portions"`
	Currency                 string                 `json:"currency"`
	Lines                    []costingLineResponse  `json:"lines"`
	TotalIngredientCost      decimal.Decimal        `json:"total_ingredient_cost"`
	TotalIngredientCostCents int64                  `json:"total_ingredient_cost_cents"`
	PortionCostCents         int64                  `json:"portion_cost_cents"`
	RevenueCents             int64                  `json:"revenue_cents"`
	GrossMarginPercentage    float64                `json:"gross_margin_percentage"`
	Fallback                 bool                   `json:"fallback"`
	RecipeMissing            bool                   `json:"recipe_missing"`
	ErrorCount               int                    `json:"error_count"`
	Warning                  bool                   `json:"warning"`
	Groups                   []costingGroupResponse `json:"groups"`
	Aggregate                []aggregateRowResponse `json:"aggregate"`
}

// CostingAPI computes a breakdown for one item and returns it with the
// grouped and aggregated views.
func CostingAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	svc := costingEngine()
	if svc == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var payload costingRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid costing payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.ItemID == 0 {
		writeJSONError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	result, err := svc.Cost(r.Context(), userID, payload.ItemID, costing.ClampPortions(payload.Portions), payload.Overrides)
	if err != nil {
		if !errors.Is(err, costing.ErrItemNotFound) {
			applog.Error(r.Context(), "costing run failed", "error", err, "item", payload.ItemID)
		}
		status, message := storeStatus(err, "item")
		writeJSONError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, projectCosting(result))
}

func projectCosting(result costing.Result) costingResponse {
	response := costingResponse{
		ItemID:                   result.ItemID,
		ItemName:                 result.ItemName,
		Portions:                 result.Portions,
		Currency:                 currency,
		Lines:                    projectLines(result.Lines),
		TotalIngredientCost:      result.TotalIngredientCost,
		TotalIngredientCostCents: result.TotalIngredientCostCents,
		PortionCostCents:         result.PortionCostCents(),
		RevenueCents:             result.RevenueCents,
		GrossMarginPercentage:    result.GrossMarginPercentage,
		Fallback:                 result.Fallback,
		RecipeMissing:            result.RecipeMissing,
		ErrorCount:               result.ErrorCount(),
		Warning:                  result.HasWarnings(),
	}
	for _, group := range costing.GroupBySubRecipe(result.Lines, result.ItemName) {
		response.Groups = append(response.Groups, costingGroupResponse{Label: group.Label, Lines: projectLines(group.Lines)})
	}
	response.Aggregate = projectAggregate(costing.AggregateByName(result.Lines))
	return response
}

func projectLines(lines []costing.Line) []costingLineResponse {
	out := make([]costingLineResponse, 0, len(lines))
	for _, line := range lines {
		out = append(out, costingLineResponse{
			IngredientName: line.IngredientName,
			QtyRequired:    line.QtyRequired,
			Unit:           line.Unit,
			UnitCostCents:  line.UnitCostCents,
			Cost:           line.Cost,
			TotalCostCents: line.TotalCostCents,
			IsGrounded:     line.IsGrounded,
			HasError:       line.HasError,
			Problem:        line.Problem.String(),
			SubRecipe:      line.SubRecipe,
		})
	}
	return out
}

func projectAggregate(rows []costing.AggregateRow) []aggregateRowResponse {
	out := make([]aggregateRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, aggregateRowResponse{
			IngredientName: row.IngredientName,
			Quantity:       row.Quantity,
			Unit:           row.Unit,
			TotalCostCents: row.TotalCostCents,
			LineCount:      row.LineCount,
			HasError:       row.HasError,
			MixedUnits:     row.MixedUnits,
			Groups:         row.Groups,
		})
	}
	return out
}

// CostingWorksheet renders the interactive worksheet. Every submission
// recomputes the whole breakdown from the current portions and overrides.
func CostingWorksheet(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodPost:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := currentUserID(r)
	if !ok {
		redirectToLogin(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid submission.", http.StatusBadRequest)
		return
	}

	view := buildCostingView(r.Context(), userID, parseUint(r.FormValue("item_id")), parsePortions(r.FormValue("portions")), overridesFromForm(r))
	if view.Result != nil {
		trigger(w, r, eventCostingUpdated)
	}
	renderPage(w, r, pages.CostingPage(view), pages.CostingPanel(view))
}

// buildCostingView loads the item list and, when an item is selected, runs
// the engine for it.
func buildCostingView(ctx context.Context, userID, itemID uint, portions int, overrides costing.Overrides) pages.CostingView {
	view := pages.CostingView{Currency: currency, Portions: portions, Overrides: overrides}
	st := dataStore()
	svc := costingEngine()
	if st == nil || svc == nil {
		view.Error = "Costing is unavailable because no database connection is configured."
		return view
	}

	items, err := st.Items(ctx, userID)
	if err != nil {
		applog.Error(ctx, "failed to load items for worksheet", "error", err)
		view.Error = "We couldn't load your menu items. Please try again."
		return view
	}
	view.Items = items
	if itemID == 0 {
		if len(items) == 0 {
			view.Message = "Create a menu item to start costing."
			return view
		}
		itemID = items[0].ID
	}
	view.ItemID = itemID
	if item := pages.FindItem(items, itemID); item != nil {
		view.RecipeID = item.RecipeID
	}

	ws, registry, err := svc.OpenWorksheet(ctx, userID, itemID)
	if err != nil {
		status, _ := storeStatus(err, "item")
		if status == http.StatusNotFound {
			view.Error = "The selected item no longer exists."
		} else {
			applog.Error(ctx, "worksheet costing failed", "error", err, "item", itemID)
			view.Error = "We couldn't cost this item. Please try again."
		}
		return view
	}
	result := ws.Apply(portions, overrides)
	view.Result = &result
	view.Collisions = registry.Collisions()
	view.Groups = costing.GroupBySubRecipe(result.Lines, result.ItemName)
	view.Aggregate = costing.AggregateByName(result.Lines)
	return view
}

func parsePortions(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return costing.MaxPortions
	}
	if err != nil {
		return 1
	}
	return costing.ClampPortions(n)
}

// overridesFromForm collects non-empty override fields. Blank fields mean
// "use the recipe quantity".
func overridesFromForm(r *http.Request) costing.Overrides {
	overrides := costing.Overrides{}
	for key, values := range r.Form {
		name, ok := strings.CutPrefix(key, pages.OverrideFieldPrefix)
		if !ok || strings.TrimSpace(name) == "" || len(values) == 0 {
			continue
		}
		raw := strings.TrimSpace(values[len(values)-1])
		if raw == "" {
			continue
		}
		qty, err := strconv.ParseFloat(raw, 64)
		if err != nil || qty < 0 {
			continue
		}
		overrides[name] = qty
	}
	if len(overrides) == 0 {
		return nil
	}
	return overrides
}
