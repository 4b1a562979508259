package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"pxi/internal/costing"
	"pxi/internal/store"
	"pxi/models"
)

func postCosting(t *testing.T, req *http.Request) costingResponse {
	t.Helper()
	w := httptest.NewRecorder()
	CostingAPI(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var response costingResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode costing response: %v", err)
	}
	return response
}

func TestCostingAPIComputesBreakdown(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	k := seedKitchen(t, db, "owner@example.com")

	body, _ := json.Marshal(costingRequest{ItemID: k.jollof.ID, Portions: 100})
	req := authenticateRequest(t, sm, httptest.NewRequest(http.MethodPost, "/app/api/costing", bytes.NewReader(body)), k.owner.ID)
	response := postCosting(t, req)

	if response.TotalIngredientCostCents != 1300000 {
		t.Fatalf("expected total 1300000, got %d", response.TotalIngredientCostCents)
	}
	if !response.TotalIngredientCost.Equal(decimal.NewFromInt(1300000)) {
		t.Fatalf("expected exact total 1300000, got %s", response.TotalIngredientCost)
	}
	if response.RevenueCents != 200000 {
		t.Fatalf("expected revenue 200000, got %d", response.RevenueCents)
	}
	if response.GrossMarginPercentage != -550 {
		t.Fatalf("expected margin -550, got %v", response.GrossMarginPercentage)
	}
	if response.Warning || response.ErrorCount != 0 {
		t.Fatalf("expected no warnings, got %+v", response)
	}
	if len(response.Lines) != 2 || response.Lines[0].QtyRequired != 20 || response.Lines[1].TotalCostCents != 300000 {
		t.Fatalf("unexpected lines %+v", response.Lines)
	}
	if len(response.Groups) != 2 || response.Groups[0].Label != "Jollof Rice" || response.Groups[1].Label != "Sauce" {
		t.Fatalf("unexpected groups %+v", response.Groups)
	}
	if len(response.Aggregate) != 2 || response.Currency != "NGN" {
		t.Fatalf("unexpected aggregate %+v", response.Aggregate)
	}
}

func TestCostingAPIAppliesOverridesAndClampsPortions(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	k := seedKitchen(t, db, "owner@example.com")

	body, _ := json.Marshal(costingRequest{ItemID: k.jollof.ID, Portions: 100, Overrides: map[string]float64{"rice": 0.1}})
	req := authenticateRequest(t, sm, httptest.NewRequest(http.MethodPost, "/app/api/costing", bytes.NewReader(body)), k.owner.ID)
	if got := postCosting(t, req).TotalIngredientCostCents; got != 800000 {
		t.Fatalf("expected override to reduce total to 800000, got %d", got)
	}

	body, _ = json.Marshal(costingRequest{ItemID: k.jollof.ID, Portions: -4})
	req = authenticateRequest(t, sm, httptest.NewRequest(http.MethodPost, "/app/api/costing", bytes.NewReader(body)), k.owner.ID)
	response := postCosting(t, req)
	if response.Portions != 1 || response.TotalIngredientCostCents != 13000 {
		t.Fatalf("expected portions clamped to 1, got %+v", response)
	}

	body, _ = json.Marshal(costingRequest{ItemID: k.jollof.ID, Portions: costing.MaxPortions * 50})
	req = authenticateRequest(t, sm, httptest.NewRequest(http.MethodPost, "/app/api/costing", bytes.NewReader(body)), k.owner.ID)
	response = postCosting(t, req)
	if response.Portions != costing.MaxPortions || response.RevenueCents != 2000*int64(costing.MaxPortions) {
		t.Fatalf("expected portions capped at %d, got %+v", costing.MaxPortions, response)
	}
}

func TestCostingAPIReportsSubCentCosts(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	owner := seedUser(t, db, "owner@example.com")
	salt := models.Ingredient{OwnerID: owner.ID, Name: "Salt", Unit: "kg", CurrentCostCents: 100}
	if err := db.Create(&salt).Error; err != nil {
		t.Fatalf("failed to seed salt: %v", err)
	}
	recipe := models.Recipe{OwnerID: owner.ID, Name: "Broth", Lines: []models.RecipeLine{{IngredientName: "Salt", QtyPerPortion: 0.003, Unit: "kg"}}}
	if err := db.Create(&recipe).Error; err != nil {
		t.Fatalf("failed to seed recipe: %v", err)
	}
	item := models.Item{OwnerID: owner.ID, Name: "Broth", PriceCents: 500, RecipeID: &recipe.ID}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("failed to seed item: %v", err)
	}

	totals := map[int]decimal.Decimal{}
	for _, portions := range []int{1, 10} {
		body, _ := json.Marshal(costingRequest{ItemID: item.ID, Portions: portions})
		req := authenticateRequest(t, sm, httptest.NewRequest(http.MethodPost, "/app/api/costing", bytes.NewReader(body)), owner.ID)
		totals[portions] = postCosting(t, req).TotalIngredientCost
	}
	if !totals[10].Equal(totals[1].Mul(decimal.NewFromInt(10))) {
		t.Fatalf("expected total for 10 portions to be ten times one portion, got %s and %s", totals[1], totals[10])
	}
	if !totals[1].Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("expected sub-cent total 0.3, got %s", totals[1])
	}
}

func TestCostingAPIFlagsUnresolvedLines(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	k := seedKitchen(t, db, "owner@example.com")
	if err := db.Delete(&k.tomato).Error; err != nil {
		t.Fatalf("failed to delete tomato: %v", err)
	}

	body, _ := json.Marshal(costingRequest{ItemID: k.jollof.ID, Portions: 100})
	req := authenticateRequest(t, sm, httptest.NewRequest(http.MethodPost, "/app/api/costing", bytes.NewReader(body)), k.owner.ID)
	response := postCosting(t, req)

	if !response.Warning || response.ErrorCount != 1 {
		t.Fatalf("expected one flagged line, got %+v", response)
	}
	if response.Lines[1].Problem != "unresolved" || !response.Lines[1].HasError {
		t.Fatalf("expected tomato to be unresolved, got %+v", response.Lines[1])
	}
	if response.TotalIngredientCostCents != 1000000 {
		t.Fatalf("expected total to exclude unresolved line, got %d", response.TotalIngredientCostCents)
	}
}

func TestCostingAPIErrors(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	k := seedKitchen(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")

	body, _ := json.Marshal(costingRequest{ItemID: k.jollof.ID, Portions: 10})
	req := authenticateRequest(t, sm, httptest.NewRequest(http.MethodPost, "/app/api/costing", bytes.NewReader(body)), other.ID)
	w := httptest.NewRecorder()
	CostingAPI(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for another tenant's item, got %d", w.Code)
	}

	req = authenticateRequest(t, sm, httptest.NewRequest(http.MethodPost, "/app/api/costing", bytes.NewBufferString(`{"portions":3}`)), k.owner.ID)
	w = httptest.NewRecorder()
	CostingAPI(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without item id, got %d", w.Code)
	}

	req = authenticateRequest(t, sm, httptest.NewRequest(http.MethodGet, "/app/api/costing", nil), k.owner.ID)
	w = httptest.NewRecorder()
	CostingAPI(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", w.Code)
	}
}

func TestConfiguredCostingServiceRecordsMetrics(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	originalService, originalCurrency := costingService, currency
	t.Cleanup(func() {
		costingService, currency = originalService, originalCurrency
	})

	reg := prometheus.NewRegistry()
	st := store.New(db)
	ConfigureCosting(costing.NewService(st, st, st, costing.Engine{}, costing.NewMetrics(reg)), "ghs")

	k := seedKitchen(t, db, "owner@example.com")
	body, _ := json.Marshal(costingRequest{ItemID: k.zobo.ID, Portions: 10})
	req := authenticateRequest(t, sm, httptest.NewRequest(http.MethodPost, "/app/api/costing", bytes.NewReader(body)), k.owner.ID)
	response := postCosting(t, req)

	if !response.Fallback || response.TotalIngredientCostCents != 240000 {
		t.Fatalf("expected fallback total of 240000, got %+v", response)
	}
	if response.Currency != "GHS" {
		t.Fatalf("expected configured currency, got %q", response.Currency)
	}
	if count := testutil.CollectAndCount(reg, "pxi_costing_runs_total"); count != 1 {
		t.Fatalf("expected one runs series, got %d", count)
	}
}

func TestCostingWorksheetRendersAndRecomputes(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	k := seedKitchen(t, db, "owner@example.com")

	req := authenticateRequest(t, sm, httptest.NewRequest(http.MethodGet, "/app/costing", nil), k.owner.ID)
	w := httptest.NewRecorder()
	CostingWorksheet(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<!DOCTYPE html>") || !strings.Contains(w.Body.String(), "Jollof Rice") {
		t.Fatalf("expected full worksheet page: %s", w.Body.String())
	}

	form := url.Values{}
	form.Set("item_id", fmtUint(k.jollof.ID))
	form.Set("portions", "100")
	form.Set("override.Rice", "0.1")
	form.Set("override.Tomato", "")
	req = httptest.NewRequest(http.MethodPost, "/app/costing", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	req = authenticateRequest(t, sm, req, k.owner.ID)
	w = httptest.NewRecorder()
	CostingWorksheet(w, req)

	out := w.Body.String()
	if strings.Contains(out, "<!DOCTYPE html>") {
		t.Fatalf("expected HTMX fragment only: %s", out)
	}
	if !strings.Contains(out, "NGN 8,000.00") {
		t.Fatalf("expected recomputed total with override: %s", out)
	}
	if !strings.Contains(out, `name="override.Rice" min="0" step="any" value="0.1"`) {
		t.Fatalf("expected override value to be kept in the form: %s", out)
	}
	if !strings.Contains(out, `name="recipe_id"`) {
		t.Fatalf("expected grounding form for recipe-backed item: %s", out)
	}
}

func TestCostingWorksheetWarnsAboutNameCollisions(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	k := seedKitchen(t, db, "owner@example.com")
	duplicate := models.Ingredient{OwnerID: k.owner.ID, Name: " RICE ", Unit: "kg", CurrentCostCents: 1}
	if err := db.Create(&duplicate).Error; err != nil {
		t.Fatalf("failed to seed duplicate rice: %v", err)
	}

	form := url.Values{}
	form.Set("item_id", fmtUint(k.jollof.ID))
	form.Set("portions", "100")
	req := httptest.NewRequest(http.MethodPost, "/app/costing", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	req = authenticateRequest(t, sm, req, k.owner.ID)
	w := httptest.NewRecorder()
	CostingWorksheet(w, req)

	out := w.Body.String()
	if !strings.Contains(out, "share one name") {
		t.Fatalf("expected a collision warning: %s", out)
	}
	// the first stored Rice keeps its price
	if !strings.Contains(out, "NGN 13,000.00") {
		t.Fatalf("expected the original rice price to be used: %s", out)
	}
}

func TestCostingWorksheetRequiresSession(t *testing.T) {
	_, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	req := httptest.NewRequest(http.MethodGet, "/app/costing", nil)
	w := httptest.NewRecorder()
	CostingWorksheet(w, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to login, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestOverridesFromForm(t *testing.T) {
	t.Parallel()

	form := url.Values{}
	form.Set("override.Rice", "0.15")
	form.Set("override.Tomato", " ")
	form.Set("override.Onion", "-1")
	form.Set("override.Salt", "abc")
	form.Set("portions", "10")
	req := httptest.NewRequest(http.MethodPost, "/app/costing", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := req.ParseForm(); err != nil {
		t.Fatalf("parse form: %v", err)
	}

	overrides := overridesFromForm(req)
	if len(overrides) != 1 || overrides["Rice"] != 0.15 {
		t.Fatalf("expected only the rice override, got %v", overrides)
	}

	if got := parsePortions("0"); got != 1 {
		t.Fatalf("expected portions to clamp to 1, got %d", got)
	}
	if got := parsePortions("x"); got != 1 {
		t.Fatalf("expected invalid portions to default to 1, got %d", got)
	}
	if got := parsePortions("2000000"); got != costing.MaxPortions {
		t.Fatalf("expected portions to cap at %d, got %d", costing.MaxPortions, got)
	}
	if got := parsePortions("99999999999999999999999"); got != costing.MaxPortions {
		t.Fatalf("expected out-of-range portions to cap at %d, got %d", costing.MaxPortions, got)
	}
}
