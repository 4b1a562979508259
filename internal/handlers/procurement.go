package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"pxi/internal/costing"
	applog "pxi/internal/log"
	"pxi/internal/views/pages"
)

type procurementRequest struct {
	Items []struct {
		ItemID   uint `json:"item_id"`
		Portions int  `json:"portions"`
	} `json:"items"`
}

type procurementItemResponse struct {
	ItemID                   uint    `json:"item_id"`
	ItemName                 string  `json:"item_name"`
	Portions                 int     `json:"portions"`
	TotalIngredientCostCents int64   `json:"total_ingredient_cost_cents"`
	RevenueCents             int64   `json:"revenue_cents"`
	GrossMarginPercentage    float64 `json:"gross_margin_percentage"`
	Fallback                 bool    `json:"fallback"`
	ErrorCount               int     `json:"error_count"`
}

type procurementResponse struct {
	LotNumber                string                    `json:"lot_number"`
	RunDate                  time.Time                 `json:"run_date"`
	Currency                 string                    `json:"currency"`
	Items                    []procurementItemResponse `json:"items"`
	Rows                     []aggregateRowResponse    `json:"rows"`
	TotalIngredientCostCents int64                     `json:"total_ingredient_cost_cents"`
	RevenueCents             int64                     `json:"revenue_cents"`
	GrossMarginPercentage    float64                   `json:"gross_margin_percentage"`
	WarningCount             int                       `json:"warning_count"`
}

// ProcurementAPI builds a consolidated Bill of Quantities across items.
func ProcurementAPI(w http.ResponseWriter, r *http.Request) {
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

	var payload procurementRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid procurement payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	requests := make([]costing.ProcurementRequest, 0, len(payload.Items))
	for _, entry := range payload.Items {
		requests = append(requests, costing.ProcurementRequest{ItemID: entry.ItemID, Portions: costing.ClampPortions(entry.Portions)})
	}

	report, err := svc.ProcurementReport(r.Context(), userID, requests)
	if err != nil {
		if errors.Is(err, costing.ErrEmptyRequest) {
			writeJSONError(w, http.StatusBadRequest, "items are required")
			return
		}
		status, message := storeStatus(err, "item")
		if status == http.StatusInternalServerError {
			applog.Error(r.Context(), "failed to build procurement report", "error", err)
		}
		writeJSONError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, projectProcurement(report))
}

func projectProcurement(report costing.ProcurementReport) procurementResponse {
	response := procurementResponse{
		LotNumber:                report.LotNumber,
		RunDate:                  report.RunDate,
		Currency:                 currency,
		Items:                    make([]procurementItemResponse, 0, len(report.Items)),
		Rows:                     projectAggregate(report.Rows),
		TotalIngredientCostCents: report.TotalIngredientCostCents,
		RevenueCents:             report.RevenueCents,
		GrossMarginPercentage:    report.GrossMarginPercentage,
		WarningCount:             report.WarningCount,
	}
	for _, item := range report.Items {
		response.Items = append(response.Items, procurementItemResponse(item))
	}
	return response
}

// Procurement renders the report form and, on submission, the report.
func Procurement(w http.ResponseWriter, r *http.Request) {
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

	view := buildProcurementView(r.Context(), userID, r)
	renderPage(w, r, pages.ProcurementPage(view), pages.ProcurementPanel(view))
}

func buildProcurementView(ctx context.Context, userID uint, r *http.Request) pages.ProcurementView {
	view := pages.ProcurementView{Currency: currency, Portions: portionsFromForm(r)}
	st := dataStore()
	svc := costingEngine()
	if st == nil || svc == nil {
		view.Error = "Reporting is unavailable because no database connection is configured."
		return view
	}
	items, err := st.Items(ctx, userID)
	if err != nil {
		applog.Error(ctx, "failed to load items for procurement", "error", err)
		view.Error = "We couldn't load your menu items. Please try again."
		return view
	}
	view.Items = items
	if r.Method != http.MethodPost {
		return view
	}

	ids := make([]uint, 0, len(view.Portions))
	for id := range view.Portions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	requests := make([]costing.ProcurementRequest, 0, len(ids))
	for _, id := range ids {
		requests = append(requests, costing.ProcurementRequest{ItemID: id, Portions: view.Portions[id]})
	}

	report, err := svc.ProcurementReport(ctx, userID, requests)
	switch {
	case err == nil:
		view.Report = &report
	case errors.Is(err, costing.ErrEmptyRequest):
		view.Error = "Enter portions for at least one item."
	default:
		if status, _ := storeStatus(err, "item"); status == http.StatusNotFound {
			view.Error = "One of the selected items no longer exists."
		} else {
			applog.Error(ctx, "failed to build procurement report", "error", err)
			view.Error = "We were unable to generate the report. Please try again."
		}
	}
	return view
}

// portionsFromForm collects positive portion counts keyed by item id.
func portionsFromForm(r *http.Request) map[uint]int {
	portions := make(map[uint]int)
	for key, values := range r.Form {
		raw, ok := strings.CutPrefix(key, pages.PortionsFieldPrefix)
		if !ok || len(values) == 0 {
			continue
		}
		id := parseUint(raw)
		n := parseUint(values[len(values)-1])
		if id == 0 || n == 0 {
			continue
		}
		portions[id] = int(n)
	}
	return portions
}
