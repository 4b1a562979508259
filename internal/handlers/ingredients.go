package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	applog "pxi/internal/log"
	"pxi/models"
)

type ingredientResponse struct {
	ID               uint       `json:"id"`
	Name             string     `json:"name"`
	Unit             string     `json:"unit"`
	CurrentCostCents int64      `json:"current_cost_cents"`
	MarketPriceCents *int64     `json:"market_price_cents,omitempty"`
	MarketSummary    string     `json:"market_summary,omitempty"`
	MarketSources    []string   `json:"market_sources,omitempty"`
	MarketSurveyedAt *time.Time `json:"market_surveyed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type ingredientRequest struct {
	Name             string `json:"name"`
	Unit             string `json:"unit"`
	CurrentCostCents int64  `json:"current_cost_cents"`
}

// IngredientResource handles REST-style interactions for the ingredient registry.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	st := dataStore()
	if st == nil {
		applog.Debug(r.Context(), "ingredient request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "ingredient request missing authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, action, ok := resourcePath(r, "/app/api/ingredients")
	if !ok {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	if id == 0 {
		switch r.Method {
		case http.MethodGet:
			records, err := st.Ingredients(ctx, userID)
			if err != nil {
				applog.Error(ctx, "failed to list ingredients", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "unable to load ingredients")
				return
			}
			responses := make([]ingredientResponse, 0, len(records))
			for _, record := range records {
				responses = append(responses, projectIngredient(record))
			}
			writeJSON(w, http.StatusOK, responses)
		case http.MethodPost:
			payload, ok := decodeIngredient(w, r)
			if !ok {
				return
			}
			record := models.Ingredient{Name: payload.Name, Unit: payload.Unit, CurrentCostCents: payload.CurrentCostCents}
			if err := st.CreateIngredient(ctx, userID, &record); err != nil {
				applog.Error(ctx, "failed to create ingredient", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "unable to create ingredient")
				return
			}
			writeJSON(w, http.StatusCreated, projectIngredient(record))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if action == "market-price" {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := st.ClearMarketPrice(ctx, userID, id); err != nil {
			status, message := storeStatus(err, "ingredient")
			writeJSONError(w, status, message)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if action != "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		record, err := st.Ingredient(ctx, userID, id)
		if err != nil {
			status, message := storeStatus(err, "ingredient")
			writeJSONError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, projectIngredient(record))
	case http.MethodPut:
		payload, ok := decodeIngredient(w, r)
		if !ok {
			return
		}
		record := models.Ingredient{Name: payload.Name, Unit: payload.Unit, CurrentCostCents: payload.CurrentCostCents}
		record.ID = id
		if err := st.UpdateIngredient(ctx, userID, &record); err != nil {
			applog.Debug(ctx, "ingredient update failed", "id", id, "user", userID, "error", err)
			status, message := storeStatus(err, "ingredient")
			writeJSONError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, projectIngredient(record))
	case http.MethodDelete:
		if err := st.DeleteIngredient(ctx, userID, id); err != nil {
			status, message := storeStatus(err, "ingredient")
			writeJSONError(w, status, message)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func decodeIngredient(w http.ResponseWriter, r *http.Request) (ingredientRequest, bool) {
	var payload ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid ingredient payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return payload, false
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return payload, false
	}
	if payload.CurrentCostCents < 0 {
		writeJSONError(w, http.StatusBadRequest, "current_cost_cents must not be negative")
		return payload, false
	}
	return payload, true
}

func projectIngredient(record models.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:               record.ID,
		Name:             record.Name,
		Unit:             record.Unit,
		CurrentCostCents: record.CurrentCostCents,
		MarketPriceCents: record.MarketPriceCents,
		MarketSummary:    record.MarketSummary,
		MarketSources:    record.Sources(),
		MarketSurveyedAt: record.MarketSurveyedAt,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
}
