package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	applog "pxi/internal/log"
	"pxi/models"
)

type itemRequest struct {
	Name           string `json:"name"`
	PriceCents     int64  `json:"price_cents"`
	CostPriceCents int64  `json:"cost_price_cents"`
	RecipeID       *uint  `json:"recipe_id"`
}

type itemResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	PriceCents     int64     `json:"price_cents"`
	CostPriceCents int64     `json:"cost_price_cents"`
	RecipeID       *uint     `json:"recipe_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ItemResource handles CRUD interactions for sellable items.
func ItemResource(w http.ResponseWriter, r *http.Request) {
	st := dataStore()
	if st == nil {
		applog.Debug(r.Context(), "item request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "item request without authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, action, ok := resourcePath(r, "/app/api/items")
	if !ok || action != "" {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	if id == 0 {
		switch r.Method {
		case http.MethodGet:
			records, err := st.Items(ctx, userID)
			if err != nil {
				applog.Error(ctx, "failed to list items", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "unable to load items")
				return
			}
			responses := make([]itemResponse, 0, len(records))
			for _, record := range records {
				responses = append(responses, projectItem(record))
			}
			writeJSON(w, http.StatusOK, responses)
		case http.MethodPost:
			record, ok := decodeItem(w, r)
			if !ok {
				return
			}
			if err := st.CreateItem(ctx, userID, &record); err != nil {
				applog.Debug(ctx, "item create failed", "user", userID, "error", err)
				status, message := storeStatus(err, "recipe")
				writeJSONError(w, status, message)
				return
			}
			writeJSON(w, http.StatusCreated, projectItem(record))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		record, err := st.Item(ctx, userID, id)
		if err != nil {
			status, message := storeStatus(err, "item")
			writeJSONError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, projectItem(record))
	case http.MethodPut:
		record, ok := decodeItem(w, r)
		if !ok {
			return
		}
		record.ID = id
		if err := st.UpdateItem(ctx, userID, &record); err != nil {
			applog.Debug(ctx, "item update failed", "id", id, "user", userID, "error", err)
			status, message := storeStatus(err, "item")
			writeJSONError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, projectItem(record))
	case http.MethodDelete:
		if err := st.DeleteItem(ctx, userID, id); err != nil {
			status, message := storeStatus(err, "item")
			writeJSONError(w, status, message)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func decodeItem(w http.ResponseWriter, r *http.Request) (models.Item, bool) {
	var payload itemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid item payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return models.Item{}, false
	}
	if err := validateItemPayload(payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return models.Item{}, false
	}
	recipeID := payload.RecipeID
	if recipeID != nil && *recipeID == 0 {
		recipeID = nil
	}
	return models.Item{
		Name:           payload.Name,
		PriceCents:     payload.PriceCents,
		CostPriceCents: payload.CostPriceCents,
		RecipeID:       recipeID,
	}, true
}

func validateItemPayload(payload itemRequest) error {
	if strings.TrimSpace(payload.Name) == "" {
		return errors.New("name is required")
	}
	if payload.PriceCents < 0 || payload.CostPriceCents < 0 {
		return errors.New("prices must not be negative")
	}
	return nil
}

func projectItem(record models.Item) itemResponse {
	return itemResponse{
		ID:             record.ID,
		Name:           record.Name,
		PriceCents:     record.PriceCents,
		CostPriceCents: record.CostPriceCents,
		RecipeID:       record.RecipeID,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}
