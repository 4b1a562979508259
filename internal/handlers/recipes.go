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

type recipeLinePayload struct {
	IngredientName string  `json:"ingredient_name"`
	QtyPerPortion  float64 `json:"qty_per_portion"`
	Unit           string  `json:"unit"`
	SubRecipe      string  `json:"sub_recipe"`
}

type recipeRequest struct {
	Name  string              `json:"name"`
	Notes string              `json:"notes"`
	Lines []recipeLinePayload `json:"lines"`
}

type recipeResponse struct {
	ID        uint                `json:"id"`
	Name      string              `json:"name"`
	Notes     string              `json:"notes"`
	Lines     []recipeLinePayload `json:"lines"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// RecipeResource handles CRUD interactions for recipes. Lines are always
// replaced wholesale.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	st := dataStore()
	if st == nil {
		applog.Debug(r.Context(), "recipe request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "recipe request without authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, action, ok := resourcePath(r, "/app/api/recipes")
	if !ok || action != "" {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	if id == 0 {
		switch r.Method {
		case http.MethodGet:
			records, err := st.Recipes(ctx, userID)
			if err != nil {
				applog.Error(ctx, "failed to list recipes", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "unable to load recipes")
				return
			}
			responses := make([]recipeResponse, 0, len(records))
			for _, record := range records {
				responses = append(responses, projectRecipe(record))
			}
			writeJSON(w, http.StatusOK, responses)
		case http.MethodPost:
			record, ok := decodeRecipe(w, r)
			if !ok {
				return
			}
			if err := st.CreateRecipe(ctx, userID, &record); err != nil {
				applog.Error(ctx, "failed to create recipe", "error", err)
				status, message := storeStatus(err, "recipe")
				writeJSONError(w, status, message)
				return
			}
			writeJSON(w, http.StatusCreated, projectRecipe(record))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		record, err := st.Recipe(ctx, userID, id)
		if err != nil {
			status, message := storeStatus(err, "recipe")
			writeJSONError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, projectRecipe(record))
	case http.MethodPut:
		record, ok := decodeRecipe(w, r)
		if !ok {
			return
		}
		record.ID = id
		if err := st.UpdateRecipe(ctx, userID, &record); err != nil {
			applog.Debug(ctx, "recipe update failed", "id", id, "user", userID, "error", err)
			status, message := storeStatus(err, "recipe")
			writeJSONError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, projectRecipe(record))
	case http.MethodDelete:
		if err := st.DeleteRecipe(ctx, userID, id); err != nil {
			status, message := storeStatus(err, "recipe")
			writeJSONError(w, status, message)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func decodeRecipe(w http.ResponseWriter, r *http.Request) (models.Recipe, bool) {
	var payload recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid recipe payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return models.Recipe{}, false
	}
	if err := validateRecipePayload(payload); err != nil {
		applog.Debug(r.Context(), "recipe validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return models.Recipe{}, false
	}

	record := models.Recipe{Name: payload.Name, Notes: payload.Notes}
	for _, line := range payload.Lines {
		record.Lines = append(record.Lines, models.RecipeLine{
			IngredientName: line.IngredientName,
			QtyPerPortion:  line.QtyPerPortion,
			Unit:           line.Unit,
			SubRecipe:      line.SubRecipe,
		})
	}
	return record, true
}

func validateRecipePayload(payload recipeRequest) error {
	if strings.TrimSpace(payload.Name) == "" {
		return errors.New("name is required")
	}
	for _, line := range payload.Lines {
		if strings.TrimSpace(line.IngredientName) == "" {
			return errors.New("every line needs an ingredient_name")
		}
		if line.QtyPerPortion < 0 {
			return errors.New("qty_per_portion must not be negative")
		}
	}
	return nil
}

func projectRecipe(record models.Recipe) recipeResponse {
	response := recipeResponse{
		ID:        record.ID,
		Name:      record.Name,
		Notes:     record.Notes,
		Lines:     make([]recipeLinePayload, 0, len(record.Lines)),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	for _, line := range record.Lines {
		response.Lines = append(response.Lines, recipeLinePayload{
			IngredientName: line.IngredientName,
			QtyPerPortion:  line.QtyPerPortion,
			Unit:           line.Unit,
			SubRecipe:      line.SubRecipe,
		})
	}
	return response
}
