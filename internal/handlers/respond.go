package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	templpkg "github.com/a-h/templ"

	"pxi/internal/costing"
	applog "pxi/internal/log"
	"pxi/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func renderComponent(w http.ResponseWriter, r *http.Request, component templpkg.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render fragment", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// resourcePath strips prefix and splits the remainder into an optional id
// and an optional action, as in "/12/copy".
func resourcePath(r *http.Request, prefix string) (id uint, action string, ok bool) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if path == "" {
		return 0, "", true
	}
	head, rest, _ := strings.Cut(path, "/")
	value, err := strconv.ParseUint(head, 10, 64)
	if err != nil || value == 0 {
		return 0, "", false
	}
	return uint(value), rest, true
}

func parseUint(value string) uint {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return uint(parsed)
}

// storeStatus maps persistence errors to an HTTP status and a client message.
func storeStatus(err error, what string) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, costing.ErrItemNotFound),
		errors.Is(err, costing.ErrRecipeNotFound):
		return http.StatusNotFound, what + " not found"
	case errors.Is(err, store.ErrEmptyRecipe):
		return http.StatusBadRequest, "name is required"
	default:
		return http.StatusInternalServerError, "unable to process " + what
	}
}
