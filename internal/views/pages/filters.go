package pages

import (
	"net/http"
	"strings"

	"pxi/models"
)

// ItemFilters capture the client-driven state for item lookups.
type ItemFilters struct {
	Query string
}

// ItemFiltersFromRequest extracts filter inputs from an HTTP request.
func ItemFiltersFromRequest(r *http.Request) ItemFilters {
	filters := ItemFilters{}
	if err := r.ParseForm(); err != nil {
		return filters
	}
	filters.Query = strings.TrimSpace(r.FormValue("q"))
	return filters
}

// FilterItems applies the provided filters to a list of items.
func FilterItems(all []models.Item, filters ItemFilters) []models.Item {
	if filters.Query == "" {
		return all
	}
	query := strings.ToLower(filters.Query)
	filtered := make([]models.Item, 0, len(all))
	for _, item := range all {
		if strings.Contains(strings.ToLower(item.Name), query) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// FindItem returns the item matching the requested identifier.
func FindItem(all []models.Item, id uint) *models.Item {
	for i := range all {
		if all[i].ID == id {
			return &all[i]
		}
	}
	return nil
}
