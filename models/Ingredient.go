package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Ingredient is a raw material in a tenant's registry. Names are not unique;
// the costing engine reports collisions instead of rejecting them.
type Ingredient struct {
	gorm.Model
	Name             string     `gorm:"not null;index" json:"name"`
	Unit             string     `gorm:"type:varchar(16);not null;default:kg" json:"unit"`
	CurrentCostCents int64      `gorm:"not null;default:0" json:"current_cost_cents"`
	MarketPriceCents *int64     `json:"market_price_cents,omitempty"`
	MarketSummary    string     `gorm:"type:text" json:"market_summary"`
	MarketSources    string     `gorm:"type:text" json:"-"`
	MarketSurveyedAt *time.Time `json:"market_surveyed_at,omitempty"`
	OwnerID          uint       `gorm:"not null;index" json:"owner_id"`
	Owner            *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// Sources returns the market survey provenance as a list.
func (i Ingredient) Sources() []string {
	if strings.TrimSpace(i.MarketSources) == "" {
		return nil
	}
	parts := strings.Split(i.MarketSources, "\n")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// SetSources stores the provenance list, dropping blanks.
func (i *Ingredient) SetSources(sources []string) {
	kept := make([]string, 0, len(sources))
	for _, source := range sources {
		if trimmed := strings.TrimSpace(source); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	i.MarketSources = strings.Join(kept, "\n")
}
