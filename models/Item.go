package models

import (
	"gorm.io/gorm"
)

// Item is a sellable menu product.
type Item struct {
	gorm.Model
	Name           string  `gorm:"not null" json:"name"`
	PriceCents     int64   `gorm:"not null;default:0" json:"price_cents"`
	CostPriceCents int64   `gorm:"not null;default:0" json:"cost_price_cents"`
	RecipeID       *uint   `json:"recipe_id,omitempty"`
	Recipe         *Recipe `gorm:"foreignKey:RecipeID" json:"recipe,omitempty"`
	OwnerID        uint    `gorm:"not null;index" json:"owner_id"`
}
