package models

import (
	"gorm.io/gorm"
)

type RecipeLine struct {
	gorm.Model
	RecipeID uint `gorm:"not null;index" json:"recipe_id"` // Parent Recipe
	Position int  `gorm:"not null;default:0" json:"position"`

	// Matched against the ingredient registry by trimmed, lower-cased name.
	IngredientName string  `gorm:"not null" json:"ingredient_name"`
	QtyPerPortion  float64 `gorm:"not null" json:"qty_per_portion"`
	Unit           string  `gorm:"type:varchar(16)" json:"unit"`

	// Display-only section label such as "Sauce". Empty means top level.
	SubRecipe string `json:"sub_recipe"`
}
