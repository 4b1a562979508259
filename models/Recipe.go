package models

import (
	"gorm.io/gorm"
)

type Recipe struct {
	gorm.Model
	Name    string       `gorm:"not null" json:"name"`
	Notes   string       `gorm:"type:text" json:"notes"`
	OwnerID uint         `gorm:"not null;index" json:"owner_id"`
	Lines   []RecipeLine `gorm:"foreignKey:RecipeID" json:"lines"`
}
