package models

import (
	"strings"

	"gorm.io/gorm"
)

// User represents a workspace owner. Every ingredient, recipe and item is
// scoped to the user that created it.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string
}

// NormalizeEmail lower-cases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
