package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"pxi/internal/costing"
	"pxi/models"
)

// ErrEmptyRecipe is returned when a recipe is saved without a name.
var ErrEmptyRecipe = errors.New("store: recipe name is required")

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Order("position asc, id asc")
}

// Recipes lists the owner's recipes with their lines.
func (s *Store) Recipes(ctx context.Context, ownerID uint) ([]models.Recipe, error) {
	var records []models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("owner_id = ?", ownerID).
		Order("name asc, id asc").
		Find(&records).Error
	return records, wrap("list recipes", err)
}

// Recipe loads one recipe with its lines in position order.
func (s *Store) Recipe(ctx context.Context, ownerID, id uint) (models.Recipe, error) {
	var record models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&record).Error
	return record, wrap("load recipe", err)
}

// CreateRecipe stores a recipe and its lines. Line positions follow slice
// order.
func (s *Store) CreateRecipe(ctx context.Context, ownerID uint, record *models.Recipe) error {
	record.ID = 0
	record.OwnerID = ownerID
	record.Name = strings.TrimSpace(record.Name)
	if record.Name == "" {
		return ErrEmptyRecipe
	}
	record.Lines = sanitizeLines(record.Lines)
	return wrap("create recipe", s.db.WithContext(ctx).Create(record).Error)
}

// UpdateRecipe renames the recipe and replaces its lines wholesale.
func (s *Store) UpdateRecipe(ctx context.Context, ownerID uint, record *models.Recipe) error {
	name := strings.TrimSpace(record.Name)
	if name == "" {
		return ErrEmptyRecipe
	}
	existing, err := s.Recipe(ctx, ownerID, record.ID)
	if err != nil {
		return err
	}

	lines := sanitizeLines(record.Lines)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&existing).Updates(map[string]any{
			"name":  name,
			"notes": strings.TrimSpace(record.Notes),
		}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("recipe_id = ?", existing.ID).Delete(&models.RecipeLine{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].RecipeID = existing.ID
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrap("update recipe", err)
	}

	*record, err = s.Recipe(ctx, ownerID, existing.ID)
	return err
}

// DeleteRecipe soft deletes a recipe and its lines. Items that still point
// at it are costed through the fallback path and flagged.
func (s *Store) DeleteRecipe(ctx context.Context, ownerID, id uint) error {
	existing, err := s.Recipe(ctx, ownerID, id)
	if err != nil {
		return err
	}
	return wrap("delete recipe", s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", existing.ID).Delete(&models.RecipeLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&existing).Error
	}))
}

func sanitizeLines(lines []models.RecipeLine) []models.RecipeLine {
	result := make([]models.RecipeLine, 0, len(lines))
	for _, line := range lines {
		name := strings.TrimSpace(line.IngredientName)
		if name == "" {
			continue
		}
		qty := line.QtyPerPortion
		if qty < 0 {
			qty = 0
		}
		result = append(result, models.RecipeLine{
			Position:       len(result),
			IngredientName: name,
			QtyPerPortion:  qty,
			Unit:           costing.CanonicalUnit(line.Unit),
			SubRecipe:      strings.TrimSpace(line.SubRecipe),
		})
	}
	return result
}
