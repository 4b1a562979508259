package store

import (
	"context"
	"strings"

	"pxi/models"
)

// Items lists the owner's sellable items by name.
func (s *Store) Items(ctx context.Context, ownerID uint) ([]models.Item, error) {
	var records []models.Item
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name asc, id asc").
		Find(&records).Error
	return records, wrap("list items", err)
}

// Item loads one item owned by ownerID.
func (s *Store) Item(ctx context.Context, ownerID, id uint) (models.Item, error) {
	var record models.Item
	err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&record).Error
	return record, wrap("load item", err)
}

// CreateItem stores a new item. A recipe reference must belong to the owner.
func (s *Store) CreateItem(ctx context.Context, ownerID uint, record *models.Item) error {
	if err := s.checkRecipe(ctx, ownerID, record.RecipeID); err != nil {
		return err
	}
	record.ID = 0
	record.OwnerID = ownerID
	record.Name = strings.TrimSpace(record.Name)
	return wrap("create item", s.db.WithContext(ctx).Create(record).Error)
}

// UpdateItem overwrites the editable fields of an item.
func (s *Store) UpdateItem(ctx context.Context, ownerID uint, record *models.Item) error {
	existing, err := s.Item(ctx, ownerID, record.ID)
	if err != nil {
		return err
	}
	if err := s.checkRecipe(ctx, ownerID, record.RecipeID); err != nil {
		return err
	}
	updates := map[string]any{
		"name":             strings.TrimSpace(record.Name),
		"price_cents":      record.PriceCents,
		"cost_price_cents": record.CostPriceCents,
		"recipe_id":        record.RecipeID,
	}
	if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		return wrap("update item", err)
	}
	*record, err = s.Item(ctx, ownerID, record.ID)
	return err
}

// DeleteItem soft deletes an item.
func (s *Store) DeleteItem(ctx context.Context, ownerID, id uint) error {
	existing, err := s.Item(ctx, ownerID, id)
	if err != nil {
		return err
	}
	return wrap("delete item", s.db.WithContext(ctx).Delete(&existing).Error)
}

func (s *Store) checkRecipe(ctx context.Context, ownerID uint, recipeID *uint) error {
	if recipeID == nil {
		return nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("id = ? AND owner_id = ?", *recipeID, ownerID).
		Count(&count).Error
	if err != nil {
		return wrap("check recipe", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
