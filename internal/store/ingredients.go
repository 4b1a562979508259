package store

import (
	"context"
	"strings"
	"time"

	"pxi/internal/costing"
	"pxi/models"
)

// Ingredients lists the owner's ingredients ordered by id.
func (s *Store) Ingredients(ctx context.Context, ownerID uint) ([]models.Ingredient, error) {
	var records []models.Ingredient
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id asc").
		Find(&records).Error
	return records, wrap("list ingredients", err)
}

// Ingredient loads one ingredient owned by ownerID.
func (s *Store) Ingredient(ctx context.Context, ownerID, id uint) (models.Ingredient, error) {
	var record models.Ingredient
	err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&record).Error
	return record, wrap("load ingredient", err)
}

// CreateIngredient stores a new ingredient for the owner.
func (s *Store) CreateIngredient(ctx context.Context, ownerID uint, record *models.Ingredient) error {
	record.ID = 0
	record.OwnerID = ownerID
	record.Name = strings.TrimSpace(record.Name)
	record.Unit = costing.CanonicalUnit(record.Unit)
	return wrap("create ingredient", s.db.WithContext(ctx).Create(record).Error)
}

// UpdateIngredient overwrites the editable fields of an ingredient.
func (s *Store) UpdateIngredient(ctx context.Context, ownerID uint, record *models.Ingredient) error {
	existing, err := s.Ingredient(ctx, ownerID, record.ID)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"name":               strings.TrimSpace(record.Name),
		"unit":               costing.CanonicalUnit(record.Unit),
		"current_cost_cents": record.CurrentCostCents,
	}
	if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		return wrap("update ingredient", err)
	}
	*record, err = s.Ingredient(ctx, ownerID, record.ID)
	return err
}

// DeleteIngredient soft deletes an ingredient. Recipe lines naming it become
// unresolved on the next costing run.
func (s *Store) DeleteIngredient(ctx context.Context, ownerID, id uint) error {
	existing, err := s.Ingredient(ctx, ownerID, id)
	if err != nil {
		return err
	}
	return wrap("delete ingredient", s.db.WithContext(ctx).Delete(&existing).Error)
}

// UpsertIngredientPrice sets the current cost of the ingredient whose
// normalized name matches name, creating it when absent. It reports whether
// a new row was created.
func (s *Store) UpsertIngredientPrice(ctx context.Context, ownerID uint, name, unit string, costCents int64) (bool, error) {
	records, err := s.Ingredients(ctx, ownerID)
	if err != nil {
		return false, err
	}
	key := costing.NormalizeName(name)
	for _, record := range records {
		if costing.NormalizeName(record.Name) != key {
			continue
		}
		updates := map[string]any{"current_cost_cents": costCents}
		if strings.TrimSpace(unit) != "" {
			updates["unit"] = costing.CanonicalUnit(unit)
		}
		return false, wrap("update ingredient price", s.db.WithContext(ctx).Model(&record).Updates(updates).Error)
	}

	if strings.TrimSpace(unit) == "" {
		unit = "kg"
	}
	created := models.Ingredient{Name: name, Unit: unit, CurrentCostCents: costCents}
	if err := s.CreateIngredient(ctx, ownerID, &created); err != nil {
		return false, err
	}
	return true, nil
}

// MarketPrice is a surveyed price to store against an ingredient.
type MarketPrice struct {
	IngredientID uint
	PriceCents   int64
	Summary      string
	Sources      []string
}

// ApplyMarketPrices writes survey results in one transaction and stamps them
// with surveyedAt. Either every price is stored or none is.
func (s *Store) ApplyMarketPrices(ctx context.Context, ownerID uint, prices []MarketPrice, surveyedAt time.Time) error {
	if len(prices) == 0 {
		return nil
	}
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return wrap("begin market price update", tx.Error)
	}
	for _, price := range prices {
		var holder models.Ingredient
		holder.SetSources(price.Sources)
		priceCents := price.PriceCents
		stamp := surveyedAt.UTC()
		result := tx.Model(&models.Ingredient{}).
			Where("id = ? AND owner_id = ?", price.IngredientID, ownerID).
			Updates(map[string]any{
				"market_price_cents": &priceCents,
				"market_summary":     strings.TrimSpace(price.Summary),
				"market_sources":     holder.MarketSources,
				"market_surveyed_at": &stamp,
			})
		if result.Error != nil {
			tx.Rollback()
			return wrap("store market price", result.Error)
		}
	}
	return wrap("commit market prices", tx.Commit().Error)
}

// ClearMarketPrice drops the surveyed price so costing falls back to the
// current cost.
func (s *Store) ClearMarketPrice(ctx context.Context, ownerID, id uint) error {
	existing, err := s.Ingredient(ctx, ownerID, id)
	if err != nil {
		return err
	}
	return wrap("clear market price", s.db.WithContext(ctx).Model(&existing).Updates(map[string]any{
		"market_price_cents": nil,
		"market_summary":     "",
		"market_sources":     "",
		"market_surveyed_at": nil,
	}).Error)
}
