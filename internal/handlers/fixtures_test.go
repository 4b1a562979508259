package handlers

import (
	"strconv"
	"testing"

	"gorm.io/gorm"

	"pxi/models"
)

type kitchen struct {
	owner  models.User
	rice   models.Ingredient
	tomato models.Ingredient
	recipe models.Recipe
	jollof models.Item
	zobo   models.Item
}

// seedKitchen stores the Jollof Rice fixture: rice at 50,000 per kg, tomato
// at 30,000 per kg and an item sold at 2,000 per portion.
func seedKitchen(t *testing.T, db *gorm.DB, email string) kitchen {
	t.Helper()
	k := kitchen{owner: seedUser(t, db, email)}

	k.rice = models.Ingredient{Name: "Rice", Unit: "kg", CurrentCostCents: 50000, OwnerID: k.owner.ID}
	k.tomato = models.Ingredient{Name: "Tomato", Unit: "kg", CurrentCostCents: 30000, OwnerID: k.owner.ID}
	for _, ingredient := range []*models.Ingredient{&k.rice, &k.tomato} {
		if err := db.Create(ingredient).Error; err != nil {
			t.Fatalf("failed to create ingredient: %v", err)
		}
	}

	k.recipe = models.Recipe{Name: "Jollof Rice", OwnerID: k.owner.ID, Lines: []models.RecipeLine{
		{Position: 0, IngredientName: "Rice", QtyPerPortion: 0.2, Unit: "kg"},
		{Position: 1, IngredientName: "Tomato", QtyPerPortion: 0.1, Unit: "kg", SubRecipe: "Sauce"},
	}}
	if err := db.Create(&k.recipe).Error; err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}

	k.jollof = models.Item{Name: "Jollof Rice", PriceCents: 2000, RecipeID: &k.recipe.ID, OwnerID: k.owner.ID}
	k.zobo = models.Item{Name: "Zobo", PriceCents: 80000, OwnerID: k.owner.ID}
	for _, item := range []*models.Item{&k.jollof, &k.zobo} {
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("failed to create item: %v", err)
		}
	}
	return k
}

func fmtUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
