package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pxi/internal/costing"
	"pxi/models"
)

var testDBSeq atomic.Int64

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:store-test-%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Ingredient{}, &models.Recipe{}, &models.RecipeLine{}, &models.Item{}); err != nil {
		t.Fatalf("migrate schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return New(db), db
}

func TestIngredientCRUDIsOwnerScoped(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	rice := models.Ingredient{Name: "  Rice ", Unit: "Kilograms", CurrentCostCents: 50000}
	if err := s.CreateIngredient(ctx, 1, &rice); err != nil {
		t.Fatalf("CreateIngredient() error = %v", err)
	}
	if rice.Name != "Rice" || rice.Unit != "kg" {
		t.Fatalf("expected sanitized ingredient, got %+v", rice)
	}

	if _, err := s.Ingredient(ctx, 2, rice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other owner, got %v", err)
	}

	rice.CurrentCostCents = 52000
	rice.Unit = "g"
	if err := s.UpdateIngredient(ctx, 1, &rice); err != nil {
		t.Fatalf("UpdateIngredient() error = %v", err)
	}
	if rice.CurrentCostCents != 52000 || rice.Unit != "g" {
		t.Fatalf("unexpected updated ingredient %+v", rice)
	}

	if err := s.DeleteIngredient(ctx, 2, rice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting foreign ingredient, got %v", err)
	}
	if err := s.DeleteIngredient(ctx, 1, rice.ID); err != nil {
		t.Fatalf("DeleteIngredient() error = %v", err)
	}
	list, err := s.Ingredients(ctx, 1)
	if err != nil {
		t.Fatalf("Ingredients() error = %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected deleted ingredient to be hidden, got %d", len(list))
	}
}

func TestListIngredientsKeepsIDOrderForCollisions(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Salt", "Pepper", "salt "} {
		record := models.Ingredient{Name: name, Unit: "kg", CurrentCostCents: int64(len(name))}
		if err := s.CreateIngredient(ctx, 1, &record); err != nil {
			t.Fatalf("CreateIngredient(%q) error = %v", name, err)
		}
	}

	ingredients, err := s.ListIngredients(ctx, 1)
	if err != nil {
		t.Fatalf("ListIngredients() error = %v", err)
	}
	registry := costing.NewRegistry(ingredients)
	salt, ok := registry.Lookup("SALT")
	if !ok || salt.Name != "Salt" {
		t.Fatalf("expected first created Salt to win, got %+v", salt)
	}
	if len(registry.Collisions()) != 1 {
		t.Fatalf("expected one collision, got %+v", registry.Collisions())
	}
}

func TestRecipeLifecycle(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	recipe := models.Recipe{
		Name: "Jollof Rice",
		Lines: []models.RecipeLine{
			{IngredientName: "Rice", QtyPerPortion: 0.2, Unit: "kg"},
			{IngredientName: "   "},
			{IngredientName: "Tomato", QtyPerPortion: 0.1, Unit: "KG", SubRecipe: " Sauce "},
		},
	}
	if err := s.CreateRecipe(ctx, 1, &recipe); err != nil {
		t.Fatalf("CreateRecipe() error = %v", err)
	}

	snapshot, err := s.FindRecipe(ctx, 1, recipe.ID)
	if err != nil {
		t.Fatalf("FindRecipe() error = %v", err)
	}
	if len(snapshot.Lines) != 2 {
		t.Fatalf("expected blank line to be dropped, got %d lines", len(snapshot.Lines))
	}
	if snapshot.Lines[1].SubRecipe != "Sauce" || snapshot.Lines[1].Unit != "kg" {
		t.Fatalf("unexpected second line %+v", snapshot.Lines[1])
	}

	recipe.Name = "Jollof Rice (party)"
	recipe.Lines = []models.RecipeLine{
		{IngredientName: "Tomato", QtyPerPortion: 0.12, Unit: "kg"},
		{IngredientName: "Rice", QtyPerPortion: 0.25, Unit: "kg"},
		{IngredientName: "Palm Oil", QtyPerPortion: 15, Unit: "ml"},
	}
	if err := s.UpdateRecipe(ctx, 1, &recipe); err != nil {
		t.Fatalf("UpdateRecipe() error = %v", err)
	}
	if len(recipe.Lines) != 3 || recipe.Lines[0].IngredientName != "Tomato" || recipe.Lines[2].Position != 2 {
		t.Fatalf("expected lines replaced in order, got %+v", recipe.Lines)
	}

	if _, err := s.FindRecipe(ctx, 2, recipe.ID); !errors.Is(err, costing.ErrRecipeNotFound) {
		t.Fatalf("expected ErrRecipeNotFound for other owner, got %v", err)
	}

	if err := s.DeleteRecipe(ctx, 1, recipe.ID); err != nil {
		t.Fatalf("DeleteRecipe() error = %v", err)
	}
	if _, err := s.FindRecipe(ctx, 1, recipe.ID); !errors.Is(err, costing.ErrRecipeNotFound) {
		t.Fatalf("expected deleted recipe to be missing, got %v", err)
	}
}

func TestCreateRecipeRequiresName(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	if err := s.CreateRecipe(context.Background(), 1, &models.Recipe{Name: "  "}); !errors.Is(err, ErrEmptyRecipe) {
		t.Fatalf("expected ErrEmptyRecipe, got %v", err)
	}
}

func TestItemRecipeMustBelongToOwner(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	foreign := models.Recipe{Name: "Someone else's"}
	if err := s.CreateRecipe(ctx, 2, &foreign); err != nil {
		t.Fatalf("CreateRecipe() error = %v", err)
	}

	item := models.Item{Name: "Borrowed", PriceCents: 1000, RecipeID: &foreign.ID}
	if err := s.CreateItem(ctx, 1, &item); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign recipe, got %v", err)
	}

	item.RecipeID = nil
	if err := s.CreateItem(ctx, 1, &item); err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}

	snapshot, err := s.FindItem(ctx, 1, item.ID)
	if err != nil {
		t.Fatalf("FindItem() error = %v", err)
	}
	if snapshot.RecipeID != nil || snapshot.PriceCents != 1000 {
		t.Fatalf("unexpected item snapshot %+v", snapshot)
	}

	if _, err := s.FindItem(ctx, 2, item.ID); !errors.Is(err, costing.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound for other owner, got %v", err)
	}
}

func TestServiceCostsThroughStore(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, ingredient := range []models.Ingredient{
		{Name: "Rice", Unit: "kg", CurrentCostCents: 50000},
		{Name: "Tomato", Unit: "kg", CurrentCostCents: 30000},
	} {
		record := ingredient
		if err := s.CreateIngredient(ctx, 1, &record); err != nil {
			t.Fatalf("CreateIngredient() error = %v", err)
		}
	}
	recipe := models.Recipe{Name: "Jollof Rice", Lines: []models.RecipeLine{
		{IngredientName: "Rice", QtyPerPortion: 0.2, Unit: "kg"},
		{IngredientName: "Tomato", QtyPerPortion: 0.1, Unit: "kg"},
	}}
	if err := s.CreateRecipe(ctx, 1, &recipe); err != nil {
		t.Fatalf("CreateRecipe() error = %v", err)
	}
	item := models.Item{Name: "Jollof Rice", PriceCents: 2000, RecipeID: &recipe.ID}
	if err := s.CreateItem(ctx, 1, &item); err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}

	svc := costing.NewService(s, s, s, costing.Engine{}, nil)
	result, err := svc.Cost(ctx, 1, item.ID, 100, nil)
	if err != nil {
		t.Fatalf("Cost() error = %v", err)
	}
	if result.TotalIngredientCostCents != 1_300_000 {
		t.Fatalf("TotalIngredientCostCents = %d, want 1300000", result.TotalIngredientCostCents)
	}
}

func TestUpsertIngredientPrice(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	existing := models.Ingredient{Name: "Palm Oil", Unit: "l", CurrentCostCents: 150000}
	if err := s.CreateIngredient(ctx, 1, &existing); err != nil {
		t.Fatalf("CreateIngredient() error = %v", err)
	}

	created, err := s.UpsertIngredientPrice(ctx, 1, " palm oil", "", 180000)
	if err != nil || created {
		t.Fatalf("UpsertIngredientPrice(existing) = %t, %v", created, err)
	}
	created, err = s.UpsertIngredientPrice(ctx, 1, "Crayfish", "g", 900)
	if err != nil || !created {
		t.Fatalf("UpsertIngredientPrice(new) = %t, %v", created, err)
	}

	list, err := s.Ingredients(ctx, 1)
	if err != nil {
		t.Fatalf("Ingredients() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 ingredients, got %d", len(list))
	}
	if list[0].CurrentCostCents != 180000 || list[0].Unit != "l" {
		t.Fatalf("unexpected updated ingredient %+v", list[0])
	}
	if list[1].Name != "Crayfish" || list[1].Unit != "g" {
		t.Fatalf("unexpected created ingredient %+v", list[1])
	}
}

func TestApplyAndClearMarketPrices(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	rice := models.Ingredient{Name: "Rice", Unit: "kg", CurrentCostCents: 50000}
	if err := s.CreateIngredient(ctx, 1, &rice); err != nil {
		t.Fatalf("CreateIngredient() error = %v", err)
	}

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	err := s.ApplyMarketPrices(ctx, 1, []MarketPrice{{
		IngredientID: rice.ID,
		PriceCents:   47000,
		Summary:      "Mile 12 market, 50kg bag average",
		Sources:      []string{"https://example.com/prices", ""},
	}}, at)
	if err != nil {
		t.Fatalf("ApplyMarketPrices() error = %v", err)
	}

	ingredients, err := s.ListIngredients(ctx, 1)
	if err != nil {
		t.Fatalf("ListIngredients() error = %v", err)
	}
	got := ingredients[0]
	if got.MarketPriceCents == nil || *got.MarketPriceCents != 47000 {
		t.Fatalf("expected market price to be stored, got %+v", got)
	}
	if len(got.MarketSources) != 1 {
		t.Fatalf("expected one source, got %v", got.MarketSources)
	}
	stored, err := s.Ingredient(ctx, 1, rice.ID)
	if err != nil {
		t.Fatalf("Ingredient() error = %v", err)
	}
	if stored.MarketSurveyedAt == nil || !stored.MarketSurveyedAt.Equal(at) {
		t.Fatalf("expected survey timestamp %s, got %v", at, stored.MarketSurveyedAt)
	}

	if err := s.ClearMarketPrice(ctx, 1, rice.ID); err != nil {
		t.Fatalf("ClearMarketPrice() error = %v", err)
	}
	stored, err = s.Ingredient(ctx, 1, rice.ID)
	if err != nil {
		t.Fatalf("Ingredient() error = %v", err)
	}
	if stored.MarketPriceCents != nil {
		t.Fatalf("expected market price cleared, got %d", *stored.MarketPriceCents)
	}
}
