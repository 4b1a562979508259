package mock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pxidb "pxi/internal/db"
	applog "pxi/internal/log"
	"pxi/models"
)

// DemoEmail and DemoPassword sign in to the seeded tenant.
const (
	DemoEmail    = "demo@pxi.app"
	DemoPassword = "jollof"
)

var instances atomic.Int64

// New returns an in-memory sqlite database seeded with a demo kitchen. Each
// call gets its own database.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:pxi-mock-%d?mode=memory&cache=shared", instances.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := pxidb.AutoMigrate(db); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         "Adaeze Kitchens",
		Email:        DemoEmail,
		PasswordHash: string(password),
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	ingredients := []models.Ingredient{
		{Name: "Rice", Unit: "kg", CurrentCostCents: 50000},
		{Name: "Tomato", Unit: "kg", CurrentCostCents: 30000},
		{Name: "Scotch Bonnet", Unit: "kg", CurrentCostCents: 100000},
		{Name: "Onion", Unit: "kg", CurrentCostCents: 40000},
		{Name: "Palm Oil", Unit: "l", CurrentCostCents: 200000},
		{Name: "Chicken", Unit: "kg", CurrentCostCents: 350000},
		{Name: "Plantain", Unit: "pcs", CurrentCostCents: 25000},
	}
	for i := range ingredients {
		ingredients[i].OwnerID = user.ID
		if err := db.WithContext(ctx).Create(&ingredients[i]).Error; err != nil {
			return err
		}
	}

	jollof := models.Recipe{
		Name:    "Jollof Rice",
		Notes:   "Party-style, cooked down in a tomato and pepper base.",
		OwnerID: user.ID,
		Lines: []models.RecipeLine{
			{Position: 0, IngredientName: "Rice", QtyPerPortion: 0.2, Unit: "kg"},
			{Position: 1, IngredientName: "Tomato", QtyPerPortion: 0.1, Unit: "kg", SubRecipe: "Stew Base"},
			{Position: 2, IngredientName: "Scotch Bonnet", QtyPerPortion: 10, Unit: "g", SubRecipe: "Stew Base"},
			{Position: 3, IngredientName: "Onion", QtyPerPortion: 0.03, Unit: "kg", SubRecipe: "Stew Base"},
			{Position: 4, IngredientName: "Palm Oil", QtyPerPortion: 15, Unit: "ml"},
		},
	}
	grill := models.Recipe{
		Name:    "Grilled Chicken & Dodo",
		Notes:   "Quarter chicken with fried plantain.",
		OwnerID: user.ID,
		Lines: []models.RecipeLine{
			{Position: 0, IngredientName: "Chicken", QtyPerPortion: 0.25, Unit: "kg"},
			{Position: 1, IngredientName: "Suya Spice", QtyPerPortion: 8, Unit: "g"},
			{Position: 2, IngredientName: "Plantain", QtyPerPortion: 1, Unit: "pcs", SubRecipe: "Dodo"},
			{Position: 3, IngredientName: "Palm Oil", QtyPerPortion: 10, Unit: "ml", SubRecipe: "Dodo"},
		},
	}
	for _, recipe := range []*models.Recipe{&jollof, &grill} {
		if err := db.WithContext(ctx).Create(recipe).Error; err != nil {
			return err
		}
	}

	items := []models.Item{
		{Name: "Jollof Rice", PriceCents: 2000, RecipeID: &jollof.ID},
		{Name: "Grilled Chicken & Dodo", PriceCents: 450000, RecipeID: &grill.ID},
		{Name: "Chapman", PriceCents: 150000, CostPriceCents: 45000},
		{Name: "Zobo", PriceCents: 80000},
	}
	for i := range items {
		items[i].OwnerID = user.ID
		if err := db.WithContext(ctx).Create(&items[i]).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded", "ingredients", len(ingredients), "items", len(items))
	return nil
}
