package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	applog "pxi/internal/log"
	"pxi/internal/views/pages"
	"pxi/models"
)

var errEmailTaken = errors.New("email already registered")

const msgSignupFailed = "We couldn't create your account right now. Please try again."

type signupForm struct {
	Name     string
	Email    string
	Password string
	Confirm  string
	Starter  bool
}

func readSignupForm(r *http.Request) signupForm {
	return signupForm{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm_password"),
		Starter:  r.PostFormValue("starter") != "",
	}
}

// problem returns the message shown for an invalid form, or "".
func (f signupForm) problem() string {
	switch {
	case f.Email == "" || !strings.Contains(f.Email, "@"):
		return "Please provide a valid email address."
	case len(f.Password) < 8:
		return "Password must be at least 8 characters long."
	case f.Password != f.Confirm:
		return "Passwords do not match."
	}
	return ""
}

// Signup creates a tenant and signs them in. With the starter box ticked the
// new workspace gets a priced sample recipe so the worksheet has something
// to cost straight away.
func Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if ActiveSession(r) {
			redirectToApp(w, r)
			return
		}
		renderSignup(w, r, "", "", "")
	case http.MethodPost:
		if sessionManager == nil || database == nil {
			http.Error(w, "registration not available", http.StatusServiceUnavailable)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}
		form := readSignupForm(r)
		if message := form.problem(); message != "" {
			renderSignup(w, r, message, form.Name, form.Email)
			return
		}

		user, err := registerTenant(ctx, database, form)
		switch {
		case errors.Is(err, errEmailTaken):
			renderSignup(w, r, "An account with that email already exists.", form.Name, form.Email)
			return
		case err != nil:
			applog.Error(ctx, "failed to register tenant", "error", err)
			renderSignup(w, r, msgSignupFailed, form.Name, form.Email)
			return
		}
		if err := startSession(ctx, user); err != nil {
			applog.Error(ctx, "failed to start session after signup", "error", err)
			renderSignup(w, r, "We couldn't sign you in after creating your account. Please try again.", form.Name, form.Email)
			return
		}

		applog.Info(ctx, "tenant registered", "tenant", user.ID, "starter", form.Starter)
		redirectToApp(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// registerTenant creates the user and, when asked, the starter kitchen in one
// transaction.
func registerTenant(ctx context.Context, db *gorm.DB, form signupForm) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        models.NormalizeEmail(form.Email),
		Name:         form.Name,
		PasswordHash: string(hashed),
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := findUserByEmail(ctx, tx, form.Email)
		switch {
		case err == nil:
			return errEmailTaken
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if form.Starter {
			return seedStarterKitchen(tx, user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// starterIngredients price a plate of jollof at 312.00 against a 1,500.00
// menu price.
var starterIngredients = []models.Ingredient{
	{Name: "Rice", Unit: "kg", CurrentCostCents: 120000},
	{Name: "Tomato", Unit: "kg", CurrentCostCents: 80000},
	{Name: "Vegetable Oil", Unit: "l", CurrentCostCents: 250000},
	{Name: "Onion", Unit: "kg", CurrentCostCents: 60000},
}

var starterLines = []models.RecipeLine{
	{Position: 0, IngredientName: "Rice", QtyPerPortion: 0.15, Unit: "kg"},
	{Position: 1, IngredientName: "Tomato", QtyPerPortion: 0.08, Unit: "kg", SubRecipe: "Sauce"},
	{Position: 2, IngredientName: "Vegetable Oil", QtyPerPortion: 0.02, Unit: "l", SubRecipe: "Sauce"},
	{Position: 3, IngredientName: "Onion", QtyPerPortion: 0.03, Unit: "kg", SubRecipe: "Sauce"},
}

func seedStarterKitchen(tx *gorm.DB, ownerID uint) error {
	for _, template := range starterIngredients {
		ingredient := template
		ingredient.OwnerID = ownerID
		if err := tx.Create(&ingredient).Error; err != nil {
			return err
		}
	}

	recipe := models.Recipe{
		Name:    "Jollof Rice",
		Notes:   "Sample recipe. Edit the quantities or delete it.",
		OwnerID: ownerID,
		Lines:   append([]models.RecipeLine(nil), starterLines...),
	}
	if err := tx.Create(&recipe).Error; err != nil {
		return err
	}

	item := models.Item{Name: "Jollof Rice", PriceCents: 150000, RecipeID: &recipe.ID, OwnerID: ownerID}
	return tx.Create(&item).Error
}

func renderSignup(w http.ResponseWriter, r *http.Request, message, name, email string) {
	renderPage(w, r, pages.Signup(message, name, email), pages.SignupPartial(message, name, email))
}
