package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pxi/internal/ai"
	"pxi/internal/costing"
	"pxi/internal/grounding"
	applog "pxi/internal/log"
	"pxi/internal/views/pages"
	"pxi/models"
)

// Tools renders the tools page.
func Tools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := currentUserID(r)
	if !ok {
		redirectToLogin(w, r)
		return
	}
	view := buildToolsView(r.Context(), userID)
	renderPage(w, r, pages.ToolsPage(view), pages.ToolsPanel(view))
}

func buildToolsView(ctx context.Context, userID uint) pages.ToolsView {
	view := pages.ToolsView{}
	st := dataStore()
	if st == nil {
		view.Error = "Tools are unavailable because no database connection is configured."
		return view
	}
	recipes, err := st.Recipes(ctx, userID)
	if err != nil {
		applog.Error(ctx, "failed to load recipes for tools", "error", err)
		view.Error = "We couldn't load your recipes. Please try again."
		return view
	}
	view.Recipes = recipes
	return view
}

// ToolsGround refreshes market prices for one recipe in a single AI request.
// When the form names an item the worksheet is recomputed and returned;
// otherwise the tools panel reports what was applied.
func ToolsGround(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := currentUserID(r)
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid submission.", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	recipeID := parseUint(r.FormValue("recipe_id"))
	itemID := parseUint(r.FormValue("item_id"))

	var (
		report  grounding.Report
		message string
		failure string
	)
	switch {
	case groundService == nil:
		failure = "AI integration is not configured. Set OPENAI_API_KEY to enable market prices."
	case recipeID == 0:
		failure = "Select a recipe before requesting market prices."
	default:
		var err error
		report, err = groundService.Ground(ctx, userID, recipeID)
		switch {
		case err == nil:
			message = groundingMessage(report)
		case errors.Is(err, costing.ErrRecipeNotFound):
			failure = "The selected recipe no longer exists."
		case errors.Is(err, grounding.ErrNothingToGround):
			failure = "The selected recipe has no ingredients to price."
		default:
			applog.Error(ctx, "market price grounding failed", "error", err, "recipe", recipeID)
			failure = "We couldn't fetch market prices. Existing prices were kept."
		}
	}

	if itemID != 0 {
		view := buildCostingView(ctx, userID, itemID, parsePortions(r.FormValue("portions")), overridesFromForm(r))
		if view.Error == "" {
			view.Error = failure
		}
		view.Message = message
		events := []string{}
		if message != "" {
			events = append(events, eventPricesGrounded)
		}
		if view.Result != nil {
			events = append(events, eventCostingUpdated)
		}
		trigger(w, r, events...)
		renderComponent(w, r, pages.CostingPanel(view))
		return
	}

	view := buildToolsView(ctx, userID)
	if view.Error == "" {
		view.Error = failure
	}
	view.Message = message
	view.Details = groundingDetails(report)
	if message != "" {
		trigger(w, r, eventPricesGrounded)
	}
	renderComponent(w, r, pages.ToolsPanel(view))
}

func groundingMessage(report grounding.Report) string {
	switch n := len(report.Applied); n {
	case 0:
		return "The market survey returned no usable prices."
	case 1:
		return "Updated 1 ingredient with a market price."
	default:
		return fmt.Sprintf("Updated %d ingredients with market prices.", n)
	}
}

func groundingDetails(report grounding.Report) []string {
	details := make([]string, 0, len(report.Applied)+len(report.Unmatched)+len(report.Incompatible)+len(report.Unpriced))
	for _, applied := range report.Applied {
		details = append(details, fmt.Sprintf("%s: %s per %s", applied.IngredientName, pages.FormatCents(currency, applied.PriceCents), applied.Unit))
	}
	for _, name := range report.Unmatched {
		details = append(details, fmt.Sprintf("%s is not in your ingredient registry.", name))
	}
	for _, name := range report.Incompatible {
		details = append(details, fmt.Sprintf("%s was quoted in a unit that cannot be converted.", name))
	}
	for _, name := range report.Unpriced {
		details = append(details, fmt.Sprintf("No market price found for %s.", name))
	}
	return details
}

// ToolsImportRecipe turns pasted text or an uploaded document into a recipe.
// Lines naming ingredients missing from the registry are kept and reported.
func ToolsImportRecipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := currentUserID(r)
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	ctx := r.Context()
	view := buildToolsView(ctx, userID)
	if view.Error != "" {
		renderComponent(w, r, pages.ToolsPanel(view))
		return
	}
	if recipeExtractor == nil {
		view.Error = "AI integration is not configured. Set OPENAI_API_KEY to enable this tool."
		renderComponent(w, r, pages.ToolsPanel(view))
		return
	}

	if err := r.ParseMultipartForm(maxRecipeUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		applog.Error(ctx, "failed to parse recipe import form", "error", err)
		view.Error = "Upload is too large or invalid. Please retry with a smaller file."
		renderComponent(w, r, pages.ToolsPanel(view))
		return
	}

	nameHint := strings.TrimSpace(r.FormValue("name"))
	rawText := strings.TrimSpace(r.FormValue("text"))

	fileName, fileBytes, fileType, err := readRecipeUpload(r)
	if err != nil {
		applog.Error(ctx, "recipe upload read failed", "error", err)
		view.Error = "Unable to read the uploaded file. Please try again."
		renderComponent(w, r, pages.ToolsPanel(view))
		return
	}
	if len(fileBytes) > 0 {
		processed, convErr := deriveTextFromUpload(fileBytes, fileType)
		if convErr != nil {
			applog.Error(ctx, "failed to extract recipe text", "error", convErr, "mime", fileType)
			view.Error = "We couldn't interpret the uploaded document. Try a PDF or plain text file."
			renderComponent(w, r, pages.ToolsPanel(view))
			return
		}
		if strings.TrimSpace(processed) != "" {
			if rawText != "" {
				rawText += "\n\n"
			}
			rawText += processed
		}
	}
	if strings.TrimSpace(rawText) == "" {
		view.Error = "Provide recipe text or upload a document before running the import."
		renderComponent(w, r, pages.ToolsPanel(view))
		return
	}

	extracted, err := recipeExtractor.ExtractRecipe(ctx, ai.RecipeImportInput{NameHint: nameHint, RawText: rawText, FileName: fileName})
	if err != nil {
		applog.Error(ctx, "recipe extraction failed", "error", err)
		view.Error = "We couldn't interpret that recipe. Please refine the input and try again."
		renderComponent(w, r, pages.ToolsPanel(view))
		return
	}
	if len(extracted.Lines) == 0 {
		view.Error = "No ingredient lines were found in that recipe."
		renderComponent(w, r, pages.ToolsPanel(view))
		return
	}

	recipe, warnings, err := persistImportedRecipe(ctx, userID, extracted)
	if err != nil {
		applog.Error(ctx, "persist imported recipe failed", "error", err)
		view.Error = "We couldn't save the imported recipe. Please try again."
		renderComponent(w, r, pages.ToolsPanel(view))
		return
	}

	view = buildToolsView(ctx, userID)
	view.Message = fmt.Sprintf("Imported recipe %q with %d lines.", recipe.Name, len(recipe.Lines))
	view.Details = warnings
	renderComponent(w, r, pages.ToolsPanel(view))
}

func persistImportedRecipe(ctx context.Context, userID uint, extracted ai.RecipeImportResult) (models.Recipe, []string, error) {
	st := dataStore()
	ingredients, err := st.ListIngredients(ctx, userID)
	if err != nil {
		return models.Recipe{}, nil, err
	}
	registry := costing.NewRegistry(ingredients)

	name := strings.TrimSpace(extracted.RecipeName)
	if name == "" {
		name = "Imported recipe"
	}
	recipe := models.Recipe{Name: name, Notes: extracted.Notes}
	var warnings []string
	seen := make(map[string]struct{})
	for _, line := range extracted.Lines {
		recipe.Lines = append(recipe.Lines, models.RecipeLine{
			IngredientName: line.IngredientName,
			QtyPerPortion:  line.QtyPerPortion,
			Unit:           line.Unit,
			SubRecipe:      line.SubRecipe,
		})
		key := costing.NormalizeName(line.IngredientName)
		if _, ok := registry.Lookup(line.IngredientName); ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		warnings = append(warnings, fmt.Sprintf("%s is not in your ingredient registry; add it to price this line.", strings.TrimSpace(line.IngredientName)))
	}

	if err := st.CreateRecipe(ctx, userID, &recipe); err != nil {
		return models.Recipe{}, nil, err
	}
	return recipe, warnings, nil
}
