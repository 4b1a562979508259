package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// RecipeImportInput is the source material supplied when importing a recipe.
type RecipeImportInput struct {
	NameHint string
	RawText  string
	FileName string
}

// RecipeImportResult is the structured recipe returned by the model.
type RecipeImportResult struct {
	RecipeName string             `json:"recipe_name"`
	Notes      string             `json:"notes"`
	Lines      []RecipeImportLine `json:"lines"`
}

// RecipeImportLine is one ingredient requirement for a single portion.
type RecipeImportLine struct {
	IngredientName string  `json:"ingredient_name"`
	QtyPerPortion  float64 `json:"qty_per_portion"`
	Unit           string  `json:"unit"`
	SubRecipe      string  `json:"sub_recipe"`
}

const recipeSystemPrompt = `You convert catering recipes into precise JSON.
- If the recipe states a yield, divide every quantity by it so quantities are per single portion.
- Use metric units: kg, g, l, ml, or pcs for countable items.
- When ingredients are grouped under headings such as "For the sauce", put the heading in sub_recipe.
- Respond with strictly valid JSON using this schema:
{
  "recipe_name": string,
  "notes": string,
  "lines": [
    {
      "ingredient_name": string,
      "qty_per_portion": number,
      "unit": string,
      "sub_recipe": string
    }
  ]
}
- Never include explanations, markdown, or commentary outside of the JSON payload.`

// ExtractRecipe asks the model to parse text (typed or extracted from a PDF)
// into a recipe with per-portion lines.
func (c *Client) ExtractRecipe(ctx context.Context, input RecipeImportInput) (RecipeImportResult, error) {
	text := strings.TrimSpace(input.RawText)
	if text == "" {
		return RecipeImportResult{}, errors.New("ai: recipe import requires text content")
	}

	var builder strings.Builder
	if hint := strings.TrimSpace(input.NameHint); hint != "" {
		builder.WriteString("Recipe name hint: ")
		builder.WriteString(hint)
		builder.WriteString("\n\n")
	}
	if name := strings.TrimSpace(input.FileName); name != "" {
		builder.WriteString(fmt.Sprintf("Source file: %s\n\n", name))
	}
	builder.WriteString("Recipe text:\n")
	builder.WriteString(text)

	payload := map[string]any{
		"model":       c.model,
		"temperature": c.temperature,
		"messages": []map[string]string{
			{"role": "system", "content": recipeSystemPrompt},
			{"role": "user", "content": builder.String()},
		},
	}

	content, err := c.performChatCompletion(ctx, payload)
	if err != nil {
		return RecipeImportResult{}, err
	}

	var result RecipeImportResult
	if err := json.NewDecoder(strings.NewReader(content)).Decode(&result); err != nil {
		return RecipeImportResult{}, fmt.Errorf("ai: parse recipe payload: %w", err)
	}

	return normaliseRecipe(result, input.NameHint), nil
}

func normaliseRecipe(result RecipeImportResult, hint string) RecipeImportResult {
	result.RecipeName = normaliseText(result.RecipeName)
	if result.RecipeName == "" {
		result.RecipeName = normaliseText(hint)
	}
	result.Notes = normaliseText(result.Notes)

	lines := make([]RecipeImportLine, 0, len(result.Lines))
	for _, line := range result.Lines {
		name := normaliseText(line.IngredientName)
		if name == "" || line.QtyPerPortion < 0 {
			continue
		}
		lines = append(lines, RecipeImportLine{
			IngredientName: name,
			QtyPerPortion:  line.QtyPerPortion,
			Unit:           strings.ToLower(normaliseValue(line.Unit)),
			SubRecipe:      normaliseText(line.SubRecipe),
		})
	}
	result.Lines = lines
	return result
}
