package pages

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"pxi/internal/costing"
	"pxi/internal/views/components"
	"pxi/internal/views/layout"
	"pxi/models"
)

// OverrideFieldPrefix prefixes the form fields that carry quantity overrides.
const OverrideFieldPrefix = "override."

// CostingView carries everything the worksheet needs to render.
type CostingView struct {
	Currency   string
	Items      []models.Item
	ItemID     uint
	RecipeID   *uint
	Portions   int
	Overrides  costing.Overrides
	Result     *costing.Result
	Groups     []costing.Group
	Aggregate  []costing.AggregateRow
	Collisions []costing.Collision
	Message    string
	Error      string
}

// CostingPage renders the worksheet inside the application shell.
func CostingPage(view CostingView) templ.Component {
	return layout.Layout("Costing · PXI", components.Sidebar(components.DefaultSidebar("costing")), CostingPanel(view), true)
}

// CostingPanel renders the worksheet form and, when present, the breakdown.
func CostingPanel(view CostingView) templ.Component {
	return fragment(func(ctx context.Context, b *builder) error {
		b.raw(`<section id="costing-panel" class="worksheet">`)
		if err := b.component(ctx, components.Banner(components.BannerError, view.Error)); err != nil {
			return err
		}
		if err := b.component(ctx, components.Banner(components.BannerInfo, view.Message)); err != nil {
			return err
		}

		b.raw(`<form method="post" action="/app/costing" hx-post="/app/costing" hx-target="#costing-panel" hx-swap="outerHTML">`)
		b.raw(`<label>Item<select name="item_id">`)
		for _, item := range view.Items {
			selected := ""
			if item.ID == view.ItemID {
				selected = " selected"
			}
			b.rawf(`<option value="%d"%s>%s</option>`, item.ID, selected, esc(item.Name))
		}
		b.raw(`</select></label>`)
		b.rawf(`<label>Portions<input type="number" name="portions" min="0" step="1" value="%d"></label>`, view.Portions)
		if view.Result != nil {
			writeOverrideFields(b, view)
		}
		b.raw(`<button type="submit">Calculate</button></form>`)

		if view.Result != nil {
			if err := writeResult(ctx, b, view); err != nil {
				return err
			}
		}
		b.raw(`</section>`)
		return nil
	})
}

func writeOverrideFields(b *builder, view CostingView) {
	if len(view.Aggregate) == 0 {
		return
	}
	b.raw(`<fieldset class="overrides"><legend>Quantity per portion</legend>`)
	for _, row := range view.Aggregate {
		value := ""
		if qty, ok := view.Overrides[row.IngredientName]; ok {
			value = strconv.FormatFloat(qty, 'f', -1, 64)
		}
		b.rawf(`<label>%s<input type="number" name="%s" min="0" step="any" value="%s" placeholder="recipe"></label>`,
			esc(row.IngredientName), esc(OverrideFieldPrefix+row.IngredientName), esc(value))
	}
	b.raw(`</fieldset>`)
}

// writeOverrideHidden repeats the active overrides in forms that recompute
// the worksheet from elsewhere, such as grounding.
func writeOverrideHidden(b *builder, overrides costing.Overrides) {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.rawf(`<input type="hidden" name="%s" value="%s">`,
			esc(OverrideFieldPrefix+name), esc(strconv.FormatFloat(overrides[name], 'f', -1, 64)))
	}
}

func writeResult(ctx context.Context, b *builder, view CostingView) error {
	result := view.Result
	if result.HasWarnings() || len(view.Collisions) > 0 {
		if err := b.component(ctx, components.Banner(components.BannerWarning, warningMessage(*result, view.Collisions))); err != nil {
			return err
		}
	}
	if result.Fallback {
		if err := b.component(ctx, components.Banner(components.BannerInfo, "No recipe is linked to this item; the total is estimated from its cost price.")); err != nil {
			return err
		}
	}

	b.raw(`<div class="stat-grid">`)
	stats := []templ.Component{
		components.StatCard("Ingredient cost", FormatCents(view.Currency, result.TotalIngredientCostCents), "", fmt.Sprintf("%d portions", result.Portions)),
		components.StatCard("Cost per portion", FormatCents(view.Currency, result.PortionCostCents()), "", ""),
		components.StatCard("Revenue", FormatCents(view.Currency, result.RevenueCents), "", ""),
		components.StatCard("Gross margin", FormatPercent(result.GrossMarginPercentage), "", ""),
	}
	for _, stat := range stats {
		if err := b.component(ctx, stat); err != nil {
			return err
		}
	}
	b.raw(`</div>`)

	if view.RecipeID != nil {
		b.raw(`<form method="post" action="/app/tools/ground" hx-post="/app/tools/ground" hx-target="#costing-panel" hx-swap="outerHTML" class="ground">`)
		b.rawf(`<input type="hidden" name="recipe_id" value="%d"><input type="hidden" name="item_id" value="%d"><input type="hidden" name="portions" value="%d">`,
			*view.RecipeID, view.ItemID, view.Portions)
		writeOverrideHidden(b, view.Overrides)
		b.raw(`<button type="submit">Ground market prices</button></form>`)
	}

	for _, group := range view.Groups {
		writeGroup(b, view.Currency, group)
	}
	return nil
}

func writeGroup(b *builder, currency string, group costing.Group) {
	b.raw(`<table class="breakdown"><caption>`)
	b.text(group.Label)
	b.raw(`</caption><thead><tr><th>Ingredient</th><th>Quantity</th><th>Unit cost</th><th>Total</th><th>Source</th></tr></thead><tbody>`)
	for _, line := range group.Lines {
		class := ""
		if line.HasError {
			class = ` class="line-error"`
		}
		b.rawf(`<tr%s><td>%s</td><td>%s</td>`, class, esc(line.IngredientName), esc(FormatQuantity(line.QtyRequired, line.Unit)))
		if line.HasError {
			b.rawf(`<td colspan="2">%s</td>`, esc(problemLabel(line.Problem)))
		} else {
			b.rawf(`<td>%s</td><td>%s</td>`, esc(FormatCents(currency, line.UnitCostCents)), esc(FormatCents(currency, line.TotalCostCents)))
		}
		source := "stock"
		if line.IsGrounded {
			source = "market"
		}
		if line.HasError {
			source = ""
		}
		b.rawf(`<td>%s</td></tr>`, esc(DefaultDash(source)))
	}
	b.raw(`</tbody></table>`)
}

func problemLabel(problem costing.Problem) string {
	switch problem {
	case costing.ProblemUnitMismatch:
		return "Unit cannot be converted"
	default:
		return "Ingredient not in registry"
	}
}

func warningMessage(result costing.Result, collisions []costing.Collision) string {
	parts := make([]string, 0, 2+len(collisions))
	if result.RecipeMissing {
		parts = append(parts, "The linked recipe no longer exists.")
	}
	if n := result.ErrorCount(); n == 1 {
		parts = append(parts, "1 line could not be priced; the total is understated.")
	} else if n > 1 {
		parts = append(parts, fmt.Sprintf("%d lines could not be priced; the total is understated.", n))
	}
	for _, c := range collisions {
		parts = append(parts, fmt.Sprintf("Ingredients %s share one name; %q is used.", quoteNames(c.Names), c.Names[0]))
	}
	return strings.Join(parts, " ")
}

func quoteNames(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, strconv.Quote(name))
	}
	return strings.Join(quoted, ", ")
}
