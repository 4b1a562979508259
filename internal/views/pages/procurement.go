package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"pxi/internal/costing"
	"pxi/internal/views/components"
	"pxi/internal/views/layout"
	"pxi/models"
)

// PortionsFieldPrefix prefixes the per-item portion fields of the report form.
const PortionsFieldPrefix = "portions."

// ProcurementView carries the consolidated report form and its result.
type ProcurementView struct {
	Currency string
	Items    []models.Item
	Portions map[uint]int
	Report   *costing.ProcurementReport
	Error    string
}

// ProcurementPage renders the report inside the application shell.
func ProcurementPage(view ProcurementView) templ.Component {
	return layout.Layout("Procurement · PXI", components.Sidebar(components.DefaultSidebar("procurement")), ProcurementPanel(view), true)
}

// ProcurementPanel renders the request form and, when present, the report.
func ProcurementPanel(view ProcurementView) templ.Component {
	return fragment(func(ctx context.Context, b *builder) error {
		b.raw(`<section id="procurement-panel">`)
		if err := b.component(ctx, components.Banner(components.BannerError, view.Error)); err != nil {
			return err
		}
		b.raw(`<form method="post" action="/app/procurement" hx-post="/app/procurement" hx-target="#procurement-panel" hx-swap="outerHTML"><table class="requests"><thead><tr><th>Item</th><th>Portions</th></tr></thead><tbody>`)
		for _, item := range view.Items {
			value := ""
			if n, ok := view.Portions[item.ID]; ok {
				value = fmt.Sprint(n)
			}
			b.rawf(`<tr><td>%s</td><td><input type="number" min="0" step="1" name="%s%d" value="%s"></td></tr>`,
				esc(item.Name), PortionsFieldPrefix, item.ID, value)
		}
		b.raw(`</tbody></table><button type="submit">Build report</button></form>`)
		if view.Report != nil {
			if err := writeReport(ctx, b, view.Currency, *view.Report); err != nil {
				return err
			}
		}
		b.raw(`</section>`)
		return nil
	})
}

func writeReport(ctx context.Context, b *builder, currency string, report costing.ProcurementReport) error {
	b.raw(`<article class="report"><header>`)
	b.rawf(`<h2>Bill of Quantities %s</h2><p>Run date %s</p></header>`, esc(report.LotNumber), esc(FormatReportDate(report.RunDate)))
	if report.WarningCount > 0 {
		message := fmt.Sprintf("%d lines could not be priced; totals are understated.", report.WarningCount)
		if err := b.component(ctx, components.Banner(components.BannerWarning, message)); err != nil {
			return err
		}
	}

	b.raw(`<table class="report-items"><thead><tr><th>Item</th><th>Portions</th><th>Cost</th><th>Revenue</th><th>Margin</th></tr></thead><tbody>`)
	for _, item := range report.Items {
		name := item.ItemName
		if item.Fallback {
			name += " (estimated)"
		}
		b.rawf(`<tr><td>%s</td><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			esc(name), item.Portions,
			esc(FormatCents(currency, item.TotalIngredientCostCents)),
			esc(FormatCents(currency, item.RevenueCents)),
			esc(FormatPercent(item.GrossMarginPercentage)))
	}
	b.rawf(`</tbody><tfoot><tr><th colspan="2">Total</th><th>%s</th><th>%s</th><th>%s</th></tr></tfoot></table>`,
		esc(FormatCents(currency, report.TotalIngredientCostCents)),
		esc(FormatCents(currency, report.RevenueCents)),
		esc(FormatPercent(report.GrossMarginPercentage)))

	b.raw(`<table class="report-rows"><thead><tr><th>Ingredient</th><th>Quantity</th><th>Cost</th><th>Used in</th></tr></thead><tbody>`)
	for _, row := range report.Rows {
		class := ""
		if row.HasError {
			class = ` class="line-error"`
		}
		qty := FormatQuantity(row.Quantity, row.Unit)
		if row.MixedUnits {
			qty += " + other units"
		}
		b.rawf(`<tr%s><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			class, esc(row.IngredientName), esc(qty),
			esc(FormatCents(currency, row.TotalCostCents)),
			esc(DefaultDash(strings.Join(nonEmpty(row.Groups), ", "))))
	}
	b.raw(`</tbody></table></article>`)
	return nil
}

func nonEmpty(values []string) []string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			kept = append(kept, v)
		}
	}
	return kept
}
