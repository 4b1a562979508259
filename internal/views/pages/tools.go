package pages

import (
	"context"

	"github.com/a-h/templ"

	"pxi/internal/views/components"
	"pxi/internal/views/layout"
	"pxi/models"
)

// ToolsView carries the state of the import and grounding tools.
type ToolsView struct {
	Recipes []models.Recipe
	Message string
	Error   string
	Details []string
}

// ToolsPage renders the tools inside the application shell.
func ToolsPage(view ToolsView) templ.Component {
	return layout.Layout("Tools · PXI", components.Sidebar(components.DefaultSidebar("tools")), ToolsPanel(view), true)
}

// ToolsPanel renders the recipe import and market price forms.
func ToolsPanel(view ToolsView) templ.Component {
	return fragment(func(ctx context.Context, b *builder) error {
		b.raw(`<section id="tools-panel">`)
		if err := b.component(ctx, components.Banner(components.BannerError, view.Error)); err != nil {
			return err
		}
		if err := b.component(ctx, components.Banner(components.BannerInfo, view.Message)); err != nil {
			return err
		}
		if len(view.Details) > 0 {
			b.raw(`<ul class="tool-details">`)
			for _, detail := range view.Details {
				b.raw(`<li>`)
				b.text(detail)
				b.raw(`</li>`)
			}
			b.raw(`</ul>`)
		}

		b.raw(`<form method="post" action="/app/tools/import-recipe" enctype="multipart/form-data" hx-post="/app/tools/import-recipe" hx-encoding="multipart/form-data" hx-target="#tools-panel" hx-swap="outerHTML">`)
		b.raw(`<h2>Import recipe</h2><label>Name<input type="text" name="name"></label>`)
		b.raw(`<label>Recipe text<textarea name="text" rows="8"></textarea></label>`)
		b.raw(`<label>Or upload<input type="file" name="file" accept=".pdf,.txt,text/plain,application/pdf"></label>`)
		b.raw(`<button type="submit">Import</button></form>`)

		b.raw(`<form method="post" action="/app/tools/ground" hx-post="/app/tools/ground" hx-target="#tools-panel" hx-swap="outerHTML">`)
		b.raw(`<h2>Ground market prices</h2><label>Recipe<select name="recipe_id">`)
		for _, recipe := range view.Recipes {
			b.rawf(`<option value="%d">%s</option>`, recipe.ID, esc(recipe.Name))
		}
		b.raw(`</select></label><button type="submit">Fetch prices</button></form>`)
		b.raw(`</section>`)
		return nil
	})
}
