// Package layout renders the HTML document shell.
package layout

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Layout wraps content in the application document. The sidebar is rendered
// only for authenticated pages.
func Layout(title string, sidebar, content templ.Component, authenticated bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		bodyClass := "public"
		if authenticated {
			bodyClass = "workspace"
		}
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title><script src="https://unpkg.com/htmx.org@1.9.12"></script></head><body class="%s">`,
			templ.EscapeString(title), bodyClass); err != nil {
			return err
		}
		if authenticated && sidebar != nil {
			if err := sidebar.Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `<main id="content">`); err != nil {
			return err
		}
		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}
