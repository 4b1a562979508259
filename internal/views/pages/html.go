// Package pages renders the full pages and HTMX fragments of the workspace.
package pages

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// fragment builds a component from a function that writes into a buffer.
// Child components are rendered through the same buffer.
func fragment(build func(ctx context.Context, b *builder) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		b := &builder{}
		if err := build(ctx, b); err != nil {
			return err
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

type builder struct {
	strings.Builder
}

func (b *builder) raw(s string) {
	b.WriteString(s)
}

func (b *builder) rawf(format string, args ...any) {
	fmt.Fprintf(&b.Builder, format, args...)
}

func (b *builder) text(s string) {
	b.WriteString(templ.EscapeString(s))
}

func (b *builder) component(ctx context.Context, c templ.Component) error {
	if c == nil {
		return nil
	}
	return c.Render(ctx, &b.Builder)
}

func esc(s string) string {
	return templ.EscapeString(s)
}
