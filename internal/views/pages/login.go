package pages

import (
	"context"

	"github.com/a-h/templ"

	"pxi/internal/views/layout"
)

// Login renders the full sign-in page.
func Login(message, email string) templ.Component {
	return layout.Layout("Sign in · PXI", nil, LoginPartial(message, email), false)
}

// LoginPartial renders the sign-in form on its own for HTMX swaps.
func LoginPartial(message, email string) templ.Component {
	return fragment(func(ctx context.Context, b *builder) error {
		b.raw(`<section id="login" class="auth-card"><h1>PXI Costing</h1>`)
		if message != "" {
			b.raw(`<p class="form-error" role="alert">`)
			b.text(message)
			b.raw(`</p>`)
		}
		b.raw(`<form method="post" action="/login" hx-post="/login" hx-target="#login" hx-swap="outerHTML">`)
		b.rawf(`<label>Email<input type="email" name="email" value="%s" required autocomplete="username"></label>`, esc(email))
		b.raw(`<label>Password<input type="password" name="password" required autocomplete="current-password"></label>`)
		b.raw(`<button type="submit">Sign in</button></form><p><a href="/signup">Create an account</a></p></section>`)
		return nil
	})
}
