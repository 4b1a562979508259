package pages

import (
	"context"

	"github.com/a-h/templ"

	"pxi/internal/views/layout"
)

// Signup renders the full account creation page.
func Signup(message, name, email string) templ.Component {
	return layout.Layout("Create account · PXI", nil, SignupPartial(message, name, email), false)
}

// SignupPartial renders the account form on its own for HTMX swaps.
func SignupPartial(message, name, email string) templ.Component {
	return fragment(func(ctx context.Context, b *builder) error {
		b.raw(`<section id="signup" class="auth-card"><h1>Create your kitchen</h1>`)
		if message != "" {
			b.raw(`<p class="form-error" role="alert">`)
			b.text(message)
			b.raw(`</p>`)
		}
		b.raw(`<form method="post" action="/signup" hx-post="/signup" hx-target="#signup" hx-swap="outerHTML">`)
		b.rawf(`<label>Name<input type="text" name="name" value="%s"></label>`, esc(name))
		b.rawf(`<label>Email<input type="email" name="email" value="%s" required></label>`, esc(email))
		b.raw(`<label>Password<input type="password" name="password" minlength="8" required></label>`)
		b.raw(`<label>Confirm password<input type="password" name="confirm_password" minlength="8" required></label>`)
		b.raw(`<label class="checkbox"><input type="checkbox" name="starter" value="on" checked>Start with a sample recipe</label>`)
		b.raw(`<button type="submit">Create account</button></form><p><a href="/login">Already have an account?</a></p></section>`)
		return nil
	})
}
