package handlers

import (
	"errors"
	"net/http"
	"strings"

	applog "pxi/internal/log"
	"pxi/internal/views/pages"
)

const (
	msgLoginMissing     = "Email and password are required."
	msgLoginInvalid     = "Invalid email or password. Please try again."
	msgLoginUnavailable = "We were unable to sign you in. Please try again."
)

// Login renders the sign-in form and opens a tenant session on success. The
// tenant lands on the page they were sent away from, or the worksheet.
func Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if ActiveSession(r) {
			redirectToApp(w, r)
			return
		}
		renderLogin(w, r, "", "")
	case http.MethodPost:
		if sessionManager == nil || database == nil {
			http.Error(w, "authentication not available", http.StatusServiceUnavailable)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.PostFormValue("email"))
		password := r.PostFormValue("password")
		if email == "" || password == "" {
			renderLogin(w, r, msgLoginMissing, email)
			return
		}

		user, err := verifyCredentials(ctx, email, password)
		switch {
		case errors.Is(err, errInvalidCredentials):
			applog.Debug(ctx, "rejected sign-in", "email", strings.ToLower(email))
			renderLogin(w, r, msgLoginInvalid, email)
			return
		case err != nil:
			applog.Error(ctx, "failed to verify credentials", "error", err)
			renderLogin(w, r, msgLoginUnavailable, email)
			return
		}
		if err := startSession(ctx, user); err != nil {
			applog.Error(ctx, "failed to start tenant session", "error", err)
			renderLogin(w, r, msgLoginUnavailable, email)
			return
		}

		applog.Info(ctx, "tenant signed in", "tenant", user.ID)
		redirect(w, r, returnTo(ctx))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func renderLogin(w http.ResponseWriter, r *http.Request, message, email string) {
	renderPage(w, r, pages.Login(message, email), pages.LoginPartial(message, email))
}
