package handlers

import (
	"net/http"
)

// Home sends visitors to the worksheet when signed in and to the login page
// otherwise. Unknown paths are not found.
func Home(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/", "/app", "/app/":
	default:
		http.NotFound(w, r)
		return
	}
	if ActiveSession(r) {
		http.Redirect(w, r, appHome, http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}
