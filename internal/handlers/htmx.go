package handlers

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

const (
	hxRequestHeader  = "HX-Request"
	hxBoostedHeader  = "HX-Boosted"
	hxRedirectHeader = "HX-Redirect"
	hxTriggerHeader  = "HX-Trigger"

	// eventCostingUpdated fires whenever the worksheet shows a fresh result.
	eventCostingUpdated = "costing-updated"
	// eventPricesGrounded fires after market prices were written.
	eventPricesGrounded = "prices-grounded"
)

func isHTMX(r *http.Request) bool {
	return r.Header.Get(hxRequestHeader) == "true" || r.Header.Get(hxBoostedHeader) == "true"
}

// renderPage writes the fragment for HTMX swaps and the full page otherwise.
func renderPage(w http.ResponseWriter, r *http.Request, page, fragment templ.Component) {
	if isHTMX(r) {
		renderComponent(w, r, fragment)
		return
	}
	renderComponent(w, r, page)
}

// redirect navigates the browser to target. HTMX requests get HX-Redirect so
// the whole document changes instead of the swap target.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set(hxRedirectHeader, target)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// trigger announces client events on HTMX responses. It must run before the
// body is written.
func trigger(w http.ResponseWriter, r *http.Request, events ...string) {
	if !isHTMX(r) || len(events) == 0 {
		return
	}
	w.Header().Set(hxTriggerHeader, strings.Join(events, ", "))
}
