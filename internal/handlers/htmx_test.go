package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/a-h/templ"
)

func textComponent(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func TestIsHTMX(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTMX(req) {
		t.Fatal("expected false when no HTMX headers present")
	}
	req.Header.Set("HX-Boosted", "true")
	if !isHTMX(req) {
		t.Fatal("expected true for boosted navigation")
	}
}

func TestRenderPagePicksFragment(t *testing.T) {
	t.Parallel()

	page, fragment := textComponent("page"), textComponent("fragment")

	w := httptest.NewRecorder()
	renderPage(w, httptest.NewRequest(http.MethodGet, "/app/tools", nil), page, fragment)
	if w.Body.String() != "page" {
		t.Fatalf("expected full page, got %q", w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/app/tools", nil)
	req.Header.Set("HX-Request", "true")
	w = httptest.NewRecorder()
	renderPage(w, req, page, fragment)
	if w.Body.String() != "fragment" {
		t.Fatalf("expected fragment, got %q", w.Body.String())
	}
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	redirectToApp(w, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("HX-Redirect") != "/app/costing" {
		t.Fatalf("expected HX-Redirect to the worksheet, got %d %q", w.Code, w.Header().Get("HX-Redirect"))
	}

	w = httptest.NewRecorder()
	redirectToLogin(w, httptest.NewRequest(http.MethodGet, "/app", nil))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestTrigger(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	trigger(w, httptest.NewRequest(http.MethodPost, "/app/costing", nil), eventCostingUpdated)
	if got := w.Header().Get("HX-Trigger"); got != "" {
		t.Fatalf("expected no trigger outside HTMX, got %q", got)
	}

	req := httptest.NewRequest(http.MethodPost, "/app/costing", nil)
	req.Header.Set("HX-Request", "true")
	w = httptest.NewRecorder()
	trigger(w, req, eventPricesGrounded, eventCostingUpdated)
	if got := w.Header().Get("HX-Trigger"); got != "prices-grounded, costing-updated" {
		t.Fatalf("unexpected trigger %q", got)
	}
}

func TestWorksheetAnnouncesRecompute(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	k := seedKitchen(t, db, "owner@example.com")

	form := url.Values{}
	form.Set("item_id", fmtUint(k.jollof.ID))
	form.Set("portions", "10")
	req := authenticateRequest(t, sm, formRequest(t, "/app/costing", form), k.owner.ID)
	w := httptest.NewRecorder()
	CostingWorksheet(w, req)
	if got := w.Header().Get("HX-Trigger"); got != eventCostingUpdated {
		t.Fatalf("expected costing-updated trigger, got %q", got)
	}

	form.Set("recipe_id", fmtUint(k.recipe.ID))
	withGrounder(t, &stubGrounder{})
	req = authenticateRequest(t, sm, formRequest(t, "/app/tools/ground", form), k.owner.ID)
	w = httptest.NewRecorder()
	ToolsGround(w, req)
	if got := w.Header().Get("HX-Trigger"); got != "prices-grounded, costing-updated" {
		t.Fatalf("expected grounding triggers, got %q", got)
	}
}
