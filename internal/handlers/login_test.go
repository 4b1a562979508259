package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func postLogin(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	Login(w, req)
	return w
}

func TestLoginRendersForm(t *testing.T) {
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	w := postLogin(t, withSession(t, sm, httptest.NewRequest(http.MethodGet, "/login", nil)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<!DOCTYPE html>") || !strings.Contains(w.Body.String(), `name="email"`) {
		t.Fatalf("expected full login page: %s", w.Body.String())
	}
}

func TestLoginRedirectsSignedInTenant(t *testing.T) {
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	req := authenticateRequest(t, sm, httptest.NewRequest(http.MethodGet, "/login", nil), 2)
	w := postLogin(t, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != appHome {
		t.Fatalf("expected redirect to the worksheet, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestLoginReturnsToRememberedPage(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	user := registerTestTenant(t, db, "chef@example.com", "password123")

	form := url.Values{}
	form.Set("email", "Chef@Example.com")
	form.Set("password", "password123")
	req := withSession(t, sm, formRequest(t, "/login", form))
	sm.Put(req.Context(), sessionReturnToKey, "/app/procurement")

	w := postLogin(t, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("HX-Redirect") != "/app/procurement" {
		t.Fatalf("expected HX-Redirect to the remembered page, got %d %q", w.Code, w.Header().Get("HX-Redirect"))
	}
	if id, ok := currentUserID(req); !ok || id != user.ID {
		t.Fatalf("expected tenant %d in session, got %d (ok=%t)", user.ID, id, ok)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	registerTestTenant(t, db, "chef@example.com", "password123")

	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{name: "wrong password", email: "chef@example.com", password: "nope", want: msgLoginInvalid},
		{name: "unknown email", email: "cook@example.com", password: "password123", want: msgLoginInvalid},
		{name: "missing password", email: "chef@example.com", want: msgLoginMissing},
	}
	for _, tc := range tests {
		form := url.Values{}
		form.Set("email", tc.email)
		form.Set("password", tc.password)
		req := withSession(t, sm, formRequest(t, "/login", form))

		w := postLogin(t, req)
		out := w.Body.String()
		if w.Code != http.StatusOK || !strings.Contains(out, tc.want) {
			t.Fatalf("%s: expected %q, got %d %s", tc.name, tc.want, w.Code, out)
		}
		if strings.Contains(out, "<!DOCTYPE html>") {
			t.Fatalf("%s: expected the HTMX partial only: %s", tc.name, out)
		}
		if ActiveSession(req) {
			t.Fatalf("%s: expected no session", tc.name)
		}
	}
}

func TestLoginWithoutDatabase(t *testing.T) {
	original := database
	database = nil
	t.Cleanup(func() { database = original })
	_, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	w := postLogin(t, formRequest(t, "/login", url.Values{"email": {"a@b.c"}, "password": {"x"}}))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}
