package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	applog "pxi/internal/log"
	"pxi/models"
)

// Session keys. The tenant id doubles as the signed-in marker; every query
// the handlers run is scoped to it.
const (
	sessionUserIDKey    = "tenant:id"
	sessionUserEmailKey = "tenant:email"
	sessionUserNameKey  = "tenant:name"
	sessionReturnToKey  = "tenant:return_to"

	appHome   = "/app/costing"
	appPrefix = "/app/"
	loginPath = "/login"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB

	errInvalidCredentials = errors.New("invalid email or password")
	errAuthUnavailable    = errors.New("authentication is not configured")
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB) {
	sessionManager = sm
	database = db
}

// tenant is the workspace owner attached to a session.
type tenant struct {
	ID    uint
	Email string
	Name  string
}

func currentTenant(r *http.Request) (tenant, bool) {
	if sessionManager == nil {
		return tenant{}, false
	}
	ctx := r.Context()
	id := sessionManager.GetInt(ctx, sessionUserIDKey)
	if id <= 0 {
		return tenant{}, false
	}
	return tenant{
		ID:    uint(id),
		Email: sessionManager.GetString(ctx, sessionUserEmailKey),
		Name:  sessionManager.GetString(ctx, sessionUserNameKey),
	}, true
}

// currentUserID returns the tenant id stored in the session.
func currentUserID(r *http.Request) (uint, bool) {
	t, ok := currentTenant(r)
	return t.ID, ok
}

// ActiveSession reports whether the request belongs to a signed-in tenant.
func ActiveSession(r *http.Request) bool {
	_, ok := currentTenant(r)
	return ok
}

func findUserByEmail(ctx context.Context, db *gorm.DB, email string) (*models.User, error) {
	user := &models.User{}
	err := db.WithContext(ctx).Where("lower(email) = ?", models.NormalizeEmail(email)).First(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// verifyCredentials returns the user for email when password matches. Unknown
// addresses and wrong passwords both yield errInvalidCredentials.
func verifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	if database == nil {
		return nil, errAuthUnavailable
	}
	user, err := findUserByEmail(ctx, database, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return user, nil
}

// startSession rotates the session token and binds it to user.
func startSession(ctx context.Context, user *models.User) error {
	if sessionManager == nil {
		return errAuthUnavailable
	}
	if err := sessionManager.RenewToken(ctx); err != nil {
		return err
	}
	sessionManager.Put(ctx, sessionUserIDKey, int(user.ID))
	sessionManager.Put(ctx, sessionUserEmailKey, user.Email)
	sessionManager.Put(ctx, sessionUserNameKey, user.Name)
	return nil
}

// RequireAuthentication sends anonymous visitors to the login page. Page
// loads under /app/ are remembered so login can return to them.
func RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ActiveSession(r) {
			rememberReturnTo(r)
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func rememberReturnTo(r *http.Request) {
	if sessionManager == nil || r.Method != http.MethodGet || isHTMX(r) {
		return
	}
	if target := r.URL.RequestURI(); safeReturnTo(target) {
		sessionManager.Put(r.Context(), sessionReturnToKey, target)
	}
}

// returnTo pops the remembered page, falling back to the worksheet.
func returnTo(ctx context.Context) string {
	if sessionManager == nil {
		return appHome
	}
	target := sessionManager.PopString(ctx, sessionReturnToKey)
	if !safeReturnTo(target) {
		return appHome
	}
	return target
}

func safeReturnTo(target string) bool {
	return strings.HasPrefix(target, appPrefix) && !strings.HasPrefix(target, appPrefix+"api/") && !strings.Contains(target, "//")
}

// Logout destroys the current session and redirects the user to the login screen.
func Logout(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodPost:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if sessionManager != nil {
		if t, ok := currentTenant(r); ok {
			applog.Info(r.Context(), "tenant signed out", "tenant", t.ID)
		}
		if err := sessionManager.Destroy(r.Context()); err != nil {
			applog.Error(r.Context(), "failed to destroy session", "error", err)
		}
	}

	redirectToLogin(w, r)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirect(w, r, loginPath)
}

func redirectToApp(w http.ResponseWriter, r *http.Request) {
	redirect(w, r, appHome)
}
