package handlers

import (
	"context"
	"net/http"
	"time"

	applog "pxi/internal/log"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"

	componentUp       = "up"
	componentDown     = "down"
	componentDisabled = "disabled"

	healthPingTimeout = 2 * time.Second
)

type healthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	AI       string    `json:"ai"`
	Currency string    `json:"currency"`
	Time     time.Time `json:"time"`
}

// Health reports whether the costing backend can serve tenants. A configured
// but unreachable database answers 503; a missing AI key only disables
// grounding and recipe import.
func Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   statusOK,
		Database: databaseState(r.Context()),
		AI:       componentDisabled,
		Currency: currency,
		Time:     time.Now().UTC(),
	}
	if groundService != nil || recipeExtractor != nil {
		resp.AI = componentUp
	}

	code := http.StatusOK
	if resp.Database == componentDown {
		resp.Status = statusDegraded
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func databaseState(ctx context.Context) string {
	if database == nil {
		return componentDisabled
	}
	sqlDB, err := database.DB()
	if err != nil {
		applog.Error(ctx, "health check could not reach database handle", "error", err)
		return componentDown
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		applog.Error(ctx, "health check database ping failed", "error", err)
		return componentDown
	}
	return componentUp
}
