package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pxi/internal/handlers"
	applog "pxi/internal/log"
)

type route struct {
	path      string
	handler   http.HandlerFunc
	protected bool
}

var routes = []route{
	{path: "/healthz", handler: handlers.Health},
	{path: "/login", handler: handlers.Login},
	{path: "/signup", handler: handlers.Signup},
	{path: "/logout", handler: handlers.Logout},
	{path: "/app/api/ingredients", handler: handlers.IngredientResource, protected: true},
	{path: "/app/api/ingredients/", handler: handlers.IngredientResource, protected: true},
	{path: "/app/api/recipes", handler: handlers.RecipeResource, protected: true},
	{path: "/app/api/recipes/", handler: handlers.RecipeResource, protected: true},
	{path: "/app/api/items", handler: handlers.ItemResource, protected: true},
	{path: "/app/api/items/", handler: handlers.ItemResource, protected: true},
	{path: "/app/api/costing", handler: handlers.CostingAPI, protected: true},
	{path: "/app/api/procurement", handler: handlers.ProcurementAPI, protected: true},
	{path: "/app/costing", handler: handlers.CostingWorksheet, protected: true},
	{path: "/app/procurement", handler: handlers.Procurement, protected: true},
	{path: "/app/tools", handler: handlers.Tools, protected: true},
	{path: "/app/tools/ground", handler: handlers.ToolsGround, protected: true},
	{path: "/app/tools/import-recipe", handler: handlers.ToolsImportRecipe, protected: true},
	{path: "/", handler: handlers.Home},
}

func newRouter(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	for _, rt := range routes {
		var h http.Handler = rt.handler
		if rt.protected {
			h = handlers.RequireAuthentication(h)
		}
		mux.Handle(rt.path, h)
		applog.Debug(context.Background(), "route registered", "path", rt.path, "protected", rt.protected)
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	applog.Debug(context.Background(), "route registered", "path", "/metrics")
	return mux
}
