package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

// AddRoutes registers the service-wide endpoints next to the API.
func AddRoutes(r chi.Router, api *API) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("DailyFocus API", "/openapi.json", "/docs"))
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/api", api.Routes())
}
