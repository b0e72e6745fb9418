package server

import (
	"net/http"

	"github.com/woozymasta/antipode/internal/metrics"
)

// Routes builds the HTTP handler with logging and metrics middleware.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern, route string, h http.HandlerFunc) {
		mux.Handle(pattern, metrics.Middleware(route, h))
	}

	handle("GET /api/config", "config", s.HandleConfig)
	handle("GET /api/state", "state", s.HandleState)
	handle("GET /api/markers.geojson", "markers", s.HandleMarkers)
	handle("GET /api/antipode", "calculate", s.HandleAntipode)
	handle("POST /api/click", "click", s.HandleClick)
	handle("POST /api/antipode", "antipode", s.HandleGoToAntipode)
	handle("POST /api/back", "back", s.HandleGoBack)
	handle("POST /api/theme", "theme", s.HandleToggleTheme)
	handle("GET /tiles/{z}/{x}/{y}", "tile", s.HandleTile)
	handle("GET /healthz", "health", s.HandleHealth)
	handle("GET /favicon.svg", "favicon", s.HandleFavicon)
	handle("GET /", "index", s.HandleIndex)

	mux.Handle("GET /metrics", metrics.Handler())

	return RequestLogger(mux)
}
