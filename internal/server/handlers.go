// Package server handles HTTP requests and middleware.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/woozymasta/antipode/internal/geo"
	"github.com/woozymasta/antipode/internal/metrics"
	"github.com/woozymasta/antipode/internal/tiles"
	"github.com/woozymasta/antipode/internal/view"

	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 10

// AntipodeResponse is returned by the stateless calculator endpoint.
type AntipodeResponse struct {
	Point     geo.Coordinate `json:"point"`
	Antipode  geo.Coordinate `json:"antipode"`
	DistanceM float64        `json:"distance_m"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	etag := s.IndexETag

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleConfig serves the browser visible configuration.
func (s *ServerContext) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.PageConfig())
}

// HandleHealth reports whether the map service is usable.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Failure != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  s.Failure.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleState returns the current frame of the caller's session.
func (s *ServerContext) HandleState(w http.ResponseWriter, r *http.Request) {
	sess := s.Sessions.acquire(w, r)
	frame := sess.ctrl.Frame()
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, frame)
}

// HandleMarkers exports the session markers as GeoJSON.
func (s *ServerContext) HandleMarkers(w http.ResponseWriter, r *http.Request) {
	sess := s.Sessions.acquire(w, r)
	fc := sess.ctrl.Markers()
	sess.mu.Unlock()

	w.Header().Set("Content-Type", "application/geo+json")
	_ = json.NewEncoder(w).Encode(fc)
}

// HandleClick selects the clicked coordinate.
func (s *ServerContext) HandleClick(w http.ResponseWriter, r *http.Request) {
	var c geo.Coordinate
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.transition(w, r, "click", func(_ context.Context, ctrl *view.Controller) error {
		return ctrl.OnMapClicked(c)
	})
}

// HandleGoToAntipode centers the session map on the antipode.
func (s *ServerContext) HandleGoToAntipode(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "antipode", func(_ context.Context, ctrl *view.Controller) error {
		return ctrl.GoToAntipode()
	})
}

// HandleGoBack centers the session map on the selected point.
func (s *ServerContext) HandleGoBack(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "back", func(_ context.Context, ctrl *view.Controller) error {
		return ctrl.GoBackToSelected()
	})
}

// HandleToggleTheme flips and persists the session theme.
func (s *ServerContext) HandleToggleTheme(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "theme", func(ctx context.Context, ctrl *view.Controller) error {
		return ctrl.ToggleTheme(ctx)
	})
}

// transition runs op on the session controller and answers with the new frame.
// A transition that did not redraw the display was a no-op.
func (s *ServerContext) transition(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, *view.Controller) error) {
	sess := s.Sessions.acquire(w, r)
	renders := sess.renders
	err := fn(r.Context(), sess.ctrl)
	applied := sess.renders != renders
	frame := sess.ctrl.Frame()
	sess.mu.Unlock()

	switch {
	case errors.Is(err, view.ErrUnavailable):
		metrics.Transitions.WithLabelValues(op, "unavailable").Inc()
		writeJSON(w, http.StatusServiceUnavailable, frame)
		return
	case err != nil:
		log.Error().Err(err).Str("op", op).Msg("Transition failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	case applied:
		metrics.Transitions.WithLabelValues(op, "applied").Inc()
		if op == "antipode" {
			metrics.AntipodesComputed.Inc()
		}
	default:
		metrics.Transitions.WithLabelValues(op, "noop").Inc()
	}

	writeJSON(w, http.StatusOK, frame)
}

// HandleAntipode is the stateless calculator: GET /api/antipode?lat=..&lng=..
func (s *ServerContext) HandleAntipode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := geo.ParseCoordinate(q.Get("lat"), q.Get("lng"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a := geo.Antipode(p)
	metrics.AntipodesComputed.Inc()

	writeJSON(w, http.StatusOK, AntipodeResponse{
		Point:     p,
		Antipode:  a,
		DistanceM: geo.Distance(p, a),
	})
}

// HandleTile serves /tiles/{z}/{x}/{y}.webp through the caching proxy.
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	if s.Failure != nil || s.Proxy == nil {
		writeError(w, http.StatusServiceUnavailable, view.ErrUnavailable.Error())
		return
	}

	z, errZ := strconv.Atoi(r.PathValue("z"))
	x, errX := strconv.Atoi(r.PathValue("x"))
	y, errY := strconv.Atoi(strings.TrimSuffix(r.PathValue("y"), ".webp"))
	if errZ != nil || errX != nil || errY != nil {
		http.NotFound(w, r)
		return
	}

	data, err := s.Proxy.Tile(r.Context(), geo.Tile{Z: z, X: x, Y: y})
	switch {
	case errors.Is(err, tiles.ErrOutOfRange):
		http.NotFound(w, r)
		return
	case errors.Is(err, tiles.ErrNotFound):
		// cache transparent tile
		w.Header().Set("Content-Type", "image/webp")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(s.TransparentTile)
		return
	case err != nil:
		log.Warn().Err(err).Int("z", z).Int("x", x).Int("y", y).Msg("Upstream tile fetch failed")
		http.Error(w, "upstream tile unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}
