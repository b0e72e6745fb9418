package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/woozymasta/antipode/assets"
	"github.com/woozymasta/antipode/internal/config"
	"github.com/woozymasta/antipode/internal/store"
	"github.com/woozymasta/antipode/internal/tiles"
	"github.com/woozymasta/antipode/internal/view"

	"github.com/rs/zerolog/log"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config          *config.Config
	Proxy           *tiles.Proxy
	Store           store.Store
	Sessions        *Sessions
	Failure         error // map service failure, terminal
	IndexETag       string // content hash of IndexHTML
	IndexHTML       []byte
	Favicon         []byte
	TransparentTile []byte
}

// PageConfig is the configuration exposed to the browser.
type PageConfig struct {
	Title   string         `json:"title"`
	Markers config.Markers `json:"markers"`
	Tiles   pageTiles      `json:"tiles"`
	Zoom    int            `json:"zoom"`
}

type pageTiles struct {
	Attribution string `json:"attribution,omitempty"`
	MaxZoom     int    `json:"max_zoom"`
}

// NewServerContext renders the page and prepares the session registry.
// A non-nil failure puts every session into the unavailable state.
func NewServerContext(cfg *config.Config, proxy *tiles.Proxy, st store.Store, failure error) (*ServerContext, error) {
	log.Info().
		Str("title", cfg.Title).
		Int("zoom", cfg.Zoom).
		Bool("map_available", failure == nil).
		Msg("Initializing server context")

	if st == nil {
		st = store.NewMemory()
	}

	s := &ServerContext{
		Config:          cfg,
		Proxy:           proxy,
		Store:           st,
		Failure:         failure,
		Favicon:         assets.Favicon,
		TransparentTile: tiles.TransparentTile(),
	}

	page, err := assets.Render(assets.PageData{
		Title:       cfg.Title,
		Description: cfg.Description,
		Config:      s.PageConfig(),
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	s.IndexHTML = page
	sum := sha256.Sum256(page)
	s.IndexETag = `"` + hex.EncodeToString(sum[:16]) + `"`

	s.Sessions = NewSessions(DefaultSessionTTL, s.newController)

	log.Info().Int("page_bytes", len(page)).Msg("Server context initialized successfully")
	return s, nil
}

// PageConfig returns the browser visible configuration.
func (s *ServerContext) PageConfig() PageConfig {
	return PageConfig{
		Title:   s.Config.Title,
		Zoom:    s.Config.Zoom,
		Markers: s.Config.Markers,
		Tiles: pageTiles{
			Attribution: s.Config.Tiles.Attribution,
			MaxZoom:     s.Config.Tiles.MaxZoom,
		},
	}
}

func (s *ServerContext) newController(ctx context.Context, id string, display view.Display) *view.Controller {
	c := view.NewController(ctx, store.WithPrefix(s.Store, "antipode:"+id), display, view.Options{
		Zoom:         s.Config.Zoom,
		SelectedIcon: s.Config.Markers.SelectedIcon,
		AntipodeIcon: s.Config.Markers.AntipodeIcon,
	})
	if s.Failure != nil {
		c.Fail(s.Failure)
	}
	return c
}
