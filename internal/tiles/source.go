// Package tiles proxies and caches raster tiles from the upstream map service.
package tiles

import (
	"strconv"
	"strings"

	"github.com/woozymasta/antipode/internal/config"
	"github.com/woozymasta/antipode/internal/geo"
)

// Source is an upstream tile URL template.
//
// Supported placeholders: {z} {x} {y} {tms_y} {s} {key}.
type Source struct {
	Template   string
	Key        string
	Subdomains []string
	MaxZoom    int
}

// NewSource builds a source from configuration and the resolved API key.
func NewSource(cfg config.Tiles, key string) Source {
	return Source{
		Template:   cfg.URL,
		Key:        key,
		Subdomains: cfg.Subdomains,
		MaxZoom:    cfg.MaxZoom,
	}
}

// URL expands the template for tile t.
func (s Source) URL(t geo.Tile) string {
	u := strings.ReplaceAll(s.Template, "{z}", strconv.Itoa(t.Z))
	u = strings.ReplaceAll(u, "{x}", strconv.Itoa(t.X))
	u = strings.ReplaceAll(u, "{y}", strconv.Itoa(t.Y))

	if strings.Contains(u, "{tms_y}") {
		maxCoord := (1 << t.Z) - 1
		u = strings.ReplaceAll(u, "{tms_y}", strconv.Itoa(maxCoord-t.Y))
	}

	if strings.Contains(u, "{s}") {
		sub := "a"
		if len(s.Subdomains) > 0 {
			sub = s.Subdomains[(t.X+t.Y)%len(s.Subdomains)]
		}
		u = strings.ReplaceAll(u, "{s}", sub)
	}

	return strings.ReplaceAll(u, "{key}", s.Key)
}

// Valid reports whether t addresses an existing tile within the zoom limit.
func (s Source) Valid(t geo.Tile) bool {
	if t.Z < 0 || (s.MaxZoom > 0 && t.Z > s.MaxZoom) || t.Z > 30 {
		return false
	}
	n := 1 << t.Z
	return t.X >= 0 && t.X < n && t.Y >= 0 && t.Y < n
}
