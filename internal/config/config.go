// Package config handles configuration loading and shared data structures.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Normalize.
const (
	DefaultTitle       = "Antipode Explorer"
	DefaultZoom        = 3
	DefaultMaxZoom     = 6
	DefaultTileURL     = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution = "&copy; OpenStreetMap contributors"
	DefaultCacheDir    = "tiles"
)

// Config represents the root configuration file structure.
type Config struct {
	Title       string  `yaml:"title,omitempty" json:"title"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Tiles       Tiles   `yaml:"tiles" json:"tiles"`
	Markers     Markers `yaml:"markers,omitempty" json:"markers"`
	Store       Store   `yaml:"store,omitempty" json:"-"`
	Zoom        int     `yaml:"zoom,omitempty" json:"zoom"`
}

// Tiles describes the upstream map service and the local tile cache.
type Tiles struct {
	Cache Cache `yaml:"cache,omitempty" json:"-"`

	// URL template, e.g. https://{s}.example.com/{z}/{x}/{y}.png?key={key}
	URL         string   `yaml:"url" json:"-"`
	Attribution string   `yaml:"attribution,omitempty" json:"attribution,omitempty"`
	APIKeyEnv   string   `yaml:"api_key_env,omitempty" json:"-"` // env variable holding {key}
	Subdomains  []string `yaml:"subdomains,omitempty" json:"-"`
	MaxZoom     int      `yaml:"max_zoom,omitempty" json:"max_zoom"`
	SkipProbe   bool     `yaml:"skip_probe,omitempty" json:"-"`
}

// Cache selects where proxied tiles are kept.
type Cache struct {
	Backend   string `yaml:"backend,omitempty"` // disk or s3
	Dir       string `yaml:"dir,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
}

// Markers configures how the selected point and its antipode are drawn.
type Markers struct {
	SelectedColor string `yaml:"selected_color,omitempty" json:"selected_color"`
	AntipodeColor string `yaml:"antipode_color,omitempty" json:"antipode_color"`
	SelectedIcon  string `yaml:"selected_icon,omitempty" json:"selected_icon,omitempty"`
	AntipodeIcon  string `yaml:"antipode_icon,omitempty" json:"antipode_icon,omitempty"`
}

// Store selects the theme persistence backend.
type Store struct {
	Backend  string `yaml:"backend,omitempty"` // memory, file, redis, valkey
	Path     string `yaml:"path,omitempty"`
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// Default returns a configuration using public OpenStreetMap tiles.
func Default() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()
	return &cfg, nil
}

// Normalize fills unset fields with defaults.
func (c *Config) Normalize() {
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Zoom <= 0 {
		c.Zoom = DefaultZoom
	}

	if c.Tiles.URL == "" {
		c.Tiles.URL = DefaultTileURL
		if c.Tiles.Attribution == "" {
			c.Tiles.Attribution = DefaultAttribution
		}
	}
	if c.Tiles.MaxZoom <= 0 {
		c.Tiles.MaxZoom = DefaultMaxZoom
	}
	if c.Tiles.Cache.Backend == "" {
		c.Tiles.Cache.Backend = "disk"
	}
	if c.Tiles.Cache.Backend == "disk" && c.Tiles.Cache.Dir == "" {
		c.Tiles.Cache.Dir = DefaultCacheDir
	}

	if c.Markers.SelectedColor == "" {
		c.Markers.SelectedColor = "#e53935"
	}
	if c.Markers.AntipodeColor == "" {
		c.Markers.AntipodeColor = "#1e88e5"
	}

	c.Store.Backend = strings.ToLower(c.Store.Backend)
}

// APIKey returns the map service key from the configured environment variable.
// ok is false when a key is required but not set.
func (t Tiles) APIKey() (key string, ok bool) {
	if t.APIKeyEnv == "" {
		return "", true
	}
	key = os.Getenv(t.APIKeyEnv)
	return key, key != ""
}
