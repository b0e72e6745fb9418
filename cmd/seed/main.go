package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/woozymasta/antipode/internal/config"
	"github.com/woozymasta/antipode/internal/geo"
	"github.com/woozymasta/antipode/internal/logger"
	"github.com/woozymasta/antipode/internal/tiles"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile   string   `short:"c" long:"config"        env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Around       []string `short:"a" long:"around"        description:"Seed only around lat,lng (repeatable)"`
	MinZoom      int      `long:"min-zoom"                description:"First zoom level to seed" default:"0"`
	MaxZoom      int      `short:"z" long:"max-zoom"      env:"ZOOM_LIMIT"  description:"Last zoom level to seed, 0 uses the source limit"`
	Concurrency  int      `short:"p" long:"concurrency"   env:"CONCURRENCY" description:"Concurrency" default:"16"`
	WithAntipode bool     `short:"A" long:"with-antipode" description:"Also seed around the antipode of every --around point"`
}

func main() {
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", opts.ConfigFile).Msg("Configuration file not found, using defaults")
		cfg = config.Default()
	} else if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	points := make([]geo.Coordinate, 0, len(opts.Around)*2)
	for _, raw := range opts.Around {
		lat, lng, ok := strings.Cut(raw, ",")
		if !ok {
			log.Fatal().Str("value", raw).Msg("--around expects lat,lng")
		}
		p, err := geo.ParseCoordinate(strings.TrimSpace(lat), strings.TrimSpace(lng))
		if err != nil {
			log.Fatal().Err(err).Str("value", raw).Msg("Invalid --around point")
		}
		points = append(points, p)
		if opts.WithAntipode {
			points = append(points, geo.Antipode(p))
		}
	}

	key, ok := cfg.Tiles.APIKey()
	if !ok {
		log.Fatal().Str("env", cfg.Tiles.APIKeyEnv).Msg("Map service key is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := tiles.OpenCache(ctx, cfg.Tiles.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open tile cache")
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: 15 * time.Second,
	}
	proxy := tiles.NewProxy(client, tiles.NewSource(cfg.Tiles, key), cache)

	log.Info().
		Int("points", len(points)).
		Int("min_zoom", opts.MinZoom).
		Int("max_zoom", opts.MaxZoom).
		Int("concurrency", opts.Concurrency).
		Msg("Starting tile seeding")

	res, err := proxy.Seed(ctx, tiles.SeedOptions{
		Around:      points,
		MinZoom:     opts.MinZoom,
		MaxZoom:     opts.MaxZoom,
		Concurrency: opts.Concurrency,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding interrupted")
	}

	log.Info().
		Int("fetched", res.Fetched).
		Int("missing", res.Missing).
		Int("failed", res.Failed).
		Msg("Seeding finished successfully")
}
