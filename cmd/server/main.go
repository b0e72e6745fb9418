package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/antipode/internal/config"
	"github.com/woozymasta/antipode/internal/logger"
	"github.com/woozymasta/antipode/internal/server"
	"github.com/woozymasta/antipode/internal/store"
	"github.com/woozymasta/antipode/internal/tiles"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile   string        `short:"c" long:"config"        env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr         string        `short:"a" long:"addr"          env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port         int           `short:"p" long:"port"          env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	Zoom         int           `short:"z" long:"zoom"          env:"MAP_ZOOM"       description:"Initial map zoom, overrides config"`
	SessionTTL   time.Duration `long:"session-ttl"             env:"SESSION_TTL"    description:"Drop view state of idle sessions after" default:"30m"`
	ProbeTimeout time.Duration `long:"probe-timeout"           env:"PROBE_TIMEOUT"  description:"Map service probe timeout" default:"10s"`
}

func main() {
	// .env is optional, real environment wins
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "Loaded environment from .env")
	}

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", opts.ConfigFile).Msg("Configuration file not found, using defaults")
		cfg = config.Default()
	} else if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.Zoom > 0 {
		cfg.Zoom = opts.Zoom
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open theme store")
	}
	defer func() { _ = st.Close() }()

	cache, err := tiles.OpenCache(ctx, cfg.Tiles.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open tile cache")
	}

	client := &http.Client{Timeout: 15 * time.Second}
	key, haveKey := cfg.Tiles.APIKey()
	proxy := tiles.NewProxy(client, tiles.NewSource(cfg.Tiles, key), cache)

	failure := checkMapService(ctx, cfg, proxy, haveKey, opts.ProbeTimeout)

	srvCtx, err := server.NewServerContext(cfg, proxy, st, failure)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}
	srvCtx.Sessions.SetTTL(opts.SessionTTL)
	go srvCtx.Sessions.Run(ctx, time.Minute)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	httpSrv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("addr", listenAddr).
		Str("store", cfg.Store.Backend).
		Str("tile_cache", cfg.Tiles.Cache.Backend).
		Int("default_zoom", cfg.Zoom).
		Bool("map_available", failure == nil).
		Msg("Web server started")

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Web server stopped")
}

// checkMapService returns the terminal failure of the map service, if any.
func checkMapService(ctx context.Context, cfg *config.Config, proxy *tiles.Proxy, haveKey bool, timeout time.Duration) error {
	if !haveKey {
		err := fmt.Errorf("map service key %s is not set", cfg.Tiles.APIKeyEnv)
		log.Error().Err(err).Msg("Map service unavailable")
		return err
	}
	if cfg.Tiles.SkipProbe {
		return nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := proxy.Probe(probeCtx); err != nil {
		log.Error().Err(err).Msg("Map service unavailable")
		return err
	}

	log.Info().Msg("Map service reachable")
	return nil
}
