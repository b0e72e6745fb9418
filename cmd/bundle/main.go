package main

import (
	"errors"
	"os"

	"github.com/woozymasta/antipode/assets"
	"github.com/woozymasta/antipode/internal/config"
	"github.com/woozymasta/antipode/internal/logger"
	"github.com/woozymasta/antipode/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Output     string `short:"o" long:"out"    description:"Output HTML file" default:"index.html"`
}

func main() {
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
		cfg = config.Default()
	} else if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	sc := &server.ServerContext{Config: cfg}
	page, err := assets.Render(assets.PageData{
		Title:       cfg.Title,
		Description: cfg.Description,
		Config:      sc.PageConfig(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render page")
	}

	if err := os.WriteFile(opts.Output, page, 0644); err != nil {
		log.Fatal().Err(err).Str("path", opts.Output).Msg("Failed to write page")
	}

	log.Info().Str("path", opts.Output).Int("bytes", len(page)).Msg("Bundle done")
}
