package main

import (
	"crypto/tls"
	"net/http"
	"os"
	"time"

	"github.com/dresden-air/airmap/internal/config"
	"github.com/dresden-air/airmap/internal/logger"
	"github.com/dresden-air/airmap/internal/observability"
	"github.com/dresden-air/airmap/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile   string   `short:"c" long:"config"        env:"CONFIG_FILE"  description:"Path to configuration file" default:"config.yaml"`
	Limit        []string `short:"l" long:"limit"         env:"LIMIT_NAMES"  description:"Limit processing to specific dataset names"`
	MetricsFile  string   `short:"m" long:"metrics-file"  env:"METRICS_FILE" description:"Write conversion metrics in Prometheus text format to this file"`
	Timeout      int      `short:"t" long:"timeout"       env:"HTTP_TIMEOUT" description:"Boundary download timeout in seconds" default:"60"`
	BoundaryOnly bool     `short:"b" long:"boundary-only" description:"Fetch the city boundary only"`
	NoBoundary   bool     `short:"B" long:"no-boundary"   description:"Skip the city boundary download"`
	Force        bool     `short:"f" long:"force"         description:"Force overwrite of existing files"`
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
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 60
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto: make(map[string]func(string, *tls.Conn) http.RoundTripper),
		},
		Timeout: time.Duration(opts.Timeout) * time.Second,
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewConversionMetrics(registry)

	// Filter datasets if limit is set
	datasets := cfg.Datasets
	if len(opts.Limit) > 0 {
		datasets = make([]config.Dataset, 0, len(opts.Limit))
		seen := make(map[string]bool)

		for _, limitName := range opts.Limit {
			if seen[limitName] {
				continue
			}
			seen[limitName] = true

			if ds, ok := cfg.Dataset(limitName); ok {
				datasets = append(datasets, ds)
			} else {
				log.Error().
					Str("name", limitName).
					Msg("Dataset specified in --limit not found in configuration")
			}
		}
	}
	if opts.BoundaryOnly {
		datasets = nil
	}

	log.Info().
		Int("datasets_total", len(cfg.Datasets)).
		Int("datasets_queued", len(datasets)).
		Bool("force", opts.Force).
		Msg("Starting converter")

	if cfg.Boundary != nil && !opts.NoBoundary {
		if err := processor.ProcessBoundary(client, cfg, opts.Force); err != nil {
			log.Error().Err(err).Str("layer", cfg.Boundary.Name).Msg("Failed to process boundary")
		}
	}

	failed := 0
	for _, ds := range datasets {
		if _, err := processor.ProcessDataset(cfg, ds, opts.Force, metrics); err != nil {
			failed++
			log.Error().Err(err).Str("dataset", ds.Name).Msg("Failed to process dataset")
		}
	}

	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, registry); err != nil {
			log.Error().Err(err).Str("path", opts.MetricsFile).Msg("Failed to write metrics file")
		}
	}

	if failed > 0 {
		log.Warn().Int("failed", failed).Msg("Converter finished with errors")
		os.Exit(2)
	}

	log.Info().Msg("Converter finished successfully")
}
