// Package processor converts the pollution CSV exports and the city boundary into GeoJSON layers.
package processor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dresden-air/airmap/internal/config"
	"github.com/dresden-air/airmap/internal/geo"
	"github.com/dresden-air/airmap/internal/observability"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Output formats understood by Encode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ProcessDataset converts one configured CSV file into its GeoJSON layer.
// An existing layer is kept unless force is set; the returned stats are then zero.
func ProcessDataset(cfg *config.Config, ds config.Dataset, force bool, metrics *observability.ConversionMetrics) (Stats, error) {
	destFile := cfg.LayerPath(ds.Name)

	// Check if file exists
	if _, err := os.Stat(destFile); err == nil {
		if !force {
			log.Debug().Str("dataset", ds.Name).Msg("Layer file exists, skipping")
			return Stats{}, nil
		}
	}

	start := time.Now()
	stats, err := convertDataset(cfg, ds, destFile)
	if err != nil {
		metrics.DatasetErrors.WithLabelValues(ds.Name).Inc()
		return stats, err
	}

	metrics.RecordsRead.WithLabelValues(ds.Name).Add(float64(stats.Records))
	metrics.FeaturesWritten.WithLabelValues(ds.Name).Add(float64(stats.Features))
	metrics.RecordsSkipped.WithLabelValues(ds.Name).Add(float64(stats.Skipped))
	metrics.NoDataValues.WithLabelValues(ds.Name).Add(float64(stats.NoData))
	metrics.ConversionDuration.WithLabelValues(ds.Name).Observe(time.Since(start).Seconds())

	log.Info().
		Str("dataset", ds.Name).
		Str("kind", ds.Kind.String()).
		Str("year", ds.Year).
		Int("records", stats.Records).
		Int("features", stats.Features).
		Int("skipped", stats.Skipped).
		Int("no_data", stats.NoData).
		Str("path", destFile).
		Msg("Layer written")

	return stats, nil
}

func convertDataset(cfg *config.Config, ds config.Dataset, destFile string) (Stats, error) {
	column, err := ds.SourceColumn()
	if err != nil {
		return Stats{}, err
	}

	assembly, err := NewAssembly(ds.Kind, ds.Year, column)
	if err != nil {
		return Stats{}, err
	}

	src := cfg.InputPath(ds)
	log.Debug().
		Str("dataset", ds.Name).
		Str("source", src).
		Str("column", column).
		Msg("Reading dataset")

	table, err := ReadTableFile(src)
	if err != nil {
		return Stats{}, fmt.Errorf("read %s: %w", src, err)
	}

	fc, stats, err := BuildFeatures(assembly, table)
	if err != nil {
		return stats, fmt.Errorf("convert %s: %w", src, err)
	}

	if err := saveGeoJSON(filepath.Dir(destFile), destFile, fc); err != nil {
		return stats, fmt.Errorf("write %s: %w", destFile, err)
	}

	return stats, nil
}

// saveGeoJSON marshals the feature collection and writes it to disk.
func saveGeoJSON(dir, path string, fc geo.GeoJSONFeatureCollection) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Encode(f, fc, FormatJSON); err != nil {
		_ = f.Close()
		return err
	}

	// We care about write errors on close
	return f.Close()
}

// Encode writes the collection as indented JSON or as YAML.
// JSON keeps non-ASCII street names unescaped.
func Encode(w io.Writer, fc geo.GeoJSONFeatureCollection, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(fc); err != nil {
			return err
		}
		return enc.Close()

	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(fc)

	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
