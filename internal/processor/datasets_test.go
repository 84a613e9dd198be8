package processor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dresden-air/airmap/internal/config"
	"github.com/dresden-air/airmap/internal/dataset"
	"github.com/dresden-air/airmap/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		InputDir:  filepath.Join(dir, "in"),
		OutputDir: filepath.Join(dir, "out"),
		Datasets: []config.Dataset{{
			Name:  "no2_strasse_2015",
			Kind:  dataset.KindNO2Street,
			Year:  "2015",
			Input: "NO2 - Straßenrandbelastung (2015).csv",
		}},
	}
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0o755))
	require.NoError(t, os.WriteFile(cfg.InputPath(cfg.Datasets[0]), []byte(streetCSV), 0o644))
	return cfg
}

func TestProcessDataset(t *testing.T) {
	cfg := newTestConfig(t)
	ds := cfg.Datasets[0]
	metrics := observability.NewConversionMetrics(prometheus.NewRegistry())

	stats, err := ProcessDataset(cfg, ds, false, metrics)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Features)

	data, err := os.ReadFile(cfg.LayerPath(ds.Name))
	require.NoError(t, err)

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Type       string                 `json:"type"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 3)
	assert.Equal(t, "2015", doc.Features[0].Properties["jahr"])

	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.RecordsRead.WithLabelValues(ds.Name)))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.FeaturesWritten.WithLabelValues(ds.Name)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsSkipped.WithLabelValues(ds.Name)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.NoDataValues.WithLabelValues(ds.Name)))
}

func TestProcessDataset_SkipsExisting(t *testing.T) {
	cfg := newTestConfig(t)
	ds := cfg.Datasets[0]
	metrics := observability.NewConversionMetrics(prometheus.NewRegistry())

	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(cfg.LayerPath(ds.Name), []byte("{}"), 0o644))

	stats, err := ProcessDataset(cfg, ds, false, metrics)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	data, err := os.ReadFile(cfg.LayerPath(ds.Name))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	stats, err = ProcessDataset(cfg, ds, true, metrics)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Features)
}

func TestProcessDataset_Errors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		cfg := newTestConfig(t)
		ds := cfg.Datasets[0]
		ds.Input = "missing.csv"
		metrics := observability.NewConversionMetrics(prometheus.NewRegistry())

		_, err := ProcessDataset(cfg, ds, false, metrics)
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DatasetErrors.WithLabelValues(ds.Name)))

		_, statErr := os.Stat(cfg.LayerPath(ds.Name))
		assert.ErrorIs(t, statErr, os.ErrNotExist)
	})

	t.Run("missing 2019 column", func(t *testing.T) {
		cfg := newTestConfig(t)
		ds := cfg.Datasets[0]
		ds.Year = "2019"
		require.NoError(t, os.WriteFile(cfg.InputPath(ds), []byte("shape;no2_i1\nLINESTRING(1 2, 3 4);5\n"), 0o644))

		_, err := ProcessDataset(cfg, ds, false, observability.NewConversionMetrics(prometheus.NewRegistry()))
		assert.ErrorIs(t, err, ErrMissingColumn)
	})
}
