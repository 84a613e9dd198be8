package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/dresden-air/airmap/internal/config"
	"github.com/dresden-air/airmap/internal/dataset"
	"github.com/dresden-air/airmap/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const streetLayer = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[13.7373, 51.0504], [13.7401, 51.0511]]},
      "properties": {"strname": "Prager Straße", "no2_i1": 41.004, "jahr": "2019"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[13.70, 51.03], [13.71, 51.04]]},
      "properties": {"strname": "Budapester Straße", "no2_i1": null, "jahr": "2019"}
    }
  ]
}
`

const boundaryLayer = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[13.6, 51.0], [13.7, 51.1]]]]},
      "properties": {"name": "Dresden Stadtgrenze"}
    }
  ]
}
`

type testEnv struct {
	ctx     *ServerContext
	handler http.Handler
	metrics *observability.ServerMetrics
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	cfg := &config.Config{
		OutputDir: t.TempDir(),
		Boundary:  &config.Boundary{Name: "dresden_grenze"},
		Datasets: []config.Dataset{
			{Name: "pm10_strasse_2019", Kind: dataset.KindPM10Street, Year: "2019"},
			{Name: "no2_strasse_2019", Kind: dataset.KindNO2Street, Year: "2019"},
			{Name: "no2_strasse_2011", Kind: dataset.KindNO2Street, Year: "2011"},
		},
	}
	require.NoError(t, os.WriteFile(cfg.LayerPath("no2_strasse_2019"), []byte(streetLayer), 0o644))
	require.NoError(t, os.WriteFile(cfg.LayerPath("no2_strasse_2011"), []byte(streetLayer), 0o644))
	require.NoError(t, os.WriteFile(cfg.LayerPath("dresden_grenze"), []byte(boundaryLayer), 0o644))

	metrics := observability.NewServerMetrics(prometheus.NewRegistry())
	ctx := NewServerContext(cfg, metrics)

	return testEnv{ctx: ctx, handler: RequestLogger(ctx.Routes()), metrics: metrics}
}

func (e testEnv) get(t *testing.T, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestNewServerContext(t *testing.T) {
	env := newTestEnv(t)

	names := make([]string, 0, len(env.ctx.Layers))
	for _, l := range env.ctx.Layers {
		names = append(names, l.Name)
	}
	// missing pm10 file is skipped, boundary first, then by year
	assert.Equal(t, []string{"dresden_grenze", "no2_strasse_2011", "no2_strasse_2019"}, names)
	assert.Equal(t, 3.0, testutil.ToFloat64(env.metrics.LayersLoaded))

	_, ok := env.ctx.Layer("pm10_strasse_2019")
	assert.False(t, ok)
}

func TestHandleLayersList(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/layers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Layers []struct {
			Name    string `json:"name"`
			Kind    string `json:"kind"`
			Year    string `json:"year"`
			Profile struct {
				Geometry      string `json:"geometry"`
				ValueProperty string `json:"value_property"`
				Tooltips      []struct {
					Field string `json:"field"`
					Alias string `json:"alias"`
				} `json:"tooltips"`
			} `json:"profile"`
		} `json:"layers"`
		Classes []dataset.ColorClass `json:"classes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.Layers, 3)
	street := body.Layers[2]
	assert.Equal(t, "no2_strasse_2019", street.Name)
	assert.Equal(t, "no2_street", street.Kind)
	assert.Equal(t, "line", street.Profile.Geometry)
	assert.Equal(t, "no2_i1", street.Profile.ValueProperty)
	require.Len(t, street.Profile.Tooltips, 2)
	assert.Equal(t, "jahr", street.Profile.Tooltips[1].Field)

	assert.Equal(t, dataset.Classes, body.Classes)
}

func TestHandleLayer_Prepared(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/layers/no2_strasse_2019.geojson", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	var fc struct {
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))

	// the feature without a value is not served
	require.Len(t, fc.Features, 1)
	props := fc.Features[0].Properties
	assert.Equal(t, 41.0, props["no2_i1"])
	assert.Equal(t, "2019", props["jahr"])

	style, ok := props[dataset.StyleProperty].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "#FF0000", style["color"])
	assert.Equal(t, 3.0, style["weight"])
}

func TestHandleLayer_Raw(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/layers/dresden_grenze.geojson", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// minified, but the same document
	assert.Less(t, rec.Body.Len(), len(boundaryLayer))

	var got, want interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NoError(t, json.Unmarshal([]byte(boundaryLayer), &want))
	assert.Equal(t, want, got)

	rec = env.get(t, "/layers/no2_strasse_2019.geojson?raw=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Budapester Straße")
	assert.NotContains(t, rec.Body.String(), `"style"`)
}

func TestHandleLayer_ETagAndCache(t *testing.T) {
	env := newTestEnv(t)

	first := env.get(t, "/layers/no2_strasse_2011.geojson", nil)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")

	second := env.get(t, "/layers/no2_strasse_2011.geojson", nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.True(t, bytes.Equal(first.Body.Bytes(), second.Body.Bytes()))

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LayerCache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LayerCache.WithLabelValues("hit")))

	notModified := env.get(t, "/layers/no2_strasse_2011.geojson", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, notModified.Code)
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.LayerRequests.WithLabelValues("no2_strasse_2011", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LayerRequests.WithLabelValues("no2_strasse_2011", "304")))
}

func TestHandleLayer_NotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/layers/pm10_strasse_2019.geojson",
		"/layers/unknown.geojson",
		"/layers/no2_strasse_2019",
		"/layers/.geojson",
		"/layers/sub/no2_strasse_2019.geojson",
	} {
		rec := env.get(t, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestHandleLayer_Corrupt(t *testing.T) {
	env := newTestEnv(t)

	layer, ok := env.ctx.Layer("no2_strasse_2011")
	require.True(t, ok)
	require.NoError(t, os.WriteFile(layer.path, []byte("{not json"), 0o644))

	rec := env.get(t, "/layers/no2_strasse_2011.geojson", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
