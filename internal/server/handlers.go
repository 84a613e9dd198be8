// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/dresden-air/airmap/internal/config"
	"github.com/dresden-air/airmap/internal/dataset"
	"github.com/dresden-air/airmap/internal/geo"

	"github.com/rs/zerolog/log"
)

const (
	etagCap        = 64
	layersPrefix   = "/layers/"
	geoJSONContent = "application/geo+json"
)

type layersResponse struct {
	Layers  []Layer              `json:"layers"`
	Classes []dataset.ColorClass `json:"classes"`
}

// Routes registers the layer handlers on a new mux.
func (s *ServerContext) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/layers", s.HandleLayersList)
	mux.HandleFunc(layersPrefix, s.HandleLayer)
	return mux
}

// HandleLayersList serves the available layers with their display profiles
// and the shared colour classes.
func (s *ServerContext) HandleLayersList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(layersResponse{
		Layers:  s.Layers,
		Classes: dataset.Classes,
	})
}

// HandleLayer serves /layers/{name}.geojson.
//
// Pollutant layers are prepared for display first: values rounded, street
// features without a value removed and a style attached. The boundary and any
// request with ?raw=1 get the stored file, minified.
func (s *ServerContext) HandleLayer(w http.ResponseWriter, r *http.Request) {
	file := strings.TrimPrefix(r.URL.Path, layersPrefix)
	name, ok := strings.CutSuffix(file, config.GeoJSONExt)
	if !ok || name == "" || strings.Contains(name, "/") {
		http.NotFound(w, r)
		return
	}

	layer, ok := s.Layer(name)
	if !ok {
		s.Metrics.LayerRequests.WithLabelValues("unknown", strconv.Itoa(http.StatusNotFound)).Inc()
		http.NotFound(w, r)
		return
	}

	info, err := os.Stat(layer.path)
	if err != nil || info.IsDir() {
		s.Metrics.LayerRequests.WithLabelValues(layer.Name, strconv.Itoa(http.StatusNotFound)).Inc()
		http.NotFound(w, r)
		return
	}

	raw := layer.Kind == dataset.KindBoundary || r.URL.Query().Get("raw") == "1"

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	if raw {
		buf = append(buf, "-r"...)
	}
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		s.Metrics.LayerRequests.WithLabelValues(layer.Name, strconv.Itoa(http.StatusNotModified)).Inc()
		w.WriteHeader(http.StatusNotModified)
		return
	}

	body, err := s.layerBody(layer, etag, raw)
	if err != nil {
		log.Error().Err(err).Str("layer", layer.Name).Msg("Failed to load layer")
		s.Metrics.LayerRequests.WithLabelValues(layer.Name, strconv.Itoa(http.StatusInternalServerError)).Inc()
		http.Error(w, "layer unavailable", http.StatusInternalServerError)
		return
	}

	s.Metrics.LayerRequests.WithLabelValues(layer.Name, strconv.Itoa(http.StatusOK)).Inc()

	w.Header().Set("Content-Type", geoJSONContent)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

// layerBody returns the response body for a layer, building it on a cache miss.
// Entries are keyed by layer and ETag, so a regenerated file is picked up.
func (s *ServerContext) layerBody(layer Layer, etag string, raw bool) ([]byte, error) {
	key := layer.Name + etag

	s.mu.Lock()
	defer s.mu.Unlock()

	if body, ok := s.cache[key]; ok {
		s.Metrics.LayerCache.WithLabelValues("hit").Inc()
		return body, nil
	}
	s.Metrics.LayerCache.WithLabelValues("miss").Inc()

	data, err := os.ReadFile(layer.path)
	if err != nil {
		return nil, err
	}

	var body []byte
	if raw {
		body, err = s.Minifier.Bytes(jsonMediaType, data)
	} else {
		body, err = prepareLayer(layer.Profile, data)
	}
	if err != nil {
		return nil, err
	}

	// drop stale entries of the same layer
	for k := range s.cache {
		if strings.HasPrefix(k, layer.Name+`"`) {
			delete(s.cache, k)
		}
	}
	s.cache[key] = body

	return body, nil
}

func prepareLayer(p dataset.Profile, data []byte) ([]byte, error) {
	var fc geo.GeoJSONFeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode layer: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("decode layer: unexpected type %q", fc.Type)
	}

	return json.Marshal(p.Prepare(fc))
}
