package server

import (
	"os"
	"sort"
	"sync"

	"github.com/dresden-air/airmap/internal/config"
	"github.com/dresden-air/airmap/internal/dataset"
	"github.com/dresden-air/airmap/internal/observability"

	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	jsonmin "github.com/tdewolff/minify/v2/json"
)

const jsonMediaType = "application/json"

// Layer is one GeoJSON file the server can hand out.
type Layer struct {
	Name    string          `json:"name"`
	Kind    dataset.Kind    `json:"kind"`
	Year    string          `json:"year,omitempty"`
	Profile dataset.Profile `json:"profile"`
	path    string
}

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config   *config.Config
	Metrics  *observability.ServerMetrics
	Minifier *minify.M
	Layers   []Layer

	layerIndex map[string]int

	mu    sync.Mutex
	cache map[string][]byte
}

// NewServerContext initializes the context from the configuration.
// Datasets whose layer file has not been generated yet are left out.
func NewServerContext(cfg *config.Config, metrics *observability.ServerMetrics) *ServerContext {
	log.Info().Int("config_datasets_count", len(cfg.Datasets)).Msg("Initializing server context")

	candidates := make([]Layer, 0, len(cfg.Datasets)+1)
	if cfg.Boundary != nil {
		candidates = append(candidates, Layer{Name: cfg.Boundary.Name, Kind: dataset.KindBoundary})
	}
	for _, ds := range cfg.Datasets {
		candidates = append(candidates, Layer{Name: ds.Name, Kind: ds.Kind, Year: ds.Year})
	}

	layers := make([]Layer, 0, len(candidates))
	for _, l := range candidates {
		profile, err := l.Kind.Profile()
		if err != nil {
			log.Warn().Err(err).Str("layer", l.Name).Msg("Skipping layer: unknown kind")
			continue
		}

		path := cfg.LayerPath(l.Name)
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			log.Warn().
				Str("layer", l.Name).
				Str("path", path).
				Msg("Skipping layer: file not found, run the converter first")
			continue
		}

		l.Profile = profile
		l.path = path
		layers = append(layers, l)

		log.Debug().
			Str("layer", l.Name).
			Str("kind", l.Kind.String()).
			Msg("Layer validated and added to context")
	}

	sort.SliceStable(layers, func(i, j int) bool {
		if ki, kj := kindOrder(layers[i].Kind), kindOrder(layers[j].Kind); ki != kj {
			return ki < kj
		}
		if layers[i].Year != layers[j].Year {
			return layers[i].Year < layers[j].Year
		}
		return layers[i].Name < layers[j].Name
	})

	index := make(map[string]int, len(layers))
	for i, l := range layers {
		index[l.Name] = i
	}

	m := minify.New()
	m.AddFunc(jsonMediaType, jsonmin.Minify)

	metrics.LayersLoaded.Set(float64(len(layers)))

	log.Info().
		Int("layers_count", len(layers)).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:     cfg,
		Metrics:    metrics,
		Minifier:   m,
		Layers:     layers,
		layerIndex: index,
		cache:      make(map[string][]byte),
	}
}

// Layer looks up a layer by name.
func (s *ServerContext) Layer(name string) (Layer, bool) {
	i, ok := s.layerIndex[name]
	if !ok {
		return Layer{}, false
	}
	return s.Layers[i], true
}

// The boundary is listed first, then pollutant layers in kind order.
func kindOrder(k dataset.Kind) int {
	if k == dataset.KindBoundary {
		return -1
	}
	for i, known := range dataset.Kinds() {
		if k == known {
			return i
		}
	}
	return len(dataset.Kinds())
}
