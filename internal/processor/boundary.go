package processor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/dresden-air/airmap/internal/config"
	"github.com/dresden-air/airmap/internal/geo"

	"github.com/rs/zerolog/log"
)

// Internal structures for JSON parsing
type overpassResponse struct {
	Elements []struct {
		Type    string `json:"type"`
		Members []struct {
			Type     string `json:"type"`
			Role     string `json:"role"`
			Geometry []struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"geometry"`
		} `json:"members"`
	} `json:"elements"`
}

// FetchBoundary queries an Overpass interpreter and converts the first
// returned relation into a single MultiPolygon feature named label.
// Every way member becomes one ring. An empty result yields an empty collection.
func FetchBoundary(client *http.Client, endpoint, query, label string) (geo.GeoJSONFeatureCollection, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return geo.GeoJSONFeatureCollection{}, err
	}
	q := u.Query()
	q.Set("data", query)
	u.RawQuery = q.Encode()

	resp, err := client.Get(u.String())
	if err != nil {
		return geo.GeoJSONFeatureCollection{}, err
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return geo.GeoJSONFeatureCollection{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	var root overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&root); err != nil {
		return geo.GeoJSONFeatureCollection{}, err
	}

	if len(root.Elements) == 0 {
		return geo.NewFeatureCollection(0), nil
	}

	element := root.Elements[0]
	rings := make([][]geo.Coordinate, 0, len(element.Members))
	for _, member := range element.Members {
		if member.Type != "way" || len(member.Geometry) == 0 {
			continue
		}
		ring := make([]geo.Coordinate, len(member.Geometry))
		for i, pt := range member.Geometry {
			ring[i] = geo.Coordinate{pt.Lon, pt.Lat}
		}
		rings = append(rings, ring)
	}

	fc := geo.NewFeatureCollection(1)
	fc.Features = append(fc.Features, geo.NewFeature(
		geo.MultiPolygon([][][]geo.Coordinate{rings}),
		map[string]interface{}{"name": label},
	))

	return fc, nil
}

// ProcessBoundary downloads the configured boundary and saves it as a layer.
func ProcessBoundary(client *http.Client, cfg *config.Config, force bool) error {
	b := cfg.Boundary
	if b == nil {
		return nil
	}

	destFile := cfg.LayerPath(b.Name)
	if _, err := os.Stat(destFile); err == nil && !force {
		log.Debug().Str("layer", b.Name).Msg("Boundary file exists, skipping")
		return nil
	}

	log.Info().
		Str("layer", b.Name).
		Str("source", b.Endpoint).
		Msg("Fetching city boundary")

	fc, err := FetchBoundary(client, b.Endpoint, b.Query, b.Label)
	if err != nil {
		return fmt.Errorf("fetch boundary: %w", err)
	}

	if len(fc.Features) == 0 {
		log.Warn().Str("layer", b.Name).Msg("Boundary query returned no elements, nothing written")
		return nil
	}

	if err := saveGeoJSON(cfg.OutputDir, destFile, fc); err != nil {
		return fmt.Errorf("write %s: %w", destFile, err)
	}

	log.Info().Str("layer", b.Name).Str("path", destFile).Msg("Boundary written")
	return nil
}
