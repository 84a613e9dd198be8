// Package geo handles geographic data structures, WKT geometry parsing and
// value normalization for the pollution layers.
package geo

// Geometry type names as they appear in GeoJSON.
const (
	TypeLineString   = "LineString"
	TypePolygon      = "Polygon"
	TypeMultiPolygon = "MultiPolygon"
)

// Coordinate is a single position in [Lon, Lat] order.
type Coordinate [2]float64

// Lon returns the longitude.
func (c Coordinate) Lon() float64 { return c[0] }

// Lat returns the latitude.
func (c Coordinate) Lat() float64 { return c[1] }

// GeoJSONFeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type" yaml:"type"`
	Features []GeoJSONFeature `json:"features" yaml:"features"`
}

// GeoJSONFeature represents a single geographic feature with geometry and properties.
type GeoJSONFeature struct {
	Properties map[string]interface{} `json:"properties" yaml:"properties"`
	Type       string                 `json:"type" yaml:"type"`
	Geometry   GeoJSONGeometry        `json:"geometry" yaml:"geometry"`
}

// GeoJSONGeometry represents the geometry of a feature.
// Coordinates holds []Coordinate for a LineString, [][]Coordinate for a
// Polygon and [][][]Coordinate for a MultiPolygon. After decoding from JSON
// it holds the generic []interface{} form instead.
type GeoJSONGeometry struct {
	Type        string      `json:"type" yaml:"type"`
	Coordinates interface{} `json:"coordinates" yaml:"coordinates"`
}

// NewFeatureCollection returns an empty collection with room for n features.
// Features is never nil so an empty layer still encodes as "features": [].
func NewFeatureCollection(n int) GeoJSONFeatureCollection {
	return GeoJSONFeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]GeoJSONFeature, 0, n),
	}
}

// NewFeature wraps a geometry and its properties into a Feature.
func NewFeature(g GeoJSONGeometry, props map[string]interface{}) GeoJSONFeature {
	if props == nil {
		props = map[string]interface{}{}
	}
	return GeoJSONFeature{
		Type:       "Feature",
		Geometry:   g,
		Properties: props,
	}
}

// LineString builds a LineString geometry from an ordered list of positions.
func LineString(coords []Coordinate) GeoJSONGeometry {
	return GeoJSONGeometry{Type: TypeLineString, Coordinates: coords}
}

// MultiPolygon builds a MultiPolygon geometry.
func MultiPolygon(polygons [][][]Coordinate) GeoJSONGeometry {
	return GeoJSONGeometry{Type: TypeMultiPolygon, Coordinates: polygons}
}
