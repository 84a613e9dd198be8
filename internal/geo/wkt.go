package geo

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

var (
	// ErrEmptyGeometry is returned for a shape that parses but holds no positions.
	ErrEmptyGeometry = errors.New("empty geometry")
	// ErrUnsupportedGeometry is returned for area shapes that are not (multi)polygons.
	ErrUnsupportedGeometry = errors.New("unsupported geometry type")
)

// Captures the body of the first LINESTRING(...) up to the first closing paren.
var lineStringRegex = regexp.MustCompile(`LINESTRING\s*\(([^)]+)\)`)

var parenStripper = strings.NewReplacer("(", "", ")", "")

// ParseLineString extracts the positions of a LINESTRING from a free-text
// shape, with or without an SRID=<n>; prefix.
//
// Parsing is best effort: a pair that does not have exactly two components, or
// whose components are not finite numbers, is dropped without affecting the
// rest. Components may use a decimal comma. The result is nil when the keyword
// is missing or no pair survives.
func ParseLineString(shape string) []Coordinate {
	match := lineStringRegex.FindStringSubmatch(shape)
	if match == nil {
		return nil
	}

	var coords []Coordinate
	for _, pair := range strings.Split(match[1], ",") {
		parts := strings.Fields(parenStripper.Replace(pair))
		if len(parts) != 2 {
			continue
		}

		lon, err := parseOrdinate(parts[0])
		if err != nil {
			continue
		}
		lat, err := parseOrdinate(parts[1])
		if err != nil {
			continue
		}

		coords = append(coords, Coordinate{lon, lat})
	}

	return coords
}

func parseOrdinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if !isFinite(v) {
		return 0, fmt.Errorf("non-finite ordinate %q", s)
	}
	return v, nil
}

// StripSRID removes a leading "SRID=<n>;" from an EWKT string.
func StripSRID(shape string) string {
	shape = strings.TrimSpace(shape)
	if !strings.HasPrefix(shape, "SRID=") {
		return shape
	}
	if _, rest, ok := strings.Cut(shape, ";"); ok {
		return strings.TrimSpace(rest)
	}
	return shape
}

// ParseArea parses a pre-formed POLYGON or MULTIPOLYGON shape, optionally
// prefixed with an SRID, into a GeoJSON geometry.
func ParseArea(shape string) (GeoJSONGeometry, error) {
	g, err := wkt.Unmarshal(StripSRID(shape))
	if err != nil {
		return GeoJSONGeometry{}, fmt.Errorf("parse wkt: %w", err)
	}

	switch t := g.(type) {
	case orb.Polygon:
		rings := polygonCoordinates(t)
		if len(rings) == 0 {
			return GeoJSONGeometry{}, ErrEmptyGeometry
		}
		return GeoJSONGeometry{Type: TypePolygon, Coordinates: rings}, nil

	case orb.MultiPolygon:
		polygons := make([][][]Coordinate, 0, len(t))
		for _, p := range t {
			if rings := polygonCoordinates(p); len(rings) > 0 {
				polygons = append(polygons, rings)
			}
		}
		if len(polygons) == 0 {
			return GeoJSONGeometry{}, ErrEmptyGeometry
		}
		return MultiPolygon(polygons), nil

	default:
		return GeoJSONGeometry{}, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
	}
}

func polygonCoordinates(p orb.Polygon) [][]Coordinate {
	rings := make([][]Coordinate, 0, len(p))
	for _, ring := range p {
		if len(ring) == 0 {
			continue
		}
		coords := make([]Coordinate, len(ring))
		for i, pt := range ring {
			coords[i] = Coordinate(pt)
		}
		rings = append(rings, coords)
	}
	return rings
}
