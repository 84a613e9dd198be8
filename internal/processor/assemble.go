package processor

import (
	"errors"
	"fmt"

	"github.com/dresden-air/airmap/internal/dataset"
	"github.com/dresden-air/airmap/internal/geo"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNoShapeColumn is returned when a table has no geometry column.
	ErrNoShapeColumn = errors.New("missing shape column")
	// ErrMissingColumn is returned when the pollutant value column is absent.
	ErrMissingColumn = errors.New("missing value column")
)

// minLinePositions is the smallest position count of a valid LineString.
const minLinePositions = 2

// Stats summarizes one conversion.
type Stats struct {
	Records  int `json:"records"`
	Features int `json:"features"`
	// Skipped counts records dropped for lack of usable geometry.
	Skipped int `json:"skipped"`
	// NoData counts written features whose value is the "no data" marker.
	NoData int `json:"no_data"`
}

// Assembly is the input of BuildFeatures.
type Assembly struct {
	Profile     dataset.Profile
	Year        string
	ValueColumn string
}

// NewAssembly resolves the profile and value column of a kind for one year.
// An empty valueColumn selects the kind's default for the year.
func NewAssembly(kind dataset.Kind, year, valueColumn string) (Assembly, error) {
	p, err := kind.Profile()
	if err != nil {
		return Assembly{}, err
	}
	if p.ValueProperty == "" {
		return Assembly{}, fmt.Errorf("dataset kind %q cannot be converted from csv", kind)
	}
	if valueColumn == "" {
		valueColumn = p.SourceColumn(year)
	}

	return Assembly{Profile: p, Year: year, ValueColumn: valueColumn}, nil
}

// BuildFeatures turns every table row into a feature.
// Rows whose shape yields no usable geometry are skipped, never emitted empty.
func BuildFeatures(a Assembly, t *Table) (geo.GeoJSONFeatureCollection, Stats, error) {
	var stats Stats

	if !t.HasColumn(dataset.ColumnShape) {
		return geo.GeoJSONFeatureCollection{}, stats, ErrNoShapeColumn
	}
	if !t.HasColumn(a.ValueColumn) {
		return geo.GeoJSONFeatureCollection{}, stats, fmt.Errorf("%w: %q", ErrMissingColumn, a.ValueColumn)
	}

	fc := geo.NewFeatureCollection(len(t.Rows))

	for i, row := range t.Rows {
		stats.Records++

		g, ok := a.geometry(row[dataset.ColumnShape])
		if !ok {
			stats.Skipped++
			log.Trace().
				Int("row", i+1).
				Str("kind", a.Profile.Kind.String()).
				Msg("Row skipped: no usable geometry")
			continue
		}

		props := a.properties(row)
		if props[a.Profile.ValueProperty] == nil {
			stats.NoData++
		}

		fc.Features = append(fc.Features, geo.NewFeature(g, props))
		stats.Features++
	}

	return fc, stats, nil
}

func (a Assembly) geometry(shape string) (geo.GeoJSONGeometry, bool) {
	if a.Profile.Geometry == dataset.GeometryArea {
		g, err := geo.ParseArea(shape)
		if err != nil {
			log.Trace().Err(err).Msg("Area shape rejected")
			return geo.GeoJSONGeometry{}, false
		}
		return g, true
	}

	coords := geo.ParseLineString(shape)
	if len(coords) < minLinePositions {
		return geo.GeoJSONGeometry{}, false
	}
	return geo.LineString(coords), true
}

func (a Assembly) properties(row Record) map[string]interface{} {
	props := map[string]interface{}{
		a.Profile.ValueProperty: geo.NullableValue(row[a.ValueColumn]),
		a.Profile.YearProperty:  a.Year,
	}
	if a.Profile.NameProperty != "" {
		props[a.Profile.NameProperty] = row[dataset.ColumnStreetName]
	}
	return props
}
