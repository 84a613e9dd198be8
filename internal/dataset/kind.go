// Package dataset describes the pollution datasets: which kind each input is,
// which columns it reads, which properties it writes and how its layer is styled.
package dataset

import "fmt"

// Kind tags an input with the pollutant and geometry it carries.
// It is assigned in configuration, never derived from file names.
type Kind string

// Known dataset kinds.
const (
	KindNO2Street  Kind = "no2_street"
	KindPM10Street Kind = "pm10_street"
	KindNO2Area    Kind = "no2_area"
	KindPM10Area   Kind = "pm10_area"
	KindBoundary   Kind = "boundary"
)

// Geometry groups kinds by how their shape column is interpreted.
type Geometry string

const (
	// GeometryLine shapes are parsed leniently as LINESTRING text.
	GeometryLine Geometry = "line"
	// GeometryArea shapes are pre-formed (MULTI)POLYGON WKT.
	GeometryArea Geometry = "area"
)

// Kinds lists every kind that can be converted from CSV, in display order.
func Kinds() []Kind {
	return []Kind{KindNO2Street, KindPM10Street, KindNO2Area, KindPM10Area}
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := profiles[k]; !ok {
		return "", fmt.Errorf("unknown dataset kind %q", s)
	}
	return k, nil
}

// Profile returns the layer profile registered for the kind.
func (k Kind) Profile() (Profile, error) {
	p, ok := profiles[k]
	if !ok {
		return Profile{}, fmt.Errorf("unknown dataset kind %q", string(k))
	}
	return p, nil
}

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }
