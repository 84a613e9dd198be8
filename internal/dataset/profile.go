package dataset

// Source column names used by the Dresden open-data exports.
const (
	ColumnShape      = "shape"
	ColumnStreetName = "strname"
	ColumnNO2Street  = "no2_i1"
	ColumnPM10Street = "pm10_ist"
	ColumnAreaValue  = "deskn1"
)

// Tooltip names a feature property and the label shown next to it.
type Tooltip struct {
	Field string `json:"field" yaml:"field"`
	Alias string `json:"alias" yaml:"alias"`
}

// LayerStyle holds the static part of a layer's style. Colour is derived
// per feature from its value.
type LayerStyle struct {
	Outline     string  `json:"outline,omitempty" yaml:"outline,omitempty"`
	Weight      float64 `json:"weight" yaml:"weight"`
	FillOpacity float64 `json:"fill_opacity,omitempty" yaml:"fill_opacity,omitempty"`
	// Fill colours the polygon interior rather than the stroke.
	Fill bool `json:"fill" yaml:"fill"`
}

// Profile is the declarative description of one dataset kind.
type Profile struct {
	Kind      Kind     `json:"kind" yaml:"kind"`
	Pollutant string   `json:"pollutant,omitempty" yaml:"pollutant,omitempty"`
	Geometry  Geometry `json:"geometry" yaml:"geometry"`

	// Property names written to each feature.
	ValueProperty string `json:"value_property,omitempty" yaml:"value_property,omitempty"`
	YearProperty  string `json:"year_property,omitempty" yaml:"year_property,omitempty"`
	NameProperty  string `json:"name_property,omitempty" yaml:"name_property,omitempty"`

	// Source column holding the value, with per-year overrides.
	ValueColumn       string            `json:"-" yaml:"-"`
	ValueColumnByYear map[string]string `json:"-" yaml:"-"`

	Tooltips []Tooltip `json:"tooltips,omitempty" yaml:"tooltips,omitempty"`
	Style    LayerStyle `json:"style" yaml:"style"`

	// DropNoData removes features without a positive value when serving.
	DropNoData bool `json:"drop_no_data" yaml:"drop_no_data"`
}

var profiles = map[Kind]Profile{
	KindNO2Street: {
		Kind:              KindNO2Street,
		Pollutant:         "NO2",
		Geometry:          GeometryLine,
		ValueProperty:     "no2_i1",
		YearProperty:      "jahr",
		NameProperty:      "strname",
		ValueColumn:       ColumnNO2Street,
		ValueColumnByYear: map[string]string{"2019": ColumnAreaValue},
		Tooltips: []Tooltip{
			{Field: "no2_i1", Alias: "NO₂-Belastung (µg/m³):"},
			{Field: "jahr", Alias: "Jahr:"},
		},
		Style:      LayerStyle{Weight: 3},
		DropNoData: true,
	},
	KindPM10Street: {
		Kind:              KindPM10Street,
		Pollutant:         "PM10",
		Geometry:          GeometryLine,
		ValueProperty:     "pm10_ist",
		YearProperty:      "jahr",
		NameProperty:      "strname",
		ValueColumn:       ColumnPM10Street,
		ValueColumnByYear: map[string]string{"2019": ColumnAreaValue},
		Tooltips: []Tooltip{
			{Field: "pm10_ist", Alias: "PM10-Belastung (µg/m³):"},
			{Field: "jahr", Alias: "Jahr:"},
		},
		Style:      LayerStyle{Weight: 3},
		DropNoData: true,
	},
	KindNO2Area: {
		Kind:          KindNO2Area,
		Pollutant:     "NO2",
		Geometry:      GeometryArea,
		ValueProperty: "NO2",
		YearProperty:  "Jahr",
		ValueColumn:   ColumnAreaValue,
		Tooltips: []Tooltip{
			{Field: "NO2", Alias: "NO₂-Belastung (µg/m³):"},
			{Field: "Jahr", Alias: "Jahr:"},
		},
		Style: LayerStyle{Outline: "black", Weight: 0.5, FillOpacity: 0.6, Fill: true},
	},
	KindPM10Area: {
		Kind:          KindPM10Area,
		Pollutant:     "PM10",
		Geometry:      GeometryArea,
		ValueProperty: "PM10",
		YearProperty:  "Jahr",
		ValueColumn:   ColumnAreaValue,
		Tooltips: []Tooltip{
			{Field: "PM10", Alias: "PM10-Belastung (µg/m³):"},
			{Field: "Jahr", Alias: "Jahr:"},
		},
		Style: LayerStyle{Outline: "black", Weight: 0.5, FillOpacity: 0.6, Fill: true},
	},
	KindBoundary: {
		Kind:     KindBoundary,
		Geometry: GeometryArea,
		Style:    LayerStyle{Outline: "black", Weight: 2},
	},
}

// SourceColumn returns the CSV column holding the value for the given year.
func (p Profile) SourceColumn(year string) string {
	if col, ok := p.ValueColumnByYear[year]; ok {
		return col
	}
	return p.ValueColumn
}

// FeatureStyle computes the style of one feature from its properties.
// The colour is nil when the feature has no usable value.
func (p Profile) FeatureStyle(props map[string]interface{}) map[string]interface{} {
	if p.ValueProperty == "" {
		return map[string]interface{}{
			"color":       p.Style.Outline,
			"weight":      p.Style.Weight,
			"fillOpacity": p.Style.FillOpacity,
		}
	}

	var color interface{}
	if c := Classify(props[p.ValueProperty]); c != "" {
		color = c
	}

	if p.Style.Fill {
		return map[string]interface{}{
			"fillColor":   color,
			"color":       p.Style.Outline,
			"weight":      p.Style.Weight,
			"fillOpacity": p.Style.FillOpacity,
		}
	}

	return map[string]interface{}{
		"color":  color,
		"weight": p.Style.Weight,
	}
}
