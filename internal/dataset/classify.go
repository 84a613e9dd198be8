package dataset

import "github.com/dresden-air/airmap/internal/geo"

// ColorClass is one band of the concentration legend, in µg/m³.
// A value belongs to the first class whose Above bound it exceeds.
type ColorClass struct {
	Color string  `json:"color" yaml:"color"`
	Label string  `json:"label" yaml:"label"`
	Above float64 `json:"above" yaml:"above"`
}

// Classes is shared by NO2 and PM10 layers, highest band first.
var Classes = []ColorClass{
	{Above: 40, Color: "#FF0000", Label: "> 40 µg/m³"},
	{Above: 27, Color: "#FFA500", Label: "27 - 40 µg/m³"},
	{Above: 20, Color: "#FFFF00", Label: "20 - 27 µg/m³"},
	{Above: 15, Color: "#ADFF2F", Label: "15 - 20 µg/m³"},
	{Above: 0, Color: "#008000", Label: "≤ 15 µg/m³"},
}

// Classify returns the legend colour for a concentration, or "" when the
// value is missing, unparseable or not positive.
func Classify(value interface{}) string {
	v, ok := geo.SafeFloat(value)
	if !ok {
		return ""
	}

	for _, c := range Classes {
		if v > c.Above {
			return c.Color
		}
	}

	return ""
}
