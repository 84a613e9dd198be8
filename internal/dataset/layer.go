package dataset

import (
	"github.com/dresden-air/airmap/internal/geo"
)

// StyleProperty is the feature property that carries the computed style.
const StyleProperty = "style"

// Prepare returns a copy of the collection ready for display: numeric
// properties rounded, features without a value dropped when the profile asks
// for it, and a style attached to every remaining feature.
func (p Profile) Prepare(fc geo.GeoJSONFeatureCollection) geo.GeoJSONFeatureCollection {
	out := geo.NewFeatureCollection(len(fc.Features))

	for _, f := range fc.Features {
		props := make(map[string]interface{}, len(f.Properties)+1)
		for k, v := range f.Properties {
			// Only real numbers are rounded; the year stays a string.
			if num, ok := v.(float64); ok {
				v = geo.Round(num, geo.ValuePrecision)
			}
			props[k] = v
		}

		if p.DropNoData && p.ValueProperty != "" {
			if _, ok := geo.SafeFloat(props[p.ValueProperty]); !ok {
				continue
			}
		}

		props[StyleProperty] = p.FeatureStyle(props)
		out.Features = append(out.Features, geo.NewFeature(f.Geometry, props))
	}

	return out
}
