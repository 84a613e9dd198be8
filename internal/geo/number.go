package geo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValuePrecision is the number of decimals kept for concentration values.
const ValuePrecision = 2

// SafeFloat normalizes a measured concentration.
//
// The value is coerced to a string, decimal commas are replaced by periods and
// the result is parsed as a float. A positive finite number is returned rounded
// to ValuePrecision decimals with ok set. Zero, negative, non-finite and
// unparseable inputs all return ok == false: "no data", which is written as
// null rather than 0.
func SafeFloat(value interface{}) (v float64, ok bool) {
	var s string

	switch x := value.(type) {
	case nil:
		return 0, false
	case float64:
		return positive(x)
	case float32:
		return positive(float64(x))
	case int:
		return positive(float64(x))
	case int64:
		return positive(float64(x))
	case json.Number:
		s = x.String()
	case string:
		s = x
	default:
		s = fmt.Sprint(x)
	}

	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return positive(num)
}

// NullableValue returns the SafeFloat result in the form stored in feature
// properties: the rounded number, or nil for "no data".
func NullableValue(value interface{}) interface{} {
	if v, ok := SafeFloat(value); ok {
		return v
	}
	return nil
}

func positive(num float64) (float64, bool) {
	if !isFinite(num) || num <= 0 {
		return 0, false
	}
	return Round(num, ValuePrecision), true
}
