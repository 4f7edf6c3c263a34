package helper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToFloat64 converts numeric database values to float64.
// NUMERIC columns arrive as strings from some drivers, so strings and byte slices are parsed.
// A nil value converts to 0 with ok == false.
func ToFloat64(v interface{}) (f float64, ok bool, err error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return x, true, nil
	case float32:
		return float64(x), true, nil
	case int:
		return float64(x), true, nil
	case int8:
		return float64(x), true, nil
	case int16:
		return float64(x), true, nil
	case int32:
		return float64(x), true, nil
	case int64:
		return float64(x), true, nil
	case uint8:
		return float64(x), true, nil
	case uint16:
		return float64(x), true, nil
	case uint32:
		return float64(x), true, nil
	case uint64:
		return float64(x), true, nil
	case string:
		return parseFloat(x)
	case []byte:
		return parseFloat(string(x))
	default:
		return 0, false, fmt.Errorf("unable to convert %T value %v to a number", v, v)
	}
}

func parseFloat(s string) (float64, bool, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false, fmt.Errorf("unable to convert %q to a number: %w", s, err)
	}
	return f, true, nil
}

// ToInt64 converts integer-valued database values to int64.
// Floats and numeric strings are accepted only when they have no fractional part.
func ToInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case nil:
		return 0, fmt.Errorf("unable to convert nil to an integer")
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return i, nil
		}
	case []byte:
		return ToInt64(string(x))
	}
	f, ok, err := ToFloat64(v)
	if err != nil {
		return 0, err
	}
	if !ok || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("unable to convert %T value %v to an integer", v, v)
	}
	return int64(f), nil
}
