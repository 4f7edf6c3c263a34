package helper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	om "github.com/cevaris/ordered_map"
	"github.com/relloyd/shipetl/constants"
)

// OrderedMapValuesToStringSlice returns the values found in the ordered map, in insertion order.
// All values are expected to be of type string.
func OrderedMapValuesToStringSlice(m *om.OrderedMap) ([]string, error) {
	retval := make([]string, 0, m.Len())
	iter := m.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		s, isString := kv.Value.(string)
		if !isString {
			return nil, fmt.Errorf("ordered map value for key %v is not a string: %v", kv.Key, kv.Value)
		}
		retval = append(retval, s)
	}
	return retval, nil
}

// GetStringFromInterface converts a database value to its canonical string form.
// Integers and floats without a fractional part produce the same string, so natural keys
// scanned by different drivers compare equal. Times are converted to UTC if requested.
func GetStringFromInterface(input interface{}, useUTC bool) (string, error) {
	switch v := input.(type) {
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil // use 'f' to convert float to string without an exponent i.e. preserve all decimal points.
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case time.Time:
		if useUTC {
			return v.UTC().Format(constants.TimeFormatYearSecondsTZ), nil
		}
		return v.Format(constants.TimeFormatYearSecondsTZ), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unhandled type while fetching string from interface: type = %T; value = %v", input, input)
	}
}

// QuoteIdentifier double-quotes a single identifier, escaping embedded quotes.
func QuoteIdentifier(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteIdentifiers quotes each element of s.
func QuoteIdentifiers(s []string) []string {
	retval := make([]string, len(s))
	for idx, v := range s {
		retval[idx] = QuoteIdentifier(v)
	}
	return retval
}

// GenerateStringOfColsEqualsCols returns "src.col1 = tgt.col1<sep>src.col2 = tgt.col2" for the colList supplied.
func GenerateStringOfColsEqualsCols(colList []string, srcAlias string, tgtAlias string, separator string) string {
	return strings.Join(GenerateSliceOfColsEqualCols(colList, srcAlias, tgtAlias), separator)
}

func GenerateSliceOfColsEqualCols(colList []string, srcAlias string, tgtAlias string) []string {
	retval := make([]string, len(colList))
	for idx, col := range colList {
		retval[idx] = fmt.Sprintf("%s.%s = %s.%s", srcAlias, col, tgtAlias, col)
	}
	return retval
}

// PrefixCols returns "alias.col1,alias.col2..." for the colList supplied.
func PrefixCols(colList []string, alias string) string {
	retval := make([]string, len(colList))
	for idx, col := range colList {
		retval[idx] = alias + "." + col
	}
	return strings.Join(retval, ",")
}

// GetTrueFalseStringAsBool returns true for "1", "true", "yes" or "y" in any case.
func GetTrueFalseStringAsBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}
