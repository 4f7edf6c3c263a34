package stream

import (
	"fmt"

	"github.com/relloyd/shipetl/helper"
)

// Record holds one row of data keyed by logical column name.
// Database NULLs are represented as nil interfaces.
type Record struct {
	data map[string]interface{}
}

// NewRecord creates a new Record and returns it by value; the underlying map is shared by copies.
func NewRecord() Record {
	return Record{data: make(map[string]interface{})}
}

// NewRecordFromValues builds a Record from parallel slices of column names and values.
func NewRecordFromValues(cols []string, values []interface{}) (Record, error) {
	if len(cols) != len(values) {
		return Record{}, fmt.Errorf("got %v values for %v columns", len(values), len(cols))
	}
	r := Record{data: make(map[string]interface{}, len(cols))}
	for idx, c := range cols {
		r.data[c] = values[idx]
	}
	return r, nil
}

func (sr Record) SetData(name string, value interface{}) {
	sr.data[name] = value
}

// GetData returns the value of field name, which is nil for a NULL or an unknown field.
func (sr Record) GetData(name string) interface{} {
	return sr.data[name]
}

// HasField returns true if the field name has been set on the record, even to nil.
func (sr Record) HasField(name string) bool {
	_, ok := sr.data[name]
	return ok
}

// GetDataAsString returns the canonical string form of field name.
// Times are converted to UTC.
func (sr Record) GetDataAsString(name string) (string, error) {
	s, err := helper.GetStringFromInterface(sr.data[name], true)
	if err != nil {
		return "", fmt.Errorf("field %q: %w", name, err)
	}
	return s, nil
}

// GetDataValues returns the values of the given fields, in order.
func (sr Record) GetDataValues(cols []string) []interface{} {
	retval := make([]interface{}, len(cols))
	for idx, c := range cols {
		retval[idx] = sr.data[c]
	}
	return retval
}

// Copy returns a Record with its own copy of the data map.
func (sr Record) Copy() Record {
	t := Record{data: make(map[string]interface{}, len(sr.data))}
	for k, v := range sr.data {
		t.data[k] = v
	}
	return t
}

func (sr Record) String() string {
	return fmt.Sprintf("%v", sr.data)
}
