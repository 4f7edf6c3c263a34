package stream

import "fmt"

// RecordSet is an in-memory tabular result: an ordered column list plus its rows.
type RecordSet struct {
	Name    string
	Columns []string
	Records []Record
}

// NewRecordSet creates an empty RecordSet with the given column order.
func NewRecordSet(name string, cols []string) *RecordSet {
	c := make([]string, len(cols))
	copy(c, cols)
	return &RecordSet{Name: name, Columns: c}
}

// Append adds r to the set after checking that it carries every column.
func (rs *RecordSet) Append(r Record) error {
	for _, c := range rs.Columns {
		if !r.HasField(c) {
			return fmt.Errorf("record set %q: record is missing column %q: %v", rs.Name, c, r)
		}
	}
	rs.Records = append(rs.Records, r)
	return nil
}

// AppendValues adds a row from values listed in column order.
func (rs *RecordSet) AppendValues(values ...interface{}) error {
	r, err := NewRecordFromValues(rs.Columns, values)
	if err != nil {
		return fmt.Errorf("record set %q: %w", rs.Name, err)
	}
	rs.Records = append(rs.Records, r)
	return nil
}

func (rs *RecordSet) Len() int {
	return len(rs.Records)
}

// Rows returns each record's values in column order.
func (rs *RecordSet) Rows() [][]interface{} {
	retval := make([][]interface{}, len(rs.Records))
	for idx, r := range rs.Records {
		retval[idx] = r.GetDataValues(rs.Columns)
	}
	return retval
}

// Snapshot holds one RecordSet per source table name.
type Snapshot map[string]*RecordSet

// Get returns the named RecordSet or an error if it was not extracted.
func (s Snapshot) Get(name string) (*RecordSet, error) {
	rs, ok := s[name]
	if !ok || rs == nil {
		return nil, fmt.Errorf("table %q is missing from the extracted snapshot", name)
	}
	return rs, nil
}
