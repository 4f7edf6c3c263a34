package tabledefinition

import (
	"fmt"
	"strings"

	"github.com/relloyd/shipetl/helper"
)

// TableColumn defines a single column by its logical (source) name.
// The warehouse column name is the upper-cased logical name.
type TableColumn struct {
	ColName       string   `yaml:"name"`
	DataType      DataType `yaml:"type"`
	DataPrecision int      `yaml:"precision"`
	DataScale     int      `yaml:"scale"`
}

// TargetName returns the warehouse column name.
func (c TableColumn) TargetName() string {
	return strings.ToUpper(c.ColName)
}

func (c TableColumn) IsText() bool {
	return c.DataType == DataTypeText
}

// Table is the declarative definition of one entity.
// SourceTable is empty for derived tables; TargetTable is empty for tables that are only read.
type Table struct {
	Name         string
	SourceTable  string
	TargetTable  string
	NaturalKey   string // logical name of the natural identifier column
	SurrogateKey string // warehouse column holding the surrogate key, dimensions only
	Columns      []TableColumn
}

// ColumnNames returns the logical column names in order.
func (t Table) ColumnNames() []string {
	retval := make([]string, len(t.Columns))
	for idx, c := range t.Columns {
		retval[idx] = c.ColName
	}
	return retval
}

// Column looks up a column by logical name.
func (t Table) Column(name string) (TableColumn, bool) {
	for _, c := range t.Columns {
		if c.ColName == name {
			return c, true
		}
	}
	return TableColumn{}, false
}

// TextColumns returns the logical names of text-typed columns.
func (t Table) TextColumns() []string {
	retval := make([]string, 0)
	for _, c := range t.Columns {
		if c.IsText() {
			retval = append(retval, c.ColName)
		}
	}
	return retval
}

// KeyColumns returns the natural key column as a single element slice.
func (t Table) KeyColumns() []TableColumn {
	c, ok := t.Column(t.NaturalKey)
	if !ok {
		return nil
	}
	return []TableColumn{c}
}

// OtherColumns returns every column that is not part of the natural key.
func (t Table) OtherColumns() []TableColumn {
	retval := make([]TableColumn, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.ColName != t.NaturalKey {
			retval = append(retval, c)
		}
	}
	return retval
}

// Validate checks the definition is usable: named, with unique typed columns and a declared natural key.
func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table definition is missing a name")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", t.Name)
	}
	m := NewSnowflakeDataTypeMapper()
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if strings.TrimSpace(c.ColName) == "" {
			return fmt.Errorf("table %q has a column with an empty name", t.Name)
		}
		if _, ok := seen[c.TargetName()]; ok {
			return fmt.Errorf("table %q has duplicate column %q", t.Name, c.ColName)
		}
		seen[c.TargetName()] = struct{}{}
		if _, err := m.Map(c.DataType); err != nil {
			return fmt.Errorf("table %q column %q: %w", t.Name, c.ColName, err)
		}
	}
	if t.NaturalKey != "" {
		if _, ok := t.Column(t.NaturalKey); !ok {
			return fmt.Errorf("table %q natural key %q is not one of its columns", t.Name, t.NaturalKey)
		}
	}
	if t.TargetTable != "" && t.NaturalKey == "" {
		return fmt.Errorf("table %q is loaded into %q but has no natural key to merge on", t.Name, t.TargetTable)
	}
	return nil
}

// ConvertTableDefinitionToSnowflake returns the CREATE TABLE statement that provisions a table named
// tableName with the structure of tab. Set tableType to "transient" or "temporary" to prefix the
// table kind, or leave it blank for a permanent table.
func ConvertTableDefinitionToSnowflake(tab Table, tableName string, tableType string) (string, error) {
	if tableName == "" {
		return "", fmt.Errorf("missing table name to create for %q", tab.Name)
	}
	if len(tab.Columns) == 0 {
		return "", fmt.Errorf("no column metadata found to build Snowflake CREATE TABLE DDL for %q", tab.Name)
	}
	mapper := NewSnowflakeDataTypeMapper()
	fields := make([]string, 0, len(tab.Columns))
	for _, col := range tab.Columns { // for each column...
		tgtDataType, err := mapper.Map(col.DataType)
		if err != nil {
			return "", fmt.Errorf("table %q column %q: %w", tab.Name, col.ColName, err)
		}
		detail := mapper.Sanitise(col.DataType, col.DataPrecision, col.DataScale)
		fields = append(fields, fmt.Sprintf("%v %v%v", helper.QuoteIdentifier(col.TargetName()), tgtDataType, detail))
	}
	kind := "table"
	if tableType != "" {
		kind = strings.ToLower(tableType) + " table"
	}
	return fmt.Sprintf("create %v %v ( %v )", kind, tableName, strings.Join(fields, ", ")), nil
}
