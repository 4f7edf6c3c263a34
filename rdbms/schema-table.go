package rdbms

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/relloyd/shipetl/helper"
)

var reQuotedDottedName = regexp.MustCompile(`^"[^"]+\.[^"]+"$`) // "random.table"

// SchemaTable holds an optionally schema-qualified source table name like public.shipments.
type SchemaTable struct {
	SchemaTable string
}

func NewSchemaTable(schema string, table string) SchemaTable {
	if schema == "" {
		return SchemaTable{table}
	}
	return SchemaTable{schema + "." + table}
}

func (st *SchemaTable) isQuotedTable() bool {
	return reQuotedDottedName.MatchString(st.SchemaTable)
}

func (st *SchemaTable) GetTable() string {
	if st.isQuotedTable() {
		return st.SchemaTable // return the "random.table"
	}
	i := strings.Index(st.SchemaTable, ".")
	if i < 0 { // if we have just a table...
		return st.SchemaTable
	}
	return st.SchemaTable[i+1:]
}

func (st *SchemaTable) GetSchema() string {
	if st.isQuotedTable() {
		return ""
	}
	i := strings.Index(st.SchemaTable, ".")
	if i < 0 {
		return ""
	}
	return st.SchemaTable[:i]
}

// Quoted returns "schema"."table" with each part double-quoted exactly once.
// Parts that are already quoted are left alone so case-sensitive names survive.
func (st *SchemaTable) Quoted() string {
	quote := func(s string) string {
		if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) > 1 {
			return s
		}
		return helper.QuoteIdentifier(s)
	}
	table := quote(st.GetTable())
	schema := st.GetSchema()
	if schema == "" {
		return table
	}
	return fmt.Sprintf("%v.%v", quote(schema), table)
}

func (st *SchemaTable) String() string {
	return st.SchemaTable
}
