package shared

import (
	"testing"

	"github.com/cevaris/ordered_map"
	"github.com/relloyd/shipetl/logger"
)

func TestSqlInsertTxtBatch(t *testing.T) {
	log := logger.NewLogger("shipetl", "error", true)
	omKeys := ordered_map.NewOrderedMap()
	omKeys.Set("col1", "A")
	omCols := ordered_map.NewOrderedMap()
	omCols.Set("col2", "B")
	omCols.Set("col3", "C")
	o, err := NewInsertGenerator(&SqlStatementGeneratorConfig{
		Log:             log,
		OutputTable:     "STG_T_1",
		TargetKeyCols:   omKeys,
		TargetOtherCols: omCols,
	})
	if err != nil {
		t.Fatal(err)
	}
	var _ SqlStmtTxtBatcher = o
	// Batch of 2 rows.
	o.InitBatch(2)
	full, err := o.AddValuesToBatch([]interface{}{1, "x", 2.5})
	if err != nil || full {
		t.Fatalf("first row: full = %v, err = %v", full, err)
	}
	full, err = o.AddValuesToBatch([]interface{}{2, "y", nil})
	if err != nil || !full {
		t.Fatalf("second row: full = %v, err = %v", full, err)
	}
	if _, err = o.AddValuesToBatch([]interface{}{3, "z", 1.0}); err == nil {
		t.Fatal("expected error adding to a full batch")
	}
	expected := `insert into STG_T_1 ("A","B","C") values (?,?,?),(?,?,?)`
	if got := o.GetStatement(); got != expected {
		t.Fatalf("expected %v; got %v", expected, got)
	}
	if len(o.GetValues()) != 6 {
		t.Fatalf("expected 6 bind values; got %v", len(o.GetValues()))
	}
	// Partial batch regenerates the statement.
	o.InitBatch(2)
	if _, err = o.AddValuesToBatch([]interface{}{1, "x"}); err == nil {
		t.Fatal("expected error for wrong number of values")
	}
	if _, err = o.AddValuesToBatch([]interface{}{1, "x", 1}); err != nil {
		t.Fatal(err)
	}
	expected = `insert into STG_T_1 ("A","B","C") values (?,?,?)`
	if got := o.GetStatement(); got != expected {
		t.Fatalf("expected %v; got %v", expected, got)
	}
	if o.FieldList[0] != "col1" || o.FieldList[2] != "col3" {
		t.Fatalf("unexpected field list %v", o.FieldList)
	}
}

func TestNewInsertGeneratorErrors(t *testing.T) {
	log := logger.NewLogger("shipetl", "error", true)
	if _, err := NewInsertGenerator(&SqlStatementGeneratorConfig{Log: log}); err == nil {
		t.Fatal("expected error for missing table")
	}
	if _, err := NewInsertGenerator(&SqlStatementGeneratorConfig{Log: log, OutputTable: "X"}); err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestMockRows(t *testing.T) {
	r := NewMockRows([]string{"a", "b"}, [][]interface{}{{1, "x"}, {2, nil}})
	count := 0
	for r.Next() {
		var a, b interface{}
		if err := r.Scan(&a, &b); err != nil {
			t.Fatal(err)
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 rows; got %v", count)
	}
}
