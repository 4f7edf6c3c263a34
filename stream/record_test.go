package stream

import (
	"testing"
)

func TestRecordSetAppend(t *testing.T) {
	rs := NewRecordSet("customers", []string{"customer_id", "name"})
	if err := rs.AppendValues(int64(1), "A"); err != nil {
		t.Fatal(err)
	}
	if err := rs.AppendValues(int64(2)); err == nil {
		t.Fatal("expected error for a short row")
	}
	r := NewRecord()
	r.SetData("customer_id", int64(3))
	if err := rs.Append(r); err == nil {
		t.Fatal("expected error for a record missing a column")
	}
	r.SetData("name", nil)
	if err := rs.Append(r); err != nil {
		t.Fatalf("a nil value is a valid NULL: %v", err)
	}
	rows := rs.Rows()
	if len(rows) != 2 || rows[1][0] != int64(3) || rows[1][1] != nil {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestRecordCopyIsIndependent(t *testing.T) {
	r := NewRecord()
	r.SetData("a", "x")
	c := r.Copy()
	c.SetData("a", "y")
	if r.GetData("a") != "x" {
		t.Fatal("expected the original record to be unchanged")
	}
	s, err := c.GetDataAsString("a")
	if err != nil || s != "y" {
		t.Fatalf("expected y; got %v %v", s, err)
	}
}

func TestSnapshotGet(t *testing.T) {
	s := Snapshot{"ships": NewRecordSet("ships", []string{"ship_id"})}
	if _, err := s.Get("ships"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get("ports"); err == nil {
		t.Fatal("expected error for a missing table")
	}
}
