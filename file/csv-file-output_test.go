package file

import (
	"compress/gzip"
	"encoding/csv"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/stream"
)

var header = []string{"col1", "col2"}

var data = [][]string{
	{"Line1", "Hello Readers of"},
	{"Line2", "golangcode.com"},
	{"Line3", "reeslloyd.com"},
	{"Line4", "reeslloyd4.com"}}

func readCSV(t *testing.T, name string, gz bool) [][]string {
	f, err := os.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var r *csv.Reader
	if gz {
		z, err := gzip.NewReader(f)
		if err != nil {
			t.Fatal(err)
		}
		r = csv.NewReader(z)
	} else {
		r = csv.NewReader(f)
	}
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestCSVFileOutputRotates(t *testing.T) {
	log := logger.NewLogger("csv test", "error", true)
	out, err := NewCSVFileOutput(log, t.TempDir(), "test", "csv", 3, false)
	if err != nil {
		t.Fatal(err)
	}
	out.SetHeader(header)
	for _, rec := range data {
		if err := out.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	if len(out.Files) != 2 || out.RowCount() != 4 {
		t.Fatalf("expected 4 rows in 2 files; got %v rows in %v", out.RowCount(), out.Files)
	}
	got := readCSV(t, out.Files[0], false)
	expected := append([][]string{header}, data[:3]...)
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("file 1: expected %v; got %v", expected, got)
	}
	got = readCSV(t, out.Files[1], false)
	expected = [][]string{header, data[3]}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("file 2: expected %v; got %v", expected, got)
	}
}

func TestCSVFileOutputGzip(t *testing.T) {
	log := logger.NewLogger("csv test", "error", true)
	out, err := NewCSVFileOutput(log, t.TempDir(), "test", "csv.gzip", 0, true)
	if err != nil {
		t.Fatal(err)
	}
	out.SetHeader(header)
	for _, rec := range data {
		if err := out.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	if len(out.Files) != 1 {
		t.Fatalf("expected 1 file; got %v", out.Files)
	}
	if ok, _ := regexp.MatchString(`\.csv\.gz$`, out.Files[0]); !ok {
		t.Fatalf("csv file is missing .gz extension: %v", out.Files[0])
	}
	if got := readCSV(t, out.Files[0], true); len(got) != 5 || !reflect.DeepEqual(got[0], header) {
		t.Fatalf("unexpected gzipped content %v", got)
	}
}

func TestCSVFileOutputBadDirectory(t *testing.T) {
	log := logger.NewLogger("csv test", "error", true)
	dir := t.TempDir()
	if _, err := NewCSVFileOutput(log, filepath.Join(dir, "missing"), "test", "csv", 0, false); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
	fn := filepath.Join(dir, "plain")
	if err := ioutil.WriteFile(fn, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCSVFileOutput(log, fn, "test", "csv", 0, false); err == nil {
		t.Fatal("expected an error when the path is a file")
	}
}

func TestRejectsWriter(t *testing.T) {
	log := logger.NewLogger("rejects test", "error", true)
	cols := []string{"shipment_id", "origin_port", "shipment_date"}
	w, err := NewRejectsWriter(log, t.TempDir(), "FACT_SHIPMENTS_rejects", cols, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	cand, err := stream.NewRecordFromValues(cols, []interface{}{int64(10), "X", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatal(err)
	}
	if err = w.Reject(cand, []string{"origin_port"}); err != nil {
		t.Fatal(err)
	}
	cand.SetData("origin_port", nil)
	if err = w.Reject(cand, []string{"origin_port", "ship_id"}); err != nil {
		t.Fatal(err)
	}
	if err = w.Close(); err != nil {
		t.Fatal(err)
	}
	if w.Count() != 2 || len(w.Files()) != 1 {
		t.Fatalf("expected 2 rejects in 1 file; got %v in %v", w.Count(), w.Files())
	}
	got := readCSV(t, w.Files()[0], false)
	if !reflect.DeepEqual(got[0], []string{"shipment_id", "origin_port", "shipment_date", ColumnUnresolved}) {
		t.Fatalf("unexpected header %v", got[0])
	}
	if got[1][0] != "10" || got[1][1] != "X" || got[1][3] != "origin_port" {
		t.Fatalf("unexpected reject %v", got[1])
	}
	if got[2][1] != "" || got[2][3] != "origin_port ship_id" {
		t.Fatalf("unexpected reject %v", got[2])
	}
}
