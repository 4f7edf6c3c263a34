package file

import (
	"strings"

	"github.com/relloyd/shipetl/helper"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/stream"
)

// ColumnUnresolved is the extra column naming the references that could not be resolved.
const ColumnUnresolved = "unresolved"

// RejectsWriter records fact candidates that were dropped, one CSV row per candidate.
type RejectsWriter struct {
	out  *CSVFileOutput
	cols []string
}

// NewRejectsWriter creates a writer for candidates with the given columns.
// Files are named <prefix>_000001.csv[.gz] in directory.
func NewRejectsWriter(log logger.Logger, directory string, prefix string, cols []string, maxFileRows int, useGzip bool) (*RejectsWriter, error) {
	out, err := NewCSVFileOutput(log, directory, prefix, "csv", maxFileRows, useGzip)
	if err != nil {
		return nil, err
	}
	c := make([]string, len(cols))
	copy(c, cols)
	out.SetHeader(append(append([]string{}, c...), ColumnUnresolved))
	return &RejectsWriter{out: out, cols: c}, nil
}

// Reject writes cand followed by the space separated list of unresolved fields.
// Times are written in UTC.
func (w *RejectsWriter) Reject(cand stream.Record, unresolved []string) error {
	rec := make([]string, 0, len(w.cols)+1)
	for _, c := range w.cols {
		s, err := helper.GetStringFromInterface(cand.GetData(c), true)
		if err != nil {
			return err
		}
		rec = append(rec, s)
	}
	rec = append(rec, strings.Join(unresolved, " "))
	return w.out.Write(rec)
}

// Files returns the names of the files written so far.
func (w *RejectsWriter) Files() []string {
	return w.out.Files
}

// Count returns the number of rejected candidates written.
func (w *RejectsWriter) Count() int {
	return w.out.RowCount()
}

func (w *RejectsWriter) Close() error {
	return w.out.Close()
}
