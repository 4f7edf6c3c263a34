package file

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
	"github.com/relloyd/shipetl/logger"
)

var reGzipExtension = regexp.MustCompile(`^(.*?)(\.*)(?i)(gzip|gz){0,}$`) // remove multiple leading '.' and trailing (case insensitive) "gz|gzip"

// CSVFileOutput writes records to CSV files in a directory, starting a new file every maxFileRows rows.
// Every file starts with the header set by SetHeader.
type CSVFileOutput struct {
	log             logger.Logger
	directory       string
	prefix          string
	extension       string
	header          []string
	maxFileRows     int
	useGzip         bool
	currentSuffixID int
	currentRowCount int
	totalRowCount   int
	file            *os.File
	gzWriter        *gzip.Writer
	bufWriter       *bufio.Writer
	csvWriter       *csv.Writer
	Files           []string // names of the files created so far
}

// NewCSVFileOutput creates a CSVFileOutput. The directory must exist.
// Set maxFileRows to the number of rows per file (excluding the header) or 0 for a single file.
// Setting useGzip compresses each file and makes the extension end with ".gz".
func NewCSVFileOutput(log logger.Logger, directory string, prefix string, extension string, maxFileRows int, useGzip bool) (*CSVFileOutput, error) {
	fi, err := os.Stat(directory)
	if err != nil {
		return nil, errors.Wrap(err, "unable to use CSV output directory")
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("CSV output path %q is not a directory", directory)
	}
	f := &CSVFileOutput{
		log:         log,
		directory:   directory,
		prefix:      prefix,
		extension:   extension,
		maxFileRows: maxFileRows,
		useGzip:     useGzip,
	}
	if useGzip {
		f.extension = reGzipExtension.ReplaceAllString(f.extension, "$1.gz")
	}
	log.Debug("CSVFileOutput directory=", f.directory, "; prefix=", f.prefix, "; extension=", f.extension, "; maxFileRows=", f.maxFileRows, "; useGzip=", f.useGzip)
	return f, nil
}

// SetHeader stores the record written at the top of each new file.
func (f *CSVFileOutput) SetHeader(record []string) {
	f.header = record
}

// Write appends record to the current file, opening a new one first when required.
func (f *CSVFileOutput) Write(record []string) error {
	if f.csvWriter == nil {
		if err := f.open(); err != nil {
			return err
		}
	}
	if err := f.csvWriter.Write(record); err != nil {
		return errors.Wrapf(err, "unable to write to CSV file %v", f.file.Name())
	}
	f.currentRowCount++
	f.totalRowCount++
	if f.maxFileRows > 0 && f.currentRowCount >= f.maxFileRows { // if we need to rotate the output file...
		return f.Close()
	}
	return nil
}

// RowCount returns the number of records written across all files.
func (f *CSVFileOutput) RowCount() int {
	return f.totalRowCount
}

// Close flushes and closes the current file. The next Write opens a new file.
func (f *CSVFileOutput) Close() error {
	if f.csvWriter == nil {
		return nil
	}
	name := f.file.Name()
	f.csvWriter.Flush()
	err := f.csvWriter.Error()
	if f.useGzip {
		if e := f.bufWriter.Flush(); e != nil && err == nil {
			err = e
		}
		if e := f.gzWriter.Close(); e != nil && err == nil {
			err = e
		}
	}
	if e := f.file.Close(); e != nil && err == nil {
		err = e
	}
	f.csvWriter = nil
	f.currentRowCount = 0
	if err != nil {
		return errors.Wrapf(err, "unable to close CSV file %v", name)
	}
	return nil
}

func (f *CSVFileOutput) open() error {
	f.currentSuffixID++
	name := filepath.Join(f.directory, fmt.Sprintf("%v_%06d.%v", f.prefix, f.currentSuffixID, f.extension))
	f.log.Info("creating CSV file ", name)
	file, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "unable to create CSV file %v", name)
	}
	f.file = file
	f.Files = append(f.Files, name)
	if f.useGzip {
		f.gzWriter = gzip.NewWriter(file)
		f.bufWriter = bufio.NewWriter(f.gzWriter)
		f.csvWriter = csv.NewWriter(f.bufWriter)
	} else {
		f.csvWriter = csv.NewWriter(file)
	}
	if f.header != nil {
		if err = f.csvWriter.Write(f.header); err != nil {
			return errors.Wrapf(err, "unable to write header to CSV file %v", name)
		}
	}
	return nil
}
