package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andralbr/dataEvaluation/internal/model"
)

// FileWriter writes a report file.
//
// Text and csv reports are opened in append mode so repeated runs accumulate
// into the same file; a csv header is only written to an empty file. The
// structured formats are whole documents: rows are buffered and the file is
// replaced on Close.
type FileWriter struct {
	path       string
	format     Format
	dateFormat string

	f       *os.File
	header  bool
	pending []model.ReportRow
	rows    int
}

// NewFileWriter opens path for the given format, creating parent directories.
func NewFileWriter(path string, format Format, dateFormat string) (*FileWriter, error) {
	format, err := ParseFormat(string(format))
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating output dir: %w", err)
		}
	}

	w := &FileWriter{path: path, format: format, dateFormat: dateFormat}
	if !format.Streaming() {
		return w, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // report files are meant to be shared
	if err != nil {
		return nil, fmt.Errorf("opening report %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat report %s: %w", path, err)
	}
	w.f = f
	w.header = format == CSV && info.Size() == 0
	return w, nil
}

// Path returns the output file path.
func (w *FileWriter) Path() string { return w.path }

// Rows returns how many rows have been written so far.
func (w *FileWriter) Rows() int { return w.rows }

// Write appends rows to the report.
func (w *FileWriter) Write(rows []model.ReportRow) error {
	w.rows += len(rows)
	switch w.format {
	case Text:
		return encodeText(w.f, rows, w.dateFormat)
	case CSV:
		err := encodeCSV(w.f, rows, w.dateFormat, w.header)
		w.header = false
		return err
	}
	w.pending = append(w.pending, rows...)
	return nil
}

// Close flushes buffered documents and closes the file.
func (w *FileWriter) Close() error {
	if w.f != nil {
		return w.f.Close()
	}

	var buf bytes.Buffer
	if err := Encode(&buf, w.format, w.pending, w.dateFormat); err != nil {
		return err
	}
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil { //nolint:gosec // report files are meant to be shared
		return fmt.Errorf("writing report: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("replacing report: %w", err)
	}
	return nil
}
