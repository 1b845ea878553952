// Package report encodes consolidated usage rows.
//
// The text format is the classic one:
//
//	<licenseNo>, <version>, <toolbox>, <start>, <end>, <hours>
//
// with timestamps rendered by an strftime format and hours to two decimals.
// csv uses the same fields with a header row. json, yaml and msgpack carry the
// rows as structured documents with RFC 3339 timestamps.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/andralbr/dataEvaluation/internal/datefmt"
	"github.com/andralbr/dataEvaluation/internal/model"
)

// ErrUnknownFormat is returned for an unsupported output format name.
var ErrUnknownFormat = errors.New("unknown report format")

// Format names an output encoding.
type Format string

const (
	Text    Format = "text"
	CSV     Format = "csv"
	JSON    Format = "json"
	YAML    Format = "yaml"
	Msgpack Format = "msgpack"
)

// Formats lists every supported format.
var Formats = []Format{Text, CSV, JSON, YAML, Msgpack}

// ParseFormat resolves a format name. The empty string means Text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "txt":
		return Text, nil
	case Text, CSV, JSON, YAML, Msgpack:
		return f, nil
	case "msgpack5", "mpk":
		return Msgpack, nil
	case "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type used when serving f over HTTP.
func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case JSON:
		return "application/json"
	case YAML:
		return "application/yaml"
	case Msgpack:
		return "application/msgpack"
	}
	return "text/plain; charset=utf-8"
}

// Streaming reports whether rows can be appended to an existing file.
func (f Format) Streaming() bool {
	return f == Text || f == CSV
}

// Document is the envelope of the structured formats.
type Document struct {
	Generated time.Time         `json:"generated" yaml:"generated" msgpack:"generated"`
	Rows      []model.ReportRow `json:"rows" yaml:"rows" msgpack:"rows"`
}

var csvHeader = []string{"license_no", "version", "toolbox", "start", "end", "duration_hours"}

// Line renders one row in the text format, without the trailing newline.
func Line(r model.ReportRow, dateFormat string) string {
	return r.LicenseNo + ", " +
		r.Version + ", " +
		r.Toolbox + ", " +
		datefmt.Format(dateFormat, r.Start) + ", " +
		datefmt.Format(dateFormat, r.End) + ", " +
		FormatHours(r.DurationHours)
}

// FormatHours renders a duration in hours with two decimals.
func FormatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}

// Encode writes rows to w in the given format.
func Encode(w io.Writer, format Format, rows []model.ReportRow, dateFormat string) error {
	switch format {
	case Text, "":
		return encodeText(w, rows, dateFormat)
	case CSV:
		return encodeCSV(w, rows, dateFormat, true)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newDocument(rows))
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(rows)); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case Msgpack:
		data, err := msgpack.Marshal(newDocument(rows))
		if err != nil {
			return fmt.Errorf("encoding msgpack: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func newDocument(rows []model.ReportRow) Document {
	if rows == nil {
		rows = []model.ReportRow{}
	}
	return Document{Generated: time.Now().UTC().Truncate(time.Second), Rows: rows}
}

func encodeText(w io.Writer, rows []model.ReportRow, dateFormat string) error {
	for _, r := range rows {
		if _, err := io.WriteString(w, Line(r, dateFormat)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func encodeCSV(w io.Writer, rows []model.ReportRow, dateFormat string, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
	}
	for _, r := range rows {
		rec := []string{
			r.LicenseNo,
			r.Version,
			r.Toolbox,
			datefmt.Format(dateFormat, r.Start),
			datefmt.Format(dateFormat, r.End),
			FormatHours(r.DurationHours),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads a structured document written by Encode.
func Decode(r io.Reader, format Format) (Document, error) {
	var doc Document
	var err error
	switch format {
	case JSON:
		err = json.NewDecoder(r).Decode(&doc)
	case YAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	case Msgpack:
		err = msgpack.NewDecoder(r).Decode(&doc)
	default:
		return doc, fmt.Errorf("%w: %q cannot be decoded", ErrUnknownFormat, format)
	}
	if err != nil {
		return doc, fmt.Errorf("decoding %s report: %w", format, err)
	}
	return doc, nil
}
