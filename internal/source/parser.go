// Package source discovers and parses process log files.
//
// A log holds two kinds of lines:
//
//	$START,<processID>,<Y-m-d H:M>
//	$END,<processID>,<licenseNo>,<version>,<Y-m-d H:M>,[<tbx>:<tbx>:...]
//
// Every other line is ignored.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andralbr/dataEvaluation/internal/consolidate"
	"github.com/andralbr/dataEvaluation/internal/datefmt"
	"github.com/andralbr/dataEvaluation/internal/model"
)

const (
	tagStart = "$START"
	tagEnd   = "$END"
)

var (
	errFieldCount   = errors.New("too few fields")
	errNoToolboxes  = errors.New("empty toolbox list")
	errEmptyProcess = errors.New("empty process id")
)

// ParseLine decodes a single log line. ok is false for lines that carry no
// record, either because they are not tagged or because the record had to be
// dropped; perr is set in the latter case. An $END with a malformed toolbox
// list is still returned, with an empty toolbox set, alongside a perr.
func ParseLine(line string, lineNo int) (rec model.LogRecord, ok bool, perr *ParseError) {
	line = strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, tagStart):
		return parseStart(line, lineNo)
	case strings.HasPrefix(line, tagEnd):
		return parseEnd(line, lineNo)
	}
	return model.LogRecord{}, false, nil
}

func parseStart(line string, lineNo int) (model.LogRecord, bool, *ParseError) {
	fields := strings.SplitN(line, ",", 3)
	if len(fields) < 3 {
		return model.LogRecord{}, false, &ParseError{Line: lineNo, Kind: consolidate.MalformedTimestamp, Text: line, Err: errFieldCount}
	}
	id := strings.TrimSpace(fields[1])
	if id == "" {
		return model.LogRecord{}, false, &ParseError{Line: lineNo, Kind: consolidate.MalformedTimestamp, Text: line, Err: errEmptyProcess}
	}
	ts, err := datefmt.ParseLogTime(strings.TrimSpace(fields[2]))
	if err != nil {
		return model.LogRecord{}, false, &ParseError{Line: lineNo, ProcessID: id, Kind: consolidate.MalformedTimestamp, Text: line, Err: err}
	}

	rec := model.Start(id, ts)
	rec.Line = lineNo
	return rec, true, nil
}

func parseEnd(line string, lineNo int) (model.LogRecord, bool, *ParseError) {
	fields := strings.SplitN(line, ",", 6)
	if len(fields) < 5 {
		return model.LogRecord{}, false, &ParseError{Line: lineNo, Kind: consolidate.MalformedTimestamp, Text: line, Err: errFieldCount}
	}
	id := strings.TrimSpace(fields[1])
	if id == "" {
		return model.LogRecord{}, false, &ParseError{Line: lineNo, Kind: consolidate.MalformedTimestamp, Text: line, Err: errEmptyProcess}
	}
	ts, err := datefmt.ParseLogTime(strings.TrimSpace(fields[4]))
	if err != nil {
		return model.LogRecord{}, false, &ParseError{Line: lineNo, ProcessID: id, Kind: consolidate.MalformedTimestamp, Text: line, Err: err}
	}

	rec := model.End(id, strings.TrimSpace(fields[2]), strings.TrimSpace(fields[3]), ts)
	rec.Line = lineNo

	var list string
	if len(fields) == 6 {
		list = fields[5]
	}
	tbx, err := parseToolboxes(list)
	if err != nil {
		return rec, true, &ParseError{Line: lineNo, ProcessID: id, Kind: consolidate.MalformedToolboxList, Text: line, Err: err}
	}
	rec.Toolboxes = tbx
	return rec, true, nil
}

// parseToolboxes reads "[a:b:c]"; the brackets are optional. Blank names are
// skipped.
func parseToolboxes(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	var out []string
	for _, name := range strings.Split(s, ":") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, errNoToolboxes
	}
	return out, nil
}

// ParseReader reads records from r in order. Malformed lines are collected in
// Errors and never stop the scan.
func ParseReader(r io.Reader) ParseResult {
	var res ParseResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		res.Lines++
		rec, ok, perr := ParseLine(scanner.Text(), res.Lines)
		if perr != nil {
			res.Errors = append(res.Errors, *perr)
		}
		if ok {
			res.Records = append(res.Records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		res.Err = fmt.Errorf("reading log: %w", err)
	}
	return res
}

// ParseFile opens path and parses it with ParseReader.
func ParseFile(path string) ParseResult {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}
