package source

import (
	"fmt"

	"github.com/andralbr/dataEvaluation/internal/consolidate"
	"github.com/andralbr/dataEvaluation/internal/model"
)

// InputFile is a process log found during discovery.
type InputFile struct {
	Path string
	Name string // base name, used for the p_<name> output file
}

// ParseError is a line that could not be fully decoded.
type ParseError struct {
	Line      int
	ProcessID string // empty when the line failed before the id was read
	Kind      consolidate.Kind
	Text      string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Diagnostic converts the parse error into the engine's diagnostic form.
func (e *ParseError) Diagnostic() consolidate.Diagnostic {
	return consolidate.Diagnostic{
		Kind:      e.Kind,
		Line:      e.Line,
		ProcessID: e.ProcessID,
		Message:   e.Err.Error(),
	}
}

// ParseResult holds the output of parsing one log file.
type ParseResult struct {
	Records []model.LogRecord
	Errors  []ParseError
	Lines   int // physical lines read, including ignored ones
	Err     error
}

// Diagnostics returns the parse errors as engine diagnostics.
func (r ParseResult) Diagnostics() []consolidate.Diagnostic {
	out := make([]consolidate.Diagnostic, 0, len(r.Errors))
	for i := range r.Errors {
		out = append(out, r.Errors[i].Diagnostic())
	}
	return out
}
