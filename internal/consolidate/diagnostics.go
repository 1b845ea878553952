package consolidate

import (
	"errors"
	"fmt"
)

// ErrDegenerateInput is returned when a flat timestamp list has an odd length.
var ErrDegenerateInput = errors.New("degenerate interval input: odd number of timestamps")

// Kind classifies a dropped or suspicious record.
type Kind string

const (
	UnterminatedProcess       Kind = "unterminated_process"
	OrphanEnd                 Kind = "orphan_end"
	SupersededStart           Kind = "superseded_start"
	MissingStartOnConsolidate Kind = "missing_start"
	InvertedInterval          Kind = "inverted_interval"
	MalformedTimestamp        Kind = "malformed_timestamp"
	MalformedToolboxList      Kind = "malformed_toolbox_list"
	// DegenerateIntervalInput labels ErrDegenerateInput from MergeTimestamps.
	// The record stream builds typed intervals and never produces it.
	DegenerateIntervalInput Kind = "degenerate_interval_input"
)

// Diagnostic describes a record the engine dropped or could not fully use.
// None of them abort processing.
type Diagnostic struct {
	Kind      Kind   `json:"kind" yaml:"kind" msgpack:"kind"`
	Line      int    `json:"line,omitempty" yaml:"line,omitempty" msgpack:"line,omitempty"`
	ProcessID string `json:"process_id,omitempty" yaml:"process_id,omitempty" msgpack:"process_id,omitempty"`
	Message   string `json:"message" yaml:"message" msgpack:"message"`
}

func (d Diagnostic) String() string {
	s := string(d.Kind)
	if d.ProcessID != "" {
		s += fmt.Sprintf(" (process %s)", d.ProcessID)
	}
	if d.Line > 0 {
		s = fmt.Sprintf("line %d: %s", d.Line, s)
	}
	return s + ": " + d.Message
}
