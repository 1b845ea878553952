package consolidate

import (
	"fmt"
	"sort"

	"github.com/andralbr/dataEvaluation/internal/model"
)

// Pairing is the outcome of the first pass over a record stream.
type Pairing struct {
	// Valid[i] is true when records[i] is half of a matched START/END pair.
	Valid        []bool
	ValidCount   int
	Unterminated int
	Diagnostics  []Diagnostic
}

// Indices returns the valid record indices in ascending order.
func (p Pairing) Indices() []int {
	out := make([]int, 0, p.ValidCount)
	for i, ok := range p.Valid {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// MarkValidPairs matches every $END with the most recent still-open $START of
// the same process ID.
//
// A second $START for an ID that is already open replaces the pending one:
// the earlier start is never paired and produces no interval. This mirrors a
// map keyed by process ID and is reported as a SupersededStart diagnostic.
// An $END without an open $START is an OrphanEnd; starts still open after the
// last record are unterminated processes.
func MarkValidPairs(records []model.LogRecord) Pairing {
	p := Pairing{Valid: make([]bool, len(records))}
	open := make(map[string]int)

	for i, r := range records {
		switch r.Kind {
		case model.KindStart:
			if prev, ok := open[r.ProcessID]; ok {
				p.Diagnostics = append(p.Diagnostics, Diagnostic{
					Kind:      SupersededStart,
					Line:      records[prev].Line,
					ProcessID: r.ProcessID,
					Message:   fmt.Sprintf("start replaced by a later start at line %d", r.Line),
				})
			}
			open[r.ProcessID] = i

		case model.KindEnd:
			start, ok := open[r.ProcessID]
			if !ok {
				p.Diagnostics = append(p.Diagnostics, Diagnostic{
					Kind:      OrphanEnd,
					Line:      r.Line,
					ProcessID: r.ProcessID,
					Message:   "end without a matching start",
				})
				continue
			}
			p.Valid[start] = true
			p.Valid[i] = true
			p.ValidCount += 2
			delete(open, r.ProcessID)
		}
	}

	p.Unterminated = len(open)
	if len(open) > 0 {
		left := make([]int, 0, len(open))
		for _, idx := range open {
			left = append(left, idx)
		}
		sort.Ints(left)
		for _, idx := range left {
			p.Diagnostics = append(p.Diagnostics, Diagnostic{
				Kind:      UnterminatedProcess,
				Line:      records[idx].Line,
				ProcessID: records[idx].ProcessID,
				Message:   "start without a matching end",
			})
		}
	}
	return p
}
