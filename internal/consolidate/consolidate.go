package consolidate

import (
	"sort"
	"time"

	"github.com/andralbr/dataEvaluation/internal/model"
)

// Stats summarizes one consolidation run.
type Stats struct {
	Records      int `json:"records" yaml:"records" msgpack:"records"`
	ValidRecords int `json:"valid_records" yaml:"valid_records" msgpack:"valid_records"`
	Unterminated int `json:"unterminated" yaml:"unterminated" msgpack:"unterminated"`
	Processes    int `json:"processes" yaml:"processes" msgpack:"processes"`
	Filtered     int `json:"filtered" yaml:"filtered" msgpack:"filtered"`
	Batches      int `json:"batches" yaml:"batches" msgpack:"batches"`
	Rows         int `json:"rows" yaml:"rows" msgpack:"rows"`
}

// Result is the report for one record stream.
type Result struct {
	Rows        []model.ReportRow
	Diagnostics []Diagnostic
	Stats       Stats
}

// Run pairs the records and consolidates the valid ones.
func Run(records []model.LogRecord, filter *model.TimeFilter) Result {
	p := MarkValidPairs(records)
	res := Consolidate(records, p.Valid, filter)
	res.Diagnostics = append(p.Diagnostics, res.Diagnostics...)
	res.Stats.ValidRecords = p.ValidCount
	res.Stats.Unterminated += p.Unterminated
	return res
}

type pending struct {
	proc model.ProcessInterval
	iv   model.Interval
}

// Consolidate turns paired records into report rows. Only records with
// valid[i] set are considered; a nil valid slice admits every record.
//
// Processes are collected into a batch until no process is open any more;
// the batch is then merged per license and toolbox and emitted. Merging
// never crosses batch boundaries.
func Consolidate(records []model.LogRecord, valid []bool, filter *model.TimeFilter) Result {
	var (
		res    = Result{Stats: Stats{Records: len(records)}}
		open   = make(map[string]time.Time)
		active int
		batch  []pending
	)

	for i, r := range records {
		if valid != nil && (i >= len(valid) || !valid[i]) {
			continue
		}

		switch r.Kind {
		case model.KindStart:
			open[r.ProcessID] = r.Timestamp
			active++

		case model.KindEnd:
			start, ok := open[r.ProcessID]
			if !ok {
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Kind:      MissingStartOnConsolidate,
					Line:      r.Line,
					ProcessID: r.ProcessID,
					Message:   "no start time recorded for end",
				})
				continue
			}
			delete(open, r.ProcessID)
			active--

			proc := model.ProcessInterval{
				ProcessID: r.ProcessID,
				Start:     start,
				End:       r.Timestamp,
				LicenseNo: r.LicenseNo,
				Version:   r.Version,
				Toolboxes: r.Toolboxes,
			}
			res.Stats.Processes++

			switch {
			case proc.End.Before(proc.Start):
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Kind:      InvertedInterval,
					Line:      r.Line,
					ProcessID: r.ProcessID,
					Message:   "end is before start",
				})
			case filter.Admits(proc.Start, proc.End):
				s, e := filter.Clip(proc.Start, proc.End)
				batch = append(batch, pending{proc: proc, iv: model.Interval{Start: s, End: e}})
			default:
				res.Stats.Filtered++
			}

			if active == 0 && len(batch) > 0 {
				res.Rows = append(res.Rows, flush(batch)...)
				res.Stats.Batches++
				batch = batch[:0]
			}
		}
	}

	// Only reachable when valid disagrees with the pairing of records.
	left := make([]string, 0, len(open))
	for id := range open {
		left = append(left, id)
	}
	sort.Strings(left)
	for _, id := range left {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Kind:      UnterminatedProcess,
			ProcessID: id,
			Message:   "start still open at end of stream",
		})
		res.Stats.Unterminated++
	}
	if len(batch) > 0 {
		res.Rows = append(res.Rows, flush(batch)...)
		res.Stats.Batches++
	}

	res.Stats.Rows = len(res.Rows)
	return res
}

type licenseKey struct {
	licenseNo string
	version   string
}

// flush splits a batch by license and version, in first-seen order, and
// expands the merged toolbox windows into rows.
func flush(batch []pending) []model.ReportRow {
	if len(batch) == 0 {
		return nil
	}

	var order []licenseKey
	groups := make(map[licenseKey][]Tagged)
	for _, p := range batch {
		k := licenseKey{p.proc.LicenseNo, p.proc.Version}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], Tagged{Interval: p.iv, Toolboxes: p.proc.Toolboxes})
	}

	var rows []model.ReportRow
	for _, k := range order {
		for _, w := range Associate(groups[k]) {
			for _, iv := range w.Intervals {
				rows = append(rows, model.NewReportRow(k.licenseNo, k.version, w.Toolbox, iv))
			}
		}
	}
	return rows
}
