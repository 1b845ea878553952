package pipeline

import (
	"fmt"

	"github.com/andralbr/dataEvaluation/internal/report"
	"github.com/andralbr/dataEvaluation/internal/source"
)

// WrittenReport describes one output file touched by WriteReports.
type WrittenReport struct {
	Path   string
	Inputs []string
	Rows   int
}

// WriteReports writes every successful file result to its output path. Files
// sharing an output path (a single --output-file) are written in input order
// into one report. Text and csv reports are appended to.
func WriteReports(result *ProcessResult, opts Options) ([]WrittenReport, error) {
	format, err := report.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	var order []string
	groups := make(map[string][]FileResult)
	for _, fr := range result.Files {
		if fr.Err != nil {
			continue
		}
		out := source.OutputPath(fr.Input.Path, opts.OutputDir, opts.OutputFile)
		if _, ok := groups[out]; !ok {
			order = append(order, out)
		}
		groups[out] = append(groups[out], fr)
	}

	written := make([]WrittenReport, 0, len(order))
	for _, out := range order {
		w, err := report.NewFileWriter(out, format, opts.DateFormat)
		if err != nil {
			return written, err
		}
		wr := WrittenReport{Path: out}
		for _, fr := range groups[out] {
			if err := w.Write(fr.Rows); err != nil {
				_ = w.Close()
				return written, fmt.Errorf("writing %s: %w", out, err)
			}
			wr.Inputs = append(wr.Inputs, fr.Input.Path)
		}
		wr.Rows = w.Rows()
		if err := w.Close(); err != nil {
			return written, fmt.Errorf("closing %s: %w", out, err)
		}
		written = append(written, wr)
	}
	return written, nil
}
