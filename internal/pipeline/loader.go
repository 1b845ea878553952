package pipeline

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/andralbr/dataEvaluation/internal/consolidate"
	"github.com/andralbr/dataEvaluation/internal/model"
	"github.com/andralbr/dataEvaluation/internal/source"
)

// Options controls a processing run.
type Options struct {
	Filter     *model.TimeFilter
	DateFormat string
	OutputDir  string
	OutputFile string
	Format     string
	Workers    int // 0 means GOMAXPROCS
}

// FileResult is the consolidated report of one input file.
type FileResult struct {
	Input       source.InputFile
	Rows        []model.ReportRow
	Diagnostics []consolidate.Diagnostic
	ParseErrors int
	Lines       int
	Stats       consolidate.Stats
	Cached      bool
	Err         error

	cachedDiagnostics int
}

// DiagnosticCount returns the number of diagnostics, including those of a
// cached result whose details were not kept.
func (f FileResult) DiagnosticCount() int {
	if f.Cached {
		return f.cachedDiagnostics
	}
	return len(f.Diagnostics)
}

// ProcessResult holds the output of a multi-file run, in input order.
type ProcessResult struct {
	Files       []FileResult
	TotalFiles  int
	ParsedFiles int
	FileErrors  int
	ParseErrors int
	CacheHits   int
	Reparsed    int
}

// Rows returns the rows of every successfully processed file, in input order.
func (r *ProcessResult) Rows() []model.ReportRow {
	var out []model.ReportRow
	for _, f := range r.Files {
		out = append(out, f.Rows...)
	}
	return out
}

// RowCount returns the total number of report rows.
func (r *ProcessResult) RowCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Rows)
	}
	return n
}

// ProgressFunc is called during processing to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// ProcessReader parses and consolidates a single record stream.
func ProcessReader(r io.Reader, filter *model.TimeFilter) FileResult {
	return consolidateParsed(source.ParseReader(r), filter)
}

// ProcessFile parses and consolidates one input file.
func ProcessFile(f source.InputFile, filter *model.TimeFilter) FileResult {
	res := consolidateParsed(source.ParseFile(f.Path), filter)
	res.Input = f
	return res
}

func consolidateParsed(pr source.ParseResult, filter *model.TimeFilter) FileResult {
	if pr.Err != nil {
		return FileResult{Err: pr.Err, Lines: pr.Lines}
	}
	out := consolidate.Run(pr.Records, filter)
	return FileResult{
		Rows:        out.Rows,
		Diagnostics: append(pr.Diagnostics(), out.Diagnostics...),
		ParseErrors: len(pr.Errors),
		Lines:       pr.Lines,
		Stats:       out.Stats,
	}
}

// Process consolidates every file independently using a bounded worker pool.
// Results keep the input order. A file that cannot be read is counted in
// FileErrors and does not stop the run; a cancelled ctx does.
func Process(ctx context.Context, files []source.InputFile, opts Options, progressFn ProgressFunc) (*ProcessResult, error) {
	result := &ProcessResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	results, err := runPool(ctx, files, opts.Workers, func(f source.InputFile) FileResult {
		return ProcessFile(f, opts.Filter)
	}, func(n int) {
		if progressFn != nil {
			progressFn(n, len(files))
		}
	})
	if err != nil {
		return nil, err
	}

	result.Files = results
	result.Reparsed = len(results)
	collect(result)
	return result, nil
}

// runPool maps fn over files with at most workers goroutines.
func runPool(ctx context.Context, files []source.InputFile, workers int, fn func(source.InputFile) FileResult, done func(int)) ([]FileResult, error) {
	numWorkers := workers
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]FileResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	// Feed work
	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					return
				}
				results[idx] = fn(files[idx])
				done(int(processed.Add(1)))
			}
		}()
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// collect fills the run totals and logs per-file diagnostics.
func collect(result *ProcessResult) {
	result.ParsedFiles = 0
	result.FileErrors = 0
	result.ParseErrors = 0
	for _, fr := range result.Files {
		if fr.Err != nil {
			result.FileErrors++
			slog.Error("processing file", "file", fr.Input.Path, "err", fr.Err)
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += fr.ParseErrors
		logDiagnostics(fr)
	}
}

func logDiagnostics(fr FileResult) {
	for _, d := range fr.Diagnostics {
		slog.Debug(d.Message,
			"file", fr.Input.Path,
			"line", d.Line,
			"process_id", d.ProcessID,
			"kind", string(d.Kind),
		)
	}
	slog.Info("consolidated",
		"file", fr.Input.Path,
		"lines", fr.Lines,
		"valid", fr.Stats.ValidRecords,
		"unterminated", fr.Stats.Unterminated,
		"rows", len(fr.Rows),
		"diagnostics", fr.DiagnosticCount(),
		"cached", fr.Cached,
	)
}
