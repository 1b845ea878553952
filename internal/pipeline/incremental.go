package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/andralbr/dataEvaluation/internal/consolidate"
	"github.com/andralbr/dataEvaluation/internal/model"
	"github.com/andralbr/dataEvaluation/internal/source"
	"github.com/andralbr/dataEvaluation/internal/store"
)

// settingsKey is everything besides file content that changes the rows.
type settingsKey struct {
	Filtered    bool
	FilterStart time.Time
	FilterEnd   time.Time
}

// SettingsHash fingerprints the options that affect consolidation, so a
// cached report is only reused under the same time filter.
func SettingsHash(filter *model.TimeFilter) (string, error) {
	key := settingsKey{}
	if filter != nil {
		key = settingsKey{Filtered: true, FilterStart: filter.Start.UTC(), FilterEnd: filter.End.UTC()}
	}
	h, err := hashstructure.Hash(key, hashstructure.FormatV2, nil)
	if err != nil {
		return "", fmt.Errorf("hashing settings: %w", err)
	}
	return strconv.FormatUint(h, 16), nil
}

// ProcessWithCache diffs the inputs against the cache, reprocesses only
// changed files, and returns the combined result set in input order.
func ProcessWithCache(ctx context.Context, files []source.InputFile, opts Options, cache *store.Cache, progressFn ProgressFunc) (*ProcessResult, error) {
	result := &ProcessResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	settings, err := SettingsHash(opts.Filter)
	if err != nil {
		return nil, err
	}

	// Get tracked files from cache
	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	// Diff: partition into changed and unchanged
	results := make([]FileResult, len(files))
	infos := make([]store.FileInfo, len(files))
	var toReparse []int

	for i, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			results[i] = FileResult{Input: f, Err: err}
			forget(cache, tracked, f.Path)
			continue
		}
		infos[i] = store.FileInfo{
			MtimeNs:      info.ModTime().UnixNano(),
			SizeBytes:    info.Size(),
			SettingsHash: settings,
		}

		if cached, ok := tracked[f.Path]; ok && cached == infos[i] {
			sum, rows, err := cache.LoadFileRows(f.Path)
			if err == nil {
				results[i] = FileResult{
					Input: f,
					Rows:  rows,
					Lines: sum.Lines,
					Stats: consolidate.Stats{
						ValidRecords: sum.ValidRecords,
						Unterminated: sum.Unterminated,
						Rows:         len(rows),
					},
					Cached:            true,
					cachedDiagnostics: sum.Diagnostics,
				}
				result.CacheHits++
				continue
			}
		}
		toReparse = append(toReparse, i)
	}

	result.Reparsed = len(toReparse)

	// Parse changed files
	if len(toReparse) > 0 {
		pending := make([]source.InputFile, len(toReparse))
		for j, idx := range toReparse {
			pending[j] = files[idx]
		}

		parsed, err := runPool(ctx, pending, opts.Workers, func(f source.InputFile) FileResult {
			return ProcessFile(f, opts.Filter)
		}, func(n int) {
			if progressFn != nil {
				progressFn(n+result.CacheHits, result.TotalFiles)
			}
		})
		if err != nil {
			return nil, err
		}

		// Collect and cache results
		for j, fr := range parsed {
			idx := toReparse[j]
			results[idx] = fr
			if fr.Err != nil {
				forget(cache, tracked, fr.Input.Path)
				continue
			}
			sum := store.FileSummary{
				Lines:        fr.Lines,
				ValidRecords: fr.Stats.ValidRecords,
				Unterminated: fr.Stats.Unterminated,
				Diagnostics:  len(fr.Diagnostics),
			}
			_ = cache.SaveFileRows(fr.Input.Path, infos[idx], sum, fr.Rows)
		}
	}

	result.Files = results
	collect(result)
	return result, nil
}

// forget drops the cached rows of a file that can no longer be read.
func forget(cache *store.Cache, tracked map[string]store.FileInfo, path string) {
	if _, ok := tracked[path]; !ok {
		return
	}
	if err := cache.DeleteFileTracker(path); err != nil {
		slog.Debug("dropping cache entry failed", "path", path, "err", err)
	}
}

// RecordRun stores a finished run and its rows in the run history.
func RecordRun(cache *store.Cache, result *ProcessResult, settings string) (string, error) {
	id, err := cache.BeginRun(settings)
	if err != nil {
		return "", err
	}
	for _, fr := range result.Files {
		if fr.Err != nil || len(fr.Rows) == 0 {
			continue
		}
		if err := cache.AddRunRows(id, fr.Input.Path, fr.Rows); err != nil {
			return id, fmt.Errorf("recording rows of %s: %w", fr.Input.Path, err)
		}
	}
	if err := cache.FinishRun(id, result.TotalFiles, result.FileErrors, result.RowCount()); err != nil {
		return id, err
	}
	return id, nil
}
