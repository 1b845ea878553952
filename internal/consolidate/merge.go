// Package consolidate pairs START/END process records, groups the resulting
// intervals by toolbox and merges them into non-overlapping usage windows.
package consolidate

import (
	"sort"
	"time"

	"github.com/andralbr/dataEvaluation/internal/model"
)

// Merge collapses intervals into the minimal set of non-overlapping intervals
// covering the same time. Touching intervals are merged. The input slice is
// not modified. Output is ordered by start time, but callers should not rely
// on any particular order.
func Merge(intervals []model.Interval) []model.Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]model.Interval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]model.Interval, 0, len(sorted))
	cur := sorted[0]
	for _, iv := range sorted[1:] {
		// Sorted by start, so iv overlaps cur iff it starts no later than cur ends.
		if !iv.Start.After(cur.End) {
			if iv.End.After(cur.End) {
				cur.End = iv.End
			}
			continue
		}
		merged = append(merged, cur)
		cur = iv
	}
	return append(merged, cur)
}

// MergeTimestamps merges a flat [start0, end0, start1, end1, ...] list.
func MergeTimestamps(stamps []time.Time) ([]model.Interval, error) {
	if len(stamps)%2 != 0 {
		return nil, ErrDegenerateInput
	}
	intervals := make([]model.Interval, 0, len(stamps)/2)
	for i := 0; i < len(stamps); i += 2 {
		intervals = append(intervals, model.Interval{Start: stamps[i], End: stamps[i+1]})
	}
	return Merge(intervals), nil
}

// Flatten is the inverse of the MergeTimestamps input shape.
func Flatten(intervals []model.Interval) []time.Time {
	out := make([]time.Time, 0, 2*len(intervals))
	for _, iv := range intervals {
		out = append(out, iv.Start, iv.End)
	}
	return out
}
