package consolidate

import (
	"sort"
	"testing"
	"time"

	"github.com/andralbr/dataEvaluation/internal/model"
)

var base = time.Date(2020, 6, 14, 0, 0, 0, 0, time.UTC)

// ts returns base + n minutes.
func ts(n int) time.Time {
	return base.Add(time.Duration(n) * time.Minute)
}

func iv(a, b int) model.Interval {
	return model.Interval{Start: ts(a), End: ts(b)}
}

func sortedCopy(in []model.Interval) []model.Interval {
	out := append([]model.Interval(nil), in...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].End.Before(out[j].End)
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// assertSameSet compares two interval lists ignoring order.
func assertSameSet(t *testing.T, got, want []model.Interval) {
	t.Helper()
	g, w := sortedCopy(got), sortedCopy(want)
	if len(g) != len(w) {
		t.Fatalf("got %d intervals %v, want %d %v", len(g), g, len(w), w)
	}
	for i := range g {
		if !g[i].Start.Equal(w[i].Start) || !g[i].End.Equal(w[i].End) {
			t.Fatalf("interval %d = %v, want %v (got %v, want %v)", i, g[i], w[i], g, w)
		}
	}
}
