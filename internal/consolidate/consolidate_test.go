package consolidate

import (
	"testing"
	"time"

	"github.com/andralbr/dataEvaluation/internal/model"
)

func rowIntervals(rows []model.ReportRow, toolbox string) []model.Interval {
	var out []model.Interval
	for _, r := range rows {
		if r.Toolbox == toolbox {
			out = append(out, model.Interval{Start: r.Start, End: r.End})
		}
	}
	return out
}

func TestRun_DisjointToolboxes(t *testing.T) {
	records := []model.LogRecord{
		start("A", 0, 1),
		start("B", 10, 2),
		end("A", 60, 3, "x"),
		end("B", 90, 4, "y"),
	}
	res := Run(records, nil)

	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(res.Rows), res.Rows)
	}
	assertSameSet(t, rowIntervals(res.Rows, "x"), []model.Interval{iv(0, 60)})
	assertSameSet(t, rowIntervals(res.Rows, "y"), []model.Interval{iv(10, 90)})
	if res.Stats.Batches != 1 {
		t.Errorf("Batches = %d, want 1", res.Stats.Batches)
	}
	if res.Rows[0].DurationHours != 1 {
		t.Errorf("DurationHours = %v, want 1", res.Rows[0].DurationHours)
	}
}

func TestRun_MergesSharedToolbox(t *testing.T) {
	records := []model.LogRecord{
		start("1", 0, 1),
		start("2", 3, 2),
		end("1", 4, 3, "m"),
		start("3", 6, 4),
		end("2", 7, 5, "m"),
		end("3", 9, 6, "m"),
		start("4", 10, 7),
		end("4", 11, 8, "m"),
	}
	res := Run(records, nil)
	assertSameSet(t, rowIntervals(res.Rows, "m"), []model.Interval{iv(0, 9), iv(10, 11)})
	if res.Stats.Batches != 2 {
		t.Errorf("Batches = %d, want 2", res.Stats.Batches)
	}
}

func TestRun_FilterClipsStraddlingProcess(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2020, 6, d, h, 0, 0, 0, time.UTC) }
	filter := &model.TimeFilter{Start: day(14, 0), End: day(15, 0)}

	records := []model.LogRecord{
		{Kind: model.KindStart, ProcessID: "p", Timestamp: day(13, 23), Line: 1},
		{Kind: model.KindEnd, ProcessID: "p", LicenseNo: "40", Version: "R2020a",
			Timestamp: day(14, 1), Toolboxes: []string{"matlab"}, Line: 2},
	}
	res := Run(records, filter)

	if len(res.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(res.Rows))
	}
	row := res.Rows[0]
	if !row.Start.Equal(day(14, 0)) || !row.End.Equal(day(14, 1)) {
		t.Errorf("row = %v..%v, want 14.06 00:00..01:00", row.Start, row.End)
	}
	if row.DurationHours != 1 {
		t.Errorf("DurationHours = %v, want 1", row.DurationHours)
	}
}

func TestRun_FilterCases(t *testing.T) {
	filter := &model.TimeFilter{Start: ts(100), End: ts(200)}
	tests := []struct {
		name       string
		start, end int
		want       []model.Interval
	}{
		{"before", 0, 50, nil},
		{"touching start", 50, 100, nil},
		{"after", 250, 300, nil},
		{"inside", 120, 150, []model.Interval{iv(120, 150)}},
		{"straddle end", 150, 250, []model.Interval{iv(150, 200)}},
		{"covers window", 0, 300, []model.Interval{iv(100, 200)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Run([]model.LogRecord{start("p", tt.start, 1), end("p", tt.end, 2, "x")}, filter)
			assertSameSet(t, rowIntervals(res.Rows, "x"), tt.want)
			if tt.want == nil && res.Stats.Filtered != 1 {
				t.Errorf("Filtered = %d, want 1", res.Stats.Filtered)
			}
		})
	}
}

func TestRun_FilteredBatchesAreNotCounted(t *testing.T) {
	filter := &model.TimeFilter{Start: ts(100), End: ts(200)}
	records := []model.LogRecord{
		start("a", 0, 1), end("a", 50, 2, "x"),
		start("b", 120, 3), end("b", 150, 4, "x"),
		start("c", 300, 5), end("c", 400, 6, "x"),
	}
	res := Run(records, filter)
	if res.Stats.Batches != 1 {
		t.Errorf("Batches = %d, want 1", res.Stats.Batches)
	}
	if res.Stats.Filtered != 2 {
		t.Errorf("Filtered = %d, want 2", res.Stats.Filtered)
	}
	assertSameSet(t, rowIntervals(res.Rows, "x"), []model.Interval{iv(120, 150)})
}

func TestDiagnosticString(t *testing.T) {
	tests := []struct {
		d    Diagnostic
		want string
	}{
		{Diagnostic{Kind: OrphanEnd, Line: 4, ProcessID: "7", Message: "end without a matching start"},
			"line 4: orphan_end (process 7): end without a matching start"},
		{Diagnostic{Kind: MalformedTimestamp, Line: 2, Message: "too few fields"},
			"line 2: malformed_timestamp: too few fields"},
		{Diagnostic{Kind: UnterminatedProcess, ProcessID: "9", Message: "open"},
			"unterminated_process (process 9): open"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestRun_OrphanEndDoesNotAffectOthers(t *testing.T) {
	records := []model.LogRecord{
		start("a", 0, 1),
		end("ghost", 5, 2, "x"),
		end("a", 10, 3, "x"),
	}
	res := Run(records, nil)

	assertSameSet(t, rowIntervals(res.Rows, "x"), []model.Interval{iv(0, 10)})
	if countKind(res.Diagnostics, OrphanEnd) != 1 {
		t.Fatalf("diagnostics = %v, want one orphan end", res.Diagnostics)
	}
	if res.Diagnostics[0].Line != 2 {
		t.Errorf("orphan diagnostic line = %d, want 2", res.Diagnostics[0].Line)
	}
}

func TestRun_BatchIsolation(t *testing.T) {
	// Two processes that never overlap land in separate batches even though
	// their intervals touch: each batch is merged on its own.
	records := []model.LogRecord{
		start("a", 0, 1), end("a", 10, 2, "x"),
		start("b", 10, 3), end("b", 20, 4, "x"),
	}
	res := Run(records, nil)
	if res.Stats.Batches != 2 {
		t.Fatalf("Batches = %d, want 2", res.Stats.Batches)
	}
	assertSameSet(t, rowIntervals(res.Rows, "x"), []model.Interval{iv(0, 10), iv(10, 20)})
}

func TestRun_SplitsBatchByLicense(t *testing.T) {
	records := []model.LogRecord{
		start("a", 0, 1),
		start("b", 5, 2),
		{Kind: model.KindEnd, ProcessID: "a", LicenseNo: "111", Version: "R2019b", Timestamp: ts(10), Toolboxes: []string{"x"}},
		{Kind: model.KindEnd, ProcessID: "b", LicenseNo: "222", Version: "R2020a", Timestamp: ts(20), Toolboxes: []string{"x"}},
	}
	res := Run(records, nil)
	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(res.Rows), res.Rows)
	}
	if res.Rows[0].LicenseNo != "111" || res.Rows[1].LicenseNo != "222" {
		t.Errorf("licenses = %s,%s; want 111,222", res.Rows[0].LicenseNo, res.Rows[1].LicenseNo)
	}
	if res.Rows[1].Version != "R2020a" {
		t.Errorf("version = %s, want R2020a", res.Rows[1].Version)
	}
}

func TestRun_EmptyToolboxSetContributesNoRows(t *testing.T) {
	records := []model.LogRecord{
		start("a", 0, 1),
		start("b", 1, 2),
		end("a", 5, 3),
		end("b", 6, 4, "x"),
	}
	res := Run(records, nil)
	assertSameSet(t, rowIntervals(res.Rows, "x"), []model.Interval{iv(1, 6)})
	if len(res.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(res.Rows))
	}
}

func TestRun_InvertedInterval(t *testing.T) {
	res := Run([]model.LogRecord{start("a", 10, 1), end("a", 5, 2, "x")}, nil)
	if len(res.Rows) != 0 {
		t.Fatalf("rows = %+v, want none", res.Rows)
	}
	if countKind(res.Diagnostics, InvertedInterval) != 1 {
		t.Fatalf("diagnostics = %v, want one inverted interval", res.Diagnostics)
	}
}

func TestConsolidate_MissingStartIsReported(t *testing.T) {
	records := []model.LogRecord{
		start("a", 0, 1),
		end("b", 3, 2, "x"),
		end("a", 5, 3, "x"),
	}
	// Every record claimed valid: the orphan end must be skipped, not crash.
	res := Consolidate(records, []bool{true, true, true}, nil)

	if countKind(res.Diagnostics, MissingStartOnConsolidate) != 1 {
		t.Fatalf("diagnostics = %v, want one missing start", res.Diagnostics)
	}
	assertSameSet(t, rowIntervals(res.Rows, "x"), []model.Interval{iv(0, 5)})
}

func TestConsolidate_LeftoverOpenStart(t *testing.T) {
	records := []model.LogRecord{
		start("a", 0, 1),
		start("b", 1, 2),
		end("b", 3, 3, "x"),
	}
	res := Consolidate(records, nil, nil)
	if countKind(res.Diagnostics, UnterminatedProcess) != 1 {
		t.Fatalf("diagnostics = %v, want one unterminated", res.Diagnostics)
	}
	assertSameSet(t, rowIntervals(res.Rows, "x"), []model.Interval{iv(1, 3)})
}

func TestRun_Stats(t *testing.T) {
	records := []model.LogRecord{
		start("a", 0, 1),
		end("a", 5, 2, "x", "y"),
		start("open", 6, 3),
	}
	res := Run(records, nil)
	want := Stats{Records: 3, ValidRecords: 2, Unterminated: 1, Processes: 1, Batches: 1, Rows: 2}
	if res.Stats != want {
		t.Fatalf("Stats = %+v, want %+v", res.Stats, want)
	}
}
