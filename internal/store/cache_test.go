package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andralbr/dataEvaluation/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testRows() []model.ReportRow {
	base := time.Date(2020, 6, 14, 8, 0, 0, 0, time.UTC)
	return []model.ReportRow{
		model.NewReportRow("40", "R2020a", "MATLAB", model.Interval{Start: base, End: base.Add(2 * time.Hour)}),
		model.NewReportRow("40", "R2020a", "Simulink", model.Interval{Start: base.Add(30 * time.Minute), End: base.Add(2 * time.Hour)}),
	}
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "tbxusage", "usage.db"), DefaultPath())
}

func TestFileRows_RoundTrip(t *testing.T) {
	c := openTestCache(t)

	fi := FileInfo{MtimeNs: 123, SizeBytes: 456, SettingsHash: "abc"}
	sum := FileSummary{Lines: 10, ValidRecords: 4, Unterminated: 1, Diagnostics: 2}
	require.NoError(t, c.SaveFileRows("/logs/data1.csv", fi, sum, testRows()))

	tracked, err := c.GetTrackedFiles()
	require.NoError(t, err)
	assert.Equal(t, fi, tracked["/logs/data1.csv"])

	gotSum, rows, err := c.LoadFileRows("/logs/data1.csv")
	require.NoError(t, err)
	assert.Equal(t, sum, gotSum)
	require.Len(t, rows, 2)
	assert.Equal(t, "Simulink", rows[1].Toolbox)
	assert.True(t, rows[0].End.Equal(testRows()[0].End))
	assert.InDelta(t, 1.5, rows[1].DurationHours, 1e-9)
}

func TestFileRows_ReplaceOnResave(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.SaveFileRows("/a.csv", FileInfo{MtimeNs: 1}, FileSummary{}, testRows()))
	require.NoError(t, c.SaveFileRows("/a.csv", FileInfo{MtimeNs: 2}, FileSummary{}, testRows()[:1]))

	_, rows, err := c.LoadFileRows("/a.csv")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	n, err := c.FileCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLoadFileRows_NotFound(t *testing.T) {
	c := openTestCache(t)
	_, _, err := c.LoadFileRows("/missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteFileTracker(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.SaveFileRows("/a.csv", FileInfo{}, FileSummary{}, testRows()))
	require.NoError(t, c.DeleteFileTracker("/a.csv"))

	tracked, err := c.GetTrackedFiles()
	require.NoError(t, err)
	assert.Empty(t, tracked)
}

func TestRuns(t *testing.T) {
	c := openTestCache(t)

	id, err := c.BeginRun("filter=off")
	require.NoError(t, err)
	assert.Len(t, id, 36)

	run, err := c.GetRun(id)
	require.NoError(t, err)
	assert.False(t, run.Finished())
	assert.Equal(t, "filter=off", run.Settings)

	require.NoError(t, c.AddRunRows(id, "/a.csv", testRows()[:1]))
	require.NoError(t, c.AddRunRows(id, "/b.csv", testRows()[1:]))
	require.NoError(t, c.FinishRun(id, 2, 0, 2))

	rows, err := c.RunRows(id)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "MATLAB", rows[0].Toolbox)
	assert.Equal(t, "Simulink", rows[1].Toolbox)

	other, err := c.BeginRun("")
	require.NoError(t, err)

	runs, err := c.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.ElementsMatch(t, []string{id, other}, ids)

	limited, err := c.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	run, err = c.GetRun(id)
	require.NoError(t, err)
	assert.True(t, run.Finished())
	assert.Equal(t, 2, run.Rows)
}

func TestRuns_NotFound(t *testing.T) {
	c := openTestCache(t)

	assert.ErrorIs(t, c.FinishRun("nope", 0, 0, 0), ErrNotFound)
	_, err := c.RunRows("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
