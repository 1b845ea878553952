package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andralbr/dataEvaluation/internal/model"
)

func sampleRows() []model.ReportRow {
	day := time.Date(2020, 6, 14, 0, 0, 0, 0, time.UTC)
	return []model.ReportRow{
		model.NewReportRow("40", "R2020a", "MATLAB", model.Interval{Start: day, End: day.Add(90 * time.Minute)}),
		model.NewReportRow("40", "R2020a", "Simulink", model.Interval{Start: day.Add(time.Hour), End: day.Add(time.Hour + 20*time.Minute)}),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", Text},
		{"TEXT", Text},
		{"csv", CSV},
		{" json ", JSON},
		{"yml", YAML},
		{"msgpack", Msgpack},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestEncode_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Text, sampleRows(), "%d.%m.%Y %H:%M"))

	want := "40, R2020a, MATLAB, 14.06.2020 00:00, 14.06.2020 01:30, 1.50\n" +
		"40, R2020a, Simulink, 14.06.2020 01:00, 14.06.2020 01:20, 0.33\n"
	assert.Equal(t, want, buf.String())
}

func TestEncode_TextCustomDateFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Text, sampleRows()[:1], "%Y-%m-%d %H:%M"))
	assert.Equal(t, "40, R2020a, MATLAB, 2020-06-14 00:00, 2020-06-14 01:30, 1.50\n", buf.String())
}

func TestEncode_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, CSV, sampleRows(), ""))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, csvHeader, recs[0])
	assert.Equal(t, []string{"40", "R2020a", "Simulink", "14.06.2020 01:00", "14.06.2020 01:20", "0.33"}, recs[2])
}

func TestEncode_Structured(t *testing.T) {
	for _, f := range []Format{JSON, YAML, Msgpack} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, f, sampleRows(), ""))

			doc, err := Decode(&buf, f)
			require.NoError(t, err)
			require.Len(t, doc.Rows, 2)
			assert.Equal(t, "Simulink", doc.Rows[1].Toolbox)
			assert.True(t, doc.Rows[0].End.Equal(sampleRows()[0].End))
			assert.InDelta(t, 1.5, doc.Rows[0].DurationHours, 1e-9)
		})
	}
}

func TestEncode_EmptyJSONHasRowsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, JSON, nil, ""))
	assert.Contains(t, buf.String(), `"rows": []`)
}

func TestEncode_UnknownFormat(t *testing.T) {
	err := Encode(&bytes.Buffer{}, Format("xml"), sampleRows(), "")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFileWriter_TextAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "p_data1.csv")

	for i := 0; i < 2; i++ {
		w, err := NewFileWriter(path, Text, "")
		require.NoError(t, err)
		require.NoError(t, w.Write(sampleRows()[:1]))
		assert.Equal(t, 1, w.Rows())
		require.NoError(t, w.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2, "second run must append, not overwrite")
}

func TestFileWriter_CSVHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all.csv")

	for i := 0; i < 2; i++ {
		w, err := NewFileWriter(path, CSV, "")
		require.NoError(t, err)
		require.NoError(t, w.Write(sampleRows()))
		require.NoError(t, w.Close())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, recs, 5)
	assert.Equal(t, csvHeader, recs[0])
	assert.Equal(t, "40", recs[3][0])
}

func TestFileWriter_DocumentReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	for i := 0; i < 2; i++ {
		w, err := NewFileWriter(path, JSON, "")
		require.NoError(t, err)
		require.NoError(t, w.Write(sampleRows()[:1]))
		require.NoError(t, w.Write(sampleRows()[1:]))
		require.NoError(t, w.Close())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	doc, err := Decode(f, JSON)
	require.NoError(t, err)
	assert.Len(t, doc.Rows, 2)
}

func TestFileWriter_NormalizesFormatAliases(t *testing.T) {
	dir := t.TempDir()
	for _, alias := range []Format{"txt", "yml", " CSV "} {
		path := filepath.Join(dir, "p_"+strings.TrimSpace(string(alias)))
		w, err := NewFileWriter(path, alias, "")
		require.NoError(t, err)
		require.NoError(t, w.Write(sampleRows()))
		require.NoError(t, w.Close(), "alias %q", alias)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Simulink", "alias %q", alias)
	}
}

func TestFileWriter_RejectsUnknownFormat(t *testing.T) {
	_, err := NewFileWriter(filepath.Join(t.TempDir(), "x"), Format("xml"), "")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
