package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/andralbr/dataEvaluation/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `$START,1,2020-06-14 08:00
$START,2,2020-06-14 09:00
$END,1,40,R2020a,2020-06-14 10:00,[Simulink:Signal_Toolbox]
$END,2,40,R2020a,2020-06-14 11:00,[Simulink]
$START,3,2020-06-14 12:00
`

func TestProcessCommand(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(logDir, 0o755))
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "day1.log"), []byte(sampleLog), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"process", "--no-cache",
		"--config", filepath.Join(dir, "missing.toml"),
		"--output-dir", outDir,
		logDir,
	})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "Lines (total, valid) = 5, 4")
	assert.Contains(t, out.String(), "Non-terminated processes = 1")
	assert.Contains(t, out.String(), "Output file: "+filepath.Join(outDir, "p_day1.log"))

	got, err := os.ReadFile(filepath.Join(outDir, "p_day1.log"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "40, R2020a, Simulink, 14.06.2020 08:00, 14.06.2020 11:00, 3.00\n")
	assert.Contains(t, string(got), "40, R2020a, Signal_Toolbox, 14.06.2020 08:00, 14.06.2020 10:00, 2.00\n")
}

func TestRootWithoutPathsPrintsHelp(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "process")
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	v := &setupValues{
		dateFormat:  " %Y-%m-%d %H:%M ",
		outputDir:   "reports",
		format:      "csv",
		theme:       "terminal",
		filterOn:    true,
		filterStart: "2020-06-14 09:00",
		filterEnd:   "2020-06-14 10:00",
	}
	require.NoError(t, v.apply(&cfg))
	assert.Equal(t, "%Y-%m-%d %H:%M", cfg.General.DateFormat)
	assert.Equal(t, "reports", cfg.General.OutputDir)
	assert.Equal(t, "csv", cfg.General.Format)
	assert.Equal(t, "terminal", cfg.Appearance.Theme)
	assert.True(t, cfg.Filter.Enabled)

	v.filterEnd = "2020-06-14 08:00"
	assert.ErrorIs(t, v.apply(&cfg), config.ErrInvalidFilter)

	v.filterOn = false
	require.NoError(t, v.apply(&cfg))
	assert.False(t, cfg.Filter.Enabled)
}
