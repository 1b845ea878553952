// Package store provides a SQLite-backed cache for consolidated reports and
// a history of processing runs.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/andralbr/dataEvaluation/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotFound is returned when a run or file is not in the database.
var ErrNotFound = errors.New("not found")

// Cache provides SQLite-backed report caching.
type Cache struct {
	db *sql.DB
}

// DefaultPath returns the XDG-compliant database location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "tbxusage", "usage.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "tbxusage", "usage.db")
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked identity of a parsed file.
type FileInfo struct {
	MtimeNs      int64
	SizeBytes    int64
	SettingsHash string
}

// FileSummary holds the per-file counters shown after processing.
type FileSummary struct {
	Lines        int
	ValidRecords int
	Unterminated int
	Diagnostics  int
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes, settings_hash FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes, &fi.SettingsHash); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveFileRows replaces the cached report of one file.
func (c *Cache) SaveFileRows(path string, fi FileInfo, sum FileSummary, reportRows []model.ReportRow) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now())
	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker
		(file_path, mtime_ns, size_bytes, settings_hash, lines, valid_records, unterminated, diagnostics, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		path, fi.MtimeNs, fi.SizeBytes, fi.SettingsHash,
		sum.Lines, sum.ValidRecords, sum.Unterminated, sum.Diagnostics, now,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM file_rows WHERE file_path = ?", path); err != nil {
		return err
	}

	for i, r := range reportRows {
		_, err = tx.Exec(`INSERT INTO file_rows
			(file_path, seq, license_no, version, toolbox, start_time, end_time, duration_hours)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			path, i, r.LicenseNo, r.Version, r.Toolbox,
			formatTime(r.Start), formatTime(r.End), r.DurationHours,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadFileRows returns the cached report of one file.
func (c *Cache) LoadFileRows(path string) (FileSummary, []model.ReportRow, error) {
	var sum FileSummary
	err := c.db.QueryRow(`SELECT lines, valid_records, unterminated, diagnostics
		FROM file_tracker WHERE file_path = ?`, path).
		Scan(&sum.Lines, &sum.ValidRecords, &sum.Unterminated, &sum.Diagnostics)
	if errors.Is(err, sql.ErrNoRows) {
		return sum, nil, fmt.Errorf("file %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return sum, nil, err
	}

	rows, err := c.db.Query(`SELECT license_no, version, toolbox, start_time, end_time, duration_hours
		FROM file_rows WHERE file_path = ? ORDER BY seq`, path)
	if err != nil {
		return sum, nil, err
	}
	defer func() { _ = rows.Close() }()

	out, err := scanReportRows(rows)
	return sum, out, err
}

// DeleteFileTracker removes a file tracking entry and its cached rows.
func (c *Cache) DeleteFileTracker(filePath string) error {
	if _, err := c.db.Exec("DELETE FROM file_rows WHERE file_path = ?", filePath); err != nil {
		return err
	}
	_, err := c.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", filePath)
	return err
}

// FileCount returns the number of cached files.
func (c *Cache) FileCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM file_tracker").Scan(&count)
	return count, err
}

func scanReportRows(rows *sql.Rows) ([]model.ReportRow, error) {
	var out []model.ReportRow
	for rows.Next() {
		var r model.ReportRow
		var startStr, endStr string
		if err := rows.Scan(&r.LicenseNo, &r.Version, &r.Toolbox, &startStr, &endStr, &r.DurationHours); err != nil {
			return nil, err
		}
		r.Start, _ = time.Parse(timeLayout, startStr)
		r.End, _ = time.Parse(timeLayout, endStr)
		out = append(out, r)
	}
	return out, rows.Err()
}

// timeLayout has fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
