package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andralbr/dataEvaluation/internal/model"
)

// Run is one recorded processing run.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Settings   string    `json:"settings,omitempty"`
	Files      int       `json:"files"`
	FileErrors int       `json:"file_errors"`
	Rows       int       `json:"rows"`
}

// Finished reports whether FinishRun was called for the run.
func (r Run) Finished() bool { return !r.FinishedAt.IsZero() }

// BeginRun records the start of a run and returns its id.
func (c *Cache) BeginRun(settings string) (string, error) {
	id := uuid.New().String()
	_, err := c.db.Exec(`INSERT INTO runs (run_id, started_at, settings) VALUES (?, ?, ?)`,
		id, formatTime(time.Now()), settings)
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// AddRunRows appends the rows produced for one input file to a run.
func (c *Cache) AddRunRows(runID, filePath string, reportRows []model.ReportRow) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	if err := tx.QueryRow("SELECT COALESCE(MAX(seq)+1, 0) FROM run_rows WHERE run_id = ?", runID).Scan(&next); err != nil {
		return err
	}
	for i, r := range reportRows {
		_, err = tx.Exec(`INSERT INTO run_rows
			(run_id, seq, file_path, license_no, version, toolbox, start_time, end_time, duration_hours)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, next+i, filePath, r.LicenseNo, r.Version, r.Toolbox,
			formatTime(r.Start), formatTime(r.End), r.DurationHours,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// FinishRun stores the totals of a run.
func (c *Cache) FinishRun(runID string, files, fileErrors, rows int) error {
	res, err := c.db.Exec(`UPDATE runs SET finished_at = ?, files = ?, file_errors = ?, rows = ?
		WHERE run_id = ?`, formatTime(time.Now()), files, fileErrors, rows, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (c *Cache) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.db.Query(`SELECT run_id, started_at, finished_at, settings, files, file_errors, rows
		FROM runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a single run.
func (c *Cache) GetRun(runID string) (Run, error) {
	row := c.db.QueryRow(`SELECT run_id, started_at, finished_at, settings, files, file_errors, rows
		FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return r, err
}

// RunRows returns every row recorded for a run, in insertion order.
func (c *Cache) RunRows(runID string) ([]model.ReportRow, error) {
	if _, err := c.GetRun(runID); err != nil {
		return nil, err
	}
	rows, err := c.db.Query(`SELECT license_no, version, toolbox, start_time, end_time, duration_hours
		FROM run_rows WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanReportRows(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (Run, error) {
	var r Run
	var started string
	var finished, settings sql.NullString
	if err := s.Scan(&r.ID, &started, &finished, &settings, &r.Files, &r.FileErrors, &r.Rows); err != nil {
		return r, err
	}
	r.StartedAt, _ = time.Parse(timeLayout, started)
	if finished.Valid && finished.String != "" {
		r.FinishedAt, _ = time.Parse(timeLayout, finished.String)
	}
	if settings.Valid {
		r.Settings = settings.String
	}
	return r, nil
}
