package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    settings_hash        TEXT NOT NULL,
    lines                INTEGER NOT NULL DEFAULT 0,
    valid_records        INTEGER NOT NULL DEFAULT 0,
    unterminated         INTEGER NOT NULL DEFAULT 0,
    diagnostics          INTEGER NOT NULL DEFAULT 0,
    parsed_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS file_rows (
    file_path            TEXT NOT NULL REFERENCES file_tracker(file_path) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    license_no           TEXT NOT NULL,
    version              TEXT NOT NULL,
    toolbox              TEXT NOT NULL,
    start_time           TEXT NOT NULL,
    end_time             TEXT NOT NULL,
    duration_hours       REAL NOT NULL,
    PRIMARY KEY (file_path, seq)
);

CREATE TABLE IF NOT EXISTS runs (
    run_id               TEXT PRIMARY KEY,
    started_at           TEXT NOT NULL,
    finished_at          TEXT,
    settings             TEXT,
    files                INTEGER NOT NULL DEFAULT 0,
    file_errors          INTEGER NOT NULL DEFAULT 0,
    rows                 INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_rows (
    run_id               TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    file_path            TEXT NOT NULL,
    license_no           TEXT NOT NULL,
    version              TEXT NOT NULL,
    toolbox              TEXT NOT NULL,
    start_time           TEXT NOT NULL,
    end_time             TEXT NOT NULL,
    duration_hours       REAL NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_run_rows_toolbox ON run_rows(toolbox);
`
