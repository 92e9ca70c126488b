package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Zuo-Peng/p4-changelist-report/internal/report"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS runs (
    run_id     TEXT PRIMARY KEY,
    depot      TEXT NOT NULL,
    since      TEXT NOT NULL DEFAULT '',
    until      TEXT NOT NULL DEFAULT '',
    output     TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    row_count  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS change_rows (
    run_id      TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    change_id   TEXT NOT NULL,
    date        TEXT NOT NULL DEFAULT '',
    time        TEXT NOT NULL DEFAULT '',
    author      TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    action      TEXT NOT NULL DEFAULT '',
    file        TEXT NOT NULL DEFAULT '',
    jira_url    TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS rows_change ON change_rows(change_id);

CREATE VIRTUAL TABLE IF NOT EXISTS rows_fts USING fts5(
    description,
    file,
    author,
    content=change_rows,
    content_rowid=rowid,
    tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS rows_ai AFTER INSERT ON change_rows BEGIN
    INSERT INTO rows_fts(rowid, description, file, author)
    VALUES (new.rowid, new.description, new.file, new.author);
END;

CREATE TRIGGER IF NOT EXISTS rows_ad AFTER DELETE ON change_rows BEGIN
    INSERT INTO rows_fts(rows_fts, rowid, description, file, author)
    VALUES ('delete', old.rowid, old.description, old.file, old.author);
END;

CREATE TRIGGER IF NOT EXISTS rows_au AFTER UPDATE ON change_rows BEGIN
    INSERT INTO rows_fts(rows_fts, rowid, description, file, author)
    VALUES ('delete', old.rowid, old.description, old.file, old.author);
    INSERT INTO rows_fts(rowid, description, file, author)
    VALUES (new.rowid, new.description, new.file, new.author);
END;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

// schemaVersion is bumped whenever the row layout changes; older archives are
// rebuilt empty.
const schemaVersion = "1"

// fixed width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one report invocation.
type Run struct {
	ID        string
	Depot     string
	Since     string
	Until     string
	Output    string
	CreatedAt time.Time
	RowCount  int
}

// NewRun stamps a run with a fresh id and the current time.
func NewRun(depot, since, until, output string) Run {
	return Run{
		ID:        uuid.NewString(),
		Depot:     depot,
		Since:     since,
		Until:     until,
		Output:    output,
		CreatedAt: time.Now().UTC(),
	}
}

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrateSchemaVersion(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if _, err := db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("write schema version: %w", err)
	}

	return d, nil
}

func (d *DB) migrateSchemaVersion() error {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver == schemaVersion {
		// fresh database or current layout
		return nil
	}
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS rows_fts",
		"DROP TABLE IF EXISTS change_rows",
		"DROP TABLE IF EXISTS runs",
	} {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate schema %s -> %s: %w", ver, schemaVersion, err)
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

// RecordRun stores a run and its rows in one transaction. RowCount is taken
// from rows.
func (d *DB) RecordRun(run Run, rows []report.Row) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, depot, since, until, output, created_at, row_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Depot, run.Since, run.Until, run.Output,
		run.CreatedAt.UTC().Format(timeLayout), len(rows),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO change_rows (run_id, seq, change_id, date, time, author, description, action, file, jira_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rows {
		_, err := stmt.Exec(run.ID, i, r.Change, r.Date, r.Time, r.Author, r.Description, r.Action, r.File, r.JiraURL)
		if err != nil {
			return fmt.Errorf("insert row %d of change %s: %w", i, r.Change, err)
		}
	}

	return tx.Commit()
}

func (d *DB) RunCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n)
	return n, err
}

func (d *DB) RowCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM change_rows").Scan(&n)
	return n, err
}

// FTSCount is the number of entries in the full-text index; it equals
// RowCount while the triggers keep the two in sync.
func (d *DB) FTSCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM rows_fts").Scan(&n)
	return n, err
}

// ListRuns returns the most recent runs first; limit <= 0 returns all.
func (d *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.Query(
		`SELECT run_id, depot, since, until, output, created_at, row_count
		 FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.Depot, &r.Since, &r.Until, &r.Output, &created, &r.RowCount); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("run %s: bad created_at %q: %w", r.ID, created, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ChangeRows returns the rows of change from the latest run that reported
// it, in report order. A change never archived yields nil.
func (d *DB) ChangeRows(change string) ([]report.Row, error) {
	var runID string
	err := d.db.QueryRow(
		`SELECT r.run_id FROM change_rows r
		 JOIN runs u ON r.run_id = u.run_id
		 WHERE r.change_id = ?
		 ORDER BY u.created_at DESC
		 LIMIT 1`,
		change,
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(
		`SELECT change_id, date, time, author, description, action, file, jira_url
		 FROM change_rows WHERE run_id = ? AND change_id = ? ORDER BY seq`,
		runID, change,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.Row
	for rows.Next() {
		var r report.Row
		if err := rows.Scan(&r.Change, &r.Date, &r.Time, &r.Author, &r.Description, &r.Action, &r.File, &r.JiraURL); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
