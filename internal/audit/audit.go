// Package audit provides an append-only SQLite log of every job the
// coordinator finished, for operational forensics independent of the job
// queue service's own records.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/solhaug/microstore/internal/models"
)

// Log is the SQLite-backed audit log.
type Log struct {
	db *sql.DB
}

// Entry is one finished job.
type Entry struct {
	ID         int64
	JobID      string
	Dataset    string
	Operation  models.JobOperation
	Status     models.JobStatus
	Message    string
	FinishedAt time.Time
}

// Open opens (creating if necessary) the audit log at dbPath.
func Open(dbPath string) (*Log, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	l := &Log{db: db}
	if err := l.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the database connection.
func (l *Log) Close() error {
	return l.db.Close()
}

func (l *Log) initialize() error {
	schema := `
	-- Finished jobs (append-only)
	CREATE TABLE IF NOT EXISTS job_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL,
		dataset TEXT,
		operation TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT,
		finished_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_job_log_dataset ON job_log(dataset);
	CREATE INDEX IF NOT EXISTS idx_job_log_job ON job_log(job_id);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// Record appends one finished job to the log.
func (l *Log) Record(entry Entry) error {
	_, err := l.db.Exec(
		`INSERT INTO job_log (job_id, dataset, operation, status, message, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.JobID, entry.Dataset, string(entry.Operation), string(entry.Status),
		entry.Message, entry.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (l *Log) List(limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(
		`SELECT id, job_id, dataset, operation, status, message, finished_at
		 FROM job_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var operation, status, finishedAt string
		if err := rows.Scan(&e.ID, &e.JobID, &e.Dataset, &operation, &status, &e.Message, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Operation = models.JobOperation(operation)
		e.Status = models.JobStatus(status)
		e.FinishedAt = parseTimestamp(finishedAt)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// parseTimestamp parses a timestamp string from SQLite in various formats.
func parseTimestamp(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
