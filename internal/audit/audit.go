package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Entry is one recorded audit event
type Entry struct {
	Timestamp int64  `json:"timestamp"`
	UserID    string `json:"user_id"`
	Action    string `json:"action"`
	Resource  string `json:"resource"`
	Details   string `json:"details"`
}

// Logger records platform events (deployments, deletions, logins) in a
// local sqlite database. Recording is best effort: failures are logged and
// never propagated to the caller.
type Logger struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewLogger opens the audit database at path, creating the schema if needed
func NewLogger(path string, logger *logrus.Logger) (*Logger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			user_id TEXT NOT NULL,
			action TEXT NOT NULL,
			resource TEXT NOT NULL,
			details TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit database: %w", err)
	}

	return &Logger{db: db, logger: logger}, nil
}

// Record writes one audit event
func (l *Logger) Record(userID, action, resource, details string) {
	_, err := l.db.Exec(
		"INSERT INTO audit_logs (timestamp, user_id, action, resource, details) VALUES (?, ?, ?, ?, ?)",
		time.Now().Unix(), userID, action, resource, details,
	)
	if err != nil {
		l.logger.WithError(err).Warn("Failed to record audit event")
	}
}

// Recent returns the most recent audit entries, newest first
func (l *Logger) Recent(limit int) ([]Entry, error) {
	rows, err := l.db.Query(
		"SELECT timestamp, user_id, action, resource, details FROM audit_logs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Timestamp, &e.UserID, &e.Action, &e.Resource, &e.Details); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit logs: %w", err)
	}

	return entries, nil
}

// Close closes the audit database
func (l *Logger) Close() error {
	return l.db.Close()
}
