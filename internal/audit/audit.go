// Package audit keeps a gateway-local SQLite trail of confirmed admin
// mutations. The portfolio entities themselves live on the backend; this log
// only records who changed what through this gateway, and when.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS audit_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	actor      TEXT NOT NULL,
	action     TEXT NOT NULL,
	resource   TEXT NOT NULL,
	target_id  TEXT NOT NULL DEFAULT '',
	label      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_log(resource);
CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_log(created_at);
`

// Entry is one recorded mutation.
type Entry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"` // create, update, delete
	Resource  string    `json:"resource"`
	TargetID  string    `json:"targetId,omitempty"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Log wraps the SQLite audit database.
type Log struct {
	conn *sql.DB
}

// Open opens (or creates) the audit database and applies the schema.
func Open(dsn string) (*Log, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("audit: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: apply schema: %w", err)
	}
	return &Log{conn: conn}, nil
}

// Close closes the underlying connection.
func (l *Log) Close() error {
	return l.conn.Close()
}

// Record appends one entry.
func (l *Log) Record(e Entry) error {
	_, err := l.conn.Exec(
		`INSERT INTO audit_log (actor, action, resource, target_id, label) VALUES (?, ?, ?, ?, ?)`,
		e.Actor, e.Action, e.Resource, e.TargetID, e.Label,
	)
	if err != nil {
		return fmt.Errorf("audit: record: %w", err)
	}
	return nil
}

// List returns entries newest first with the given page window, plus the
// total entry count.
func (l *Log) List(limit, offset int) ([]Entry, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := l.conn.QueryRow(`SELECT COUNT(*) FROM audit_log`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("audit: count: %w", err)
	}

	rows, err := l.conn.Query(
		`SELECT id, actor, action, resource, target_id, label, created_at
		 FROM audit_log ORDER BY id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Resource, &e.TargetID, &e.Label, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("audit: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("audit: rows: %w", err)
	}
	return out, total, nil
}
