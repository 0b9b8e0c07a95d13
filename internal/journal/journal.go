// Package journal keeps an optional history of changes made to the entries
// file through liveedit, in a local SQLite database.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Operations recorded in the journal.
const (
	OpAdd    = "add"
	OpToggle = "toggle"
	OpRemove = "remove"
	OpModify = "modify"
)

const defaultLimit = 50

// Change is one recorded mutation.
type Change struct {
	ID        int64     `json:"id"`
	At        time.Time `json:"at"`
	Op        string    `json:"op"`
	Position  int       `json:"position"`
	Target    string    `json:"target,omitempty"`
	Note      string    `json:"note,omitempty"`
	Commented bool      `json:"commented"`
	Remote    string    `json:"remote,omitempty"`
}

// Journal appends changes to a SQLite database.
type Journal struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens or creates the journal at path. Returns nil if path is empty
// (disabled); all methods are no-ops on a nil Journal.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Journal, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at_unixms INTEGER NOT NULL,
		op TEXT NOT NULL,
		position INTEGER NOT NULL,
		target TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		commented INTEGER NOT NULL DEFAULT 0,
		remote TEXT NOT NULL DEFAULT ''
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	logger.Info("change journal opened", "path", path)
	return &Journal{db: db, path: path, logger: logger}, nil
}

// Enabled reports whether changes are being recorded.
func (j *Journal) Enabled() bool {
	return j != nil
}

// Record appends c. A zero At is set to the current time.
func (j *Journal) Record(ctx context.Context, c Change) error {
	if j == nil {
		return nil
	}
	if c.At.IsZero() {
		c.At = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO changes (at_unixms, op, position, target, note, commented, remote)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.At.UnixMilli(), c.Op, c.Position, c.Target, c.Note, c.Commented, c.Remote)
	if err != nil {
		return fmt.Errorf("record %s: %w", c.Op, err)
	}
	return nil
}

// Recent returns up to limit changes, newest first. limit <= 0 means 50.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Change, error) {
	if j == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, at_unixms, op, position, target, note, commented, remote
		FROM changes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		var (
			c    Change
			atMs int64
		)
		if err := rows.Scan(&c.ID, &atMs, &c.Op, &c.Position, &c.Target, &c.Note, &c.Commented, &c.Remote); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		c.At = time.UnixMilli(atMs)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}
