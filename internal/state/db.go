package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/switchboard/pkg/models"
)

// DBFileName is the database file created inside the session storage path.
const DBFileName = "switchboard.db"

// DB stores sessions in SQLite.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// DBPath returns the database location for a storage directory.
func DBPath(storagePath string) string {
	if storagePath == "" {
		storagePath = DefaultStoragePath
	}
	return filepath.Join(storagePath, DBFileName)
}

// Open opens an SQLite database at the given path.
// It creates the parent directories if they don't exist.
// WAL mode is enabled for concurrent reads.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Child rows rely on ON DELETE CASCADE.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// OpenStore opens and migrates the database for a storage directory.
func OpenStore(storagePath string) (*DB, error) {
	db, err := Open(DBPath(storagePath))
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Sessions},
		{2, migrationV2Turns},
		{3, migrationV3FilesAndTasks},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Sessions = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	record_version TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	summary TEXT NOT NULL DEFAULT '',
	summarized_through INTEGER NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
`

const migrationV2Turns = `
CREATE TABLE IF NOT EXISTS turns (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	request TEXT NOT NULL,
	response TEXT NOT NULL,
	agents TEXT,
	tokens INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

const migrationV3FilesAndTasks = `
CREATE TABLE IF NOT EXISTS session_files (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	path TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);

CREATE TABLE IF NOT EXISTS session_tasks (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	description TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

// Transaction runs the given function within a transaction.
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Save upserts the session row and replaces its turns, files and tasks in
// one transaction.
func (db *DB) Save(ctx context.Context, s *models.Session) error {
	agents := make([]string, len(s.Turns))
	for i, t := range s.Turns {
		data, err := json.Marshal(t.Agents)
		if err != nil {
			return fmt.Errorf("encode agents: %w", err)
		}
		agents[i] = string(data)
	}

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, record_version, status, summary, summarized_through, total_tokens, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				record_version = excluded.record_version,
				status = excluded.status,
				summary = excluded.summary,
				summarized_through = excluded.summarized_through,
				total_tokens = excluded.total_tokens,
				updated_at = excluded.updated_at
		`, s.ID, SchemaVersion, string(s.Status), s.Summary, s.SummarizedThrough, s.TotalTokensUsed,
			formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
		if err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}

		for _, table := range []string{"turns", "session_files", "session_tasks"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE session_id = ?", s.ID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		for i, t := range s.Turns {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO turns (session_id, seq, request, response, agents, tokens, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, s.ID, i, t.Request, t.Response, agents[i], t.Tokens, formatTime(t.Timestamp))
			if err != nil {
				return fmt.Errorf("insert turn %d: %w", i, err)
			}
		}
		for i, p := range s.ActiveFiles {
			if _, err := tx.ExecContext(ctx, "INSERT INTO session_files (session_id, seq, path) VALUES (?, ?, ?)", s.ID, i, p); err != nil {
				return fmt.Errorf("insert file: %w", err)
			}
		}
		for i, d := range s.TaskHistory {
			if _, err := tx.ExecContext(ctx, "INSERT INTO session_tasks (session_id, seq, description) VALUES (?, ?, ?)", s.ID, i, d); err != nil {
				return fmt.Errorf("insert task: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

// Load reads a session and its child rows.
func (db *DB) Load(ctx context.Context, id string) (*models.Session, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var s models.Session
	var version, createdAt, updatedAt string
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, record_version, status, summary, summarized_through, total_tokens, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&s.ID, &version, &s.Status, &s.Summary, &s.SummarizedThrough, &s.TotalTokensUsed, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if err := checkRowVersion(version); err != nil {
		return nil, err
	}
	s.CreatedAt, _ = parseTime(createdAt)
	s.UpdatedAt, _ = parseTime(updatedAt)

	if err := db.loadTurns(ctx, &s); err != nil {
		return nil, err
	}
	if s.ActiveFiles, err = db.loadStrings(ctx, "SELECT path FROM session_files WHERE session_id = ? ORDER BY seq", id); err != nil {
		return nil, fmt.Errorf("get files: %w", err)
	}
	if s.TaskHistory, err = db.loadStrings(ctx, "SELECT description FROM session_tasks WHERE session_id = ? ORDER BY seq", id); err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	if s.SummarizedThrough > len(s.Turns) {
		s.SummarizedThrough = len(s.Turns)
	}
	return &s, nil
}

func checkRowVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil || v.Major() > currentSchema.Major() {
		return fmt.Errorf("%w: %q", ErrUnsupportedSchema, version)
	}
	return nil
}

func (db *DB) loadTurns(ctx context.Context, s *models.Session) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT request, response, agents, tokens, created_at
		FROM turns WHERE session_id = ? ORDER BY seq
	`, s.ID)
	if err != nil {
		return fmt.Errorf("get turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Turn
		var agents sql.NullString
		var createdAt string
		if err := rows.Scan(&t.Request, &t.Response, &agents, &t.Tokens, &createdAt); err != nil {
			return fmt.Errorf("scan turn: %w", err)
		}
		if agents.Valid && agents.String != "" {
			if err := json.Unmarshal([]byte(agents.String), &t.Agents); err != nil {
				return fmt.Errorf("decode turn agents: %w", err)
			}
		}
		t.Timestamp, _ = parseTime(createdAt)
		s.Turns = append(s.Turns, t)
	}
	return rows.Err()
}

func (db *DB) loadStrings(ctx context.Context, query, id string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Exists reports whether a session row is present.
func (db *DB) Exists(ctx context.Context, id string) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE id = ?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n > 0, nil
}

// Delete removes a session and, by cascade, its child rows.
func (db *DB) Delete(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// List returns all sessions, most recently updated first.
func (db *DB) List(ctx context.Context) ([]Info, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT s.id, s.status, s.created_at, s.updated_at,
			(SELECT COUNT(*) FROM turns t WHERE t.session_id = s.id)
		FROM sessions s ORDER BY s.updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var info Info
		var createdAt, updatedAt string
		if err := rows.Scan(&info.ID, &info.Status, &createdAt, &updatedAt, &info.Turns); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		info.CreatedAt, _ = parseTime(createdAt)
		info.UpdatedAt, _ = parseTime(updatedAt)
		out = append(out, info)
	}
	return out, rows.Err()
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
