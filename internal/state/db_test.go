package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/switchboard/pkg/models"
)

// tempDBPath returns a path to a temp database file.
func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

// setupTestDB creates a new temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func sampleSession(id string) *models.Session {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.Session{
		ID:        id,
		Status:    models.SessionActive,
		CreatedAt: now,
		UpdatedAt: now.Add(time.Minute),
		Turns: []models.Turn{
			{Request: "write a parser", Response: "done", Timestamp: now, Agents: []string{"coder"}, Tokens: 4},
			{Request: "add tests", Response: "added", Timestamp: now.Add(time.Second), Agents: []string{"test_writer"}, Tokens: 4},
		},
		Summary:           "built a parser",
		SummarizedThrough: 1,
		ActiveFiles:       []string{"parser.go", "parser_test.go"},
		TaskHistory:       []string{"wrote parser", "wrote tests"},
		TotalTokensUsed:   8,
	}
}

func TestOpen(t *testing.T) {
	path := tempDBPath(t)
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file does not exist at %s", path)
	}
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "a", "b", "c")

	db, err := Open(filepath.Join(nested, "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(nested); os.IsNotExist(err) {
		t.Errorf("parent directories not created: %s", nested)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	// On Linux, files cannot be created under /proc.
	if _, err := Open("/proc/nonexistent/test.db"); err == nil {
		t.Error("expected error opening db at invalid path")
	}
}

func TestDBPath(t *testing.T) {
	if got := DBPath("data"); got != filepath.Join("data", DBFileName) {
		t.Errorf("DBPath(data) = %q", got)
	}
	if got := DBPath(""); got != filepath.Join(DefaultStoragePath, DBFileName) {
		t.Errorf("DBPath(\"\") = %q", got)
	}
}

func TestMigrate(t *testing.T) {
	db := setupTestDB(t)

	tables := []string{"schema_version", "sessions", "turns", "session_files", "session_tasks"}
	for _, table := range tables {
		var count int
		row := db.conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table)
		if err := row.Scan(&count); err != nil {
			t.Errorf("failed to check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	for i := 0; i < 3; i++ {
		if err := db.Migrate(); err != nil {
			t.Fatalf("Migrate (iteration %d) failed: %v", i, err)
		}
	}

	var version int
	if err := db.conn.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != 3 {
		t.Errorf("schema version = %d, want 3", version)
	}
}

func TestDB_SaveLoadRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	want := sampleSession("s1")

	if err := db.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := db.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got.Summary != want.Summary || got.SummarizedThrough != 1 || got.TotalTokensUsed != 8 {
		t.Errorf("scalar fields differ: %+v", got)
	}
	if got.Status != models.SessionActive {
		t.Errorf("Status = %q, want active", got.Status)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("timestamps differ: %v %v", got.CreatedAt, got.UpdatedAt)
	}
	if len(got.Turns) != 2 {
		t.Fatalf("len(Turns) = %d, want 2", len(got.Turns))
	}
	if got.Turns[1].Request != "add tests" || got.Turns[1].Agents[0] != "test_writer" {
		t.Errorf("Turns[1] = %+v", got.Turns[1])
	}
	if len(got.ActiveFiles) != 2 || got.ActiveFiles[0] != "parser.go" {
		t.Errorf("ActiveFiles = %v", got.ActiveFiles)
	}
	if len(got.TaskHistory) != 2 || got.TaskHistory[1] != "wrote tests" {
		t.Errorf("TaskHistory = %v", got.TaskHistory)
	}
}

func TestDB_SaveReplacesChildren(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	s := sampleSession("s1")
	if err := db.Save(ctx, s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	s.Turns = s.Turns[:1]
	s.ActiveFiles = nil
	s.SummarizedThrough = 0
	s.Status = models.SessionClosed
	if err := db.Save(ctx, s); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := db.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.Turns) != 1 {
		t.Errorf("len(Turns) = %d, want 1", len(got.Turns))
	}
	if len(got.ActiveFiles) != 0 {
		t.Errorf("ActiveFiles = %v, want empty", got.ActiveFiles)
	}
	if got.Status != models.SessionClosed {
		t.Errorf("Status = %q, want closed", got.Status)
	}
}

func TestDB_LoadMissing(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.Load(context.Background(), "nope")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Load error = %v, want ErrSessionNotFound", err)
	}
}

func TestDB_LoadNewerRecordVersion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	if err := db.Save(ctx, sampleSession("s1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := db.conn.Exec("UPDATE sessions SET record_version = '3.1.0' WHERE id = 's1'"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	_, err := db.Load(ctx, "s1")
	if !errors.Is(err, ErrUnsupportedSchema) {
		t.Errorf("Load error = %v, want ErrUnsupportedSchema", err)
	}
}

func TestDB_ExistsDeleteCascade(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	if err := db.Save(ctx, sampleSession("s1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ok, err := db.Exists(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v; want true", ok, err)
	}

	if err := db.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	ok, err = db.Exists(ctx, "s1")
	if err != nil || ok {
		t.Errorf("Exists after delete = %v, %v; want false", ok, err)
	}

	var turns int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM turns WHERE session_id = 's1'").Scan(&turns); err != nil {
		t.Fatalf("count turns: %v", err)
	}
	if turns != 0 {
		t.Errorf("turns left after delete = %d, want 0", turns)
	}

	if err := db.Delete(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete error = %v, want ErrSessionNotFound", err)
	}
}

func TestDB_List(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	older := sampleSession("older")
	newer := sampleSession("newer")
	newer.UpdatedAt = older.UpdatedAt.Add(time.Hour)
	newer.Turns = newer.Turns[:1]
	newer.SummarizedThrough = 0
	for _, s := range []*models.Session{older, newer} {
		if err := db.Save(ctx, s); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	infos, err := db.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("len(List) = %d, want 2", len(infos))
	}
	if infos[0].ID != "newer" || infos[0].Turns != 1 {
		t.Errorf("infos[0] = %+v, want newer with 1 turn", infos[0])
	}
	if infos[1].ID != "older" || infos[1].Turns != 2 {
		t.Errorf("infos[1] = %+v, want older with 2 turns", infos[1])
	}
}

func TestClose(t *testing.T) {
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if _, err := db.Exists(context.Background(), "x"); err == nil {
		t.Error("expected error after close, got nil")
	}
}
