package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ShayCichocki/switchboard/internal/logger"
	"github.com/ShayCichocki/switchboard/pkg/models"
)

// DefaultStoragePath is where sessions are kept when nothing is configured.
const DefaultStoragePath = "sessions"

const recordExt = ".json"

// FileStore keeps one JSON record per session in a directory.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultStoragePath
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the storage directory.
func (fs *FileStore) Dir() string {
	return fs.dir
}

func (fs *FileStore) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	return filepath.Join(fs.dir, id+recordExt), nil
}

// Save writes the record to a temp file in the same directory and renames
// it into place, so a crash never leaves a truncated record.
func (fs *FileStore) Save(ctx context.Context, s *models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := fs.path(s.ID)
	if err != nil {
		return err
	}
	data, err := Encode(s)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	tmp, err := os.CreateTemp(fs.dir, "."+s.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session %s: %w", s.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename session %s: %w", s.ID, err)
	}
	return nil
}

// Load reads and decodes one session.
func (fs *FileStore) Load(ctx context.Context, id string) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := fs.path(id)
	if err != nil {
		return nil, err
	}

	fs.mu.RLock()
	data, err := os.ReadFile(path)
	fs.mu.RUnlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	return Decode(data)
}

// Exists reports whether a record for id is present.
func (fs *FileStore) Exists(ctx context.Context, id string) (bool, error) {
	path, err := fs.path(id)
	if err != nil {
		return false, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, err = os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat session %s: %w", id, err)
	}
	return true, nil
}

// Delete removes a session record.
func (fs *FileStore) Delete(ctx context.Context, id string) error {
	path, err := fs.path(id)
	if err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// List decodes every record in the directory. Unreadable records are logged
// and skipped.
func (fs *FileStore) List(ctx context.Context) ([]Info, error) {
	fs.mu.RLock()
	entries, err := os.ReadDir(fs.dir)
	fs.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var out []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != recordExt {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := fs.Load(ctx, strings.TrimSuffix(name, recordExt))
		if err != nil {
			logger.Warn("skipping unreadable session", "file", name, "err", err)
			continue
		}
		out = append(out, infoOf(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Close is a no-op.
func (fs *FileStore) Close() error {
	return nil
}
