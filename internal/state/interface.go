// Package state persists sessions, either as JSON files or in SQLite.
package state

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ShayCichocki/switchboard/pkg/models"
)

var (
	// ErrSessionNotFound is returned when no session has the requested id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnsupportedSchema is returned for records written by a newer,
	// incompatible version.
	ErrUnsupportedSchema = errors.New("unsupported session schema version")
)

// Info is the listing entry for a stored session.
type Info struct {
	ID        string
	Status    models.SessionStatus
	Turns     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store defines session persistence. Implementations must be safe for
// concurrent use.
type Store interface {
	io.Closer
	Save(ctx context.Context, s *models.Session) error
	Load(ctx context.Context, id string) (*models.Session, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	// List returns stored sessions, most recently updated first.
	List(ctx context.Context) ([]Info, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	Migrate() error
}

// Compile-time verification that both backends implement Store.
var (
	_ Store    = (*FileStore)(nil)
	_ Store    = (*DB)(nil)
	_ Migrator = (*DB)(nil)
)

func infoOf(s *models.Session) Info {
	return Info{
		ID:        s.ID,
		Status:    s.Status,
		Turns:     len(s.Turns),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
