// Package contextmgr owns session lifecycle and the bounded, summarized view
// of conversation history handed to agents.
package contextmgr

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ShayCichocki/switchboard/internal/llm"
	"github.com/ShayCichocki/switchboard/internal/logger"
	"github.com/ShayCichocki/switchboard/internal/state"
)

// Defaults for Options.
const (
	DefaultMaxContextTokens       = 4000
	DefaultSummarizationThreshold = 0.8
	DefaultRecentTurnsToKeep      = 3
)

// Options bounds the context view.
type Options struct {
	// MaxContextTokens is the hard budget of the view.
	MaxContextTokens int
	// SummarizationThreshold is the fraction of MaxContextTokens that triggers folding.
	SummarizationThreshold float64
	// RecentTurnsToKeep is how many unfolded turns are never folded.
	RecentTurnsToKeep int
}

// DefaultOptions returns the default bounds.
func DefaultOptions() Options {
	return Options{
		MaxContextTokens:       DefaultMaxContextTokens,
		SummarizationThreshold: DefaultSummarizationThreshold,
		RecentTurnsToKeep:      DefaultRecentTurnsToKeep,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxContextTokens <= 0 {
		o.MaxContextTokens = DefaultMaxContextTokens
	}
	if o.SummarizationThreshold <= 0 || o.SummarizationThreshold > 1 {
		o.SummarizationThreshold = DefaultSummarizationThreshold
	}
	if o.RecentTurnsToKeep < 0 {
		o.RecentTurnsToKeep = DefaultRecentTurnsToKeep
	}
	return o
}

// Manager creates, restores and persists sessions.
type Manager struct {
	store      state.Store
	summarizer llm.Completer
	opts       Options
}

// NewManager returns a manager over store. summarizer may be nil, in which
// case oversized windows are reported as summarization failures.
func NewManager(store state.Store, summarizer llm.Completer, opts Options) *Manager {
	return &Manager{store: store, summarizer: summarizer, opts: opts.withDefaults()}
}

// Options returns the effective bounds.
func (m *Manager) Options() Options {
	return m.opts
}

// Start creates and persists a fresh active session. An empty id gets a
// random one.
func (m *Manager) Start(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	exists, err := m.store.Exists(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "check", SessionID: id, Err: err}
	}
	if exists {
		return nil, ErrSessionExists
	}

	s := NewSession(id, m.summarizer, m.opts)
	if err := m.Save(ctx, s); err != nil {
		return nil, err
	}
	logger.Info("started session", "session", id)
	return s, nil
}

// Load restores a session with its persisted status.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	data, err := m.store.Load(ctx, id)
	if errors.Is(err, state.ErrSessionNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load", SessionID: id, Err: err}
	}
	logger.Info("loaded session", "session", id, "status", data.Status, "turns", len(data.Turns))
	return newSession(data, m.summarizer, m.opts), nil
}

// Resume loads a session and reopens it if it was closed.
func (m *Manager) Resume(ctx context.Context, id string) (*Session, error) {
	s, err := m.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Reopen()
	return s, nil
}

// Save persists a snapshot of s.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if err := m.store.Save(ctx, s.Snapshot()); err != nil {
		return &PersistenceError{Op: "save", SessionID: s.ID(), Err: err}
	}
	logger.Debug("saved session", "session", s.ID())
	return nil
}

// Finish folds the turns older than the recent window into the summary,
// closes s and saves it.
func (m *Manager) Finish(ctx context.Context, s *Session) error {
	s.foldForClose(ctx)
	if err := s.Close(""); err != nil {
		return err
	}
	logger.Info("closed session", "session", s.ID())
	return m.Save(ctx, s)
}

// Delete removes a stored session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		if errors.Is(err, state.ErrSessionNotFound) {
			return err
		}
		return &PersistenceError{Op: "delete", SessionID: id, Err: err}
	}
	logger.Info("deleted session", "session", id)
	return nil
}

// List returns stored sessions, most recent first.
func (m *Manager) List(ctx context.Context) ([]state.Info, error) {
	infos, err := m.store.List(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return infos, nil
}
