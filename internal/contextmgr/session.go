package contextmgr

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ShayCichocki/switchboard/internal/llm"
	"github.com/ShayCichocki/switchboard/internal/logger"
	"github.com/ShayCichocki/switchboard/pkg/models"
)

var errNoSummarizer = errors.New("no summarizer configured")

// Session is a live conversation. It is safe for concurrent use; the lock
// is held for the whole of GetContext, including any summarization call.
type Session struct {
	mu         sync.Mutex
	data       *models.Session
	summarizer llm.Completer
	opts       Options
	now        func() time.Time

	// failedAt is the turn count at the last failed fold, so the same window
	// is not retried until a new turn arrives.
	failedAt  int
	failedErr error
}

// NewSession returns an active, empty session that is not backed by a store.
func NewSession(id string, summarizer llm.Completer, opts Options) *Session {
	s := newSession(&models.Session{ID: id, Status: models.SessionActive}, summarizer, opts)
	now := s.now()
	s.data.CreatedAt = now
	s.data.UpdatedAt = now
	return s
}

func newSession(data *models.Session, summarizer llm.Completer, opts Options) *Session {
	return &Session{
		data:       data,
		summarizer: summarizer,
		opts:       opts.withDefaults(),
		now:        time.Now,
		failedAt:   -1,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.data.ID
}

// Status returns the current lifecycle state.
func (s *Session) Status() models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Status
}

// Summary returns the rolling summary.
func (s *Session) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Summary
}

// RecordTurn appends a completed exchange. Zero timestamps and token counts
// are filled in.
func (s *Session) RecordTurn(turn models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.Status != models.SessionActive {
		return ErrInvalidState
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = s.now()
	}
	if turn.Tokens == 0 {
		turn.Tokens = models.EstimateTurn(turn.Request, turn.Response)
	}
	turn.Agents = append([]string(nil), turn.Agents...)
	s.data.Turns = append(s.data.Turns, turn)
	s.data.TotalTokensUsed += turn.Tokens
	s.data.UpdatedAt = turn.Timestamp
	return nil
}

// TrackFiles adds paths to the active file set, keeping first-touch order.
func (s *Session) TrackFiles(paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range paths {
		if p == "" || contains(s.data.ActiveFiles, p) {
			continue
		}
		s.data.ActiveFiles = append(s.data.ActiveFiles, p)
	}
}

// AddTasks appends action descriptions to the task history.
func (s *Session) AddTasks(tasks ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tasks {
		if t != "" {
			s.data.TaskHistory = append(s.data.TaskHistory, t)
		}
	}
}

// Close finalizes the session. A non-empty finalSummary replaces the rolling
// summary. Turn history and the summarized boundary are left as they are, so
// a resumed session sees the same recent window.
func (s *Session) Close(finalSummary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.Status != models.SessionActive {
		return ErrInvalidState
	}
	if finalSummary != "" {
		s.data.Summary = finalSummary
	}
	s.data.Status = models.SessionClosed
	s.data.UpdatedAt = s.now()
	return nil
}

// Reopen makes a closed session accept turns again. Reopening an active
// session does nothing.
func (s *Session) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.Status == models.SessionClosed {
		s.data.Status = models.SessionActive
		s.data.UpdatedAt = s.now()
	}
}

// Clear drops all history but keeps the id and creation time.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = &models.Session{
		ID:        s.data.ID,
		Status:    models.SessionActive,
		CreatedAt: s.data.CreatedAt,
		UpdatedAt: s.now(),
	}
	s.failedAt, s.failedErr = -1, nil
}

// Turns returns a copy of the full turn history, folded turns included.
func (s *Session) Turns() []models.Turn {
	return s.Snapshot().Turns
}

// Snapshot returns a deep copy of the session's data.
func (s *Session) Snapshot() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// GetContext returns the bounded view of the session. When the working
// window of summary plus unfolded turns passes the summarization threshold,
// the unfolded turns older than the last RecentTurnsToKeep are folded into
// the summary with one model call. If that call fails the view keeps every
// unfolded turn and reports the failure.
func (s *Session) GetContext(ctx context.Context) models.ContextView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := models.ContextView{SessionID: s.data.ID}

	unfolded := s.data.Turns[s.data.SummarizedThrough:]
	limit := int(float64(s.opts.MaxContextTokens) * s.opts.SummarizationThreshold)
	foldable := len(unfolded) - s.opts.RecentTurnsToKeep

	if windowTokens(s.data.Summary, unfolded) > limit && foldable > 0 {
		if s.failedAt == len(s.data.Turns) {
			view.SummarizationFailed = true
			view.SummaryError = s.failedErr.Error()
		} else if err := s.fold(ctx, unfolded[:foldable]); err != nil {
			if ctx.Err() == nil {
				s.failedAt, s.failedErr = len(s.data.Turns), err
			}
			view.SummarizationFailed = true
			view.SummaryError = err.Error()
			logger.Warn("summarization failed, returning unsummarized context",
				"session", s.data.ID, "turns", foldable, "err", err)
		} else {
			view.Summarized = true
		}
	}

	recent := s.data.Turns[s.data.SummarizedThrough:]
	view.Summary = s.data.Summary
	view.RecentTurns = s.data.Clone().Turns[s.data.SummarizedThrough:]
	view.ActiveFiles = append([]string(nil), s.data.ActiveFiles...)
	view.TaskHistory = append([]string(nil), s.data.TaskHistory...)
	view.Tokens = windowTokens(s.data.Summary, recent)
	view.OverBudget = view.Tokens > s.opts.MaxContextTokens
	return view
}

func (s *Session) fold(ctx context.Context, turns []models.Turn) error {
	if s.summarizer == nil {
		return errNoSummarizer
	}
	summary, err := summarize(ctx, s.summarizer, s.data.Summary, turns, s.data.ActiveFiles, s.data.TaskHistory)
	if err != nil {
		return err
	}
	logger.Debug("folded turns into summary", "session", s.data.ID, "turns", len(turns))
	s.data.Summary = summary
	s.data.SummarizedThrough += len(turns)
	s.data.UpdatedAt = s.now()
	s.failedAt, s.failedErr = -1, nil
	return nil
}

// foldForClose folds the unfolded turns older than the recent window into
// the summary, whatever the window size. On failure nothing is marked as
// folded and the turns stay in the view.
func (s *Session) foldForClose(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unfolded := s.data.Turns[s.data.SummarizedThrough:]
	foldable := len(unfolded) - s.opts.RecentTurnsToKeep
	if foldable <= 0 || s.summarizer == nil || s.data.Status != models.SessionActive {
		return
	}
	if err := s.fold(ctx, unfolded[:foldable]); err != nil {
		logger.Warn("final summarization failed, keeping unfolded turns", "session", s.data.ID, "err", err)
	}
}

func windowTokens(summary string, turns []models.Turn) int {
	n := models.EstimateTokens(summary)
	for _, t := range turns {
		n += models.EstimateTurn(t.Request, t.Response)
	}
	return n
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
