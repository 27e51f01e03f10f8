package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/ShayCichocki/switchboard/pkg/models"
)

// SchemaVersion is the version written into every persisted record.
const SchemaVersion = "2.0.0"

var currentSchema = semver.MustParse(SchemaVersion)

// Record is the on-disk form of a session.
type Record struct {
	SchemaVersion string `json:"schema_version"`
	models.Session
}

// Encode serializes a session at the current schema version.
func Encode(s *models.Session) ([]byte, error) {
	data, err := json.MarshalIndent(Record{SchemaVersion: SchemaVersion, Session: *s}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return data, nil
}

// Decode parses a persisted record. Records of the current major version load
// as-is, records without a version or with major version 1 are migrated from
// the legacy layout, and anything newer is rejected with ErrUnsupportedSchema.
func Decode(data []byte) (*models.Session, error) {
	var probe struct {
		SchemaVersion string `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	if probe.SchemaVersion == "" {
		return migrateLegacy(data)
	}

	v, err := semver.NewVersion(probe.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSchema, probe.SchemaVersion)
	}

	switch {
	case v.Major() == 1:
		return migrateLegacy(data)
	case v.Major() == currentSchema.Major():
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		s := rec.Session
		if s.Status == "" {
			s.Status = models.SessionActive
		}
		if !s.Status.Valid() {
			return nil, fmt.Errorf("decode session %s: unknown status %q", s.ID, s.Status)
		}
		if s.SummarizedThrough < 0 || s.SummarizedThrough > len(s.Turns) {
			s.SummarizedThrough = len(s.Turns)
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("%w: %s (supported major %d)", ErrUnsupportedSchema, v, currentSchema.Major())
	}
}

type legacyTurn struct {
	User       string `json:"user"`
	Assistant  string `json:"assistant"`
	Timestamp  string `json:"timestamp"`
	TokensUsed int    `json:"tokens_used"`
}

type legacyRecord struct {
	SessionID           string         `json:"session_id"`
	ConversationSummary string         `json:"conversation_summary"`
	RecentTurns         []legacyTurn   `json:"recent_turns"`
	ActiveFiles         map[string]any `json:"active_files"`
	TaskHistory         []string       `json:"task_history"`
	TotalTokensUsed     int            `json:"total_tokens_used"`
	CreatedAt           string         `json:"created_at"`
	UpdatedAt           string         `json:"updated_at"`
}

// migrateLegacy converts the flat layout with recent_turns and a path-keyed
// active_files map. Legacy sessions had no lifecycle state, so they load as
// active with no turns folded.
func migrateLegacy(data []byte) (*models.Session, error) {
	var old legacyRecord
	if err := json.Unmarshal(data, &old); err != nil {
		return nil, fmt.Errorf("migrate legacy session: %w", err)
	}
	if old.SessionID == "" {
		return nil, fmt.Errorf("migrate legacy session: missing session_id")
	}

	s := &models.Session{
		ID:              old.SessionID,
		Status:          models.SessionActive,
		CreatedAt:       parseLegacyTime(old.CreatedAt),
		UpdatedAt:       parseLegacyTime(old.UpdatedAt),
		Summary:         old.ConversationSummary,
		TaskHistory:     append([]string(nil), old.TaskHistory...),
		TotalTokensUsed: old.TotalTokensUsed,
	}
	for _, t := range old.RecentTurns {
		tokens := t.TokensUsed
		if tokens == 0 {
			tokens = models.EstimateTurn(t.User, t.Assistant)
		}
		s.Turns = append(s.Turns, models.Turn{
			Request:   t.User,
			Response:  t.Assistant,
			Timestamp: parseLegacyTime(t.Timestamp),
			Tokens:    tokens,
		})
	}
	for path := range old.ActiveFiles {
		s.ActiveFiles = append(s.ActiveFiles, path)
	}
	sort.Strings(s.ActiveFiles)
	return s, nil
}

var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseLegacyTime returns the zero time for values it cannot read.
func parseLegacyTime(s string) time.Time {
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
