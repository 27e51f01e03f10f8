package models

import (
	"testing"
	"time"
)

func TestSessionStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status SessionStatus
		want   bool
	}{
		{"active is valid", SessionActive, true},
		{"closed is valid", SessionClosed, true},
		{"empty is invalid", SessionStatus(""), false},
		{"unknown is invalid", SessionStatus("archived"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("SessionStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"abcd", 1},
		{"abcdefghij", 2},
		{"héllo wörld!", 3},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := EstimateTokens(tt.text); got != tt.want {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimateTurn(t *testing.T) {
	if got := EstimateTurn("abcdefgh", "abcd"); got != 3 {
		t.Errorf("EstimateTurn = %d, want 3", got)
	}
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := &Session{
		ID:          "s1",
		Turns:       []Turn{{Request: "a", Agents: []string{"coder"}, Timestamp: time.Now()}},
		ActiveFiles: []string{"main.go"},
		TaskHistory: []string{"wrote main.go"},
	}

	c := s.Clone()
	c.Turns[0].Agents[0] = "changed"
	c.ActiveFiles[0] = "changed"
	c.TaskHistory = append(c.TaskHistory, "extra")

	if s.Turns[0].Agents[0] != "coder" {
		t.Errorf("original turn agents mutated: %v", s.Turns[0].Agents)
	}
	if s.ActiveFiles[0] != "main.go" {
		t.Errorf("original active files mutated: %v", s.ActiveFiles)
	}
	if len(s.TaskHistory) != 1 {
		t.Errorf("original task history mutated: %v", s.TaskHistory)
	}
}

func TestSession_CloneNil(t *testing.T) {
	var s *Session
	if s.Clone() != nil {
		t.Error("Clone of nil session should be nil")
	}
}
