// Package classifier decides which agents should handle a request, using one
// model call with a deterministic keyword fallback.
package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/switchboard/pkg/models"
)

// Source records where a classification came from.
type Source string

const (
	// SourceModel means the model's answer was parsed and accepted.
	SourceModel Source = "model"
	// SourceHeuristic means keyword or intent matching chose the agents.
	SourceHeuristic Source = "heuristic"
	// SourceFallback means nothing matched and the general agent was chosen.
	SourceFallback Source = "fallback"
)

// HeuristicConfidence is the sentinel confidence of every non-model result.
// Model confidence is only trusted at or above the classifier's threshold,
// so a zero value paired with Source tells the two apart.
const HeuristicConfidence = 0.0

// Classification is the routing decision for one request.
type Classification struct {
	Intent     string
	Confidence float64
	// Agents is ordered and never empty.
	Agents    []string
	Execution models.ExecutionMode
	Rationale string
	Source    Source
}

// ParseFailure describes model output that could not be turned into a Classification.
type ParseFailure struct {
	Reason  string
	Preview string
	Err     error
}

func (e *ParseFailure) Error() string {
	msg := "parse classification: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Preview != "" {
		msg += fmt.Sprintf(" (got %q)", e.Preview)
	}
	return msg
}

func (e *ParseFailure) Unwrap() error { return e.Err }

type rawClassification struct {
	Intent     string   `json:"intent"`
	Confidence *float64 `json:"confidence"`
	Agents     []string `json:"agents"`
	Execution  string   `json:"execution"`
	Reasoning  string   `json:"reasoning"`
}

// Parse extracts a Classification from model output. The JSON object is taken
// from the first '{' to the last '}' so fenced or chatty answers still parse.
func Parse(response string) (Classification, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return Classification{}, &ParseFailure{Reason: "no JSON object found", Preview: preview(response)}
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
		return Classification{}, &ParseFailure{Reason: "invalid JSON", Preview: preview(response), Err: err}
	}

	agents := dedupe(raw.Agents)
	if len(agents) == 0 {
		return Classification{}, &ParseFailure{Reason: "empty agent list", Preview: preview(response)}
	}
	if raw.Confidence == nil {
		return Classification{}, &ParseFailure{Reason: "missing confidence", Preview: preview(response)}
	}
	if *raw.Confidence < 0 || *raw.Confidence > 1 {
		return Classification{}, &ParseFailure{Reason: fmt.Sprintf("confidence %v out of range", *raw.Confidence)}
	}

	mode := models.ExecutionMode(strings.ToLower(strings.TrimSpace(raw.Execution)))
	if mode == "" {
		mode = defaultMode(agents)
	}
	if !mode.Valid() {
		return Classification{}, &ParseFailure{Reason: fmt.Sprintf("unknown execution mode %q", raw.Execution)}
	}

	return Classification{
		Intent:     strings.TrimSpace(raw.Intent),
		Confidence: *raw.Confidence,
		Agents:     agents,
		Execution:  mode,
		Rationale:  raw.Reasoning,
		Source:     SourceModel,
	}, nil
}

func defaultMode(agents []string) models.ExecutionMode {
	if len(agents) == 1 {
		return models.ModeSingle
	}
	return models.ModeSequential
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func preview(s string) string {
	if len(s) > 200 {
		return s[:200] + "... (truncated)"
	}
	return s
}
