package models

// ExecutionMode is how a set of candidate agents is run for one request.
type ExecutionMode string

const (
	// ModeSingle runs exactly one agent.
	ModeSingle ExecutionMode = "single"
	// ModeSequential runs agents one after another, each seeing prior outputs.
	ModeSequential ExecutionMode = "sequential"
	// ModeParallel runs independent agents concurrently against one snapshot.
	ModeParallel ExecutionMode = "parallel"
)

// Valid returns true if the mode is a known value.
func (m ExecutionMode) Valid() bool {
	switch m {
	case ModeSingle, ModeSequential, ModeParallel:
		return true
	default:
		return false
	}
}
