package policy

import (
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate failed on defaults: %v", err)
	}
	if c.Execution.MaxParallel != DefaultMaxParallel {
		t.Errorf("MaxParallel = %d, want %d", c.Execution.MaxParallel, DefaultMaxParallel)
	}
}

func TestValidate_ResetsOutOfRange(t *testing.T) {
	c := &Config{
		Routing:   RoutingPolicy{MinConfidence: 1.5},
		Execution: ExecutionPolicy{AgentTimeout: -time.Second, MaxParallel: 0},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c.Routing.MinConfidence != DefaultMinConfidence {
		t.Errorf("MinConfidence = %v, want default", c.Routing.MinConfidence)
	}
	if c.Execution.AgentTimeout != DefaultAgentTimeout {
		t.Errorf("AgentTimeout = %v, want default", c.Execution.AgentTimeout)
	}
	if c.Execution.MaxParallel != DefaultMaxParallel {
		t.Errorf("MaxParallel = %d, want default", c.Execution.MaxParallel)
	}
	if c.Output.SectionFormat != DefaultSectionFormat || c.Output.EmptyResponse != DefaultEmptyResponse {
		t.Errorf("output defaults not applied: %+v", c.Output)
	}
}

func TestValidate_SectionFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"### %s\n%s", false},
		{"%s", true},
		{"%s %s %s", true},
		{"%d: %s %s", true},
	}
	for _, tt := range tests {
		c := Default()
		c.Output.SectionFormat = tt.format
		err := c.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}
