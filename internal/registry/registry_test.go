package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/ShayCichocki/switchboard/internal/agent"
)

func nopHandler() agent.Handler {
	return agent.HandlerFunc(func(context.Context, agent.Task) (agent.Result, error) {
		return agent.Result{Success: true}, nil
	})
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(
		Descriptor{Name: "coder", Tags: []string{"code_generation", "debugging"}, Handler: nopHandler()},
		Descriptor{Name: "test_writer", Tags: []string{"test_generation"}, DependsOn: []string{"coder"}, Handler: nopHandler()},
		Descriptor{Name: "qa_checker", Tags: []string{"code_review", "security"}, DependsOn: []string{"coder"}, Handler: nopHandler()},
		Descriptor{Name: "devops", Tags: []string{"docker", "security"}, Handler: nopHandler()},
		Descriptor{Name: "general", Tags: []string{"general"}, Handler: nopHandler()},
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name  string
		descs []Descriptor
		want  error
	}{
		{
			name:  "duplicate name",
			descs: []Descriptor{{Name: "general", Handler: nopHandler()}, {Name: "general", Handler: nopHandler()}},
			want:  ErrDuplicateAgent,
		},
		{
			name:  "empty name",
			descs: []Descriptor{{Name: "", Handler: nopHandler()}},
			want:  ErrInvalidDescriptor,
		},
		{
			name:  "nil handler",
			descs: []Descriptor{{Name: "general"}},
			want:  ErrInvalidDescriptor,
		},
		{
			name:  "no general agent",
			descs: []Descriptor{{Name: "coder", Handler: nopHandler()}},
			want:  ErrNoGeneralAgent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.descs...)
			if !errors.Is(err, tt.want) {
				t.Errorf("New error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegistry_Lookups(t *testing.T) {
	r := testRegistry(t)

	if r.Count() != 5 {
		t.Errorf("Count = %d, want 5", r.Count())
	}

	d, ok := r.Get("qa_checker")
	if !ok || d.Name != "qa_checker" {
		t.Fatalf("Get(qa_checker) = %+v, %v", d, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}
	if !r.Has("general") || r.Has("nope") {
		t.Error("Has returned wrong results")
	}

	names := r.Names()
	want := []string{"coder", "test_writer", "qa_checker", "devops", "general"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	all := r.All()
	if len(all) != 5 || all[0].Name != "coder" {
		t.Errorf("All() = %+v", all)
	}
}

func TestRegistry_ByTag(t *testing.T) {
	r := testRegistry(t)

	got := r.ByTag("security")
	if len(got) != 2 || got[0].Name != "qa_checker" || got[1].Name != "devops" {
		t.Errorf("ByTag(security) = %+v, want [qa_checker devops]", got)
	}
	if len(r.ByTag("unknown")) != 0 {
		t.Error("ByTag(unknown) should be empty")
	}
}

func TestRegistry_Independent(t *testing.T) {
	r := testRegistry(t)

	tests := []struct {
		names []string
		want  bool
	}{
		{[]string{"test_writer", "qa_checker"}, true},
		{[]string{"coder", "devops"}, true},
		{[]string{"coder", "test_writer"}, false},
		{[]string{"qa_checker", "coder"}, false},
		{[]string{"missing", "coder"}, true},
		{nil, true},
	}

	for _, tt := range tests {
		if got := r.Independent(tt.names); got != tt.want {
			t.Errorf("Independent(%v) = %v, want %v", tt.names, got, tt.want)
		}
	}
}

func TestRegistry_IsolatedFromCallerSlices(t *testing.T) {
	tags := []string{"general"}
	r, err := New(Descriptor{Name: "general", Tags: tags, Handler: nopHandler()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	tags[0] = "mutated"

	d, _ := r.Get("general")
	if d.Tags[0] != "general" {
		t.Errorf("registry tags changed with caller slice: %v", d.Tags)
	}
}

func TestFromDefinitions(t *testing.T) {
	var built []string
	r, err := FromDefinitions(agent.Builtins(), func(def agent.Definition) agent.Handler {
		built = append(built, def.Name)
		return nopHandler()
	})
	if err != nil {
		t.Fatalf("FromDefinitions failed: %v", err)
	}
	if r.Count() != len(agent.Builtins()) || len(built) != r.Count() {
		t.Errorf("Count = %d, built = %d, want %d", r.Count(), len(built), len(agent.Builtins()))
	}
	d, _ := r.Get(agent.NameTestWriter)
	if len(d.DependsOn) != 1 || d.DependsOn[0] != agent.NameCoder {
		t.Errorf("test_writer DependsOn = %v", d.DependsOn)
	}
}
