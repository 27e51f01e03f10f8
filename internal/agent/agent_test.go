package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestHandlerFunc(t *testing.T) {
	var got Task
	h := HandlerFunc(func(_ context.Context, task Task) (Result, error) {
		got = task
		return Result{Text: "done", Success: true}, nil
	})

	res, err := h.Execute(context.Background(), Task{Request: "hello"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Text != "done" || !res.Success {
		t.Errorf("Execute = %+v, want done/success", res)
	}
	if got.Request != "hello" {
		t.Errorf("task.Request = %q, want %q", got.Request, "hello")
	}
}

func TestBuiltins(t *testing.T) {
	defs := Builtins()

	wantOrder := []string{NameCoder, NameTestWriter, NameRequirementAnalyzer, NameQAChecker, NameDocs, NameDevOps, NameGeneral}
	if len(defs) != len(wantOrder) {
		t.Fatalf("len(Builtins()) = %d, want %d", len(defs), len(wantOrder))
	}
	for i, name := range wantOrder {
		if defs[i].Name != name {
			t.Errorf("Builtins()[%d].Name = %q, want %q", i, defs[i].Name, name)
		}
		if defs[i].Prompt == "" {
			t.Errorf("agent %q has empty prompt", defs[i].Name)
		}
		if len(defs[i].Tags) == 0 {
			t.Errorf("agent %q has no tags", defs[i].Name)
		}
	}
}

func TestBuiltins_DependenciesAreKnown(t *testing.T) {
	names := make(map[string]bool)
	for _, d := range Builtins() {
		names[d.Name] = true
	}
	for _, d := range Builtins() {
		for _, dep := range d.DependsOn {
			if !names[dep] {
				t.Errorf("agent %q depends on unknown agent %q", d.Name, dep)
			}
		}
	}
}

func TestLoadDefinitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	content := `agents:
  - name: security_auditor
    description: Audits code for vulnerabilities
    tags: [security, audit]
    depends_on: [coder]
    prompt: |
      You audit code.
  - name: coder
    tags: [code_generation]
    prompt: You write Go only.
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	defs, err := LoadDefinitions(path)
	if err != nil {
		t.Fatalf("LoadDefinitions failed: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("len(defs) = %d, want 2", len(defs))
	}
	if defs[0].Name != "security_auditor" || defs[0].DependsOn[0] != "coder" {
		t.Errorf("defs[0] = %+v", defs[0])
	}
	if defs[0].Prompt != "You audit code.\n" {
		t.Errorf("defs[0].Prompt = %q", defs[0].Prompt)
	}
}

func TestLoadDefinitions_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "agents: [\n"},
		{"missing name", "agents:\n  - prompt: x\n"},
		{"missing prompt", "agents:\n  - name: x\n"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write file %d: %v", i, err)
			}
			if _, err := LoadDefinitions(path); err == nil {
				t.Error("LoadDefinitions should fail")
			}
		})
	}

	if _, err := LoadDefinitions(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadDefinitions should fail for a missing file")
	}
}

func TestMerge(t *testing.T) {
	base := []Definition{{Name: "a", Prompt: "1"}, {Name: "b", Prompt: "2"}}
	overrides := []Definition{{Name: "b", Prompt: "override"}, {Name: "c", Prompt: "3"}}

	got := Merge(base, overrides)
	if len(got) != 3 {
		t.Fatalf("len(Merge) = %d, want 3", len(got))
	}
	if got[1].Name != "b" || got[1].Prompt != "override" {
		t.Errorf("got[1] = %+v, want overridden b", got[1])
	}
	if got[2].Name != "c" {
		t.Errorf("got[2].Name = %q, want c", got[2].Name)
	}
	if base[1].Prompt != "2" {
		t.Error("Merge mutated base")
	}
}
