package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ShayCichocki/switchboard/internal/llm"
	"github.com/ShayCichocki/switchboard/internal/tools"
	"github.com/ShayCichocki/switchboard/pkg/models"
)

type scriptedLLM struct {
	replies []string
	calls   [][]llm.Message
	systems []string
}

func (s *scriptedLLM) Complete(_ context.Context, system string, msgs []llm.Message) (string, error) {
	s.systems = append(s.systems, system)
	s.calls = append(s.calls, append([]llm.Message(nil), msgs...))
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

type fakeTools struct {
	list    []tools.Tool
	listErr error
	calls   []string
	callErr error
}

func (f *fakeTools) DiscoverTools(context.Context) ([]tools.Tool, error) { return f.list, f.listErr }
func (f *fakeTools) CallTool(_ context.Context, name string, _ map[string]any) (*tools.Result, error) {
	f.calls = append(f.calls, name)
	if f.callErr != nil {
		return nil, f.callErr
	}
	return &tools.Result{Text: "PROJ-1: login fails"}, nil
}
func (f *fakeTools) Close() error { return nil }

func TestBuildMessages(t *testing.T) {
	task := Task{
		Request: "add tests",
		Context: models.ContextView{
			Summary: "built a parser",
			RecentTurns: []models.Turn{
				{Request: "r1", Response: "a1"},
				{Request: "r2", Response: "a2"},
				{Request: "r3", Response: "a3"},
			},
			ActiveFiles: []string{"parser.go"},
		},
		Upstream: []Upstream{
			{Agent: "coder", Text: "func Parse() {}"},
			{Agent: "qa_checker", Failed: true, Reason: "timeout"},
		},
	}

	msgs := BuildMessages(task)
	// summary pair + 2 turns * 2 + request
	if len(msgs) != 7 {
		t.Fatalf("len(msgs) = %d, want 7", len(msgs))
	}
	if !strings.Contains(msgs[0].Content, "built a parser") {
		t.Errorf("first message should carry summary, got %q", msgs[0].Content)
	}
	if msgs[2].Content != "r2" || msgs[5].Content != "a3" {
		t.Errorf("recent turns not the last two: %q ... %q", msgs[2].Content, msgs[5].Content)
	}

	last := msgs[6]
	if last.Role != llm.RoleUser {
		t.Errorf("last role = %q, want user", last.Role)
	}
	for _, want := range []string{"add tests", "parser.go", "### coder", "func Parse() {}", "qa_checker (upstream failed: timeout)"} {
		if !strings.Contains(last.Content, want) {
			t.Errorf("request message missing %q:\n%s", want, last.Content)
		}
	}
}

func TestBuildMessages_Minimal(t *testing.T) {
	msgs := BuildMessages(Task{Request: "hi"})
	if len(msgs) != 1 || msgs[0].Content != "hi" {
		t.Errorf("BuildMessages = %+v, want single request message", msgs)
	}
}

func TestLLMAgent_Execute(t *testing.T) {
	model := &scriptedLLM{replies: []string{"Here you go.\nFILE: internal/parser/parser.go\nFILE: `internal/parser/parser.go`\n"}}
	a := NewLLMAgent(Definition{Name: "coder", Prompt: "sys"}, model)

	res, err := a.Execute(context.Background(), Task{Request: "write a parser"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.Success {
		t.Error("Success = false, want true")
	}
	if len(res.TouchedFiles) != 1 || res.TouchedFiles[0] != "internal/parser/parser.go" {
		t.Errorf("TouchedFiles = %v", res.TouchedFiles)
	}
	if model.systems[0] != "sys" {
		t.Errorf("system prompt = %q, want sys (no tools section without tools)", model.systems[0])
	}
}

func TestLLMAgent_ExecuteError(t *testing.T) {
	a := NewLLMAgent(Definition{Name: "coder", Prompt: "sys"}, &scriptedLLM{})
	if _, err := a.Execute(context.Background(), Task{Request: "x"}); err == nil {
		t.Fatal("Execute should fail when the model fails")
	}
}

func TestLLMAgent_ToolRoundTrip(t *testing.T) {
	model := &scriptedLLM{replies: []string{
		`TOOL_CALL {"tool": "atlassian.jira_get_issue", "arguments": {"key": "PROJ-1"}}`,
		"The ticket says login fails.",
	}}
	tp := &fakeTools{list: []tools.Tool{{Name: "atlassian.jira_get_issue", Description: "Fetch an issue"}}}
	a := NewLLMAgent(Definition{Name: "requirement_analyzer", Prompt: "sys"}, model, WithTools(tp))

	res, err := a.Execute(context.Background(), Task{Request: "analyze PROJ-1"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Text != "The ticket says login fails." {
		t.Errorf("Text = %q", res.Text)
	}
	if len(tp.calls) != 1 || tp.calls[0] != "atlassian.jira_get_issue" {
		t.Errorf("tool calls = %v", tp.calls)
	}
	if len(res.Actions) != 1 || res.Actions[0] != "Used tool: atlassian.jira_get_issue" {
		t.Errorf("Actions = %v", res.Actions)
	}
	if !strings.Contains(model.systems[0], "atlassian.jira_get_issue: Fetch an issue") {
		t.Errorf("system prompt missing tool listing:\n%s", model.systems[0])
	}
	second := model.calls[1]
	if !strings.Contains(second[len(second)-1].Content, "PROJ-1: login fails") {
		t.Errorf("tool result not fed back: %q", second[len(second)-1].Content)
	}
}

func TestLLMAgent_ToolRoundsAreBounded(t *testing.T) {
	call := `TOOL_CALL {"tool": "slack.search", "arguments": {}}`
	model := &scriptedLLM{replies: []string{call, call, "partial\n" + call}}
	tp := &fakeTools{list: []tools.Tool{{Name: "slack.search"}}, callErr: errors.New("rate limited")}
	a := NewLLMAgent(Definition{Name: "docs_agent", Prompt: "sys"}, model, WithTools(tp), WithMaxToolRounds(2))

	res, err := a.Execute(context.Background(), Task{Request: "summarize channel"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(tp.calls) != 2 {
		t.Errorf("tool calls = %d, want 2", len(tp.calls))
	}
	if res.Text != "partial" {
		t.Errorf("Text = %q, want pending tool calls stripped", res.Text)
	}
}

func TestLLMAgent_DiscoveryFailureIsNotFatal(t *testing.T) {
	model := &scriptedLLM{replies: []string{"answer"}}
	tp := &fakeTools{listErr: errors.New("server down")}
	a := NewLLMAgent(Definition{Name: "general", Prompt: "sys"}, model, WithTools(tp))

	res, err := a.Execute(context.Background(), Task{Request: "hello"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Text != "answer" {
		t.Errorf("Text = %q, want answer", res.Text)
	}
}

func TestParseToolCalls(t *testing.T) {
	text := "thinking\nTOOL_CALL {\"tool\": \"a.b\", \"arguments\": {\"x\": 1}}\nTOOL_CALL not json\n"
	calls, rest := parseToolCalls(text)
	if len(calls) != 1 || calls[0].Tool != "a.b" {
		t.Fatalf("calls = %+v", calls)
	}
	if calls[0].Arguments["x"] != float64(1) {
		t.Errorf("arguments = %v", calls[0].Arguments)
	}
	if !strings.Contains(rest, "TOOL_CALL not json") || !strings.Contains(rest, "thinking") {
		t.Errorf("rest = %q", rest)
	}
}
