package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/switchboard/internal/agent"
	"github.com/ShayCichocki/switchboard/internal/llm"
	"github.com/ShayCichocki/switchboard/internal/registry"
	"github.com/ShayCichocki/switchboard/pkg/models"
)

func builtinRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.FromDefinitions(agent.Builtins(), func(agent.Definition) agent.Handler {
		return agent.HandlerFunc(func(context.Context, agent.Task) (agent.Result, error) {
			return agent.Result{Success: true}, nil
		})
	})
	require.NoError(t, err)
	return reg
}

func answering(text string) llm.Completer {
	return llm.Func(func(context.Context, string, []llm.Message) (string, error) {
		return text, nil
	})
}

func failing() llm.Completer {
	return llm.Func(func(context.Context, string, []llm.Message) (string, error) {
		return "", errors.New("model unavailable")
	})
}

func TestClassify_ModelAnswerAccepted(t *testing.T) {
	c := New(answering(`Here you go:
`+"```json"+`
{"intent":"feature_implementation","confidence":0.9,"agents":["coder","test_writer"],"execution":"sequential","reasoning":"code then tests"}
`+"```"), builtinRegistry(t))

	cls := c.Classify(context.Background(), "write a parser and tests", "")

	assert.Equal(t, SourceModel, cls.Source)
	assert.Equal(t, []string{"coder", "test_writer"}, cls.Agents)
	assert.Equal(t, models.ModeSequential, cls.Execution)
	assert.InDelta(t, 0.9, cls.Confidence, 1e-9)
	assert.Equal(t, "code then tests", cls.Rationale)
}

func TestClassify_ModelFailureUsesKeywords(t *testing.T) {
	c := New(failing(), builtinRegistry(t))

	cls := c.Classify(context.Background(), "Write tests for the parser", "")

	assert.Equal(t, SourceHeuristic, cls.Source)
	assert.Equal(t, []string{agent.NameTestWriter}, cls.Agents)
	assert.Zero(t, cls.Confidence)
	assert.Equal(t, models.ModeSingle, cls.Execution)
}

func TestClassify_UnparseableAnswerUsesKeywords(t *testing.T) {
	c := New(answering("I think the coder should do it."), builtinRegistry(t))

	cls := c.Classify(context.Background(), "deploy this to staging", "")

	assert.Equal(t, SourceHeuristic, cls.Source)
	assert.Equal(t, []string{agent.NameDevOps}, cls.Agents)
	assert.Zero(t, cls.Confidence)
}

func TestClassify_NonsenseFallsBackToGeneral(t *testing.T) {
	c := New(failing(), builtinRegistry(t))

	cls := c.Classify(context.Background(), "zxqv blorp", "")

	assert.Equal(t, SourceFallback, cls.Source)
	assert.Equal(t, []string{agent.NameGeneral}, cls.Agents)
	assert.Zero(t, cls.Confidence)
}

func TestClassify_NilCompleter(t *testing.T) {
	c := New(nil, builtinRegistry(t))

	cls := c.Classify(context.Background(), "refactor the handler", "")

	assert.Equal(t, []string{agent.NameCoder}, cls.Agents)
	assert.Equal(t, SourceHeuristic, cls.Source)
}

func TestClassify_LowConfidenceMapsIntent(t *testing.T) {
	tests := []struct {
		name   string
		intent string
		want   []string
	}{
		{name: "direct", intent: "code_review", want: []string{agent.NameCoder, agent.NameQAChecker}},
		{name: "partial", intent: "test_writing_task", want: []string{agent.NameTestWriter}},
		{name: "case insensitive", intent: "Confluence", want: []string{agent.NameRequirementAnalyzer, agent.NameDocs}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(answering(`{"intent":"`+tt.intent+`","confidence":0.2,"agents":["general"],"execution":"single"}`), builtinRegistry(t))

			cls := c.Classify(context.Background(), "zxqv", "")

			assert.Equal(t, SourceHeuristic, cls.Source)
			assert.Equal(t, tt.want, cls.Agents)
			assert.Zero(t, cls.Confidence)
		})
	}
}

func TestClassify_LowConfidenceUnmappedIntentUsesKeywords(t *testing.T) {
	c := New(answering(`{"intent":"weird","confidence":0.3,"agents":["coder"]}`), builtinRegistry(t))

	cls := c.Classify(context.Background(), "update the readme", "")

	assert.Equal(t, SourceHeuristic, cls.Source)
	assert.Equal(t, []string{agent.NameDocs}, cls.Agents)
	assert.Equal(t, "weird", cls.Intent)
}

func TestClassify_MinConfidenceOption(t *testing.T) {
	c := New(answering(`{"intent":"x","confidence":0.3,"agents":["coder"]}`), builtinRegistry(t), WithMinConfidence(0.25))

	cls := c.Classify(context.Background(), "anything", "")

	assert.Equal(t, SourceModel, cls.Source)
	assert.Equal(t, []string{agent.NameCoder}, cls.Agents)
}

func TestClassify_PassesSummaryAndAgents(t *testing.T) {
	var gotSystem string
	var gotMessages []llm.Message
	c := New(llm.Func(func(_ context.Context, system string, msgs []llm.Message) (string, error) {
		gotSystem, gotMessages = system, msgs
		return `{"intent":"docs","confidence":0.8,"agents":["docs_agent"]}`, nil
	}), builtinRegistry(t))

	c.Classify(context.Background(), "document it", "we built a parser")

	for _, name := range []string{"coder", "test_writer", "requirement_analyzer", "qa_checker", "docs_agent", "devops", "general"} {
		assert.Contains(t, gotSystem, "**"+name+"**")
	}
	require.Len(t, gotMessages, 1)
	assert.Equal(t, llm.RoleUser, gotMessages[0].Role)
	assert.Contains(t, gotMessages[0].Content, "we built a parser")
	assert.Contains(t, gotMessages[0].Content, "document it")
}

func TestHeuristic_SkipsUnregisteredAgents(t *testing.T) {
	handler := agent.HandlerFunc(func(context.Context, agent.Task) (agent.Result, error) { return agent.Result{}, nil })
	reg, err := registry.New(
		registry.Descriptor{Name: agent.NameCoder, Handler: handler},
		registry.Descriptor{Name: agent.NameGeneral, Handler: handler},
	)
	require.NoError(t, err)
	c := New(nil, reg)

	cls := c.Classify(context.Background(), "test the code", "")

	assert.Equal(t, []string{agent.NameCoder}, cls.Agents)
}

func TestHeuristic_TagScan(t *testing.T) {
	c := New(nil, builtinRegistry(t))

	tests := []struct {
		request string
		want    string
	}{
		{request: "need a security analysis", want: agent.NameQAChecker},
		{request: "write user guides please", want: agent.NameDocs},
		{request: "set up infrastructure", want: agent.NameDevOps},
	}
	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			cls := c.Classify(context.Background(), tt.request, "")
			assert.Equal(t, []string{tt.want}, cls.Agents)
			assert.Equal(t, SourceHeuristic, cls.Source)
		})
	}
}

func TestMatchesKeyword(t *testing.T) {
	ws := words("Fix the latest CI-build, testing specs!")

	assert.True(t, matchesKeyword(ws, "test"))
	assert.True(t, matchesKeyword(ws, "ci"))
	assert.True(t, matchesKeyword(ws, "spec"))
	assert.True(t, matchesKeyword(ws, "fix"))
	assert.False(t, matchesKeyword(ws, "deploy"))
	assert.False(t, matchesKeyword(words("the city"), "ci"))
	assert.False(t, matchesKeyword(words("latest"), "test"))
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{name: "no json", input: "coder please", reason: "no JSON object found"},
		{name: "invalid json", input: `{"agents": [coder]}`, reason: "invalid JSON"},
		{name: "empty agents", input: `{"intent":"x","confidence":0.9,"agents":[]}`, reason: "empty agent list"},
		{name: "blank agents", input: `{"intent":"x","confidence":0.9,"agents":["", " "]}`, reason: "empty agent list"},
		{name: "missing confidence", input: `{"intent":"x","agents":["coder"]}`, reason: "missing confidence"},
		{name: "confidence too high", input: `{"confidence":1.5,"agents":["coder"]}`, reason: "confidence 1.5 out of range"},
		{name: "negative confidence", input: `{"confidence":-0.1,"agents":["coder"]}`, reason: "confidence -0.1 out of range"},
		{name: "bad mode", input: `{"confidence":0.9,"agents":["coder"],"execution":"whenever"}`, reason: `unknown execution mode "whenever"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var pf *ParseFailure
			require.ErrorAs(t, err, &pf)
			assert.Equal(t, tt.reason, pf.Reason)
		})
	}
}

func TestParse_DefaultsAndDedupe(t *testing.T) {
	cls, err := Parse(`{"intent":" review ","confidence":0.7,"agents":["coder","qa_checker","coder"]}`)
	require.NoError(t, err)

	assert.Equal(t, "review", cls.Intent)
	assert.Equal(t, []string{"coder", "qa_checker"}, cls.Agents)
	assert.Equal(t, models.ModeSequential, cls.Execution)

	cls, err = Parse(`{"confidence":1,"agents":["coder"],"execution":"PARALLEL"}`)
	require.NoError(t, err)
	assert.Equal(t, models.ModeParallel, cls.Execution)

	cls, err = Parse(`{"confidence":0,"agents":["coder"]}`)
	require.NoError(t, err)
	assert.Equal(t, models.ModeSingle, cls.Execution)
}

func TestParseFailure_PreviewTruncated(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Parse(string(long))
	var pf *ParseFailure
	require.ErrorAs(t, err, &pf)
	assert.Contains(t, pf.Preview, "(truncated)")
	assert.Contains(t, err.Error(), "no JSON object found")
}
