package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/switchboard/internal/agent"
	"github.com/ShayCichocki/switchboard/internal/classifier"
	"github.com/ShayCichocki/switchboard/internal/contextmgr"
	"github.com/ShayCichocki/switchboard/internal/logger"
	"github.com/ShayCichocki/switchboard/internal/orchestrator/policy"
	"github.com/ShayCichocki/switchboard/internal/registry"
	"github.com/ShayCichocki/switchboard/pkg/models"
)

// AgentResult is the outcome of one agent invocation.
type AgentResult struct {
	Agent    string
	Result   agent.Result
	Err      *AgentError
	Duration time.Duration
}

// Succeeded reports whether the agent completed without error.
func (r AgentResult) Succeeded() bool {
	return r.Err == nil
}

// Response is the aggregated outcome of one request.
type Response struct {
	// RequestID identifies this request in events and logs.
	RequestID string
	// Results holds one entry per invoked agent, in invocation order.
	Results []AgentResult
	// Text is the aggregated answer.
	Text string
	// Success is true when at least one agent succeeded.
	Success bool
	// Errors holds one entry per failed agent.
	Errors []*AgentError
	// Warnings lists non-fatal problems such as unknown agent names.
	Warnings []string
	// Classification is the routing decision used.
	Classification classifier.Classification
	// Mode is how the agents were run.
	Mode models.ExecutionMode
	// Context is the view the agents received.
	Context models.ContextView
	// Cancelled is true when the caller's context ended before completion.
	// No turn is recorded for a cancelled request.
	Cancelled bool
}

// Agents returns the names of invoked agents in order.
func (r *Response) Agents() []string {
	names := make([]string, len(r.Results))
	for i, res := range r.Results {
		names[i] = res.Agent
	}
	return names
}

// Orchestrator coordinates classification, agent execution and history.
// It is safe for concurrent use.
type Orchestrator struct {
	registry   *registry.Registry
	classifier *classifier.Classifier
	policy     *policy.Config
	parallel   bool
	manager    *contextmgr.Manager
	onEvent    func(Event)

	eventMu sync.Mutex
	locks   *sessionLocks
}

// New creates an Orchestrator with required configuration and optional settings.
func New(req RequiredConfig, opts ...Option) *Orchestrator {
	o := &orchestratorOptions{}
	for _, opt := range opts {
		opt(o)
	}

	p := o.policyConfig
	if p == nil {
		p = policy.Default()
	} else {
		cp := *p
		p = &cp
	}
	if o.agentTimeout > 0 {
		p.Execution.AgentTimeout = o.agentTimeout
	}
	if err := p.Validate(); err != nil {
		logger.Warn("invalid policy, using default section format", "err", err)
		p.Output.SectionFormat = policy.DefaultSectionFormat
	}

	return &Orchestrator{
		registry:   req.Registry,
		classifier: req.Classifier,
		policy:     p,
		parallel:   o.parallel,
		manager:    o.manager,
		onEvent:    o.onEvent,
		locks:      newSessionLocks(),
	}
}

// Handle processes one request within sess. Agent failures and timeouts are
// reported in the Response and never returned as errors; the only errors are
// contextmgr.ErrInvalidState and *contextmgr.PersistenceError.
func (o *Orchestrator) Handle(ctx context.Context, request string, sess *contextmgr.Session) (*Response, error) {
	unlock := o.locks.lock(sess.ID())
	defer unlock()

	if sess.Status() != models.SessionActive {
		return nil, contextmgr.ErrInvalidState
	}

	req := requestScope{session: sess.ID(), id: uuid.NewString()}
	start := time.Now()
	o.emit(Event{Type: EventRequestStarted, SessionID: req.session, RequestID: req.id, Message: request})
	resp := &Response{RequestID: req.id}

	view := sess.GetContext(ctx)
	resp.Context = view
	if view.SummarizationFailed {
		resp.Warnings = append(resp.Warnings, "context summarization failed: "+view.SummaryError)
		o.emit(Event{Type: EventSummarizationFailed, SessionID: req.session, RequestID: req.id, Message: view.SummaryError})
	}

	cls := o.classifier.Classify(ctx, request, view.Summary)
	resp.Classification = cls
	o.emit(Event{
		Type:      EventClassified,
		SessionID: req.session,
		RequestID: req.id,
		Message:   fmt.Sprintf("%s %v (confidence %.2f, %s)", cls.Intent, cls.Agents, cls.Confidence, cls.Source),
	})

	names, warnings := o.resolve(cls.Agents)
	resp.Warnings = append(resp.Warnings, warnings...)
	resp.Mode = o.chooseMode(cls, names)
	logger.Debug("routing request", "session", sess.ID(), "agents", names, "mode", resp.Mode, "source", cls.Source)

	task := agent.Task{Request: request, Context: view}
	if resp.Mode == models.ModeParallel {
		resp.Results = o.runParallel(ctx, req, names, task)
	} else {
		resp.Results = o.runSequential(ctx, req, names, task)
	}

	var touched, actions []string
	for _, r := range resp.Results {
		if r.Err != nil {
			resp.Errors = append(resp.Errors, r.Err)
			continue
		}
		resp.Success = true
		touched = append(touched, r.Result.TouchedFiles...)
		actions = append(actions, r.Result.Actions...)
	}
	resp.Text = o.aggregate(resp.Results)

	if ctx.Err() != nil {
		resp.Cancelled = true
		resp.Success = false
		logger.Info("request cancelled, no turn recorded", "session", sess.ID())
		o.emit(Event{Type: EventRequestCompleted, SessionID: req.session, RequestID: req.id, Message: "cancelled", Error: ctx.Err(), Duration: time.Since(start)})
		return resp, nil
	}

	turn := models.Turn{
		Request:  request,
		Response: resp.Text,
		Agents:   resp.Agents(),
	}
	if err := sess.RecordTurn(turn); err != nil {
		return resp, err
	}
	sess.TrackFiles(touched...)
	sess.AddTasks(actions...)

	if o.manager != nil {
		if err := o.manager.Save(ctx, sess); err != nil {
			return resp, err
		}
	}

	o.emit(Event{
		Type:      EventRequestCompleted,
		SessionID: req.session,
		RequestID: req.id,
		Message:   fmt.Sprintf("%d/%d agents succeeded", len(resp.Results)-len(resp.Errors), len(resp.Results)),
		Duration:  time.Since(start),
	})
	return resp, nil
}

// resolve drops names the registry does not know. If nothing is left the
// general agent is used.
func (o *Orchestrator) resolve(candidates []string) ([]string, []string) {
	var names, warnings []string
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		if !o.registry.Has(c) {
			warnings = append(warnings, fmt.Sprintf("unknown agent %q ignored", c))
			continue
		}
		names = append(names, c)
	}
	if len(names) == 0 {
		names = []string{registry.GeneralAgent}
		warnings = append(warnings, "no known agents requested, using "+registry.GeneralAgent)
	}
	return names, warnings
}

func (o *Orchestrator) chooseMode(cls classifier.Classification, names []string) models.ExecutionMode {
	if len(names) == 1 {
		return models.ModeSingle
	}
	if o.parallel && cls.Execution == models.ModeParallel && o.registry.Independent(names) {
		return models.ModeParallel
	}
	return models.ModeSequential
}
