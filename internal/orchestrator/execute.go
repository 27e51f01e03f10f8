package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ShayCichocki/switchboard/internal/agent"
	"github.com/ShayCichocki/switchboard/internal/logger"
	"github.com/ShayCichocki/switchboard/pkg/models"
)

// runSequential runs agents in order. Each sees every earlier output, with
// failed agents passed along as upstream failure markers. Remaining agents
// are skipped once ctx is done.
func (o *Orchestrator) runSequential(ctx context.Context, req requestScope, names []string, task agent.Task) []AgentResult {
	results := make([]AgentResult, 0, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		t := task
		t.Context = cloneView(task.Context)
		t.Upstream = upstreamOf(results)
		results = append(results, o.invoke(ctx, req, name, t))
	}
	return results
}

// runParallel runs every agent concurrently, at most MaxParallel at a time.
// Each gets its own copy of the same snapshot and no upstream outputs.
func (o *Orchestrator) runParallel(ctx context.Context, req requestScope, names []string, task agent.Task) []AgentResult {
	results := make([]AgentResult, len(names))
	sem := make(chan struct{}, o.policy.Execution.MaxParallel)
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = AgentResult{Agent: name, Err: &AgentError{Agent: name, Err: ctx.Err()}}
				return
			}
			t := agent.Task{Request: task.Request, Context: cloneView(task.Context)}
			results[i] = o.invoke(ctx, req, name, t)
		}(i, name)
	}
	wg.Wait()
	return results
}

type outcome struct {
	result agent.Result
	err    error
}

// invoke runs one handler under the per-agent deadline. The handler runs in
// its own goroutine so a handler that ignores ctx still times out.
func (o *Orchestrator) invoke(ctx context.Context, req requestScope, name string, task agent.Task) AgentResult {
	desc, _ := o.registry.Get(name)
	actx, cancel := context.WithTimeout(ctx, o.policy.Execution.AgentTimeout)
	defer cancel()

	o.emit(Event{Type: EventAgentStarted, SessionID: req.session, RequestID: req.id, Agent: name})
	start := time.Now()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrAgentPanic, r)}
			}
		}()
		res, err := desc.Handler.Execute(actx, task)
		done <- outcome{result: res, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-actx.Done():
		out = outcome{err: actx.Err()}
	}
	res := AgentResult{Agent: name, Result: out.result, Duration: time.Since(start)}

	err := out.err
	if err == nil && !out.result.Success {
		err = ErrAgentUnsuccessful
	}
	if err != nil {
		timeout := ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded)
		if timeout {
			err = fmt.Errorf("%w after %s", context.DeadlineExceeded, o.policy.Execution.AgentTimeout)
		}
		res.Err = &AgentError{Agent: name, Err: err, Timeout: timeout}
		res.Result = agent.Result{}
		logger.Warn("agent failed", "session", req.session, "request", req.id, "agent", name, "timeout", timeout, "err", err)
		o.emit(Event{Type: EventAgentFailed, SessionID: req.session, RequestID: req.id, Agent: name, Error: res.Err, Duration: res.Duration})
		return res
	}

	logger.Debug("agent completed", "session", req.session, "request", req.id, "agent", name, "duration", res.Duration)
	o.emit(Event{Type: EventAgentCompleted, SessionID: req.session, RequestID: req.id, Agent: name, Duration: res.Duration})
	return res
}

func upstreamOf(results []AgentResult) []agent.Upstream {
	if len(results) == 0 {
		return nil
	}
	up := make([]agent.Upstream, len(results))
	for i, r := range results {
		if r.Err != nil {
			up[i] = agent.Upstream{Agent: r.Agent, Failed: true, Reason: r.Err.Reason()}
			continue
		}
		up[i] = agent.Upstream{Agent: r.Agent, Text: r.Result.Text}
	}
	return up
}

func cloneView(v models.ContextView) models.ContextView {
	c := v
	c.RecentTurns = make([]models.Turn, len(v.RecentTurns))
	for i, t := range v.RecentTurns {
		t.Agents = append([]string(nil), t.Agents...)
		c.RecentTurns[i] = t
	}
	c.ActiveFiles = append([]string(nil), v.ActiveFiles...)
	c.TaskHistory = append([]string(nil), v.TaskHistory...)
	return c
}
