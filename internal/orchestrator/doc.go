// Package orchestrator turns a user request into agent invocations and a
// single aggregated response.
//
// For each request the orchestrator:
//   - reads the bounded context view of the session
//   - classifies the request into an ordered list of candidate agents
//   - runs them sequentially, each seeing earlier outputs, or in parallel
//     against one shared snapshot when they are independent
//   - aggregates successful outputs and records the turn
//
// One agent failing never fails the request. Calls for the same session are
// serialized.
//
// Example usage:
//
//	orch := orchestrator.New(orchestrator.RequiredConfig{
//		Registry:   reg,
//		Classifier: classifier.New(completer, reg),
//	}, orchestrator.WithParallel(true))
//	resp, err := orch.Handle(ctx, "write tests for the parser", sess)
package orchestrator
