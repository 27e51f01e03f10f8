package classifier

import (
	"context"

	"github.com/ShayCichocki/switchboard/internal/agent"
	"github.com/ShayCichocki/switchboard/internal/llm"
	"github.com/ShayCichocki/switchboard/internal/logger"
	"github.com/ShayCichocki/switchboard/internal/registry"
	"github.com/ShayCichocki/switchboard/pkg/models"
)

// DefaultMinConfidence is the model confidence below which the heuristic takes over.
const DefaultMinConfidence = 0.5

// Classifier routes requests to agents.
type Classifier struct {
	llm           llm.Completer
	reg           *registry.Registry
	minConfidence float64
	rules         []KeywordRule
	intents       []IntentMapping
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMinConfidence sets the confidence threshold for trusting the model.
func WithMinConfidence(v float64) Option {
	return func(c *Classifier) {
		if v >= 0 && v <= 1 {
			c.minConfidence = v
		}
	}
}

// WithKeywordRules replaces the heuristic keyword table.
func WithKeywordRules(rules []KeywordRule) Option {
	return func(c *Classifier) { c.rules = rules }
}

// WithIntentMappings replaces the intent label table.
func WithIntentMappings(m []IntentMapping) Option {
	return func(c *Classifier) { c.intents = m }
}

// New creates a classifier. A nil completer means every request is routed
// by the heuristic alone.
func New(completer llm.Completer, reg *registry.Registry, opts ...Option) *Classifier {
	c := &Classifier{
		llm:           completer,
		reg:           reg,
		minConfidence: DefaultMinConfidence,
		rules:         DefaultKeywordRules,
		intents:       DefaultIntentMappings,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the agents that should handle request. It never fails:
// model errors, unparseable answers and low confidence all fall back to the
// heuristic, and then to the general agent.
func (c *Classifier) Classify(ctx context.Context, request, summary string) Classification {
	var intent string
	if c.llm != nil {
		cls, err := c.fromModel(ctx, request, summary)
		switch {
		case err != nil:
			logger.Debug("classification fell back to heuristic", "err", err)
		case cls.Confidence >= c.minConfidence:
			return cls
		default:
			logger.Debug("classification confidence below threshold",
				"confidence", cls.Confidence, "min", c.minConfidence, "intent", cls.Intent)
			intent = cls.Intent
			if agents := c.mapIntent(intent); len(agents) > 0 {
				return Classification{
					Intent:     intent,
					Confidence: HeuristicConfidence,
					Agents:     agents,
					Execution:  defaultMode(agents),
					Rationale:  "mapped from intent label " + intent,
					Source:     SourceHeuristic,
				}
			}
		}
	}

	if name := c.heuristic(request); name != "" {
		if intent == "" {
			intent = "keyword_match"
		}
		return Classification{
			Intent:     intent,
			Confidence: HeuristicConfidence,
			Agents:     []string{name},
			Execution:  models.ModeSingle,
			Rationale:  "matched request keywords",
			Source:     SourceHeuristic,
		}
	}

	return Classification{
		Intent:     "general",
		Confidence: HeuristicConfidence,
		Agents:     []string{agent.NameGeneral},
		Execution:  models.ModeSingle,
		Rationale:  "no agent matched the request",
		Source:     SourceFallback,
	}
}

func (c *Classifier) fromModel(ctx context.Context, request, summary string) (Classification, error) {
	text, err := c.llm.Complete(ctx, SystemPrompt(c.reg), []llm.Message{llm.User(UserPrompt(request, summary))})
	if err != nil {
		return Classification{}, err
	}
	return Parse(text)
}
