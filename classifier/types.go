// Package classifier implements the two-stage (group then intent)
// classification pipeline for banking utterances.
package classifier

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Mathanleo/Mashreq/taxonomy"
)

// TokenUsage is the cumulative token accounting for a classification.
type TokenUsage struct {
	Input  int
	Output int
	Total  int
}

// Add accumulates another stage's usage.
func (u *TokenUsage) Add(other TokenUsage) {
	u.Input += other.Input
	u.Output += other.Output
	u.Total += other.Total
}

// GroupCandidate is one group proposed by the group-stage reply.
type GroupCandidate struct {
	GroupID    string  `json:"group_id"`
	GroupName  string  `json:"group_name"`
	Confidence float64 `json:"confidence"`
}

// IntentCandidate is one intent proposed by the intent-stage reply.
type IntentCandidate struct {
	Intent string  `json:"Intent"`
	Score  float64 `json:"Score"`
}

// Result is the outcome of classifying one utterance. TopIntent is nil when
// the pipeline terminated without a confident match; that is a valid outcome,
// not an error.
type Result struct {
	SelectedGroups []GroupCandidate
	TopIntent      *IntentCandidate
	AllIntents     []IntentCandidate
	Usage          TokenUsage
	GroupSeconds   float64
	IntentSeconds  float64
}

// GatewayReply is one raw exchange with the text-generation service.
type GatewayReply struct {
	Text    string
	Usage   TokenUsage
	Elapsed time.Duration
}

// Gateway issues a single prompt to the text-generation service and returns
// the raw reply with token and latency accounting.
type Gateway interface {
	Complete(ctx context.Context, prompt string) (*GatewayReply, error)
}

// Options are the routing thresholds for one run.
type Options struct {
	// MinConfidence is the group-stage inclusion threshold.
	MinConfidence float64

	// TieDelta admits candidates within this distance of the top confidence
	// even when they fall below MinConfidence.
	TieDelta float64

	// TopK caps how many groups feed the intent stage.
	TopK int

	// IntentMinScore filters intent candidates below this score.
	IntentMinScore float64
}

// applyDefaults fills in default values for unset option fields
func (o *Options) applyDefaults() {
	if o.MinConfidence == 0 {
		o.MinConfidence = 0.6
	}
	if o.TieDelta == 0 {
		o.TieDelta = 0.05
	}
	if o.TopK == 0 {
		o.TopK = 3
	}
	if o.IntentMinScore == 0 {
		o.IntentMinScore = 0.6
	}
}

// RunContext bundles the process-wide read-only collaborators. It is built
// once before dispatch and passed into every component constructor; nothing
// here is mutated after construction.
type RunContext struct {
	Taxonomy *taxonomy.Taxonomy
	Options  Options
	Log      *zap.Logger
}

// NewRunContext applies option defaults and falls back to a no-op logger so
// components never have to nil-check.
func NewRunContext(tax *taxonomy.Taxonomy, opts Options, log *zap.Logger) *RunContext {
	opts.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &RunContext{Taxonomy: tax, Options: opts, Log: log}
}
