// Package batch drives concurrent evaluation of a labeled utterance set
// through the classification pipeline and scores the outcomes.
package batch

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mathanleo/Mashreq/classifier"
)

// Record is one labeled input row.
type Record struct {
	Utterance      string
	ExpectedIntent string
}

// EvaluationRecord is the scored outcome for one input row. Identity
// (Utterance + ExpectedIntent) is carried through from the input; results
// are never paired back by position.
type EvaluationRecord struct {
	Utterance        string
	ExpectedIntent   string
	DetectedGroup    string
	GroupConfidence  *float64
	ActualIntent     string
	IntentConfidence *float64
	Status           Verdict
	TotalTokens      int
	InputTokens      int
	OutputTokens     int
	GroupSeconds     float64
	IntentSeconds    float64
	AllGroups        []classifier.GroupCandidate
	AllIntents       []classifier.IntentCandidate
}

// Options bounds the scheduler's dispatch.
type Options struct {
	// ChunkSize partitions the input into contiguous chunks; each chunk is
	// fully drained before the next starts.
	ChunkSize int

	// MaxConcurrency caps simultaneously in-flight pipeline calls.
	MaxConcurrency int

	// IntentMinConfidence is the verdict gate.
	IntentMinConfidence float64
}

func (o *Options) applyDefaults() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 20
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = 4
	}
	if o.IntentMinConfidence == 0 {
		o.IntentMinConfidence = 0.6
	}
}

// Classifier is the pipeline surface the scheduler drives. Satisfied by
// *classifier.Pipeline.
type Classifier interface {
	Classify(ctx context.Context, utterance string) (*classifier.Result, error)
}

// Scheduler runs pipelines over chunked input under bounded concurrency.
type Scheduler struct {
	pipeline Classifier
	opts     Options
	log      *zap.Logger
}

func NewScheduler(pipeline Classifier, opts Options, log *zap.Logger) *Scheduler {
	opts.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{pipeline: pipeline, opts: opts, log: log}
}

// Run evaluates every record and returns exactly one EvaluationRecord per
// input, in input order. A failed pipeline call yields a sentinel record and
// the batch continues; only a cancelled context stops the run early.
func (s *Scheduler) Run(ctx context.Context, records []Record) ([]EvaluationRecord, error) {
	results := make([]EvaluationRecord, len(records))

	for start := 0; start < len(records); start += s.opts.ChunkSize {
		end := start + s.opts.ChunkSize
		if end > len(records) {
			end = len(records)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.MaxConcurrency)

		for i := start; i < end; i++ {
			idx := i
			rec := records[i]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[idx] = s.evaluate(gctx, rec)
				return nil
			})
		}

		// drain this chunk before advancing
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return results, nil
}

// evaluate classifies one record and derives its verdict. Pipeline failure
// is absorbed here into the sentinel shape.
func (s *Scheduler) evaluate(ctx context.Context, rec Record) EvaluationRecord {
	out := EvaluationRecord{
		Utterance:      rec.Utterance,
		ExpectedIntent: rec.ExpectedIntent,
	}

	result, err := s.pipeline.Classify(ctx, rec.Utterance)
	if err != nil {
		s.log.Error("classification failed",
			zap.String("utterance", rec.Utterance),
			zap.Error(err))
		out.ActualIntent = ErrorSentinel
		out.Status = VerdictReview
		out.GroupSeconds = -1
		out.IntentSeconds = -1
		return out
	}

	out.TotalTokens = result.Usage.Total
	out.InputTokens = result.Usage.Input
	out.OutputTokens = result.Usage.Output
	out.GroupSeconds = result.GroupSeconds
	out.IntentSeconds = result.IntentSeconds
	out.AllGroups = result.SelectedGroups
	out.AllIntents = result.AllIntents

	if len(result.SelectedGroups) > 0 {
		top := result.SelectedGroups[0]
		out.DetectedGroup = top.GroupName
		conf := top.Confidence
		out.GroupConfidence = &conf
	}
	if result.TopIntent != nil {
		out.ActualIntent = result.TopIntent.Intent
		score := result.TopIntent.Score
		out.IntentConfidence = &score
	}

	out.Status = Classify(rec.ExpectedIntent, out.ActualIntent, out.IntentConfidence, s.opts.IntentMinConfidence)
	return out
}
