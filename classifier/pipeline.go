package classifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// PipelineError is the terminal failure of one utterance's classification.
// The batch scheduler converts it into a sentinel record; it never aborts
// the batch.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at %s stage: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Pipeline classifies one utterance through the group stage and, when a
// group is confidently selected, the intent stage.
type Pipeline struct {
	rc         *RunContext
	gateway    Gateway
	prompts    *PromptBuilder
	parser     *Parser
	router     *Router
	aggregator *Aggregator
}

func NewPipeline(rc *RunContext, gateway Gateway) *Pipeline {
	return &Pipeline{
		rc:         rc,
		gateway:    gateway,
		prompts:    NewPromptBuilder(rc),
		parser:     NewParser(rc),
		router:     NewRouter(rc),
		aggregator: NewAggregator(rc),
	}
}

// Classify runs the two-stage classification for one utterance. An empty
// routed group set or an empty aggregated intent set terminates with a
// no-match result carrying the accounting accumulated so far; only gateway
// failures produce a PipelineError.
func (p *Pipeline) Classify(ctx context.Context, utterance string) (*Result, error) {
	result := &Result{}

	groupReply, err := p.gateway.Complete(ctx, p.prompts.GroupPrompt(utterance))
	if err != nil {
		return nil, &PipelineError{Stage: "group", Err: err}
	}
	result.Usage.Add(groupReply.Usage)
	result.GroupSeconds = groupReply.Elapsed.Seconds()

	p.rc.Log.Debug("group stage reply",
		zap.String("utterance", utterance),
		zap.String("raw", groupReply.Text),
		zap.Int("tokens", groupReply.Usage.Total))

	selected := p.router.Select(p.parser.ParseGroups(groupReply.Text))
	result.SelectedGroups = selected
	if len(selected) == 0 {
		// no confident group: a valid terminal outcome, intent stage skipped
		return result, nil
	}

	candidates := p.aggregator.Expand(selected)
	if len(candidates) == 0 {
		return result, nil
	}

	intentReply, err := p.gateway.Complete(ctx, p.prompts.IntentPrompt(utterance, candidates, p.rc.Options.IntentMinScore))
	if err != nil {
		return nil, &PipelineError{Stage: "intent", Err: err}
	}
	result.Usage.Add(intentReply.Usage)
	result.IntentSeconds = intentReply.Elapsed.Seconds()

	p.rc.Log.Debug("intent stage reply",
		zap.String("utterance", utterance),
		zap.String("raw", intentReply.Text),
		zap.Int("tokens", intentReply.Usage.Total))

	result.AllIntents = p.parser.ParseIntents(intentReply.Text, p.rc.Options.IntentMinScore)
	if len(result.AllIntents) > 0 {
		top := result.AllIntents[0]
		result.TopIntent = &top
	}

	return result, nil
}
