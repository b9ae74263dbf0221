package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Pipeline errors. Callers distinguish a failed call from a call that
// succeeded without producing usable text.
var (
	ErrAugmentationFailed  = errors.New("notes: prompt augmentation failed")
	ErrSummarizationFailed = errors.New("notes: summarization failed")
	ErrEmptyResult         = errors.New("notes: model returned no usable text")
)

// Pipeline chains the two model calls that produce a note: prompt
// augmentation, then summarization. Augmentation stays a separate stage
// so the history-aware context injection can change independently of
// the summarization prompt.
type Pipeline struct {
	model Model
}

// NewPipeline creates a summary pipeline over the given model.
func NewPipeline(model Model) *Pipeline {
	return &Pipeline{model: model}
}

// Generate produces study notes for the transcript, using the summaries
// of prior sessions as history. If augmentation fails, summarization is
// never attempted and no partial result is returned.
func (p *Pipeline) Generate(ctx context.Context, transcript string, history []string) (string, error) {
	augmented, err := p.model.AugmentPrompt(ctx, transcript, history)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAugmentationFailed, err)
	}
	if strings.TrimSpace(augmented) == "" {
		return "", fmt.Errorf("%w: empty augmented prompt", ErrAugmentationFailed)
	}

	summary, err := p.model.Summarize(ctx, augmented)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}
	if strings.TrimSpace(summary) == "" {
		return "", ErrEmptyResult
	}
	return summary, nil
}
