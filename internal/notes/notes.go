// Package notes turns transcripts into study notes and topic
// suggestions through a hosted generative model.
package notes

import "context"

// Model is the hosted generative model consumed by the pipeline and the
// topic service. Implementations are opaque request/response operations.
type Model interface {
	// AugmentPrompt rewrites a raw transcript into a richer prompt that
	// folds in relevant context from prior session summaries.
	AugmentPrompt(ctx context.Context, transcript string, history []string) (string, error)
	// Summarize produces study notes from a (usually augmented) transcript.
	Summarize(ctx context.Context, transcript string) (string, error)
	// SuggestTopics proposes follow-up topics from prior summaries.
	SuggestTopics(ctx context.Context, previousTopics []string) ([]string, error)
}
