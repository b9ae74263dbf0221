package notes

import (
	"context"

	"github.com/rs/zerolog/log"
)

// fallbackTopics is served whenever the model cannot provide
// suggestions. The wording is placeholder content, not a contract.
var fallbackTopics = []string{
	"Introduction to AI",
	"Machine Learning Basics",
	"Natural Language Processing",
}

// TopicService suggests follow-up study topics. Suggestions are a soft
// enhancement: any failure falls back to a fixed list and never reaches
// the caller as an error.
type TopicService struct {
	model Model
}

// NewTopicService creates a topic service over the given model.
func NewTopicService(model Model) *TopicService {
	return &TopicService{model: model}
}

// Suggest returns follow-up topics based on prior session summaries.
// The result is never empty.
func (t *TopicService) Suggest(ctx context.Context, previousTopics []string) []string {
	topics, err := t.model.SuggestTopics(ctx, previousTopics)
	if err != nil {
		log.Debug().Err(err).Msg("notes: topic suggestion failed, using fallback")
		return fallback()
	}
	if len(topics) == 0 {
		log.Debug().Msg("notes: topic suggestion came back empty, using fallback")
		return fallback()
	}
	return topics
}

func fallback() []string {
	out := make([]string, len(fallbackTopics))
	copy(out, fallbackTopics)
	return out
}
