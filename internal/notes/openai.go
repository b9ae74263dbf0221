package notes

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const augmentSystemPrompt = `You are an AI assistant designed to augment user provided transcripts with additional context from their transcription history to produce better study notes. Generate an augmented prompt that includes the most relevant information from the user's history to improve the quality of the study notes. Focus on details that provide context and improve the overall coherence of the prompt. The augmented prompt must be a single paragraph.`

const summarizeSystemPrompt = `You are an AI assistant that turns lecture and study-session transcripts into concise, well-organized study notes. Capture the key concepts, definitions and relationships from the transcript. Respond with the notes only.`

const suggestSystemPrompt = `You are an AI tutor. Based on the student's previous topics, you will suggest new topics that build upon their existing knowledge. Suggest at least 3 relevant topics. Respond with one topic per line and no other text.`

// OpenAIModel implements Model on the hosted chat-completion API.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

// NewOpenAIModel creates a model adapter using the given chat model id.
func NewOpenAIModel(client *openai.Client, model string) *OpenAIModel {
	return &OpenAIModel{client: client, model: model}
}

func (m *OpenAIModel) AugmentPrompt(ctx context.Context, transcript string, history []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is the user's transcript: %s\n\n", transcript)
	b.WriteString("Here is the user's transcription history:\n")
	for _, h := range history {
		b.WriteString(h)
		b.WriteString("\n")
	}
	b.WriteString("\nAugmented Prompt:")
	return m.complete(ctx, augmentSystemPrompt, b.String())
}

func (m *OpenAIModel) Summarize(ctx context.Context, transcript string) (string, error) {
	return m.complete(ctx, summarizeSystemPrompt, transcript)
}

func (m *OpenAIModel) SuggestTopics(ctx context.Context, previousTopics []string) ([]string, error) {
	var b strings.Builder
	b.WriteString("Previous Topics:\n")
	for _, topic := range previousTopics {
		fmt.Fprintf(&b, "- %s\n", topic)
	}
	raw, err := m.complete(ctx, suggestSystemPrompt, b.String())
	if err != nil {
		return nil, err
	}
	return parseTopics(raw), nil
}

// complete runs a single-turn chat completion.
func (m *OpenAIModel) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("notes: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// parseTopics extracts one topic per line, tolerating bullet markers
// and numbering the model sometimes adds anyway.
func parseTopics(raw string) []string {
	var topics []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		if line == "" {
			continue
		}
		topics = append(topics, line)
	}
	return topics
}
