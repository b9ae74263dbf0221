// Package transcribe provides speech-to-text through a hosted
// transcription API, exposed as a capture.Recognizer.
package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/scribeapp/scribe/internal/audio"
)

// Transcriber converts mono float32 audio samples to text.
type Transcriber interface {
	Process(ctx context.Context, samples []float32) (string, error)
}

// OpenAITranscriber sends audio chunks to the hosted transcription
// endpoint. Language is an ISO-639-1 code ("en", "es").
type OpenAITranscriber struct {
	client     *openai.Client
	model      string
	language   string
	sampleRate int
}

// NewOpenAITranscriber creates a hosted transcriber.
func NewOpenAITranscriber(client *openai.Client, model, language string, sampleRate int) *OpenAITranscriber {
	return &OpenAITranscriber{
		client:     client,
		model:      model,
		language:   language,
		sampleRate: sampleRate,
	}
}

// Process encodes the samples as WAV and transcribes them.
func (t *OpenAITranscriber) Process(ctx context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	// The audio endpoint wants a named file, so stage the chunk on disk.
	dir, err := os.MkdirTemp("", "scribe-chunk-")
	if err != nil {
		return "", fmt.Errorf("transcribe: staging chunk: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "chunk.wav")
	if err := audio.WriteWAV(path, samples, t.sampleRate, 1); err != nil {
		return "", fmt.Errorf("transcribe: encoding chunk: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("transcribe: reading chunk: %w", err)
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "chunk.wav",
		Reader:   bytes.NewReader(data),
		Language: t.language,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: transcription request: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
