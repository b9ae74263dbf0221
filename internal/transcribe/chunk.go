package transcribe

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scribeapp/scribe/internal/capture"
)

// maxSilentChunks is the number of consecutive empty transcriptions
// before a run is considered ended, mirroring a recognizer's silence
// timeout.
const maxSilentChunks = 3

// ChunkRecognizer adapts a Transcriber into a continuous
// capture.Recognizer. Incoming frames are grouped into fixed-duration
// chunks; each chunk is transcribed in order and the cumulative
// transcript of the current run is emitted after every chunk.
type ChunkRecognizer struct {
	ctx       context.Context
	tr        Transcriber
	chunkSize int

	events chan capture.Event

	mu       sync.Mutex
	running  bool
	buf      []float32
	chunks   chan []float32
	segments []string
	silent   int
}

// NewChunkRecognizer creates a recognizer that transcribes chunkLen of
// audio at a time.
func NewChunkRecognizer(ctx context.Context, tr Transcriber, sampleRate int, chunkLen time.Duration) *ChunkRecognizer {
	size := int(float64(sampleRate) * chunkLen.Seconds())
	if size < 1 {
		size = sampleRate
	}
	return &ChunkRecognizer{
		ctx:       ctx,
		tr:        tr,
		chunkSize: size,
		events:    make(chan capture.Event, 16),
	}
}

// Events returns the recognizer event stream, shared by all runs.
func (r *ChunkRecognizer) Events() <-chan capture.Event {
	return r.events
}

// Start begins a new recognition run. The run's transcript starts
// empty. Starting a running recognizer is a no-op.
func (r *ChunkRecognizer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	r.running = true
	r.buf = r.buf[:0]
	r.segments = r.segments[:0]
	r.silent = 0
	r.chunks = make(chan []float32, 8)
	go r.work(r.chunks)
	return nil
}

// Stop ends the current run. Queued chunks are drained but their
// results no longer matter to a stopped session.
func (r *ChunkRecognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	close(r.chunks)
	r.chunks = nil
}

// WriteFrames buffers audio and hands complete chunks to the worker.
func (r *ChunkRecognizer) WriteFrames(frames []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.buf = append(r.buf, frames...)
	if len(r.buf) < r.chunkSize {
		return
	}
	chunk := make([]float32, r.chunkSize)
	copy(chunk, r.buf[:r.chunkSize])
	r.buf = append(r.buf[:0], r.buf[r.chunkSize:]...)

	// The send stays under the lock: Stop closes r.chunks under the
	// same lock, so the channel cannot close between the running check
	// and the send. The send itself never blocks; drop the chunk if
	// transcription cannot keep up, stalling the audio path is worse
	// than a gap in the transcript.
	select {
	case r.chunks <- chunk:
	default:
		log.Warn().Msg("transcribe: dropping chunk, transcriber is behind")
	}
}

// work transcribes chunks in order for one run.
func (r *ChunkRecognizer) work(chunks <-chan []float32) {
	for chunk := range chunks {
		text, err := r.tr.Process(r.ctx, chunk)
		if err != nil {
			r.emit(capture.Event{Kind: capture.ErrorEvent, Err: err})
			continue
		}
		if text == "" {
			if r.recordSilence(chunks) {
				r.emit(capture.Event{Kind: capture.ErrorEvent, Err: capture.ErrNoSpeech})
				r.emit(capture.Event{Kind: capture.Ended})
				return
			}
			r.emit(capture.Event{Kind: capture.ErrorEvent, Err: capture.ErrNoSpeech})
			continue
		}
		r.emit(capture.Event{Kind: capture.FinalResult, Transcript: r.appendSegment(text)})
	}
}

// recordSilence counts an empty chunk and, at the threshold, ends the
// run so the session can restart it. Returns true when the run ended.
func (r *ChunkRecognizer) recordSilence(chunks <-chan []float32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.silent++
	if r.silent < maxSilentChunks {
		return false
	}
	// Only end the run this worker still owns; Stop may have swapped it.
	if r.running && (<-chan []float32)(r.chunks) == chunks {
		r.running = false
		r.chunks = nil
	}
	return true
}

func (r *ChunkRecognizer) appendSegment(text string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.silent = 0
	r.segments = append(r.segments, text)
	return strings.Join(r.segments, " ")
}

// emit sends without blocking so a slow consumer cannot stall the run.
func (r *ChunkRecognizer) emit(ev capture.Event) {
	select {
	case r.events <- ev:
	default:
	}
}
