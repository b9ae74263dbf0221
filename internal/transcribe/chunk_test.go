package transcribe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/scribeapp/scribe/internal/capture"
)

// scriptedTranscriber returns canned responses in call order.
type scriptedTranscriber struct {
	mu    sync.Mutex
	texts []string
	errs  []error
	calls int
}

func (s *scriptedTranscriber) Process(_ context.Context, _ []float32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	var text string
	var err error
	if i < len(s.texts) {
		text = s.texts[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return text, err
}

// newTestRecognizer uses a 4-sample chunk so tests can push one chunk
// with a single WriteFrames call.
func newTestRecognizer(tr Transcriber) *ChunkRecognizer {
	return NewChunkRecognizer(context.Background(), tr, 4, time.Second)
}

func pushChunk(r *ChunkRecognizer) {
	r.WriteFrames([]float32{0.1, 0.2, 0.3, 0.4})
}

func nextEvent(t *testing.T, r *ChunkRecognizer) capture.Event {
	t.Helper()
	select {
	case ev := <-r.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recognizer event")
		return capture.Event{}
	}
}

func TestCumulativeTranscript(t *testing.T) {
	tr := &scriptedTranscriber{texts: []string{"hello", "there friend"}}
	r := newTestRecognizer(tr)
	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop()

	pushChunk(r)
	ev := nextEvent(t, r)
	if ev.Kind != capture.FinalResult || ev.Transcript != "hello" {
		t.Errorf("first event = %+v, want FinalResult %q", ev, "hello")
	}

	pushChunk(r)
	ev = nextEvent(t, r)
	if ev.Kind != capture.FinalResult || ev.Transcript != "hello there friend" {
		t.Errorf("second event = %+v, want FinalResult %q", ev, "hello there friend")
	}
}

func TestTranscriberErrorPropagates(t *testing.T) {
	wantErr := errors.New("service unavailable")
	tr := &scriptedTranscriber{errs: []error{wantErr}}
	r := newTestRecognizer(tr)
	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop()

	pushChunk(r)
	ev := nextEvent(t, r)
	if ev.Kind != capture.ErrorEvent || !errors.Is(ev.Err, wantErr) {
		t.Errorf("event = %+v, want error event wrapping %v", ev, wantErr)
	}
}

func TestSilenceEndsRun(t *testing.T) {
	tr := &scriptedTranscriber{texts: []string{"", "", ""}}
	r := newTestRecognizer(tr)
	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var got []capture.Event
	for i := 0; i < maxSilentChunks; i++ {
		pushChunk(r)
	}
	// Three empty chunks produce three no-speech events and one end.
	for i := 0; i < maxSilentChunks+1; i++ {
		got = append(got, nextEvent(t, r))
	}

	for i := 0; i < maxSilentChunks; i++ {
		if got[i].Kind != capture.ErrorEvent || !errors.Is(got[i].Err, capture.ErrNoSpeech) {
			t.Errorf("event %d = %+v, want no-speech error", i, got[i])
		}
	}
	if got[maxSilentChunks].Kind != capture.Ended {
		t.Errorf("last event = %+v, want Ended", got[maxSilentChunks])
	}

	// The run is over: further frames are ignored.
	pushChunk(r)
	select {
	case ev := <-r.Events():
		t.Errorf("frames after end produced event %+v, want none", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRestartResetsTranscript(t *testing.T) {
	tr := &scriptedTranscriber{texts: []string{"first run", "second run"}}
	r := newTestRecognizer(tr)
	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	pushChunk(r)
	if ev := nextEvent(t, r); ev.Transcript != "first run" {
		t.Errorf("first run transcript = %q, want %q", ev.Transcript, "first run")
	}

	r.Stop()
	if err := r.Start(); err != nil {
		t.Fatalf("re-Start() error = %v", err)
	}
	defer r.Stop()

	pushChunk(r)
	if ev := nextEvent(t, r); ev.Transcript != "second run" {
		t.Errorf("second run transcript = %q, want %q", ev.Transcript, "second run")
	}
}

func TestStopDuringConcurrentWrites(t *testing.T) {
	r := newTestRecognizer(&scriptedTranscriber{})

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				pushChunk(r)
			}
		}
	}()

	// A frame in flight while Stop closes the run must be dropped,
	// never sent to a closed channel.
	for i := 0; i < 2000; i++ {
		if err := r.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		r.Stop()
	}
	close(stop)
	wg.Wait()
}

func TestStopIdempotentAndStartNoOp(t *testing.T) {
	r := newTestRecognizer(&scriptedTranscriber{})

	r.Stop() // stop before start is fine

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	r.Stop()
	r.Stop()
}
