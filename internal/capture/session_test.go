package capture

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeStream is a scripted AudioStream.
type fakeStream struct {
	frames    chan []float32
	closeOnce sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{frames: make(chan []float32, 8)}
}

func (f *fakeStream) Frames() <-chan []float32 { return f.frames }

func (f *fakeStream) Close() error {
	f.closeOnce.Do(func() { close(f.frames) })
	return nil
}

// fakeMic hands out fakeStreams, or a scripted error.
type fakeMic struct {
	err     error
	streams []*fakeStream
}

func (f *fakeMic) Open() (AudioStream, error) {
	if f.err != nil {
		return nil, f.err
	}
	st := newFakeStream()
	f.streams = append(f.streams, st)
	return st, nil
}

// fakeRecognizer replays scripted events and counts lifecycle calls.
type fakeRecognizer struct {
	mu     sync.Mutex
	starts int
	stops  int
	events chan Event
}

func newFakeRecognizer() *fakeRecognizer {
	return &fakeRecognizer{events: make(chan Event, 16)}
}

func (f *fakeRecognizer) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return nil
}

func (f *fakeRecognizer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeRecognizer) WriteFrames([]float32) {}

func (f *fakeRecognizer) Events() <-chan Event { return f.events }

func (f *fakeRecognizer) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

func TestStartPermissionDenied(t *testing.T) {
	mic := &fakeMic{err: fmt.Errorf("device busy: %w", ErrPermissionDenied)}
	s := NewSession(mic, newFakeRecognizer())

	err := s.Start()
	if err == nil {
		t.Fatal("Start() with denied microphone should fail")
	}
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Start() error = %v, want ErrPermissionDenied", err)
	}
	if s.State() != Idle {
		t.Errorf("State() = %v, want Idle", s.State())
	}
}

func TestStartWhileListeningIsNoOp(t *testing.T) {
	rec := newFakeRecognizer()
	s := NewSession(&fakeMic{}, rec)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if got := rec.startCount(); got != 1 {
		t.Errorf("recognizer started %d times, want 1", got)
	}
	s.Stop()
}

func TestCumulativeTranscriptAndAutoRestart(t *testing.T) {
	rec := newFakeRecognizer()
	s := NewSession(&fakeMic{}, rec)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	rec.events <- Event{Kind: PartialResult, Transcript: "Hello"}
	rec.events <- Event{Kind: FinalResult, Transcript: "Hello there"}

	for i := 0; i < 2; i++ {
		select {
		case ev := <-s.Events():
			if ev.Kind == ErrorEvent {
				t.Fatalf("unexpected error event: %v", ev.Err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for transcript event")
		}
	}
	if got := s.Transcript(); got != "Hello there" {
		t.Errorf("Transcript() = %q, want %q", got, "Hello there")
	}

	// A spontaneous end while listening restarts the recognizer with no
	// caller-visible change.
	rec.events <- Event{Kind: Ended}
	waitFor(t, "recognizer restart", func() bool { return rec.startCount() == 2 })

	if s.State() != Listening {
		t.Errorf("State() after auto-restart = %v, want Listening", s.State())
	}
	select {
	case ev := <-s.Events():
		t.Errorf("auto-restart emitted event %+v, want none", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNoSpeechSuppressed(t *testing.T) {
	rec := newFakeRecognizer()
	s := NewSession(&fakeMic{}, rec)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	rec.events <- Event{Kind: ErrorEvent, Err: fmt.Errorf("run 3: %w", ErrNoSpeech)}

	select {
	case ev := <-s.Events():
		t.Errorf("no-speech produced event %+v, want none", ev)
	case <-time.After(50 * time.Millisecond):
	}
	if s.State() != Listening {
		t.Errorf("State() after no-speech = %v, want Listening", s.State())
	}
	s.Stop()
}

func TestRecognizerErrorStopsSession(t *testing.T) {
	rec := newFakeRecognizer()
	s := NewSession(&fakeMic{}, rec)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	rec.events <- Event{Kind: ErrorEvent, Err: errors.New("audio device lost")}

	select {
	case ev := <-s.Events():
		if ev.Kind != ErrorEvent || ev.Err == nil {
			t.Errorf("got event %+v, want an error event", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error event")
	}
	if s.State() != Idle {
		t.Errorf("State() after recognizer error = %v, want Idle", s.State())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rec := newFakeRecognizer()
	s := NewSession(&fakeMic{}, rec)

	if s.Stop() != nil {
		t.Error("Stop() before Start() should return nil samples")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Stop()
	s.Stop()

	if s.State() != Idle {
		t.Errorf("State() = %v, want Idle", s.State())
	}
}

func TestEndedAfterStopDoesNotRestart(t *testing.T) {
	rec := newFakeRecognizer()
	s := NewSession(&fakeMic{}, rec)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Stop()

	rec.events <- Event{Kind: Ended}
	time.Sleep(50 * time.Millisecond)

	if got := rec.startCount(); got != 1 {
		t.Errorf("recognizer started %d times after late end, want 1", got)
	}
	if s.State() != Idle {
		t.Errorf("State() = %v, want Idle", s.State())
	}
}

func TestStopReturnsRecordedSamples(t *testing.T) {
	mic := &fakeMic{}
	rec := newFakeRecognizer()
	s := NewSession(mic, rec)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	mic.streams[0].frames <- []float32{0.1, 0.2}
	mic.streams[0].frames <- []float32{0.3}
	waitFor(t, "frames recorded", func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.recording) == 3
	})

	samples := s.Stop()
	if len(samples) != 3 {
		t.Fatalf("Stop() returned %d samples, want 3", len(samples))
	}
	if samples[0] != 0.1 || samples[2] != 0.3 {
		t.Errorf("Stop() samples = %v, want [0.1 0.2 0.3]", samples)
	}
}
