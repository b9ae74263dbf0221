package capture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// State of a capture session.
type State int

const (
	// Idle means no capture is in progress.
	Idle State = iota
	// Listening means the microphone is open and the recognizer is running.
	Listening
)

// Session drives one live speech-capture run at a time. It owns the
// microphone stream, keeps a full audio recording of the run, restarts
// the recognizer when it ends on its own, and filters benign recognizer
// conditions before events reach the caller.
type Session struct {
	mic MicrophoneSource
	rec Recognizer

	out      chan Event
	pumpOnce sync.Once

	mu         sync.Mutex
	state      State
	stream     AudioStream
	transcript string
	recording  []float32
}

// NewSession creates a session over the given capabilities.
func NewSession(mic MicrophoneSource, rec Recognizer) *Session {
	return &Session{
		mic: mic,
		rec: rec,
		out: make(chan Event, 16),
	}
}

// Events returns the stream of caller-visible session events:
// transcript updates and non-benign errors.
func (s *Session) Events() <-chan Event {
	return s.out
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns the cumulative transcript of the current run.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Start acquires the microphone and begins continuous recognition.
// Calling Start while already listening is a no-op.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state == Listening {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	stream, err := s.mic.Open()
	if err != nil {
		return fmt.Errorf("capture: opening microphone: %w", err)
	}
	if err := s.rec.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("capture: starting recognizer: %w", err)
	}

	s.mu.Lock()
	s.stream = stream
	s.state = Listening
	s.transcript = ""
	s.recording = s.recording[:0]
	s.mu.Unlock()

	go s.pumpFrames(stream)
	s.pumpOnce.Do(func() { go s.pumpEvents() })
	return nil
}

// Stop halts recognition and audio capture and returns the samples
// recorded during the run. Safe to call when already idle.
func (s *Session) Stop() []float32 {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return nil
	}
	s.state = Idle
	stream := s.stream
	s.stream = nil
	recorded := make([]float32, len(s.recording))
	copy(recorded, s.recording)
	s.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
	s.rec.Stop()
	return recorded
}

// pumpFrames feeds microphone frames into the session recording and the
// recognizer until the stream closes.
func (s *Session) pumpFrames(stream AudioStream) {
	for frames := range stream.Frames() {
		s.mu.Lock()
		if s.stream != stream {
			s.mu.Unlock()
			return
		}
		s.recording = append(s.recording, frames...)
		s.mu.Unlock()
		s.rec.WriteFrames(frames)
	}
}

// pumpEvents applies the session state machine to recognizer events for
// the lifetime of the session.
func (s *Session) pumpEvents() {
	for ev := range s.rec.Events() {
		s.handle(ev)
	}
}

func (s *Session) handle(ev Event) {
	switch ev.Kind {
	case PartialResult, FinalResult:
		s.mu.Lock()
		if s.state != Listening {
			s.mu.Unlock()
			return
		}
		s.transcript = ev.Transcript
		s.mu.Unlock()
		s.emit(ev)

	case Ended:
		s.mu.Lock()
		listening := s.state == Listening
		s.mu.Unlock()
		if !listening {
			// Stop already ran; a late end must not resurrect capture.
			return
		}
		log.Debug().Msg("capture: recognizer ended, restarting")
		if err := s.rec.Start(); err != nil {
			s.fail(fmt.Errorf("capture: restarting recognizer: %w", err))
		}

	case ErrorEvent:
		if ev.Err == nil {
			return
		}
		if errors.Is(ev.Err, ErrNoSpeech) {
			log.Debug().Msg("capture: no speech, suppressed")
			return
		}
		s.fail(ev.Err)
	}
}

// fail tears the run down and reports a recoverable error to the caller.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return
	}
	s.state = Idle
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
	s.rec.Stop()
	s.emit(Event{Kind: ErrorEvent, Err: err})
}

// emit sends without blocking; a full channel drops the event rather
// than stalling the recognizer.
func (s *Session) emit(ev Event) {
	select {
	case s.out <- ev:
	default:
	}
}
