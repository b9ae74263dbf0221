// Package capture manages a live speech-to-text session over injectable
// audio and recognition capabilities.
package capture

import "errors"

// ErrPermissionDenied reports that the microphone could not be acquired.
var ErrPermissionDenied = errors.New("microphone permission denied")

// ErrNoSpeech is the benign recognizer condition raised when a stretch
// of audio contains no recognizable speech. Sessions suppress it.
var ErrNoSpeech = errors.New("no speech detected")

// EventKind tags recognizer events.
type EventKind int

const (
	// PartialResult carries an interim cumulative transcript.
	PartialResult EventKind = iota
	// FinalResult carries a finalized cumulative transcript.
	FinalResult
	// Ended signals that the recognizer run stopped on its own,
	// e.g. after a silence timeout.
	Ended
	// ErrorEvent carries a recognizer failure.
	ErrorEvent
)

// Event is a single recognizer signal. PartialResult and FinalResult
// events carry the full transcript recognized so far in the current
// run, not a delta: each one supersedes the previous value.
type Event struct {
	Kind       EventKind
	Transcript string
	Err        error
}

// AudioStream delivers capture frames from an open input device.
// The frames channel is closed when the stream is closed.
type AudioStream interface {
	Frames() <-chan []float32
	Close() error
}

// MicrophoneSource acquires the audio input stream. Open reports
// ErrPermissionDenied (wrapped) when access to the device is refused.
type MicrophoneSource interface {
	Open() (AudioStream, error)
}

// Recognizer is a continuous speech-to-text engine. Audio is pushed in
// with WriteFrames; results arrive on Events. A single Events channel
// serves all runs of the recognizer.
type Recognizer interface {
	Start() error
	Stop()
	WriteFrames(frames []float32)
	Events() <-chan Event
}
