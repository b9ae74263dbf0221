// Package hotkey provides a global hotkey listener using gohook that
// drives recording. It supports "hold" mode (press to record, release
// to stop) and "toggle" mode (press to record, press again to stop).
package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"
)

// Action indicates what the hotkey asks the session to do.
type Action int

const (
	// StartRecording signals that the hotkey was activated.
	StartRecording Action = iota
	// StopRecording signals that the hotkey was deactivated.
	StopRecording
)

// Event is emitted on the channel returned by Events.
type Event struct {
	Action Action
}

// Listener manages a global hotkey and emits recording actions.
type Listener struct {
	keys []string
	mode string // "hold" or "toggle"
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// NewListener creates a Listener for the given key combo and mode.
// keys should be lowercase key names (e.g., ["ctrl", "shift", "r"]).
// mode must be "hold" or "toggle".
func NewListener(keys []string, mode string) *Listener {
	return &Listener{
		keys: keys,
		mode: mode,
		ch:   make(chan Event, 16),
		done: make(chan struct{}),
	}
}

// Events returns the channel that receives hotkey events.
// The channel is closed when Stop is called.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Start begins listening for the global hotkey.
// This function blocks until Stop is called. Run it in a goroutine.
func (l *Listener) Start() {
	switch l.mode {
	case "hold":
		l.startHold()
	default: // "toggle"
		l.startToggle()
	}
}

// startHold implements push-to-record:
// KeyDown -> StartRecording, KeyUp -> StopRecording.
func (l *Listener) startHold() {
	hook.Register(hook.KeyDown, l.keys, func(e hook.Event) {
		l.send(StartRecording)
	})

	hook.Register(hook.KeyUp, l.keys, func(e hook.Event) {
		l.send(StopRecording)
	})

	l.run()
}

// startToggle implements toggle mode:
// first press -> StartRecording, second press -> StopRecording, etc.
func (l *Listener) startToggle() {
	var mu sync.Mutex
	recording := false

	hook.Register(hook.KeyDown, l.keys, func(e hook.Event) {
		mu.Lock()
		defer mu.Unlock()
		if recording {
			l.send(StopRecording)
			recording = false
		} else {
			l.send(StartRecording)
			recording = true
		}
	})

	l.run()
}

func (l *Listener) run() {
	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// send emits without blocking; a full channel drops the event.
func (l *Listener) send(a Action) {
	select {
	case l.ch <- Event{Action: a}:
	default:
	}
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
