// Package session orchestrates conversations, live capture, note
// generation and topic suggestions over the owned state of one user.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/scribeapp/scribe/internal/audio"
	"github.com/scribeapp/scribe/internal/capture"
	"github.com/scribeapp/scribe/internal/notes"
	"github.com/scribeapp/scribe/internal/store"
)

// minTranscriptChars is the threshold below which a stopped recording
// does not trigger note generation.
const minTranscriptChars = 10

// Notifier receives user-facing notifications. Persistence and topic
// failures never arrive here; they degrade silently.
type Notifier interface {
	Notify(title, message string)
}

// Config wires a Controller.
type Config struct {
	Store    *store.Store
	Capture  *capture.Session
	Pipeline *notes.Pipeline
	Topics   *notes.TopicService
	Notifier Notifier

	// RecordingsDir, when set, receives a WAV of each recording run.
	RecordingsDir string
	SampleRate    int

	// OnSummary, when set, is called after a summary is persisted.
	OnSummary func(store.Conversation)
}

// Controller owns all note-taking state. Mutations happen under one
// lock; capture events and async model results are applied in arrival
// order with last-write-wins semantics.
type Controller struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	pumpWG sync.WaitGroup

	mu            sync.Mutex
	conversations []store.Conversation
	activeID      string
	recording     bool
	generating    bool
	suggested     []string
	language      string
}

// New creates a controller, loads persisted state and starts consuming
// capture events. ctx bounds all background model calls.
func New(ctx context.Context, cfg Config) *Controller {
	ctx, cancel := context.WithCancel(ctx)
	c := &Controller{
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		language: "en",
	}
	c.conversations = cfg.Store.Load()
	if lang := cfg.Store.Language(); lang != "" {
		c.language = lang
	}

	c.pumpWG.Add(1)
	go c.pumpCapture()
	c.refreshTopics()
	return c
}

// Close stops event consumption and waits for in-flight work.
func (c *Controller) Close() {
	c.cancel()
	c.cfg.Capture.Stop()
	c.pumpWG.Wait()
	c.wg.Wait()
}

// Wait blocks until background generation and topic refreshes settle.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// NewConversation creates and selects a fresh conversation, newest
// first in the collection.
func (c *Controller) NewConversation() store.Conversation {
	conv := store.Conversation{
		ID:        uuid.NewString(),
		Title:     "",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	c.mu.Lock()
	conv.Title = fmt.Sprintf("Session %d", len(c.conversations)+1)
	c.conversations = append([]store.Conversation{conv}, c.conversations...)
	c.activeID = conv.ID
	c.persistLocked()
	c.mu.Unlock()

	c.refreshTopics()
	return conv
}

// SetActive selects the conversation with the given id, or deselects
// when id is empty. Returns false if no such conversation exists.
func (c *Controller) SetActive(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == "" {
		c.activeID = ""
		return true
	}
	for _, conv := range c.conversations {
		if conv.ID == id {
			c.activeID = id
			return true
		}
	}
	return false
}

// Active returns the selected conversation, if any.
func (c *Controller) Active() (store.Conversation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findLocked(c.activeID)
}

// Conversations returns a copy of the collection, newest first.
func (c *Controller) Conversations() []store.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]store.Conversation, len(c.conversations))
	copy(out, c.conversations)
	return out
}

// SuggestedTopics returns the latest topic suggestions.
func (c *Controller) SuggestedTopics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.suggested))
	copy(out, c.suggested)
	return out
}

// Recording reports whether a capture run is active.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// Generating reports whether note generation is in flight.
func (c *Controller) Generating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generating
}

// Language returns the active display-language code.
func (c *Controller) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// ToggleLanguage switches between "en" and "es" and persists the choice.
func (c *Controller) ToggleLanguage() string {
	c.mu.Lock()
	if c.language == "en" {
		c.language = "es"
	} else {
		c.language = "en"
	}
	lang := c.language
	c.mu.Unlock()

	c.cfg.Store.SetLanguage(lang)
	return lang
}

// StartRecording begins a capture run for the active conversation.
func (c *Controller) StartRecording() error {
	c.mu.Lock()
	if c.activeID == "" {
		c.mu.Unlock()
		return fmt.Errorf("session: no active conversation")
	}
	if c.recording {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.cfg.Capture.Start(); err != nil {
		c.notify("Microphone Access Denied", "Please allow microphone access to use this feature.")
		return err
	}

	c.mu.Lock()
	c.recording = true
	c.mu.Unlock()
	return nil
}

// StopRecording ends the capture run, saves the audio recording and,
// when the transcript is long enough, triggers note generation.
func (c *Controller) StopRecording() {
	c.mu.Lock()
	if !c.recording {
		c.mu.Unlock()
		return
	}
	c.recording = false
	c.mu.Unlock()

	samples := c.cfg.Capture.Stop()
	c.saveRecording(samples)

	conv, ok := c.Active()
	if !ok {
		return
	}
	if len(strings.TrimSpace(conv.Transcript)) > minTranscriptChars {
		c.GenerateNotes()
	}
}

// EditTranscript replaces the active conversation's transcript, e.g.
// after a manual correction between recordings.
func (c *Controller) EditTranscript(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateTranscriptLocked(c.activeID, text)
}

// GenerateNotes runs the summary pipeline for the active conversation
// using the summaries of all other conversations as history. The result
// lands asynchronously and is written back by id, so a stale response
// for a deselected conversation still reaches the right record.
func (c *Controller) GenerateNotes() {
	c.mu.Lock()
	conv, ok := c.findLocked(c.activeID)
	if !ok || conv.Transcript == "" {
		c.mu.Unlock()
		return
	}
	var history []string
	for _, other := range c.conversations {
		if other.ID != conv.ID && other.Summary != "" {
			history = append(history, other.Summary)
		}
	}
	c.generating = true
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		summary, err := c.cfg.Pipeline.Generate(c.ctx, conv.Transcript, history)
		c.applySummary(conv.ID, summary, err)
	}()
}

// ClearAll deletes every conversation and deselects.
func (c *Controller) ClearAll() {
	c.mu.Lock()
	c.conversations = nil
	c.activeID = ""
	c.mu.Unlock()

	c.cfg.Store.Clear()
	c.refreshTopics()
}

// pumpCapture routes capture session events into controller state.
// Each transcript update is persisted before the next event is taken,
// so a crash between events loses nothing.
func (c *Controller) pumpCapture() {
	defer c.pumpWG.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.cfg.Capture.Events():
			c.handleCaptureEvent(ev)
		}
	}
}

func (c *Controller) handleCaptureEvent(ev capture.Event) {
	switch ev.Kind {
	case capture.PartialResult, capture.FinalResult:
		c.mu.Lock()
		c.updateTranscriptLocked(c.activeID, ev.Transcript)
		c.mu.Unlock()
	case capture.ErrorEvent:
		c.mu.Lock()
		c.recording = false
		c.mu.Unlock()
		c.notify("Speech Recognition Error", ev.Err.Error())
	}
}

// applySummary writes a pipeline result back by id lookup. A missing
// target (cleared mid-flight) is a silent no-op; on error the existing
// summary is left untouched.
func (c *Controller) applySummary(convID, summary string, err error) {
	c.mu.Lock()
	c.generating = false
	c.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("conversation", convID).Msg("session: note generation failed")
		c.notify("Error", "Could not generate summary. Please try again.")
		return
	}

	c.mu.Lock()
	idx := -1
	for i := range c.conversations {
		if c.conversations[i].ID == convID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		log.Debug().Str("conversation", convID).Msg("session: summary target no longer exists, discarding")
		return
	}
	c.conversations[idx].Summary = summary
	conv := c.conversations[idx]
	c.persistLocked()
	c.mu.Unlock()

	c.refreshTopics()
	if c.cfg.OnSummary != nil {
		c.cfg.OnSummary(conv)
	}
}

// refreshTopics asynchronously regenerates topic suggestions from the
// current summaries. Responses apply in arrival order.
func (c *Controller) refreshTopics() {
	c.mu.Lock()
	var previous []string
	for _, conv := range c.conversations {
		if conv.Summary != "" {
			previous = append(previous, conv.Summary)
		}
	}
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		topics := c.cfg.Topics.Suggest(c.ctx, previous)
		c.mu.Lock()
		c.suggested = topics
		c.mu.Unlock()
	}()
}

// saveRecording writes the run's audio next to the database. Failures
// degrade silently, the transcript is what matters.
func (c *Controller) saveRecording(samples []float32) {
	if c.cfg.RecordingsDir == "" || len(samples) == 0 {
		return
	}
	c.mu.Lock()
	id := c.activeID
	c.mu.Unlock()
	if id == "" {
		return
	}
	path := filepath.Join(c.cfg.RecordingsDir, id+".wav")
	if err := audio.WriteWAV(path, samples, c.cfg.SampleRate, 1); err != nil {
		log.Warn().Err(err).Msg("session: saving recording failed")
		return
	}
	log.Info().Str("path", path).Msg("session: recording saved")
}

func (c *Controller) updateTranscriptLocked(id, text string) {
	for i := range c.conversations {
		if c.conversations[i].ID == id {
			c.conversations[i].Transcript = text
			c.persistLocked()
			return
		}
	}
}

func (c *Controller) findLocked(id string) (store.Conversation, bool) {
	for _, conv := range c.conversations {
		if conv.ID == id {
			return conv, true
		}
	}
	return store.Conversation{}, false
}

// persistLocked mirrors the in-memory collection into the store.
// Callers hold c.mu.
func (c *Controller) persistLocked() {
	snapshot := make([]store.Conversation, len(c.conversations))
	copy(snapshot, c.conversations)
	c.cfg.Store.Save(snapshot)
}

func (c *Controller) notify(title, message string) {
	if c.cfg.Notifier == nil {
		log.Warn().Str("title", title).Msg(message)
		return
	}
	c.cfg.Notifier.Notify(title, message)
}
