// Package capture orchestrates the voice-to-idea flow as an explicit state
// machine: idle, requesting_permission, recording, processing, review, and
// the two terminal failure states. Terminal states require an explicit Reset;
// nothing auto-clears, so a user always sees what went wrong.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bkyoung/ideaminer/internal/config"
	"github.com/bkyoung/ideaminer/internal/domain"
	"github.com/bkyoung/ideaminer/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidTransition is returned when an operation is not legal in the
	// machine's current state.
	ErrInvalidTransition = errors.New("capture: invalid transition")

	// ErrPermissionDenied is what recorders return when microphone access is
	// refused. The machine maps it to the permission_denied state.
	ErrPermissionDenied = errors.New("capture: microphone permission denied")
)

// User-facing failure reasons. These appear in the Failed state verbatim.
const (
	reasonTooShort     = "recording too short, try again"
	reasonNoSpeech     = "could not understand the audio"
	reasonProcessError = "processing failed, try again"
)

// Recorder abstracts the audio capture device.
type Recorder interface {
	// Start requests access and begins recording. ErrPermissionDenied means
	// the user refused access.
	Start(ctx context.Context) error
	// Stop ends recording and returns the captured audio.
	Stop() ([]byte, error)
	// Cancel ends recording and discards the audio.
	Cancel()
}

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// Drafter turns a transcript into an idea draft.
type Drafter interface {
	FromTranscript(ctx context.Context, transcript string) (domain.GeneratedIdea, error)
}

// Machine is the capture orchestrator. All methods are safe for concurrent
// use; background processing publishes its result only if the flow it belongs
// to is still the live one.
type Machine struct {
	mu    sync.Mutex
	state State
	// generation counts flow restarts. A background result stamped with an
	// older generation is stale and gets dropped.
	generation int

	recorder    Recorder
	transcriber Transcriber
	drafter     Drafter
	ideas       store.Ideas
	logger      *zap.Logger

	maxRecord      time.Duration
	minAudioBytes  int
	processTimeout time.Duration
	newID          func() string
	now            func() time.Time
}

// Option tunes a Machine.
type Option func(*Machine)

// WithMaxRecordDuration overrides the hard recording cap.
func WithMaxRecordDuration(d time.Duration) Option {
	return func(m *Machine) { m.maxRecord = d }
}

// WithMinAudioBytes overrides the minimum audio size worth uploading.
func WithMinAudioBytes(n int) Option {
	return func(m *Machine) { m.minAudioBytes = n }
}

// WithProcessTimeout bounds the background transcribe-and-draft pipeline.
func WithProcessTimeout(d time.Duration) Option {
	return func(m *Machine) { m.processTimeout = d }
}

// WithIDFunc replaces the id generator, for deterministic tests.
func WithIDFunc(fn func() string) Option {
	return func(m *Machine) { m.newID = fn }
}

// NewMachine constructs an idle Machine.
func NewMachine(recorder Recorder, transcriber Transcriber, drafter Drafter, ideas store.Ideas, logger *zap.Logger, opts ...Option) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Machine{
		state:          Idle{},
		recorder:       recorder,
		transcriber:    transcriber,
		drafter:        drafter,
		ideas:          ideas,
		logger:         logger,
		maxRecord:      config.DefaultMaxRecordSeconds * time.Second,
		minAudioBytes:  config.DefaultMinAudioBytes,
		processTimeout: 2 * time.Minute,
		newID:          uuid.NewString,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins a capture flow: idle moves through requesting_permission into
// recording, or into permission_denied if the recorder refuses.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if _, ok := m.state.(Idle); !ok {
		defer m.mu.Unlock()
		return m.transitionError("start")
	}
	m.state = RequestingPermission{}
	generation := m.generation
	m.mu.Unlock()

	err := m.recorder.Start(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != generation {
		// The flow was cancelled while waiting on the device.
		return nil
	}
	switch {
	case errors.Is(err, ErrPermissionDenied):
		m.state = PermissionDenied{Reason: "microphone access denied"}
		m.logger.Warn("capture permission denied")
		return err
	case err != nil:
		m.state = Failed{Reason: reasonProcessError}
		m.logger.Error("recorder start failed", zap.Error(err))
		return err
	}
	m.state = Recording{}
	m.logger.Debug("recording started")
	return nil
}

// Tick advances the recording clock. Reaching the hard cap forces the stop;
// the cap is a ceiling on captured audio, not a suggestion.
func (m *Machine) Tick(delta time.Duration) {
	m.mu.Lock()
	recording, ok := m.state.(Recording)
	if !ok {
		m.mu.Unlock()
		return
	}
	recording.Elapsed += delta
	m.state = recording
	capped := recording.Elapsed >= m.maxRecord
	m.mu.Unlock()

	if capped {
		m.logger.Debug("recording cap reached", zap.Duration("elapsed", recording.Elapsed))
		m.StopRecording()
	}
}

// StopRecording ends the recording and hands the audio to the background
// pipeline. Audio below the minimum size fails immediately, before any
// network traffic.
func (m *Machine) StopRecording() error {
	m.mu.Lock()
	if _, ok := m.state.(Recording); !ok {
		defer m.mu.Unlock()
		return m.transitionError("stop")
	}
	m.state = Processing{}
	generation := m.generation
	m.mu.Unlock()

	audio, err := m.recorder.Stop()

	m.mu.Lock()
	if m.generation != generation {
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.state = Failed{Reason: reasonProcessError}
		m.mu.Unlock()
		m.logger.Error("recorder stop failed", zap.Error(err))
		return err
	}
	if len(audio) < m.minAudioBytes {
		m.state = Failed{Reason: reasonTooShort}
		m.mu.Unlock()
		m.logger.Debug("recording below minimum size", zap.Int("bytes", len(audio)))
		return nil
	}
	m.mu.Unlock()

	go m.process(generation, audio)
	return nil
}

// process runs transcription and drafting off the caller's goroutine and
// publishes the outcome if the flow is still live.
func (m *Machine) process(generation int, audio []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), m.processTimeout)
	defer cancel()

	transcript, err := m.transcriber.Transcribe(ctx, "capture.wav", audio)
	if err != nil {
		m.logger.Error("transcription failed", zap.Error(err))
		m.publishFailure(generation, reasonProcessError)
		return
	}
	if transcript == "" {
		m.publishFailure(generation, reasonNoSpeech)
		return
	}

	draft, err := m.drafter.FromTranscript(ctx, transcript)
	if err != nil {
		m.logger.Error("draft generation failed", zap.Error(err))
		m.publishFailure(generation, reasonProcessError)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != generation {
		m.logger.Debug("dropping stale draft")
		return
	}
	m.state = Review{Draft: draft}
	m.logger.Info("draft ready for review", zap.String("title", draft.Title))
}

func (m *Machine) publishFailure(generation int, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != generation {
		return
	}
	m.state = Failed{Reason: reason}
}

// Cancel abandons an in-flight flow and returns to idle. Anything the
// background pipeline later produces for the abandoned flow is dropped.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state.(type) {
	case RequestingPermission, Recording, Processing:
		m.recorder.Cancel()
		m.generation++
		m.state = Idle{}
		m.logger.Debug("capture cancelled")
	}
}

// Accept persists the reviewed draft as an idea and returns its id.
func (m *Machine) Accept(ctx context.Context) (string, error) {
	m.mu.Lock()
	review, ok := m.state.(Review)
	if !ok {
		defer m.mu.Unlock()
		return "", m.transitionError("accept")
	}
	generation := m.generation
	m.mu.Unlock()

	idea := store.Idea{
		ID:          m.newID(),
		Title:       review.Draft.Title,
		Description: review.Draft.Description,
		Source:      "voice",
		CreatedAt:   m.now().UTC(),
	}
	if err := m.ideas.CreateIdea(ctx, idea); err != nil {
		return "", fmt.Errorf("persist idea: %w", err)
	}

	m.mu.Lock()
	if m.generation == generation {
		m.generation++
		m.state = Idle{}
	}
	m.mu.Unlock()

	m.logger.Info("draft accepted", zap.String("idea_id", idea.ID))
	return idea.ID, nil
}

// Discard drops the reviewed draft and returns to idle.
func (m *Machine) Discard() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.(Review); !ok {
		return m.transitionError("discard")
	}
	m.generation++
	m.state = Idle{}
	return nil
}

// Reset clears a terminal failure state. It is the only way out of
// permission_denied and error. Resetting mid-flight behaves like Cancel.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state.(type) {
	case RequestingPermission, Recording, Processing:
		m.recorder.Cancel()
	}
	m.generation++
	m.state = Idle{}
}

// transitionError is called with m.mu held.
func (m *Machine) transitionError(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, m.state.Name())
}
