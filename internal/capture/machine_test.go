package capture_test

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bkyoung/ideaminer/internal/capture"
	"github.com/bkyoung/ideaminer/internal/domain"
	"github.com/bkyoung/ideaminer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	startErr  error
	audio     []byte
	stopErr   error
	cancelled atomic.Int32
}

func (r *fakeRecorder) Start(context.Context) error { return r.startErr }
func (r *fakeRecorder) Stop() ([]byte, error)       { return r.audio, r.stopErr }
func (r *fakeRecorder) Cancel()                     { r.cancelled.Add(1) }

type fakeTranscriber struct {
	transcript string
	err        error
	calls      atomic.Int32
	block      chan struct{}
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, _ string, _ []byte) (string, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.transcript, f.err
}

type fakeDrafter struct {
	draft domain.GeneratedIdea
	err   error
	calls atomic.Int32
}

func (f *fakeDrafter) FromTranscript(context.Context, string) (domain.GeneratedIdea, error) {
	f.calls.Add(1)
	return f.draft, f.err
}

type fakeIdeas struct {
	created []store.Idea
}

func (f *fakeIdeas) CreateIdea(_ context.Context, idea store.Idea) error {
	f.created = append(f.created, idea)
	return nil
}

func (f *fakeIdeas) GetIdea(context.Context, string) (store.Idea, error) {
	return store.Idea{}, store.ErrNotFound
}

func (f *fakeIdeas) SaveEvaluation(context.Context, string, domain.EvaluationResult) error {
	return nil
}

func bigAudio() []byte { return bytes.Repeat([]byte{1}, 4096) }

func newMachine(recorder *fakeRecorder, transcriber *fakeTranscriber, drafter *fakeDrafter, ideas *fakeIdeas, opts ...capture.Option) *capture.Machine {
	base := []capture.Option{
		capture.WithMinAudioBytes(1024),
		capture.WithIDFunc(func() string { return "idea-1" }),
	}
	return capture.NewMachine(recorder, transcriber, drafter, ideas, nil, append(base, opts...)...)
}

func waitForState[T capture.State](t *testing.T, m *capture.Machine) T {
	t.Helper()
	var got T
	require.Eventually(t, func() bool {
		state, ok := m.State().(T)
		if ok {
			got = state
		}
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestFullFlow_RecordReviewAccept(t *testing.T) {
	recorder := &fakeRecorder{audio: bigAudio()}
	transcriber := &fakeTranscriber{transcript: "automate the weekly report"}
	drafter := &fakeDrafter{draft: domain.GeneratedIdea{Title: "Automate report", Description: "d"}}
	ideas := &fakeIdeas{}
	m := newMachine(recorder, transcriber, drafter, ideas)

	require.NoError(t, m.Start(context.Background()))
	assert.IsType(t, capture.Recording{}, m.State())

	m.Tick(5 * time.Second)
	require.NoError(t, m.StopRecording())

	review := waitForState[capture.Review](t, m)
	assert.Equal(t, "Automate report", review.Draft.Title)

	id, err := m.Accept(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "idea-1", id)
	require.Len(t, ideas.created, 1)
	assert.Equal(t, "voice", ideas.created[0].Source)
	assert.IsType(t, capture.Idle{}, m.State())
}

func TestStart_PermissionDenied(t *testing.T) {
	recorder := &fakeRecorder{startErr: capture.ErrPermissionDenied}
	m := newMachine(recorder, &fakeTranscriber{}, &fakeDrafter{}, &fakeIdeas{})

	err := m.Start(context.Background())

	assert.ErrorIs(t, err, capture.ErrPermissionDenied)
	assert.IsType(t, capture.PermissionDenied{}, m.State())

	// Only Reset clears the terminal state.
	assert.Error(t, m.StopRecording())
	m.Reset()
	assert.IsType(t, capture.Idle{}, m.State())
}

func TestTick_HardCapForcesStop(t *testing.T) {
	recorder := &fakeRecorder{audio: bigAudio()}
	transcriber := &fakeTranscriber{transcript: "spoken note about automation"}
	drafter := &fakeDrafter{draft: domain.GeneratedIdea{Title: "t", Description: "d"}}
	m := newMachine(recorder, transcriber, drafter, &fakeIdeas{},
		capture.WithMaxRecordDuration(60*time.Second))

	require.NoError(t, m.Start(context.Background()))
	m.Tick(59 * time.Second)
	assert.IsType(t, capture.Recording{}, m.State())

	m.Tick(time.Second)

	waitForState[capture.Review](t, m)
}

func TestStop_TooShortAudioSkipsNetwork(t *testing.T) {
	recorder := &fakeRecorder{audio: []byte{1, 2, 3}}
	transcriber := &fakeTranscriber{}
	drafter := &fakeDrafter{}
	m := newMachine(recorder, transcriber, drafter, &fakeIdeas{})

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.StopRecording())

	failed, ok := m.State().(capture.Failed)
	require.True(t, ok)
	assert.Contains(t, failed.Reason, "too short")
	assert.Zero(t, transcriber.calls.Load())
	assert.Zero(t, drafter.calls.Load())
}

func TestCancel_DuringRecordingMakesNoNetworkCalls(t *testing.T) {
	recorder := &fakeRecorder{audio: bigAudio()}
	transcriber := &fakeTranscriber{}
	m := newMachine(recorder, transcriber, &fakeDrafter{}, &fakeIdeas{})

	require.NoError(t, m.Start(context.Background()))
	m.Cancel()

	assert.IsType(t, capture.Idle{}, m.State())
	assert.Equal(t, int32(1), recorder.cancelled.Load())
	assert.Zero(t, transcriber.calls.Load())
}

func TestProcess_EmptyTranscriptFails(t *testing.T) {
	recorder := &fakeRecorder{audio: bigAudio()}
	transcriber := &fakeTranscriber{transcript: ""}
	drafter := &fakeDrafter{}
	m := newMachine(recorder, transcriber, drafter, &fakeIdeas{})

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.StopRecording())

	failed := waitForState[capture.Failed](t, m)
	assert.Contains(t, failed.Reason, "understand")
	assert.Zero(t, drafter.calls.Load())
}

func TestProcess_TranscriptionErrorFails(t *testing.T) {
	recorder := &fakeRecorder{audio: bigAudio()}
	transcriber := &fakeTranscriber{err: errors.New("upstream down")}
	m := newMachine(recorder, transcriber, &fakeDrafter{}, &fakeIdeas{})

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.StopRecording())

	waitForState[capture.Failed](t, m)
}

func TestReset_DuringProcessingDropsStaleResult(t *testing.T) {
	release := make(chan struct{})
	recorder := &fakeRecorder{audio: bigAudio()}
	transcriber := &fakeTranscriber{transcript: "a note", block: release}
	drafter := &fakeDrafter{draft: domain.GeneratedIdea{Title: "t", Description: "d"}}
	m := newMachine(recorder, transcriber, drafter, &fakeIdeas{})

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.StopRecording())
	assert.IsType(t, capture.Processing{}, m.State())

	m.Reset()
	assert.IsType(t, capture.Idle{}, m.State())

	close(release)

	// The stale pipeline result never surfaces; the machine stays idle.
	assert.Never(t, func() bool {
		_, ok := m.State().(capture.Review)
		return ok
	}, 200*time.Millisecond, 10*time.Millisecond)
}

func TestDiscard_DropsDraft(t *testing.T) {
	recorder := &fakeRecorder{audio: bigAudio()}
	transcriber := &fakeTranscriber{transcript: "a spoken note"}
	drafter := &fakeDrafter{draft: domain.GeneratedIdea{Title: "t", Description: "d"}}
	ideas := &fakeIdeas{}
	m := newMachine(recorder, transcriber, drafter, ideas)

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.StopRecording())
	waitForState[capture.Review](t, m)

	require.NoError(t, m.Discard())

	assert.IsType(t, capture.Idle{}, m.State())
	assert.Empty(t, ideas.created)
}

func TestInvalidTransitions(t *testing.T) {
	m := newMachine(&fakeRecorder{}, &fakeTranscriber{}, &fakeDrafter{}, &fakeIdeas{})

	assert.ErrorIs(t, m.StopRecording(), capture.ErrInvalidTransition)
	assert.ErrorIs(t, m.Discard(), capture.ErrInvalidTransition)
	_, err := m.Accept(context.Background())
	assert.ErrorIs(t, err, capture.ErrInvalidTransition)
}
