package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/voiceflow/voiceflow/internal/clock"
	"github.com/voiceflow/voiceflow/internal/fsm"
	"github.com/voiceflow/voiceflow/internal/segment"
	"github.com/voiceflow/voiceflow/internal/source"
	"github.com/voiceflow/voiceflow/internal/transcript"
)

var epoch = time.Date(2026, time.March, 14, 23, 59, 55, 0, time.UTC)

type fakeObserver struct {
	started    atomic.Int32
	stopped    atomic.Int32
	attached   atomic.Int32
	processing atomic.Int32
	added      atomic.Int32
	ticks      atomic.Int32
	completed  atomic.Int32
	failed     atomic.Int32
	exported   atomic.Int32
}

func (f *fakeObserver) RecordingStarted(Snapshot)      { f.started.Add(1) }
func (f *fakeObserver) RecordingStopped(Snapshot)      { f.stopped.Add(1) }
func (f *fakeObserver) UploadAttached(source.FileMeta) { f.attached.Add(1) }
func (f *fakeObserver) ProcessingStarted(Snapshot)     { f.processing.Add(1) }
func (f *fakeObserver) SegmentAdded(segment.Segment)   { f.added.Add(1) }
func (f *fakeObserver) Tick(int)                       { f.ticks.Add(1) }
func (f *fakeObserver) Completed(Snapshot)             { f.completed.Add(1) }
func (f *fakeObserver) Failed(Snapshot, error)         { f.failed.Add(1) }
func (f *fakeObserver) Exported(transcript.Artifact)   { f.exported.Add(1) }

// captureSource hands its sink to the test instead of emitting anything.
type captureSource struct {
	mu    sync.Mutex
	sinks []source.Sink
}

func (c *captureSource) Start(_ context.Context, _ source.Request, sink source.Sink) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, sink)
	return nil
}

func (c *captureSource) sink(i int) source.Sink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sinks[i]
}

func newTestController(t *testing.T, opts Options) (*Controller, *clock.Manual, *fakeObserver) {
	t.Helper()
	sched := clock.NewManual(epoch)
	obs := &fakeObserver{}
	opts.Scheduler = sched
	opts.Observer = obs
	if opts.Live == nil {
		opts.Live = source.NewLive(sched, source.DemoScript())
	}
	if opts.Batch == nil {
		opts.Batch = source.NewBatch(sched, source.DemoScript(), source.BatchOptions{ProcessingDelay: 3 * time.Second})
	}
	ctrl := NewController(opts)
	t.Cleanup(ctrl.Shutdown)
	return ctrl, sched, obs
}

func texts(segments []segment.Segment) []string {
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		out = append(out, seg.Text)
	}
	return out
}

func TestLiveRecordingAccumulatesInArrivalOrder(t *testing.T) {
	ctrl, sched, obs := newTestController(t, Options{})
	demo := source.DemoScript().Segments()

	require.NoError(t, ctrl.StartRecording(context.Background()))
	require.Equal(t, fsm.StateRecording, ctrl.State())

	sched.Advance(3 * time.Second)
	require.Equal(t, []string{demo[0].Text}, texts(ctrl.Segments()))
	require.Equal(t, 3, ctrl.Elapsed())

	sched.Advance(7 * time.Second)
	require.NoError(t, ctrl.StopRecording(context.Background()))

	snap := ctrl.Snapshot()
	require.Equal(t, fsm.StateIdle, snap.State)
	require.Equal(t, 10, snap.Elapsed)
	require.Equal(t, texts(demo), texts(snap.Segments))
	for _, seg := range snap.Segments {
		require.NotEmpty(t, seg.ID)
	}
	require.Equal(t, int32(1), obs.started.Load())
	require.Equal(t, int32(1), obs.stopped.Load())
	require.Equal(t, int32(3), obs.added.Load())
	require.Equal(t, int32(10), obs.ticks.Load())
}

func TestElapsedFrozenAfterStop(t *testing.T) {
	ctrl, sched, _ := newTestController(t, Options{})

	require.NoError(t, ctrl.StartRecording(context.Background()))
	sched.Advance(2500 * time.Millisecond)
	require.NoError(t, ctrl.StopRecording(context.Background()))
	require.Equal(t, 2, ctrl.Elapsed())

	sched.Advance(time.Minute)
	require.Equal(t, 2, ctrl.Elapsed())
	require.Len(t, ctrl.Segments(), 0)
}

func TestRestartDropsPreviousGeneration(t *testing.T) {
	ctrl, sched, _ := newTestController(t, Options{})
	demo := source.DemoScript().Segments()

	require.NoError(t, ctrl.StartRecording(context.Background()))
	sched.Advance(4 * time.Second)
	require.Len(t, ctrl.Segments(), 1)

	require.NoError(t, ctrl.StopRecording(context.Background()))
	require.NoError(t, ctrl.StartRecording(context.Background()))
	require.Empty(t, ctrl.Segments())
	require.Equal(t, 0, ctrl.Elapsed())

	// Old cues for 6s and 9s fall inside this window; only the new A arrives.
	sched.Advance(4 * time.Second)
	snap := ctrl.Snapshot()
	require.Equal(t, uint64(2), snap.Generation)
	require.Equal(t, []string{demo[0].Text}, texts(snap.Segments))
	require.Equal(t, 4, snap.Elapsed)
}

func TestStartWhileRecordingRejected(t *testing.T) {
	ctrl, sched, _ := newTestController(t, Options{})

	require.NoError(t, ctrl.StartRecording(context.Background()))
	sched.Advance(4 * time.Second)

	err := ctrl.StartRecording(context.Background())
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.True(t, IsInvalidTransition(err))
	require.Equal(t, fsm.StateRecording, ctrl.State())
	require.Len(t, ctrl.Segments(), 1)
	require.Equal(t, 4, ctrl.Elapsed())
}

func TestStopFromIdleRejected(t *testing.T) {
	ctrl, _, obs := newTestController(t, Options{})

	err := ctrl.StopRecording(context.Background())
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, fsm.StateIdle, ctrl.State())
	require.Zero(t, obs.stopped.Load())
}

func TestStaleDeliveriesAreCounted(t *testing.T) {
	live := &captureSource{}
	ctrl, _, obs := newTestController(t, Options{Live: live})

	require.NoError(t, ctrl.StartRecording(context.Background()))
	first := live.sink(0)
	first.Deliver(segment.Segment{Text: "hello", Timestamp: "00:00:01", Emotion: segment.EmotionNeutral, Confidence: 90})
	require.NoError(t, ctrl.StopRecording(context.Background()))

	first.Deliver(segment.Segment{Text: "late", Timestamp: "00:00:02", Emotion: segment.EmotionNeutral, Confidence: 90})
	first.Finish(nil)

	snap := ctrl.Snapshot()
	require.Equal(t, fsm.StateIdle, snap.State)
	require.Equal(t, []string{"hello"}, texts(snap.Segments))
	require.Equal(t, 2, snap.StaleDrops)
	require.Zero(t, obs.completed.Load())

	require.NoError(t, ctrl.StartRecording(context.Background()))
	first.Deliver(segment.Segment{Text: "older", Timestamp: "00:00:03", Emotion: segment.EmotionNeutral, Confidence: 90})
	require.Empty(t, ctrl.Segments())
	require.Equal(t, 3, ctrl.Snapshot().StaleDrops)
}

func TestIngestNormalizesText(t *testing.T) {
	live := &captureSource{}
	ctrl, _, _ := newTestController(t, Options{Live: live})

	require.NoError(t, ctrl.StartRecording(context.Background()))
	live.sink(0).Deliver(segment.Segment{Text: "  spaced \n out  ", Timestamp: "00:00:01", Emotion: segment.EmotionPositive, Confidence: 70})

	require.Equal(t, []string{"spaced out"}, texts(ctrl.Segments()))
}

func TestTimestampRegressionKeepsArrivalOrder(t *testing.T) {
	live := &captureSource{}
	ctrl, _, _ := newTestController(t, Options{Live: live})

	require.NoError(t, ctrl.StartRecording(context.Background()))
	sink := live.sink(0)
	sink.Deliver(segment.Segment{Text: "second", Timestamp: "00:00:20", Emotion: segment.EmotionNeutral, Confidence: 80})
	sink.Deliver(segment.Segment{Text: "first", Timestamp: "00:00:10", Emotion: segment.EmotionNeutral, Confidence: 80})

	require.Equal(t, []string{"second", "first"}, texts(ctrl.Segments()))
	require.Equal(t, fsm.StateRecording, ctrl.State())
}

func TestInvalidSegmentFailsSession(t *testing.T) {
	live := &captureSource{}
	ctrl, sched, obs := newTestController(t, Options{Live: live})

	require.NoError(t, ctrl.StartRecording(context.Background()))
	sink := live.sink(0)
	sink.Deliver(segment.Segment{Text: "kept", Timestamp: "00:00:01", Emotion: segment.EmotionNeutral, Confidence: 80})
	sched.Advance(2 * time.Second)
	sink.Deliver(segment.Segment{Text: "bad", Timestamp: "00:00:02", Emotion: "ecstatic", Confidence: 80})

	snap := ctrl.Snapshot()
	require.Equal(t, fsm.StateFailed, snap.State)
	require.Equal(t, []string{"kept"}, texts(snap.Segments))
	require.ErrorIs(t, snap.Err, segment.ErrInvalidSegment)

	var ingestionErr *IngestionError
	require.ErrorAs(t, snap.Err, &ingestionErr)
	require.Equal(t, uint64(1), ingestionErr.Generation)
	require.Equal(t, int32(1), obs.failed.Load())

	sched.Advance(5 * time.Second)
	require.Equal(t, 2, ctrl.Elapsed())
}

func TestLiveSourceStartErrorFailsSession(t *testing.T) {
	boom := errors.New("microphone unavailable")
	live := source.Func(func(context.Context, source.Request, source.Sink) error { return boom })
	ctrl, _, _ := newTestController(t, Options{Live: live})

	require.NoError(t, ctrl.StartRecording(context.Background()))
	snap := ctrl.Snapshot()
	require.Equal(t, fsm.StateFailed, snap.State)
	require.ErrorIs(t, snap.Err, boom)
	require.False(t, snap.State.Active())

	require.NoError(t, ctrl.StartRecording(context.Background()))
	require.Equal(t, fsm.StateFailed, ctrl.State())
	require.Equal(t, uint64(2), ctrl.Snapshot().Generation)
}

func TestEndOfStreamCompletesLiveSession(t *testing.T) {
	sched := clock.NewManual(epoch)
	script := source.Script{
		EndOfStream: true,
		Cues: []source.Cue{
			{After: time.Second, Segment: segment.Segment{Text: "only", Timestamp: "00:00:01", Emotion: segment.EmotionNeutral, Confidence: 50}},
		},
	}
	obs := &fakeObserver{}
	ctrl := NewController(Options{Scheduler: sched, Observer: obs, Live: source.NewLive(sched, script)})
	t.Cleanup(ctrl.Shutdown)

	require.NoError(t, ctrl.StartRecording(context.Background()))
	sched.Advance(5 * time.Second)

	snap := ctrl.Snapshot()
	require.Equal(t, fsm.StateCompleted, snap.State)
	require.Equal(t, []string{"only"}, texts(snap.Segments))
	require.Equal(t, 1, snap.Elapsed)
	require.Equal(t, int32(1), obs.completed.Load())

	err := ctrl.StopRecording(context.Background())
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTranscribeWithoutUpload(t *testing.T) {
	ctrl, _, _ := newTestController(t, Options{})

	err := ctrl.TranscribeUpload(context.Background())
	require.ErrorIs(t, err, ErrNoUpload)
	require.Equal(t, fsm.StateIdle, ctrl.State())
}

func TestAttachUploadValidation(t *testing.T) {
	ctrl, _, obs := newTestController(t, Options{})

	require.ErrorIs(t, ctrl.AttachUpload(source.FileMeta{Name: "  "}), ErrInvalidUpload)
	require.ErrorIs(t, ctrl.AttachUpload(source.FileMeta{Name: "a.mp3", Size: -1}), ErrInvalidUpload)

	require.NoError(t, ctrl.AttachUpload(source.FileMeta{Name: " meeting.mp3 ", Size: 1024}))
	snap := ctrl.Snapshot()
	require.Equal(t, &source.FileMeta{Name: "meeting.mp3", Size: 1024}, snap.Upload)
	require.Equal(t, fsm.StateIdle, snap.State)
	require.Equal(t, int32(1), obs.attached.Load())

	require.NoError(t, ctrl.StartRecording(context.Background()))
	require.ErrorIs(t, ctrl.AttachUpload(source.FileMeta{Name: "other.wav", Size: 1}), ErrInvalidTransition)
}

func TestUploadSuccessReplacesTranscript(t *testing.T) {
	ctrl, sched, obs := newTestController(t, Options{})
	demo := source.DemoScript().Segments()

	require.NoError(t, ctrl.StartRecording(context.Background()))
	sched.Advance(3 * time.Second)
	require.NoError(t, ctrl.StopRecording(context.Background()))
	require.Len(t, ctrl.Segments(), 1)

	require.NoError(t, ctrl.AttachUpload(source.FileMeta{Name: "meeting.mp3", Size: 4 << 20}))
	require.NoError(t, ctrl.TranscribeUpload(context.Background()))
	require.Equal(t, fsm.StateProcessing, ctrl.State())
	require.Empty(t, ctrl.Segments())
	require.Equal(t, 0, ctrl.Elapsed())

	sched.Advance(2 * time.Second)
	require.Empty(t, ctrl.Segments())

	sched.Advance(time.Second)
	snap := ctrl.Snapshot()
	require.Equal(t, fsm.StateCompleted, snap.State)
	require.Equal(t, source.ModeUpload, snap.Mode)
	require.Equal(t, texts(demo), texts(snap.Segments))
	require.Equal(t, 0, snap.Elapsed)
	require.Equal(t, int32(1), obs.processing.Load())
	require.Equal(t, int32(1), obs.completed.Load())
	// Batch segments are not announced one by one.
	require.Equal(t, int32(1), obs.added.Load())
}

func TestUploadFailureLeavesTranscriptEmpty(t *testing.T) {
	boom := errors.New("transcription service unavailable")
	var sched *clock.Manual
	batch := source.Func(func(ctx context.Context, _ source.Request, sink source.Sink) error {
		sched.AfterFunc(3*time.Second, func() {
			if ctx.Err() != nil {
				return
			}
			sink.Deliver(segment.Segment{Text: "partial", Timestamp: "00:00:01", Emotion: segment.EmotionNeutral, Confidence: 60})
			sink.Finish(boom)
		})
		return nil
	})
	ctrl, manual, obs := newTestController(t, Options{Batch: batch})
	sched = manual

	require.NoError(t, ctrl.AttachUpload(source.FileMeta{Name: "meeting.mp3", Size: 50 << 20}))
	require.NoError(t, ctrl.TranscribeUpload(context.Background()))
	sched.Advance(3 * time.Second)

	snap := ctrl.Snapshot()
	require.Equal(t, fsm.StateFailed, snap.State)
	require.Empty(t, snap.Segments)
	require.ErrorIs(t, snap.Err, boom)
	require.Equal(t, int32(1), obs.failed.Load())

	_, err := ctrl.ExportCurrentTranscript()
	require.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestUploadTooLargeFails(t *testing.T) {
	ctrl, sched, _ := newTestController(t, Options{})
	ctrl.batch = source.NewBatch(sched, source.DemoScript(), source.BatchOptions{
		ProcessingDelay: 3 * time.Second,
		MaxBytes:        10 << 20,
	})

	require.NoError(t, ctrl.AttachUpload(source.FileMeta{Name: "meeting.mp3", Size: 50 << 20}))
	require.NoError(t, ctrl.TranscribeUpload(context.Background()))
	sched.Advance(3 * time.Second)

	snap := ctrl.Snapshot()
	require.Equal(t, fsm.StateFailed, snap.State)
	require.ErrorIs(t, snap.Err, source.ErrUploadTooLarge)
	require.Empty(t, snap.Segments)
}

func TestStartRecordingRejectedWhileProcessing(t *testing.T) {
	ctrl, sched, _ := newTestController(t, Options{})

	require.NoError(t, ctrl.AttachUpload(source.FileMeta{Name: "meeting.mp3", Size: 1024}))
	require.NoError(t, ctrl.TranscribeUpload(context.Background()))
	require.ErrorIs(t, ctrl.StartRecording(context.Background()), ErrInvalidTransition)

	sched.Advance(3 * time.Second)
	require.Equal(t, fsm.StateCompleted, ctrl.State())

	require.NoError(t, ctrl.StartRecording(context.Background()))
	require.Empty(t, ctrl.Segments())
	require.Equal(t, source.ModeLive, ctrl.Snapshot().Mode)
}

func TestExportCurrentTranscript(t *testing.T) {
	ctrl, sched, obs := newTestController(t, Options{})

	_, err := ctrl.ExportCurrentTranscript()
	require.ErrorIs(t, err, ErrEmptyTranscript)

	require.NoError(t, ctrl.StartRecording(context.Background()))
	sched.Advance(10 * time.Second)
	require.NoError(t, ctrl.StopRecording(context.Background()))

	artifact, err := ctrl.ExportCurrentTranscript()
	require.NoError(t, err)
	require.Equal(t, "transcription-2026-03-15.txt", artifact.Name)
	require.Equal(t, 2, strings.Count(artifact.Body, "\n\n"))
	require.True(t, strings.HasPrefix(artifact.Body, "[00:00:15] Good morning everyone"))
	require.Equal(t, int32(1), obs.exported.Load())

	again, err := ctrl.ExportCurrentTranscript()
	require.NoError(t, err)
	require.Equal(t, artifact.Body, again.Body)
	require.Len(t, ctrl.Segments(), 3)
}

func TestSegmentsReturnsCopy(t *testing.T) {
	ctrl, sched, _ := newTestController(t, Options{})

	require.NoError(t, ctrl.StartRecording(context.Background()))
	sched.Advance(3 * time.Second)

	segments := ctrl.Segments()
	segments[0].Text = "mutated"
	segments[0].Keywords[0] = "mutated"

	fresh := ctrl.Segments()
	require.NotEqual(t, "mutated", fresh[0].Text)
	require.NotEqual(t, "mutated", fresh[0].Keywords[0])
}
