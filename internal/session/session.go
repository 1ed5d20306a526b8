// Package session owns the transcription session lifecycle: state, elapsed
// time, and the ordered transcript fed by a segment source.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voiceflow/voiceflow/internal/clock"
	"github.com/voiceflow/voiceflow/internal/fsm"
	"github.com/voiceflow/voiceflow/internal/segment"
	"github.com/voiceflow/voiceflow/internal/source"
	"github.com/voiceflow/voiceflow/internal/timer"
	"github.com/voiceflow/voiceflow/internal/transcript"
)

// Snapshot is a read-only copy of the current session.
type Snapshot struct {
	State      fsm.State
	Mode       source.Mode
	Elapsed    int
	Segments   []segment.Segment
	Upload     *source.FileMeta
	Generation uint64
	Err        error
	StaleDrops int
}

// Options wires a controller's collaborators.
type Options struct {
	Scheduler    clock.Scheduler
	TickInterval time.Duration
	Live         source.Source
	Batch        source.Source
	NameTemplate string
	Observer     Observer
	Logger       *zap.Logger
}

// Controller is the single owner of the active session.
type Controller struct {
	logger       *zap.Logger
	sched        clock.Scheduler
	live         source.Source
	batch        source.Source
	observer     Observer
	nameTemplate string
	timer        *timer.Timer

	mu         sync.RWMutex
	state      fsm.State
	mode       source.Mode
	generation uint64
	segments   []segment.Segment
	staged     []segment.Segment
	upload     *source.FileMeta
	lastErr    error
	lastTS     int
	staleDrops int
	cancel     context.CancelFunc
}

// NewController constructs a controller with safe default fallbacks.
func NewController(opts Options) *Controller {
	if opts.Scheduler == nil {
		opts.Scheduler = clock.Real{}
	}
	if opts.Live == nil {
		opts.Live = source.NewLive(opts.Scheduler, source.DemoScript())
	}
	if opts.Batch == nil {
		opts.Batch = source.NewBatch(opts.Scheduler, source.DemoScript(), source.BatchOptions{ProcessingDelay: 3 * time.Second})
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	c := &Controller{
		logger:       opts.Logger,
		sched:        opts.Scheduler,
		live:         opts.Live,
		batch:        opts.Batch,
		observer:     opts.Observer,
		nameTemplate: opts.NameTemplate,
		state:        fsm.StateIdle,
		mode:         source.ModeLive,
	}
	c.timer = timer.New(opts.Scheduler, opts.TickInterval, c.onTick)
	return c
}

func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) Elapsed() int {
	return c.timer.Elapsed()
}

// Segments returns a copy of the transcript in arrival order.
func (c *Controller) Segments() []segment.Segment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return segment.CloneAll(c.segments)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:      c.state,
		Mode:       c.mode,
		Elapsed:    c.timer.Elapsed(),
		Segments:   segment.CloneAll(c.segments),
		Generation: c.generation,
		Err:        c.lastErr,
		StaleDrops: c.staleDrops,
	}
	if c.upload != nil {
		upload := *c.upload
		snap.Upload = &upload
	}
	return snap
}

// StartRecording discards any previous transcript and begins a live session.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	next, err := fsm.Transition(c.state, fsm.EventRecord)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("start recording: %w", err)
	}
	gen, sessionCtx := c.beginLocked(ctx, source.ModeLive)
	c.state = next
	c.timer.Start()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("recording started", zap.Uint64("generation", gen))
	c.observer.RecordingStarted(snap)

	req := source.Request{Mode: source.ModeLive, Generation: gen}
	if err := c.live.Start(sessionCtx, req, &generationSink{c: c, gen: gen}); err != nil {
		c.finish(gen, fmt.Errorf("start live source: %w", err))
	}
	return nil
}

// StopRecording freezes elapsed time and drops every pending delivery.
// Segments already received stay in the transcript.
func (c *Controller) StopRecording(_ context.Context) error {
	c.mu.Lock()
	next, err := fsm.Transition(c.state, fsm.EventStop)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("stop recording: %w", err)
	}
	c.timer.Stop()
	c.cancelLocked()
	c.state = next
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("recording stopped",
		zap.Uint64("generation", snap.Generation),
		zap.Int("elapsed", snap.Elapsed),
		zap.Int("segments", len(snap.Segments)),
	)
	c.observer.RecordingStopped(snap)
	return nil
}

// AttachUpload records upload metadata without starting processing.
func (c *Controller) AttachUpload(meta source.FileMeta) error {
	meta.Name = strings.TrimSpace(meta.Name)
	if meta.Name == "" {
		return fmt.Errorf("%w: file name is empty", ErrInvalidUpload)
	}
	if meta.Size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalidUpload, meta.Size)
	}

	c.mu.Lock()
	if c.state.Active() {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("attach upload: %w: session is %s", ErrInvalidTransition, state)
	}
	c.upload = &meta
	c.mu.Unlock()

	c.logger.Info("upload attached", zap.String("name", meta.Name), zap.Int64("size", meta.Size))
	c.observer.UploadAttached(meta)
	return nil
}

// TranscribeUpload starts batch processing of the attached upload.
func (c *Controller) TranscribeUpload(ctx context.Context) error {
	c.mu.Lock()
	if c.upload == nil {
		c.mu.Unlock()
		return fmt.Errorf("transcribe upload: %w", ErrNoUpload)
	}
	next, err := fsm.Transition(c.state, fsm.EventTranscribe)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("transcribe upload: %w", err)
	}
	gen, sessionCtx := c.beginLocked(ctx, source.ModeUpload)
	c.state = next
	c.timer.Reset()
	file := *c.upload
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("upload processing started",
		zap.Uint64("generation", gen),
		zap.String("name", file.Name),
		zap.Int64("size", file.Size),
	)
	c.observer.ProcessingStarted(snap)

	req := source.Request{Mode: source.ModeUpload, File: file, Generation: gen}
	if err := c.batch.Start(sessionCtx, req, &generationSink{c: c, gen: gen}); err != nil {
		c.finish(gen, fmt.Errorf("start batch source: %w", err))
	}
	return nil
}

// ExportCurrentTranscript renders the current transcript as an artifact.
func (c *Controller) ExportCurrentTranscript() (transcript.Artifact, error) {
	segments := c.Segments()
	if len(segments) == 0 {
		return transcript.Artifact{}, ErrEmptyTranscript
	}

	artifact, err := transcript.Build(segments, c.nameTemplate, c.sched.Now())
	if err != nil {
		return transcript.Artifact{}, err
	}
	c.logger.Info("transcript exported", zap.String("name", artifact.Name), zap.Int("segments", len(segments)))
	c.observer.Exported(artifact)
	return artifact, nil
}

// Shutdown cancels any active session without changing its transcript.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timer.Stop()
	c.cancelLocked()
}

// beginLocked replaces the current session with a fresh generation.
func (c *Controller) beginLocked(ctx context.Context, mode source.Mode) (uint64, context.Context) {
	c.cancelLocked()
	c.generation++
	c.mode = mode
	c.segments = nil
	c.staged = nil
	c.lastErr = nil
	c.lastTS = 0

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	return c.generation, sessionCtx
}

func (c *Controller) cancelLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// staleLocked reports whether a callback for gen must be discarded.
func (c *Controller) staleLocked(gen uint64) bool {
	if gen == c.generation && c.state.Active() {
		return false
	}
	c.staleDrops++
	return true
}

// ingest appends one delivered segment if gen is still the active session.
func (c *Controller) ingest(gen uint64, seg segment.Segment) {
	c.mu.Lock()
	if c.staleLocked(gen) {
		current := c.generation
		c.mu.Unlock()
		c.logger.Debug("stale segment dropped", zap.Uint64("generation", gen), zap.Uint64("current", current))
		return
	}

	seg = seg.Clone()
	seg.Text = segment.NormalizeText(seg.Text)
	if err := seg.Validate(); err != nil {
		c.mu.Unlock()
		c.finish(gen, err)
		return
	}
	if ts, _ := segment.ParseTimestamp(seg.Timestamp); ts < c.lastTS {
		c.logger.Warn("segment timestamp regressed; keeping arrival order",
			zap.Uint64("generation", gen),
			zap.String("timestamp", seg.Timestamp),
		)
	} else {
		c.lastTS = ts
	}
	seg.ID = uuid.NewString()

	live := c.mode == source.ModeLive
	if live {
		c.segments = append(c.segments, seg)
	} else {
		c.staged = append(c.staged, seg)
	}
	c.mu.Unlock()

	c.logger.Debug("segment ingested",
		zap.Uint64("generation", gen),
		zap.String("id", seg.ID),
		zap.String("timestamp", seg.Timestamp),
	)
	if live {
		c.observer.SegmentAdded(seg.Clone())
	}
}

// finish ends the session for gen with success or an ingestion failure.
func (c *Controller) finish(gen uint64, cause error) {
	c.mu.Lock()
	if c.staleLocked(gen) {
		c.mu.Unlock()
		c.logger.Debug("stale finish dropped", zap.Uint64("generation", gen))
		return
	}

	event := fsm.EventComplete
	if cause != nil {
		event = fsm.EventFail
	}
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.mu.Unlock()
		c.logger.Error("finish transition rejected", zap.Error(err))
		return
	}

	c.timer.Stop()
	c.cancelLocked()
	c.state = next
	if cause != nil {
		c.lastErr = &IngestionError{Generation: gen, Err: cause}
	} else if c.mode == source.ModeUpload {
		c.segments = c.staged
	}
	c.staged = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if cause != nil {
		c.logger.Error("session failed", zap.Uint64("generation", gen), zap.Error(snap.Err))
		c.observer.Failed(snap, snap.Err)
		return
	}
	c.logger.Info("session completed",
		zap.Uint64("generation", gen),
		zap.String("mode", string(snap.Mode)),
		zap.Int("segments", len(snap.Segments)),
	)
	c.observer.Completed(snap)
}

func (c *Controller) onTick(elapsed int) {
	c.observer.Tick(elapsed)
}

// generationSink binds source deliveries to the session they were started for.
type generationSink struct {
	c   *Controller
	gen uint64
}

func (s *generationSink) Deliver(seg segment.Segment) {
	s.c.ingest(s.gen, seg)
}

func (s *generationSink) Finish(err error) {
	s.c.finish(s.gen, err)
}
