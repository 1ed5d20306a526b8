package session

import (
	"github.com/voiceflow/voiceflow/internal/segment"
	"github.com/voiceflow/voiceflow/internal/source"
	"github.com/voiceflow/voiceflow/internal/transcript"
)

// Observer receives lifecycle notifications after each state change.
// Calls are made without the controller lock held.
type Observer interface {
	RecordingStarted(Snapshot)
	RecordingStopped(Snapshot)
	UploadAttached(source.FileMeta)
	ProcessingStarted(Snapshot)
	SegmentAdded(segment.Segment)
	Tick(elapsed int)
	Completed(Snapshot)
	Failed(Snapshot, error)
	Exported(transcript.Artifact)
}

// noopObserver preserves session flow when no observer is wired.
type noopObserver struct{}

func (noopObserver) RecordingStarted(Snapshot)      {}
func (noopObserver) RecordingStopped(Snapshot)      {}
func (noopObserver) UploadAttached(source.FileMeta) {}
func (noopObserver) ProcessingStarted(Snapshot)     {}
func (noopObserver) SegmentAdded(segment.Segment)   {}
func (noopObserver) Tick(int)                       {}
func (noopObserver) Completed(Snapshot)             {}
func (noopObserver) Failed(Snapshot, error)         {}
func (noopObserver) Exported(transcript.Artifact)   {}
