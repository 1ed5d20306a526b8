// Package indicator turns session lifecycle events into short user notices.
package indicator

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/voiceflow/voiceflow/internal/segment"
	"github.com/voiceflow/voiceflow/internal/session"
	"github.com/voiceflow/voiceflow/internal/source"
	"github.com/voiceflow/voiceflow/internal/transcript"
)

const (
	colorRecording  = lipgloss.Color("#89b4fa")
	colorProcessing = lipgloss.Color("#cba6f7")
	colorSuccess    = lipgloss.Color("#a6e3a1")
	colorError      = lipgloss.Color("#f38ba8")
	colorMuted      = lipgloss.Color("#6c7086")
)

// Notifier writes one styled line per lifecycle event.
type Notifier struct {
	logger   *zap.Logger
	messages messages

	mu         sync.Mutex
	out        io.Writer
	recording  lipgloss.Style
	processing lipgloss.Style
	success    lipgloss.Style
	failure    lipgloss.Style
	muted      lipgloss.Style
}

var _ session.Observer = (*Notifier)(nil)

// NewNotifier writes notices to out. A nil out only logs.
func NewNotifier(out io.Writer, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	r := lipgloss.NewRenderer(out)
	return &Notifier{
		logger:     logger,
		messages:   indicatorMessagesFromEnv(),
		out:        out,
		recording:  r.NewStyle().Bold(true).Foreground(colorRecording),
		processing: r.NewStyle().Bold(true).Foreground(colorProcessing),
		success:    r.NewStyle().Bold(true).Foreground(colorSuccess),
		failure:    r.NewStyle().Bold(true).Foreground(colorError),
		muted:      r.NewStyle().Foreground(colorMuted),
	}
}

func (n *Notifier) RecordingStarted(snap session.Snapshot) {
	n.notice(n.recording, n.messages.recordingStarted, zap.Uint64("generation", snap.Generation))
}

func (n *Notifier) RecordingStopped(snap session.Snapshot) {
	n.notice(n.muted, n.messages.recordingStopped,
		zap.Int("elapsed", snap.Elapsed),
		zap.Int("segments", len(snap.Segments)),
	)
}

func (n *Notifier) UploadAttached(meta source.FileMeta) {
	n.notice(n.muted, fmt.Sprintf(n.messages.fileAttached, meta.Name), zap.Int64("size", meta.Size))
}

func (n *Notifier) ProcessingStarted(snap session.Snapshot) {
	n.notice(n.processing, n.messages.processing, zap.Uint64("generation", snap.Generation))
}

// SegmentAdded is only logged; the transcript itself is the visible output.
func (n *Notifier) SegmentAdded(seg segment.Segment) {
	n.logger.Debug("indicator segment", zap.String("timestamp", seg.Timestamp))
}

func (n *Notifier) Tick(int) {}

func (n *Notifier) Completed(snap session.Snapshot) {
	n.notice(n.success, n.messages.completed, zap.Int("segments", len(snap.Segments)))
}

func (n *Notifier) Failed(_ session.Snapshot, err error) {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	n.notice(n.failure, fmt.Sprintf(n.messages.failed, reason))
}

func (n *Notifier) Exported(artifact transcript.Artifact) {
	n.notice(n.success, n.messages.exported, zap.String("name", artifact.Name))
}

func (n *Notifier) notice(style lipgloss.Style, text string, fields ...zap.Field) {
	n.logger.Info("indicator notice", append(fields, zap.String("text", text))...)

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := fmt.Fprintln(n.out, style.Render(text)); err != nil {
		n.logger.Debug("indicator write failed", zap.Error(err))
	}
}
