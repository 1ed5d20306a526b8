package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/voiceflow/voiceflow/internal/clock"
	"github.com/voiceflow/voiceflow/internal/fsm"
	"github.com/voiceflow/voiceflow/internal/identity"
	"github.com/voiceflow/voiceflow/internal/session"
	"github.com/voiceflow/voiceflow/internal/source"
	"github.com/voiceflow/voiceflow/internal/transcript"
)

type fakeExporter struct {
	written []transcript.Artifact
	err     error
}

func (f *fakeExporter) Write(artifact transcript.Artifact) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.written = append(f.written, artifact)
	return "/exports/" + artifact.Name, nil
}

func newTestModel(t *testing.T) (Model, *session.Controller, *clock.Manual, *fakeExporter) {
	t.Helper()
	sched := clock.NewManual(time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC))
	ctrl := session.NewController(session.Options{
		Scheduler: sched,
		Live:      source.NewLive(sched, source.DemoScript()),
		Batch:     source.NewBatch(sched, source.DemoScript(), source.BatchOptions{ProcessingDelay: 3 * time.Second}),
	})
	t.Cleanup(ctrl.Shutdown)
	exporter := &fakeExporter{}
	users := identity.Static(identity.User{ID: "u-1", Name: "Ada", Role: identity.RoleUser})
	return New(context.Background(), ctrl, exporter, users), ctrl, sched, exporter
}

func press(m Model, r rune) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return next.(Model)
}

func refresh(t *testing.T, m Model) Model {
	t.Helper()
	next, cmd := m.Update(refreshMsg(time.Time{}))
	require.NotNil(t, cmd)
	return next.(Model)
}

func TestRecordToggleAndRefresh(t *testing.T) {
	m, ctrl, sched, _ := newTestModel(t)

	m = press(m, 'r')
	require.Equal(t, fsm.StateRecording, ctrl.State())
	require.Equal(t, "Recording started", m.status)

	sched.Advance(7 * time.Second)
	m = refresh(t, m)
	view := m.View()
	require.Contains(t, view, "00:07")
	require.Contains(t, view, "[00:00:15] Good morning everyone")
	require.Contains(t, view, "positive")
	require.Contains(t, view, "98.5%")
	require.Contains(t, view, "quarterly, results, team")
	require.Contains(t, view, "Ada")

	m = press(m, 'r')
	require.Equal(t, fsm.StateIdle, ctrl.State())
	require.Equal(t, "Recording stopped", m.status)
}

func TestTranscribeWithoutUploadShowsError(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	m = press(m, 'u')
	require.True(t, m.statusErr)
	require.Contains(t, m.View(), "no upload attached")
}

func TestTranscribeAttachedFile(t *testing.T) {
	m, ctrl, sched, _ := newTestModel(t)
	require.NoError(t, ctrl.AttachUpload(source.FileMeta{Name: "call.wav", Size: 2048}))

	m = press(m, 'u')
	require.Equal(t, fsm.StateProcessing, ctrl.State())
	require.Contains(t, m.View(), "call.wav (2.0 KiB)")

	sched.Advance(3 * time.Second)
	m = refresh(t, m)
	require.Equal(t, fsm.StateCompleted, m.snap.State)
	require.Len(t, m.snap.Segments, 3)
}

func TestExportWritesArtifact(t *testing.T) {
	m, _, sched, exporter := newTestModel(t)

	m = press(m, 'e')
	require.True(t, m.statusErr)
	require.Contains(t, m.status, "transcript is empty")

	m = press(m, 'r')
	sched.Advance(4 * time.Second)
	m = press(m, 'e')
	require.False(t, m.statusErr)
	require.Len(t, exporter.written, 1)
	require.Equal(t, "Transcription exported to /exports/transcription-2026-05-01.txt", m.status)

	exporter.err = errors.New("disk full")
	m = press(m, 'e')
	require.True(t, m.statusErr)
	require.Equal(t, "disk full", m.status)
}

func TestQuit(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	require.Equal(t, tea.QuitMsg{}, cmd())
}

func TestFailedStateShowsReason(t *testing.T) {
	sched := clock.NewManual(time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC))
	ctrl := session.NewController(session.Options{
		Scheduler: sched,
		Batch:     source.NewBatch(sched, source.DemoScript(), source.BatchOptions{Formats: []string{"mp3"}}),
	})
	t.Cleanup(ctrl.Shutdown)
	require.NoError(t, ctrl.AttachUpload(source.FileMeta{Name: "call.flac", Size: 10}))
	m := New(context.Background(), ctrl, nil, nil)

	m = press(m, 'u')
	sched.Advance(0)
	m = refresh(t, m)
	require.Equal(t, fsm.StateFailed, m.snap.State)
	require.Contains(t, m.View(), "Transcription failed: ingestion failed: unsupported audio format")

	m = press(m, 'e')
	require.True(t, m.statusErr)
}

func TestFormatElapsed(t *testing.T) {
	require.Equal(t, "00:00", FormatElapsed(0))
	require.Equal(t, "00:10", FormatElapsed(10))
	require.Equal(t, "02:05", FormatElapsed(125))
	require.Equal(t, "61:01", FormatElapsed(3661))
	require.Equal(t, "00:00", FormatElapsed(-3))
}
