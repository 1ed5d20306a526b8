// Package tui hosts an interactive transcription session in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/voiceflow/voiceflow/internal/fsm"
	"github.com/voiceflow/voiceflow/internal/identity"
	"github.com/voiceflow/voiceflow/internal/segment"
	"github.com/voiceflow/voiceflow/internal/session"
	"github.com/voiceflow/voiceflow/internal/transcript"
	"github.com/voiceflow/voiceflow/internal/version"
)

const refreshInterval = 200 * time.Millisecond

// Session is the controller surface the TUI drives.
type Session interface {
	Snapshot() session.Snapshot
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) error
	TranscribeUpload(ctx context.Context) error
	ExportCurrentTranscript() (transcript.Artifact, error)
}

// Exporter persists an exported artifact and returns where it went.
type Exporter interface {
	Write(transcript.Artifact) (string, error)
}

type refreshMsg time.Time

// Model is the root bubbletea model.
type Model struct {
	ctx      context.Context
	session  Session
	exporter Exporter
	user     identity.User
	hasUser  bool

	snap      session.Snapshot
	status    string
	statusErr bool
	width     int

	keymap keymap
	help   help.Model
}

// New builds a model over sess. users may be nil.
func New(ctx context.Context, sess Session, exporter Exporter, users identity.Provider) Model {
	m := Model{
		ctx:      ctx,
		session:  sess,
		exporter: exporter,
		snap:     sess.Snapshot(),
		keymap:   defaultKeymap(),
		help:     help.New(),
	}
	if users != nil {
		m.user, m.hasUser = users.CurrentUser(ctx)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return refreshCmd()
}

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.snap = m.session.Snapshot()
		return m, refreshCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Record):
		if m.snap.State == fsm.StateRecording {
			m.setResult(m.session.StopRecording(m.ctx), "Recording stopped")
		} else {
			m.setResult(m.session.StartRecording(m.ctx), "Recording started")
		}

	case key.Matches(msg, m.keymap.Transcribe):
		m.setResult(m.session.TranscribeUpload(m.ctx), "Processing audio file...")

	case key.Matches(msg, m.keymap.Export):
		m.export()
	}

	m.snap = m.session.Snapshot()
	return m, nil
}

func (m *Model) export() {
	artifact, err := m.session.ExportCurrentTranscript()
	if err != nil {
		m.setResult(err, "")
		return
	}
	if m.exporter == nil {
		m.setResult(errors.New("no export destination configured"), "")
		return
	}
	path, err := m.exporter.Write(artifact)
	m.setResult(err, fmt.Sprintf("Transcription exported to %s", path))
}

func (m *Model) setResult(err error, ok string) {
	if err != nil {
		m.status = err.Error()
		m.statusErr = true
		return
	}
	m.status = ok
	m.statusErr = false
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(version.Short()))
	if m.hasUser {
		b.WriteString("  " + mutedStyle.Render(m.user.Label()))
	}
	b.WriteString("\n\n")

	b.WriteString(stateBadge(m.snap.State))
	b.WriteString("  " + FormatElapsed(m.snap.Elapsed))
	if m.snap.Upload != nil {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  file: %s (%s)", m.snap.Upload.Name, humanize.IBytes(uint64(m.snap.Upload.Size)))))
	}
	b.WriteString("\n")
	if m.snap.State == fsm.StateFailed && m.snap.Err != nil {
		b.WriteString(errorStyle.Render("Transcription failed: "+m.snap.Err.Error()) + "\n")
	}
	b.WriteString("\n")

	if len(m.snap.Segments) == 0 {
		b.WriteString(mutedStyle.Render("No transcript yet. Press r to record."))
		b.WriteString("\n")
	}
	for _, seg := range m.snap.Segments {
		b.WriteString(renderSegment(seg))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(successStyle.Render(m.status))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keymap))
	return b.String()
}

func renderSegment(seg segment.Segment) string {
	var b strings.Builder
	b.WriteString(timestampStyle.Render("[" + seg.Timestamp + "]"))
	b.WriteString(" " + seg.Text + "\n")
	b.WriteString("    ")
	b.WriteString(emotionStyle(seg.Emotion).Render(string(seg.Emotion)))
	b.WriteString(mutedStyle.Render(fmt.Sprintf(" · %.1f%%", seg.Confidence)))
	if len(seg.Keywords) > 0 {
		b.WriteString(" · " + keywordStyle.Render(strings.Join(seg.Keywords, ", ")))
	}
	return b.String()
}

// FormatElapsed renders whole seconds as MM:SS; minutes keep growing past 59.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Run drives m until the user quits or ctx is cancelled.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if err != nil && ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
