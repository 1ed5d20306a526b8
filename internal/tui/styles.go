package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/voiceflow/voiceflow/internal/fsm"
	"github.com/voiceflow/voiceflow/internal/segment"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
	keywordStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#94e2d5"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	badgeStyle     = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

func stateBadge(state fsm.State) string {
	color := lipgloss.Color("#6c7086")
	switch state {
	case fsm.StateRecording:
		color = lipgloss.Color("#f38ba8")
	case fsm.StateProcessing:
		color = lipgloss.Color("#cba6f7")
	case fsm.StateCompleted:
		color = lipgloss.Color("#a6e3a1")
	case fsm.StateFailed:
		color = lipgloss.Color("#fab387")
	}
	return badgeStyle.Foreground(color).Render(string(state))
}

func emotionStyle(e segment.Emotion) lipgloss.Style {
	switch e {
	case segment.EmotionPositive:
		return successStyle
	case segment.EmotionNegative:
		return errorStyle
	default:
		return mutedStyle
	}
}
