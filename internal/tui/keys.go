package tui

import "github.com/charmbracelet/bubbles/key"

type keymap struct {
	Record,
	Transcribe,
	Export,
	Quit key.Binding
}

// FullHelp implements help.KeyMap.
func (k keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// ShortHelp implements help.KeyMap.
func (k keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.Record, k.Transcribe, k.Export, k.Quit}
}

func defaultKeymap() keymap {
	return keymap{
		Record: key.NewBinding(
			key.WithKeys("r", " "),
			key.WithHelp("r", "start/stop recording"),
		),
		Transcribe: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "transcribe file"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
