// Package cli maps command-line arguments onto a parsed voiceflow command.
package cli

import (
	"io"

	"github.com/spf13/cobra"
)

type Command string

const (
	CommandServe      Command = "serve"
	CommandStart      Command = "start"
	CommandStop       Command = "stop"
	CommandStatus     Command = "status"
	CommandAttach     Command = "attach"
	CommandTranscribe Command = "transcribe"
	CommandSegments   Command = "segments"
	CommandExport     Command = "export"
	CommandTUI        Command = "tui"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	// Script overrides live.script for serve and tui.
	Script string
	// File is the local path passed to attach (or tui --attach).
	File string
	// OutputDir overrides export.dir for export.
	OutputDir string
}

// Parse runs args through the command tree. Help and version text are
// written to out; any returned error is a usage error.
func Parse(args []string, out io.Writer) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	root := newRootCommand(&parsed, "voiceflow")
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		return Parsed{}, err
	}
	return parsed, nil
}

// HelpText renders the root help for binaryName.
func HelpText(binaryName string) string {
	var parsed Parsed
	root := newRootCommand(&parsed, binaryName)
	return root.UsageString()
}

func newRootCommand(parsed *Parsed, binaryName string) *cobra.Command {
	root := &cobra.Command{
		Use:   binaryName,
		Short: "Voice transcription sessions from the terminal",
		Long: binaryName + ` records live transcription sessions or transcribes attached audio files,
then exports the transcript as plain text.

A session is owned by "` + binaryName + ` serve" (or "` + binaryName + ` tui"); the other commands
talk to it over a unix socket in $XDG_RUNTIME_DIR.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed.Command = CommandHelp
			parsed.ShowHelp = true
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&parsed.ConfigPath, "config", "", "Config file path (default: $XDG_CONFIG_HOME/voiceflow/config.toml)")
	root.CompletionOptions.DisableDefaultCmd = true

	selectCommand := func(command Command) func(*cobra.Command, []string) error {
		return func(*cobra.Command, []string) error {
			parsed.Command = command
			parsed.ShowHelp = false
			return nil
		}
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Own a session and answer commands until interrupted",
		Args:  cobra.NoArgs,
		RunE:  selectCommand(CommandServe),
	}
	serve.Flags().StringVar(&parsed.Script, "script", "", "YAML segment script replayed while recording")

	attach := &cobra.Command{
		Use:   "attach FILE",
		Short: "Attach an audio file for transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed.File = args[0]
			return selectCommand(CommandAttach)(cmd, args)
		},
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Write the current transcript to a text file",
		Args:  cobra.NoArgs,
		RunE:  selectCommand(CommandExport),
	}
	export.Flags().StringVarP(&parsed.OutputDir, "output", "o", "", "Output directory (default: export.dir)")

	tui := &cobra.Command{
		Use:   "tui",
		Short: "Run an interactive session in the terminal",
		Args:  cobra.NoArgs,
		RunE:  selectCommand(CommandTUI),
	}
	tui.Flags().StringVar(&parsed.Script, "script", "", "YAML segment script replayed while recording")
	tui.Flags().StringVar(&parsed.File, "attach", "", "Audio file to attach before the session starts")

	simple := []struct {
		command Command
		short   string
	}{
		{CommandStart, "Start recording"},
		{CommandStop, "Stop recording"},
		{CommandStatus, "Print current state"},
		{CommandTranscribe, "Transcribe the attached file"},
		{CommandSegments, "Print the current transcript segments"},
		{CommandDoctor, "Run configuration and environment checks"},
		{CommandVersion, "Print version information"},
	}

	root.AddCommand(serve, attach, export, tui)
	for _, s := range simple {
		root.AddCommand(&cobra.Command{
			Use:   string(s.command),
			Short: s.short,
			Args:  cobra.NoArgs,
			RunE:  selectCommand(s.command),
		})
	}
	return root
}
