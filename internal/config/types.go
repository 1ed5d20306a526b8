// Package config resolves, parses, validates, and defaults voiceflow configuration.
package config

// Config is the fully materialized runtime configuration used by voiceflow.
type Config struct {
	Timer  TimerConfig
	Live   LiveConfig
	Upload UploadConfig
	Export ExportConfig
	User   UserConfig
	Log    LogConfig
}

// TimerConfig controls the elapsed-seconds counter.
type TimerConfig struct {
	TickMS int
}

// LiveConfig selects the segment script replayed while recording.
type LiveConfig struct {
	Script string
}

// UploadConfig controls batch processing of attached files.
type UploadConfig struct {
	ProcessingDelayMS int
	MaxBytes          int64
	Formats           []string
}

// ExportConfig controls where and how transcripts are written.
type ExportConfig struct {
	Dir              string
	FilenameTemplate string
	Clipboard        bool
}

// UserConfig is the static identity shown alongside the session.
type UserConfig struct {
	ID    string
	Name  string
	Email string
	Role  string
}

type LogConfig struct {
	Level string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
