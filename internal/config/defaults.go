package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Timer: TimerConfig{TickMS: 1000},
		Upload: UploadConfig{
			ProcessingDelayMS: 3000,
			MaxBytes:          100 << 20,
			Formats:           []string{"mp3", "wav", "m4a"},
		},
		Export: ExportConfig{
			Dir:              ".",
			FilenameTemplate: "transcription-{{date}}.txt",
		},
		User: UserConfig{Role: "user"},
		Log:  LogConfig{Level: "info"},
	}
}
