package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cbroglie/mustache"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if cfg.Timer.TickMS <= 0 {
		return nil, fmt.Errorf("timer.tick_ms must be > 0")
	}
	if cfg.Timer.TickMS != 1000 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("timer.tick_ms=%d; elapsed no longer counts wall-clock seconds", cfg.Timer.TickMS)})
	}
	if cfg.Upload.ProcessingDelayMS < 0 {
		return nil, fmt.Errorf("upload.processing_delay_ms must be >= 0")
	}
	if cfg.Upload.MaxBytes < 0 {
		return nil, fmt.Errorf("upload.max_bytes must be >= 0")
	}
	for _, format := range cfg.Upload.Formats {
		if strings.TrimSpace(format) == "" {
			return nil, fmt.Errorf("upload.formats must not contain empty entries")
		}
		if strings.HasPrefix(format, ".") {
			return nil, fmt.Errorf("upload.formats entry %q must not start with '.'", format)
		}
	}
	if strings.TrimSpace(cfg.Export.Dir) == "" {
		return nil, fmt.Errorf("export.dir must not be empty")
	}
	if strings.TrimSpace(cfg.Export.FilenameTemplate) == "" {
		return nil, fmt.Errorf("export.filename_template must not be empty")
	}
	if _, err := mustache.ParseString(cfg.Export.FilenameTemplate); err != nil {
		return nil, fmt.Errorf("export.filename_template: %w", err)
	}
	if !strings.Contains(cfg.Export.FilenameTemplate, "{{") {
		warnings = append(warnings, Warning{Message: "export.filename_template has no variables; exports will overwrite each other"})
	}

	switch cfg.User.Role {
	case "user", "admin":
	default:
		return nil, fmt.Errorf("user.role must be one of: user, admin")
	}
	if cfg.User.ID == "" && (cfg.User.Name != "" || cfg.User.Email != "") {
		warnings = append(warnings, Warning{Message: "user.name/user.email set without user.id; no current user will be shown"})
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	return warnings, nil
}

// TickInterval returns the configured timer period.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.Timer.TickMS) * time.Millisecond
}

// ProcessingDelay returns the configured upload processing delay.
func (c Config) ProcessingDelay() time.Duration {
	return time.Duration(c.Upload.ProcessingDelayMS) * time.Millisecond
}
