package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// fileConfig mirrors the TOML layout. Pointer fields distinguish an absent
// key from an explicit zero so absent keys keep the base value.
type fileConfig struct {
	Timer *struct {
		TickMS *int `toml:"tick_ms"`
	} `toml:"timer"`
	Live *struct {
		Script *string `toml:"script"`
	} `toml:"live"`
	Upload *struct {
		ProcessingDelayMS *int      `toml:"processing_delay_ms"`
		MaxBytes          *int64    `toml:"max_bytes"`
		Formats           *[]string `toml:"formats"`
	} `toml:"upload"`
	Export *struct {
		Dir              *string `toml:"dir"`
		FilenameTemplate *string `toml:"filename_template"`
		Clipboard        *bool   `toml:"clipboard"`
	} `toml:"export"`
	User *struct {
		ID    *string `toml:"id"`
		Name  *string `toml:"name"`
		Email *string `toml:"email"`
		Role  *string `toml:"role"`
	} `toml:"user"`
	Log *struct {
		Level *string `toml:"level"`
	} `toml:"log"`
}

// Parse decodes TOML content over base and validates the result.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg := base
	cfg.Upload.Formats = append([]string(nil), base.Upload.Formats...)

	if strings.TrimSpace(content) != "" {
		var file fileConfig
		meta, err := toml.Decode(content, &file)
		if err != nil {
			var parseErr toml.ParseError
			if errors.As(err, &parseErr) {
				return Config{}, nil, fmt.Errorf("line %d: %s", parseErr.Position.Line, parseErr.Message)
			}
			return Config{}, nil, err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, key := range undecoded {
				keys = append(keys, key.String())
			}
			sort.Strings(keys)
			return Config{}, nil, fmt.Errorf("unknown key %q", keys[0])
		}
		file.apply(&cfg)
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (f fileConfig) apply(cfg *Config) {
	if f.Timer != nil {
		set(&cfg.Timer.TickMS, f.Timer.TickMS)
	}
	if f.Live != nil {
		set(&cfg.Live.Script, f.Live.Script)
	}
	if f.Upload != nil {
		set(&cfg.Upload.ProcessingDelayMS, f.Upload.ProcessingDelayMS)
		set(&cfg.Upload.MaxBytes, f.Upload.MaxBytes)
		set(&cfg.Upload.Formats, f.Upload.Formats)
	}
	if f.Export != nil {
		set(&cfg.Export.Dir, f.Export.Dir)
		set(&cfg.Export.FilenameTemplate, f.Export.FilenameTemplate)
		set(&cfg.Export.Clipboard, f.Export.Clipboard)
	}
	if f.User != nil {
		set(&cfg.User.ID, f.User.ID)
		set(&cfg.User.Name, f.User.Name)
		set(&cfg.User.Email, f.User.Email)
		set(&cfg.User.Role, f.User.Role)
	}
	if f.Log != nil {
		set(&cfg.Log.Level, f.Log.Level)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
