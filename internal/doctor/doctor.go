// Package doctor runs runtime readiness diagnostics for config, runtime dir, export dir, and scripts.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/voiceflow/voiceflow/internal/config"
	"github.com/voiceflow/voiceflow/internal/output"
	"github.com/voiceflow/voiceflow/internal/source"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// clipboardAvailable is replaced in tests.
var clipboardAvailable = output.ClipboardAvailable

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	configMessage := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMessage = fmt.Sprintf("%q not found; using defaults", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMessage})

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir is set", "XDG_RUNTIME_DIR is empty; the session socket cannot be created"))

	checks = append(checks, checkExportDir(cfg.Config.Export.Dir))

	if script := strings.TrimSpace(cfg.Config.Live.Script); script != "" {
		checks = append(checks, checkScript(script))
	}

	if cfg.Config.Export.Clipboard {
		if clipboardAvailable() {
			checks = append(checks, Check{Name: "clipboard", Pass: true, Message: "clipboard utility available"})
		} else {
			checks = append(checks, Check{Name: "clipboard", Pass: false, Message: "no clipboard utility found (install wl-clipboard, xclip, or xsel)"})
		}
	}

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkExportDir verifies the export directory exists (or can be created) and accepts writes.
func checkExportDir(dir string) Check {
	const name = "export.dir"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("create %q: %v", dir, err)}
	}
	probe, err := os.CreateTemp(dir, ".voiceflow-doctor-*")
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%q is not writable: %v", dir, err)}
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("writable at %s", abs)}
}

func checkScript(path string) Check {
	script, err := source.LoadScript(path)
	if err != nil {
		return Check{Name: "live.script", Pass: false, Message: err.Error()}
	}
	return Check{Name: "live.script", Pass: true, Message: fmt.Sprintf("%d cues in %s", len(script.Cues), path)}
}
