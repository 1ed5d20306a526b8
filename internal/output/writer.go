// Package output applies transcript export side effects (file and clipboard).
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/voiceflow/voiceflow/internal/config"
	"github.com/voiceflow/voiceflow/internal/transcript"
)

// Writer stores exported artifacts on disk and optionally on the clipboard.
type Writer struct {
	dir       string
	clipboard ClipboardFunc
	logger    *zap.Logger
}

// NewWriter constructs a writer from export config. A nil copy func with
// clipboard enabled uses the system clipboard.
func NewWriter(cfg config.ExportConfig, copyFn ClipboardFunc, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Writer{dir: cfg.Dir, logger: logger}
	if cfg.Clipboard {
		w.clipboard = copyFn
		if w.clipboard == nil {
			w.clipboard = SystemClipboard
		}
	}
	return w
}

// WithDir returns a copy of w writing into dir instead.
func (w *Writer) WithDir(dir string) *Writer {
	clone := *w
	if strings.TrimSpace(dir) != "" {
		clone.dir = dir
	}
	return &clone
}

// Write stores artifact under the export directory and returns its path.
// Clipboard failures are logged and do not fail the export.
func (w *Writer) Write(artifact transcript.Artifact) (string, error) {
	if artifact.Name == "" || artifact.Name != filepath.Base(artifact.Name) {
		return "", fmt.Errorf("invalid artifact name %q", artifact.Name)
	}
	if w.dir == "" {
		return "", errors.New("export directory is not configured")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(w.dir, artifact.Name)
	if err := os.WriteFile(path, []byte(artifact.Body), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	w.logger.Info("transcript written", zap.String("path", path), zap.Int("bytes", len(artifact.Body)))

	if w.clipboard != nil {
		if err := w.clipboard(artifact.Body); err != nil {
			w.logger.Warn("clipboard copy failed", zap.Error(err))
		}
	}
	return path, nil
}
