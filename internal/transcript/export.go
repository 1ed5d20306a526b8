// Package transcript renders accumulated segments into an export artifact.
package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/cbroglie/mustache"
	"github.com/voiceflow/voiceflow/internal/segment"
)

// DefaultNameTemplate names artifacts by the UTC calendar date.
const DefaultNameTemplate = "transcription-{{date}}.txt"

const separator = "\n\n"

// Artifact is a named plain-text export.
type Artifact struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// Export renders each segment as "[timestamp] text", blank-line separated,
// in transcript order. The output depends only on segments.
func Export(segments []segment.Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteString(separator)
		}
		b.WriteString("[")
		b.WriteString(seg.Timestamp)
		b.WriteString("] ")
		b.WriteString(seg.Text)
	}
	return b.String()
}

// ArtifactName renders the name template for now. Available variables are
// date (YYYY-MM-DD), time (HHMMSS) and timestamp (RFC 3339), all in UTC.
func ArtifactName(template string, now time.Time) (string, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultNameTemplate
	}
	utc := now.UTC()
	name, err := mustache.Render(template, map[string]string{
		"date":      utc.Format("2006-01-02"),
		"time":      utc.Format("150405"),
		"timestamp": utc.Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("render artifact name: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("render artifact name: invalid file name %q", name)
	}
	return name, nil
}

// Build combines the body and a rendered name.
func Build(segments []segment.Segment, template string, now time.Time) (Artifact, error) {
	name, err := ArtifactName(template, now)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Name: name, Body: Export(segments)}, nil
}
