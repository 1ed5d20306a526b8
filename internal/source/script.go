package source

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/voiceflow/voiceflow/internal/segment"
	"gopkg.in/yaml.v3"
)

// Cue is one segment emitted After the start of a session.
type Cue struct {
	After   time.Duration
	Segment segment.Segment
}

// Script is an ordered list of cues. With EndOfStream set, a live stream
// finishes after its last cue instead of staying open until stopped.
type Script struct {
	Cues        []Cue
	EndOfStream bool
}

// Segments returns the cue segments in script order.
func (s Script) Segments() []segment.Segment {
	out := make([]segment.Segment, 0, len(s.Cues))
	for _, cue := range s.Cues {
		out = append(out, cue.Segment.Clone())
	}
	return out
}

// Validate checks every segment and that offsets and timestamps never go backwards.
func (s Script) Validate() error {
	var (
		lastAfter time.Duration
		lastTS    int
	)
	for i, cue := range s.Cues {
		if cue.After < 0 {
			return fmt.Errorf("cue %d: negative offset %s", i+1, cue.After)
		}
		if err := cue.Segment.Validate(); err != nil {
			return fmt.Errorf("cue %d: %w", i+1, err)
		}
		ts, _ := segment.ParseTimestamp(cue.Segment.Timestamp)
		if i > 0 {
			if cue.After < lastAfter {
				return fmt.Errorf("cue %d: offset %s is before previous cue %s", i+1, cue.After, lastAfter)
			}
			if ts < lastTS {
				return fmt.Errorf("cue %d: timestamp %s is before previous cue", i+1, cue.Segment.Timestamp)
			}
		}
		lastAfter = cue.After
		lastTS = ts
	}
	return nil
}

// DemoScript is the built-in quarterly-results recording.
func DemoScript() Script {
	return Script{Cues: []Cue{
		{
			After: 3 * time.Second,
			Segment: segment.Segment{
				Text:       "Good morning everyone, I'm excited to share our quarterly results with the team today.",
				Timestamp:  "00:00:15",
				Keywords:   []string{"quarterly", "results", "team"},
				Emotion:    segment.EmotionPositive,
				Confidence: 98.5,
			},
		},
		{
			After: 6 * time.Second,
			Segment: segment.Segment{
				Text:       "Our revenue has increased by 23% compared to last quarter, which is fantastic news.",
				Timestamp:  "00:00:28",
				Keywords:   []string{"revenue", "increased", "23%"},
				Emotion:    segment.EmotionPositive,
				Confidence: 96.2,
			},
		},
		{
			After: 9 * time.Second,
			Segment: segment.Segment{
				Text:       "However, we did face some challenges with customer retention in the mobile segment.",
				Timestamp:  "00:00:45",
				Keywords:   []string{"challenges", "customer retention", "mobile"},
				Emotion:    segment.EmotionNeutral,
				Confidence: 94.8,
			},
		},
	}}
}

type scriptFile struct {
	EndOfStream bool        `yaml:"end_of_stream"`
	Cues        []scriptCue `yaml:"cues"`
}

type scriptCue struct {
	After           string `yaml:"after"`
	segment.Segment `yaml:",inline"`
}

// ParseScript decodes a YAML script document.
func ParseScript(content []byte) (Script, error) {
	var file scriptFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return Script{}, fmt.Errorf("decode script: %w", err)
	}
	if len(file.Cues) == 0 {
		return Script{}, fmt.Errorf("script has no cues")
	}

	script := Script{EndOfStream: file.EndOfStream, Cues: make([]Cue, 0, len(file.Cues))}
	for i, raw := range file.Cues {
		after, err := time.ParseDuration(strings.TrimSpace(raw.After))
		if err != nil {
			return Script{}, fmt.Errorf("cue %d: invalid after %q: %w", i+1, raw.After, err)
		}
		seg := raw.Segment
		seg.Text = segment.NormalizeText(seg.Text)
		script.Cues = append(script.Cues, Cue{After: after, Segment: seg})
	}

	if err := script.Validate(); err != nil {
		return Script{}, err
	}
	return script, nil
}

// LoadScript reads and parses a YAML script file.
func LoadScript(path string) (Script, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script %q: %w", path, err)
	}
	script, err := ParseScript(content)
	if err != nil {
		return Script{}, fmt.Errorf("parse script %q: %w", path, err)
	}
	return script, nil
}
