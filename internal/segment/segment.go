// Package segment defines transcript segments and their timestamp format.
package segment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Emotion is the coarse sentiment label attached to a segment.
type Emotion string

const (
	EmotionPositive Emotion = "positive"
	EmotionNeutral  Emotion = "neutral"
	EmotionNegative Emotion = "negative"
)

// Valid reports whether e is one of the known emotion labels.
func (e Emotion) Valid() bool {
	switch e {
	case EmotionPositive, EmotionNeutral, EmotionNegative:
		return true
	default:
		return false
	}
}

// Segment is one unit of transcribed speech.
type Segment struct {
	ID         string   `json:"id" yaml:"id,omitempty"`
	Text       string   `json:"text" yaml:"text"`
	Timestamp  string   `json:"timestamp" yaml:"timestamp"`
	Keywords   []string `json:"keywords" yaml:"keywords,omitempty"`
	Emotion    Emotion  `json:"emotion" yaml:"emotion"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
}

var ErrInvalidSegment = errors.New("invalid segment")

// Validate checks text, timestamp, emotion, and confidence bounds.
func (s Segment) Validate() error {
	if strings.TrimSpace(s.Text) == "" {
		return fmt.Errorf("%w: text cannot be empty", ErrInvalidSegment)
	}
	if _, err := ParseTimestamp(s.Timestamp); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSegment, err)
	}
	if !s.Emotion.Valid() {
		return fmt.Errorf("%w: unknown emotion %q", ErrInvalidSegment, s.Emotion)
	}
	if s.Confidence < 0 || s.Confidence > 100 {
		return fmt.Errorf("%w: confidence %.2f outside [0, 100]", ErrInvalidSegment, s.Confidence)
	}
	return nil
}

// Clone returns a copy that shares no slices with s.
func (s Segment) Clone() Segment {
	if s.Keywords != nil {
		s.Keywords = append([]string(nil), s.Keywords...)
	}
	return s
}

// CloneAll deep-copies a segment slice.
func CloneAll(segments []Segment) []Segment {
	out := make([]Segment, len(segments))
	for i, s := range segments {
		out[i] = s.Clone()
	}
	return out
}

// NormalizeText collapses whitespace runs and trims the result.
func NormalizeText(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// FormatTimestamp renders elapsed seconds as HH:MM:SS.
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
}

// ParseTimestamp converts HH:MM:SS into elapsed seconds.
func ParseTimestamp(ts string) (int, error) {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("timestamp %q must be HH:MM:SS", ts)
	}

	values := make([]int, 3)
	for i, part := range parts {
		if len(part) != 2 && !(i == 0 && len(part) > 2) {
			return 0, fmt.Errorf("timestamp %q must be HH:MM:SS", ts)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("timestamp %q must be HH:MM:SS", ts)
		}
		values[i] = n
	}
	if values[1] > 59 || values[2] > 59 {
		return 0, fmt.Errorf("timestamp %q has minutes or seconds above 59", ts)
	}

	return values[0]*3600 + values[1]*60 + values[2], nil
}
