package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
)

type messages struct {
	recordingStarted string
	recordingStopped string
	fileAttached     string
	processing       string
	completed        string
	failed           string
	exported         string
}

func indicatorMessagesFromEnv() messages {
	return indicatorMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "en") {
		return localeEnglish
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeEnglish:
		fallthrough
	default:
		return messages{
			recordingStarted: "Recording started",
			recordingStopped: "Recording stopped",
			fileAttached:     "File %q attached",
			processing:       "Processing audio file...",
			completed:        "Transcription completed!",
			failed:           "Transcription failed: %s",
			exported:         "Transcription exported",
		}
	}
}
