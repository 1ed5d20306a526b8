package session

import (
	"errors"
	"fmt"

	"github.com/voiceflow/voiceflow/internal/fsm"
)

var (
	// ErrInvalidTransition indicates a command issued in a state that forbids it.
	ErrInvalidTransition = fsm.ErrInvalidTransition
	// ErrNoUpload indicates transcription was requested without an attached file.
	ErrNoUpload = errors.New("no upload attached")
	// ErrInvalidUpload indicates unusable upload metadata.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrEmptyTranscript indicates export was requested before any segment arrived.
	ErrEmptyTranscript = errors.New("transcript is empty; record or transcribe first")
)

// IngestionError records a segment source failure for one session generation.
type IngestionError struct {
	Generation uint64
	Err        error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed: %v", e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// IsInvalidTransition reports whether err is a rejected command.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
