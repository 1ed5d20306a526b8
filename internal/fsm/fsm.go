// Package fsm defines the transcription session state machine.
package fsm

import (
	"errors"
	"fmt"
)

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

const (
	EventRecord     Event = "record"
	EventStop       Event = "stop"
	EventTranscribe Event = "transcribe"
	EventComplete   Event = "complete"
	EventFail       Event = "fail"
)

// ErrInvalidTransition is wrapped by every rejected transition.
var ErrInvalidTransition = errors.New("invalid transition")

// Active reports whether a session in state s is still receiving input.
func (s State) Active() bool {
	return s == StateRecording || s == StateProcessing
}

func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle, StateCompleted, StateFailed:
		switch event {
		case EventRecord:
			return StateRecording, nil
		case EventTranscribe:
			return StateProcessing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateIdle, nil
		case EventComplete:
			return StateCompleted, nil
		case EventFail:
			return StateFailed, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateProcessing:
		switch event {
		case EventComplete:
			return StateCompleted, nil
		case EventFail:
			return StateFailed, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("%w: %s --(%s)--> ?", ErrInvalidTransition, state, event)
}
