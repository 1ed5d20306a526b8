// Package source produces transcript segments for a session, either as a
// live stream or as one batch for an uploaded file.
package source

import (
	"context"
	"errors"

	"github.com/voiceflow/voiceflow/internal/segment"
)

// Mode distinguishes live recording from upload processing.
type Mode string

const (
	ModeLive   Mode = "live"
	ModeUpload Mode = "upload"
)

// FileMeta is the only upload information the core retains.
type FileMeta struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Request describes the session a source is started for.
type Request struct {
	Mode       Mode
	File       FileMeta
	Generation uint64
}

// Sink receives deliveries for exactly one session generation.
type Sink interface {
	Deliver(segment.Segment)
	Finish(error)
}

// Source starts emitting into sink and returns without blocking. Emission
// stops once ctx is cancelled, including emissions already scheduled.
type Source interface {
	Start(ctx context.Context, req Request, sink Sink) error
}

// Func adapts a function to the Source interface.
type Func func(context.Context, Request, Sink) error

func (f Func) Start(ctx context.Context, req Request, sink Sink) error {
	return f(ctx, req, sink)
}

var (
	// ErrUploadTooLarge indicates the upload exceeds the configured size limit.
	ErrUploadTooLarge = errors.New("upload exceeds maximum size")
	// ErrUnsupportedFormat indicates the upload extension is not accepted.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)
