// Package ipc carries session commands over a unix socket, one JSON line
// per request and one per response.
package ipc

import (
	"github.com/voiceflow/voiceflow/internal/segment"
	"github.com/voiceflow/voiceflow/internal/source"
	"github.com/voiceflow/voiceflow/internal/transcript"
)

const (
	CommandStatus     = "status"
	CommandStart      = "start"
	CommandStop       = "stop"
	CommandAttach     = "attach"
	CommandTranscribe = "transcribe"
	CommandSegments   = "segments"
	CommandExport     = "export"
)

type Request struct {
	Command string           `json:"command"`
	Upload  *source.FileMeta `json:"upload,omitempty"`
}

type Response struct {
	OK       bool                 `json:"ok"`
	State    string               `json:"state,omitempty"`
	Message  string               `json:"message,omitempty"`
	Error    string               `json:"error,omitempty"`
	Elapsed  int                  `json:"elapsed"`
	Upload   *source.FileMeta     `json:"upload,omitempty"`
	Segments []segment.Segment    `json:"segments,omitempty"`
	Artifact *transcript.Artifact `json:"artifact,omitempty"`
}
