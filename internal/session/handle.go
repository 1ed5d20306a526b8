package session

import (
	"context"
	"fmt"

	"github.com/voiceflow/voiceflow/internal/ipc"
)

// Handle maps one IPC request onto a controller operation.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	var (
		err     error
		message string
		resp    ipc.Response
	)

	switch req.Command {
	case ipc.CommandStatus, ipc.CommandSegments:
	case ipc.CommandStart:
		err = c.StartRecording(ctx)
		message = "recording started"
	case ipc.CommandStop:
		err = c.StopRecording(ctx)
		message = "recording stopped"
	case ipc.CommandAttach:
		if req.Upload == nil {
			err = fmt.Errorf("%w: missing upload metadata", ErrInvalidUpload)
			break
		}
		err = c.AttachUpload(*req.Upload)
		message = fmt.Sprintf("file %q attached", req.Upload.Name)
	case ipc.CommandTranscribe:
		err = c.TranscribeUpload(ctx)
		message = "processing audio file"
	case ipc.CommandExport:
		artifact, exportErr := c.ExportCurrentTranscript()
		if exportErr == nil {
			resp.Artifact = &artifact
			message = "transcript exported"
		}
		err = exportErr
	default:
		err = fmt.Errorf("unknown command: %s", req.Command)
	}

	snap := c.Snapshot()
	resp.State = string(snap.State)
	resp.Elapsed = snap.Elapsed
	resp.Upload = snap.Upload
	if req.Command == ipc.CommandSegments || req.Command == ipc.CommandStatus {
		resp.Segments = snap.Segments
	}
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	if req.Command == ipc.CommandStatus && snap.Err != nil {
		message = snap.Err.Error()
	}
	resp.OK = true
	resp.Message = message
	return resp
}
