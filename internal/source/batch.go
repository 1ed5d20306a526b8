package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/voiceflow/voiceflow/internal/clock"
)

// BatchOptions controls upload processing.
type BatchOptions struct {
	ProcessingDelay time.Duration
	MaxBytes        int64
	Formats         []string
}

// Batch emits a whole script for an uploaded file after a processing delay.
type Batch struct {
	sched  clock.Scheduler
	script Script
	opts   BatchOptions
}

// NewBatch constructs a scripted batch source.
func NewBatch(sched clock.Scheduler, script Script, opts BatchOptions) *Batch {
	if sched == nil {
		sched = clock.Real{}
	}
	return &Batch{sched: sched, script: script, opts: opts}
}

func (b *Batch) Start(ctx context.Context, req Request, sink Sink) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pending := newPendingSet()
	pending.add(b.sched.AfterFunc(b.opts.ProcessingDelay, func() {
		if ctx.Err() != nil {
			return
		}
		if err := b.CheckFile(req.File); err != nil {
			sink.Finish(err)
			return
		}
		for _, seg := range b.script.Segments() {
			if ctx.Err() != nil {
				return
			}
			sink.Deliver(seg)
		}
		sink.Finish(nil)
	}))
	context.AfterFunc(ctx, pending.cancelAll)
	return nil
}

// CheckFile applies the size and format limits to upload metadata.
func (b *Batch) CheckFile(file FileMeta) error {
	if b.opts.MaxBytes > 0 && file.Size > b.opts.MaxBytes {
		return fmt.Errorf(
			"%w: %s is %s, limit %s",
			ErrUploadTooLarge,
			file.Name,
			humanize.IBytes(uint64(file.Size)),
			humanize.IBytes(uint64(b.opts.MaxBytes)),
		)
	}
	if len(b.opts.Formats) == 0 {
		return nil
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Name)), ".")
	for _, format := range b.opts.Formats {
		if strings.EqualFold(strings.TrimSpace(format), ext) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (accepted: %s)", ErrUnsupportedFormat, file.Name, strings.Join(b.opts.Formats, ", "))
}
