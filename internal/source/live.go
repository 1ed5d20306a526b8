package source

import (
	"context"
	"sync"

	"github.com/voiceflow/voiceflow/internal/clock"
)

// Live replays a script as a real-time stream.
type Live struct {
	sched  clock.Scheduler
	script Script
}

// NewLive constructs a scripted live source.
func NewLive(sched clock.Scheduler, script Script) *Live {
	if sched == nil {
		sched = clock.Real{}
	}
	return &Live{sched: sched, script: script}
}

func (l *Live) Start(ctx context.Context, _ Request, sink Sink) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pending := newPendingSet()
	for _, cue := range l.script.Cues {
		seg := cue.Segment.Clone()
		pending.add(l.sched.AfterFunc(cue.After, func() {
			if ctx.Err() != nil {
				return
			}
			sink.Deliver(seg)
		}))
	}

	if l.script.EndOfStream {
		var last Cue
		if n := len(l.script.Cues); n > 0 {
			last = l.script.Cues[n-1]
		}
		pending.add(l.sched.AfterFunc(last.After, func() {
			if ctx.Err() != nil {
				return
			}
			sink.Finish(nil)
		}))
	}

	context.AfterFunc(ctx, pending.cancelAll)
	return nil
}

// pendingSet tracks scheduled callbacks so cancellation can drop them.
type pendingSet struct {
	mu      sync.Mutex
	cancels []clock.CancelFunc
}

func newPendingSet() *pendingSet {
	return &pendingSet{}
}

func (p *pendingSet) add(cancel clock.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancels = append(p.cancels, cancel)
}

func (p *pendingSet) cancelAll() {
	p.mu.Lock()
	cancels := p.cancels
	p.cancels = nil
	p.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
