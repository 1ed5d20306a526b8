// Package timer counts whole seconds of recording time.
package timer

import (
	"sync"
	"time"

	"github.com/voiceflow/voiceflow/internal/clock"
)

// Timer advances an integer counter by one per interval while armed.
// Ticks are scheduled at absolute deadlines from the run start.
type Timer struct {
	sched    clock.Scheduler
	interval time.Duration
	onTick   func(int)

	mu        sync.Mutex
	elapsed   int
	running   bool
	run       uint64
	startedAt time.Time
	cancel    clock.CancelFunc
}

// New constructs a stopped timer. onTick may be nil.
func New(sched clock.Scheduler, interval time.Duration, onTick func(int)) *Timer {
	if sched == nil {
		sched = clock.Real{}
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Timer{sched: sched, interval: interval, onTick: onTick}
}

// Start resets the counter to zero and arms the timer.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.run++
	t.elapsed = 0
	t.running = true
	t.startedAt = t.sched.Now()
	t.scheduleLocked(t.run)
}

// Stop disarms the timer; the counter is frozen as of this call.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Reset stops the timer and zeroes the counter.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.elapsed = 0
}

func (t *Timer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) stopLocked() {
	t.running = false
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Timer) scheduleLocked(run uint64) {
	deadline := t.startedAt.Add(time.Duration(t.elapsed+1) * t.interval)
	delay := deadline.Sub(t.sched.Now())
	t.cancel = t.sched.AfterFunc(delay, func() { t.tick(run) })
}

func (t *Timer) tick(run uint64) {
	t.mu.Lock()
	if !t.running || run != t.run {
		t.mu.Unlock()
		return
	}
	t.elapsed++
	elapsed := t.elapsed
	t.scheduleLocked(run)
	onTick := t.onTick
	t.mu.Unlock()

	if onTick != nil {
		onTick(elapsed)
	}
}
