// Package clock schedules deferred callbacks against real or manual time.
package clock

import (
	"sort"
	"sync"
	"time"
)

// CancelFunc stops a pending callback. It reports whether the callback was
// still pending when cancelled.
type CancelFunc func() bool

// Scheduler runs callbacks after a delay and exposes the current time.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) CancelFunc
}

// Real schedules callbacks on the runtime timer heap.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) AfterFunc(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return t.Stop
}

// Manual is a deterministic scheduler driven by Advance. Due callbacks run
// synchronously on the goroutine calling Advance, earliest deadline first and
// in scheduling order on ties.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	due time.Time
	seq uint64
	fn  func()
}

// NewManual returns a manual scheduler starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) CancelFunc {
	if d < 0 {
		d = 0
	}

	m.mu.Lock()
	m.seq++
	timer := &manualTimer{due: m.now.Add(d), seq: m.seq, fn: fn}
	m.pending = append(m.pending, timer)
	m.mu.Unlock()

	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, candidate := range m.pending {
			if candidate == timer {
				m.pending = append(m.pending[:i], m.pending[i+1:]...)
				return true
			}
		}
		return false
	}
}

// Advance moves time forward by d, firing every callback that becomes due,
// including callbacks scheduled by callbacks fired during this call.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.popDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		m.mu.Unlock()

		next.fn()
	}
}

// Pending reports how many callbacks are still scheduled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Manual) popDueLocked(target time.Time) *manualTimer {
	if len(m.pending) == 0 {
		return nil
	}
	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].due.Equal(m.pending[j].due) {
			return m.pending[i].seq < m.pending[j].seq
		}
		return m.pending[i].due.Before(m.pending[j].due)
	})
	head := m.pending[0]
	if head.due.After(target) {
		return nil
	}
	m.pending = m.pending[1:]
	return head
}
