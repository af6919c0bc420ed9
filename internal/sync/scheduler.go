package sync

import (
	"sync"
	"time"
)

// DefaultDebounce is the delay between the last local mutation and the
// resulting push attempt.
const DefaultDebounce = 800 * time.Millisecond

// Scheduler debounces bursts of local mutations into a single flush. Each
// NotifyMutation cancels any pending timer and arms a new one, so N
// mutations in quick succession produce exactly one flush after the burst
// settles. Retry after a failed flush is driven only by subsequent
// mutations or an explicit manual sync, never by a scheduler-owned timer.
type Scheduler struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	flush   func()
	stopped bool
}

// NewScheduler creates a scheduler that invokes flush after the debounce
// delay. A non-positive delay uses DefaultDebounce.
func NewScheduler(delay time.Duration, flush func()) *Scheduler {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Scheduler{
		delay: delay,
		flush: flush,
	}
}

// NotifyMutation arms (or re-arms) the debounce timer. Called after every
// successful local mutation.
func (s *Scheduler) NotifyMutation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.flush()
}

// Stop cancels any pending timer and ignores further notifications until
// Resume. Used on logout/disable to discard in-flight timers.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Resume re-enables the scheduler after a Stop.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = false
}
