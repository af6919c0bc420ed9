package sync

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerCoalescesMutations(t *testing.T) {
	var fires int32
	s := NewScheduler(30*time.Millisecond, func() {
		atomic.AddInt32(&fires, 1)
	})

	for i := 0; i < 5; i++ {
		s.NotifyMutation()
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&fires); got != 1 {
		t.Errorf("expected a single coalesced flush, got %d", got)
	}
}

func TestSchedulerFiresAgainAfterQuiet(t *testing.T) {
	var fires int32
	s := NewScheduler(20*time.Millisecond, func() {
		atomic.AddInt32(&fires, 1)
	})

	s.NotifyMutation()
	time.Sleep(60 * time.Millisecond)
	s.NotifyMutation()
	time.Sleep(60 * time.Millisecond)

	if got := atomic.LoadInt32(&fires); got != 2 {
		t.Errorf("expected two separate flushes, got %d", got)
	}
}

func TestSchedulerStopDiscardsPending(t *testing.T) {
	var fires int32
	s := NewScheduler(30*time.Millisecond, func() {
		atomic.AddInt32(&fires, 1)
	})

	s.NotifyMutation()
	s.Stop()
	time.Sleep(80 * time.Millisecond)

	if got := atomic.LoadInt32(&fires); got != 0 {
		t.Errorf("expected no flush after Stop, got %d", got)
	}
}

func TestSchedulerResumeAfterStop(t *testing.T) {
	var fires int32
	s := NewScheduler(20*time.Millisecond, func() {
		atomic.AddInt32(&fires, 1)
	})

	s.Stop()
	s.NotifyMutation()
	time.Sleep(60 * time.Millisecond)
	if got := atomic.LoadInt32(&fires); got != 0 {
		t.Fatalf("expected stopped scheduler to ignore mutations, got %d fires", got)
	}

	s.Resume()
	s.NotifyMutation()
	time.Sleep(60 * time.Millisecond)
	if got := atomic.LoadInt32(&fires); got != 1 {
		t.Errorf("expected one flush after Resume, got %d", got)
	}
}
