// Package sched runs deferred callbacks on simulated time. Timers fire from
// Advance, on the simulation goroutine, in due order; ties go to the timer
// scheduled first.
package sched

import (
	"container/heap"
	"time"
)

// Timer is a pending callback. Cancel before it fires to drop it.
type Timer struct {
	due   time.Duration
	seq   uint64
	fn    func()
	index int // heap position, -1 once fired or cancelled
}

// Cancel stops the timer. It reports whether the timer was still pending.
func (t *Timer) Cancel() bool {
	if t == nil || t.index < 0 || t.fn == nil {
		return false
	}
	t.fn = nil
	return true
}

// Pending reports whether the timer has neither fired nor been cancelled.
func (t *Timer) Pending() bool {
	return t != nil && t.index >= 0 && t.fn != nil
}

// Due returns the simulated time at which the timer fires.
func (t *Timer) Due() time.Duration { return t.due }

// Scheduler owns a monotonic simulated clock and a queue of timers.
type Scheduler struct {
	now   time.Duration
	seq   uint64
	queue timerHeap
}

// New returns an empty scheduler at time zero.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns elapsed simulated time.
func (s *Scheduler) Now() time.Duration { return s.now }

// Len returns the number of queued timers, including cancelled ones not yet
// drained.
func (s *Scheduler) Len() int { return len(s.queue) }

// After schedules fn to run once d of simulated time has passed. A
// non-positive d fires on the next Advance.
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &Timer{due: s.now + d, seq: s.seq, fn: fn}
	heap.Push(&s.queue, t)
	return t
}

// Advance moves simulated time forward by d and runs every timer due within
// the window. While a callback runs, Now reports that timer's due time, so
// timers it schedules are placed correctly and also run if they fall inside
// the window. It returns the number of callbacks run.
func (s *Scheduler) Advance(d time.Duration) int {
	target := s.now
	if d > 0 {
		target += d
	}
	fired := 0
	for len(s.queue) > 0 && s.queue[0].due <= target {
		t := heap.Pop(&s.queue).(*Timer)
		fn := t.fn
		t.fn = nil
		if fn == nil {
			continue
		}
		if t.due > s.now {
			s.now = t.due
		}
		fn()
		fired++
	}
	s.now = target
	return fired
}

type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
