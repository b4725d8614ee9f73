// Package sched provides a single-threaded cooperative task scheduler.
// Tasks are one-shot or repeating deferred callbacks driven by repeated
// polling via Tick. Nothing blocks: callbacks run to completion inside the
// tick that observes them due. Time is always injected, never read from the
// wall clock, so the scheduler is fully deterministic under test.
package sched

import (
	"sort"
	"time"
)

// Callback is invoked when a task comes due. now is the time of the tick
// that fired the task. For repeating tasks the return value decides whether
// the task stays scheduled (true = keep repeating); one-shot tasks ignore it.
type Callback func(now time.Time) bool

// Task is an opaque handle to a scheduled callback. Handles stay valid after
// the task fires or is cancelled; cancelling such a handle is a no-op.
type Task struct {
	callback  Callback
	due       time.Time
	interval  time.Duration
	repeat    bool
	seq       uint64
	cancelled bool
}

// Scheduler executes one-shot and repeating deferred callbacks. It is not
// safe for concurrent use: all scheduling, cancellation and ticking must
// happen on the single control-loop goroutine.
type Scheduler struct {
	clock func() time.Time
	tasks []*Task
	seq   uint64
}

// New creates a Scheduler that reads the current time from clock.
func New(clock func() time.Time) *Scheduler {
	return &Scheduler{clock: clock}
}

// ScheduleOnce schedules fn to run once after delay.
func (s *Scheduler) ScheduleOnce(delay time.Duration, fn Callback) *Task {
	return s.add(delay, 0, false, fn)
}

// ScheduleRepeating schedules fn to run every interval, first firing after
// one interval. A zero interval fires on every tick.
func (s *Scheduler) ScheduleRepeating(interval time.Duration, fn Callback) *Task {
	return s.add(interval, interval, true, fn)
}

func (s *Scheduler) add(delay, interval time.Duration, repeat bool, fn Callback) *Task {
	s.seq++
	t := &Task{
		callback: fn,
		due:      s.clock().Add(delay),
		interval: interval,
		repeat:   repeat,
		seq:      s.seq,
	}
	s.tasks = append(s.tasks, t)
	return t
}

// Cancel removes a task. A cancelled task is guaranteed not to fire on any
// subsequent tick, even if it is already due. Cancelling a nil handle, an
// already-cancelled task, or a one-shot that has already fired is a no-op.
func (s *Scheduler) Cancel(t *Task) {
	if t == nil {
		return
	}
	t.cancelled = true
}

// CancelAll cancels every outstanding task.
func (s *Scheduler) CancelAll() {
	for _, t := range s.tasks {
		t.cancelled = true
	}
	s.tasks = nil
}

// Len returns the number of outstanding (not yet cancelled or fired) tasks.
func (s *Scheduler) Len() int {
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Tick runs every task due at the time of the call, in non-decreasing
// due-time order with ties broken by registration order. Each due task runs
// exactly once per tick: tasks scheduled or re-armed by a callback are not
// examined again until the next tick. Repeating tasks whose callback returns
// true are re-armed for due+interval (not now+interval) so drift does not
// compound; a zero-interval repeating task therefore fires on every tick.
// Returns the number of callbacks invoked.
func (s *Scheduler) Tick() int {
	now := s.clock()

	// Snapshot the due set before running anything. Due-time comparison is a
	// signed difference, safe against any underlying counter representation.
	var due []*Task
	for _, t := range s.tasks {
		if !t.cancelled && now.Sub(t.due) >= 0 {
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if !due[i].due.Equal(due[j].due) {
			return due[i].due.Before(due[j].due)
		}
		return due[i].seq < due[j].seq
	})

	fired := 0
	for _, t := range due {
		if t.cancelled {
			// Cancelled by an earlier callback in this same tick.
			continue
		}
		keep := t.callback(now)
		fired++
		if t.cancelled {
			continue
		}
		if t.repeat && keep {
			t.due = t.due.Add(t.interval)
		} else {
			t.cancelled = true
		}
	}

	s.compact()
	return fired
}

// compact drops cancelled and fired tasks from the outstanding list.
func (s *Scheduler) compact() {
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	s.tasks = live
}
