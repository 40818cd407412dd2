package timeutil

import (
	"sync"
	"time"
)

// Virtual is a deterministic Scheduler for tests. Time only moves when
// Advance is called; due callbacks run synchronously on the advancing
// goroutine, in deadline order, with ties broken by scheduling order.
type Virtual struct {
	mu      sync.Mutex
	now     time.Time
	nextSeq int
	pending []*virtualJob
}

type virtualJob struct {
	when    time.Time
	seq     int
	fn      func()
	period  time.Duration // 0 for one-shot timers
	stopped bool
	sched   *Virtual
}

// NewVirtual creates a virtual scheduler starting at the given time.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now implements Scheduler.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// AfterFunc implements Scheduler.
func (v *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.schedule(d, f, 0)
}

// TickFunc implements Scheduler.
func (v *Virtual) TickFunc(d time.Duration, f func()) Ticker {
	v.mu.Lock()
	defer v.mu.Unlock()
	return tickerAdapter{v.schedule(d, f, d)}
}

// schedule registers a job. Caller holds the lock.
func (v *Virtual) schedule(d time.Duration, f func(), period time.Duration) *virtualJob {
	job := &virtualJob{
		when:   v.now.Add(d),
		seq:    v.nextSeq,
		fn:     f,
		period: period,
		sched:  v,
	}
	v.nextSeq++
	v.pending = append(v.pending, job)
	return job
}

// Advance moves virtual time forward by d, firing every due callback in
// order. Callbacks may schedule further work; anything falling within the
// window fires in the same call.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)

	for {
		job := v.nextDue(target)
		if job == nil {
			break
		}
		v.now = job.when
		if job.period > 0 {
			job.when = job.when.Add(job.period)
		} else {
			job.stopped = true
			v.remove(job)
		}

		// Run without the lock so callbacks can schedule or stop jobs.
		v.mu.Unlock()
		job.fn()
		v.mu.Lock()
	}

	v.now = target
	v.mu.Unlock()
}

// nextDue returns the earliest pending job at or before target.
// Caller holds the lock.
func (v *Virtual) nextDue(target time.Time) *virtualJob {
	var due *virtualJob
	for _, job := range v.pending {
		if job.stopped || job.when.After(target) {
			continue
		}
		if due == nil || job.when.Before(due.when) ||
			(job.when.Equal(due.when) && job.seq < due.seq) {
			due = job
		}
	}
	return due
}

// remove deletes a job from the pending list. Caller holds the lock.
func (v *Virtual) remove(job *virtualJob) {
	for i, j := range v.pending {
		if j == job {
			v.pending = append(v.pending[:i], v.pending[i+1:]...)
			return
		}
	}
}

// PendingCount returns the number of live scheduled jobs, for leak checks.
func (v *Virtual) PendingCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, job := range v.pending {
		if !job.stopped {
			n++
		}
	}
	return n
}

// Stop implements Timer.
func (j *virtualJob) Stop() bool {
	j.sched.mu.Lock()
	defer j.sched.mu.Unlock()

	if j.stopped {
		return false
	}
	j.stopped = true
	j.sched.remove(j)
	return true
}

var (
	_ Timer  = (*virtualJob)(nil)
	_ Ticker = tickerAdapter{}
)

// tickerAdapter adapts virtualJob's Stop() bool to the Ticker interface.
type tickerAdapter struct {
	job *virtualJob
}

func (t tickerAdapter) Stop() {
	t.job.Stop()
}
