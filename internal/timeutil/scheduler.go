package timeutil

import "time"

// Timer is a cancellable one-shot timer handle.
type Timer interface {
	// Stop cancels the timer. It reports whether the timer was still
	// pending; false means the callback already fired or was stopped.
	Stop() bool
}

// Ticker is a cancellable periodic callback handle.
type Ticker interface {
	// Stop cancels the ticker. No callbacks run after Stop returns on
	// the virtual implementation; the system implementation may deliver
	// one already-in-flight tick.
	Stop()
}

// Scheduler provides the current time and deferred callback execution.
// Components store the handles they create and stop them on every reset
// path; a timer left running against stale state is a defect.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time

	// AfterFunc runs f once after d elapses.
	AfterFunc(d time.Duration, f func()) Timer

	// TickFunc runs f every d until the returned Ticker is stopped.
	TickFunc(d time.Duration, f func()) Ticker
}

// System is the production Scheduler backed by the time package.
type System struct{}

// NewSystem returns the wall-clock scheduler.
func NewSystem() System {
	return System{}
}

// Now implements Scheduler.
func (System) Now() time.Time {
	return time.Now()
}

// AfterFunc implements Scheduler.
func (System) AfterFunc(d time.Duration, f func()) Timer {
	return systemTimer{time.AfterFunc(d, f)}
}

// TickFunc implements Scheduler.
func (System) TickFunc(d time.Duration, f func()) Ticker {
	t := &systemTicker{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go t.run(f)
	return t
}

type systemTimer struct {
	t *time.Timer
}

func (s systemTimer) Stop() bool {
	return s.t.Stop()
}

type systemTicker struct {
	ticker *time.Ticker
	done   chan struct{}
}

func (s *systemTicker) run(f func()) {
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			f()
		}
	}
}

func (s *systemTicker) Stop() {
	s.ticker.Stop()
	close(s.done)
}
