package render

import (
	"sync"
	"time"
)

// Deadline reports how much of the idle period is left to the work.
type Deadline interface {
	TimeRemaining() time.Duration
}

// Idler runs work when host is not busy. Returned function cancels work
// which has not started yet.
type Idler interface {
	ScheduleLowPriority(work func(Deadline), budget time.Duration) (cancel func())
}

// Timer is a stoppable pending call.
type Timer interface {
	Stop() bool
}

// Clock abstracts time for the scheduler.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock uses package time.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type deadline struct {
	clock Clock
	end   time.Time
}

func (d deadline) TimeRemaining() time.Duration {
	if left := d.end.Sub(d.clock.Now()); left > 0 {
		return left
	}
	return 0
}

// TimerIdler approximates idle callbacks with a short delay: work runs after
// Delay and gets budget counted from its start.
type TimerIdler struct {
	Clock Clock
	Delay time.Duration
}

func NewTimerIdler(clock Clock, delay time.Duration) *TimerIdler {
	if clock == nil {
		clock = RealClock{}
	}
	return &TimerIdler{Clock: clock, Delay: delay}
}

func (ti *TimerIdler) ScheduleLowPriority(work func(Deadline), budget time.Duration) func() {
	var (
		mu       sync.Mutex
		canceled bool
	)
	t := ti.Clock.AfterFunc(ti.Delay, func() {
		mu.Lock()
		stop := canceled
		mu.Unlock()
		if stop {
			return
		}
		work(deadline{clock: ti.Clock, end: ti.Clock.Now().Add(budget)})
	})
	return func() {
		mu.Lock()
		canceled = true
		mu.Unlock()
		t.Stop()
	}
}
