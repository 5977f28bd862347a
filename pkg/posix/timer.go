package posix

import (
	"sync"
	"time"

	"github.com/bft-labs/halport/internal/handle"
	"github.com/bft-labs/halport/pkg/hal"
	"github.com/bft-labs/halport/pkg/log"
)

// timer wraps a runtime timer. seq identifies the current arming; a fire
// whose seq is stale was cancelled by Stop, Start or Delete and does nothing.
type timer struct {
	name string
	fn   hal.TimerFunc
	data any

	mu       sync.Mutex
	rt       *time.Timer
	seq      uint64
	periodic bool
	period   time.Duration
	deleted  bool

	inflight sync.WaitGroup
}

// TimerCreate implements hal.Timers.
func (p *Platform) TimerCreate(name string, fn hal.TimerFunc, userData any) (hal.Timer, error) {
	if fn == nil {
		return 0, hal.Errorf(hal.InvalidArgument, "TimerCreate", "nil callback", nil)
	}
	id, err := p.timers.Insert(&timer{name: name, fn: fn, data: userData})
	if err != nil {
		return 0, exhausted("TimerCreate", err)
	}
	p.metrics.setHandles("timer", p.timers.Len())
	return hal.Timer(id), nil
}

// TimerStart implements hal.Timers.
func (p *Platform) TimerStart(t hal.Timer, periodMs int) error {
	return p.startTimer("TimerStart", t, periodMs, false)
}

// TimerStartPeriodic implements hal.Timers.
func (p *Platform) TimerStartPeriodic(t hal.Timer, periodMs int) error {
	return p.startTimer("TimerStartPeriodic", t, periodMs, true)
}

func (p *Platform) startTimer(op string, t hal.Timer, periodMs int, periodic bool) error {
	if periodMs <= 0 {
		return hal.Errorf(hal.InvalidArgument, op, "period must be positive", nil)
	}
	tm, ok := p.timers.Get(handle.ID(t))
	if !ok {
		return invalidHandle(op)
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.deleted {
		return invalidHandle(op)
	}
	tm.disarmLocked()
	tm.periodic = periodic
	tm.period = time.Duration(periodMs) * time.Millisecond
	p.armLocked(tm)
	return nil
}

// armLocked must be called with tm.mu held.
func (p *Platform) armLocked(tm *timer) {
	seq := tm.seq
	tm.rt = time.AfterFunc(tm.period, func() { p.fire(tm, seq) })
}

// disarmLocked must be called with tm.mu held.
func (tm *timer) disarmLocked() {
	tm.seq++
	if tm.rt != nil {
		tm.rt.Stop()
		tm.rt = nil
	}
}

func (p *Platform) fire(tm *timer, seq uint64) {
	tm.mu.Lock()
	if tm.deleted || tm.seq != seq {
		tm.mu.Unlock()
		return
	}
	tm.inflight.Add(1)
	tm.mu.Unlock()
	defer tm.inflight.Done()

	checkLifetime(tm.name, tm.data)
	tm.fn(tm.data)
	p.metrics.timerFired()

	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.seq != seq || tm.deleted {
		// Stopped or restarted from inside the callback.
		return
	}
	if tm.periodic {
		p.armLocked(tm)
		return
	}
	tm.rt = nil
}

// TimerStop implements hal.Timers.
func (p *Platform) TimerStop(t hal.Timer) error {
	tm, ok := p.timers.Get(handle.ID(t))
	if !ok {
		return invalidHandle("TimerStop")
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.deleted {
		return invalidHandle("TimerStop")
	}
	tm.disarmLocked()
	return nil
}

// TimerDelete implements hal.Timers. It blocks until an in-flight callback
// returns, so it must not be called from that callback.
func (p *Platform) TimerDelete(t hal.Timer) error {
	tm, ok := p.timers.Remove(handle.ID(t))
	if !ok {
		return invalidHandle("TimerDelete")
	}
	p.metrics.setHandles("timer", p.timers.Len())

	tm.mu.Lock()
	tm.deleted = true
	tm.disarmLocked()
	tm.mu.Unlock()

	tm.inflight.Wait()
	p.logger.Debug("timer deleted", log.String("name", tm.name))
	return nil
}
