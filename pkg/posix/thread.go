package posix

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/bft-labs/halport/internal/handle"
	"github.com/bft-labs/halport/pkg/hal"
	"github.com/bft-labs/halport/pkg/log"
)

type thread struct {
	name     string
	priority hal.Priority
	cancel   context.CancelFunc
	exited   chan struct{}

	mu       sync.Mutex
	finished bool
	detached bool
	joining  bool
}

// niceValue maps a HAL priority to a Unix nice value.
func niceValue(p hal.Priority) int {
	switch p {
	case hal.PriorityIdle:
		return 19
	case hal.PriorityLow:
		return 10
	case hal.PriorityBelowNormal:
		return 5
	case hal.PriorityAboveNormal:
		return -5
	case hal.PriorityHigh:
		return -10
	case hal.PriorityRealtime:
		return -20
	default:
		return 0
	}
}

// ThreadCreate implements hal.Threads. Goroutines always run on runtime
// managed stacks, so stackUsed is always false.
func (p *Platform) ThreadCreate(fn hal.ThreadFunc, arg any, params *hal.ThreadParams) (hal.Thread, bool, error) {
	if fn == nil {
		return 0, false, hal.Errorf(hal.InvalidArgument, "ThreadCreate", "nil thread function", nil)
	}
	var prm hal.ThreadParams
	if params != nil {
		prm = *params
	}
	if !prm.Priority.Valid() {
		return 0, false, hal.Errorf(hal.InvalidArgument, "ThreadCreate", "invalid priority "+prm.Priority.String(), nil)
	}
	if prm.Stack != nil {
		p.logger.Debug("caller stack ignored",
			log.String("thread", prm.Name),
			log.Int("stack_bytes", len(prm.Stack)),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	th := &thread{
		name:     prm.Name,
		priority: prm.Priority,
		cancel:   cancel,
		exited:   make(chan struct{}),
		detached: prm.Detached,
	}
	id, err := p.threads.Insert(th)
	if err != nil {
		cancel()
		return 0, false, exhausted("ThreadCreate", err)
	}
	p.metrics.setHandles("thread", p.threads.Len())

	tid := hal.Thread(id)
	ctx = hal.WithThread(ctx, tid)

	go p.runThread(ctx, tid, th, fn, arg)

	p.logger.Debug("thread created",
		log.Handle("thread", uint64(tid)),
		log.String("name", prm.Name),
		log.String("priority", prm.Priority.String()),
		log.Bool("detached", prm.Detached),
	)
	return tid, false, nil
}

func (p *Platform) runThread(ctx context.Context, tid hal.Thread, th *thread, fn hal.ThreadFunc, arg any) {
	// Runs on return and on runtime.Goexit.
	defer p.threadExited(tid, th)

	if th.priority != hal.PriorityNormal {
		// The OS thread dies with the goroutine, so the nice value never
		// leaks to other goroutines.
		runtime.LockOSThread()
		if err := applyPriority(th.priority); err != nil {
			p.logger.Debug("thread priority not applied",
				log.Handle("thread", uint64(tid)),
				log.String("priority", th.priority.String()),
				log.Err(err),
			)
		}
	}

	fn(ctx, arg)
}

func (p *Platform) threadExited(tid hal.Thread, th *thread) {
	th.cancel()

	th.mu.Lock()
	th.finished = true
	detached := th.detached
	th.mu.Unlock()
	close(th.exited)

	if detached {
		p.releaseThread(tid)
	}
}

func (p *Platform) releaseThread(tid hal.Thread) {
	if _, ok := p.threads.Remove(handle.ID(tid)); ok {
		p.metrics.setHandles("thread", p.threads.Len())
	}
}

// ThreadDetach implements hal.Threads.
func (p *Platform) ThreadDetach(t hal.Thread) error {
	th, ok := p.threads.Get(handle.ID(t))
	if !ok {
		return invalidHandle("ThreadDetach")
	}

	th.mu.Lock()
	if th.detached || th.joining {
		th.mu.Unlock()
		return hal.Errorf(hal.InvalidArgument, "ThreadDetach", "thread is not joinable", nil)
	}
	th.detached = true
	finished := th.finished
	th.mu.Unlock()

	if finished {
		p.releaseThread(t)
	}
	return nil
}

// ThreadJoin implements hal.Threads. A thread joining itself deadlocks.
func (p *Platform) ThreadJoin(t hal.Thread) error {
	th, ok := p.threads.Get(handle.ID(t))
	if !ok {
		return invalidHandle("ThreadJoin")
	}

	th.mu.Lock()
	if th.detached || th.joining {
		th.mu.Unlock()
		return hal.Errorf(hal.InvalidArgument, "ThreadJoin", "thread is not joinable", nil)
	}
	th.joining = true
	th.mu.Unlock()

	<-th.exited
	p.releaseThread(t)
	return nil
}

// ThreadDelete implements hal.Threads.
func (p *Platform) ThreadDelete(ctx context.Context, t hal.Thread) error {
	self, isThread := hal.CurrentThread(ctx)
	if t == hal.ThreadSelf || (isThread && t == self) {
		if !isThread {
			return hal.Errorf(hal.InvalidArgument, "ThreadDelete", "caller is not a HAL thread", nil)
		}
		th, ok := p.threads.Get(handle.ID(self))
		if !ok {
			return invalidHandle("ThreadDelete")
		}
		th.mu.Lock()
		th.detached = th.detached || !th.joining
		th.mu.Unlock()
		runtime.Goexit()
		return nil
	}

	th, ok := p.threads.Get(handle.ID(t))
	if !ok {
		return invalidHandle("ThreadDelete")
	}

	th.mu.Lock()
	if !th.joining {
		th.detached = true
	}
	finished := th.finished
	th.mu.Unlock()

	if finished {
		p.releaseThread(t)
		return nil
	}

	th.cancel()

	timer := time.NewTimer(p.cfg.ThreadDeleteGrace)
	defer timer.Stop()

	select {
	case <-th.exited:
		p.releaseThread(t)
		return nil
	case <-timer.C:
		p.metrics.threadDeleteUnfinished()
		p.logger.Warn("thread did not stop within grace period",
			log.Handle("thread", uint64(t)),
			log.String("name", th.name),
			log.Duration("grace", p.cfg.ThreadDeleteGrace),
		)
		return hal.Errorf(hal.Fatal, "ThreadDelete", "best-effort deletion: thread still running", nil)
	}
}
