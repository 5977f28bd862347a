package posix

import (
	"time"

	"github.com/bft-labs/halport/internal/handle"
	"github.com/bft-labs/halport/pkg/hal"
)

// mutex holds a token in lock while locked. done is closed on destroy so
// blocked lockers can leave.
type mutex struct {
	lock chan struct{}
	done chan struct{}
}

// semaphore keeps its count as the number of queued tokens.
type semaphore struct {
	count chan struct{}
	done  chan struct{}
}

// MutexCreate implements hal.Sync.
func (p *Platform) MutexCreate() (hal.Mutex, error) {
	id, err := p.mutexes.Insert(&mutex{
		lock: make(chan struct{}, 1),
		done: make(chan struct{}),
	})
	if err != nil {
		return 0, exhausted("MutexCreate", err)
	}
	p.metrics.setHandles("mutex", p.mutexes.Len())
	return hal.Mutex(id), nil
}

// MutexDestroy implements hal.Sync.
func (p *Platform) MutexDestroy(m hal.Mutex) error {
	mu, ok := p.mutexes.Get(handle.ID(m))
	if !ok {
		return invalidHandle("MutexDestroy")
	}

	// Take the lock so nobody else can; failing means it is held.
	select {
	case mu.lock <- struct{}{}:
	default:
		return hal.Errorf(hal.InvalidArgument, "MutexDestroy", "mutex is locked", nil)
	}

	if _, ok := p.mutexes.Remove(handle.ID(m)); !ok {
		<-mu.lock
		return invalidHandle("MutexDestroy")
	}
	close(mu.done)
	p.metrics.setHandles("mutex", p.mutexes.Len())
	return nil
}

// MutexLock implements hal.Sync.
func (p *Platform) MutexLock(m hal.Mutex) error {
	mu, ok := p.mutexes.Get(handle.ID(m))
	if !ok {
		return invalidHandle("MutexLock")
	}
	select {
	case mu.lock <- struct{}{}:
		return nil
	case <-mu.done:
		return invalidHandle("MutexLock")
	}
}

// MutexUnlock implements hal.Sync.
func (p *Platform) MutexUnlock(m hal.Mutex) error {
	mu, ok := p.mutexes.Get(handle.ID(m))
	if !ok {
		return invalidHandle("MutexUnlock")
	}
	select {
	case <-mu.lock:
		return nil
	default:
		return hal.Errorf(hal.InvalidArgument, "MutexUnlock", "mutex is not locked", nil)
	}
}

// SemaphoreCreate implements hal.Sync.
func (p *Platform) SemaphoreCreate() (hal.Semaphore, error) {
	id, err := p.semaphores.Insert(&semaphore{
		count: make(chan struct{}, p.cfg.SemaphoreMax),
		done:  make(chan struct{}),
	})
	if err != nil {
		return 0, exhausted("SemaphoreCreate", err)
	}
	p.metrics.setHandles("semaphore", p.semaphores.Len())
	return hal.Semaphore(id), nil
}

// SemaphoreDestroy implements hal.Sync.
func (p *Platform) SemaphoreDestroy(s hal.Semaphore) error {
	sem, ok := p.semaphores.Remove(handle.ID(s))
	if !ok {
		return invalidHandle("SemaphoreDestroy")
	}
	close(sem.done)
	p.metrics.setHandles("semaphore", p.semaphores.Len())
	return nil
}

// SemaphoreWait implements hal.Sync.
func (p *Platform) SemaphoreWait(s hal.Semaphore, timeoutMs uint32) error {
	sem, ok := p.semaphores.Get(handle.ID(s))
	if !ok {
		return invalidHandle("SemaphoreWait")
	}

	switch timeoutMs {
	case hal.WaitInfinite:
		select {
		case <-sem.count:
			return nil
		case <-sem.done:
			return invalidHandle("SemaphoreWait")
		}

	case 0:
		select {
		case <-sem.count:
			return nil
		case <-sem.done:
			return invalidHandle("SemaphoreWait")
		default:
			p.metrics.semaphoreTimeout()
			return hal.ErrTimeout
		}
	}

	t := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
	defer t.Stop()

	select {
	case <-sem.count:
		return nil
	case <-sem.done:
		return invalidHandle("SemaphoreWait")
	case <-t.C:
		// A post racing the deadline still counts.
		select {
		case <-sem.count:
			return nil
		default:
		}
		p.metrics.semaphoreTimeout()
		return hal.ErrTimeout
	}
}

// SemaphorePost implements hal.Sync.
func (p *Platform) SemaphorePost(s hal.Semaphore) error {
	sem, ok := p.semaphores.Get(handle.ID(s))
	if !ok {
		return invalidHandle("SemaphorePost")
	}
	select {
	case sem.count <- struct{}{}:
		return nil
	default:
		return hal.Errorf(hal.Failure, "SemaphorePost", "count at maximum", nil)
	}
}
