// Package handle implements the generation-checked arena behind every opaque
// HAL handle.
//
// A handle value packs a slot generation in the high 32 bits and the slot
// index plus one in the low 32 bits. Freeing a slot bumps its generation, so a
// stale handle never resolves to the object that later reuses the slot and the
// zero value never resolves at all.
package handle

import (
	"errors"
	"sync"
)

// ErrExhausted is returned by Insert when the arena is at capacity.
var ErrExhausted = errors.New("handle: arena exhausted")

// ID is the packed handle value.
type ID uint64

func pack(gen, idx uint32) ID { return ID(uint64(gen)<<32 | uint64(idx+1)) }

func (id ID) unpack() (gen, idx uint32, ok bool) {
	low := uint32(id)
	if low == 0 {
		return 0, 0, false
	}
	return uint32(id >> 32), low - 1, true
}

type slot[T any] struct {
	gen  uint32
	used bool
	val  T
}

// Arena stores values of one type behind generation-checked IDs.
// It is safe for concurrent use; the lock is held only for slot bookkeeping.
type Arena[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
	limit int
	live  int
}

// NewArena returns an arena holding at most limit live values.
// A limit <= 0 means unbounded.
func NewArena[T any](limit int) *Arena[T] {
	return &Arena[T]{limit: limit}
}

// Insert stores v and returns its ID.
func (a *Arena[T]) Insert(v T) (ID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.limit > 0 && a.live >= a.limit {
		return 0, ErrExhausted
	}

	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		if uint64(len(a.slots)) >= 1<<32-1 {
			return 0, ErrExhausted
		}
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{gen: 1})
	}

	s := &a.slots[idx]
	s.used = true
	s.val = v
	a.live++
	return pack(s.gen, idx), nil
}

// Get resolves id. The second result is false for zero, stale or foreign IDs.
func (a *Arena[T]) Get(id ID) (T, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var zero T
	s := a.lookup(id)
	if s == nil {
		return zero, false
	}
	return s.val, true
}

// Remove frees the slot behind id and returns the value it held.
func (a *Arena[T]) Remove(id ID) (T, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var zero T
	s := a.lookup(id)
	if s == nil {
		return zero, false
	}
	v := s.val
	s.val = zero
	s.used = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	_, idx, _ := id.unpack()
	a.free = append(a.free, idx)
	a.live--
	return v, true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.live
}

// Each calls fn for every live value. fn must not call back into the arena.
func (a *Arena[T]) Each(fn func(ID, T)) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for i := range a.slots {
		s := &a.slots[i]
		if s.used {
			fn(pack(s.gen, uint32(i)), s.val)
		}
	}
}

// lookup must be called with a.mu held.
func (a *Arena[T]) lookup(id ID) *slot[T] {
	gen, idx, ok := id.unpack()
	if !ok || int(idx) >= len(a.slots) {
		return nil
	}
	s := &a.slots[idx]
	if !s.used || s.gen != gen {
		return nil
	}
	return s
}
