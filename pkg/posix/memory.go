package posix

import (
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/bft-labs/halport/pkg/hal"
	"github.com/bft-labs/halport/pkg/log"
)

// heap accounts for blocks handed out by the memory facade. Blocks are Go
// slices keyed by the address of their first byte.
type heap struct {
	mu    sync.Mutex
	live  map[*byte]uint32
	used  uint64
	limit uint64

	abort   bool
	fatal   func(error)
	metrics *metrics
	logger  log.Logger
}

func (h *heap) init(limit uint64, abort bool, fatal func(error), m *metrics, logger log.Logger) {
	h.live = make(map[*byte]uint32)
	h.limit = limit
	h.abort = abort
	h.fatal = fatal
	h.metrics = m
	h.logger = log.Component(logger, "posix.heap")
}

func base(b []byte) *byte {
	if cap(b) == 0 {
		return nil
	}
	return unsafe.SliceData(b[:1])
}

// reserve accounts n more bytes, releasing old bytes first.
func (h *heap) reserve(op string, old, n uint64) error {
	h.mu.Lock()
	next := h.used - old + n
	if h.limit > 0 && next > h.limit {
		h.mu.Unlock()
		err := hal.Errorf(hal.AllocationFailure, op,
			fmt.Sprintf("heap limit %d bytes reached (%d live, %d requested)", h.limit, h.used, n), nil)
		if h.abort {
			h.fatal(err)
		}
		return err
	}
	h.used = next
	h.mu.Unlock()
	return nil
}

func (h *heap) track(b []byte) {
	if len(b) == 0 {
		return
	}
	h.mu.Lock()
	h.live[base(b)] = uint32(len(b))
	used := h.used
	h.mu.Unlock()
	h.metrics.setHeap(used)
}

func (h *heap) alloc(op string, n uint32) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	if err := h.reserve(op, 0, uint64(n)); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	h.track(b)
	return b, nil
}

// release drops b from the books. It returns false for nil, empty and
// untracked slices.
func (h *heap) release(b []byte) bool {
	p := base(b)
	if p == nil {
		return false
	}
	h.mu.Lock()
	n, ok := h.live[p]
	if ok {
		delete(h.live, p)
		h.used -= uint64(n)
	}
	used := h.used
	h.mu.Unlock()
	if ok {
		h.metrics.setHeap(used)
	}
	return ok
}

func (h *heap) size(b []byte) (uint32, bool) {
	p := base(b)
	if p == nil {
		return 0, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.live[p]
	return n, ok
}

// HeapInUse returns the live bytes allocated through the memory facade.
func (p *Platform) HeapInUse() uint64 {
	p.heap.mu.Lock()
	defer p.heap.mu.Unlock()
	return p.heap.used
}

// Malloc implements hal.Memory.
func (p *Platform) Malloc(size uint32) ([]byte, error) {
	return p.heap.alloc("Malloc", size)
}

// Calloc implements hal.Memory.
func (p *Platform) Calloc(nmemb, size uint32) ([]byte, error) {
	total := uint64(nmemb) * uint64(size)
	if total > math.MaxUint32 {
		return nil, hal.Errorf(hal.AllocationFailure, "Calloc",
			fmt.Sprintf("%d * %d overflows", nmemb, size), nil)
	}
	// make zeroes the block.
	return p.heap.alloc("Calloc", uint32(total))
}

// Realloc implements hal.Memory.
func (p *Platform) Realloc(b []byte, size uint32) ([]byte, error) {
	if b == nil {
		return p.heap.alloc("Realloc", size)
	}
	if size == 0 {
		p.Free(b)
		return nil, nil
	}

	old, ok := p.heap.size(b)
	if !ok && len(b) > 0 {
		return nil, hal.Errorf(hal.InvalidArgument, "Realloc", "block not allocated by this heap", nil)
	}
	if err := p.heap.reserve("Realloc", uint64(old), uint64(size)); err != nil {
		return nil, err
	}

	nb := make([]byte, size)
	copy(nb, b)

	p.heap.mu.Lock()
	if pb := base(b); pb != nil {
		delete(p.heap.live, pb)
	}
	p.heap.mu.Unlock()
	p.heap.track(nb)
	return nb, nil
}

// Free implements hal.Memory.
func (p *Platform) Free(b []byte) {
	if b == nil {
		return
	}
	if !p.heap.release(b) && len(b) > 0 {
		p.heap.logger.Debug("free of untracked block ignored", log.Int("len", len(b)))
	}
}
