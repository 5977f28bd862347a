package iotimport

import (
	"context"

	"github.com/bft-labs/halport/pkg/hal"
	"github.com/bft-labs/halport/pkg/log"
)

// HAL adapts a hal.Platform.
type HAL struct {
	p      hal.Platform
	logger log.Logger
}

// New wraps p. A nil logger discards messages.
func New(p hal.Platform, logger log.Logger) *HAL {
	return &HAL{p: p, logger: log.Component(logger, "iotimport")}
}

// Platform returns the wrapped platform.
func (h *HAL) Platform() hal.Platform { return h.p }

func (h *HAL) ret(op string, err error) int {
	if err != nil {
		h.logger.Debug("call failed", log.String("op", op), log.Err(err))
	}
	return hal.ReturnCode(err)
}

func (h *HAL) warn(op string, err error) {
	if err != nil {
		h.logger.Warn("call failed", log.String("op", op), log.Err(err))
	}
}

// cstr copies s into buf as a NUL-terminated string, truncating as needed,
// and returns the bytes written before the NUL.
func cstr(buf []byte, s string) []byte {
	if len(buf) == 0 {
		return nil
	}
	n := copy(buf[:len(buf)-1], s)
	buf[n] = 0
	return buf[:n]
}

// MutexCreate returns zero on failure.
func (h *HAL) MutexCreate() hal.Mutex {
	m, err := h.p.MutexCreate()
	h.warn("MutexCreate", err)
	return m
}

func (h *HAL) MutexDestroy(m hal.Mutex) { h.warn("MutexDestroy", h.p.MutexDestroy(m)) }
func (h *HAL) MutexLock(m hal.Mutex)    { h.warn("MutexLock", h.p.MutexLock(m)) }
func (h *HAL) MutexUnlock(m hal.Mutex)  { h.warn("MutexUnlock", h.p.MutexUnlock(m)) }

// ThreadCreate stores the new handle in *thread and whether params.Stack was
// used in *stackUsed (0 or 1). Either pointer may be nil.
func (h *HAL) ThreadCreate(thread *hal.Thread, fn hal.ThreadFunc, arg any, params *hal.ThreadParams, stackUsed *int) int {
	t, used, err := h.p.ThreadCreate(fn, arg, params)
	if thread != nil {
		*thread = t
	}
	if stackUsed != nil {
		*stackUsed = 0
		if used {
			*stackUsed = 1
		}
	}
	return h.ret("ThreadCreate", err)
}

func (h *HAL) ThreadDetach(t hal.Thread) { h.warn("ThreadDetach", h.p.ThreadDetach(t)) }

// ThreadDelete terminates t. With hal.ThreadSelf, ctx must be the context
// the calling thread was started with; the call then does not return.
func (h *HAL) ThreadDelete(ctx context.Context, t hal.Thread) {
	h.warn("ThreadDelete", h.p.ThreadDelete(ctx, t))
}

// SemaphoreCreate returns zero on failure.
func (h *HAL) SemaphoreCreate() hal.Semaphore {
	s, err := h.p.SemaphoreCreate()
	h.warn("SemaphoreCreate", err)
	return s
}

func (h *HAL) SemaphoreDestroy(s hal.Semaphore) { h.warn("SemaphoreDestroy", h.p.SemaphoreDestroy(s)) }
func (h *HAL) SemaphorePost(s hal.Semaphore)    { h.warn("SemaphorePost", h.p.SemaphorePost(s)) }

// SemaphoreWait returns 0 when signaled and -1 on timeout or error.
func (h *HAL) SemaphoreWait(s hal.Semaphore, timeoutMs uint32) int {
	return h.ret("SemaphoreWait", h.p.SemaphoreWait(s, timeoutMs))
}

// Malloc returns nil on failure.
func (h *HAL) Malloc(size uint32) []byte {
	b, err := h.p.Malloc(size)
	h.warn("Malloc", err)
	return b
}

// Realloc returns nil on failure, leaving b allocated.
func (h *HAL) Realloc(b []byte, size uint32) []byte {
	nb, err := h.p.Realloc(b, size)
	h.warn("Realloc", err)
	return nb
}

// Calloc returns nil on failure.
func (h *HAL) Calloc(nmemb, size uint32) []byte {
	b, err := h.p.Calloc(nmemb, size)
	h.warn("Calloc", err)
	return b
}

func (h *HAL) Free(b []byte) { h.p.Free(b) }

func (h *HAL) UptimeMs() uint64            { return h.p.UptimeMs() }
func (h *HAL) SleepMs(ms uint32)           { h.p.SleepMs(ms) }
func (h *HAL) Srandom(seed uint32)         { h.p.Srandom(seed) }
func (h *HAL) Random(region uint32) uint32 { return h.p.Random(region) }
func (h *HAL) UTCSet(ms int64)             { h.p.UTCSet(ms) }
func (h *HAL) UTCGet() int64               { return h.p.UTCGet() }

// GetTimeStr writes the wall-clock time into buf and returns the written
// prefix.
func (h *HAL) GetTimeStr(buf []byte) []byte {
	return cstr(buf, h.p.TimeStr())
}

func (h *HAL) Printf(format string, args ...any) { h.p.Printf(format, args...) }

// Snprintf returns the untruncated output length.
func (h *HAL) Snprintf(str []byte, format string, args ...any) int {
	return h.p.Snprintf(str, format, args...)
}

// Vsnprintf returns the untruncated output length.
func (h *HAL) Vsnprintf(str []byte, format string, args []any) int {
	return h.p.Vsnprintf(str, format, args)
}

// WifiGetMac fills mac with the NUL-terminated MAC text and returns it, or
// an empty string on failure.
func (h *HAL) WifiGetMac(mac *[hal.MacLen]byte) string {
	s, err := h.p.WifiGetMac()
	if err != nil {
		h.warn("WifiGetMac", err)
		mac[0] = 0
		return ""
	}
	return string(cstr(mac[:], s))
}

// WifiGetIP fills ip with the dotted address of ifname and returns the
// address as a uint32 whose big-endian encoding is the address, or 0 on
// failure.
func (h *HAL) WifiGetIP(ip *[hal.NetworkAddrLen]byte, ifname string) uint32 {
	addr, v, err := h.p.WifiGetIP(ifname)
	if err != nil {
		h.warn("WifiGetIP", err)
		ip[0] = 0
		return 0
	}
	*ip = addr.Addr
	return v
}

// SysNetIsReady returns 1 when the network is ready and 0 otherwise.
func (h *HAL) SysNetIsReady() int {
	if h.p.NetIsReady() {
		return 1
	}
	return 0
}

// GetNetifInfo writes the NUL-terminated interface description into nif and
// returns its length, or -1 on failure.
func (h *HAL) GetNetifInfo(nif []byte) int {
	s, err := h.p.NetifInfo()
	if err != nil {
		h.warn("GetNetifInfo", err)
		return hal.RetFailure
	}
	return len(cstr(nif, s))
}

func (h *HAL) Reboot() { h.warn("Reboot", h.p.Reboot()) }

// KvSet stores val under key; sync is non-zero for a durable write.
func (h *HAL) KvSet(key string, val []byte, sync int) int {
	return h.ret("KvSet", h.p.KvSet(key, val, sync != 0))
}

// KvGet reads key into buffer. *bufferLen is the capacity on input, limited
// to len(buffer), and the value length on output. A short buffer returns
// hal.RetBufferTooSmall with *bufferLen set to the required size; an unknown
// key returns hal.RetNotFound.
func (h *HAL) KvGet(key string, buffer []byte, bufferLen *int) int {
	if bufferLen == nil || *bufferLen < 0 {
		return hal.RetFailure
	}
	capacity := *bufferLen
	if capacity > len(buffer) {
		capacity = len(buffer)
	}
	n, err := h.p.KvGet(key, buffer[:capacity])
	if err == nil || hal.ReturnCode(err) == hal.RetBufferTooSmall {
		*bufferLen = n
	}
	return h.ret("KvGet", err)
}

func (h *HAL) KvDel(key string) int {
	return h.ret("KvDel", h.p.KvDel(key))
}

// TimerCreate returns zero on failure.
func (h *HAL) TimerCreate(name string, fn func(userData any), userData any) hal.Timer {
	t, err := h.p.TimerCreate(name, fn, userData)
	h.warn("TimerCreate", err)
	return t
}

// TimerStart arms a one-shot fire after ms milliseconds.
func (h *HAL) TimerStart(t hal.Timer, ms int) int {
	return h.ret("TimerStart", h.p.TimerStart(t, ms))
}

func (h *HAL) TimerStop(t hal.Timer) int {
	return h.ret("TimerStop", h.p.TimerStop(t))
}

func (h *HAL) TimerDelete(t hal.Timer) int {
	return h.ret("TimerDelete", h.p.TimerDelete(t))
}
