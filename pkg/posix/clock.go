package posix

import (
	"math/rand"
	"sync"
	"time"
)

// TimeStrLayout is the TimeStr format.
const TimeStrLayout = "2006-01-02 15:04:05.000"

// clock keeps uptime on the monotonic clock and the settable UTC clock as an
// offset from the monotonic reading taken at the last set.
type clock struct {
	boot time.Time

	mu      sync.Mutex
	utcBase int64
	utcAt   time.Time
	rng     *rand.Rand
}

func (c *clock) init(seed uint32) {
	now := time.Now()
	c.boot = now
	c.utcBase = now.UnixMilli()
	c.utcAt = now

	s := int64(seed)
	if seed == 0 {
		s = now.UnixNano()
	}
	c.rng = rand.New(rand.NewSource(s))
}

// UptimeMs implements hal.Clock.
func (p *Platform) UptimeMs() uint64 {
	return uint64(time.Since(p.clock.boot).Milliseconds())
}

// SleepMs implements hal.Clock.
func (p *Platform) SleepMs(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// UTCSet implements hal.Clock.
func (p *Platform) UTCSet(ms int64) {
	p.clock.mu.Lock()
	p.clock.utcBase = ms
	p.clock.utcAt = time.Now()
	p.clock.mu.Unlock()
}

// UTCGet implements hal.Clock.
func (p *Platform) UTCGet() int64 {
	p.clock.mu.Lock()
	defer p.clock.mu.Unlock()
	return p.clock.utcBase + time.Since(p.clock.utcAt).Milliseconds()
}

// TimeStr implements hal.Clock.
func (p *Platform) TimeStr() string {
	return time.UnixMilli(p.UTCGet()).UTC().Format(TimeStrLayout)
}

// Srandom implements hal.Clock. Equal seeds yield equal sequences across
// runs.
func (p *Platform) Srandom(seed uint32) {
	p.clock.mu.Lock()
	p.clock.rng = rand.New(rand.NewSource(int64(seed)))
	p.clock.mu.Unlock()
}

// Random implements hal.Clock. Not suitable for cryptographic use.
func (p *Platform) Random(region uint32) uint32 {
	if region == 0 {
		return 0
	}
	p.clock.mu.Lock()
	defer p.clock.mu.Unlock()
	return uint32(p.clock.rng.Int63n(int64(region)))
}
