package posix

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/halport/internal/handle"
	"github.com/bft-labs/halport/pkg/hal"
	"github.com/bft-labs/halport/pkg/kvstore"
	"github.com/bft-labs/halport/pkg/lifecycle"
	"github.com/bft-labs/halport/pkg/log"
)

// Platform implements hal.Platform on a hosted OS.
//
// Synchronization, threads, timers, memory, clock and network facades are
// usable right after New. The key-value store needs Init.
type Platform struct {
	cfg     Config
	opts    options
	logger  log.Logger
	metrics *metrics
	life    *lifecycle.DefaultManager

	mutexes    *handle.Arena[*mutex]
	semaphores *handle.Arena[*semaphore]
	threads    *handle.Arena[*thread]
	timers     *handle.Arena[*timer]

	kv *kvstore.Store

	heap  heap
	clock clock

	mu        sync.Mutex
	consoleMu sync.Mutex
}

// New creates a Platform with the given configuration.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Platform, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	m, err := newMetrics(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	logger := log.Component(o.logger, "posix")

	backend := o.kvBackend
	if backend == nil {
		backend = kvstore.NewFileBackend(cfg.DataDir, o.logger)
	}
	kv := kvstore.New(backend, cfg.KV, o.logger)
	if m != nil {
		kv.SetObserver(m)
		kv.SetEventEmitter(m.lifecycleEmitter("kvstore"))
	}

	p := &Platform{
		cfg:        cfg,
		opts:       o,
		logger:     logger,
		metrics:    m,
		life:       lifecycle.NewManager(logger, m.lifecycleEmitter("platform")),
		mutexes:    handle.NewArena[*mutex](cfg.MaxHandles),
		semaphores: handle.NewArena[*semaphore](cfg.MaxHandles),
		threads:    handle.NewArena[*thread](cfg.MaxHandles),
		timers:     handle.NewArena[*timer](cfg.MaxHandles),
		kv:         kv,
	}
	p.heap.init(cfg.HeapLimit, cfg.AbortOnExhaustion, o.fatal, m, logger)
	p.clock.init(cfg.RandomSeed)
	return p, nil
}

// Init brings up the key-value store.
func (p *Platform) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.life.CanStart() {
		return lifecycle.ErrAlreadyRunning
	}
	if err := p.life.TransitionTo(lifecycle.StateStarting, "Init() called"); err != nil {
		return err
	}
	if err := p.kv.Init(ctx); err != nil {
		_ = p.life.TransitionTo(lifecycle.StateCrashed, "kv init failed")
		return fmt.Errorf("init kv store: %w", err)
	}
	if err := p.life.TransitionTo(lifecycle.StateRunning, "initialized"); err != nil {
		return err
	}
	p.logger.Info("platform initialized",
		log.String("data_dir", p.cfg.DataDir),
		log.Int("max_handles", p.cfg.MaxHandles),
	)
	return nil
}

// Shutdown deletes all timers and flushes and stops the key-value store.
// Threads are not waited for.
func (p *Platform) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.life.CanStop() {
		return nil
	}
	if err := p.life.TransitionTo(lifecycle.StateStopping, "Shutdown() called"); err != nil {
		return err
	}

	var ids []hal.Timer
	p.timers.Each(func(id handle.ID, _ *timer) { ids = append(ids, hal.Timer(id)) })
	for _, id := range ids {
		_ = p.TimerDelete(id)
	}

	err := p.kv.Shutdown(ctx)
	if n := p.threads.Len(); n > 0 {
		p.logger.Warn("threads still running at shutdown", log.Int("threads", n))
	}

	_ = p.life.TransitionTo(lifecycle.StateStopped, "shutdown complete")
	p.logger.Info("platform stopped")
	return err
}

// State returns the current lifecycle state.
func (p *Platform) State() lifecycle.State {
	return p.life.State()
}

// Config returns the effective configuration.
func (p *Platform) Config() Config {
	return p.cfg
}

// KVStore returns the underlying key-value store for tooling.
func (p *Platform) KVStore() *kvstore.Store {
	return p.kv
}

// KvSet implements hal.KV.
func (p *Platform) KvSet(key string, value []byte, sync bool) error {
	return p.kv.Set(context.Background(), key, value, sync)
}

// KvGet implements hal.KV.
func (p *Platform) KvGet(key string, buf []byte) (int, error) {
	return p.kv.Get(key, buf)
}

// KvDel implements hal.KV.
func (p *Platform) KvDel(key string) error {
	return p.kv.Del(context.Background(), key)
}

func invalidHandle(op string) error {
	return hal.ErrInvalidHandle.WithOp(op)
}

func exhausted(op string, err error) error {
	if errors.Is(err, handle.ErrExhausted) {
		return hal.Errorf(hal.AllocationFailure, op, "handle limit reached", err)
	}
	return hal.Errorf(hal.Failure, op, "", err)
}

var _ hal.Platform = (*Platform)(nil)
