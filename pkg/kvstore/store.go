package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bft-labs/halport/pkg/hal"
	"github.com/bft-labs/halport/pkg/lifecycle"
	"github.com/bft-labs/halport/pkg/log"
)

// Observer receives the outcome of every store operation. op is one of
// "set", "set_sync", "get", "del" and "flush".
type Observer interface {
	ObserveKV(op string, err error)
}

const (
	flushRetryInitial = 100 * time.Millisecond
	flushRetryMax     = 10 * time.Second
)

// Store is the persistent key-value store service.
type Store struct {
	backend Backend
	cfg     Config
	logger  log.Logger
	life    *lifecycle.DefaultManager

	// wmu serializes writers: Set, Del, flushes and external reconciliation.
	wmu sync.Mutex

	mu    sync.RWMutex
	cache map[string][]byte
	dirty map[string]struct{}

	kick     chan struct{}
	observer Observer
}

// New creates a Store. It is unusable until Init.
func New(backend Backend, cfg Config, logger log.Logger) *Store {
	cfg.SetDefaults()
	logger = log.Component(logger, "kvstore")
	return &Store{
		backend: backend,
		cfg:     cfg,
		logger:  logger,
		life:    lifecycle.NewManager(logger, nil),
		cache:   make(map[string][]byte),
		dirty:   make(map[string]struct{}),
		kick:    make(chan struct{}, 1),
	}
}

// SetObserver installs an operation observer. Call before Init.
func (s *Store) SetObserver(o Observer) {
	s.observer = o
}

// SetEventEmitter reports the store's lifecycle transitions to e. Call
// before Init.
func (s *Store) SetEventEmitter(e lifecycle.EventEmitter) {
	s.life.SetEventEmitter(e)
}

// State returns the lifecycle state of the store.
func (s *Store) State() lifecycle.State {
	return s.life.State()
}

// Init loads all records and starts the background flusher.
func (s *Store) Init(ctx context.Context) error {
	if !s.life.CanStart() {
		return lifecycle.ErrAlreadyRunning
	}
	if err := s.life.TransitionTo(lifecycle.StateStarting, "init"); err != nil {
		return err
	}

	records, err := s.backend.LoadAll(ctx)
	if err != nil {
		_ = s.life.TransitionTo(lifecycle.StateCrashed, "load failed")
		return fmt.Errorf("load records: %w", err)
	}

	s.mu.Lock()
	s.cache = records
	s.dirty = make(map[string]struct{})
	s.mu.Unlock()

	workerCtx := s.life.WorkerContext(context.Background())
	s.life.Go(workerCtx, "flusher", s.flushLoop)

	if s.cfg.Watch {
		if w, ok := s.backend.(Watchable); ok {
			watcher, err := newDirWatcher(s, w)
			if err != nil {
				s.life.Cancel()
				_ = s.life.WaitWithTimeout(lifecycle.ShutdownTimeout)
				_ = s.life.TransitionTo(lifecycle.StateCrashed, "watch failed")
				return fmt.Errorf("watch records: %w", err)
			}
			s.life.Go(workerCtx, "watcher", watcher.run)
		} else {
			s.logger.Warn("backend does not support watching")
		}
	}

	if err := s.life.TransitionTo(lifecycle.StateRunning, "init complete"); err != nil {
		return err
	}
	s.logger.Info("kv store initialized", log.Int("records", len(records)))
	return nil
}

// Shutdown stops the workers and flushes every pending buffered write.
func (s *Store) Shutdown(ctx context.Context) error {
	if !s.life.CanStop() {
		return nil
	}
	if err := s.life.TransitionTo(lifecycle.StateStopping, "shutdown"); err != nil {
		return err
	}

	s.life.Cancel()
	waitErr := s.life.WaitWithTimeout(lifecycle.ShutdownTimeout)

	flushErr := s.flush(ctx)
	if flushErr != nil {
		s.logger.Error("final flush failed", log.Err(flushErr))
	}

	_ = s.life.TransitionTo(lifecycle.StateStopped, "shutdown complete")
	return errors.Join(waitErr, flushErr)
}

// Set stores value under key. With sync the record is durable on return.
func (s *Store) Set(ctx context.Context, key string, value []byte, sync bool) (err error) {
	op := "set"
	if sync {
		op = "set_sync"
	}
	defer func() { s.observe(op, err) }()

	if err := s.checkKey("KvSet", key); err != nil {
		return err
	}
	if len(value) > s.cfg.ValueMaxLen {
		return hal.Errorf(hal.InvalidArgument, "KvSet", fmt.Sprintf("value length %d exceeds %d", len(value), s.cfg.ValueMaxLen), nil)
	}
	v := append([]byte(nil), value...)

	// Checked under wmu: no write may follow the final flush of Shutdown.
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if !s.life.Ready() {
		return hal.ErrNotReady
	}

	if sync {
		if err := s.backend.Save(ctx, key, v); err != nil {
			return hal.Errorf(hal.Failure, "KvSet", "persist "+key, err)
		}
		s.mu.Lock()
		s.cache[key] = v
		delete(s.dirty, key)
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.cache[key] = v
	s.dirty[key] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Get copies the value for key into buf. It returns the value length; when
// buf is too short that length comes with hal.ErrBufferTooSmall.
func (s *Store) Get(key string, buf []byte) (n int, err error) {
	defer func() { s.observe("get", err) }()

	if err := s.checkKey("KvGet", key); err != nil {
		return 0, err
	}
	if !s.life.Ready() {
		return 0, hal.ErrNotReady
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.cache[key]
	if !ok {
		return 0, hal.ErrNotFound
	}
	if len(buf) < len(v) {
		return len(v), hal.ErrBufferTooSmall
	}
	return copy(buf, v), nil
}

// Lookup returns a copy of the value for key.
func (s *Store) Lookup(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Del removes key durably, discarding a pending buffered write.
func (s *Store) Del(ctx context.Context, key string) (err error) {
	defer func() { s.observe("del", err) }()

	if err := s.checkKey("KvDel", key); err != nil {
		return err
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if !s.life.Ready() {
		return hal.ErrNotReady
	}

	s.mu.RLock()
	_, ok := s.cache[key]
	s.mu.RUnlock()
	if !ok {
		return hal.ErrNotFound
	}

	if err := s.backend.Delete(ctx, key); err != nil {
		return hal.Errorf(hal.Failure, "KvDel", "remove "+key, err)
	}

	s.mu.Lock()
	delete(s.cache, key)
	delete(s.dirty, key)
	s.mu.Unlock()
	return nil
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.cache))
	for k := range s.cache {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Pending returns the number of buffered writes not yet persisted.
func (s *Store) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dirty)
}

// Flush persists all buffered writes now.
func (s *Store) Flush(ctx context.Context) error {
	if !s.life.Ready() {
		return hal.ErrNotReady
	}
	return s.flush(ctx)
}

func (s *Store) checkKey(op, key string) error {
	if len(key) == 0 {
		return hal.Errorf(hal.InvalidArgument, op, "empty key", nil)
	}
	if len(key) > s.cfg.KeyMaxLen {
		return hal.Errorf(hal.InvalidArgument, op, fmt.Sprintf("key length %d exceeds %d", len(key), s.cfg.KeyMaxLen), nil)
	}
	return nil
}

func (s *Store) observe(op string, err error) {
	if s.observer != nil {
		s.observer.ObserveKV(op, err)
	}
}

// flush writes every dirty record. A key that fails stays dirty.
func (s *Store) flush(ctx context.Context) (err error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.RLock()
	if len(s.dirty) == 0 {
		s.mu.RUnlock()
		return nil
	}
	pending := make(map[string][]byte, len(s.dirty))
	for k := range s.dirty {
		pending[k] = s.cache[k]
	}
	s.mu.RUnlock()

	defer func() { s.observe("flush", err) }()

	var errs []error
	for k, v := range pending {
		if err := s.backend.Save(ctx, k, v); err != nil {
			errs = append(errs, fmt.Errorf("flush %q: %w", k, err))
			continue
		}
		s.mu.Lock()
		delete(s.dirty, k)
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

func (s *Store) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	backoff := lifecycle.NewBackoff(flushRetryInitial, flushRetryMax)
	var retry <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-retry:
			retry = nil
		}

		if err := s.flush(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			d := backoff.Next()
			s.logger.Warn("flush failed, retrying",
				log.Err(err),
				log.Duration("retry_in", d),
			)
			retry = time.After(d)
			continue
		}
		backoff.Reset()
	}
}
