package kvstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/halport/pkg/log"
)

// dirWatcher reconciles the cache with records that external tooling writes
// into or removes from the record directory.
type dirWatcher struct {
	store   *Store
	backend Watchable
	watcher *fsnotify.Watcher
}

func newDirWatcher(s *Store, b Watchable) (*dirWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(b.Dir()); err != nil {
		w.Close()
		return nil, err
	}
	return &dirWatcher{store: s, backend: b, watcher: w}, nil
}

func (d *dirWatcher) run(ctx context.Context) {
	defer d.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			base := filepath.Base(event.Name)
			if !strings.HasSuffix(base, recordExt) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			for _, key := range d.keysFor(base) {
				d.store.reconcile(ctx, key)
			}

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.store.logger.Warn("record watcher error", log.Err(err))
		}
	}
}

// keysFor returns the keys an event on record file base may concern: the key
// stored in the file if it is readable, and any cached key whose record has
// that name, since removed files cannot be read.
func (d *dirWatcher) keysFor(base string) []string {
	var keys []string
	if key, _, err := d.backend.ReadRecord(base); err == nil {
		keys = append(keys, key)
	}
	d.store.mu.RLock()
	for k := range d.store.cache {
		if d.backend.RecordName(k) == base && (len(keys) == 0 || keys[0] != k) {
			keys = append(keys, k)
		}
	}
	d.store.mu.RUnlock()
	return keys
}

// reconcile reloads key from the backend. Keys with a pending buffered write
// keep their in-memory value.
func (s *Store) reconcile(ctx context.Context, key string) {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.RLock()
	_, dirty := s.dirty[key]
	s.mu.RUnlock()
	if dirty {
		return
	}

	value, err := s.backend.Load(ctx, key)
	switch {
	case errors.Is(err, ErrNoRecord):
		s.mu.Lock()
		_, had := s.cache[key]
		delete(s.cache, key)
		s.mu.Unlock()
		if had {
			s.logger.Info("record removed externally", log.String("key", key))
		}
	case err != nil:
		// A record caught mid-write by another process fails its checksum;
		// the following event retries.
		s.logger.Debug("record not loadable", log.String("key", key), log.Err(err))
	default:
		s.mu.Lock()
		old, had := s.cache[key]
		s.cache[key] = value
		s.mu.Unlock()
		if !had || string(old) != string(value) {
			s.logger.Info("record updated externally", log.String("key", key))
		}
	}
}
