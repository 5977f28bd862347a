package kvstore

import (
	"context"
	"errors"
)

// ErrNoRecord is returned by Backend.Load when the key has no record.
var ErrNoRecord = errors.New("kvstore: no record")

// Backend persists records.
type Backend interface {
	// LoadAll returns every valid record.
	LoadAll(ctx context.Context) (map[string][]byte, error)

	// Load returns the record for key, or ErrNoRecord.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save persists value for key durably and atomically: after a crash the
	// record holds either the old or the new value.
	Save(ctx context.Context, key string, value []byte) error

	// Delete removes the record durably. A missing record is not an error.
	Delete(ctx context.Context, key string) error
}

// Watchable is implemented by backends whose records live in a directory that
// external tooling may modify.
type Watchable interface {
	// Dir returns the record directory.
	Dir() string

	// RecordName returns the base name of the record file for key.
	RecordName(key string) string

	// ReadRecord returns the key and value held by the record file name.
	ReadRecord(name string) (string, []byte, error)
}
