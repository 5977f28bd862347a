package kvstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bft-labs/halport/pkg/log"
)

const (
	recordExt = ".kv"
	tmpExt    = ".tmp"
)

// FileBackend implements Backend with one record file per key. Files are
// named by a digest of the key, so the name length does not depend on the
// key length; the key itself is stored in the record.
type FileBackend struct {
	dir    string
	logger log.Logger
}

// NewFileBackend creates a FileBackend rooted at dir.
func NewFileBackend(dir string, logger log.Logger) *FileBackend {
	return &FileBackend{dir: dir, logger: log.Component(logger, "kvstore.file")}
}

// Dir returns the record directory.
func (b *FileBackend) Dir() string { return b.dir }

// RecordName returns the base name of the record file for key.
func (b *FileBackend) RecordName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]) + recordExt
}

// Path returns the record file path for key.
func (b *FileBackend) Path(key string) string {
	return filepath.Join(b.dir, b.RecordName(key))
}

// ReadRecord reads the record file name in the record directory and returns
// the key and value it holds.
func (b *FileBackend) ReadRecord(name string) (string, []byte, error) {
	base := filepath.Base(name)
	if !isRecordName(base) {
		return "", nil, fmt.Errorf("kvstore: %q is not a record file", base)
	}
	data, err := os.ReadFile(filepath.Join(b.dir, base))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, ErrNoRecord
		}
		return "", nil, err
	}
	key, value, err := decodeRecord(data)
	if err != nil {
		return "", nil, err
	}
	if b.RecordName(key) != base {
		return "", nil, fmt.Errorf("kvstore: record for %q stored under %s: %w", key, base, errCorruptRecord)
	}
	return key, value, nil
}

func isRecordName(base string) bool {
	digest, ok := strings.CutSuffix(base, recordExt)
	if !ok || len(digest) != 2*sha256.Size {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}

// LoadAll reads every record. Stale temp files left by an interrupted write
// are removed and corrupt records are skipped.
func (b *FileBackend) LoadAll(ctx context.Context) (map[string][]byte, error) {
	if err := os.MkdirAll(b.dir, 0o700); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, err
	}

	records := make(map[string][]byte, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, tmpExt) {
			b.logger.Warn("removing interrupted write", log.String("file", name))
			_ = os.Remove(filepath.Join(b.dir, name))
			continue
		}
		if !isRecordName(name) {
			continue
		}
		key, value, err := b.ReadRecord(name)
		if err != nil {
			b.logger.Warn("skipping unreadable record", log.String("file", name), log.Err(err))
			continue
		}
		records[key] = value
	}
	return records, nil
}

// Load reads and verifies the record for key.
func (b *FileBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stored, value, err := b.ReadRecord(b.RecordName(key))
	if err != nil {
		return nil, err
	}
	if stored != key {
		return nil, errCorruptRecord
	}
	return value, nil
}

// Save writes the record to a temp file, fsyncs it, renames it over the
// record and fsyncs the directory.
func (b *FileBackend) Save(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(key) == 0 || len(key) > MaxKeyLen {
		return fmt.Errorf("kvstore: key length %d out of range", len(key))
	}
	if err := os.MkdirAll(b.dir, 0o700); err != nil {
		return err
	}

	path := b.Path(key)
	tmp := path + tmpExt

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(encodeRecord(key, value)); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return syncDir(b.dir)
}

// Delete removes the record and fsyncs the directory.
func (b *FileBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(b.Path(key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return syncDir(b.dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
