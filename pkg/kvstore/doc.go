// Package kvstore provides the persistent key-value store of the HAL contract.
//
// The store keeps every record in memory for reads and persists each key as
// its own record file. A synchronous Set returns only after the record was
// written to a temporary file, fsynced, renamed into place and the directory
// fsynced, so a Get after a synced Set returns the written bytes even across a
// power loss. Buffered Sets are visible immediately and flushed by a
// background worker within Config.FlushInterval.
//
// # Usage
//
//	backend := kvstore.NewFileBackend("/var/lib/device/kv", logger)
//	store := kvstore.New(backend, kvstore.DefaultConfig(), logger)
//	if err := store.Init(ctx); err != nil {
//	    return err
//	}
//	defer store.Shutdown(context.Background())
//
//	if err := store.Set(ctx, "device_secret", secret, true); err != nil {
//	    return err
//	}
//
// The store is a process-wide service. It serializes concurrent Set, Get and
// Del internally; callers hold no external lock.
//
// # Record Format
//
// Each key is stored in <hex(sha256(key))>.kv as:
//
//	"HKV2" | crc32 (IEEE, big endian) | key length (u16) | value length (u32) | key | value
//
// The checksum covers key and value. Files that fail the magic, length or
// checksum test, or whose name does not match the stored key, are discarded
// on load.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package kvstore
