package hal

// KV is the persistent key-value store.
type KV interface {
	// KvSet stores value under key. With sync set the call returns only after
	// the value is durable against power loss; otherwise durability is
	// deferred. Readers never observe a partially written value.
	KvSet(key string, value []byte, sync bool) error

	// KvGet copies the value for key into buf and returns its length. When
	// buf is too small it returns the required length and ErrBufferTooSmall.
	// A missing key yields ErrNotFound.
	KvGet(key string, buf []byte) (int, error)

	// KvDel removes key durably. A missing key yields ErrNotFound.
	KvDel(key string) error
}
