package hal

// Opaque handle types. Distinct types keep a timer handle from being passed
// where a mutex is expected; the zero value of each is never valid.
type (
	Mutex     uint64
	Semaphore uint64
	Thread    uint64
	Timer     uint64
)

// ThreadSelf passed to ThreadDelete means the calling thread.
const ThreadSelf Thread = 0
