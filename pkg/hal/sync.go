package hal

// WaitInfinite makes SemaphoreWait block until the semaphore is signaled.
const WaitInfinite = ^uint32(0)

// SemaphoreMaxCount is the recommended upper bound of a semaphore count.
const SemaphoreMaxCount = 255

// Sync provides the only blocking primitives of the contract.
type Sync interface {
	// MutexCreate allocates an unlocked mutex.
	MutexCreate() (Mutex, error)

	// MutexDestroy releases the mutex. It fails with InvalidArgument while the
	// mutex is locked.
	MutexDestroy(m Mutex) error

	// MutexLock blocks until the caller holds the mutex. There is no timeout.
	MutexLock(m Mutex) error

	// MutexUnlock releases the mutex. Unlocking an unlocked mutex fails with
	// InvalidArgument; unlocking a mutex held by another thread is undefined.
	MutexUnlock(m Mutex) error

	// SemaphoreCreate allocates a counting semaphore with count zero.
	SemaphoreCreate() (Semaphore, error)

	// SemaphoreDestroy releases the semaphore and wakes blocked waiters with
	// ErrInvalidHandle.
	SemaphoreDestroy(s Semaphore) error

	// SemaphoreWait decrements the count, waiting up to timeoutMs for it to
	// become positive. It returns ErrTimeout when the wait expires. timeoutMs
	// of WaitInfinite waits forever; zero polls.
	SemaphoreWait(s Semaphore, timeoutMs uint32) error

	// SemaphorePost increments the count and wakes one waiter. With no waiter
	// the post stays pending. Posting at the maximum count fails and leaves
	// the count unchanged.
	SemaphorePost(s Semaphore) error
}
