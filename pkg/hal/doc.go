// Package hal defines the hardware abstraction contract an IoT device SDK
// consumes: synchronization primitives, threads, software timers, persistent
// key-value storage, memory, clocks, formatted output and network
// introspection.
//
// A backend implements [Platform]. The contract fixes operation semantics, not
// mechanism: a bare-metal loop, an RTOS or POSIX threads can all conform. The
// reference backend lives in package posix and the conformance suite that any
// backend can run lives in package haltest.
//
// # Handles
//
// Mutexes, semaphores, threads and timers are addressed by opaque, strongly
// typed handles ([Mutex], [Semaphore], [Thread], [Timer]). Handles carry a
// generation, so a handle used after it was destroyed fails with
// [ErrInvalidHandle] instead of touching whatever reused its slot. The zero
// handle is never valid.
//
// # Errors
//
// Every operation reports failure synchronously. Errors carry a [Code] from the
// taxonomy (allocation failure, timeout, invalid argument, unsupported, fatal,
// generic failure) and can be matched with errors.Is against either the code or
// a sentinel such as [ErrNotFound]. [ReturnCode] maps an error to the integer
// convention of the C-level SDK (0 success, -1 failure).
//
// # Blocking
//
// Only MutexLock, SemaphoreWait, SleepMs, ThreadJoin and TimerDelete (bounded by
// an in-flight callback) may suspend the caller. Everything else completes
// promptly.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package hal
