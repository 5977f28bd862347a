package haltest

import (
	"github.com/bft-labs/halport/pkg/hal"
)

// T is the subset of testing.TB the cases use. It satisfies testify's
// require.TestingT.
type T interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
	Logf(format string, args ...any)
}

// Target is the backend under test.
type Target struct {
	// Platform is an initialized backend.
	Platform hal.Platform

	// Reset simulates a power cycle: it abandons Platform without a clean
	// shutdown and returns a new platform over the same persistent storage.
	// Cases needing it are skipped when nil.
	Reset func() (hal.Platform, error)

	// Close releases the target. Optional.
	Close func()
}

// Case is one conformance check.
type Case struct {
	Name string
	Run  func(t T, tg *Target)
}

// Cases returns every conformance case in a stable order.
func Cases() []Case {
	return []Case{
		{"kv/round_trip", testKVRoundTrip},
		{"kv/reset_persistence", testKVResetPersistence},
		{"kv/delete", testKVDelete},
		{"kv/buffer_too_small", testKVBufferTooSmall},
		{"kv/buffered_write", testKVBufferedWrite},
		{"sync/mutex_exclusion", testMutexExclusion},
		{"sync/mutex_misuse", testMutexMisuse},
		{"sync/semaphore_no_lost_wakeups", testSemaphoreNoLostWakeups},
		{"sync/semaphore_timeout", testSemaphoreTimeout},
		{"thread/join_detach", testThreadJoinDetach},
		{"thread/delete", testThreadDelete},
		{"timer/start_stop_never_fires", testTimerStartStop},
		{"timer/delete_waits_for_callback", testTimerDeleteWaits},
		{"timer/periodic", testTimerPeriodic},
		{"memory/calloc_zeroes", testCallocZeroes},
		{"memory/realloc_preserves_prefix", testReallocPrefix},
		{"format/snprintf_truncates", testSnprintfTruncates},
		{"clock/random_deterministic", testRandomDeterministic},
		{"clock/utc_independent", testUTCIndependent},
	}
}
