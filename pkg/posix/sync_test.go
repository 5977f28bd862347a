package posix

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/halport/pkg/hal"
)

func TestMutex_UnlockUnlocked(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	m, err := p.MutexCreate()
	require.NoError(t, err)
	require.NotZero(t, m)

	require.ErrorIs(t, p.MutexUnlock(m), hal.InvalidArgument)
	require.NoError(t, p.MutexLock(m))
	require.NoError(t, p.MutexUnlock(m))
}

func TestMutex_DestroyLocked(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	m, err := p.MutexCreate()
	require.NoError(t, err)
	require.NoError(t, p.MutexLock(m))
	require.ErrorIs(t, p.MutexDestroy(m), hal.InvalidArgument)

	require.NoError(t, p.MutexUnlock(m))
	require.NoError(t, p.MutexDestroy(m))

	// Use after destroy and double destroy are caught.
	require.ErrorIs(t, p.MutexLock(m), hal.ErrInvalidHandle)
	require.ErrorIs(t, p.MutexDestroy(m), hal.ErrInvalidHandle)
}

func TestMutex_StaleHandleAfterReuse(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	m1, err := p.MutexCreate()
	require.NoError(t, err)
	require.NoError(t, p.MutexDestroy(m1))

	m2, err := p.MutexCreate()
	require.NoError(t, err)
	require.NotEqual(t, m1, m2)

	require.ErrorIs(t, p.MutexLock(m1), hal.ErrInvalidHandle)
	require.NoError(t, p.MutexLock(m2))
	require.NoError(t, p.MutexUnlock(m2))
}

func TestMutex_Exclusion(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))
	m, err := p.MutexCreate()
	require.NoError(t, err)

	const workers, iterations = 8, 500
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				_ = p.MutexLock(m)
				counter++
				_ = p.MutexUnlock(m)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, workers*iterations, counter)
}

func TestHandles_Limit(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxHandles = 2
	p := newTestPlatform(t, cfg)

	_, err := p.MutexCreate()
	require.NoError(t, err)
	_, err = p.MutexCreate()
	require.NoError(t, err)
	_, err = p.MutexCreate()
	require.ErrorIs(t, err, hal.AllocationFailure)

	// Kinds have separate arenas.
	_, err = p.SemaphoreCreate()
	require.NoError(t, err)
}

func TestSemaphore_PendingPost(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))
	s, err := p.SemaphoreCreate()
	require.NoError(t, err)

	require.NoError(t, p.SemaphorePost(s))
	require.NoError(t, p.SemaphorePost(s))
	require.NoError(t, p.SemaphoreWait(s, 0))
	require.NoError(t, p.SemaphoreWait(s, hal.WaitInfinite))
	require.ErrorIs(t, p.SemaphoreWait(s, 0), hal.ErrTimeout)
}

func TestSemaphore_Timeout(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))
	s, err := p.SemaphoreCreate()
	require.NoError(t, err)

	start := time.Now()
	err = p.SemaphoreWait(s, 50)
	require.ErrorIs(t, err, hal.ErrTimeout)
	require.Equal(t, hal.Timeout, hal.CodeOf(err))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestSemaphore_WakesWaiter(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))
	s, err := p.SemaphoreCreate()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- p.SemaphoreWait(s, 5000) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, p.SemaphorePost(s))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter not woken")
	}
}

func TestSemaphore_MaxCount(t *testing.T) {
	cfg := testConfig(t)
	cfg.SemaphoreMax = 3
	p := newTestPlatform(t, cfg)

	s, err := p.SemaphoreCreate()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, p.SemaphorePost(s))
	}
	require.ErrorIs(t, p.SemaphorePost(s), hal.Failure)

	// The count stayed at the bound.
	for i := 0; i < 3; i++ {
		require.NoError(t, p.SemaphoreWait(s, 0))
	}
	require.ErrorIs(t, p.SemaphoreWait(s, 0), hal.ErrTimeout)
}

func TestSemaphore_DestroyWakesWaiters(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))
	s, err := p.SemaphoreCreate()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- p.SemaphoreWait(s, hal.WaitInfinite) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, p.SemaphoreDestroy(s))

	select {
	case err := <-done:
		require.ErrorIs(t, err, hal.ErrInvalidHandle)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter not woken by destroy")
	}
	require.ErrorIs(t, p.SemaphorePost(s), hal.ErrInvalidHandle)
}
