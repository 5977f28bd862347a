package haltest

import (
	"context"
	"errors"
	"fmt"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/halport/pkg/hal"
)

func testMutexExclusion(t T, tg *Target) {
	p := tg.Platform
	const workers, iterations = 8, 1000

	m, err := p.MutexCreate()
	require.NoError(t, err)
	defer p.MutexDestroy(m)

	counter := 0
	threads := make([]hal.Thread, 0, workers)
	for i := 0; i < workers; i++ {
		th, _, err := p.ThreadCreate(func(context.Context, any) {
			for j := 0; j < iterations; j++ {
				if p.MutexLock(m) != nil {
					return
				}
				counter++
				_ = p.MutexUnlock(m)
			}
		}, nil, &hal.ThreadParams{Name: fmt.Sprintf("mutex-%d", i)})
		require.NoError(t, err)
		threads = append(threads, th)
	}
	for _, th := range threads {
		require.NoError(t, p.ThreadJoin(th))
	}
	require.Equal(t, workers*iterations, counter)
}

func testMutexMisuse(t T, tg *Target) {
	p := tg.Platform

	m, err := p.MutexCreate()
	require.NoError(t, err)
	require.NotZero(t, m)

	require.ErrorIs(t, p.MutexUnlock(m), hal.InvalidArgument)
	require.NoError(t, p.MutexLock(m))
	require.ErrorIs(t, p.MutexDestroy(m), hal.InvalidArgument)
	require.NoError(t, p.MutexUnlock(m))
	require.NoError(t, p.MutexDestroy(m))

	require.ErrorIs(t, p.MutexLock(m), hal.ErrInvalidHandle)
	require.ErrorIs(t, p.MutexDestroy(m), hal.ErrInvalidHandle)
}

func testSemaphoreNoLostWakeups(t T, tg *Target) {
	p := tg.Platform
	const producers, consumers, perProducer = 4, 4, 50
	const total = producers * perProducer

	s, err := p.SemaphoreCreate()
	require.NoError(t, err)
	defer p.SemaphoreDestroy(s)

	var g errgroup.Group
	for i := 0; i < consumers; i++ {
		g.Go(func() error {
			for j := 0; j < total/consumers; j++ {
				if err := p.SemaphoreWait(s, 5000); err != nil {
					return fmt.Errorf("wait %d: %w", j, err)
				}
			}
			return nil
		})
	}
	for i := 0; i < producers; i++ {
		g.Go(func() error {
			for j := 0; j < perProducer; j++ {
				for {
					err := p.SemaphorePost(s)
					if err == nil {
						break
					}
					// Count at its bound; let consumers drain.
					if !errors.Is(err, hal.Failure) {
						return err
					}
					p.SleepMs(1)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// Every post was consumed exactly once.
	require.ErrorIs(t, p.SemaphoreWait(s, 0), hal.ErrTimeout)
}

func testSemaphoreTimeout(t T, tg *Target) {
	p := tg.Platform

	s, err := p.SemaphoreCreate()
	require.NoError(t, err)
	defer p.SemaphoreDestroy(s)

	start := p.UptimeMs()
	err = p.SemaphoreWait(s, 30)
	require.ErrorIs(t, err, hal.ErrTimeout)
	require.Equal(t, hal.Timeout, hal.CodeOf(err))
	require.GreaterOrEqual(t, p.UptimeMs()-start, uint64(29))

	require.NoError(t, p.SemaphorePost(s))
	require.NoError(t, p.SemaphoreWait(s, 0))
}
