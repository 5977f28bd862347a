package posix

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/halport/pkg/hal"
)

func TestThread_CreateJoin(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	var got atomic.Value
	th, stackUsed, err := p.ThreadCreate(func(ctx context.Context, arg any) {
		self, _ := hal.CurrentThread(ctx)
		got.Store([]any{arg, self})
	}, "payload", &hal.ThreadParams{Name: "worker", Stack: make([]byte, 4096)})
	require.NoError(t, err)
	require.False(t, stackUsed)

	require.NoError(t, p.ThreadJoin(th))
	v := got.Load().([]any)
	require.Equal(t, "payload", v[0])
	require.Equal(t, th, v[1])

	// Joined threads are reclaimed.
	require.ErrorIs(t, p.ThreadJoin(th), hal.ErrInvalidHandle)
}

func TestThread_InvalidArguments(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	_, _, err := p.ThreadCreate(nil, nil, nil)
	require.ErrorIs(t, err, hal.InvalidArgument)

	_, _, err = p.ThreadCreate(func(context.Context, any) {}, nil, &hal.ThreadParams{Priority: hal.PriorityError})
	require.ErrorIs(t, err, hal.InvalidArgument)

	_, _, err = p.ThreadCreate(func(context.Context, any) {}, nil, &hal.ThreadParams{Priority: 7})
	require.ErrorIs(t, err, hal.InvalidArgument)
}

func TestThread_Priorities(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	for prio := hal.PriorityIdle; prio <= hal.PriorityRealtime; prio++ {
		ran := make(chan struct{})
		th, _, err := p.ThreadCreate(func(context.Context, any) { close(ran) }, nil, &hal.ThreadParams{Priority: prio})
		require.NoError(t, err, prio.String())
		<-ran
		require.NoError(t, p.ThreadJoin(th))
	}
}

func TestThread_Detach(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	release := make(chan struct{})
	th, _, err := p.ThreadCreate(func(context.Context, any) { <-release }, nil, nil)
	require.NoError(t, err)

	require.NoError(t, p.ThreadDetach(th))
	require.ErrorIs(t, p.ThreadDetach(th), hal.InvalidArgument)
	require.ErrorIs(t, p.ThreadJoin(th), hal.InvalidArgument)

	close(release)
	require.Eventually(t, func() bool { return p.threads.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestThread_DetachAfterExit(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	th, _, err := p.ThreadCreate(func(context.Context, any) {}, nil, nil)
	require.NoError(t, err)

	// Joinable records survive exit until joined or detached.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 1, p.threads.Len())
	require.NoError(t, p.ThreadDetach(th))
	require.Equal(t, 0, p.threads.Len())
}

func TestThread_DetachedAtCreate(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	th, _, err := p.ThreadCreate(func(context.Context, any) {}, nil, &hal.ThreadParams{Detached: true})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return p.threads.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	require.ErrorIs(t, p.ThreadJoin(th), hal.ErrInvalidHandle)
}

func TestThread_DeleteSelf(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	var after atomic.Bool
	th, _, err := p.ThreadCreate(func(ctx context.Context, _ any) {
		_ = p.ThreadDelete(ctx, hal.ThreadSelf)
		after.Store(true)
	}, nil, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return p.threads.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	require.False(t, after.Load(), "ThreadDelete(self) returned")
	require.ErrorIs(t, p.ThreadJoin(th), hal.ErrInvalidHandle)
}

func TestThread_DeleteSelfOutsideThread(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))
	require.ErrorIs(t, p.ThreadDelete(context.Background(), hal.ThreadSelf), hal.InvalidArgument)
}

func TestThread_DeleteCooperative(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	th, _, err := p.ThreadCreate(func(ctx context.Context, _ any) { <-ctx.Done() }, nil, nil)
	require.NoError(t, err)

	require.NoError(t, p.ThreadDelete(context.Background(), th))
	require.Equal(t, 0, p.threads.Len())
}

func TestThread_DeleteUncooperative(t *testing.T) {
	cfg := testConfig(t)
	cfg.ThreadDeleteGrace = 20 * time.Millisecond
	p := newTestPlatform(t, cfg)

	release := make(chan struct{})
	th, _, err := p.ThreadCreate(func(context.Context, any) { <-release }, nil, nil)
	require.NoError(t, err)

	err = p.ThreadDelete(context.Background(), th)
	require.ErrorIs(t, err, hal.Fatal)

	// The thread is reclaimed once it finally returns.
	close(release)
	require.Eventually(t, func() bool { return p.threads.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestNiceValue(t *testing.T) {
	require.Equal(t, 19, niceValue(hal.PriorityIdle))
	require.Equal(t, 0, niceValue(hal.PriorityNormal))
	require.Equal(t, -20, niceValue(hal.PriorityRealtime))
	require.Less(t, niceValue(hal.PriorityHigh), niceValue(hal.PriorityAboveNormal))
}
