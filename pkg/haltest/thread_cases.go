package haltest

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/halport/pkg/hal"
)

func testThreadJoinDetach(t T, tg *Target) {
	p := tg.Platform

	var ran atomic.Int32
	th, _, err := p.ThreadCreate(func(ctx context.Context, arg any) {
		ran.Add(arg.(int32))
	}, int32(3), &hal.ThreadParams{Name: "joinable", Priority: hal.PriorityBelowNormal})
	require.NoError(t, err)
	require.NoError(t, p.ThreadJoin(th))
	require.Equal(t, int32(3), ran.Load())

	release := make(chan struct{})
	th, _, err = p.ThreadCreate(func(context.Context, any) { <-release }, nil, nil)
	require.NoError(t, err)
	require.NoError(t, p.ThreadDetach(th))
	require.ErrorIs(t, p.ThreadJoin(th), hal.InvalidArgument)
	close(release)

	_, _, err = p.ThreadCreate(func(context.Context, any) {}, nil, &hal.ThreadParams{Priority: hal.PriorityError})
	require.ErrorIs(t, err, hal.InvalidArgument)
}

func testThreadDelete(t T, tg *Target) {
	p := tg.Platform

	// Cooperative target: observes cancellation.
	stopped := make(chan struct{})
	th, _, err := p.ThreadCreate(func(ctx context.Context, _ any) {
		<-ctx.Done()
		close(stopped)
	}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, p.ThreadDelete(context.Background(), th))
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Errorf("deleted thread did not stop")
	}

	// Self deletion never returns to the body.
	var after atomic.Bool
	exited := make(chan struct{})
	_, _, err = p.ThreadCreate(func(ctx context.Context, _ any) {
		defer close(exited)
		_ = p.ThreadDelete(ctx, hal.ThreadSelf)
		after.Store(true)
	}, nil, nil)
	require.NoError(t, err)
	<-exited
	require.False(t, after.Load())

	// Deleting a thread that ignores cancellation is reported, never silent.
	release := make(chan struct{})
	th, _, err = p.ThreadCreate(func(context.Context, any) { <-release }, nil, nil)
	require.NoError(t, err)
	err = p.ThreadDelete(context.Background(), th)
	close(release)
	if err != nil {
		require.True(t, errors.Is(err, hal.Fatal), "got %v", err)
	}
}
