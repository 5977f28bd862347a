package haltest

import (
	"sync/atomic"

	"github.com/stretchr/testify/require"
)

func testTimerStartStop(t T, tg *Target) {
	p := tg.Platform

	var fired atomic.Bool
	tm, err := p.TimerCreate("never", func(any) { fired.Store(true) }, nil)
	require.NoError(t, err)
	defer p.TimerDelete(tm)

	require.NoError(t, p.TimerStart(tm, 100))
	require.NoError(t, p.TimerStop(tm))
	p.SleepMs(250)
	require.False(t, fired.Load(), "stopped timer fired")
}

func testTimerDeleteWaits(t T, tg *Target) {
	p := tg.Platform

	entered := make(chan struct{})
	var finished atomic.Bool
	tm, err := p.TimerCreate("slow", func(any) {
		close(entered)
		p.SleepMs(50)
		finished.Store(true)
	}, nil)
	require.NoError(t, err)

	require.NoError(t, p.TimerStart(tm, 1))
	<-entered
	require.NoError(t, p.TimerDelete(tm))
	require.True(t, finished.Load(), "TimerDelete returned during the callback")
}

func testTimerPeriodic(t T, tg *Target) {
	p := tg.Platform

	var fires atomic.Int32
	var running atomic.Int32
	var overlapped atomic.Bool
	tm, err := p.TimerCreate("periodic", func(any) {
		if running.Add(1) > 1 {
			overlapped.Store(true)
		}
		fires.Add(1)
		p.SleepMs(2)
		running.Add(-1)
	}, nil)
	require.NoError(t, err)

	require.NoError(t, p.TimerStartPeriodic(tm, 5))
	p.SleepMs(100)
	require.NoError(t, p.TimerDelete(tm))

	require.GreaterOrEqual(t, fires.Load(), int32(3))
	require.False(t, overlapped.Load(), "callbacks of one timer overlapped")
}
