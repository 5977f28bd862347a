package posix

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/halport/pkg/hal"
)

func TestMemory_CallocZeroes(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	b, err := p.Calloc(16, 4)
	require.NoError(t, err)
	require.Len(t, b, 64)
	for _, v := range b {
		require.Zero(t, v)
	}
	require.Equal(t, uint64(64), p.HeapInUse())
	p.Free(b)
	require.Zero(t, p.HeapInUse())
}

func TestMemory_CallocOverflow(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	_, err := p.Calloc(math.MaxUint32, 2)
	require.ErrorIs(t, err, hal.AllocationFailure)
}

func TestMemory_Realloc(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	b, err := p.Realloc(nil, 4)
	require.NoError(t, err)
	copy(b, "abcd")

	b, err = p.Realloc(b, 8)
	require.NoError(t, err)
	require.Len(t, b, 8)
	require.Equal(t, "abcd", string(b[:4]))
	require.Equal(t, uint64(8), p.HeapInUse())

	b, err = p.Realloc(b, 2)
	require.NoError(t, err)
	require.Equal(t, "ab", string(b))
	require.Equal(t, uint64(2), p.HeapInUse())

	b, err = p.Realloc(b, 0)
	require.NoError(t, err)
	require.Nil(t, b)
	require.Zero(t, p.HeapInUse())

	_, err = p.Realloc(make([]byte, 4), 8)
	require.ErrorIs(t, err, hal.InvalidArgument)
}

func TestMemory_FreeIsForgiving(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))

	p.Free(nil)
	p.Free(make([]byte, 10))

	b, err := p.Malloc(10)
	require.NoError(t, err)
	p.Free(b)
	p.Free(b)
	require.Zero(t, p.HeapInUse())
}

func TestMemory_HeapLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.HeapLimit = 100
	p := newTestPlatform(t, cfg)

	a, err := p.Malloc(60)
	require.NoError(t, err)
	_, err = p.Malloc(60)
	require.ErrorIs(t, err, hal.AllocationFailure)

	p.Free(a)
	_, err = p.Malloc(60)
	require.NoError(t, err)
}

func TestMemory_AbortOnExhaustion(t *testing.T) {
	cfg := testConfig(t)
	cfg.HeapLimit = 10
	cfg.AbortOnExhaustion = true

	var fatal error
	p := newTestPlatform(t, cfg, WithFatalHandler(func(err error) { fatal = err }))

	_, err := p.Malloc(11)
	require.Error(t, err)
	require.True(t, errors.Is(fatal, hal.AllocationFailure))
}

func TestMemory_AbortDefaultPanics(t *testing.T) {
	cfg := testConfig(t)
	cfg.HeapLimit = 10
	cfg.AbortOnExhaustion = true
	p := newTestPlatform(t, cfg)

	require.Panics(t, func() { _, _ = p.Malloc(11) })
}
