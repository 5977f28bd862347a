package haltest

import (
	"math"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/halport/pkg/hal"
)

func testCallocZeroes(t T, tg *Target) {
	p := tg.Platform

	b, err := p.Calloc(32, 8)
	require.NoError(t, err)
	require.Len(t, b, 256)
	for i, v := range b {
		if v != 0 {
			t.Errorf("byte %d = %#x", i, v)
			break
		}
	}
	p.Free(b)
	p.Free(nil)

	_, err = p.Calloc(math.MaxUint32, math.MaxUint32)
	require.ErrorIs(t, err, hal.AllocationFailure)
}

func testReallocPrefix(t T, tg *Target) {
	p := tg.Platform

	b, err := p.Malloc(4)
	require.NoError(t, err)
	copy(b, "halp")

	b, err = p.Realloc(b, 64)
	require.NoError(t, err)
	require.Equal(t, "halp", string(b[:4]))

	b, err = p.Realloc(b, 0)
	require.NoError(t, err)
	require.Nil(t, b)
}

func testSnprintfTruncates(t T, tg *Target) {
	p := tg.Platform

	buf := []byte{0xff, 0xff, 0xff, 0xff}
	n := p.Snprintf(buf, "%d", 12345)
	require.Equal(t, 5, n)
	require.Equal(t, []byte("123\x00"), buf)

	n = p.Vsnprintf(buf[:0], "%s", []any{"abc"})
	require.Equal(t, 3, n)
}

func testRandomDeterministic(t T, tg *Target) {
	p := tg.Platform
	const draws = 100_000

	p.Srandom(0xC0FFEE)
	first := make([]uint32, draws)
	for i := range first {
		v := p.Random(10)
		if v >= 10 {
			t.Errorf("draw %d = %d, out of range", i, v)
			t.FailNow()
		}
		first[i] = v
	}

	p.Srandom(0xC0FFEE)
	for i := range first {
		if v := p.Random(10); v != first[i] {
			t.Errorf("draw %d = %d after reseed, want %d", i, v, first[i])
			t.FailNow()
		}
	}
	require.Zero(t, p.Random(0))
}

func testUTCIndependent(t T, tg *Target) {
	p := tg.Platform

	up := p.UptimeMs()
	p.UTCSet(86_400_000)
	utc := p.UTCGet()
	require.GreaterOrEqual(t, utc, int64(86_400_000))
	require.Less(t, utc, int64(86_400_000+1000))
	require.GreaterOrEqual(t, p.UptimeMs(), up)
	require.NotEmpty(t, p.TimeStr())
}
