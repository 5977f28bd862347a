package haltest

import (
	"errors"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/halport/pkg/hal"
)

func testKVRoundTrip(t T, tg *Target) {
	p := tg.Platform
	value := []byte("0123456789abcdef")

	require.NoError(t, p.KvSet("conformance_rt", value, true))

	buf := make([]byte, 64)
	n, err := p.KvGet("conformance_rt", buf)
	require.NoError(t, err)
	require.Equal(t, value, buf[:n])

	// Overwrite is a whole-value replacement.
	require.NoError(t, p.KvSet("conformance_rt", []byte("x"), true))
	n, err = p.KvGet("conformance_rt", buf)
	require.NoError(t, err)
	require.Equal(t, "x", string(buf[:n]))
}

func testKVResetPersistence(t T, tg *Target) {
	if tg.Reset == nil {
		t.Logf("target cannot reset, skipping")
		return
	}
	value := []byte("survives power loss")
	require.NoError(t, tg.Platform.KvSet("conformance_reset", value, true))

	p, err := tg.Reset()
	require.NoError(t, err)
	tg.Platform = p

	buf := make([]byte, 64)
	n, err := p.KvGet("conformance_reset", buf)
	require.NoError(t, err)
	require.Equal(t, value, buf[:n])
}

func testKVDelete(t T, tg *Target) {
	p := tg.Platform

	require.NoError(t, p.KvSet("conformance_del", []byte("v"), true))
	require.NoError(t, p.KvDel("conformance_del"))

	_, err := p.KvGet("conformance_del", make([]byte, 8))
	require.True(t, errors.Is(err, hal.ErrNotFound), "got %v", err)
	require.Equal(t, hal.RetNotFound, hal.ReturnCode(err))

	err = p.KvDel("conformance_del")
	require.True(t, errors.Is(err, hal.ErrNotFound), "got %v", err)
}

func testKVBufferTooSmall(t T, tg *Target) {
	p := tg.Platform
	require.NoError(t, p.KvSet("conformance_small", []byte("hello world"), true))

	n, err := p.KvGet("conformance_small", make([]byte, 5))
	require.True(t, errors.Is(err, hal.ErrBufferTooSmall), "got %v", err)
	require.Equal(t, 11, n)
	require.Equal(t, hal.RetBufferTooSmall, hal.ReturnCode(err))
}

func testKVBufferedWrite(t T, tg *Target) {
	p := tg.Platform
	require.NoError(t, p.KvSet("conformance_lazy", []byte("later"), false))

	buf := make([]byte, 8)
	n, err := p.KvGet("conformance_lazy", buf)
	require.NoError(t, err)
	require.Equal(t, "later", string(buf[:n]))
	require.NoError(t, p.KvDel("conformance_lazy"))
}
