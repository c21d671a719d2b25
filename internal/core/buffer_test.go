package core

import (
	"bytes"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillReadsUntilFull(t *testing.T) {
	src := strings.NewReader(strings.Repeat("x", 100))
	buf := NewBuffer(src, 32)

	n, err := buf.Fill()
	require.NoError(t, err)
	assert.Equal(t, 32, n)
	assert.Equal(t, 32, buf.Len())
	assert.False(t, buf.EOF())
	assert.Equal(t, 0, buf.Free())
}

func TestFillSetsEOF(t *testing.T) {
	buf := NewBuffer(strings.NewReader("abc"), 32)

	n, err := buf.Fill()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, buf.EOF())
	assert.Equal(t, []byte("abc"), buf.Bytes())

	// further fills are no-ops
	n, err = buf.Fill()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFillHandlesChunkedReads(t *testing.T) {
	src := iotest.OneByteReader(strings.NewReader("abcdef"))
	buf := NewBuffer(src, 16)

	_, err := buf.Fill()
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), buf.Bytes())
	assert.True(t, buf.EOF())
}

func TestMakeRoom(t *testing.T) {
	buf := NewBuffer(strings.NewReader("abcdefgh"), 16)
	_, err := buf.Fill()
	require.NoError(t, err)

	buf.MakeRoom(3)
	assert.Equal(t, []byte("defgh"), buf.Bytes())
	assert.Equal(t, 5, buf.Len())
	assert.Equal(t, 16, buf.Cap())
}

func TestGrowPreservesContents(t *testing.T) {
	buf := NewBuffer(strings.NewReader("abcdefghijklmnop"), 16)
	_, err := buf.Fill()
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Free())

	buf.Grow(32)
	assert.Equal(t, 32, buf.Cap())
	assert.Equal(t, []byte("abcdefghijklmnop"), buf.Bytes())
	assert.Equal(t, 16, buf.Free())
}

func TestGrowThenFillContinues(t *testing.T) {
	data := bytes.Repeat([]byte("ab"), 24)
	buf := NewBuffer(bytes.NewReader(data), 16)

	_, err := buf.Fill()
	require.NoError(t, err)
	buf.Grow(64)
	_, err = buf.Fill()
	require.NoError(t, err)
	assert.Equal(t, data, buf.Bytes())
	assert.True(t, buf.EOF())
}

func TestReset(t *testing.T) {
	buf := NewBuffer(strings.NewReader("abc"), 16)
	_, err := buf.Fill()
	require.NoError(t, err)
	require.True(t, buf.EOF())

	buf.Reset()
	assert.Zero(t, buf.Len())
	assert.False(t, buf.EOF())
	assert.Equal(t, 16, buf.Cap())
}

func TestInvariantsAcrossOperations(t *testing.T) {
	buf := NewBuffer(strings.NewReader(strings.Repeat("z", 200)), 16)
	check := func() {
		assert.GreaterOrEqual(t, buf.Len(), 0)
		assert.LessOrEqual(t, buf.Len(), buf.Cap())
	}
	for i := 0; i < 5; i++ {
		_, err := buf.Fill()
		require.NoError(t, err)
		check()
		buf.MakeRoom(buf.Len() / 2)
		check()
		buf.Grow(buf.Cap() * 2)
		check()
	}
}

func TestTrimCR(t *testing.T) {
	assert.Equal(t, []byte("abc"), TrimCR([]byte("abc\r")))
	assert.Equal(t, []byte("abc"), TrimCR([]byte("abc")))
	assert.Empty(t, TrimCR([]byte("\r")))
	assert.Empty(t, TrimCR(nil))
}
