package seqio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdPolicyDoublesThenLinear(t *testing.T) {
	next, ok := StdPolicy{}.GrowTo(64 * 1024)
	require.True(t, ok)
	assert.Equal(t, 128*1024, next)

	next, ok = StdPolicy{}.GrowTo(1 << 25)
	require.True(t, ok)
	assert.Equal(t, (1<<25)+(1<<25), next)

	next, ok = StdPolicy{}.GrowTo(1 << 26)
	require.True(t, ok)
	assert.Equal(t, (1<<26)+(1<<25), next)
}

func TestStdPolicyRefusesAboveLimit(t *testing.T) {
	_, ok := StdPolicy{}.GrowTo(1 << 30)
	assert.False(t, ok)
}

func TestDoubleUntilIsUnlimited(t *testing.T) {
	p := DoubleUntil(64)
	next, ok := p.GrowTo(32)
	require.True(t, ok)
	assert.Equal(t, 64, next)

	next, ok = p.GrowTo(1 << 40)
	require.True(t, ok)
	assert.Equal(t, (1<<40)+64, next)
}

func TestDoubleUntilLimited(t *testing.T) {
	p := DoubleUntilLimited{DoubleUntil: 64, Limit: 256}

	next, ok := p.GrowTo(64)
	require.True(t, ok)
	assert.Equal(t, 128, next)

	next, ok = p.GrowTo(128)
	require.True(t, ok)
	assert.Equal(t, 192, next)

	_, ok = p.GrowTo(256)
	assert.False(t, ok)
}
