package idgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextIDIsStrictlyIncreasing(t *testing.T) {
	gen, err := New(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var prev uint64
	for i := 0; i < 1000; i++ {
		id, err := gen.NextID()
		require.NoError(t, err)
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestNextIDAdvancesOnSameMillisecond(t *testing.T) {
	gen, err := New(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	gen.nowMilli = func() int64 { return gen.epochMs + 12345 }

	first, err := gen.NextID()
	require.NoError(t, err)
	second, err := gen.NextID()
	require.NoError(t, err)
	require.Greater(t, second, first)
	require.Equal(t, first+1, second)
}

func TestNextIDReportsClockRewind(t *testing.T) {
	gen, err := New(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	tick := gen.epochMs + 1000
	gen.nowMilli = func() int64 { return tick }
	_, err = gen.NextID()
	require.NoError(t, err)

	tick = gen.epochMs + 500
	_, err = gen.NextID()
	require.ErrorIs(t, err, ErrClockRewind)
}

func TestTwoGeneratorsShareNodeIDButStillRunIndependently(t *testing.T) {
	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	a, err := New(epoch)
	require.NoError(t, err)
	b, err := New(epoch)
	require.NoError(t, err)

	idA, err := a.NextID()
	require.NoError(t, err)
	idB, err := b.NextID()
	require.NoError(t, err)
	require.NotZero(t, idA)
	require.NotZero(t, idB)
}
