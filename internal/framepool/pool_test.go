package framepool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPool_RentReleaseSteadyState(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	pool := NewPool(4, 1024)
	for i := 0; i < 1000; i++ {
		buf, err := pool.Rent(1024)
		require.NoError(t, err)
		buf.Release()
	}
	assert.LessOrEqual(t, pool.Allocated(), 4)
	assert.GreaterOrEqual(t, pool.Allocated(), 1)
}

func TestPool_RentGrowsOnlyUnderContention(t *testing.T) {
	pool := NewPool(2, 64)

	a, err := pool.Rent(64)
	require.NoError(t, err)
	b, err := pool.Rent(64)
	require.NoError(t, err)
	// Both outstanding simultaneously forces a third allocation.
	c, err := pool.Rent(64)
	require.NoError(t, err)

	assert.Equal(t, 3, pool.Allocated())

	a.Release()
	b.Release()
	c.Release()
}

func TestPool_RentLargerSizeReplacesSlot(t *testing.T) {
	pool := NewPool(1, 16)

	small, err := pool.Rent(16)
	require.NoError(t, err)
	assert.Equal(t, 16, small.Len())
	small.Release()

	big, err := pool.Rent(256)
	require.NoError(t, err)
	assert.Equal(t, 256, big.Len())
	assert.GreaterOrEqual(t, cap(big.Bytes()), 256)
}

func TestPool_DisposeRejectsRent(t *testing.T) {
	pool := NewPool(1, 16)
	pool.Dispose()

	_, err := pool.Rent(16)
	assert.ErrorIs(t, err, ErrPoolDisposed)
}

func TestBuffer_Clone(t *testing.T) {
	pool := NewPool(2, 16)
	buf, err := pool.Rent(4)
	require.NoError(t, err)
	copy(buf.Bytes(), []byte{1, 2, 3, 4})

	clone, err := buf.Clone()
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), clone.Bytes())

	// Mutating the original must not affect the clone.
	buf.Bytes()[0] = 9
	assert.Equal(t, byte(1), clone.Bytes()[0])

	buf.Release()
	clone.Release()
}
