package framepool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rentNamed(t *testing.T, pool *Pool, label byte) *Buffer {
	t.Helper()
	buf, err := pool.Rent(1)
	require.NoError(t, err)
	buf.Bytes()[0] = label
	return buf
}

// TestRing_DropPolicyOldestWins is end-to-end scenario 6 from spec.md §8:
// capacity 3, publish F1..F5 with no dequeues, then dequeue 3. Expected
// order F3,F4,F5 with drop_count == 2.
func TestRing_DropPolicyOldestWins(t *testing.T) {
	pool := NewPool(8, 1)
	ring := NewRing(pool, 3)

	labels := []byte{'1', '2', '3', '4', '5'}
	for _, l := range labels {
		ring.Publish(rentNamed(t, pool, l))
	}

	assert.Equal(t, uint64(2), ring.DropCount())

	ctx := context.Background()
	var got []byte
	for i := 0; i < 3; i++ {
		buf, err := ring.Dequeue(ctx)
		require.NoError(t, err)
		got = append(got, buf.Bytes()[0])
		buf.Release()
	}
	assert.Equal(t, []byte{'3', '4', '5'}, got)
}

func TestRing_DequeueBlocksUntilPublish(t *testing.T) {
	pool := NewPool(4, 1)
	ring := NewRing(pool, 4)

	done := make(chan *Buffer, 1)
	go func() {
		buf, err := ring.Dequeue(context.Background())
		require.NoError(t, err)
		done <- buf
	}()

	select {
	case <-done:
		t.Fatal("dequeue returned before publish")
	case <-time.After(20 * time.Millisecond):
	}

	ring.Publish(rentNamed(t, pool, 'x'))

	select {
	case buf := <-done:
		assert.Equal(t, byte('x'), buf.Bytes()[0])
	case <-time.After(time.Second):
		t.Fatal("dequeue never unblocked")
	}
}

func TestRing_DequeueRespectsContextCancellation(t *testing.T) {
	pool := NewPool(1, 1)
	ring := NewRing(pool, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := ring.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRing_CloseUnblocksDequeueAndDrains(t *testing.T) {
	pool := NewPool(4, 1)
	ring := NewRing(pool, 4)
	ring.Publish(rentNamed(t, pool, 'a'))

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			// Each goroutine dequeues until closed.
			for {
				_, err := ring.Dequeue(context.Background())
				if err != nil {
					errs <- err
					return
				}
			}
		}()
	}

	ring.Close()
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.ErrorIs(t, err, ErrClosed)
	}

	// Publish after close releases the buffer rather than queueing it.
	ring.Publish(rentNamed(t, pool, 'b'))
	_, err := ring.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRing_TryPeekDoesNotConsume(t *testing.T) {
	pool := NewPool(2, 1)
	ring := NewRing(pool, 2)
	ring.Publish(rentNamed(t, pool, 'p'))

	buf, ok := ring.TryPeek()
	require.True(t, ok)
	assert.Equal(t, byte('p'), buf.Bytes()[0])

	buf2, ok := ring.TryPeek()
	require.True(t, ok)
	assert.Same(t, buf, buf2)

	out, err := ring.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Same(t, buf, out)
	out.Release()
}
