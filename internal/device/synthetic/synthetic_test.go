package synthetic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golfcast/golfcast/internal/device"
)

func fastMode() device.VideoMode {
	return device.VideoMode{
		Width:       16,
		Height:      8,
		FrameRate:   device.Rational{Numerator: 200, Denominator: 1}, // fast for tests
		PixelFormat: device.PixelFormatUYVY,
		Label:       "test-mode",
	}
}

func TestDevice_StartCaptureProducesFrames(t *testing.T) {
	d := New("synthetic-0", "Black Frame")
	sub := d.Subscribe()
	defer sub.Unsubscribe()

	ctx := context.Background()
	require.NoError(t, d.StartCapture(ctx, fastMode()))
	defer d.StopCapture(ctx)

	select {
	case f := <-sub.VideoFrames():
		assert.Equal(t, uint32(32), f.RowStride)
		assert.NotEmpty(t, f.Bytes())
		f.Release()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a synthetic frame")
	}
}

func TestDevice_StartCaptureTwiceFails(t *testing.T) {
	d := New("synthetic-0", "Black Frame")
	ctx := context.Background()
	require.NoError(t, d.StartCapture(ctx, fastMode()))
	defer d.StopCapture(ctx)

	err := d.StartCapture(ctx, fastMode())
	assert.ErrorIs(t, err, device.ErrAlreadyCapturing)
}

func TestDevice_StopCaptureIsIdempotent(t *testing.T) {
	d := New("synthetic-0", "Black Frame")
	ctx := context.Background()
	require.NoError(t, d.StopCapture(ctx)) // never started
	require.NoError(t, d.StartCapture(ctx, fastMode()))
	require.NoError(t, d.StopCapture(ctx))
	require.NoError(t, d.StopCapture(ctx)) // already stopped
	assert.Equal(t, device.StatusIdle, d.Status())
}

func TestDevice_ColorFrameFillsExpectedComponents(t *testing.T) {
	d := NewColor("synthetic-1", "Green Fill", 100, 50, 50)
	sub := d.Subscribe()
	defer sub.Unsubscribe()

	ctx := context.Background()
	require.NoError(t, d.StartCapture(ctx, fastMode()))
	defer d.StopCapture(ctx)

	select {
	case f := <-sub.VideoFrames():
		b := f.Bytes()
		require.GreaterOrEqual(t, len(b), 4)
		assert.Equal(t, byte(50), b[0])  // U
		assert.Equal(t, byte(100), b[1]) // Y0
		f.Release()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a color frame")
	}
}

func TestDevice_StatusTransitionsPublish(t *testing.T) {
	d := New("synthetic-0", "Black Frame")
	sub := d.Subscribe()
	defer sub.Unsubscribe()

	ctx := context.Background()
	require.NoError(t, d.StartCapture(ctx, fastMode()))

	select {
	case s := <-sub.StatusChanges():
		assert.Equal(t, device.StatusCapturing, s)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for capturing status")
	}

	require.NoError(t, d.StopCapture(ctx))
	select {
	case s := <-sub.StatusChanges():
		assert.Equal(t, device.StatusIdle, s)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for idle status")
	}
}

func TestDevice_UnsubscribeClosesChannels(t *testing.T) {
	d := New("synthetic-0", "Black Frame")
	sub := d.Subscribe()
	sub.Unsubscribe()

	_, ok := <-sub.VideoFrames()
	assert.False(t, ok)
}
