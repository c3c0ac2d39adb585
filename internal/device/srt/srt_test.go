package srt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golfcast/golfcast/internal/device"
)

func tinyMode() device.VideoMode {
	return device.VideoMode{
		Width:       4,
		Height:      2,
		FrameRate:   device.Rate30,
		PixelFormat: device.PixelFormatUYVY,
		Label:       "tiny",
	}
}

// TestDevice_IngestsFramesFromMuxerStdout uses `yes` piped through `tr`
// (via sh -c) to emit an endless byte stream standing in for a muxer's
// raw UYVY output, verifying the device slices it into fixed-size frames.
func TestDevice_IngestsFramesFromMuxerStdout(t *testing.T) {
	mode := tinyMode()
	d := New(Config{
		ID:          "srt-test",
		DisplayName: "Test SRT Input",
		MuxerPath:   "sh",
		MuxerArgs:   []string{"-c", "yes | tr -d '\\n'"},
	})

	sub := d.Subscribe()
	defer sub.Unsubscribe()

	ctx := context.Background()
	require.NoError(t, d.StartCapture(ctx, mode))
	defer d.StopCapture(ctx)

	select {
	case f := <-sub.VideoFrames():
		assert.Len(t, f.Bytes(), int(mode.FrameBytes()))
		f.Release()
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for an ingested frame")
	}
}

func TestDevice_StartCaptureTwiceFails(t *testing.T) {
	d := New(Config{ID: "srt-test", MuxerPath: "sh", MuxerArgs: []string{"-c", "yes"}})
	ctx := context.Background()
	require.NoError(t, d.StartCapture(ctx, tinyMode()))
	defer d.StopCapture(ctx)

	err := d.StartCapture(ctx, tinyMode())
	assert.ErrorIs(t, err, device.ErrAlreadyCapturing)
}

func TestDevice_StartCaptureBadMuxerPathErrors(t *testing.T) {
	d := New(Config{ID: "srt-test", MuxerPath: "/nonexistent/muxer-binary"})
	err := d.StartCapture(context.Background(), tinyMode())
	require.Error(t, err)
	assert.Equal(t, device.StatusError, d.Status())
}
