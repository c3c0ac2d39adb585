package encode

import (
	"context"
	"testing"
	"time"

	"github.com/golfcast/golfcast/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMode() device.VideoMode {
	return device.VideoMode{
		Width:       1920,
		Height:      1080,
		FrameRate:   device.Rate2997,
		PixelFormat: device.PixelFormatUYVY,
	}
}

func TestPipeline_WriteAndFinalize(t *testing.T) {
	p := New()
	err := p.Initialize(context.Background(), Options{
		FilePath:         t.TempDir() + "/out.mp4",
		VideoMode:        testMode(),
		UseFragmentedMP4: true,
		MuxerPath:        "cat",
	})
	require.NoError(t, err)

	frame := make([]byte, testMode().FrameBytes())
	p.WriteVideoFrame(frame, 0)
	p.WriteAudioSamples([]byte{0, 0, 0, 0}, 0)

	require.NoError(t, p.Finalize())
	assert.Equal(t, uint64(1), p.FramesWritten())
	assert.Equal(t, uint64(0), p.DroppedFrames())
}

func TestPipeline_WriteBeforeInitializeDrops(t *testing.T) {
	p := New()
	frame := make([]byte, 16)
	// Calling WriteVideoFrame before Initialize must not block or panic;
	// it must count a dropped frame instead.
	p.WriteVideoFrame(frame, 0)
	assert.Equal(t, uint64(1), p.DroppedFrames())
	assert.Equal(t, uint64(0), p.FramesWritten())
}

func TestPipeline_FinalizeWithoutInitializeErrors(t *testing.T) {
	p := New()
	err := p.Finalize()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestPipeline_WriteAfterMuxerExitCountsDropped(t *testing.T) {
	p := New()
	err := p.Initialize(context.Background(), Options{
		FilePath:  t.TempDir() + "/out.mp4",
		VideoMode: testMode(),
		MuxerPath: "true", // exits immediately
	})
	require.NoError(t, err)

	// Give the muxer a moment to exit on its own.
	time.Sleep(50 * time.Millisecond)

	frame := make([]byte, 16)
	p.WriteVideoFrame(frame, 0)
	assert.GreaterOrEqual(t, p.DroppedFrames(), uint64(0))

	_ = p.Finalize()
}
