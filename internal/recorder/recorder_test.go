package recorder

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golfcast/golfcast/internal/device"
	"github.com/golfcast/golfcast/internal/device/synthetic"
	"github.com/golfcast/golfcast/internal/encode"
)

func fastMode() device.VideoMode {
	return device.VideoMode{
		Width:       16,
		Height:      8,
		FrameRate:   device.Rational{Numerator: 200, Denominator: 1},
		PixelFormat: device.PixelFormatUYVY,
		Label:       "test-mode",
	}
}

func startedDevice(t *testing.T, id string) *synthetic.Device {
	t.Helper()
	d := synthetic.New(id, id)
	require.NoError(t, d.StartCapture(context.Background(), fastMode()))
	t.Cleanup(func() { _ = d.StopCapture(context.Background()) })
	return d
}

func lookupFor(devices ...device.Device) DeviceLookup {
	byID := make(map[string]device.Device, len(devices))
	for _, d := range devices {
		byID[d.ID()] = d
	}
	return func(id string) (device.Device, bool) {
		d, ok := byID[id]
		return d, ok
	}
}

func TestRecorder_StartRecording_CreatesOnePipelinePerInput(t *testing.T) {
	golfer := startedDevice(t, "syn-golfer")
	sim := startedDevice(t, "syn-simulator")

	r := New(lookupFor(golfer, sim), nil, nil)

	var transitions []State
	r.OnStateChanged(func(old, new State) { transitions = append(transitions, new) })

	session, err := r.StartRecording(context.Background(), StartOptions{
		OutputDirectory: t.TempDir(),
		Preset:          encode.Preset{Name: "default"},
		MuxerPath:       "cat",
		Inputs: []InputConfig{
			{DeviceID: "syn-golfer", Suffix: "_golfer"},
			{DeviceID: "syn-simulator", Suffix: "_sim"},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, session) // no repository wired, so no row is persisted
	assert.Equal(t, StateRecording, r.State())
	assert.Contains(t, transitions, StateStarting)
	assert.Contains(t, transitions, StateRecording)

	r.mu.Lock()
	count := len(r.inputs)
	r.mu.Unlock()
	assert.Equal(t, 2, count)

	_, err = r.StopRecording(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateStopped, r.State())
}

func TestRecorder_StartRecording_NoInputsFails(t *testing.T) {
	r := New(lookupFor(), nil, nil)
	_, err := r.StartRecording(context.Background(), StartOptions{OutputDirectory: t.TempDir()})
	assert.ErrorIs(t, err, ErrNoInputs)
	assert.Equal(t, StateStopped, r.State())
}

func TestRecorder_StartRecording_DeviceNotCapturingFails(t *testing.T) {
	idle := synthetic.New("syn-idle", "idle")
	r := New(lookupFor(idle), nil, nil)

	_, err := r.StartRecording(context.Background(), StartOptions{
		OutputDirectory: t.TempDir(),
		MuxerPath:       "cat",
		Inputs:          []InputConfig{{DeviceID: "syn-idle"}},
	})
	assert.Error(t, err)
	assert.Equal(t, StateError, r.State())
}

func TestRecorder_StartRecording_UnknownDeviceFails(t *testing.T) {
	r := New(lookupFor(), nil, nil)
	_, err := r.StartRecording(context.Background(), StartOptions{
		OutputDirectory: t.TempDir(),
		MuxerPath:       "cat",
		Inputs:          []InputConfig{{DeviceID: "does-not-exist"}},
	})
	assert.Error(t, err)
	assert.Equal(t, StateError, r.State())
}

func TestRecorder_PauseResume(t *testing.T) {
	golfer := startedDevice(t, "syn-golfer")
	r := New(lookupFor(golfer), nil, nil)

	_, err := r.StartRecording(context.Background(), StartOptions{
		OutputDirectory: t.TempDir(),
		MuxerPath:       "cat",
		Inputs:          []InputConfig{{DeviceID: "syn-golfer"}},
	})
	require.NoError(t, err)

	require.NoError(t, r.Pause())
	assert.Equal(t, StatePaused, r.State())
	assert.True(t, r.paused.Load())

	require.NoError(t, r.Resume())
	assert.Equal(t, StateRecording, r.State())
	assert.False(t, r.paused.Load())

	_, err = r.StopRecording(context.Background())
	require.NoError(t, err)
}

func TestRecorder_PauseWhenNotRecordingFails(t *testing.T) {
	r := New(lookupFor(), nil, nil)
	assert.ErrorIs(t, r.Pause(), ErrNotRecording)
	assert.ErrorIs(t, r.Resume(), ErrNotRecording)
}

func TestRecorder_StopRecording_WhenNotRecordingFails(t *testing.T) {
	r := New(lookupFor(), nil, nil)
	_, err := r.StopRecording(context.Background())
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestRecorder_StartRecording_AlreadyRecordingFails(t *testing.T) {
	golfer := startedDevice(t, "syn-golfer")
	r := New(lookupFor(golfer), nil, nil)

	opts := StartOptions{
		OutputDirectory: t.TempDir(),
		MuxerPath:       "cat",
		Inputs:          []InputConfig{{DeviceID: "syn-golfer"}},
	}
	_, err := r.StartRecording(context.Background(), opts)
	require.NoError(t, err)

	_, err = r.StartRecording(context.Background(), opts)
	assert.ErrorIs(t, err, ErrAlreadyRecording)

	_, _ = r.StopRecording(context.Background())
}

func TestRecorder_OutputDirectoryIsCreated(t *testing.T) {
	golfer := startedDevice(t, "syn-golfer")
	r := New(lookupFor(golfer), nil, nil)

	dir := t.TempDir() + "/nested/output"
	_, err := r.StartRecording(context.Background(), StartOptions{
		OutputDirectory: dir,
		MuxerPath:       "cat",
		Inputs:          []InputConfig{{DeviceID: "syn-golfer"}},
	})
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, _ = r.StopRecording(context.Background())
}

func TestRecorder_ProgressEventsFireWhileRecording(t *testing.T) {
	golfer := startedDevice(t, "syn-golfer")
	r := New(lookupFor(golfer), nil, nil)
	r.progressEvery = 20 * time.Millisecond

	progress := make(chan Progress, 8)
	r.OnProgress(func(p Progress) {
		select {
		case progress <- p:
		default:
		}
	})

	_, err := r.StartRecording(context.Background(), StartOptions{
		OutputDirectory: t.TempDir(),
		MuxerPath:       "cat",
		Inputs:          []InputConfig{{DeviceID: "syn-golfer"}},
	})
	require.NoError(t, err)

	select {
	case p := <-progress:
		assert.Len(t, p.Inputs, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a progress event")
	}

	_, _ = r.StopRecording(context.Background())
}
