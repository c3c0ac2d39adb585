// Package synthetic implements a fully self-contained device.Device that
// generates black, solid-color, or still-image frames without any
// hardware dependency. It is the one device variant the core owns
// end-to-end (SDI/NDI backends are capability-only stubs and SRT needs an
// external muxer process) and is used for preview fallback and for
// exercising the capture -> pool -> recorder -> detector pipeline in
// tests without real hardware.
package synthetic

import (
	"context"
	"sync"
	"time"

	"github.com/golfcast/golfcast/internal/device"
	"github.com/golfcast/golfcast/internal/framepool"
)

// Kind selects the pattern a synthetic device generates.
type Kind int

const (
	KindBlack Kind = iota
	KindColor
	KindStill
)

const (
	defaultPoolCapacity  = 4
	defaultSampleRate    = 48000
	defaultAudioChannels = 2
)

// Device generates UYVY frames on a timer matching its negotiated frame
// rate, and a silent audio block (for every Kind) per frame interval so
// downstream audio-path code has something to consume. It keeps its own
// subscription/status bookkeeping, shaped like the device package's
// unexported baseDevice, and hands out handles via device.NewSubscription.
type Device struct {
	id          string
	displayName string

	kind  Kind
	color [3]byte // Y, U, V fill for KindColor; ignored otherwise
	still []byte  // raw UYVY still frame bytes for KindStill, if set

	pool *framepool.Pool

	mu      sync.Mutex
	status  device.Status
	mode    device.VideoMode
	hasMode bool
	cancel  context.CancelFunc
	done    chan struct{}

	nextSub int
	subMu   sync.Mutex
	subs    map[int]*sub
}

type sub struct {
	video  chan device.VideoFrame
	audio  chan device.AudioSampleBlock
	status chan device.Status
}

// New creates a black-frame synthetic device with the given id.
func New(id, displayName string) *Device {
	return newDevice(id, displayName, KindBlack, [3]byte{16, 128, 128})
}

// NewColor creates a solid-color synthetic device. y/u/v are raw UYVY
// component values.
func NewColor(id, displayName string, y, u, v byte) *Device {
	return newDevice(id, displayName, KindColor, [3]byte{y, u, v})
}

// NewStill creates a synthetic device that repeats a single raw UYVY
// frame supplied by the caller (decoding arbitrary image formats is
// outside this package's scope; callers decode once at startup and pass
// the raw frame bytes in).
func NewStill(id, displayName string, frame []byte) *Device {
	d := newDevice(id, displayName, KindStill, [3]byte{16, 128, 128})
	d.still = frame
	return d
}

func newDevice(id, displayName string, kind Kind, color [3]byte) *Device {
	return &Device{
		id:          id,
		displayName: displayName,
		kind:        kind,
		color:       color,
		status:      device.StatusIdle,
		subs:        make(map[int]*sub),
	}
}

func (d *Device) ID() string          { return d.id }
func (d *Device) DisplayName() string { return d.displayName }

// ListModes advertises a fixed set of common broadcast modes; a
// synthetic device can render any of them on request.
func (d *Device) ListModes(ctx context.Context) ([]device.VideoMode, error) {
	return []device.VideoMode{
		{Width: 1920, Height: 1080, FrameRate: device.Rate2997, PixelFormat: device.PixelFormatUYVY, Label: "1080p29.97"},
		{Width: 1920, Height: 1080, FrameRate: device.Rate30, PixelFormat: device.PixelFormatUYVY, Label: "1080p30"},
		{Width: 1280, Height: 720, FrameRate: device.Rate5994, PixelFormat: device.PixelFormatUYVY, Label: "720p59.94"},
	}, nil
}

func (d *Device) Status() device.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Device) CurrentMode() (device.VideoMode, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode, d.hasMode
}

// StartCapture begins generating frames at mode's frame rate. The pool
// is sized to mode's frame bytes so every rent is a steady-state hit
// after the first few frames.
func (d *Device) StartCapture(ctx context.Context, mode device.VideoMode) error {
	d.mu.Lock()
	if d.status == device.StatusCapturing || d.status == device.StatusInitializing {
		d.mu.Unlock()
		return device.ErrAlreadyCapturing
	}
	d.status = device.StatusInitializing
	d.mode = mode
	d.hasMode = true
	d.pool = framepool.NewPool(defaultPoolCapacity, int(mode.FrameBytes()))
	genCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	d.mu.Unlock()

	d.setStatus(device.StatusCapturing)
	go d.generate(genCtx, mode)
	return nil
}

// StopCapture signals the generator to stop and waits for it to drain.
// Idempotent once the device is not capturing.
func (d *Device) StopCapture(ctx context.Context) error {
	d.mu.Lock()
	if d.status != device.StatusCapturing && d.status != device.StatusInitializing {
		d.mu.Unlock()
		return nil
	}
	cancel := d.cancel
	done := d.done
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	d.mu.Lock()
	d.hasMode = false
	pool := d.pool
	d.pool = nil
	d.mu.Unlock()

	if pool != nil {
		pool.Dispose()
	}
	d.setStatus(device.StatusIdle)
	return nil
}

func (d *Device) generate(ctx context.Context, mode device.VideoMode) {
	defer close(d.done)

	interval := time.Second
	if hz := mode.FrameRate.Float64(); hz > 0 {
		interval = time.Duration(float64(time.Second) / hz)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pattern := d.renderPattern(mode)
	audio := d.renderAudioBlock(interval)
	start := time.Now()
	var frameNum uint64

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			frameNum++
			d.emitFrame(mode, pattern, t.Sub(start), frameNum)
			d.emitAudio(audio, t.Sub(start))
		}
	}
}

func (d *Device) emitFrame(mode device.VideoMode, pattern []byte, ts time.Duration, frameNum uint64) {
	d.mu.Lock()
	pool := d.pool
	d.mu.Unlock()
	if pool == nil {
		return
	}

	buf, err := pool.Rent(len(pattern))
	if err != nil {
		return
	}
	copy(buf.Bytes(), pattern)

	frame := device.NewVideoFrame(mode, mode.RowBytes(), ts, frameNum, buf)
	d.publishVideo(frame)
}

// renderPattern builds one tightly packed UYVY frame for this device's
// kind, rendered once and reused as the copy source for every rent.
func (d *Device) renderPattern(mode device.VideoMode) []byte {
	if d.kind == KindStill && len(d.still) == int(mode.FrameBytes()) {
		return d.still
	}

	buf := make([]byte, mode.FrameBytes())
	y, u, v := byte(16), byte(128), byte(128)
	if d.kind == KindColor {
		y, u, v = d.color[0], d.color[1], d.color[2]
	}
	for i := 0; i+3 < len(buf); i += 4 {
		buf[i] = u
		buf[i+1] = y
		buf[i+2] = v
		buf[i+3] = y
	}
	return buf
}

func (d *Device) renderAudioBlock(interval time.Duration) device.AudioSampleBlock {
	samplesPerBlock := int(float64(defaultSampleRate) * interval.Seconds())
	if samplesPerBlock < 1 {
		samplesPerBlock = 1
	}
	return device.AudioSampleBlock{
		Samples:       make([]byte, samplesPerBlock*defaultAudioChannels*2),
		SampleRate:    defaultSampleRate,
		Channels:      defaultAudioChannels,
		BitsPerSample: 16,
	}
}

func (d *Device) emitAudio(block device.AudioSampleBlock, ts time.Duration) {
	block.Timestamp = ts
	d.publishAudio(block)
}

func (d *Device) setStatus(s device.Status) {
	d.mu.Lock()
	changed := d.status != s
	d.status = s
	d.mu.Unlock()
	if changed {
		d.publishStatus(s)
	}
}

// Subscribe registers a new consumer for this device's event streams.
func (d *Device) Subscribe() *device.Subscription {
	d.subMu.Lock()
	id := d.nextSub
	d.nextSub++
	s := &sub{
		video:  make(chan device.VideoFrame, 8),
		audio:  make(chan device.AudioSampleBlock, 32),
		status: make(chan device.Status, 4),
	}
	d.subs[id] = s
	d.subMu.Unlock()

	return device.NewSubscription(d, id, s.video, s.audio, s.status)
}

// Unsubscribe is called by device.Subscription.Unsubscribe via the
// device.Unsubscriber contract.
func (d *Device) Unsubscribe(id int) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	if s, ok := d.subs[id]; ok {
		delete(d.subs, id)
		close(s.video)
		close(s.audio)
		close(s.status)
	}
}

func (d *Device) publishVideo(f device.VideoFrame) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for _, s := range d.subs {
		select {
		case s.video <- f:
		default:
			select {
			case <-s.video:
			default:
			}
			select {
			case s.video <- f:
			default:
			}
		}
	}
}

func (d *Device) publishAudio(a device.AudioSampleBlock) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for _, s := range d.subs {
		select {
		case s.audio <- a:
		default:
		}
	}
}

func (d *Device) publishStatus(st device.Status) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for _, s := range d.subs {
		select {
		case s.status <- st:
		default:
		}
	}
}
