// Package srt implements the streaming-transport receiver variant of
// device.Device: it shells out to an external media-muxer process that
// receives an SRT stream and writes raw UYVY frames to its stdout. The
// reported resolution is parsed from the subprocess's stderr banner
// ("Stream #X:Y: Video: ... WxH"), matching the frame-extract
// subprocess's convention (pkg/procsup.ParseStreamResolution).
package srt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/golfcast/golfcast/internal/device"
	"github.com/golfcast/golfcast/internal/framepool"
	"github.com/golfcast/golfcast/pkg/procsup"
)

const defaultPoolCapacity = 4

// Device receives one SRT listener endpoint via an external muxer
// process. MuxerPath/MuxerArgs are passed through verbatim — argument
// construction (caller, srt:// URI, output format) is a caller concern,
// mirroring how encode.Pipeline treats presets as opaque.
type Device struct {
	id          string
	displayName string
	muxerPath   string
	muxerArgs   []string
	logger      *slog.Logger

	mu      sync.Mutex
	status  device.Status
	mode    device.VideoMode
	hasMode bool
	sup     *procsup.Supervisor
	pool    *framepool.Pool
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

// Config describes how to launch the receiving subprocess for one SRT
// listener.
type Config struct {
	// ID is the device id; should carry the "srt-" family prefix.
	ID          string
	DisplayName string
	MuxerPath   string
	MuxerArgs   []string
	Logger      *slog.Logger
}

func New(cfg Config) *Device {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{
		id:          cfg.ID,
		displayName: cfg.DisplayName,
		muxerPath:   cfg.MuxerPath,
		muxerArgs:   cfg.MuxerArgs,
		logger:      logger,
		status:      device.StatusIdle,
		subs:        make(map[int]*sub),
	}
}

func (d *Device) ID() string          { return d.id }
func (d *Device) DisplayName() string { return d.displayName }

// ListModes reports the one mode StartCapture was last invoked with, if
// any, since the real resolution is only known once the muxer's stderr
// banner has been parsed (auto-detection, §4.1).
func (d *Device) ListModes(ctx context.Context) ([]device.VideoMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hasMode {
		return []device.VideoMode{d.mode}, nil
	}
	return nil, nil
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

// StartCapture launches the muxer subprocess and begins reading raw
// frames from its stdout, sized to mode (the caller's best estimate —
// ingest reconciles it against the subprocess's own
// stderr banner and logs a mismatch rather than failing, since the
// banner arrives after the first frames may already be flowing).
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
	d.mu.Unlock()

	captured := &procsup.CapturedStderr{}
	sup := procsup.New(procsup.Config{
		Path:       d.muxerPath,
		Args:       d.muxerArgs,
		StdoutPipe: true,
		Logger:     d.logger,
		StderrSink: captured.Sink,
	})

	genCtx, cancel := context.WithCancel(context.Background())
	if err := sup.Start(genCtx); err != nil {
		cancel()
		d.setStatus(device.StatusError)
		return fmt.Errorf("srt: starting muxer: %w", err)
	}

	d.mu.Lock()
	d.sup = sup
	d.cancel = cancel
	d.done = make(chan struct{})
	d.mu.Unlock()

	d.setStatus(device.StatusCapturing)
	go d.ingest(genCtx, sup, mode, captured)
	return nil
}

func (d *Device) ingest(ctx context.Context, sup *procsup.Supervisor, mode device.VideoMode, captured *procsup.CapturedStderr) {
	defer close(d.done)

	frameSize := int(mode.FrameBytes())
	reader := bufio.NewReaderSize(sup.Stdout(), frameSize*2)
	var frameNum uint64

	if w, h, ok := procsup.ParseStreamResolution(captured.String()); ok {
		if uint32(w) != mode.Width || uint32(h) != mode.Height {
			d.logger.Warn("srt: muxer reports different resolution than requested",
				slog.Int("reported_width", w), slog.Int("reported_height", h),
				slog.Uint64("requested_width", uint64(mode.Width)), slog.Uint64("requested_height", uint64(mode.Height)))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		d.mu.Lock()
		pool := d.pool
		d.mu.Unlock()
		if pool == nil {
			return
		}

		buf, err := pool.Rent(frameSize)
		if err != nil {
			return
		}
		if _, err := io.ReadFull(reader, buf.Bytes()); err != nil {
			buf.Release()
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				d.logger.Error("srt: reading frame from muxer stdout", slog.String("error", err.Error()))
			}
			d.setStatus(device.StatusError)
			return
		}

		frameNum++
		frame := device.NewVideoFrame(mode, mode.RowBytes(), 0, frameNum, buf)
		d.publishVideo(frame)
	}
}

// StopCapture stops the muxer subprocess and waits for ingest to drain.
func (d *Device) StopCapture(ctx context.Context) error {
	d.mu.Lock()
	if d.status != device.StatusCapturing && d.status != device.StatusInitializing {
		d.mu.Unlock()
		return nil
	}
	cancel := d.cancel
	sup := d.sup
	done := d.done
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sup != nil {
		_ = sup.Stop()
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

func (d *Device) setStatus(s device.Status) {
	d.mu.Lock()
	changed := d.status != s
	d.status = s
	d.mu.Unlock()
	if changed {
		d.publishStatus(s)
	}
}

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
