// Package encode supervises one external muxer/encoder process per
// recorded input (§4.3), feeding it raw UYVY video and PCM audio over
// stdin and producing a fragmented MP4 on disk.
package encode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/golfcast/golfcast/internal/device"
	"github.com/golfcast/golfcast/pkg/procsup"
)

// ErrNotInitialized is returned by Finalize made before Initialize or
// after a prior Finalize. Writes made in that state return nothing; they
// are discarded (video frames are counted as dropped).
var ErrNotInitialized = errors.New("encode: pipeline not initialized")

// HWAccelMode selects hardware acceleration for the muxer invocation.
type HWAccelMode int

const (
	HWAccelAuto HWAccelMode = iota
	HWAccelOn
	HWAccelOff
)

// Preset is an opaque, named encoder configuration. Presets are passed
// through to the muxer invocation as extra arguments; the core never
// interprets their contents.
type Preset struct {
	Name string
	Args []string
}

// Options configures a single input's encoding pipeline.
type Options struct {
	FilePath           string
	VideoMode          device.VideoMode
	AudioSampleRate     uint32
	AudioChannels       uint32
	AudioBitsPerSample  uint32
	Preset             Preset
	HWAccel            HWAccelMode
	UseFragmentedMP4   bool
	// MuxerPath is the external muxer/encoder binary. Tests substitute a
	// stand-in; production wires the real ffmpeg-compatible binary.
	MuxerPath string
	Logger    *slog.Logger
}

// Pipeline persists one input's frames and audio as a single fragmented
// MP4 file via a supervised external process. Writes are best-effort:
// a pipe error never blocks or propagates to the capture callback path,
// it only increments DroppedFrames (§4.3, §7 transient I/O errors).
type Pipeline struct {
	opts Options
	sup  *procsup.Supervisor

	initialized atomic.Bool
	framesWritten atomic.Uint64
	droppedFrames atomic.Uint64
	bytesWritten  atomic.Uint64
}

// New creates an uninitialized Pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Initialize starts the supervised muxer process with arguments built
// from opts. The muxer is expected to read raw UYVY frames of
// width*height*2 bytes and PCM audio interleaved on stdin, per §6.
func (p *Pipeline) Initialize(ctx context.Context, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MuxerPath == "" {
		opts.MuxerPath = "ffmpeg"
	}
	p.opts = opts

	args := buildMuxerArgs(opts)
	p.sup = procsup.New(procsup.Config{
		Path:            opts.MuxerPath,
		Args:            args,
		StdinPipe:       true,
		ShutdownTimeout: 10 * time.Second,
		Logger:          opts.Logger,
	})

	if err := p.sup.Start(ctx); err != nil {
		return fmt.Errorf("starting muxer: %w", err)
	}
	p.initialized.Store(true)
	return nil
}

// buildMuxerArgs constructs the muxer's argv. Presets are opaque and
// appended verbatim; the core only supplies format/geometry and the
// output path.
func buildMuxerArgs(opts Options) []string {
	mode := opts.VideoMode
	args := []string{
		"-hide_banner", "-loglevel", "warning",
		"-f", "rawvideo",
		"-pix_fmt", "uyvy422",
		"-s", fmt.Sprintf("%dx%d", mode.Width, mode.Height),
		"-r", fmt.Sprintf("%d/%d", mode.FrameRate.Numerator, mode.FrameRate.Denominator),
		"-i", "pipe:0",
	}
	switch opts.HWAccel {
	case HWAccelOn:
		args = append(args, "-hwaccel", "auto")
	case HWAccelOff:
		// explicit software path; no extra flag needed beyond default.
	case HWAccelAuto:
		// let the muxer decide.
	}
	args = append(args, opts.Preset.Args...)
	if opts.UseFragmentedMP4 {
		args = append(args, "-movflags", "frag_keyframe+empty_moov+default_base_moof")
	}
	args = append(args, opts.FilePath)
	return args
}

// WriteVideoFrame writes one raw video frame. Errors never propagate:
// they are counted in DroppedFrames and logged.
func (p *Pipeline) WriteVideoFrame(data []byte, timestamp time.Duration) {
	if !p.initialized.Load() {
		p.droppedFrames.Add(1)
		return
	}
	if err := p.sup.Write(data); err != nil {
		p.droppedFrames.Add(1)
		p.opts.Logger.Warn("dropped video frame", slog.String("error", err.Error()))
		return
	}
	p.framesWritten.Add(1)
	p.bytesWritten.Add(uint64(len(data)))
}

// WriteAudioSamples writes one block of PCM audio. Same best-effort
// semantics as WriteVideoFrame.
func (p *Pipeline) WriteAudioSamples(data []byte, timestamp time.Duration) {
	if !p.initialized.Load() {
		return
	}
	if err := p.sup.Write(data); err != nil {
		p.opts.Logger.Warn("dropped audio block", slog.String("error", err.Error()))
		return
	}
	p.bytesWritten.Add(uint64(len(data)))
}

// Finalize closes stdin, waits for the muxer to flush and exit (up to
// its shutdown timeout), then force-terminates if needed. The resulting
// file is playable up to the last complete fragment even if the muxer
// was killed mid-write.
func (p *Pipeline) Finalize() error {
	if !p.initialized.CompareAndSwap(true, false) {
		return ErrNotInitialized
	}
	return p.sup.Stop()
}

// FramesWritten returns the count of successfully written video frames.
func (p *Pipeline) FramesWritten() uint64 { return p.framesWritten.Load() }

// DroppedFrames returns the count of video frames that failed to write.
func (p *Pipeline) DroppedFrames() uint64 { return p.droppedFrames.Load() }

// BytesWritten returns the total bytes (video+audio) written to the muxer.
func (p *Pipeline) BytesWritten() uint64 { return p.bytesWritten.Load() }
