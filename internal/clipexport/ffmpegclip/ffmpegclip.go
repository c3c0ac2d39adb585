// Package ffmpegclip is the default clipexport.ClippingService: unlike
// a golf simulator vendor's own clip-in-place API, it has no notion of
// "prepare a clip, then extract it" as distinct steps, so CreateClip
// just records the offsets and ExtractClip does the real work, shelling
// out to the muxer for a stream-copy trim of the active recording.
package ffmpegclip

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golfcast/golfcast/internal/clipexport"
	"github.com/golfcast/golfcast/pkg/filename"
	"github.com/golfcast/golfcast/pkg/procsup"
)

// Service implements clipexport.ClippingService against a local
// recording file using stream-copy trims, for deployments that don't
// have a simulator vendor's own clipping API to bind to.
type Service struct {
	muxerPath string
	logger    *slog.Logger
	names     *filename.Generator

	mu     sync.Mutex
	active string
}

// New creates a Service that shells out to muxerPath (an
// ffmpeg-compatible binary) to extract clips.
func New(muxerPath string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{muxerPath: muxerPath, logger: logger, names: filename.New()}
}

// SetActiveRecording implements clipexport.ClippingService.
func (s *Service) SetActiveRecording(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = path
	return nil
}

// CreateClip implements clipexport.ClippingService. There is no
// subprocess work to do up front; the offsets are simply bundled into
// the handle for ExtractClip.
func (s *Service) CreateClip(ctx context.Context, name string, inOffset, outOffset time.Duration) (clipexport.ClipHandle, error) {
	if outOffset <= inOffset {
		return clipexport.ClipHandle{}, fmt.Errorf("ffmpegclip: out offset %s must be after in offset %s", outOffset, inOffset)
	}
	return clipexport.ClipHandle{Name: name, InOffset: inOffset, OutOffset: outOffset}, nil
}

// ExtractClip implements clipexport.ClippingService, trimming the
// active recording between the clip's offsets with a stream copy (no
// re-encode) and writing the result under opts.OutputDir.
func (s *Service) ExtractClip(ctx context.Context, clip clipexport.ClipHandle, opts ExtractOptions) (string, error) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if active == "" {
		return "", fmt.Errorf("ffmpegclip: no active recording set: %w", clipexport.ErrInvalidOperation)
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	base := s.names.Generate(opts.NameTemplate, filename.Context{Name: clip.Name})
	outputPath := filepath.Join(opts.OutputDir, base+".mp4")

	duration := clip.OutOffset - clip.InOffset
	args := []string{
		"-y",
		"-ss", formatDuration(clip.InOffset),
		"-i", active,
		"-t", formatDuration(duration),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		outputPath,
	}

	sup := procsup.New(procsup.Config{
		Path:            s.muxerPath,
		Args:            args,
		ShutdownTimeout: 10 * time.Second,
		Logger:          s.logger,
	})
	if err := sup.Start(ctx); err != nil {
		return "", fmt.Errorf("starting extract subprocess: %w", err)
	}
	if err := sup.Wait(); err != nil {
		return "", fmt.Errorf("extract subprocess: %w", err)
	}
	return outputPath, nil
}

// ExtractOptions mirrors clipexport.ExtractOptions; kept as a distinct
// type alias point so callers can pass clipexport.ExtractOptions
// directly, since the two are structurally identical.
type ExtractOptions = clipexport.ExtractOptions

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := d.Seconds()
	hours := int(total) / 3600
	minutes := (int(total) % 3600) / 60
	seconds := total - float64(hours*3600+minutes*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, seconds)
}
