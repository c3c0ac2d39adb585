// Package clipexport turns a completed SwingSequence into a final clip
// file on disk: clip the golfer's swing window out of the simulator
// recording, optionally composite a logo bug / lower-third over it,
// and publish the result's status and path (§4.8).
package clipexport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/semaphore"

	"github.com/golfcast/golfcast/internal/models"
	"github.com/golfcast/golfcast/internal/repository"
)

// ClipHandle identifies a clip the clipping service has been told to
// prepare, ready for ExtractClip.
type ClipHandle struct {
	Name      string
	InOffset  time.Duration
	OutOffset time.Duration
}

// ExtractOptions configures where and under what name ExtractClip
// writes its output.
type ExtractOptions struct {
	OutputDir    string
	NameTemplate string
}

// ClippingService is the §6 external interface for the simulator's own
// clip-in-place machinery: select the active recording, describe a
// clip against it, and extract it to a standalone file.
type ClippingService interface {
	SetActiveRecording(ctx context.Context, path string) error
	CreateClip(ctx context.Context, name string, inOffset, outOffset time.Duration) (ClipHandle, error)
	ExtractClip(ctx context.Context, clip ClipHandle, opts ExtractOptions) (outputPath string, err error)
}

// LogoBugConfig is the logo-bug half of an OverlayConfig, passed to the
// compositor only when a path is configured.
type LogoBugConfig struct {
	Path     string
	XPct     float64
	YPct     float64
	ScalePct float64
	Opacity  float64
}

// LowerThirdConfig is the lower-third half of an OverlayConfig, passed
// to the compositor only when enabled.
type LowerThirdConfig struct {
	Text      string
	Font      string
	Size      int
	FGColor   string
	BGColor   string
	BGOpacity float64
	Position  string
}

// OverlayCompositor is the §6 external interface for the optional
// logo-bug / lower-third rendering pass.
type OverlayCompositor interface {
	ExportWithOverlays(ctx context.Context, basePath, finalPath, golferName string, logoBug *LogoBugConfig, lowerThird *LowerThirdConfig) error
}

// FragmentWaiter lets the pipeline delay extraction until the
// in-progress simulator recording has produced enough fragments to
// cover the requested out-offset, instead of extracting against a
// truncated file. A no-op implementation is fine for a clipping
// service that manages its own readiness.
type FragmentWaiter func(ctx context.Context, recordingPath string, readyAt time.Time) error

// Pipeline runs the §4.8 clip export steps for each completed
// SwingSequence, bounded to a configurable number of concurrent
// exports.
type Pipeline struct {
	clipping ClippingService
	overlay  OverlayCompositor
	waiter   FragmentWaiter

	sessions  repository.SessionRepository
	sequences repository.SequenceRepository
	overlays  repository.OverlayConfigRepository
	clips     repository.ClipRepository

	sem    *semaphore.Weighted
	logger *slog.Logger

	attempts         uint
	maxRetentionSize int64
}

// Options configures a Pipeline.
type Options struct {
	Clipping       ClippingService
	Overlay        OverlayCompositor
	Waiter         FragmentWaiter
	Sessions       repository.SessionRepository
	Sequences      repository.SequenceRepository
	OverlayConfigs repository.OverlayConfigRepository
	Clips          repository.ClipRepository
	MaxConcurrent  int64
	Logger         *slog.Logger

	// MaxRetentionSize bounds the exported-clip directory in bytes; once
	// the sum of all persisted clips' FileSizeBytes crosses it, run logs
	// a warning. Zero disables the check.
	MaxRetentionSize int64
}

// New creates a Pipeline. MaxConcurrent defaults to 1 if <= 0.
func New(opts Options) *Pipeline {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	waiter := opts.Waiter
	if waiter == nil {
		waiter = func(context.Context, string, time.Time) error { return nil }
	}
	return &Pipeline{
		clipping:  opts.Clipping,
		overlay:   opts.Overlay,
		waiter:    waiter,
		sessions:  opts.Sessions,
		sequences: opts.Sequences,
		overlays:  opts.OverlayConfigs,
		clips:     opts.Clips,
		sem:              semaphore.NewWeighted(opts.MaxConcurrent),
		logger:           logger,
		attempts:         3,
		maxRetentionSize: opts.MaxRetentionSize,
	}
}

// Export runs the export for seq asynchronously, off the caller's
// goroutine — per §4.8 "exports run off the program-source-change
// callback thread". Intended to be registered via
// sequence.Recorder.OnSequenceCompleted.
func (p *Pipeline) Export(seq *models.SwingSequence) {
	go p.run(context.Background(), seq)
}

func (p *Pipeline) run(ctx context.Context, seq *models.SwingSequence) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.logger.Error("clipexport: failed to acquire export slot", slog.String("error", err.Error()))
		return
	}
	defer p.sem.Release(1)

	if err := p.export(ctx, seq); err != nil {
		p.logger.Error("clipexport: export failed",
			slog.String("sequence_id", seq.ID.String()), slog.String("error", err.Error()))
		_ = p.sequences.UpdateExportStatus(ctx, seq.ID, models.ExportStatusFailed, "", err.Error())
	}
}

func (p *Pipeline) export(ctx context.Context, seq *models.SwingSequence) error {
	if seq.OutPointTicks == nil {
		return fmt.Errorf("clipexport: sequence %s has no out point", seq.ID)
	}

	session, err := p.sessions.GetByID(ctx, seq.SessionID)
	if err != nil {
		return fmt.Errorf("looking up session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("clipexport: session %s not found", seq.SessionID)
	}

	sessionStartTicks := session.StartUTC.UnixNano()
	inOffset := clampNonNegative(seq.InPointTicks - sessionStartTicks)
	outOffset := clampNonNegative(*seq.OutPointTicks - sessionStartTicks)

	name := fmt.Sprintf("Swing_%03d_%s", seq.SequenceNumber, session.GolferName)

	if err := p.retry(ctx, func() error {
		return p.clipping.SetActiveRecording(ctx, session.Source2RecordingPath)
	}); err != nil {
		return fmt.Errorf("setting active recording: %w", err)
	}

	if err := p.sequences.UpdateExportStatus(ctx, seq.ID, models.ExportStatusExtracting, "", ""); err != nil {
		p.logger.Warn("clipexport: failed to publish Extracting status", slog.String("error", err.Error()))
	}

	var clip ClipHandle
	if err := p.retry(ctx, func() error {
		var cerr error
		clip, cerr = p.clipping.CreateClip(ctx, name, inOffset, outOffset)
		return cerr
	}); err != nil {
		return fmt.Errorf("creating clip: %w", err)
	}

	readyAt := session.StartUTC.Add(outOffset)
	if err := p.waiter(ctx, session.Source2RecordingPath, readyAt); err != nil {
		p.logger.Warn("clipexport: fragment wait returned an error, extracting anyway",
			slog.String("error", err.Error()))
	}

	swingsDir := filepath.Join(filepath.Dir(session.Source2RecordingPath), "Swings")
	var basePath string
	if err := p.retry(ctx, func() error {
		var eerr error
		basePath, eerr = p.clipping.ExtractClip(ctx, clip, ExtractOptions{
			OutputDir:    swingsDir,
			NameTemplate: name,
		})
		return eerr
	}); err != nil {
		return fmt.Errorf("extracting clip: %w", err)
	}

	finalPath := basePath
	if cfg, err := p.overlays.GetDefault(ctx); err != nil {
		p.logger.Warn("clipexport: failed to load overlay config, skipping overlay pass",
			slog.String("error", err.Error()))
	} else if cfg != nil && (cfg.LogoBugPath != "" || cfg.LowerThirdEnabled) {
		if err := p.sequences.UpdateExportStatus(ctx, seq.ID, models.ExportStatusOverlayRendering, "", ""); err != nil {
			p.logger.Warn("clipexport: failed to publish OverlayRendering status", slog.String("error", err.Error()))
		}

		candidate := strings.TrimSuffix(basePath, filepath.Ext(basePath)) + "_final.mp4"
		logoBug, lowerThird := overlayConfigsFrom(cfg)
		if err := p.retry(ctx, func() error {
			return p.overlay.ExportWithOverlays(ctx, basePath, candidate, session.GolferName, logoBug, lowerThird)
		}); err != nil {
			return fmt.Errorf("compositing overlays: %w", err)
		}
		finalPath = candidate
	}

	if p.clips != nil {
		info, statErr := statSize(finalPath)
		if statErr != nil {
			p.logger.Warn("clipexport: failed to stat final clip", slog.String("error", statErr.Error()))
		}
		if err := p.clips.Create(ctx, &models.Clip{
			SwingSequenceID: seq.ID,
			Name:            name,
			OutputPath:      finalPath,
			DurationMS:      (outOffset - inOffset).Milliseconds(),
			FileSizeBytes:   info,
		}); err != nil {
			p.logger.Warn("clipexport: failed to persist clip row", slog.String("error", err.Error()))
		}

		p.checkRetention(ctx)
	}

	if err := p.sequences.UpdateExportStatus(ctx, seq.ID, models.ExportStatusCompleted, finalPath, ""); err != nil {
		return fmt.Errorf("persisting completed status: %w", err)
	}
	return nil
}

// retry retries fn per the export error kind taxonomy (§7): only errors
// wrapping ErrInvalidOperation are retried, with exponential backoff up
// to p.attempts tries; every other error kind fails on the first try.
func (p *Pipeline) retry(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrInvalidOperation)
		}),
	)
}

func overlayConfigsFrom(cfg *models.OverlaySettings) (*LogoBugConfig, *LowerThirdConfig) {
	var logoBug *LogoBugConfig
	if cfg.LogoBugPath != "" {
		logoBug = &LogoBugConfig{
			Path:     cfg.LogoBugPath,
			XPct:     cfg.LogoBugXPct,
			YPct:     cfg.LogoBugYPct,
			ScalePct: cfg.LogoBugScalePct,
			Opacity:  cfg.LogoBugOpacity,
		}
	}
	var lowerThird *LowerThirdConfig
	if cfg.LowerThirdEnabled {
		lowerThird = &LowerThirdConfig{
			Text:      cfg.LowerThirdText,
			Font:      cfg.LowerThirdFont,
			Size:      cfg.LowerThirdSize,
			FGColor:   cfg.LowerThirdFGColor,
			BGColor:   cfg.LowerThirdBGColor,
			BGOpacity: cfg.LowerThirdBGOpacity,
			Position:  cfg.LowerThirdPosition,
		}
	}
	return logoBug, lowerThird
}

// checkRetention logs a warning once the cumulative size of all
// persisted clips crosses p.maxRetentionSize. It only observes; nothing
// is deleted automatically.
func (p *Pipeline) checkRetention(ctx context.Context) {
	if p.maxRetentionSize <= 0 || p.clips == nil {
		return
	}
	clips, err := p.clips.GetAll(ctx)
	if err != nil {
		p.logger.Warn("clipexport: failed to list clips for retention check", slog.String("error", err.Error()))
		return
	}
	var total int64
	for _, c := range clips {
		total += c.FileSizeBytes
	}
	if total > p.maxRetentionSize {
		p.logger.Warn("clipexport: exported clip storage exceeds configured retention size",
			slog.Int64("total_bytes", total), slog.Int64("max_retention_size", p.maxRetentionSize))
	}
}

func statSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func clampNonNegative(nanos int64) time.Duration {
	if nanos < 0 {
		return 0
	}
	return time.Duration(nanos)
}
