// Package overlay implements the §4.8 overlay-compositor boundary: a
// logo-bug and/or lower-third pass over an already-extracted clip,
// driven by the same muxer subprocess the encoding and frame-extract
// boundaries use.
package overlay

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/golfcast/golfcast/internal/clipexport"
	"github.com/golfcast/golfcast/pkg/procsup"
)

// Compositor drives the muxer as a one-shot filter-graph subprocess per
// clip. It pre-scales the logo bug to the target pixel size itself
// (rather than letting the filter graph scale it per-frame) so the
// subprocess does a single decode of an already-correctly-sized image.
type Compositor struct {
	muxerPath string
	logger    *slog.Logger
	tmpDir    string
}

// New creates a Compositor that shells out to muxerPath (an
// ffmpeg-compatible binary).
func New(muxerPath string, logger *slog.Logger) *Compositor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compositor{muxerPath: muxerPath, logger: logger, tmpDir: os.TempDir()}
}

// ExportWithOverlays implements clipexport.OverlayCompositor.
func (c *Compositor) ExportWithOverlays(ctx context.Context, basePath, finalPath, golferName string, logoBug *clipexport.LogoBugConfig, lowerThird *clipexport.LowerThirdConfig) error {
	args := []string{"-y", "-i", basePath}

	var scaledLogoPath string
	if logoBug != nil && logoBug.Path != "" {
		w, h, err := c.probeResolution(ctx, basePath)
		if err != nil {
			return fmt.Errorf("probing base clip resolution: %w", err)
		}

		scaledLogoPath, err = c.prescaleLogo(logoBug, w, h)
		if err != nil {
			return fmt.Errorf("pre-scaling logo bug: %w", err)
		}
		defer os.Remove(scaledLogoPath)

		args = append(args, "-i", scaledLogoPath)
	}

	filterGraph, outputLabel := buildFilterGraph(logoBug, lowerThird, golferName, scaledLogoPath != "")
	if filterGraph != "" {
		args = append(args, "-filter_complex", filterGraph, "-map", outputLabel, "-map", "0:a?")
	}
	args = append(args, "-c:a", "copy", finalPath)

	sup := procsup.New(procsup.Config{
		Path:            c.muxerPath,
		Args:            args,
		ShutdownTimeout: 10 * time.Second,
		Logger:          c.logger,
	})
	if err := sup.Start(ctx); err != nil {
		return fmt.Errorf("starting overlay subprocess: %w", err)
	}
	if err := sup.Wait(); err != nil {
		return fmt.Errorf("overlay subprocess: %w", err)
	}
	return nil
}

// probeResolution shells out to the muxer with no output to read the
// base clip's reported resolution off its stderr banner, the same
// "Stream #X:Y: Video: ... WxH" contract the frame-extract boundary
// relies on (§6, pkg/procsup.ParseStreamResolution).
func (c *Compositor) probeResolution(ctx context.Context, path string) (int, int, error) {
	captured := &procsup.CapturedStderr{}
	sup := procsup.New(procsup.Config{
		Path:            c.muxerPath,
		Args:            []string{"-i", path},
		ShutdownTimeout: 5 * time.Second,
		StderrSink:      captured.Sink,
	})
	if err := sup.Start(ctx); err != nil {
		return 0, 0, err
	}
	// A bare "-i" with no output deliberately fails once ffmpeg has
	// printed the input banner; the resolution is already in stderr by
	// then regardless of the exit code.
	_ = sup.Wait()

	w, h, ok := procsup.ParseStreamResolution(captured.String())
	if !ok {
		return 0, 0, fmt.Errorf("could not determine resolution of %s", path)
	}
	return w, h, nil
}

// prescaleLogo decodes the configured logo bug PNG and scales it to
// ScalePct of the frame width (preserving aspect ratio), writing the
// result to a temp file whose path is returned.
func (c *Compositor) prescaleLogo(cfg *clipexport.LogoBugConfig, frameW, frameH int) (string, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return "", fmt.Errorf("opening logo bug: %w", err)
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decoding logo bug: %w", err)
	}

	targetW := int(float64(frameW) * cfg.ScalePct)
	if targetW < 1 {
		targetW = 1
	}
	srcBounds := src.Bounds()
	aspect := float64(srcBounds.Dy()) / float64(srcBounds.Dx())
	targetH := int(float64(targetW) * aspect)
	if targetH < 1 {
		targetH = 1
	}
	_ = frameH

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, srcBounds, xdraw.Over, nil)
	if cfg.Opacity < 1 {
		applyOpacity(dst, cfg.Opacity)
	}

	out, err := os.CreateTemp(c.tmpDir, "golfcast-logo-*.png")
	if err != nil {
		return "", fmt.Errorf("creating scaled logo temp file: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, dst); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("encoding scaled logo: %w", err)
	}
	return out.Name(), nil
}

// applyOpacity scales the alpha channel of img in place.
func applyOpacity(img *image.RGBA, opacity float64) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			idx := img.PixOffset(x, y)
			a := img.Pix[idx+3]
			img.Pix[idx+3] = uint8(float64(a) * opacity)
		}
	}
}

// buildFilterGraph constructs the ffmpeg filter_complex graph for the
// requested overlay pieces. Positions are expressed as filter-graph
// overlay expressions computed from the configured percentages; drawtext
// renders the lower third directly onto the base video.
func buildFilterGraph(logoBug *clipexport.LogoBugConfig, lowerThird *clipexport.LowerThirdConfig, golferName string, haveScaledLogo bool) (string, string) {
	var stages []string
	current := "[0:v]"
	label := 0
	nextLabel := func() string {
		label++
		return fmt.Sprintf("[v%d]", label)
	}

	if logoBug != nil && haveScaledLogo {
		out := nextLabel()
		x := fmt.Sprintf("main_w*%.4f-overlay_w", logoBug.XPct)
		y := fmt.Sprintf("main_h*%.4f", logoBug.YPct)
		stages = append(stages, fmt.Sprintf("%s[1:v]overlay=x=%s:y=%s%s", current, x, y, out))
		current = out
	}

	if lowerThird != nil {
		text := strings.ReplaceAll(lowerThird.Text, "{name}", golferName)
		if text == "" {
			text = golferName
		}
		out := nextLabel()
		stages = append(stages, fmt.Sprintf(
			"%sdrawtext=text='%s':fontcolor=%s:fontsize=%d:box=1:boxcolor=%s@%.2f:x=%s:y=%s%s",
			current,
			escapeDrawtext(text),
			drawtextColor(lowerThird.FGColor),
			lowerThird.Size,
			drawtextColor(lowerThird.BGColor),
			lowerThird.BGOpacity,
			lowerThirdX(lowerThird.Position),
			lowerThirdY(lowerThird.Position),
			out,
		))
		current = out
	}

	if len(stages) == 0 {
		return "", "0:v"
	}
	return strings.Join(stages, ";"), current
}

func escapeDrawtext(s string) string {
	return strings.NewReplacer(":", "\\:", "'", "\\'").Replace(s)
}

func drawtextColor(hex string) string {
	if hex == "" {
		return "white"
	}
	return strings.TrimPrefix(hex, "#")
}

func lowerThirdX(position string) string {
	if strings.HasSuffix(position, "right") {
		return "main_w-text_w-20"
	}
	return "20"
}

func lowerThirdY(position string) string {
	if strings.HasPrefix(position, "top") {
		return "20"
	}
	return "main_h-text_h-20"
}
