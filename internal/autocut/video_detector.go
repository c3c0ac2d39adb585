package autocut

import "github.com/golfcast/golfcast/internal/autocut/luma"

// SwingDetector watches the golfer-camera source for a sudden motion
// spike in the ROI against a slow exponential moving average baseline.
type SwingDetector struct {
	cfg Config
	roi luma.ROI

	history    []luma.Grid
	historyLen int
	writeIdx   int

	ema            float64
	emaInitialized bool
}

// NewSwingDetector allocates the circular luma history (size
// frame_compare_gap + 1) and the grids it writes into.
func NewSwingDetector(cfg Config) *SwingDetector {
	size := cfg.FrameCompareGap + 1
	history := make([]luma.Grid, size)
	for i := range history {
		history[i] = luma.NewGrid(cfg.AnalysisWidth, cfg.AnalysisHeight)
	}
	return &SwingDetector{
		cfg:     cfg,
		roi:     luma.ROI{Left: cfg.ROILeft, Top: cfg.ROITop, Width: cfg.ROIWidth, Height: cfg.ROIHeight},
		history: history,
	}
}

// Reset clears EMA and history state (Disabled -> WaitingForSwing).
func (d *SwingDetector) Reset() {
	d.historyLen = 0
	d.writeIdx = 0
	d.ema = 0
	d.emaInitialized = false
}

// Step extracts luma from frame into the next history slot and reports
// whether a swing spike was detected against the frame frame_compare_gap
// cycles ago.
func (d *SwingDetector) Step(frame []byte, srcW, srcH int) (detected bool) {
	gap := d.cfg.FrameCompareGap
	size := len(d.history)

	current := d.history[d.writeIdx]
	luma.ExtractUYVY(current, frame, srcW, srcH)

	if d.historyLen < size {
		d.historyLen++
		d.writeIdx = (d.writeIdx + 1) % size
		return false
	}

	compareIdx := (d.writeIdx - gap + size) % size
	compare := d.history[compareIdx]

	sad := luma.SADOverROI(current, compare, d.roi)

	threshold := d.ema * d.cfg.SwingSpikeMultiplier
	if d.cfg.MinimumSpikeThreshold > threshold {
		threshold = d.cfg.MinimumSpikeThreshold
	}
	detected = sad > threshold

	d.updateEMA(sad)
	d.writeIdx = (d.writeIdx + 1) % size
	return detected
}

func (d *SwingDetector) updateEMA(sample float64) {
	if !d.emaInitialized {
		d.ema = sample
		d.emaInitialized = true
		return
	}
	d.ema = d.cfg.EMAAlpha*sample + (1-d.cfg.EMAAlpha)*d.ema
}
