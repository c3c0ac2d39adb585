package autocut

import "github.com/golfcast/golfcast/internal/autocut/luma"

// ResetDetector watches the simulator source for a return to an
// idle-like state: high similarity against a calibrated idle reference,
// and low inter-frame motion, sustained for several consecutive frames.
type ResetDetector struct {
	cfg Config

	calibrated  bool
	reference   luma.Grid
	previous    luma.Grid
	hasPrevious bool

	consecutiveIdle int
}

// NewResetDetector allocates the grids used for comparison.
func NewResetDetector(cfg Config) *ResetDetector {
	return &ResetDetector{
		cfg:       cfg,
		reference: luma.NewGrid(cfg.AnalysisWidth, cfg.AnalysisHeight),
		previous:  luma.NewGrid(cfg.AnalysisWidth, cfg.AnalysisHeight),
	}
}

// CalibrateIdleReference stores frame as the confirmed-idle baseline.
// Without a prior call to this, Step never emits a reset.
func (d *ResetDetector) CalibrateIdleReference(frame []byte, srcW, srcH int) {
	luma.ExtractUYVY(d.reference, frame, srcW, srcH)
	d.calibrated = true
}

// Calibrated reports whether CalibrateIdleReference has ever succeeded.
func (d *ResetDetector) Calibrated() bool {
	return d.calibrated
}

// Reset clears the consecutive-idle counter and inter-frame history
// (not the calibrated reference, which survives across FSM cycles).
func (d *ResetDetector) Reset() {
	d.consecutiveIdle = 0
	d.hasPrevious = false
}

// Step extracts luma from frame and reports whether the consecutive-
// idle-frames threshold has just been reached.
func (d *ResetDetector) Step(frame []byte, srcW, srcH int) (detected bool) {
	if !d.calibrated {
		return false
	}

	current := luma.NewGrid(d.cfg.AnalysisWidth, d.cfg.AnalysisHeight)
	luma.ExtractUYVY(current, frame, srcW, srcH)

	similarity := luma.Similarity(current, d.reference)
	idleLike := similarity >= d.cfg.IdleSimilarityThreshold && d.hasPrevious

	if idleLike {
		interFrameSAD := luma.InterFrameSAD(current, d.previous)
		idleLike = interFrameSAD < d.cfg.StaticSceneThreshold
	}

	d.previous = current
	d.hasPrevious = true

	if idleLike {
		d.consecutiveIdle++
	} else {
		d.consecutiveIdle = 0
	}

	return d.consecutiveIdle >= d.cfg.ConsecutiveIdleFramesNeeded
}
