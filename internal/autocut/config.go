package autocut

import "time"

// Config holds every tunable in the auto-cut algorithm (§4.6). All
// fields have sensible zero-value-free defaults via DefaultConfig.
type Config struct {
	AnalysisWidth   int
	AnalysisHeight  int
	FrameSkip       int
	FrameCompareGap int

	EMAAlpha              float64
	SwingSpikeMultiplier  float64
	MinimumSpikeThreshold float64
	ROILeft               float64
	ROITop                float64
	ROIWidth              float64
	ROIHeight             float64

	IdleSimilarityThreshold     float64
	ConsecutiveIdleFramesNeeded int
	StaticSceneThreshold        float64

	AudioEnabled            bool
	AudioEMAAlpha           float64
	AudioSpikeMultiplier    float64
	MinimumAudioThresholdDB float64
	AudioOnlyMode           bool
	AudioVideoFusionWindow  time.Duration

	MaxSimulatorDuration time.Duration
	PracticeSwingTimeout time.Duration
	PostLandingDelay     time.Duration
	CooldownDuration     time.Duration
}

// DefaultConfig returns the spec's literal default values (§4.6,
// "Default" sensitivity preset).
func DefaultConfig() Config {
	return Config{
		AnalysisWidth:   120,
		AnalysisHeight:  68,
		FrameSkip:       4,
		FrameCompareGap: 2,

		EMAAlpha:              0.05,
		SwingSpikeMultiplier:  4.0,
		MinimumSpikeThreshold: 500,
		ROILeft:               0.2,
		ROITop:                0.1,
		ROIWidth:              0.6,
		ROIHeight:             0.8,

		IdleSimilarityThreshold:     0.95,
		ConsecutiveIdleFramesNeeded: 3,
		StaticSceneThreshold:        200,

		AudioEnabled:            true,
		AudioEMAAlpha:           0.05,
		AudioSpikeMultiplier:    4.0,
		MinimumAudioThresholdDB: -50,
		AudioOnlyMode:           false,
		AudioVideoFusionWindow:  500 * time.Millisecond,

		MaxSimulatorDuration: 30 * time.Second,
		PracticeSwingTimeout: 3 * time.Second,
		PostLandingDelay:     1500 * time.Millisecond,
		CooldownDuration:     2 * time.Second,
	}
}

// Sensitivity selects a named preset that overrides selected tunables
// on top of DefaultConfig.
type Sensitivity int

const (
	SensitivityDefault Sensitivity = iota
	SensitivityHigh
	SensitivityLow
)

// ApplySensitivity overrides the spike/threshold tunables most
// affected by "how easily does this trigger" without touching the
// analysis-grid or timing tunables.
func ApplySensitivity(cfg Config, s Sensitivity) Config {
	switch s {
	case SensitivityHigh:
		cfg.SwingSpikeMultiplier = 2.5
		cfg.MinimumSpikeThreshold = 250
		cfg.AudioSpikeMultiplier = 2.5
		cfg.MinimumAudioThresholdDB = -55
	case SensitivityLow:
		cfg.SwingSpikeMultiplier = 6.0
		cfg.MinimumSpikeThreshold = 800
		cfg.AudioSpikeMultiplier = 6.0
		cfg.MinimumAudioThresholdDB = -45
	}
	return cfg
}
