package autocut

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance wall time deterministically.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// frame builds a flat UYVY buffer sized w*h*2 bytes with luma value y
// everywhere.
func frame(w, h int, y byte) []byte {
	buf := make([]byte, w*h*2)
	for i := 0; i+3 < len(buf); i += 4 {
		buf[i] = 128
		buf[i+1] = y
		buf[i+2] = 128
		buf[i+3] = y
	}
	return buf
}

// testConfig uses a small analysis grid equal to the source frame size
// so luma extraction is 1:1, and thresholds scaled for that grid's
// pixel count (the spec's literal constants assume the full 120x68
// grid; a smaller test grid needs proportionally smaller thresholds to
// exercise the same relative behavior).
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AnalysisWidth = 10
	cfg.AnalysisHeight = 10
	cfg.MinimumSpikeThreshold = 50
	cfg.StaticSceneThreshold = 20
	cfg.ConsecutiveIdleFramesNeeded = 3
	cfg.AudioVideoFusionWindow = 500 * time.Millisecond
	cfg.MaxSimulatorDuration = 30 * time.Second
	cfg.PracticeSwingTimeout = 3 * time.Second
	cfg.PostLandingDelay = 1500 * time.Millisecond
	cfg.CooldownDuration = 2 * time.Second
	return cfg
}

func newTestController(cfg Config) (*Controller, *fakeClock) {
	c := New(cfg, silentLogger())
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c.SetTimeProvider(clock)
	return c, clock
}

func enableAfterCalibration(t *testing.T, c *Controller, w, h int) {
	t.Helper()
	c.CalibrateIdleReference(frame(w, h, 100), w, h)
	require.True(t, c.Enable())
	require.Equal(t, StateWaitingForSwing, c.State())
}

// TestController_BasicSwingCycle walks the full spec.md §8 "Basic swing
// cycle" scenario: steady golfer-frame SAD establishes an EMA baseline,
// a spike triggers a cut to the simulator, a sustained idle-reference
// match after the practice-swing timeout moves to ResetDetected, and
// timed waits carry it through ball_landed/cooldown back to
// WaitingForSwing.
func TestController_BasicSwingCycle(t *testing.T) {
	cfg := testConfig()
	c, clock := newTestController(cfg)

	var cuts []Cut
	c.OnCut(func(cut Cut) { cuts = append(cuts, cut) })

	enableAfterCalibration(t, c, 10, 10)

	// Establish a steady EMA baseline on the golfer camera: feed the same
	// flat frame so SAD-over-ROI against the frame frame_compare_gap
	// cycles back stays near zero, well under threshold.
	for i := 0; i < 10; i++ {
		c.ProcessGolferFrame(frame(10, 10, 100), 10, 10)
	}
	require.Equal(t, StateWaitingForSwing, c.State())

	// Spike: bright frame drives SAD-over-ROI well above
	// minimum_spike_threshold.
	c.ProcessGolferFrame(frame(10, 10, 250), 10, 10)

	require.Equal(t, StateFollowingShot, c.State())
	require.Len(t, cuts, 1)
	assert.Equal(t, 1, cuts[0].TargetSourceIndex)
	assert.Equal(t, ReasonSwingDetected, cuts[0].Reason)

	clock.Advance(cfg.PracticeSwingTimeout + time.Second)

	// Simulator frames matching the calibrated idle reference exactly:
	// similarity = 1.0, inter_frame_sad = 0. The first frame only
	// establishes "previous" for the inter-frame-SAD check, so the
	// consecutive-idle counter needs one extra frame beyond the
	// configured threshold to actually reach it.
	for i := 0; i < cfg.ConsecutiveIdleFramesNeeded+1; i++ {
		c.ProcessSimulatorFrame(frame(10, 10, 100), 10, 10)
	}
	require.Equal(t, StateResetDetected, c.State())

	clock.Advance(cfg.PostLandingDelay)
	c.Tick()

	require.Equal(t, StateCooldown, c.State())
	require.Len(t, cuts, 2)
	assert.Equal(t, 0, cuts[1].TargetSourceIndex)
	assert.Equal(t, ReasonBallLanded, cuts[1].Reason)

	clock.Advance(cfg.CooldownDuration)
	c.Tick()
	assert.Equal(t, StateWaitingForSwing, c.State())
}

// TestController_PracticeSwingCutsBackEarly checks that a reset detected
// before practice_swing_timeout elapses is treated as a practice swing,
// not a real shot, and cuts straight back to the golfer camera.
func TestController_PracticeSwingCutsBackEarly(t *testing.T) {
	cfg := testConfig()
	c, clock := newTestController(cfg)

	var cuts []Cut
	c.OnCut(func(cut Cut) { cuts = append(cuts, cut) })

	enableAfterCalibration(t, c, 10, 10)
	for i := 0; i < 10; i++ {
		c.ProcessGolferFrame(frame(10, 10, 100), 10, 10)
	}
	c.ProcessGolferFrame(frame(10, 10, 250), 10, 10)
	require.Equal(t, StateFollowingShot, c.State())

	clock.Advance(cfg.PracticeSwingTimeout / 2)
	for i := 0; i < cfg.ConsecutiveIdleFramesNeeded+1; i++ {
		c.ProcessSimulatorFrame(frame(10, 10, 100), 10, 10)
	}

	require.Equal(t, StateCooldown, c.State())
	require.Len(t, cuts, 2)
	assert.Equal(t, ReasonPracticeSwing, cuts[1].Reason)
}

// TestController_MaxSimulatorDurationTimesOut checks the simulator-side
// timeout fires when no reset is ever detected.
func TestController_MaxSimulatorDurationTimesOut(t *testing.T) {
	cfg := testConfig()
	c, clock := newTestController(cfg)

	var cuts []Cut
	c.OnCut(func(cut Cut) { cuts = append(cuts, cut) })

	enableAfterCalibration(t, c, 10, 10)
	for i := 0; i < 10; i++ {
		c.ProcessGolferFrame(frame(10, 10, 100), 10, 10)
	}
	c.ProcessGolferFrame(frame(10, 10, 250), 10, 10)
	require.Equal(t, StateFollowingShot, c.State())

	clock.Advance(cfg.MaxSimulatorDuration)
	c.Tick()

	require.Equal(t, StateCooldown, c.State())
	require.Len(t, cuts, 2)
	assert.Equal(t, ReasonTimeout, cuts[1].Reason)
}

// TestController_AudioOnlyMode checks an audio spike alone triggers a
// cut when audio_only_mode is set, with no video evidence at all.
func TestController_AudioOnlyMode(t *testing.T) {
	cfg := testConfig()
	cfg.AudioOnlyMode = true
	c, _ := newTestController(cfg)

	var cuts []Cut
	c.OnCut(func(cut Cut) { cuts = append(cuts, cut) })

	enableAfterCalibration(t, c, 10, 10)

	quiet := make([]int16, 256)
	for i := 0; i < 10; i++ {
		c.ProcessAudioBlock(quiet)
	}

	loud := make([]int16, 256)
	for i := range loud {
		loud[i] = 30000
	}
	c.ProcessAudioBlock(loud)

	require.Equal(t, StateFollowingShot, c.State())
	require.Len(t, cuts, 1)
	assert.Equal(t, ReasonAudioSwing, cuts[0].Reason)
}

// TestController_AudioVideoFusion checks an audio spike followed by a
// video spike within the fusion window is reported as a fused cut
// reason rather than a plain video swing.
func TestController_AudioVideoFusion(t *testing.T) {
	cfg := testConfig()
	c, clock := newTestController(cfg)

	var cuts []Cut
	c.OnCut(func(cut Cut) { cuts = append(cuts, cut) })

	enableAfterCalibration(t, c, 10, 10)

	quiet := make([]int16, 256)
	for i := 0; i < 10; i++ {
		c.ProcessAudioBlock(quiet)
	}
	for i := 0; i < 10; i++ {
		c.ProcessGolferFrame(frame(10, 10, 100), 10, 10)
	}

	loud := make([]int16, 256)
	for i := range loud {
		loud[i] = 30000
	}
	c.ProcessAudioBlock(loud)
	require.Equal(t, StateWaitingForSwing, c.State(), "audio spike alone should not cut without audio_only_mode")

	clock.Advance(cfg.AudioVideoFusionWindow / 2)
	c.ProcessGolferFrame(frame(10, 10, 250), 10, 10)

	require.Equal(t, StateFollowingShot, c.State())
	require.Len(t, cuts, 1)
	assert.Equal(t, ReasonAudioVideoFusion, cuts[0].Reason)
}

// TestController_EnableFailsWithoutCalibration checks Enable is gated
// on a prior CalibrateIdleReference call.
func TestController_EnableFailsWithoutCalibration(t *testing.T) {
	cfg := testConfig()
	c, _ := newTestController(cfg)
	assert.False(t, c.Enable())
	assert.Equal(t, StateDisabled, c.State())
}

// TestController_DisableReturnsToDisabledFromAnyState checks Disable
// short-circuits the FSM back to Disabled mid-sequence.
func TestController_DisableReturnsToDisabledFromAnyState(t *testing.T) {
	cfg := testConfig()
	c, _ := newTestController(cfg)
	enableAfterCalibration(t, c, 10, 10)

	for i := 0; i < 10; i++ {
		c.ProcessGolferFrame(frame(10, 10, 100), 10, 10)
	}
	c.ProcessGolferFrame(frame(10, 10, 250), 10, 10)
	require.Equal(t, StateFollowingShot, c.State())

	c.Disable()
	assert.Equal(t, StateDisabled, c.State())
}

// TestController_HandlerCanCallBackWithoutDeadlock checks that invoking
// a controller method from inside a cut handler does not deadlock,
// proving dispatch releases the lock before calling observers.
func TestController_HandlerCanCallBackWithoutDeadlock(t *testing.T) {
	cfg := testConfig()
	c, _ := newTestController(cfg)

	done := make(chan struct{})
	c.OnCut(func(cut Cut) {
		c.Disable()
		close(done)
	})

	enableAfterCalibration(t, c, 10, 10)
	for i := 0; i < 10; i++ {
		c.ProcessGolferFrame(frame(10, 10, 100), 10, 10)
	}
	c.ProcessGolferFrame(frame(10, 10, 250), 10, 10)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler callback deadlocked against the controller's own lock")
	}
	assert.Equal(t, StateDisabled, c.State())
}
