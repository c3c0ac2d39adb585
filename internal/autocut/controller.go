// Package autocut implements the auto-cut state machine and its three
// fused detectors (video swing, reset/idle, audio impact), deciding
// when to switch between the golfer camera (source 0) and the
// simulator feed (source 1).
package autocut

import (
	"log/slog"
	"sync"
	"time"
)

// TimeProvider abstracts wall-clock access so tests can drive the FSM
// deterministically without sleeping.
type TimeProvider interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// CutHandler is invoked when the controller emits a cut.
type CutHandler func(Cut)

// StateChangeHandler is invoked on every real state transition.
type StateChangeHandler func(old, new State)

// Controller drives the FSM from routed frame/audio evidence. It is the
// Go realization of spec.md §4.6: stepState is the pure part, Controller
// is the stateful shell around it (time bookkeeping, detector wiring,
// and observer dispatch). Observers are always invoked with the
// controller's lock released, so a handler may safely call back into
// the controller (e.g. Disable) without deadlocking.
type Controller struct {
	cfg    Config
	logger *slog.Logger

	video *SwingDetector
	reset *ResetDetector
	audio *AudioDetector

	mu          sync.Mutex
	clock       TimeProvider
	state       State
	tEnter      int64
	tAudioSpike *int64
	tVideoSpike *int64

	cutHandlers   []CutHandler
	stateHandlers []StateChangeHandler
}

// New creates a disabled Controller with fresh detectors over cfg.
func New(cfg Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:    cfg,
		clock:  realClock{},
		logger: logger,
		video:  NewSwingDetector(cfg),
		reset:  NewResetDetector(cfg),
		audio:  NewAudioDetector(cfg),
		state:  StateDisabled,
	}
}

// SetTimeProvider overrides the clock; intended for tests.
func (c *Controller) SetTimeProvider(tp TimeProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = tp
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnCut registers a cut observer.
func (c *Controller) OnCut(h CutHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cutHandlers = append(c.cutHandlers, h)
}

// OnStateChanged registers a state-change observer.
func (c *Controller) OnStateChanged(h StateChangeHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateHandlers = append(c.stateHandlers, h)
}

// CalibrateIdleReference stores frame as the reset detector's idle
// baseline. Required before Enable succeeds.
func (c *Controller) CalibrateIdleReference(frame []byte, srcW, srcH int) {
	c.reset.CalibrateIdleReference(frame, srcW, srcH)
}

// Enable transitions Disabled -> WaitingForSwing, gated on the reset
// detector being calibrated; it resets all three detectors' EMA/history.
// Returns false (no-op) if calibration hasn't happened yet.
func (c *Controller) Enable() bool {
	c.mu.Lock()
	if !c.reset.Calibrated() {
		c.mu.Unlock()
		return false
	}
	c.video.Reset()
	c.audio.Reset()
	c.reset.Reset()
	c.mu.Unlock()

	c.dispatch(Event{Kind: EventEnable}, nil)
	return true
}

// Disable returns to Disabled from any state.
func (c *Controller) Disable() {
	c.dispatch(Event{Kind: EventDisable}, nil)
}

// ProcessGolferFrame routes a golfer-camera (source 0) video frame to
// the swing detector, but only while WaitingForSwing. Per §4.6's
// routing invariant, source-1 frames must never reach the swing
// detector and source-0 frames must never reach the reset detector.
func (c *Controller) ProcessGolferFrame(frame []byte, srcW, srcH int) {
	c.mu.Lock()
	active := c.state == StateWaitingForSwing
	c.mu.Unlock()

	if !active {
		c.dispatch(Event{Kind: EventTick}, nil)
		return
	}

	if c.safeVideoStep(frame, srcW, srcH) {
		c.dispatch(Event{Kind: EventVideoSwing}, func(now int64) { c.tVideoSpike = &now })
		return
	}
	c.dispatch(Event{Kind: EventTick}, nil)
}

func (c *Controller) safeVideoStep(frame []byte, srcW, srcH int) (detected bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("video swing detector panic", slog.Any("error", r))
			detected = false
		}
	}()
	return c.video.Step(frame, srcW, srcH)
}

// ProcessSimulatorFrame routes a simulator-feed (source 1) video frame
// to the reset detector, active in FollowingShot/ResetDetected.
func (c *Controller) ProcessSimulatorFrame(frame []byte, srcW, srcH int) {
	c.mu.Lock()
	active := c.state == StateFollowingShot || c.state == StateResetDetected
	c.mu.Unlock()

	if !active {
		c.dispatch(Event{Kind: EventTick}, nil)
		return
	}

	if c.safeResetStep(frame, srcW, srcH) {
		c.dispatch(Event{Kind: EventResetDetected}, nil)
		return
	}
	c.dispatch(Event{Kind: EventTick}, nil)
}

func (c *Controller) safeResetStep(frame []byte, srcW, srcH int) (detected bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("reset detector panic", slog.Any("error", r))
			detected = false
		}
	}()
	return c.reset.Step(frame, srcW, srcH)
}

// ProcessAudioBlock feeds an interleaved 16-bit PCM block through the
// audio impact detector, active only in WaitingForSwing.
func (c *Controller) ProcessAudioBlock(samples []int16) {
	c.mu.Lock()
	active := c.cfg.AudioEnabled && c.state == StateWaitingForSwing
	c.mu.Unlock()

	if !active {
		c.dispatch(Event{Kind: EventTick}, nil)
		return
	}

	if c.safeAudioStep(samples) {
		c.dispatch(Event{Kind: EventAudioSpike}, func(now int64) {
			// Recorded unconditionally, even when this spike already
			// produced a cut via fusion or audio-only mode; dispatch
			// clears it again whenever the state machine re-enters
			// WaitingForSwing.
			c.tAudioSpike = &now
		})
		return
	}
	c.dispatch(Event{Kind: EventTick}, nil)
}

func (c *Controller) safeAudioStep(samples []int16) (detected bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("audio detector panic", slog.Any("error", r))
			detected = false
		}
	}()
	return c.audio.Step(samples)
}

// Tick drives the periodic clock-only check (max-simulator-duration
// timeout, post-landing delay, cooldown expiry) when no frame/audio
// evidence is available this cycle.
func (c *Controller) Tick() {
	c.dispatch(Event{Kind: EventTick}, nil)
}

// dispatch applies one event under the lock, then invokes observers
// with the lock released. spikeSetter, if non-nil, runs under the lock
// before stepState so the spike timestamp is visible to this call's own
// transition (e.g. recording t_video_spike before checking fusion).
func (c *Controller) dispatch(ev Event, spikeSetter func(now int64)) {
	c.mu.Lock()

	now := c.clock.Now().UnixNano()
	if spikeSetter != nil {
		spikeSetter(now)
	}

	result := stepState(c.state, ev, c.cfg, now, c.tEnter, c.tAudioSpike, c.tVideoSpike)
	old := c.state

	if result.State != old {
		c.state = result.State
		c.tEnter = now
		if result.State == StateWaitingForSwing {
			c.tAudioSpike = nil
			c.tVideoSpike = nil
		}
	}

	cutHandlers := append([]CutHandler(nil), c.cutHandlers...)
	stateHandlers := append([]StateChangeHandler(nil), c.stateHandlers...)
	c.mu.Unlock()

	if result.Cut != nil {
		cut := *result.Cut
		for _, h := range cutHandlers {
			h(cut)
		}
	}
	if result.State != old {
		for _, h := range stateHandlers {
			h(old, result.State)
		}
	}
}
