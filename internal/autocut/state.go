package autocut

import "time"

// State is the auto-cut controller's lifecycle state (§3 AutoCutState).
type State int

const (
	StateDisabled State = iota
	StateWaitingForSwing
	StateSwingDetected
	StateFollowingShot
	StateResetDetected
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "Disabled"
	case StateWaitingForSwing:
		return "WaitingForSwing"
	case StateSwingDetected:
		return "SwingDetected"
	case StateFollowingShot:
		return "FollowingShot"
	case StateResetDetected:
		return "ResetDetected"
	case StateCooldown:
		return "Cooldown"
	default:
		return "Unknown"
	}
}

// CutReason labels why a cut was triggered.
type CutReason string

const (
	ReasonSwingDetected    CutReason = "swing_detected"
	ReasonAudioVideoFusion CutReason = "audio_video_fusion"
	ReasonAudioSwing       CutReason = "audio_swing"
	ReasonPracticeSwing    CutReason = "practice_swing"
	ReasonTimeout          CutReason = "timeout"
	ReasonBallLanded       CutReason = "ball_landed"
)

// EventKind distinguishes the event TimeProvider-stamped inputs to step.
type EventKind int

const (
	EventNone EventKind = iota
	EventVideoSwing
	EventAudioSpike
	EventResetDetected
	EventTick // periodic clock-only tick, no detector evidence
	EventEnable
	EventDisable
)

// Event is one input to the pure transition function.
type Event struct {
	Kind EventKind
}

// Cut is emitted by step when a transition crosses a program-source
// boundary.
type Cut struct {
	TargetSourceIndex int
	Reason            CutReason
}

// stepResult is returned to callers; Cut is nil when no cut fires.
type stepResult struct {
	State State
	Cut   *Cut
}

// stepState is the pure transition function (spec.md §9's "a pure
// step(state,event,cfg,now) is easier to test than the original's
// deeply nested conditionals" redesign flag). now is the wall time;
// tEnter/tAudioSpike/tVideoSpike are carried by Controller between
// calls since the function itself is otherwise stateless.
func stepState(state State, ev Event, cfg Config, now int64, tEnter int64, tAudioSpike, tVideoSpike *int64) stepResult {
	switch state {
	case StateDisabled:
		if ev.Kind == EventEnable {
			return stepResult{State: StateWaitingForSwing}
		}
		return stepResult{State: StateDisabled}

	case StateWaitingForSwing:
		if ev.Kind == EventDisable {
			return stepResult{State: StateDisabled}
		}
		if ev.Kind == EventVideoSwing {
			reason := ReasonSwingDetected
			if tAudioSpike != nil && withinWindow(now, *tAudioSpike, cfg.AudioVideoFusionWindow) {
				reason = ReasonAudioVideoFusion
			}
			return stepResult{State: StateFollowingShot, Cut: &Cut{TargetSourceIndex: 1, Reason: reason}}
		}
		if ev.Kind == EventAudioSpike {
			if cfg.AudioOnlyMode {
				return stepResult{State: StateFollowingShot, Cut: &Cut{TargetSourceIndex: 1, Reason: ReasonAudioSwing}}
			}
			if tVideoSpike != nil && withinWindow(now, *tVideoSpike, cfg.AudioVideoFusionWindow) {
				return stepResult{State: StateFollowingShot, Cut: &Cut{TargetSourceIndex: 1, Reason: ReasonAudioVideoFusion}}
			}
			// store t_audio_spike and stay; Controller handles the bookkeeping
			return stepResult{State: StateWaitingForSwing}
		}
		return stepResult{State: StateWaitingForSwing}

	case StateFollowingShot:
		if ev.Kind == EventDisable {
			return stepResult{State: StateDisabled}
		}
		elapsed := now - tEnter
		if elapsed >= cfg.MaxSimulatorDuration.Nanoseconds() {
			return stepResult{State: StateCooldown, Cut: &Cut{TargetSourceIndex: 0, Reason: ReasonTimeout}}
		}
		if ev.Kind == EventResetDetected {
			if elapsed < cfg.PracticeSwingTimeout.Nanoseconds() {
				return stepResult{State: StateCooldown, Cut: &Cut{TargetSourceIndex: 0, Reason: ReasonPracticeSwing}}
			}
			return stepResult{State: StateResetDetected}
		}
		return stepResult{State: StateFollowingShot}

	case StateResetDetected:
		if ev.Kind == EventDisable {
			return stepResult{State: StateDisabled}
		}
		if now-tEnter >= cfg.PostLandingDelay.Nanoseconds() {
			return stepResult{State: StateCooldown, Cut: &Cut{TargetSourceIndex: 0, Reason: ReasonBallLanded}}
		}
		return stepResult{State: StateResetDetected}

	case StateCooldown:
		if ev.Kind == EventDisable {
			return stepResult{State: StateDisabled}
		}
		if now-tEnter >= cfg.CooldownDuration.Nanoseconds() {
			return stepResult{State: StateWaitingForSwing}
		}
		return stepResult{State: StateCooldown}

	default:
		return stepResult{State: state}
	}
}

func withinWindow(now, then int64, window time.Duration) bool {
	return now-then <= window.Nanoseconds()
}
