// Package recorder drives one or more encoding pipelines from one or
// more already-capturing devices as a single logical recording session
// (§4.4). The recorder never starts or stops device capture; preview
// owns that lifecycle.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/golfcast/golfcast/internal/device"
	"github.com/golfcast/golfcast/internal/encode"
	"github.com/golfcast/golfcast/internal/models"
	"github.com/golfcast/golfcast/internal/repository"
	"github.com/golfcast/golfcast/pkg/filename"
)

// State is the recording orchestrator's lifecycle state.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRecording
	StatePaused
	StateStopping
	StateError
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyRecording is returned by StartRecording when a session
	// is already in progress.
	ErrAlreadyRecording = errors.New("recorder: already recording")
	// ErrNoInputs is returned when StartRecording is given no inputs.
	ErrNoInputs = errors.New("recorder: no inputs configured")
	// ErrNotRecording is returned by StopRecording/Pause/Resume when no
	// session is active.
	ErrNotRecording = errors.New("recorder: not recording")
)

// InputConfig names one device to record as part of a session, with an
// optional filename suffix distinguishing it from other inputs.
type InputConfig struct {
	DeviceID string
	Suffix   string
}

// StartOptions configures a recording session.
type StartOptions struct {
	OutputDirectory  string
	FilenameTemplate string
	Preset           encode.Preset
	Inputs           []InputConfig
	HWAccel          encode.HWAccelMode
	UseFragmentedMP4 bool
	MuxerPath        string
}

// InputStats reports one input's progress counters.
type InputStats struct {
	DeviceID       string
	FilePath       string
	FramesRecorded uint64
	DroppedFrames  uint64
	BytesWritten   uint64
}

// Progress is emitted roughly once per second while recording.
type Progress struct {
	FramesRecorded uint64
	DroppedFrames  uint64
	BytesOnDisk    uint64
	BitrateMbps    float64
	Inputs         []InputStats
}

// StateChangeHandler observes orchestrator state transitions. It is
// also used per-input: a failed input raises a state change scoped to
// that input only (§4.4 failure semantics), carried via InputFailure.
type StateChangeHandler func(old, new State)

// InputFailureHandler observes a single input's pipeline failing
// without stopping the rest of the session.
type InputFailureHandler func(deviceID string, err error)

// ProgressHandler observes periodic progress events.
type ProgressHandler func(Progress)

// DeviceLookup resolves a device by id. The recorder only reads its
// status, current mode, and subscribes to its streams; it never calls
// StartCapture/StopCapture.
type DeviceLookup func(id string) (device.Device, bool)

type inputSession struct {
	deviceID string
	filePath string
	sub      *device.Subscription
	pipeline *encode.Pipeline
	failed   atomic.Bool
}

// Recorder drives one or more encode.Pipelines as a single logical
// recording session.
type Recorder struct {
	lookup     DeviceLookup
	sessions   repository.RecordingSessionRepository
	gen        *filename.Generator
	logger     *slog.Logger
	progressEvery time.Duration

	mu        sync.Mutex
	state     State
	paused    atomic.Bool
	inputs    []*inputSession
	sessionID models.ULID

	wg sync.WaitGroup

	stateHandlers    []StateChangeHandler
	failureHandlers  []InputFailureHandler
	progressHandlers []ProgressHandler

	lastProgress atomic.Value // Progress
}

// New creates a Recorder. sessions may be nil, in which case recording
// sessions are not persisted (useful in tests).
func New(lookup DeviceLookup, sessions repository.RecordingSessionRepository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		lookup:        lookup,
		sessions:      sessions,
		gen:           filename.New(),
		logger:        logger,
		state:         StateStopped,
		progressEvery: time.Second,
	}
}

// State returns the current orchestrator state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// OnStateChanged registers a state-change observer.
func (r *Recorder) OnStateChanged(h StateChangeHandler) {
	r.mu.Lock()
	r.stateHandlers = append(r.stateHandlers, h)
	r.mu.Unlock()
}

// OnInputFailure registers an observer for single-input pipeline failures.
func (r *Recorder) OnInputFailure(h InputFailureHandler) {
	r.mu.Lock()
	r.failureHandlers = append(r.failureHandlers, h)
	r.mu.Unlock()
}

// OnProgress registers a progress observer.
func (r *Recorder) OnProgress(h ProgressHandler) {
	r.mu.Lock()
	r.progressHandlers = append(r.progressHandlers, h)
	r.mu.Unlock()
}

// LastProgress returns the most recently emitted Progress, or the zero
// value if recording has not produced one yet. Useful for a synchronous
// status poll where subscribing via OnProgress isn't practical (e.g. an
// HTTP handler).
func (r *Recorder) LastProgress() Progress {
	if p, ok := r.lastProgress.Load().(Progress); ok {
		return p
	}
	return Progress{}
}

func (r *Recorder) setState(next State) {
	r.mu.Lock()
	old := r.state
	r.state = next
	handlers := append([]StateChangeHandler(nil), r.stateHandlers...)
	r.mu.Unlock()
	if old == next {
		return
	}
	for _, h := range handlers {
		h(old, next)
	}
}

func (r *Recorder) notifyFailure(deviceID string, err error) {
	r.mu.Lock()
	handlers := append([]InputFailureHandler(nil), r.failureHandlers...)
	r.mu.Unlock()
	for _, h := range handlers {
		h(deviceID, err)
	}
}

// StartRecording instantiates one pipeline per enabled input, all of
// which must already be in device.StatusCapturing, subscribes each to
// its device's event streams, and transitions to StateRecording.
func (r *Recorder) StartRecording(ctx context.Context, opts StartOptions) (*models.RecordingSession, error) {
	r.mu.Lock()
	if r.state != StateStopped && r.state != StateError {
		r.mu.Unlock()
		return nil, ErrAlreadyRecording
	}
	r.mu.Unlock()

	if len(opts.Inputs) == 0 {
		return nil, ErrNoInputs
	}

	r.setState(StateStarting)

	template := opts.FilenameTemplate
	if template == "" {
		template = "{datetime}_{preset}"
	}
	base := r.gen.Generate(template, filename.Context{Preset: opts.Preset.Name})
	basePath := filepath.Join(opts.OutputDirectory, base)

	if err := os.MkdirAll(opts.OutputDirectory, 0o755); err != nil {
		r.setState(StateError)
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	type started struct {
		session *inputSession
		row     models.InputRecordingSession
		index   int
	}

	results := make([]started, len(opts.Inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, in := range opts.Inputs {
		i, in := i, in
		g.Go(func() error {
			dev, ok := r.lookup(in.DeviceID)
			if !ok {
				return fmt.Errorf("device %q not found", in.DeviceID)
			}
			if dev.Status() != device.StatusCapturing {
				return fmt.Errorf("device %q is not capturing", in.DeviceID)
			}
			mode, ok := dev.CurrentMode()
			if !ok {
				return fmt.Errorf("device %q has no negotiated mode", in.DeviceID)
			}

			filePath := basePath + in.Suffix + ".mp4"
			pipeline := encode.New()
			if err := pipeline.Initialize(gctx, encode.Options{
				FilePath:           filePath,
				VideoMode:          mode,
				AudioSampleRate:    48000,
				AudioChannels:      2,
				AudioBitsPerSample: 16,
				Preset:             opts.Preset,
				HWAccel:            opts.HWAccel,
				UseFragmentedMP4:   opts.UseFragmentedMP4,
				MuxerPath:          opts.MuxerPath,
				Logger:             r.logger,
			}); err != nil {
				return fmt.Errorf("initializing pipeline for %q: %w", in.DeviceID, err)
			}

			sub := dev.Subscribe()
			results[i] = started{
				session: &inputSession{
					deviceID: in.DeviceID,
					filePath: filePath,
					sub:      sub,
					pipeline: pipeline,
				},
				row:   models.InputRecordingSession{InputIndex: i, DeviceID: in.DeviceID, FilePath: filePath},
				index: i,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, s := range results {
			if s.session == nil {
				continue
			}
			s.session.sub.Unsubscribe()
			_ = s.session.pipeline.Finalize()
		}
		r.setState(StateError)
		return nil, err
	}

	inputs := make([]*inputSession, len(results))
	rows := make([]models.InputRecordingSession, len(results))
	for i, s := range results {
		inputs[i] = s.session
		rows[i] = s.row
	}

	session := &models.RecordingSession{
		FilePath:     opts.OutputDirectory,
		StartTimeUTC: time.Now().UTC(),
		Preset:       opts.Preset.Name,
		Inputs:       rows,
	}
	if r.sessions != nil {
		if err := r.sessions.Create(ctx, session); err != nil {
			for _, s := range inputs {
				s.sub.Unsubscribe()
				_ = s.pipeline.Finalize()
			}
			r.setState(StateError)
			return nil, fmt.Errorf("persisting recording session: %w", err)
		}
	}

	r.mu.Lock()
	r.inputs = inputs
	r.sessionID = session.ID
	r.mu.Unlock()
	r.paused.Store(false)

	for _, in := range inputs {
		r.wg.Add(1)
		go r.feedInput(in)
	}
	r.wg.Add(1)
	go r.reportProgress()

	r.setState(StateRecording)
	return session, nil
}

// feedInput relays one device's video and audio streams into its
// pipeline until the subscription closes. Frames are dropped on the
// floor while paused (no buffering, per §4.4 Pause/Resume).
func (r *Recorder) feedInput(in *inputSession) {
	defer r.wg.Done()
	for {
		select {
		case frame, ok := <-in.sub.VideoFrames():
			if !ok {
				return
			}
			if !r.paused.Load() {
				in.pipeline.WriteVideoFrame(frame.Bytes(), frame.Timestamp)
			}
			frame.Release()
		case audio, ok := <-in.sub.AudioSamples():
			if !ok {
				return
			}
			if !r.paused.Load() {
				in.pipeline.WriteAudioSamples(audio.Samples, audio.Timestamp)
			}
		case status, ok := <-in.sub.StatusChanges():
			if !ok {
				return
			}
			if status == device.StatusError && in.failed.CompareAndSwap(false, true) {
				r.notifyFailure(in.deviceID, fmt.Errorf("device %q reported status error", in.deviceID))
			}
		}
	}
}

// reportProgress emits aggregated Progress events once per second
// while recording.
func (r *Recorder) reportProgress() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.progressEvery)
	defer ticker.Stop()

	var lastBytes uint64
	for range ticker.C {
		r.mu.Lock()
		inputs := append([]*inputSession(nil), r.inputs...)
		state := r.state
		r.mu.Unlock()
		if state != StateRecording && state != StatePaused {
			return
		}

		stats := make([]InputStats, len(inputs))
		var frames, dropped, bytesTotal uint64
		for i, in := range inputs {
			stats[i] = InputStats{
				DeviceID:       in.deviceID,
				FilePath:       in.filePath,
				FramesRecorded: in.pipeline.FramesWritten(),
				DroppedFrames:  in.pipeline.DroppedFrames(),
				BytesWritten:   in.pipeline.BytesWritten(),
			}
			frames += stats[i].FramesRecorded
			dropped += stats[i].DroppedFrames
			bytesTotal += stats[i].BytesWritten
		}

		bitrate := float64(bytesTotal-lastBytes) * 8 / 1_000_000 / r.progressEvery.Seconds()
		lastBytes = bytesTotal

		r.mu.Lock()
		handlers := append([]ProgressHandler(nil), r.progressHandlers...)
		r.mu.Unlock()
		progress := Progress{
			FramesRecorded: frames,
			DroppedFrames:  dropped,
			BytesOnDisk:    bytesTotal,
			BitrateMbps:    bitrate,
			Inputs:         stats,
		}
		r.lastProgress.Store(progress)
		for _, h := range handlers {
			h(progress)
		}
	}
}

// Pause drops incoming frames on the floor without stopping the session.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return ErrNotRecording
	}
	r.mu.Unlock()
	r.paused.Store(true)
	r.setState(StatePaused)
	return nil
}

// Resume resumes frame delivery immediately.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	if r.state != StatePaused {
		r.mu.Unlock()
		return ErrNotRecording
	}
	r.mu.Unlock()
	r.paused.Store(false)
	r.setState(StateRecording)
	return nil
}

// StopRecording unsubscribes every input, finalizes and disposes of
// every pipeline in parallel, sums file sizes, and persists the
// session's end time. It never stops device capture.
func (r *Recorder) StopRecording(ctx context.Context) (*models.RecordingSession, error) {
	r.mu.Lock()
	if r.state != StateRecording && r.state != StatePaused {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	inputs := append([]*inputSession(nil), r.inputs...)
	sessionID := r.sessionID
	r.mu.Unlock()

	r.setState(StateStopping)

	for _, in := range inputs {
		in.sub.Unsubscribe()
	}
	r.wg.Wait()

	var g errgroup.Group
	var mu sync.Mutex
	var totalBytes int64
	for _, in := range inputs {
		in := in
		g.Go(func() error {
			err := in.pipeline.Finalize()
			info, statErr := os.Stat(in.filePath)
			if statErr == nil {
				mu.Lock()
				totalBytes += info.Size()
				mu.Unlock()
			}
			return err
		})
	}
	finalizeErr := g.Wait()
	if finalizeErr != nil {
		r.logger.Warn("pipeline finalize reported an error", slog.String("error", finalizeErr.Error()))
	}

	var session *models.RecordingSession
	if r.sessions != nil {
		if err := r.sessions.Finish(ctx, sessionID, time.Now().UTC(), totalBytes); err != nil {
			return nil, fmt.Errorf("finishing recording session: %w", err)
		}
		var err error
		session, err = r.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("reloading finished recording session: %w", err)
		}
	}

	r.mu.Lock()
	r.inputs = nil
	r.mu.Unlock()
	r.setState(StateStopped)

	return session, nil
}
