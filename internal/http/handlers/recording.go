package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dustin/go-humanize"

	"github.com/golfcast/golfcast/internal/encode"
	"github.com/golfcast/golfcast/internal/models"
	"github.com/golfcast/golfcast/internal/recorder"
	"github.com/golfcast/golfcast/internal/repository"
)

// RecordingHandler exposes the recorder's current state and progress
// and the mutating start/stop/pause/resume operations (§6's thin status
// surface, plus the minimum write surface needed to drive §4.4 without
// a full operator UI). Starting a recording also opens the §3
// GolfSession the rest of the core (§4.7's sequence recorder) looks up
// as "the active session" — there is no separate session-management
// surface, since that would be the scheduling/session CRUD UI §1
// excludes.
type RecordingHandler struct {
	recorder *recorder.Recorder
	sessions repository.SessionRepository
}

// NewRecordingHandler creates a RecordingHandler over rec, opening and
// closing GolfSession rows in sessions as recordings start and stop.
func NewRecordingHandler(rec *recorder.Recorder, sessions repository.SessionRepository) *RecordingHandler {
	return &RecordingHandler{recorder: rec, sessions: sessions}
}

// Register registers the recording routes with the API.
func (h *RecordingHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getRecordingStatus",
		Method:      "GET",
		Path:        "/api/v1/recording",
		Summary:     "Get recording status",
		Description: "Returns the recorder's current state and per-input progress.",
		Tags:        []string{"Recording"},
	}, h.GetStatus)

	huma.Register(api, huma.Operation{
		OperationID: "startRecording",
		Method:      "POST",
		Path:        "/api/v1/recording/start",
		Summary:     "Start recording",
		Tags:        []string{"Recording"},
	}, h.Start)

	huma.Register(api, huma.Operation{
		OperationID: "stopRecording",
		Method:      "POST",
		Path:        "/api/v1/recording/stop",
		Summary:     "Stop recording",
		Tags:        []string{"Recording"},
	}, h.Stop)

	huma.Register(api, huma.Operation{
		OperationID: "pauseRecording",
		Method:      "POST",
		Path:        "/api/v1/recording/pause",
		Summary:     "Pause recording",
		Tags:        []string{"Recording"},
	}, h.Pause)

	huma.Register(api, huma.Operation{
		OperationID: "resumeRecording",
		Method:      "POST",
		Path:        "/api/v1/recording/resume",
		Summary:     "Resume a paused recording",
		Tags:        []string{"Recording"},
	}, h.Resume)
}

// RecordingStatusInput has no parameters.
type RecordingStatusInput struct{}

// RecordingStatusOutput carries the current recorder state.
type RecordingStatusOutput struct {
	Body struct {
		State  string            `json:"state"`
		Inputs []InputStatusJSON `json:"inputs,omitempty"`
	}
}

// InputStatusJSON is the JSON-facing view of one recorder.InputStats.
type InputStatusJSON struct {
	DeviceID       string `json:"device_id"`
	FramesRecorded uint64 `json:"frames_recorded"`
	DroppedFrames  uint64 `json:"dropped_frames"`
	BytesOnDisk    string `json:"bytes_on_disk"`
}

// GetStatus returns the recorder's current state and progress.
func (h *RecordingHandler) GetStatus(ctx context.Context, input *RecordingStatusInput) (*RecordingStatusOutput, error) {
	out := &RecordingStatusOutput{}
	out.Body.State = h.recorder.State().String()
	for _, in := range h.recorder.LastProgress().Inputs {
		out.Body.Inputs = append(out.Body.Inputs, InputStatusJSON{
			DeviceID:       in.DeviceID,
			FramesRecorded: in.FramesRecorded,
			DroppedFrames:  in.DroppedFrames,
			BytesOnDisk:    humanize.Bytes(in.BytesWritten),
		})
	}
	return out, nil
}

// StartRecordingInput is the request body for starting a recording.
type StartRecordingInput struct {
	Body struct {
		GolferName      string `json:"golfer_name"`
		OutputDirectory string `json:"output_directory"`
		Preset          string `json:"preset"`
		Inputs          []struct {
			DeviceID string `json:"device_id"`
			Suffix   string `json:"suffix"`
		} `json:"inputs"`
	}
}

// StartRecordingOutput confirms the new session.
type StartRecordingOutput struct {
	Body struct {
		SessionID string `json:"session_id,omitempty"`
		State     string `json:"state"`
	}
}

// Start opens a GolfSession for golferName, then begins a new recording
// across the requested inputs.
func (h *RecordingHandler) Start(ctx context.Context, input *StartRecordingInput) (*StartRecordingOutput, error) {
	inputs := make([]recorder.InputConfig, 0, len(input.Body.Inputs))
	for _, in := range input.Body.Inputs {
		inputs = append(inputs, recorder.InputConfig{DeviceID: in.DeviceID, Suffix: in.Suffix})
	}

	golfSession := &models.GolfSession{
		GolferName: input.Body.GolferName,
		StartUTC:   models.Now(),
		Preset:     input.Body.Preset,
	}
	if h.sessions != nil {
		if err := h.sessions.Create(ctx, golfSession); err != nil {
			return nil, huma.Error500InternalServerError("creating golf session", err)
		}
	}

	session, err := h.recorder.StartRecording(ctx, recorder.StartOptions{
		OutputDirectory: input.Body.OutputDirectory,
		Preset:          encode.Preset{Name: input.Body.Preset},
		Inputs:          inputs,
	})
	if err != nil {
		return nil, huma.Error409Conflict(err.Error())
	}

	out := &StartRecordingOutput{}
	out.Body.State = h.recorder.State().String()
	if session != nil {
		out.Body.SessionID = session.ID.String()
	}
	return out, nil
}

// StopRecordingInput has no parameters.
type StopRecordingInput struct{}

// StopRecordingOutput confirms the finished session.
type StopRecordingOutput struct {
	Body struct {
		SessionID string `json:"session_id,omitempty"`
		State     string `json:"state"`
	}
}

// Stop ends the current recording and closes the active GolfSession.
func (h *RecordingHandler) Stop(ctx context.Context, input *StopRecordingInput) (*StopRecordingOutput, error) {
	session, err := h.recorder.StopRecording(ctx)
	if err != nil {
		return nil, huma.Error409Conflict(err.Error())
	}

	if h.sessions != nil {
		if active, err := h.sessions.GetActive(ctx); err == nil && active != nil {
			_ = h.sessions.Close(ctx, active.ID, models.Now())
		}
	}

	out := &StopRecordingOutput{}
	out.Body.State = h.recorder.State().String()
	if session != nil {
		out.Body.SessionID = session.ID.String()
	}
	return out, nil
}

// PauseRecordingInput has no parameters.
type PauseRecordingInput struct{}

// PauseRecordingOutput confirms the new state.
type PauseRecordingOutput struct {
	Body struct {
		State string `json:"state"`
	}
}

// Pause pauses the current recording.
func (h *RecordingHandler) Pause(ctx context.Context, input *PauseRecordingInput) (*PauseRecordingOutput, error) {
	if err := h.recorder.Pause(); err != nil {
		return nil, huma.Error409Conflict(err.Error())
	}
	out := &PauseRecordingOutput{}
	out.Body.State = h.recorder.State().String()
	return out, nil
}

// ResumeRecordingInput has no parameters.
type ResumeRecordingInput struct{}

// ResumeRecordingOutput confirms the new state.
type ResumeRecordingOutput struct {
	Body struct {
		State string `json:"state"`
	}
}

// Resume resumes a paused recording.
func (h *RecordingHandler) Resume(ctx context.Context, input *ResumeRecordingInput) (*ResumeRecordingOutput, error) {
	if err := h.recorder.Resume(); err != nil {
		return nil, huma.Error409Conflict(err.Error())
	}
	out := &ResumeRecordingOutput{}
	out.Body.State = h.recorder.State().String()
	return out, nil
}
