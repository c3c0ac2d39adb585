package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/golfcast/golfcast/internal/autocut"
)

// AutocutHandler exposes the auto-cut controller's current state and
// its enable/disable switch (§6's thin status surface).
type AutocutHandler struct {
	controller *autocut.Controller
}

// NewAutocutHandler creates an AutocutHandler over controller.
func NewAutocutHandler(controller *autocut.Controller) *AutocutHandler {
	return &AutocutHandler{controller: controller}
}

// Register registers the autocut routes with the API.
func (h *AutocutHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getAutocutState",
		Method:      "GET",
		Path:        "/api/v1/autocut",
		Summary:     "Get auto-cut controller state",
		Tags:        []string{"Autocut"},
	}, h.GetState)

	huma.Register(api, huma.Operation{
		OperationID: "enableAutocut",
		Method:      "POST",
		Path:        "/api/v1/autocut/enable",
		Summary:     "Enable the auto-cut controller",
		Tags:        []string{"Autocut"},
	}, h.Enable)

	huma.Register(api, huma.Operation{
		OperationID: "disableAutocut",
		Method:      "POST",
		Path:        "/api/v1/autocut/disable",
		Summary:     "Disable the auto-cut controller",
		Tags:        []string{"Autocut"},
	}, h.Disable)
}

// AutocutStateInput has no parameters.
type AutocutStateInput struct{}

// AutocutStateOutput carries the controller's current state.
type AutocutStateOutput struct {
	Body struct {
		State string `json:"state"`
	}
}

// GetState returns the controller's current state.
func (h *AutocutHandler) GetState(ctx context.Context, input *AutocutStateInput) (*AutocutStateOutput, error) {
	out := &AutocutStateOutput{}
	out.Body.State = h.controller.State().String()
	return out, nil
}

// EnableAutocutInput has no parameters.
type EnableAutocutInput struct{}

// EnableAutocutOutput confirms the new state.
type EnableAutocutOutput struct {
	Body struct {
		State   string `json:"state"`
		Enabled bool   `json:"enabled"`
	}
}

// Enable arms the controller, provided a golfer-frame idle reference has
// already been calibrated (§4.6's precondition for leaving Disabled).
func (h *AutocutHandler) Enable(ctx context.Context, input *EnableAutocutInput) (*EnableAutocutOutput, error) {
	out := &EnableAutocutOutput{}
	out.Body.Enabled = h.controller.Enable()
	out.Body.State = h.controller.State().String()
	return out, nil
}

// DisableAutocutInput has no parameters.
type DisableAutocutInput struct{}

// DisableAutocutOutput confirms the new state.
type DisableAutocutOutput struct {
	Body struct {
		State string `json:"state"`
	}
}

// Disable returns the controller to StateDisabled from any state.
func (h *AutocutHandler) Disable(ctx context.Context, input *DisableAutocutInput) (*DisableAutocutOutput, error) {
	h.controller.Disable()
	out := &DisableAutocutOutput{}
	out.Body.State = h.controller.State().String()
	return out, nil
}
