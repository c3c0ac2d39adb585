package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/golfcast/golfcast/internal/device"
)

// DevicesHandler exposes a read-only view of the devices a
// device.Manager currently knows about (§6's thin status surface).
type DevicesHandler struct {
	manager device.Manager
}

// NewDevicesHandler creates a DevicesHandler over manager.
func NewDevicesHandler(manager device.Manager) *DevicesHandler {
	return &DevicesHandler{manager: manager}
}

// Register registers the devices routes with the API.
func (h *DevicesHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listDevices",
		Method:      "GET",
		Path:        "/api/v1/devices",
		Summary:     "List known devices",
		Description: "Returns every device the composite device manager currently knows about, with its status and negotiated mode.",
		Tags:        []string{"Devices"},
	}, h.ListDevices)
}

// DeviceSummary is the JSON-facing view of one device.Device.
type DeviceSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
	Mode        *struct {
		Width       uint32  `json:"width"`
		Height      uint32  `json:"height"`
		FrameRate   float64 `json:"frame_rate"`
		PixelFormat string  `json:"pixel_format"`
	} `json:"mode,omitempty"`
}

// ListDevicesInput has no parameters.
type ListDevicesInput struct{}

// ListDevicesOutput carries the device list.
type ListDevicesOutput struct {
	Body struct {
		Devices []DeviceSummary `json:"devices"`
	}
}

// ListDevices returns a summary of every device the manager holds.
func (h *DevicesHandler) ListDevices(ctx context.Context, input *ListDevicesInput) (*ListDevicesOutput, error) {
	out := &ListDevicesOutput{}
	for _, d := range h.manager.AvailableDevices() {
		summary := DeviceSummary{
			ID:          d.ID(),
			DisplayName: d.DisplayName(),
			Status:      d.Status().String(),
		}
		if mode, ok := d.CurrentMode(); ok {
			summary.Mode = &struct {
				Width       uint32  `json:"width"`
				Height      uint32  `json:"height"`
				FrameRate   float64 `json:"frame_rate"`
				PixelFormat string  `json:"pixel_format"`
			}{
				Width:       mode.Width,
				Height:      mode.Height,
				FrameRate:   mode.FrameRate.Float64(),
				PixelFormat: mode.PixelFormat.String(),
			}
		}
		out.Body.Devices = append(out.Body.Devices, summary)
	}
	return out, nil
}
