// Package ndi is a capability-only stub for NDI network-video sources.
// A real implementation would discover sources via mDNS and receive
// frames over the NDI SDK; both are non-goals here. The Device still
// reports believable capability metadata and fails StartCapture with
// device.ErrUnavailable so downstream code (registry, recorder wiring)
// can be built and tested against the real Device contract.
package ndi

import (
	"context"
	"fmt"
	"sync"

	"github.com/golfcast/golfcast/internal/device"
)

// Device represents one discovered NDI source, identified by its
// network name as advertised over mDNS.
type Device struct {
	id          string
	displayName string
	sourceName  string

	mu     sync.Mutex
	status device.Status
}

// New describes an NDI source by its advertised name. id carries the
// "ndi-" family prefix.
func New(sourceName string) *Device {
	return &Device{
		id:          "ndi-" + sourceName,
		displayName: sourceName,
		sourceName:  sourceName,
		status:      device.StatusDisconnected,
	}
}

func (d *Device) ID() string          { return d.id }
func (d *Device) DisplayName() string { return d.displayName }

func (d *Device) ListModes(ctx context.Context) ([]device.VideoMode, error) {
	return []device.VideoMode{
		{Width: 1920, Height: 1080, FrameRate: device.Rate2997, PixelFormat: device.PixelFormatUYVY, Label: "NDI HX 1080p29.97"},
		{Width: 1920, Height: 1080, FrameRate: device.Rate60, PixelFormat: device.PixelFormatUYVY, Label: "NDI HX 1080p60"},
	}, nil
}

// StartCapture always fails: no NDI SDK is linked in.
func (d *Device) StartCapture(ctx context.Context, mode device.VideoMode) error {
	return fmt.Errorf("ndi: source %q: %w", d.sourceName, device.ErrUnavailable)
}

func (d *Device) StopCapture(ctx context.Context) error { return nil }

func (d *Device) Status() device.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Device) CurrentMode() (device.VideoMode, bool) { return device.VideoMode{}, false }

func (d *Device) Subscribe() *device.Subscription {
	return device.NewSubscription(d, 0,
		make(chan device.VideoFrame),
		make(chan device.AudioSampleBlock),
		make(chan device.Status))
}

func (d *Device) Unsubscribe(id int) {}
