// Package sdi is a capability-only stub for SDI capture cards. Binding
// to a concrete vendor SDK (Blackmagic DeckLink, AJA, etc.) is a
// non-goal; this package gives the registry a real Device that reports
// accurate capability metadata and fails StartCapture with
// device.ErrUnavailable, rather than omitting the family entirely.
package sdi

import (
	"context"
	"fmt"
	"sync"

	"github.com/golfcast/golfcast/internal/device"
)

// Device represents one SDI input identified by a card/channel index.
// Nothing about it is wired to real hardware; Status stays Disconnected
// until a concrete driver is integrated.
type Device struct {
	id          string
	displayName string
	cardIndex   int
	channel     int

	mu     sync.Mutex
	status device.Status
}

// New describes the SDI input at cardIndex/channel. id should carry the
// "sdi-" family prefix so CompositeManager fan-out stays dedup-free.
func New(cardIndex, channel int) *Device {
	return &Device{
		id:          fmt.Sprintf("sdi-%d-%d", cardIndex, channel),
		displayName: fmt.Sprintf("SDI Card %d / Input %d", cardIndex, channel),
		cardIndex:   cardIndex,
		channel:     channel,
		status:      device.StatusDisconnected,
	}
}

func (d *Device) ID() string          { return d.id }
func (d *Device) DisplayName() string { return d.displayName }

// ListModes reports the formats broadcast SDI hardware commonly
// advertises; the concrete card is not queried (no driver is wired).
func (d *Device) ListModes(ctx context.Context) ([]device.VideoMode, error) {
	return []device.VideoMode{
		{Width: 1920, Height: 1080, FrameRate: device.Rate2997, PixelFormat: device.PixelFormatUYVY, Label: "1080i29.97", Interlaced: true},
		{Width: 1920, Height: 1080, FrameRate: device.Rate25, PixelFormat: device.PixelFormatUYVY, Label: "1080i25", Interlaced: true},
		{Width: 1920, Height: 1080, FrameRate: device.Rate50, PixelFormat: device.PixelFormatUYVY, Label: "1080p50"},
	}, nil
}

// StartCapture always fails: no vendor SDK is linked in.
func (d *Device) StartCapture(ctx context.Context, mode device.VideoMode) error {
	return fmt.Errorf("sdi: card %d input %d: %w", d.cardIndex, d.channel, device.ErrUnavailable)
}

func (d *Device) StopCapture(ctx context.Context) error { return nil }

func (d *Device) Status() device.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Device) CurrentMode() (device.VideoMode, bool) { return device.VideoMode{}, false }

// Subscribe returns a handle whose channels never receive anything; an
// SDI stub produces no frames.
func (d *Device) Subscribe() *device.Subscription {
	return device.NewSubscription(d, 0,
		make(chan device.VideoFrame),
		make(chan device.AudioSampleBlock),
		make(chan device.Status))
}

// Unsubscribe satisfies device.Unsubscriber; there is nothing to tear down.
func (d *Device) Unsubscribe(id int) {}
