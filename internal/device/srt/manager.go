package srt

import (
	"context"
	"sync"

	"github.com/golfcast/golfcast/internal/device"
)

// Manager enumerates a configured set of SRT listener endpoints, each
// backed by its own muxer subprocess Config.
type Manager struct {
	mu      sync.Mutex
	devices map[string]*Device

	arrived chan device.Device
	removed chan device.Device
}

func NewManager(configs []Config) *Manager {
	m := &Manager{
		devices: make(map[string]*Device),
		arrived: make(chan device.Device, len(configs)+1),
		removed: make(chan device.Device, 1),
	}
	for _, cfg := range configs {
		d := New(cfg)
		m.devices[d.ID()] = d
	}
	return m
}

func (m *Manager) AvailableDevices() []device.Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]device.Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, d)
	}
	return out
}

func (m *Manager) RefreshDevices(ctx context.Context) error { return nil }

func (m *Manager) GetDevice(id string) (device.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.devices[id]; ok {
		return d, nil
	}
	return nil, device.ErrNotFound
}

func (m *Manager) OnDeviceArrived() <-chan device.Device { return m.arrived }
func (m *Manager) OnDeviceRemoved() <-chan device.Device { return m.removed }

func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	devices := make([]*Device, 0, len(m.devices))
	for _, d := range m.devices {
		devices = append(devices, d)
	}
	m.mu.Unlock()

	for _, d := range devices {
		_ = d.StopCapture(ctx)
	}
	close(m.arrived)
	close(m.removed)
	return nil
}
