package sdi

import (
	"context"
	"sync"

	"github.com/golfcast/golfcast/internal/device"
)

// Manager enumerates a fixed, configured set of SDI inputs. Real
// hardware enumeration (querying installed cards) is a non-goal;
// RefreshDevices is a no-op over the configured list.
type Manager struct {
	mu      sync.Mutex
	devices map[string]*Device

	arrived chan device.Device
	removed chan device.Device
}

// NewManager builds a Manager over a fixed set of card/channel pairs,
// expressed as cardIndex/channel pairs matching New's signature.
func NewManager(inputs [][2]int) *Manager {
	m := &Manager{
		devices: make(map[string]*Device),
		arrived: make(chan device.Device, len(inputs)+1),
		removed: make(chan device.Device, 1),
	}
	for _, in := range inputs {
		d := New(in[0], in[1])
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

// RefreshDevices is a no-op: the configured SDI input list is static.
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
	close(m.arrived)
	close(m.removed)
	return nil
}
