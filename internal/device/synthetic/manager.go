package synthetic

import (
	"context"
	"fmt"
	"sync"

	"github.com/golfcast/golfcast/internal/device"
)

// Manager enumerates a configured set of synthetic devices (still
// images and solid colors named in config). There is no hardware to
// discover, so RefreshDevices is a no-op, mirroring the ndi.Manager and
// sdi.Manager families' "fixed configured set" shape.
type Manager struct {
	mu      sync.Mutex
	devices map[string]*Device

	arrived chan device.Device
	removed chan device.Device
}

// NewManager creates a Manager over a black-frame device plus one
// solid-color device per color name in colors and one still-image
// device per (id, frame) pair in stills.
func NewManager(colors map[string][3]byte, stills map[string][]byte) *Manager {
	m := &Manager{
		devices: make(map[string]*Device),
		arrived: make(chan device.Device, len(colors)+len(stills)+2),
		removed: make(chan device.Device, 1),
	}

	black := New("syn-black", "Black")
	m.devices[black.ID()] = black

	for name, rgb := range colors {
		id := fmt.Sprintf("syn-color-%s", name)
		m.devices[id] = NewColor(id, name, rgb[0], rgb[1], rgb[2])
	}
	for name, frame := range stills {
		id := fmt.Sprintf("syn-still-%s", name)
		m.devices[id] = NewStill(id, name, frame)
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
	close(m.arrived)
	close(m.removed)
	return nil
}
