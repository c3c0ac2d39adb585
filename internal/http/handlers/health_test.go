package handlers

import (
	"context"
	"testing"

	"github.com/golfcast/golfcast/internal/device"
)

type fakeHealthDevice struct {
	id     string
	status device.Status
}

func (d *fakeHealthDevice) ID() string          { return d.id }
func (d *fakeHealthDevice) DisplayName() string { return d.id }
func (d *fakeHealthDevice) Status() device.Status { return d.status }
func (d *fakeHealthDevice) CurrentMode() (device.VideoMode, bool) {
	return device.VideoMode{}, false
}
func (d *fakeHealthDevice) ListModes(ctx context.Context) ([]device.VideoMode, error) {
	return nil, nil
}
func (d *fakeHealthDevice) StartCapture(ctx context.Context, mode device.VideoMode) error {
	return nil
}
func (d *fakeHealthDevice) StopCapture(ctx context.Context) error { return nil }
func (d *fakeHealthDevice) Subscribe() *device.Subscription       { return nil }

type fakeHealthManager struct {
	devices []device.Device
}

func (m *fakeHealthManager) AvailableDevices() []device.Device { return m.devices }
func (m *fakeHealthManager) RefreshDevices(ctx context.Context) error { return nil }
func (m *fakeHealthManager) GetDevice(id string) (device.Device, error) {
	for _, d := range m.devices {
		if d.ID() == id {
			return d, nil
		}
	}
	return nil, device.ErrNotFound
}
func (m *fakeHealthManager) OnDeviceArrived() <-chan device.Device { return nil }
func (m *fakeHealthManager) OnDeviceRemoved() <-chan device.Device { return nil }
func (m *fakeHealthManager) Shutdown(ctx context.Context) error    { return nil }

func TestHealthHandler_GetHealth(t *testing.T) {
	handler := NewHealthHandler("1.0.0")

	output, err := handler.GetHealth(context.Background(), &HealthInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output == nil {
		t.Fatal("expected non-nil output")
	}

	if output.Body.Status != "healthy" {
		t.Errorf("expected status 'healthy', got '%s'", output.Body.Status)
	}

	if output.Body.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got '%s'", output.Body.Version)
	}

	if output.Body.Uptime == "" {
		t.Error("expected non-empty uptime")
	}

	if output.Body.CPUInfo.Cores == 0 {
		t.Error("expected non-zero CPU cores")
	}

	if output.Body.Components.Database.Status != "unknown" {
		t.Errorf("expected database status 'unknown' without WithDB, got '%s'", output.Body.Components.Database.Status)
	}

	if output.Body.Components.Devices != nil {
		t.Errorf("expected nil devices without WithDevices, got %v", output.Body.Components.Devices)
	}
}

func TestHealthHandler_GetHealth_WithDevices(t *testing.T) {
	manager := &fakeHealthManager{devices: []device.Device{
		&fakeHealthDevice{id: "sdi-0", status: device.StatusCapturing},
		&fakeHealthDevice{id: "ndi-1", status: device.StatusError},
	}}
	handler := NewHealthHandler("1.0.0").WithDevices(manager)

	output, err := handler.GetHealth(context.Background(), &HealthInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	devices := output.Body.Components.Devices
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}

	byID := map[string]DeviceHealth{}
	for _, d := range devices {
		byID[d.ID] = d
	}

	if !byID["sdi-0"].Healthy {
		t.Error("expected sdi-0 (Capturing) to be healthy")
	}
	if byID["ndi-1"].Healthy {
		t.Error("expected ndi-1 (Error) to be unhealthy")
	}
}
