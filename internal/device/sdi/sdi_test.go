package sdi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golfcast/golfcast/internal/device"
)

func TestDevice_StartCaptureReturnsUnavailable(t *testing.T) {
	d := New(0, 1)
	err := d.StartCapture(context.Background(), device.VideoMode{})
	require.Error(t, err)
	assert.ErrorIs(t, err, device.ErrUnavailable)
}

func TestDevice_ListModesReportsCapabilities(t *testing.T) {
	d := New(0, 1)
	modes, err := d.ListModes(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, modes)
}

func TestManager_GetDeviceAndRefresh(t *testing.T) {
	m := NewManager([][2]int{{0, 1}, {0, 2}})
	require.NoError(t, m.RefreshDevices(context.Background()))
	assert.Len(t, m.AvailableDevices(), 2)

	d, err := m.GetDevice("sdi-0-1")
	require.NoError(t, err)
	assert.Equal(t, "sdi-0-1", d.ID())

	_, err = m.GetDevice("sdi-9-9")
	assert.ErrorIs(t, err, device.ErrNotFound)
}
