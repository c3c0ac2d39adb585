package device

import "errors"

var (
	// ErrAlreadyCapturing is returned by StartCapture on a device whose
	// status is already Capturing or Initializing.
	ErrAlreadyCapturing = errors.New("device: already capturing")
	// ErrUnavailable is returned by StartCapture when the underlying
	// hardware/network source cannot be reached.
	ErrUnavailable = errors.New("device: source unavailable")
	// ErrNotFound is returned by Manager.GetDevice for an unknown id.
	ErrNotFound = errors.New("device: not found")
)
