// Package device abstracts any frame-producing source (SDI capture card,
// network-video receiver, transport-stream listener, or synthetic
// generator) behind a single Device contract so downstream components —
// recorder, switcher, auto-cut — are source-agnostic.
package device

import (
	"fmt"
	"time"
)

// PixelFormat enumerates the pixel formats a VideoMode may report.
// The core assumes UYVY throughout; BGRA and YUV422_10 are advertised by
// some capture backends but are not processed by the analysis/encoding
// paths (format normalization is a non-goal).
type PixelFormat int

const (
	PixelFormatUYVY PixelFormat = iota
	PixelFormatBGRA
	PixelFormatYUV422_10
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatUYVY:
		return "UYVY"
	case PixelFormatBGRA:
		return "BGRA"
	case PixelFormatYUV422_10:
		return "YUV422_10"
	default:
		return "unknown"
	}
}

// Rational is a frame rate expressed as numerator/denominator, matching
// how capture backends report non-integer rates (29.97 = 30000/1001).
type Rational struct {
	Numerator   uint32
	Denominator uint32
}

// Canonical frame rates. Anything a source reports that isn't one of
// these is represented exactly as given — no snapping.
var (
	Rate23976 = Rational{24000, 1001}
	Rate24    = Rational{24, 1}
	Rate25    = Rational{25, 1}
	Rate2997  = Rational{30000, 1001}
	Rate30    = Rational{30, 1}
	Rate50    = Rational{50, 1}
	Rate5994  = Rational{60000, 1001}
	Rate60    = Rational{60, 1}
)

// Float64 returns the rate as frames per second.
func (r Rational) Float64() float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// VideoMode describes the negotiated capture mode of a device. It is
// immutable once observed — a mode change on a live device surfaces as a
// new Device (or, for sources that renegotiate in place, a status
// transition through Initializing).
type VideoMode struct {
	Width        uint32
	Height       uint32
	FrameRate    Rational
	PixelFormat  PixelFormat
	Interlaced   bool
	Label        string
}

// RowBytes returns the tightly packed row stride for this mode's pixel
// format. For UYVY this is width*2.
func (m VideoMode) RowBytes() uint32 {
	switch m.PixelFormat {
	case PixelFormatUYVY:
		return m.Width * 2
	case PixelFormatBGRA:
		return m.Width * 4
	case PixelFormatYUV422_10:
		return m.Width * 4
	default:
		return m.Width * 2
	}
}

// FrameBytes returns the tightly packed frame size in bytes for this mode.
func (m VideoMode) FrameBytes() uint32 {
	return m.RowBytes() * m.Height
}

// AudioSampleBlock is a block of interleaved PCM samples delivered by a
// device alongside its video frames. BitsPerSample is 16 for most
// hardware sources and 32 (float PCM) for network-video sources.
type AudioSampleBlock struct {
	Samples       []byte
	SampleRate    uint32
	Channels      uint32
	BitsPerSample uint32
	Timestamp     time.Duration
}

// Status enumerates the device lifecycle. The lifecycle is linear except
// Error, which can be entered from any state; Disconnected is terminal.
type Status int

const (
	StatusIdle Status = iota
	StatusInitializing
	StatusCapturing
	StatusError
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusInitializing:
		return "Initializing"
	case StatusCapturing:
		return "Capturing"
	case StatusError:
		return "Error"
	case StatusDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}
