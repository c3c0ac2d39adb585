package device

import (
	"context"
	"time"

	"github.com/golfcast/golfcast/internal/framepool"
)

// VideoFrame is a borrow over a pooled byte region. The borrow is valid
// only until Release is called; a consumer that wants to retain the
// data beyond that must call Retain, which copies into a fresh pool
// slot (the Go mapping of spec.md §9's "into_pooled()" design note).
type VideoFrame struct {
	Mode        VideoMode
	RowStride   uint32
	Timestamp   time.Duration
	FrameNumber uint64

	buf *framepool.Buffer
}

// NewVideoFrame wraps a rented pool buffer as a frame borrow.
func NewVideoFrame(mode VideoMode, rowStride uint32, ts time.Duration, frameNumber uint64, buf *framepool.Buffer) VideoFrame {
	return VideoFrame{Mode: mode, RowStride: rowStride, Timestamp: ts, FrameNumber: frameNumber, buf: buf}
}

// Bytes returns the frame's pixel data. Valid only until Release.
func (f VideoFrame) Bytes() []byte {
	if f.buf == nil {
		return nil
	}
	return f.buf.Bytes()
}

// Release returns the frame's backing buffer to its pool.
func (f VideoFrame) Release() {
	if f.buf != nil {
		f.buf.Release()
	}
}

// Retain copies the frame's data into a freshly rented buffer so the
// caller can hold it beyond the original borrow's lifetime. The
// original borrow is left as is; the caller still releases it.
func (f VideoFrame) Retain() (VideoFrame, error) {
	clone, err := f.buf.Clone()
	if err != nil {
		return VideoFrame{}, err
	}
	out := f
	out.buf = clone
	return out, nil
}

// Unsubscriber is implemented by anything that hands out Subscriptions,
// so Subscription.Unsubscribe can deregister without depending on the
// concrete baseDevice type. Implementations outside this package (e.g.
// internal/device/synthetic) satisfy it directly.
type Unsubscriber interface {
	Unsubscribe(id int)
}

// Subscription is a consumer's handle to a device's event streams.
// Video frames and audio blocks are delivered in strict per-stream
// arrival order. Unsubscribe stops delivery and closes the channels.
type Subscription struct {
	owner Unsubscriber
	id    int

	videoCh  chan VideoFrame
	audioCh  chan AudioSampleBlock
	statusCh chan Status
}

// NewSubscription constructs a Subscription handle. Concrete Device
// implementations call this from their Subscribe method.
func NewSubscription(owner Unsubscriber, id int, videoCh chan VideoFrame, audioCh chan AudioSampleBlock, statusCh chan Status) *Subscription {
	return &Subscription{owner: owner, id: id, videoCh: videoCh, audioCh: audioCh, statusCh: statusCh}
}

func (s *Subscription) VideoFrames() <-chan VideoFrame        { return s.videoCh }
func (s *Subscription) AudioSamples() <-chan AudioSampleBlock { return s.audioCh }
func (s *Subscription) StatusChanges() <-chan Status          { return s.statusCh }

// Unsubscribe deregisters this handle. Safe to call once.
func (s *Subscription) Unsubscribe() {
	s.owner.Unsubscribe(s.id)
}

// Device abstracts any frame-producing source so downstream components
// (recorder, switcher, auto-cut) are source-agnostic (§4.1).
type Device interface {
	// ID is a stable identity across process runs for a physical device.
	ID() string
	// DisplayName is a human-readable label.
	DisplayName() string
	// ListModes returns advertised capabilities; the real mode may only
	// be known after the first frame (auto-detection).
	ListModes(ctx context.Context) ([]VideoMode, error)
	// StartCapture begins producing frames in the requested mode. Fails
	// if already capturing, hardware is unavailable, or the source is
	// unresolvable; on failure Status becomes StatusError.
	StartCapture(ctx context.Context, mode VideoMode) error
	// StopCapture is idempotent after StartCapture and waits for the
	// in-flight producer to drain before returning.
	StopCapture(ctx context.Context) error
	// Status returns the current lifecycle state.
	Status() Status
	// CurrentMode returns the negotiated mode, if capturing.
	CurrentMode() (VideoMode, bool)
	// Subscribe registers a new consumer for this device's event
	// streams. Multiple consumers may subscribe concurrently.
	Subscribe() *Subscription
}
