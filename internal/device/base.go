package device

import "sync"

// baseDevice bundles the subscription/status bookkeeping a Device needs:
// broadcast registries for the three event streams, and a mutex-guarded
// status field with a status-changed notification on every transition.
// None of the concrete Device implementations in this module embed it;
// each keeps equivalent fields of its own.
type baseDevice struct {
	id          string
	displayName string

	mu      sync.Mutex
	status  Status
	mode    VideoMode
	hasMode bool
	nextSub int

	video    *broadcaster[VideoFrame]
	audio    *broadcaster[AudioSampleBlock]
	statuses *broadcaster[Status]
}

func newBaseDevice(id, displayName string) baseDevice {
	return baseDevice{
		id:          id,
		displayName: displayName,
		status:      StatusIdle,
		video:       newBroadcaster[VideoFrame](8),
		audio:       newBroadcaster[AudioSampleBlock](32),
		statuses:    newBroadcaster[Status](4),
	}
}

func (b *baseDevice) ID() string          { return b.id }
func (b *baseDevice) DisplayName() string { return b.displayName }

func (b *baseDevice) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *baseDevice) CurrentMode() (VideoMode, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode, b.hasMode
}

// setStatus transitions status and publishes the change. Publication
// happens outside the lock to avoid re-entrancy if an observer calls
// back into the device.
func (b *baseDevice) setStatus(s Status) {
	b.mu.Lock()
	changed := b.status != s
	b.status = s
	b.mu.Unlock()
	if changed {
		b.statuses.publish(s)
	}
}

func (b *baseDevice) setMode(mode VideoMode) {
	b.mu.Lock()
	b.mode = mode
	b.hasMode = true
	b.mu.Unlock()
}

func (b *baseDevice) clearMode() {
	b.mu.Lock()
	b.mode = VideoMode{}
	b.hasMode = false
	b.mu.Unlock()
}

func (b *baseDevice) Subscribe() *Subscription {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.mu.Unlock()

	videoCh := b.video.subscribe(id)
	audioCh := b.audio.subscribe(id)
	statusCh := b.statuses.subscribe(id)
	return NewSubscription(b, id, videoCh, audioCh, statusCh)
}

// Unsubscribe satisfies the Unsubscriber contract so Subscription.Unsubscribe
// can deregister this id from all three broadcasters.
func (b *baseDevice) Unsubscribe(id int) {
	b.video.unsubscribe(id)
	b.audio.unsubscribe(id)
	b.statuses.unsubscribe(id)
}

func (b *baseDevice) publishVideo(f VideoFrame)        { b.video.publish(f) }
func (b *baseDevice) publishAudio(a AudioSampleBlock)  { b.audio.publish(a) }
