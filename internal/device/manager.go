package device

import (
	"context"
	"sync"
)

// Manager is a per-family device registry: enumerate, instantiate, and
// lifecycle-manage the devices of one backend family (§4.1).
type Manager interface {
	AvailableDevices() []Device
	RefreshDevices(ctx context.Context) error
	GetDevice(id string) (Device, error)
	// OnDeviceArrived/OnDeviceRemoved return a channel consumers can
	// range over; the manager closes it on Shutdown.
	OnDeviceArrived() <-chan Device
	OnDeviceRemoved() <-chan Device
	Shutdown(ctx context.Context) error
}

// CompositeManager aggregates Managers from multiple families behind a
// single registry. Child arrival/removal events are fanned through
// without deduplication: child id-spaces are assumed disjoint by
// construction (one id prefix per family, per §4.1).
type CompositeManager struct {
	mu       sync.Mutex
	children []Manager

	arrived *broadcaster[Device]
	removed *broadcaster[Device]
	nextSub int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCompositeManager creates a composite over the given family managers
// and starts fanning their arrival/removal events through.
func NewCompositeManager(children ...Manager) *CompositeManager {
	ctx, cancel := context.WithCancel(context.Background())
	c := &CompositeManager{
		children: children,
		arrived:  newBroadcaster[Device](16),
		removed:  newBroadcaster[Device](16),
		cancel:   cancel,
	}
	for _, child := range children {
		c.wg.Add(2)
		go c.fanArrived(ctx, child)
		go c.fanRemoved(ctx, child)
	}
	return c
}

func (c *CompositeManager) fanArrived(ctx context.Context, child Manager) {
	defer c.wg.Done()
	for {
		select {
		case d, ok := <-child.OnDeviceArrived():
			if !ok {
				return
			}
			c.arrived.publish(d)
		case <-ctx.Done():
			return
		}
	}
}

func (c *CompositeManager) fanRemoved(ctx context.Context, child Manager) {
	defer c.wg.Done()
	for {
		select {
		case d, ok := <-child.OnDeviceRemoved():
			if !ok {
				return
			}
			c.removed.publish(d)
		case <-ctx.Done():
			return
		}
	}
}

// AvailableDevices concatenates every child's current device list.
func (c *CompositeManager) AvailableDevices() []Device {
	var all []Device
	for _, child := range c.children {
		all = append(all, child.AvailableDevices()...)
	}
	return all
}

// RefreshDevices refreshes every child. A transient failure in one
// child does not alter the current device set of the others; every
// child is still attempted and the first error is returned (later
// ones are dropped).
func (c *CompositeManager) RefreshDevices(ctx context.Context) error {
	var firstErr error
	for _, child := range c.children {
		if err := child.RefreshDevices(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetDevice looks the id up in every child in order.
func (c *CompositeManager) GetDevice(id string) (Device, error) {
	for _, child := range c.children {
		if d, err := child.GetDevice(id); err == nil {
			return d, nil
		}
	}
	return nil, ErrNotFound
}

// OnDeviceArrived returns a new channel for this call's subscriber. A
// composite-level subscriber never unsubscribes individually; Shutdown
// tears everything down at once.
func (c *CompositeManager) OnDeviceArrived() <-chan Device {
	return c.arrived.subscribe(c.subID())
}

func (c *CompositeManager) OnDeviceRemoved() <-chan Device {
	return c.removed.subscribe(c.subID())
}

func (c *CompositeManager) subID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	return id
}

// Shutdown stops fan-out and shuts down every child manager, disposing
// their devices' resources.
func (c *CompositeManager) Shutdown(ctx context.Context) error {
	c.cancel()
	c.wg.Wait()
	c.arrived.closeAll()
	c.removed.closeAll()

	var firstErr error
	for _, child := range c.children {
		if err := child.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
