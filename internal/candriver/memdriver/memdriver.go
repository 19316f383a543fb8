// Package memdriver implements isotp.CanDriver entirely in memory, for
// tests that need two ends of a CAN bus without real hardware. Grounded on
// the teacher's drivers.Driver pause-free frame channel shape, stripped to
// its essentials since there's no serial port to protect.
package memdriver

import (
	"context"
	"sync"

	"github.com/keestucker-fork/diagkit/canbus"
)

// Bus is a shared in-memory CAN bus: frames sent by one Driver are
// delivered to every other Driver's listeners on the same Bus.
type Bus struct {
	mu      sync.Mutex
	drivers []*Driver
}

// NewBus creates an empty bus.
func NewBus() *Bus { return &Bus{} }

// NewDriver attaches a new Driver to b.
func (b *Bus) NewDriver() *Driver {
	d := &Driver{bus: b, listeners: make(map[string]chan<- canbus.Frame)}
	b.mu.Lock()
	b.drivers = append(b.drivers, d)
	b.mu.Unlock()
	return d
}

// Driver is one endpoint on an in-memory Bus.
type Driver struct {
	bus *Bus

	mu        sync.Mutex
	listeners map[string]chan<- canbus.Frame
}

// SendFrame delivers frame to every other Driver on the same Bus.
func (d *Driver) SendFrame(ctx context.Context, frame canbus.Frame) error {
	d.bus.mu.Lock()
	peers := make([]*Driver, len(d.bus.drivers))
	copy(peers, d.bus.drivers)
	d.bus.mu.Unlock()

	for _, peer := range peers {
		if peer == d {
			continue
		}
		peer.deliver(frame)
	}
	return nil
}

func (d *Driver) deliver(frame canbus.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ch := range d.listeners {
		select {
		case ch <- frame:
		default:
		}
	}
}

// RegisterListener subscribes ch to every frame this driver receives.
func (d *Driver) RegisterListener(name string, ch chan<- canbus.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[name] = ch
	return nil
}

// UnregisterListener removes a previously registered listener.
func (d *Driver) UnregisterListener(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.listeners, name)
}
