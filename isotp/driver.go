package isotp

import (
	"context"

	"github.com/keestucker-fork/diagkit/canbus"
)

// CanDriver is the boundary to the physical (or virtual) CAN bus. It is an
// external collaborator per the spec: concrete implementations live under
// internal/candriver. SendFrame is expected to block until the driver has
// placed the frame on the wire (or rejected it); the engine wraps each call
// in a per-frame N_As deadline via ctx.
type CanDriver interface {
	SendFrame(ctx context.Context, frame canbus.Frame) error
	// RegisterListener subscribes ch to every frame the driver receives on
	// any channel; callers filter by Frame.Channel/ID themselves. Frames on
	// channels or CAN IDs a listener doesn't care about are simply ignored
	// by that listener, per the shared-driver addressing filter.
	RegisterListener(name string, ch chan<- canbus.Frame) error
	UnregisterListener(name string)
}
