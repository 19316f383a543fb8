// Package canbus defines the CAN frame and addressing types shared by the
// ISO-TP transport and the driver boundary. It owns no I/O; drivers under
// internal/candriver produce and consume these types.
package canbus

import (
	"fmt"
	"strings"
)

// MaxClassicDLC is the largest data length of a classic CAN frame.
const MaxClassicDLC = 8

// MaxFDDLC is the largest data length of a CAN-FD frame, per the escaped
// ISO-TP single-frame form in ISO 15765-2 §9.6.2.
const MaxFDDLC = 64

// Frame is a single CAN data frame as delivered by a CanDriver.
type Frame struct {
	// Channel tags which physical/virtual bus this frame belongs to, so a
	// shared driver can multiplex several ISO-TP engines.
	Channel string
	// ID is the 11-bit (standard) or 29-bit (extended) CAN identifier.
	ID uint32
	// Extended is true when ID uses the 29-bit extended format.
	Extended bool
	// Data holds between 0 and MaxFDDLC bytes.
	Data []byte
}

// NewFrame builds a Frame, copying data so callers may reuse their buffer.
func NewFrame(channel string, id uint32, extended bool, data []byte) Frame {
	buf := make([]byte, len(data))
	copy(buf, data)
	return Frame{Channel: channel, ID: id, Extended: extended, Data: buf}
}

func (f Frame) String() string {
	parts := make([]string, len(f.Data))
	for i, b := range f.Data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return fmt.Sprintf("chan=%s id=0x%X len=%d data=[%s]", f.Channel, f.ID, len(f.Data), strings.Join(parts, " "))
}

// AddressType selects whether an ISO-TP transfer targets a single ECU
// (Physical) or broadcasts to every ECU listening on a functional ID
// (Functional). Functional addressing is only valid for Single Frame
// requests (ISO 15765-2 §5.3.2).
type AddressType int

const (
	Physical AddressType = iota
	Functional
)

func (a AddressType) String() string {
	switch a {
	case Physical:
		return "physical"
	case Functional:
		return "functional"
	default:
		return fmt.Sprintf("AddressType(%d)", int(a))
	}
}

// Address is the set of CAN identifiers a channel uses to talk to one ECU.
type Address struct {
	// TxID is the identifier used for tester -> ECU requests.
	TxID uint32
	// RxID is the identifier the ECU responds on.
	RxID uint32
	// FID is the functional (broadcast) identifier, used only for
	// functionally-addressed single-frame requests.
	FID uint32
	// Extended marks all three identifiers as 29-bit.
	Extended bool
}

// IDFor returns the CAN identifier to transmit on for the given address type.
func (a Address) IDFor(t AddressType) uint32 {
	if t == Functional {
		return a.FID
	}
	return a.TxID
}
