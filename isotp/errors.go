package isotp

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// TimeoutError reports which budget expired. value/unit mirror the source
// system's surfaced error shape (spec.md §7: Timeout{value, unit}) so a
// caller can render "Timeout{5000, ms}" without reaching into a Duration.
type TimeoutError struct {
	Value int64
	Unit  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("isotp: timeout after %d%s", e.Value, e.Unit)
}

func newTimeout(d time.Duration) error {
	return &TimeoutError{Value: d.Milliseconds(), Unit: "ms"}
}

// ErrDeviceError wraps a CanDriver failure during a transfer.
var ErrDeviceError = errors.New("isotp: device error")

// ErrOverloadFlow is returned when the peer sends FlowControl(Overflow);
// always fatal for the current transfer.
var ErrOverloadFlow = errors.New("isotp: peer signalled flow control overflow")

// ErrFunctionalMultiFrame is returned when Write is called with
// AddressType Functional for a payload that doesn't fit a Single Frame;
// functional addressing is only valid for single-frame requests.
var ErrFunctionalMultiFrame = errors.New("isotp: functional addressing only valid for single-frame requests")

// ErrBusy is returned when Write is called while a previous transfer on
// the same engine has not yet completed.
var ErrBusy = errors.New("isotp: transfer already in progress")
