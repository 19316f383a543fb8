package doip

import "fmt"

// InvalidVersionError reports a generic header whose version byte doesn't
// match the bitwise complement of the following byte.
type InvalidVersionError struct {
	Version, Complement byte
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("doip: invalid version: 0x%02X / complement 0x%02X", e.Version, e.Complement)
}

// InvalidPayloadTypeError reports an unrecognised payload type where the
// caller needs a hard failure rather than the generic Reserved fallback
// (e.g. deciding how to route an inbound frame).
type InvalidPayloadTypeError struct {
	Type PayloadType
}

func (e *InvalidPayloadTypeError) Error() string {
	return fmt.Sprintf("doip: unhandled payload type %s", e.Type)
}

// InvalidPayloadLengthError reports a header/payload whose byte count
// doesn't match the declared length.
type InvalidPayloadLengthError struct {
	Actual, Expected int
}

func (e *InvalidPayloadLengthError) Error() string {
	return fmt.Sprintf("doip: invalid payload length: got %d, want >= %d", e.Actual, e.Expected)
}

// HeaderNegativeError wraps a received 0x0000 HeaderNegative payload.
type HeaderNegativeError struct {
	Code HeaderNegativeCode
}

func (e *HeaderNegativeError) Error() string { return fmt.Sprintf("doip: header negative: %s", e.Code) }

// ActiveError wraps a routing activation response whose code did not
// signal success.
type ActiveError struct {
	Code ActiveCode
}

func (e *ActiveError) Error() string { return fmt.Sprintf("doip: routing activation failed: %s", e.Code) }

// DiagnosticNegativeError wraps a 0x8003 NACK to a tunnelled diagnostic
// message, carrying the previously-sent data the entity echoes back
// (spec.md §7 "DiagnosticNegativeError{code, data}").
type DiagnosticNegativeError struct {
	Code         DiagnosticNegativeCode
	PreviousData []byte
}

func (e *DiagnosticNegativeError) Error() string {
	return fmt.Sprintf("doip: diagnostic message rejected: %s", e.Code)
}
