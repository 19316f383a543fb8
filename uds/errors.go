package uds

import "fmt"

// NRCError is returned by Client methods when the ECU answers with a
// negative response whose code is not NRCRequestCorrectlyReceivedResponsePending
// (that one is retried transparently, see Client.send).
type NRCError struct {
	Service Service
	Code    NRC
}

func (e *NRCError) Error() string {
	return fmt.Sprintf("uds: %s: negative response %s", e.Service, e.Code)
}

// UnexpectedResponseError is returned when a positive response's service ID
// does not match the request that was sent.
type UnexpectedResponseError struct {
	Want, Got Service
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("uds: expected response for %s, got %s", e.Want, e.Got)
}

// UnexpectedSubFunctionError is returned when a positive response echoes a
// different sub-function than the one requested.
type UnexpectedSubFunctionError struct {
	Service   Service
	Want, Got byte
}

func (e *UnexpectedSubFunctionError) Error() string {
	return fmt.Sprintf("uds: %s: expected sub-function 0x%02X, got 0x%02X", e.Service, e.Want, e.Got)
}

// UnexpectedTransferSequenceError is returned by Client.TransferData when
// the ECU's echoed block sequence counter does not match ours.
type UnexpectedTransferSequenceError struct {
	Want, Got byte
}

func (e *UnexpectedTransferSequenceError) Error() string {
	return fmt.Sprintf("uds: transfer sequence mismatch: sent 0x%02X, ecu echoed 0x%02X", e.Want, e.Got)
}

// NotImplementedError is returned for a service spec.md explicitly leaves
// unimplemented (ResponseOnEvent, spec.md §9 Non-goals).
type NotImplementedError struct {
	Service Service
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("uds: %s is not implemented", e.Service)
}

// DidNotSupportedError is returned when a DID has no registered length in
// the active Configuration and so cannot be safely framed or parsed.
type DidNotSupportedError struct {
	DID uint16
}

func (e *DidNotSupportedError) Error() string {
	return fmt.Sprintf("uds: data identifier 0x%04X is not configured", e.DID)
}

// SubFunctionError reports a sub-function value the operation cannot use,
// such as an even (key) level passed to Client.UnlockSecurityAccess. A
// sub-function given for a service without one is a ServiceError instead.
type SubFunctionError struct {
	Service Service
	Msg     string
}

func (e *SubFunctionError) Error() string { return fmt.Sprintf("uds: %s: %s", e.Service, e.Msg) }

// ServiceError reports a structural problem building or parsing a request
// or response for Service.
type ServiceError struct {
	Service Service
	Msg     string
}

func (e *ServiceError) Error() string { return fmt.Sprintf("uds: %s: %s", e.Service, e.Msg) }

// InvalidDataError reports malformed response payload bytes (too short,
// bad ALFI, non-ASCII where ASCII was expected, etc).
type InvalidDataError struct {
	Msg string
}

func (e *InvalidDataError) Error() string { return "uds: invalid data: " + e.Msg }

// InvalidParamError reports a caller-supplied argument that cannot be
// encoded (e.g. an address/size that overflows the configured ALFI width).
type InvalidParamError struct {
	Msg string
}

func (e *InvalidParamError) Error() string { return "uds: invalid parameter: " + e.Msg }
