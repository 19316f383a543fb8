package doip

import "fmt"

// HeaderNegativeCode is Table 19's generic header NACK code.
type HeaderNegativeCode byte

const (
	HeaderIncorrectPatternFormat HeaderNegativeCode = 0x00
	HeaderUnknownPayloadType     HeaderNegativeCode = 0x01
	HeaderMessageTooLarge        HeaderNegativeCode = 0x02
	HeaderOutOfMemory            HeaderNegativeCode = 0x03
	HeaderInvalidPayloadLength   HeaderNegativeCode = 0x04
)

func (c HeaderNegativeCode) String() string {
	switch c {
	case HeaderIncorrectPatternFormat:
		return "IncorrectPatternFormat"
	case HeaderUnknownPayloadType:
		return "UnknownPayloadType"
	case HeaderMessageTooLarge:
		return "MessageTooLarge"
	case HeaderOutOfMemory:
		return "OutOfMemory"
	case HeaderInvalidPayloadLength:
		return "InvalidPayloadLength"
	default:
		return fmt.Sprintf("HeaderNegativeCode(Reserved:0x%02X)", byte(c))
	}
}

// FatalToSocket reports whether this NACK requires the TCP socket to be
// closed (IncorrectPatternFormat and InvalidPayloadLength, per Table 19's
// annotations).
func (c HeaderNegativeCode) FatalToSocket() bool {
	return c == HeaderIncorrectPatternFormat || c == HeaderInvalidPayloadLength
}

// LogicalAddress classifies a 16-bit DoIP logical address per Table 13.
type LogicalAddress uint16

// Range reports which Table 13 address range value falls in.
func (a LogicalAddress) Range() string {
	v := uint16(a)
	switch {
	case v >= 0x0001 && v <= 0x0DFF, v >= 0x1000 && v <= 0x7FFF:
		return "VMSpecific"
	case v >= 0x0E00 && v <= 0x0FFF:
		return "Client"
	case v >= 0xE400 && v <= 0xEFFF:
		return "VMSpecificFunctional"
	default:
		return "Reserved"
	}
}

func (a LogicalAddress) String() string { return fmt.Sprintf("0x%04X(%s)", uint16(a), a.Range()) }

// NodeType is Table 11's entity-status node classification.
type NodeType byte

const (
	NodeGateway NodeType = 0x00
	NodeNode    NodeType = 0x01
)

func (t NodeType) String() string {
	switch t {
	case NodeGateway:
		return "Gateway"
	case NodeNode:
		return "Node"
	default:
		return fmt.Sprintf("NodeType(Reserved:0x%02X)", byte(t))
	}
}

// FurtherAction is Table 6's "further action required" code.
type FurtherAction byte

const (
	FurtherActionNone            FurtherAction = 0x00
	FurtherActionCentralSecurity FurtherAction = 0x10
)

func (f FurtherAction) String() string {
	switch {
	case f == FurtherActionNone:
		return "NoActionRequired"
	case f == FurtherActionCentralSecurity:
		return "CentralSecurity"
	case f >= 0x01 && f <= 0x0F:
		return fmt.Sprintf("FurtherAction(Reserved:0x%02X)", byte(f))
	default:
		return fmt.Sprintf("FurtherAction(VMSpecific:0x%02X)", byte(f))
	}
}

// SyncStatus is Table 7's VIN/GID synchronisation status.
type SyncStatus byte

const (
	SyncStatusSynced    SyncStatus = 0x00
	SyncStatusNotSynced SyncStatus = 0x10
)

func (s SyncStatus) String() string {
	switch s {
	case SyncStatusSynced:
		return "Synced"
	case SyncStatusNotSynced:
		return "NotSynced"
	default:
		return fmt.Sprintf("SyncStatus(Reserved:0x%02X)", byte(s))
	}
}

// ActiveCode is Table 49's routing activation response code.
type ActiveCode byte

const (
	ActiveSourceAddressUnknown ActiveCode = 0x00
	ActiveActivated            ActiveCode = 0x01
	ActiveSourceAddressInvalid ActiveCode = 0x02
	ActiveSocketInvalid        ActiveCode = 0x03
	ActiveWithoutAuth          ActiveCode = 0x04
	ActiveVehicleRefused       ActiveCode = 0x05
	ActiveUnsupported          ActiveCode = 0x06
	ActiveTLSRequired          ActiveCode = 0x07
	ActiveSuccess              ActiveCode = 0x10
	ActiveNeedConfirm          ActiveCode = 0x11
)

func (c ActiveCode) String() string {
	switch c {
	case ActiveSourceAddressUnknown:
		return "SourceAddressUnknown"
	case ActiveActivated:
		return "AlreadyActivated"
	case ActiveSourceAddressInvalid:
		return "SourceAddressInvalid"
	case ActiveSocketInvalid:
		return "SocketInvalid"
	case ActiveWithoutAuth:
		return "WithoutAuthentication"
	case ActiveVehicleRefused:
		return "VehicleRefused"
	case ActiveUnsupported:
		return "Unsupported"
	case ActiveTLSRequired:
		return "TLSRequired"
	case ActiveSuccess:
		return "Success"
	case ActiveNeedConfirm:
		return "SuccessConfirmationRequired"
	default:
		if c >= 0xE0 && c <= 0xFE {
			return fmt.Sprintf("ActiveCode(VMSpecific:0x%02X)", byte(c))
		}
		return fmt.Sprintf("ActiveCode(Reserved:0x%02X)", byte(c))
	}
}

// Success reports whether c permits routing to proceed. ActiveActivated
// covers a socket that was already activated by an earlier request on the
// same connection; Success and NeedConfirm are the two positive outcomes
// of a fresh activation.
func (c ActiveCode) Success() bool {
	return c == ActiveActivated || c == ActiveSuccess || c == ActiveNeedConfirm
}

// PowerMode is Table 9's diagnostic power mode code.
type PowerMode byte

const (
	PowerModeNotReady     PowerMode = 0x00
	PowerModeReady        PowerMode = 0x01
	PowerModeNotSupported PowerMode = 0x02
)

func (p PowerMode) String() string {
	switch p {
	case PowerModeNotReady:
		return "NotReady"
	case PowerModeReady:
		return "Ready"
	case PowerModeNotSupported:
		return "NotSupported"
	default:
		return fmt.Sprintf("PowerMode(Reserved:0x%02X)", byte(p))
	}
}

// RoutingActiveType is Table 47's routing activation request type.
type RoutingActiveType byte

const (
	RoutingActiveDefault         RoutingActiveType = 0x00
	RoutingActiveWWHOBD          RoutingActiveType = 0x01
	RoutingActiveCentralSecurity RoutingActiveType = 0xE0
)

func (t RoutingActiveType) String() string {
	switch t {
	case RoutingActiveDefault:
		return "Default"
	case RoutingActiveWWHOBD:
		return "WWHOBD"
	case RoutingActiveCentralSecurity:
		return "CentralSecurity"
	default:
		if t >= 0xE1 {
			return fmt.Sprintf("RoutingActiveType(VMSpecific:0x%02X)", byte(t))
		}
		return fmt.Sprintf("RoutingActiveType(Reserved:0x%02X)", byte(t))
	}
}

// DiagnosticPositiveCode is Table 24's positive ACK code for a tunnelled
// diagnostic message.
type DiagnosticPositiveCode byte

const DiagnosticPositiveConfirm DiagnosticPositiveCode = 0x00

func (c DiagnosticPositiveCode) String() string {
	if c == DiagnosticPositiveConfirm {
		return "Confirm"
	}
	return fmt.Sprintf("DiagnosticPositiveCode(Reserved:0x%02X)", byte(c))
}

// DiagnosticNegativeCode is Table 26's negative ACK code for a tunnelled
// diagnostic message.
type DiagnosticNegativeCode byte

const (
	DiagnosticInvalidSourceAddress    DiagnosticNegativeCode = 0x02
	DiagnosticUnknownTargetAddress    DiagnosticNegativeCode = 0x03
	DiagnosticMessageTooLarge         DiagnosticNegativeCode = 0x04
	DiagnosticOutOfMemory             DiagnosticNegativeCode = 0x05
	DiagnosticTargetUnreachable       DiagnosticNegativeCode = 0x06
	DiagnosticUnknownNetwork          DiagnosticNegativeCode = 0x07
	DiagnosticTransportProtocolError  DiagnosticNegativeCode = 0x08
)

func (c DiagnosticNegativeCode) String() string {
	switch c {
	case DiagnosticInvalidSourceAddress:
		return "InvalidSourceAddress"
	case DiagnosticUnknownTargetAddress:
		return "UnknownTargetAddress"
	case DiagnosticMessageTooLarge:
		return "MessageTooLarge"
	case DiagnosticOutOfMemory:
		return "OutOfMemory"
	case DiagnosticTargetUnreachable:
		return "TargetUnreachable"
	case DiagnosticUnknownNetwork:
		return "UnknownNetwork"
	case DiagnosticTransportProtocolError:
		return "TransportProtocolError"
	default:
		return fmt.Sprintf("DiagnosticNegativeCode(Reserved:0x%02X)", byte(c))
	}
}
