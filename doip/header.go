// Package doip implements a DoIP (ISO 13400-2) client: the generic header
// codec, every payload-type shape, and the routing-activation/diagnostic-
// tunnel client state machine. Grounded on
// _examples/original_source/crates/protocols/iso13400-2/src/common.rs,
// translated from the Rust `Into<u8>`/`From<u8>` pairs into the teacher's
// reserved-enum Go idiom (see uds.Service/NRC for the same pattern).
package doip

import "fmt"

// Version is the first byte of the generic header; the second byte is
// always its bitwise complement (a corruption check, Table 16).
type Version byte

const (
	Version2010 Version = 0x01
	Version2012 Version = 0x02
	Version2019 Version = 0x03
	VersionDefault Version = 0xFF
)

func ParseVersion(v byte) Version {
	switch v {
	case 0x01, 0x02, 0x03, 0xFF:
		return Version(v)
	default:
		return Version(v)
	}
}

func (v Version) String() string {
	switch v {
	case Version2010:
		return "ISO13400-2:2010"
	case Version2012:
		return "ISO13400-2:2012"
	case Version2019:
		return "ISO13400-2:2019"
	case VersionDefault:
		return "Default"
	default:
		return fmt.Sprintf("Version(Reserved:0x%02X)", byte(v))
	}
}

const (
	headerVersionSize = 1
	headerTypeSize    = 2
	headerLengthSize  = 4
	headerSize        = headerVersionSize + headerVersionSize + headerTypeSize + headerLengthSize
)

// PayloadType is the 2-byte payload type field of the generic header
// (Table 17).
type PayloadType uint16

const (
	PayloadHeaderNegative       PayloadType = 0x0000
	PayloadReqVehicleID         PayloadType = 0x0001
	PayloadReqVehicleIDWithEID  PayloadType = 0x0002
	PayloadReqVehicleIDWithVIN  PayloadType = 0x0003
	PayloadRespVehicleID        PayloadType = 0x0004
	PayloadReqRoutingActive     PayloadType = 0x0005
	PayloadRespRoutingActive    PayloadType = 0x0006
	PayloadReqAliveCheck        PayloadType = 0x0007
	PayloadRespAliveCheck       PayloadType = 0x0008
	PayloadReqEntityStatus      PayloadType = 0x4001
	PayloadRespEntityStatus     PayloadType = 0x4002
	PayloadReqDiagPowerMode     PayloadType = 0x4003
	PayloadRespDiagPowerMode    PayloadType = 0x4004
	PayloadDiagnostic           PayloadType = 0x8001
	PayloadRespDiagPositiveAck  PayloadType = 0x8002
	PayloadRespDiagNegativeAck  PayloadType = 0x8003
)

var payloadTypeNames = map[PayloadType]string{
	PayloadHeaderNegative:      "HeaderNegative",
	PayloadReqVehicleID:        "ReqVehicleID",
	PayloadReqVehicleIDWithEID: "ReqVehicleIDWithEID",
	PayloadReqVehicleIDWithVIN: "ReqVehicleIDWithVIN",
	PayloadRespVehicleID:       "RespVehicleID",
	PayloadReqRoutingActive:    "ReqRoutingActive",
	PayloadRespRoutingActive:   "RespRoutingActive",
	PayloadReqAliveCheck:       "ReqAliveCheck",
	PayloadRespAliveCheck:      "RespAliveCheck",
	PayloadReqEntityStatus:     "ReqEntityStatus",
	PayloadRespEntityStatus:    "RespEntityStatus",
	PayloadReqDiagPowerMode:    "ReqDiagPowerMode",
	PayloadRespDiagPowerMode:   "RespDiagPowerMode",
	PayloadDiagnostic:          "Diagnostic",
	PayloadRespDiagPositiveAck: "RespDiagPositiveAck",
	PayloadRespDiagNegativeAck: "RespDiagNegativeAck",
}

func (t PayloadType) String() string {
	if name, ok := payloadTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PayloadType(0x%04X)", uint16(t))
}

// Header is the 8-byte generic DoIP header that precedes every payload.
type Header struct {
	Version     Version
	Type        PayloadType
	PayloadSize uint32
}

// EncodeHeader serialises h: version, ~version, type (2 bytes BE),
// payload length (4 bytes BE).
func EncodeHeader(h Header) []byte {
	v := byte(h.Version)
	out := make([]byte, headerSize)
	out[0] = v
	out[1] = ^v
	out[2] = byte(h.Type >> 8)
	out[3] = byte(h.Type)
	out[4] = byte(h.PayloadSize >> 24)
	out[5] = byte(h.PayloadSize >> 16)
	out[6] = byte(h.PayloadSize >> 8)
	out[7] = byte(h.PayloadSize)
	return out
}

// DecodeHeader parses the 8-byte generic header, validating the
// version/complement check (spec.md §4.4).
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, &InvalidPayloadLengthError{Actual: len(data), Expected: headerSize}
	}
	v, inv := data[0], data[1]
	if v^0xFF != inv {
		return Header{}, &InvalidVersionError{Version: v, Complement: inv}
	}
	return Header{
		Version:     ParseVersion(v),
		Type:        PayloadType(uint16(data[2])<<8 | uint16(data[3])),
		PayloadSize: uint32(data[4])<<24 | uint32(data[5])<<16 | uint32(data[6])<<8 | uint32(data[7]),
	}, nil
}
