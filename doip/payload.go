package doip

// Payload is implemented by every one of the sixteen DoIP payload shapes
// (Table 17). Encode returns the payload body only, without the generic
// header.
type Payload interface {
	PayloadType() PayloadType
	Encode() []byte
}

func putAddr(a LogicalAddress) []byte { return []byte{byte(a >> 8), byte(a)} }
func getAddr(b []byte) LogicalAddress { return LogicalAddress(uint16(b[0])<<8 | uint16(b[1])) }

// HeaderNegative is payload type 0x0000: the generic header NACK.
type HeaderNegative struct{ Code HeaderNegativeCode }

func (HeaderNegative) PayloadType() PayloadType { return PayloadHeaderNegative }
func (p HeaderNegative) Encode() []byte         { return []byte{byte(p.Code)} }

func decodeHeaderNegative(data []byte) (HeaderNegative, error) {
	if len(data) < 1 {
		return HeaderNegative{}, &InvalidPayloadLengthError{Actual: len(data), Expected: 1}
	}
	return HeaderNegative{Code: HeaderNegativeCode(data[0])}, nil
}

// ReqVehicleID is payload type 0x0001: a plain UDP broadcast/unicast
// vehicle identification request, no body.
type ReqVehicleID struct{}

func (ReqVehicleID) PayloadType() PayloadType { return PayloadReqVehicleID }
func (ReqVehicleID) Encode() []byte           { return nil }

// ReqVehicleIDWithEID is payload type 0x0002: targets one entity by its
// 6-byte EID.
type ReqVehicleIDWithEID struct{ EID [6]byte }

func (ReqVehicleIDWithEID) PayloadType() PayloadType { return PayloadReqVehicleIDWithEID }
func (p ReqVehicleIDWithEID) Encode() []byte         { return p.EID[:] }

func decodeReqVehicleIDWithEID(data []byte) (ReqVehicleIDWithEID, error) {
	if len(data) < 6 {
		return ReqVehicleIDWithEID{}, &InvalidPayloadLengthError{Actual: len(data), Expected: 6}
	}
	var p ReqVehicleIDWithEID
	copy(p.EID[:], data)
	return p, nil
}

// ReqVehicleIDWithVIN is payload type 0x0003: targets one entity by its
// 17-byte VIN.
type ReqVehicleIDWithVIN struct{ VIN [17]byte }

func (ReqVehicleIDWithVIN) PayloadType() PayloadType { return PayloadReqVehicleIDWithVIN }
func (p ReqVehicleIDWithVIN) Encode() []byte         { return p.VIN[:] }

func decodeReqVehicleIDWithVIN(data []byte) (ReqVehicleIDWithVIN, error) {
	if len(data) < 17 {
		return ReqVehicleIDWithVIN{}, &InvalidPayloadLengthError{Actual: len(data), Expected: 17}
	}
	var p ReqVehicleIDWithVIN
	copy(p.VIN[:], data)
	return p, nil
}

// RespVehicleID is payload type 0x0004: the entity's vehicle
// identification announcement. SyncStatus is the optional trailing byte
// (Table 10): it is encoded when non-nil and populated on decode whenever
// the body carries a byte after FurtherActionRequired, whatever that
// further-action code is.
type RespVehicleID struct {
	VIN                  [17]byte
	LogicalAddress       LogicalAddress
	EID                  [6]byte
	GID                  [6]byte
	FurtherActionRequired FurtherAction
	SyncStatus           *SyncStatus
}

func (RespVehicleID) PayloadType() PayloadType { return PayloadRespVehicleID }

func (p RespVehicleID) Encode() []byte {
	out := make([]byte, 0, 33)
	out = append(out, p.VIN[:]...)
	out = append(out, putAddr(p.LogicalAddress)...)
	out = append(out, p.EID[:]...)
	out = append(out, p.GID[:]...)
	out = append(out, byte(p.FurtherActionRequired))
	if p.SyncStatus != nil {
		out = append(out, byte(*p.SyncStatus))
	}
	return out
}

func decodeRespVehicleID(data []byte) (RespVehicleID, error) {
	const minLen = 17 + 2 + 6 + 6 + 1
	if len(data) < minLen {
		return RespVehicleID{}, &InvalidPayloadLengthError{Actual: len(data), Expected: minLen}
	}
	var p RespVehicleID
	copy(p.VIN[:], data[0:17])
	p.LogicalAddress = getAddr(data[17:19])
	copy(p.EID[:], data[19:25])
	copy(p.GID[:], data[25:31])
	p.FurtherActionRequired = FurtherAction(data[31])
	if len(data) > minLen {
		s := SyncStatus(data[32])
		p.SyncStatus = &s
	}
	return p, nil
}

// ReqRoutingActive is payload type 0x0005: the TCP routing activation
// request. OEM is nil for the minimal 7-byte form and non-nil only when
// the tester supplies OEM-specific routing-activation data, matching
// original_source/iso13400-2/src/request/mod.rs's Option<u32> user_def:
// the 4-byte field is only ever on the wire when present.
type ReqRoutingActive struct {
	SourceAddress  LogicalAddress
	ActivationType RoutingActiveType
	OEM            *[4]byte
}

func (ReqRoutingActive) PayloadType() PayloadType { return PayloadReqRoutingActive }

func (p ReqRoutingActive) Encode() []byte {
	out := append(putAddr(p.SourceAddress), byte(p.ActivationType))
	out = append(out, 0, 0, 0, 0) // reserved by ISO
	if p.OEM != nil {
		out = append(out, p.OEM[:]...)
	}
	return out
}

func decodeReqRoutingActive(data []byte) (ReqRoutingActive, error) {
	const minLen = 2 + 1 + 4
	if len(data) < minLen {
		return ReqRoutingActive{}, &InvalidPayloadLengthError{Actual: len(data), Expected: minLen}
	}
	p := ReqRoutingActive{SourceAddress: getAddr(data[0:2]), ActivationType: RoutingActiveType(data[2])}
	if len(data) >= minLen+4 {
		var oem [4]byte
		copy(oem[:], data[minLen:minLen+4])
		p.OEM = &oem
	}
	return p, nil
}

// RespRoutingActive is payload type 0x0006: the TCP routing activation
// response. OEM follows the same optional-trailer shape as
// ReqRoutingActive (original_source/iso13400-2/src/response/mod.rs's
// RoutingActive.user_def: Option<u32>).
type RespRoutingActive struct {
	ClientAddress LogicalAddress
	EntityAddress LogicalAddress
	Code          ActiveCode
	OEM           *[4]byte
}

func (RespRoutingActive) PayloadType() PayloadType { return PayloadRespRoutingActive }

func (p RespRoutingActive) Encode() []byte {
	out := append(putAddr(p.ClientAddress), putAddr(p.EntityAddress)...)
	out = append(out, byte(p.Code))
	out = append(out, 0, 0, 0, 0) // reserved by ISO
	if p.OEM != nil {
		out = append(out, p.OEM[:]...)
	}
	return out
}

func decodeRespRoutingActive(data []byte) (RespRoutingActive, error) {
	const minLen = 2 + 2 + 1 + 4
	if len(data) < minLen {
		return RespRoutingActive{}, &InvalidPayloadLengthError{Actual: len(data), Expected: minLen}
	}
	p := RespRoutingActive{
		ClientAddress: getAddr(data[0:2]),
		EntityAddress: getAddr(data[2:4]),
		Code:          ActiveCode(data[4]),
	}
	if len(data) >= minLen+4 {
		var oem [4]byte
		copy(oem[:], data[minLen:minLen+4])
		p.OEM = &oem
	}
	return p, nil
}

// ReqAliveCheck/RespAliveCheck are payload types 0x0007/0x0008.
type ReqAliveCheck struct{}

func (ReqAliveCheck) PayloadType() PayloadType { return PayloadReqAliveCheck }
func (ReqAliveCheck) Encode() []byte           { return nil }

type RespAliveCheck struct{ SourceAddress LogicalAddress }

func (RespAliveCheck) PayloadType() PayloadType { return PayloadRespAliveCheck }
func (p RespAliveCheck) Encode() []byte         { return putAddr(p.SourceAddress) }

func decodeRespAliveCheck(data []byte) (RespAliveCheck, error) {
	if len(data) < 2 {
		return RespAliveCheck{}, &InvalidPayloadLengthError{Actual: len(data), Expected: 2}
	}
	return RespAliveCheck{SourceAddress: getAddr(data[0:2])}, nil
}

// ReqEntityStatus/RespEntityStatus are payload types 0x4001/0x4002.
type ReqEntityStatus struct{}

func (ReqEntityStatus) PayloadType() PayloadType { return PayloadReqEntityStatus }
func (ReqEntityStatus) Encode() []byte           { return nil }

type RespEntityStatus struct {
	Node                  NodeType
	MaxConcurrentSockets  byte
	CurrentOpenSockets    byte
	MaxDataSize           *uint32
}

func (RespEntityStatus) PayloadType() PayloadType { return PayloadRespEntityStatus }

func (p RespEntityStatus) Encode() []byte {
	out := []byte{byte(p.Node), p.MaxConcurrentSockets, p.CurrentOpenSockets}
	if p.MaxDataSize != nil {
		v := *p.MaxDataSize
		out = append(out, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	return out
}

func decodeRespEntityStatus(data []byte) (RespEntityStatus, error) {
	if len(data) < 3 {
		return RespEntityStatus{}, &InvalidPayloadLengthError{Actual: len(data), Expected: 3}
	}
	p := RespEntityStatus{Node: NodeType(data[0]), MaxConcurrentSockets: data[1], CurrentOpenSockets: data[2]}
	if len(data) >= 7 {
		v := uint32(data[3])<<24 | uint32(data[4])<<16 | uint32(data[5])<<8 | uint32(data[6])
		p.MaxDataSize = &v
	}
	return p, nil
}

// ReqDiagPowerMode/RespDiagPowerMode are payload types 0x4003/0x4004.
type ReqDiagPowerMode struct{}

func (ReqDiagPowerMode) PayloadType() PayloadType { return PayloadReqDiagPowerMode }
func (ReqDiagPowerMode) Encode() []byte           { return nil }

type RespDiagPowerMode struct{ Mode PowerMode }

func (RespDiagPowerMode) PayloadType() PayloadType { return PayloadRespDiagPowerMode }
func (p RespDiagPowerMode) Encode() []byte         { return []byte{byte(p.Mode)} }

func decodeRespDiagPowerMode(data []byte) (RespDiagPowerMode, error) {
	if len(data) < 1 {
		return RespDiagPowerMode{}, &InvalidPayloadLengthError{Actual: len(data), Expected: 1}
	}
	return RespDiagPowerMode{Mode: PowerMode(data[0])}, nil
}

// Diagnostic is payload type 0x8001: a tunnelled UDS request/response.
type Diagnostic struct {
	DstAddr LogicalAddress
	SrcAddr LogicalAddress
	Data    []byte
}

func (Diagnostic) PayloadType() PayloadType { return PayloadDiagnostic }

func (p Diagnostic) Encode() []byte {
	out := append(putAddr(p.DstAddr), putAddr(p.SrcAddr)...)
	return append(out, p.Data...)
}

func decodeDiagnostic(data []byte) (Diagnostic, error) {
	if len(data) < 4 {
		return Diagnostic{}, &InvalidPayloadLengthError{Actual: len(data), Expected: 4}
	}
	return Diagnostic{DstAddr: getAddr(data[0:2]), SrcAddr: getAddr(data[2:4]), Data: data[4:]}, nil
}

// DiagnosticPositive is payload type 0x8002: ACK that a tunnelled
// diagnostic message was accepted for routing.
type DiagnosticPositive struct {
	DstAddr      LogicalAddress
	SrcAddr      LogicalAddress
	Code         DiagnosticPositiveCode
	PreviousData []byte
}

func (DiagnosticPositive) PayloadType() PayloadType { return PayloadRespDiagPositiveAck }

func (p DiagnosticPositive) Encode() []byte {
	out := append(putAddr(p.DstAddr), putAddr(p.SrcAddr)...)
	out = append(out, byte(p.Code))
	return append(out, p.PreviousData...)
}

func decodeDiagnosticPositive(data []byte) (DiagnosticPositive, error) {
	if len(data) < 5 {
		return DiagnosticPositive{}, &InvalidPayloadLengthError{Actual: len(data), Expected: 5}
	}
	return DiagnosticPositive{
		DstAddr: getAddr(data[0:2]), SrcAddr: getAddr(data[2:4]),
		Code: DiagnosticPositiveCode(data[4]), PreviousData: data[5:],
	}, nil
}

// DiagnosticNegative is payload type 0x8003: NACK that a tunnelled
// diagnostic message was rejected.
type DiagnosticNegative struct {
	DstAddr      LogicalAddress
	SrcAddr      LogicalAddress
	Code         DiagnosticNegativeCode
	PreviousData []byte
}

func (DiagnosticNegative) PayloadType() PayloadType { return PayloadRespDiagNegativeAck }

func (p DiagnosticNegative) Encode() []byte {
	out := append(putAddr(p.DstAddr), putAddr(p.SrcAddr)...)
	out = append(out, byte(p.Code))
	return append(out, p.PreviousData...)
}

func decodeDiagnosticNegative(data []byte) (DiagnosticNegative, error) {
	if len(data) < 5 {
		return DiagnosticNegative{}, &InvalidPayloadLengthError{Actual: len(data), Expected: 5}
	}
	return DiagnosticNegative{
		DstAddr: getAddr(data[0:2]), SrcAddr: getAddr(data[2:4]),
		Code: DiagnosticNegativeCode(data[4]), PreviousData: data[5:],
	}, nil
}

// DecodePayload dispatches on t to parse body into the matching Payload
// implementation.
func DecodePayload(t PayloadType, body []byte) (Payload, error) {
	switch t {
	case PayloadHeaderNegative:
		return decodeHeaderNegative(body)
	case PayloadReqVehicleID:
		return ReqVehicleID{}, nil
	case PayloadReqVehicleIDWithEID:
		return decodeReqVehicleIDWithEID(body)
	case PayloadReqVehicleIDWithVIN:
		return decodeReqVehicleIDWithVIN(body)
	case PayloadRespVehicleID:
		return decodeRespVehicleID(body)
	case PayloadReqRoutingActive:
		return decodeReqRoutingActive(body)
	case PayloadRespRoutingActive:
		return decodeRespRoutingActive(body)
	case PayloadReqAliveCheck:
		return ReqAliveCheck{}, nil
	case PayloadRespAliveCheck:
		return decodeRespAliveCheck(body)
	case PayloadReqEntityStatus:
		return ReqEntityStatus{}, nil
	case PayloadRespEntityStatus:
		return decodeRespEntityStatus(body)
	case PayloadReqDiagPowerMode:
		return ReqDiagPowerMode{}, nil
	case PayloadRespDiagPowerMode:
		return decodeRespDiagPowerMode(body)
	case PayloadDiagnostic:
		return decodeDiagnostic(body)
	case PayloadRespDiagPositiveAck:
		return decodeDiagnosticPositive(body)
	case PayloadRespDiagNegativeAck:
		return decodeDiagnosticNegative(body)
	default:
		return nil, &InvalidPayloadTypeError{Type: t}
	}
}

// Message pairs a generic header's version with its decoded Payload.
type Message struct {
	Version Version
	Payload Payload
}

// EncodeMessage serialises a full DoIP message: header followed by the
// payload body.
func EncodeMessage(version Version, p Payload) []byte {
	body := p.Encode()
	h := EncodeHeader(Header{Version: version, Type: p.PayloadType(), PayloadSize: uint32(len(body))})
	return append(h, body...)
}

// DecodeMessage parses a full DoIP message (header + body) from data.
func DecodeMessage(data []byte) (Message, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return Message{}, err
	}
	body := data[headerSize:]
	if uint32(len(body)) != h.PayloadSize {
		return Message{}, &InvalidPayloadLengthError{Actual: len(body), Expected: int(h.PayloadSize)}
	}
	p, err := DecodePayload(h.Type, body)
	if err != nil {
		return Message{}, err
	}
	return Message{Version: h.Version, Payload: p}, nil
}
