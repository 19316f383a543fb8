package uds

// SuppressPositiveBit is bit 7 of a sub-function byte: when set, the ECU
// must not send a positive response (spec.md §3 "Request / Response").
const SuppressPositiveBit byte = 0x80

// SubFunctionValue strips the suppress-positive bit from a raw sub-function
// byte, returning the 7-bit typed value.
func SubFunctionValue(raw byte) byte { return raw &^ SuppressPositiveBit }

// SuppressPositive reports whether bit 7 of raw is set.
func SuppressPositive(raw byte) bool { return raw&SuppressPositiveBit != 0 }

// EncodeSubFunction combines a 7-bit sub-function value with the
// suppress-positive flag.
func EncodeSubFunction(value byte, suppress bool) byte {
	v := value &^ SuppressPositiveBit
	if suppress {
		v |= SuppressPositiveBit
	}
	return v
}

// SessionType is the sub-function of DiagnosticSessionControl (0x10).
type SessionType byte

const (
	SessionDefault               SessionType = 0x01
	SessionProgramming           SessionType = 0x02
	SessionExtendedDiagnostic    SessionType = 0x03
	SessionSafetySystemDiagnosis SessionType = 0x04
)

// ResetType is the sub-function of ECUReset (0x11).
type ResetType byte

const (
	ResetHard               ResetType = 0x01
	ResetKeyOffOn           ResetType = 0x02
	ResetSoft               ResetType = 0x03
	ResetEnableRapidShutoff ResetType = 0x04
	ResetDisableRapidShutoff ResetType = 0x05
)

// SecurityAccessType is the sub-function of SecurityAccess (0x27); odd
// values request a seed, the following even value submits a key.
type SecurityAccessType byte

// IsSeedRequest reports whether level is an odd (seed-request) level.
func (l SecurityAccessType) IsSeedRequest() bool { return byte(l)%2 == 1 }

// KeyLevel returns the paired "send key" level for a seed-request level.
func (l SecurityAccessType) KeyLevel() SecurityAccessType { return l + 1 }

// RoutineControlType is the sub-function of RoutineControl (0x31).
type RoutineControlType byte

const (
	RoutineStart              RoutineControlType = 0x01
	RoutineStop               RoutineControlType = 0x02
	RoutineRequestResults     RoutineControlType = 0x03
)

// CommunicationControlType is the sub-function of CommunicationControl (0x28).
type CommunicationControlType byte

const (
	CommEnableRxAndTx        CommunicationControlType = 0x00
	CommEnableRxDisableTx    CommunicationControlType = 0x01
	CommDisableRxEnableTx    CommunicationControlType = 0x02
	CommDisableRxAndTx       CommunicationControlType = 0x03
)

// DTCSettingType is the sub-function of ControlDTCSetting (0x85).
type DTCSettingType byte

const (
	DTCSettingOn  DTCSettingType = 0x01
	DTCSettingOff DTCSettingType = 0x02
)

// DynamicallyDefineDIDType is the sub-function of
// DynamicallyDefineDataIdentifier (0x2C).
type DynamicallyDefineDIDType byte

const (
	DefineByIdentifier    DynamicallyDefineDIDType = 0x01
	DefineByMemoryAddress DynamicallyDefineDIDType = 0x02
	ClearDynamicDID       DynamicallyDefineDIDType = 0x03
)

// DynamicDIDSource is one {source DID, position, size} tuple of a
// DefineByIdentifier (0x2C 0x01) request.
type DynamicDIDSource struct {
	SourceDID uint16
	Position  byte
	Size      byte
}

// PeriodicTransmissionMode is the first payload byte of
// ReadDataByPeriodicIdentifier (0x2A).
type PeriodicTransmissionMode byte

const (
	SendAtSlowRate   PeriodicTransmissionMode = 0x01
	SendAtMediumRate PeriodicTransmissionMode = 0x02
	SendAtFastRate   PeriodicTransmissionMode = 0x03
	StopSending      PeriodicTransmissionMode = 0x04
)

// LinkControlType is the sub-function of LinkControl (0x87).
type LinkControlType byte

const (
	LinkVerifyFixedBaudRate    LinkControlType = 0x01
	LinkVerifySpecificBaudRate LinkControlType = 0x02
	LinkTransitionBaudRate     LinkControlType = 0x03
)
