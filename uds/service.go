package uds

import "fmt"

// Service is the UDS service identifier byte. Per spec.md §9 "Enum with
// reserved", decoding a service byte never fails: unknown codes are kept
// as their raw Service value (String renders them as "Service(0xNN)") so
// future ISO 14229-1 editions can still be carried without a parse error.
type Service byte

const (
	ServiceDiagnosticSessionControl    Service = 0x10
	ServiceECUReset                    Service = 0x11
	ServiceClearDiagnosticInformation  Service = 0x14
	ServiceReadDTCInformation          Service = 0x19
	ServiceReadDataByIdentifier        Service = 0x22
	ServiceReadMemoryByAddress         Service = 0x23
	ServiceReadScalingDataByIdentifier Service = 0x24
	ServiceSecurityAccess              Service = 0x27
	ServiceCommunicationControl        Service = 0x28
	ServiceAuthentication              Service = 0x29 // 2020 only
	ServiceReadDataByPeriodicID        Service = 0x2A
	ServiceDynamicallyDefineDID        Service = 0x2C
	ServiceWriteDataByIdentifier       Service = 0x2E
	ServiceInputOutputControlByID      Service = 0x2F
	ServiceRoutineControl              Service = 0x31
	ServiceRequestDownload             Service = 0x34
	ServiceRequestUpload               Service = 0x35
	ServiceTransferData                Service = 0x36
	ServiceRequestTransferExit         Service = 0x37
	ServiceRequestFileTransfer         Service = 0x38 // 2020 only
	ServiceWriteMemoryByAddress        Service = 0x3D
	ServiceTesterPresent               Service = 0x3E
	ServiceAccessTimingParameter       Service = 0x83 // 2006/2013 only
	ServiceSecuredDataTransmission     Service = 0x84
	ServiceControlDTCSetting           Service = 0x85
	ServiceResponseOnEvent             Service = 0x86 // explicitly unimplemented
	ServiceLinkControl                 Service = 0x87

	// NegativeResponseServiceID (0x7F) prefixes a negative response; the
	// following byte repeats the originally targeted service.
	NegativeResponseServiceID Service = 0x7F

	// positiveResponseOffset is ORed into a request service ID to produce
	// its canonical positive response ID.
	positiveResponseOffset Service = 0x40
)

var serviceNames = map[Service]string{
	ServiceDiagnosticSessionControl:    "DiagnosticSessionControl",
	ServiceECUReset:                    "ECUReset",
	ServiceClearDiagnosticInformation:  "ClearDiagnosticInformation",
	ServiceReadDTCInformation:          "ReadDTCInformation",
	ServiceReadDataByIdentifier:        "ReadDataByIdentifier",
	ServiceReadMemoryByAddress:         "ReadMemoryByAddress",
	ServiceReadScalingDataByIdentifier: "ReadScalingDataByIdentifier",
	ServiceSecurityAccess:              "SecurityAccess",
	ServiceCommunicationControl:        "CommunicationControl",
	ServiceAuthentication:              "Authentication",
	ServiceReadDataByPeriodicID:        "ReadDataByPeriodicIdentifier",
	ServiceDynamicallyDefineDID:        "DynamicallyDefineDataIdentifier",
	ServiceWriteDataByIdentifier:       "WriteDataByIdentifier",
	ServiceInputOutputControlByID:      "InputOutputControlByIdentifier",
	ServiceRoutineControl:              "RoutineControl",
	ServiceRequestDownload:             "RequestDownload",
	ServiceRequestUpload:               "RequestUpload",
	ServiceTransferData:                "TransferData",
	ServiceRequestTransferExit:         "RequestTransferExit",
	ServiceRequestFileTransfer:         "RequestFileTransfer",
	ServiceWriteMemoryByAddress:        "WriteMemoryByAddress",
	ServiceTesterPresent:               "TesterPresent",
	ServiceAccessTimingParameter:       "AccessTimingParameter",
	ServiceSecuredDataTransmission:     "SecuredDataTransmission",
	ServiceControlDTCSetting:           "ControlDTCSetting",
	ServiceResponseOnEvent:             "ResponseOnEvent",
	ServiceLinkControl:                 "LinkControl",
}

func (s Service) String() string {
	if name, ok := serviceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Service(0x%02X)", byte(s))
}

// PositiveResponseID is the canonical positive response service ID:
// request ID | 0x40.
func (s Service) PositiveResponseID() Service { return s | positiveResponseOffset }

// RequestIDFromPositive strips the positive-response offset.
func RequestIDFromPositive(s Service) Service { return s &^ positiveResponseOffset }

// servicesWithSubFunction carry exactly one sub-function byte after the
// service byte (spec.md §4.3).
var servicesWithSubFunction = map[Service]bool{
	ServiceDiagnosticSessionControl: true,
	ServiceECUReset:                 true,
	ServiceReadDTCInformation:       true,
	ServiceSecurityAccess:           true,
	ServiceCommunicationControl:     true,
	ServiceAuthentication:           true,
	ServiceDynamicallyDefineDID:     true,
	ServiceRoutineControl:           true,
	ServiceTesterPresent:            true,
	ServiceAccessTimingParameter:    true,
	ServiceControlDTCSetting:        true,
	ServiceLinkControl:              true,
}

// HasSubFunction reports whether s carries a sub-function byte (and
// therefore a meaningful suppress-positive bit).
func HasSubFunction(s Service) bool { return servicesWithSubFunction[s] }
