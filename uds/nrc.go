package uds

import "fmt"

// NRC is a UDS Negative Response Code, the third byte of a 0x7F response.
// Grounded on the teacher's uds/nrc.go table, extended to the full
// ISO 14229-1 table spec.md requires. String() falls back to a numeric
// rendering instead of failing, matching the reserved-enum pattern used
// for Service.
type NRC byte

const (
	NRCGeneralReject                             NRC = 0x10
	NRCServiceNotSupported                       NRC = 0x11
	NRCSubFunctionNotSupported                   NRC = 0x12
	NRCIncorrectMessageLengthOrInvalidFormat     NRC = 0x13
	NRCResponseTooLong                           NRC = 0x14
	NRCBusyRepeatRequest                         NRC = 0x21
	NRCConditionsNotCorrect                      NRC = 0x22
	NRCRequestSequenceError                      NRC = 0x24
	NRCNoResponseFromSubnetComponent             NRC = 0x25
	NRCFailurePreventsExecutionOfRequestedAction NRC = 0x26
	NRCRequestOutOfRange                         NRC = 0x31
	NRCSecurityAccessDenied                      NRC = 0x33
	NRCAuthenticationRequired                    NRC = 0x34
	NRCInvalidKey                                NRC = 0x35
	NRCExceededNumberOfAttempts                  NRC = 0x36
	NRCRequiredTimeDelayNotExpired               NRC = 0x37
	NRCSecureDataTransmissionRequired            NRC = 0x38
	NRCSecureDataTransmissionNotAllowed          NRC = 0x39
	NRCSecureDataVerificationFailed              NRC = 0x3A
	NRCUploadDownloadNotAccepted                 NRC = 0x70
	NRCTransferDataSuspended                     NRC = 0x71
	NRCGeneralProgrammingFailure                 NRC = 0x72
	NRCWrongBlockSequenceCounter                 NRC = 0x73
	NRCRequestCorrectlyReceivedResponsePending   NRC = 0x78
	NRCSubFunctionNotSupportedInActiveSession    NRC = 0x7E
	NRCServiceNotSupportedInActiveSession        NRC = 0x7F
	NRCRPMTooHigh                                NRC = 0x81
	NRCRPMTooLow                                 NRC = 0x82
	NRCEngineIsRunning                           NRC = 0x83
	NRCEngineIsNotRunning                        NRC = 0x84
	NRCEngineRunTimeTooLow                       NRC = 0x85
	NRCTemperatureTooHigh                        NRC = 0x86
	NRCTemperatureTooLow                         NRC = 0x87
	NRCVehicleSpeedTooHigh                       NRC = 0x88
	NRCVehicleSpeedTooLow                        NRC = 0x89
	NRCThrottlePedalTooHigh                      NRC = 0x8A
	NRCThrottlePedalTooLow                       NRC = 0x8B
	NRCTransmissionRangeNotInNeutral             NRC = 0x8C
	NRCTransmissionRangeNotInGear                NRC = 0x8D
	NRCBrakeSwitchNotClosed                      NRC = 0x8F
	NRCShifterLeverNotInPark                     NRC = 0x90
	NRCTorqueConverterClutchLocked               NRC = 0x91
	NRCVoltageTooHigh                            NRC = 0x92
	NRCVoltageTooLow                             NRC = 0x93
)

var nrcNames = map[NRC]string{
	NRCGeneralReject:                             "GeneralReject",
	NRCServiceNotSupported:                       "ServiceNotSupported",
	NRCSubFunctionNotSupported:                   "SubFunctionNotSupported",
	NRCIncorrectMessageLengthOrInvalidFormat:     "IncorrectMessageLengthOrInvalidFormat",
	NRCResponseTooLong:                           "ResponseTooLong",
	NRCBusyRepeatRequest:                         "BusyRepeatRequest",
	NRCConditionsNotCorrect:                      "ConditionsNotCorrect",
	NRCRequestSequenceError:                      "RequestSequenceError",
	NRCNoResponseFromSubnetComponent:             "NoResponseFromSubnetComponent",
	NRCFailurePreventsExecutionOfRequestedAction: "FailurePreventsExecutionOfRequestedAction",
	NRCRequestOutOfRange:                         "RequestOutOfRange",
	NRCSecurityAccessDenied:                      "SecurityAccessDenied",
	NRCAuthenticationRequired:                    "AuthenticationRequired",
	NRCInvalidKey:                                "InvalidKey",
	NRCExceededNumberOfAttempts:                  "ExceededNumberOfAttempts",
	NRCRequiredTimeDelayNotExpired:               "RequiredTimeDelayNotExpired",
	NRCSecureDataTransmissionRequired:            "SecureDataTransmissionRequired",
	NRCSecureDataTransmissionNotAllowed:          "SecureDataTransmissionNotAllowed",
	NRCSecureDataVerificationFailed:              "SecureDataVerificationFailed",
	NRCUploadDownloadNotAccepted:                 "UploadDownloadNotAccepted",
	NRCTransferDataSuspended:                     "TransferDataSuspended",
	NRCGeneralProgrammingFailure:                 "GeneralProgrammingFailure",
	NRCWrongBlockSequenceCounter:                 "WrongBlockSequenceCounter",
	NRCRequestCorrectlyReceivedResponsePending:   "RequestCorrectlyReceivedResponsePending",
	NRCSubFunctionNotSupportedInActiveSession:    "SubFunctionNotSupportedInActiveSession",
	NRCServiceNotSupportedInActiveSession:        "ServiceNotSupportedInActiveSession",
	NRCRPMTooHigh:                                "RPMTooHigh",
	NRCRPMTooLow:                                 "RPMTooLow",
	NRCEngineIsRunning:                           "EngineIsRunning",
	NRCEngineIsNotRunning:                        "EngineIsNotRunning",
	NRCEngineRunTimeTooLow:                       "EngineRunTimeTooLow",
	NRCTemperatureTooHigh:                        "TemperatureTooHigh",
	NRCTemperatureTooLow:                         "TemperatureTooLow",
	NRCVehicleSpeedTooHigh:                       "VehicleSpeedTooHigh",
	NRCVehicleSpeedTooLow:                        "VehicleSpeedTooLow",
	NRCThrottlePedalTooHigh:                      "ThrottlePedalTooHigh",
	NRCThrottlePedalTooLow:                       "ThrottlePedalTooLow",
	NRCTransmissionRangeNotInNeutral:             "TransmissionRangeNotInNeutral",
	NRCTransmissionRangeNotInGear:                "TransmissionRangeNotInGear",
	NRCBrakeSwitchNotClosed:                      "BrakeSwitchNotClosed",
	NRCShifterLeverNotInPark:                     "ShifterLeverNotInPark",
	NRCTorqueConverterClutchLocked:               "TorqueConverterClutchLocked",
	NRCVoltageTooHigh:                            "VoltageTooHigh",
	NRCVoltageTooLow:                             "VoltageTooLow",
}

func (n NRC) String() string {
	if name, ok := nrcNames[n]; ok {
		return name
	}
	return fmt.Sprintf("NRC(0x%02X)", byte(n))
}

// IsResponsePending reports whether n is the "busy, keep waiting" NRC that
// a client must retry on rather than surface as a failure (spec.md §4.4).
func (n NRC) IsResponsePending() bool { return n == NRCRequestCorrectlyReceivedResponsePending }
