package uds

import "fmt"

// DTCReportType is the sub-function of ReadDTCInformation (0x19). ISO
// 14229-1 defines over twenty report types; each has its own positive
// response shape. Grounded on the teacher's uds/dtcs.go DTC label table,
// generalised from a single hand-rolled map to the full report-type set.
type DTCReportType byte

const (
	ReportNumberOfDTCByStatusMask                     DTCReportType = 0x01
	ReportDTCByStatusMask                             DTCReportType = 0x02
	ReportDTCSnapshotIdentification                   DTCReportType = 0x03
	ReportDTCSnapshotRecordByDTCNumber                DTCReportType = 0x04
	ReportDTCStoredDataByRecordNumber                 DTCReportType = 0x05
	ReportDTCExtendedDataRecordByDTCNumber            DTCReportType = 0x06
	ReportNumberOfDTCBySeverityMaskRecord             DTCReportType = 0x07
	ReportDTCBySeverityMaskRecord                     DTCReportType = 0x08
	ReportSeverityInformationOfDTC                    DTCReportType = 0x09
	ReportSupportedDTC                                DTCReportType = 0x0A
	ReportFirstTestFailedDTC                          DTCReportType = 0x0B
	ReportFirstConfirmedDTC                           DTCReportType = 0x0C
	ReportMostRecentTestFailedDTC                     DTCReportType = 0x0D
	ReportMostRecentConfirmedDTC                      DTCReportType = 0x0E
	ReportMirrorMemoryDTCByStatusMask                 DTCReportType = 0x0F
	ReportMirrorMemoryDTCExtendedDataRecordByDTCNumber DTCReportType = 0x10
	ReportNumberOfMirrorMemoryDTCByStatusMask         DTCReportType = 0x11
	ReportNumberOfEmissionsOBDDTCByStatusMask         DTCReportType = 0x12
	ReportEmissionsOBDDTCByStatusMask                 DTCReportType = 0x13
	ReportDTCFaultDetectionCounter                    DTCReportType = 0x14
	ReportDTCWithPermanentStatus                      DTCReportType = 0x15
	ReportDTCExtDataRecordByRecordNumber               DTCReportType = 0x16
	ReportUserDefMemoryDTCByStatusMask                 DTCReportType = 0x17
	ReportUserDefMemoryDTCSnapshotRecordByDTCNumber    DTCReportType = 0x18
	ReportUserDefMemoryDTCExtDataRecordByDTCNumber     DTCReportType = 0x19
	ReportWWHOBDDTCByMaskRecord                        DTCReportType = 0x42
	ReportWWHOBDDTCWithPermanentStatus                 DTCReportType = 0x55
)

func (t DTCReportType) String() string { return fmt.Sprintf("DTCReportType(0x%02X)", byte(t)) }

// DTC is a single 24-bit Diagnostic Trouble Code plus its 1-byte status
// mask, the shape shared by ReportDTCByStatusMask, ReportSupportedDTC and
// friends.
type DTC struct {
	Code   uint32 // 24 bits significant
	Status byte
}

func (d DTC) String() string { return fmt.Sprintf("%06X/%02X", d.Code, d.Status) }

// EncodeReadDTCInformation builds the request payload for 0x19: the
// sub-function byte is handled by Request itself, so this only encodes the
// report-type-specific parameter bytes that follow it.
func EncodeReadDTCInformation(reportType DTCReportType, params ...byte) []byte {
	return params
}

// DecodeDTCByStatusMask parses the {statusAvailabilityMask, (DTC:3,
// status:1)*} shape used by ReportDTCByStatusMask, ReportSupportedDTC,
// ReportFirstTestFailedDTC, ReportMirrorMemoryDTCByStatusMask and others
// that report a flat DTC list.
func DecodeDTCByStatusMask(payload []byte) (statusAvailabilityMask byte, dtcs []DTC, err error) {
	if len(payload) == 0 {
		return 0, nil, &InvalidDataError{Msg: "ReadDTCInformation response missing status availability mask"}
	}
	statusAvailabilityMask = payload[0]
	rest := payload[1:]
	if len(rest)%4 != 0 {
		return 0, nil, &InvalidDataError{Msg: "DTC record list not a multiple of 4 bytes"}
	}
	for i := 0; i < len(rest); i += 4 {
		code := uint32(rest[i])<<16 | uint32(rest[i+1])<<8 | uint32(rest[i+2])
		dtcs = append(dtcs, DTC{Code: code, Status: rest[i+3]})
	}
	return statusAvailabilityMask, dtcs, nil
}

// DecodeNumberOfDTCByStatusMask parses the ReportNumberOfDTCByStatusMask /
// ReportNumberOfMirrorMemoryDTCByStatusMask / ReportNumberOfDTCBySeverityMaskRecord
// shape: {statusAvailabilityMask, formatIdentifier, count:2}.
func DecodeNumberOfDTCByStatusMask(payload []byte) (statusAvailabilityMask, formatIdentifier byte, count uint16, err error) {
	if len(payload) < 4 {
		return 0, 0, 0, &InvalidDataError{Msg: "truncated number-of-DTC response"}
	}
	return payload[0], payload[1], uint16(payload[2])<<8 | uint16(payload[3]), nil
}

// DTCSnapshotIdentificationRecord is one (DTC, snapshot record number) pair
// of ReportDTCSnapshotIdentification (0x03): the list of snapshots an ECU
// holds, without the snapshot data itself.
type DTCSnapshotIdentificationRecord struct {
	DTC    uint32 // 24 bits significant
	Number byte
}

// DecodeDTCSnapshotIdentification parses the {(DTC:3, recordNumber:1)*}
// shape of ReportDTCSnapshotIdentification: unlike the flat DTC list
// decoders above, there is no leading status availability mask.
func DecodeDTCSnapshotIdentification(payload []byte) ([]DTCSnapshotIdentificationRecord, error) {
	if len(payload)%4 != 0 {
		return nil, &InvalidDataError{Msg: "snapshot identification record list not a multiple of 4 bytes"}
	}
	var records []DTCSnapshotIdentificationRecord
	for i := 0; i < len(payload); i += 4 {
		code := uint32(payload[i])<<16 | uint32(payload[i+1])<<8 | uint32(payload[i+2])
		records = append(records, DTCSnapshotIdentificationRecord{DTC: code, Number: payload[i+3]})
	}
	return records, nil
}

// DTCSnapshotDataRecord is one (DID, value) pair captured in a snapshot,
// the same DID/length-table lookup ReadDataByIdentifier uses.
type DTCSnapshotDataRecord struct {
	DID   uint16
	Value []byte
}

// DTCSnapshotRecordByDTCNumber is one snapshot-record-number group of
// ReportDTCSnapshotRecordByDTCNumber (0x04): the snapshot-trigger record
// number, the DID count the ECU reports, and the decoded DID/value pairs.
type DTCSnapshotRecordByDTCNumber struct {
	RecordNumber        byte
	NumberOfIdentifiers byte
	Records             []DTCSnapshotDataRecord
}

// DecodeDTCSnapshotRecordByDTCNumber parses ReportDTCSnapshotRecordByDTCNumber
// (0x04): a single leading {DTC:3, status:1} record identifying which DTC's
// snapshots these are, followed by one or more {recordNumber:1,
// numberOfIdentifiers:1, (DID:2, value:N)*} groups. Each group's DID count is
// read from recordNumber, matching the original decoder's loop bound; cfg's
// DID length table (the same one ReadDataByIdentifier uses) resolves each
// value's width.
func DecodeDTCSnapshotRecordByDTCNumber(cfg *Configuration, payload []byte) (DTC, []DTCSnapshotRecordByDTCNumber, error) {
	if len(payload) < 4 {
		return DTC{}, nil, &InvalidDataError{Msg: "truncated DTC snapshot record response"}
	}
	code := uint32(payload[0])<<16 | uint32(payload[1])<<8 | uint32(payload[2])
	dtc := DTC{Code: code, Status: payload[3]}
	offset := 4
	var groups []DTCSnapshotRecordByDTCNumber
	for offset < len(payload) {
		if offset+2 > len(payload) {
			return DTC{}, nil, &InvalidDataError{Msg: "truncated snapshot record group header"}
		}
		recordNumber := payload[offset]
		numberOfIdentifiers := payload[offset+1]
		offset += 2
		var records []DTCSnapshotDataRecord
		for len(records) < int(recordNumber) {
			if offset+2 > len(payload) {
				return DTC{}, nil, &InvalidDataError{Msg: "truncated snapshot record identifier"}
			}
			did := uint16(payload[offset])<<8 | uint16(payload[offset+1])
			offset += 2
			length, ok := cfg.DataIdentifierLength(did)
			if !ok {
				return DTC{}, nil, &DidNotSupportedError{DID: did}
			}
			if offset+length > len(payload) {
				return DTC{}, nil, &InvalidDataError{Msg: "truncated snapshot record value"}
			}
			records = append(records, DTCSnapshotDataRecord{DID: did, Value: payload[offset : offset+length]})
			offset += length
		}
		groups = append(groups, DTCSnapshotRecordByDTCNumber{
			RecordNumber:        recordNumber,
			NumberOfIdentifiers: numberOfIdentifiers,
			Records:             records,
		})
	}
	return dtc, groups, nil
}

// DTCExtDataRecord is one {recordNumber, data} pair of
// ReportDTCExtendedDataRecordByDTCNumber (0x06) and its mirror-memory
// counterpart (0x10): manufacturer-defined extended data whose length is
// self-describing (there is no DID/length table to consult), unlike a
// snapshot record.
type DTCExtDataRecord struct {
	RecordNumber byte
	Data         []byte
}

// DecodeDTCExtDataRecordByDTCNumber parses the {DTC:3, status:1,
// (recordNumber:1, data:N)*} shape shared by ReportDTCExtendedDataRecordByDTCNumber
// (0x06) and ReportMirrorMemoryDTCExtendedDataRecordByDTCNumber (0x10): each
// extended-data record is prefixed by its own length, so unlike a snapshot
// record no DID table lookup is needed to find the next record's boundary.
func DecodeDTCExtDataRecordByDTCNumber(payload []byte) (DTC, []DTCExtDataRecord, error) {
	if len(payload) < 4 {
		return DTC{}, nil, &InvalidDataError{Msg: "truncated DTC extended data record response"}
	}
	code := uint32(payload[0])<<16 | uint32(payload[1])<<8 | uint32(payload[2])
	dtc := DTC{Code: code, Status: payload[3]}
	offset := 4
	var records []DTCExtDataRecord
	for offset < len(payload) {
		recordNumber := payload[offset]
		offset++
		if offset+int(recordNumber) > len(payload) {
			return DTC{}, nil, &InvalidDataError{Msg: "truncated DTC extended data record value"}
		}
		records = append(records, DTCExtDataRecord{
			RecordNumber: recordNumber,
			Data:         payload[offset : offset+int(recordNumber)],
		})
		offset += int(recordNumber)
	}
	return dtc, records, nil
}

// DTCStoredDataRecord is one (DID, value) pair captured in a stored-data
// record, the ReportDTCStoredDataByRecordNumber (0x05) analogue of
// DTCSnapshotDataRecord. The original decoder this is grounded on never
// implemented 0x05 (its match arm is an unconditional "not yet support"
// error); this decoder is derived from the response struct's field shapes
// and from its 0x04 sibling, which follows the identical
// {recordNumber, numberOfIdentifiers, (DID:2, value:N)*} per-group pattern,
// only without 0x04's leading {DTC, status} record (0x05 groups are keyed
// by stored-data record number, not by a single DTC).
type DTCStoredDataRecord struct {
	DID   uint16
	Value []byte
}

// DTCStoredDataByRecordNumber is one record-number group of
// ReportDTCStoredDataByRecordNumber (0x05).
type DTCStoredDataByRecordNumber struct {
	RecordNumber        byte
	NumberOfIdentifiers byte
	Records             []DTCStoredDataRecord
}

// DecodeDTCStoredDataByRecordNumber parses ReportDTCStoredDataByRecordNumber
// (0x05): one or more {recordNumber:1, numberOfIdentifiers:1, (DID:2,
// value:N)*} groups, using cfg's DID length table exactly as
// DecodeDTCSnapshotRecordByDTCNumber does for its inner groups.
func DecodeDTCStoredDataByRecordNumber(cfg *Configuration, payload []byte) ([]DTCStoredDataByRecordNumber, error) {
	offset := 0
	var groups []DTCStoredDataByRecordNumber
	for offset < len(payload) {
		if offset+2 > len(payload) {
			return nil, &InvalidDataError{Msg: "truncated stored data record group header"}
		}
		recordNumber := payload[offset]
		numberOfIdentifiers := payload[offset+1]
		offset += 2
		var records []DTCStoredDataRecord
		for len(records) < int(recordNumber) {
			if offset+2 > len(payload) {
				return nil, &InvalidDataError{Msg: "truncated stored data record identifier"}
			}
			did := uint16(payload[offset])<<8 | uint16(payload[offset+1])
			offset += 2
			length, ok := cfg.DataIdentifierLength(did)
			if !ok {
				return nil, &DidNotSupportedError{DID: did}
			}
			if offset+length > len(payload) {
				return nil, &InvalidDataError{Msg: "truncated stored data record value"}
			}
			records = append(records, DTCStoredDataRecord{DID: did, Value: payload[offset : offset+length]})
			offset += length
		}
		groups = append(groups, DTCStoredDataByRecordNumber{
			RecordNumber:        recordNumber,
			NumberOfIdentifiers: numberOfIdentifiers,
			Records:             records,
		})
	}
	return groups, nil
}

// DTCFaultDetectionCounter is one {DTC, counter} pair of
// ReportDTCFaultDetectionCounter (0x14): a 4-byte record with no leading
// status availability mask, unlike DecodeDTCByStatusMask's shape. Decoding
// 0x14 with DecodeDTCByStatusMask would take the first DTC's high byte as a
// mask and then reject the remaining 4n-1 bytes as not a multiple of 4.
type DTCFaultDetectionCounter struct {
	DTC     uint32 // 24 bits significant
	Counter byte
}

// DecodeDTCFaultDetectionCounter parses the {(DTC:3, counter:1)*} shape of
// ReportDTCFaultDetectionCounter: a flat list of records with no leading
// mask byte, the detail that distinguishes it from DecodeDTCByStatusMask.
func DecodeDTCFaultDetectionCounter(payload []byte) ([]DTCFaultDetectionCounter, error) {
	if len(payload)%4 != 0 {
		return nil, &InvalidDataError{Msg: "fault detection counter record list not a multiple of 4 bytes"}
	}
	var records []DTCFaultDetectionCounter
	for i := 0; i < len(payload); i += 4 {
		code := uint32(payload[i])<<16 | uint32(payload[i+1])<<8 | uint32(payload[i+2])
		records = append(records, DTCFaultDetectionCounter{DTC: code, Counter: payload[i+3]})
	}
	return records, nil
}

// SeverityDTC is one record of ReportDTCBySeverityMaskRecord /
// ReportSeverityInformationOfDTC: a DTC plus its severity and functional
// unit bytes.
type SeverityDTC struct {
	Severity       byte
	FunctionalUnit byte
	DTC            DTC
}

// DecodeSeverityDTC parses the {statusAvailabilityMask, (severity:1,
// functionalUnit:1, DTC:3, status:1)*} shape.
func DecodeSeverityDTC(payload []byte) (statusAvailabilityMask byte, records []SeverityDTC, err error) {
	if len(payload) == 0 {
		return 0, nil, &InvalidDataError{Msg: "ReadDTCInformation response missing status availability mask"}
	}
	statusAvailabilityMask = payload[0]
	rest := payload[1:]
	if len(rest)%6 != 0 {
		return 0, nil, &InvalidDataError{Msg: "severity DTC record list not a multiple of 6 bytes"}
	}
	for i := 0; i < len(rest); i += 6 {
		code := uint32(rest[i+2])<<16 | uint32(rest[i+3])<<8 | uint32(rest[i+4])
		records = append(records, SeverityDTC{
			Severity:       rest[i],
			FunctionalUnit: rest[i+1],
			DTC:            DTC{Code: code, Status: rest[i+5]},
		})
	}
	return statusAvailabilityMask, records, nil
}
