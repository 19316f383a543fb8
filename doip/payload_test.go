package doip

import (
	"bytes"
	"testing"
)

func TestRespVehicleIDRoundTripWithoutSync(t *testing.T) {
	p := RespVehicleID{
		LogicalAddress:        0x0E00,
		FurtherActionRequired: FurtherActionNone,
	}
	copy(p.VIN[:], "1HGCM82633A004352")
	copy(p.EID[:], []byte{1, 2, 3, 4, 5, 6})
	copy(p.GID[:], []byte{7, 8, 9, 10, 11, 12})

	encoded := p.Encode()
	decoded, err := decodeRespVehicleID(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.LogicalAddress != p.LogicalAddress || decoded.VIN != p.VIN {
		t.Fatalf("round trip mismatch: got %+v", decoded)
	}
	if decoded.SyncStatus != nil {
		t.Fatal("SyncStatus should be absent when not encoded")
	}
}

func TestRespVehicleIDRoundTripWithSync(t *testing.T) {
	sync := SyncStatusSynced
	p := RespVehicleID{FurtherActionRequired: FurtherActionCentralSecurity, SyncStatus: &sync}
	decoded, err := decodeRespVehicleID(p.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.SyncStatus == nil || *decoded.SyncStatus != SyncStatusSynced {
		t.Fatalf("SyncStatus = %v, want Synced", decoded.SyncStatus)
	}
}

func TestDiagnosticRoundTrip(t *testing.T) {
	p := Diagnostic{DstAddr: 0x0E80, SrcAddr: 0x0E00, Data: []byte{0x22, 0xF1, 0x90}}
	decoded, err := decodeDiagnostic(p.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.DstAddr != p.DstAddr || decoded.SrcAddr != p.SrcAddr || !bytes.Equal(decoded.Data, p.Data) {
		t.Fatalf("round trip mismatch: got %+v", decoded)
	}
}

func TestDiagnosticNegativeRoundTrip(t *testing.T) {
	p := DiagnosticNegative{DstAddr: 0x0E80, SrcAddr: 0x0E00, Code: DiagnosticUnknownTargetAddress, PreviousData: []byte{0x22, 0xF1, 0x90}}
	decoded, err := decodeDiagnosticNegative(p.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Code != p.Code || !bytes.Equal(decoded.PreviousData, p.PreviousData) {
		t.Fatalf("round trip mismatch: got %+v", decoded)
	}
}

func TestEntityStatusRoundTripWithMaxDataSize(t *testing.T) {
	size := uint32(4096)
	p := RespEntityStatus{Node: NodeGateway, MaxConcurrentSockets: 2, CurrentOpenSockets: 1, MaxDataSize: &size}
	decoded, err := decodeRespEntityStatus(p.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.MaxDataSize == nil || *decoded.MaxDataSize != size {
		t.Fatalf("MaxDataSize = %v, want %d", decoded.MaxDataSize, size)
	}
}

func TestDecodePayloadUnknownType(t *testing.T) {
	if _, err := DecodePayload(PayloadType(0xABCD), nil); err == nil {
		t.Fatal("expected InvalidPayloadTypeError")
	}
}

func TestDecodeHeaderNegativeTooShort(t *testing.T) {
	if _, err := decodeHeaderNegative(nil); err == nil {
		t.Fatal("expected error decoding an empty HeaderNegative body")
	}
}
