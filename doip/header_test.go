package doip

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Version: Version2012, Type: PayloadReqAliveCheck, PayloadSize: 0}
	encoded := EncodeHeader(h)
	if len(encoded) != headerSize {
		t.Fatalf("header length = %d, want %d", len(encoded), headerSize)
	}
	decoded, err := DecodeHeader(encoded)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if decoded != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, h)
	}
}

func TestHeaderVersionComplementCheck(t *testing.T) {
	encoded := EncodeHeader(Header{Version: Version2012, Type: PayloadReqAliveCheck})
	encoded[1] = 0x00 // corrupt the complement byte
	if _, err := DecodeHeader(encoded); err == nil {
		t.Fatal("expected InvalidVersionError for a corrupted complement byte")
	}
}

func TestHeaderTooShort(t *testing.T) {
	if _, err := DecodeHeader([]byte{0x02, 0xFD, 0x00}); err == nil {
		t.Fatal("expected error decoding a header shorter than 8 bytes")
	}
}

// Scenario 5 (spec.md §8): routing activation request/response wire bytes.
// With no OEM-specific data set, the request must encode to the minimal
// 7-byte body form (length field 0x07), not the 11-byte OEM-tail form.
func TestRoutingActivationWireBytes(t *testing.T) {
	req := ReqRoutingActive{SourceAddress: 0x0E00, ActivationType: RoutingActiveDefault}
	msg := EncodeMessage(Version2012, req)
	want := []byte{0x02, 0xFD, 0x00, 0x05, 0x00, 0x00, 0x00, 0x07, 0x0E, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(msg, want) {
		t.Fatalf("routing activation request = % X, want % X", msg, want)
	}

	respWire := []byte{0x02, 0xFD, 0x00, 0x06, 0x00, 0x00, 0x00, 0x09, 0x0E, 0x00, 0x0E, 0x80, 0x10, 0x00, 0x00, 0x00, 0x00}
	decoded, err := DecodeMessage(respWire)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	resp, ok := decoded.Payload.(RespRoutingActive)
	if !ok {
		t.Fatalf("decoded payload type = %T", decoded.Payload)
	}
	if resp.Code != ActiveSuccess {
		t.Fatalf("Code = %s, want Success", resp.Code)
	}
	if resp.EntityAddress != 0x0E80 {
		t.Fatalf("EntityAddress = 0x%04X, want 0x0E80", uint16(resp.EntityAddress))
	}
	if !resp.Code.Success() {
		t.Fatal("ActiveSuccess.Success() must be true")
	}
}

func TestDecodeMessageLengthMismatch(t *testing.T) {
	h := EncodeHeader(Header{Version: Version2012, Type: PayloadReqAliveCheck, PayloadSize: 5})
	if _, err := DecodeMessage(h); err == nil {
		t.Fatal("expected error when declared payload length exceeds actual bytes")
	}
}

func TestDecodeMessageUnknownPayloadType(t *testing.T) {
	h := EncodeHeader(Header{Version: Version2012, Type: PayloadType(0x9999), PayloadSize: 0})
	if _, err := DecodeMessage(h); err == nil {
		t.Fatal("expected InvalidPayloadTypeError for an unrecognised payload type")
	}
}
