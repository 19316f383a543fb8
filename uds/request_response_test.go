package uds

import (
	"bytes"
	"testing"
)

func TestRequestEncodeNoSubFunction(t *testing.T) {
	req, err := NewRequest(ServiceReadDataByIdentifier, nil, false, []byte{0xF1, 0x90})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	want := []byte{0x22, 0xF1, 0x90}
	if got := req.Encode(); !bytes.Equal(got, want) {
		t.Fatalf("Encode() = % X, want % X", got, want)
	}
}

func TestRequestEncodeWithSubFunction(t *testing.T) {
	sf := byte(SessionProgramming)
	req, err := NewRequest(ServiceDiagnosticSessionControl, &sf, false, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	want := []byte{0x10, 0x02}
	if got := req.Encode(); !bytes.Equal(got, want) {
		t.Fatalf("Encode() = % X, want % X", got, want)
	}
}

func TestRequestSuppressPositiveBit(t *testing.T) {
	sf := byte(0x00)
	req, err := NewRequest(ServiceTesterPresent, &sf, true, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	want := []byte{0x3E, 0x80}
	if got := req.Encode(); !bytes.Equal(got, want) {
		t.Fatalf("Encode() = % X, want % X", got, want)
	}
}

func TestRequestRejectsSuppressWithoutSubFunction(t *testing.T) {
	_, err := NewRequest(ServiceReadDataByIdentifier, nil, true, nil)
	if err == nil {
		t.Fatal("expected error constructing suppress-positive request for a service with no sub-function")
	}
}

func TestRequestRejectsSubFunctionWhereNoneExists(t *testing.T) {
	sf := byte(0x01)
	_, err := NewRequest(ServiceReadDataByIdentifier, &sf, false, nil)
	if err == nil {
		t.Fatal("expected error constructing a sub-function for a service that doesn't carry one")
	}
}

func TestParsePositiveResponseNoSubFunction(t *testing.T) {
	resp, err := ParseResponse([]byte{0x62, 0xF1, 0x90, 0x01, 0x02})
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.Negative {
		t.Fatal("expected positive response")
	}
	if resp.Service != ServiceReadDataByIdentifier {
		t.Fatalf("Service = %s, want ReadDataByIdentifier", resp.Service)
	}
	if !bytes.Equal(resp.Payload, []byte{0xF1, 0x90, 0x01, 0x02}) {
		t.Fatalf("Payload = % X", resp.Payload)
	}
}

func TestParsePositiveResponseWithSubFunction(t *testing.T) {
	resp, err := ParseResponse([]byte{0x50, 0x02, 0x00, 0x32, 0x01, 0xF4})
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.Service != ServiceDiagnosticSessionControl {
		t.Fatalf("Service = %s", resp.Service)
	}
	if resp.SubFunction == nil || *resp.SubFunction != 0x02 {
		t.Fatalf("SubFunction = %v, want 0x02", resp.SubFunction)
	}
	if !bytes.Equal(resp.Payload, []byte{0x00, 0x32, 0x01, 0xF4}) {
		t.Fatalf("Payload = % X", resp.Payload)
	}
}

func TestParseNegativeResponse(t *testing.T) {
	resp, err := ParseResponse([]byte{0x7F, 0x11, 0x78})
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if !resp.Negative {
		t.Fatal("expected negative response")
	}
	if resp.Service != ServiceECUReset {
		t.Fatalf("Service = %s, want ECUReset (the originally-targeted service)", resp.Service)
	}
	if resp.NRC != NRCRequestCorrectlyReceivedResponsePending {
		t.Fatalf("NRC = %s", resp.NRC)
	}
	if !resp.NRC.IsResponsePending() {
		t.Fatal("expected IsResponsePending() true for NRC 0x78")
	}
}

func TestParseResponseTooShortNegative(t *testing.T) {
	if _, err := ParseResponse([]byte{0x7F, 0x11}); err == nil {
		t.Fatal("expected error for truncated negative response")
	}
}

func TestParseResponseEmpty(t *testing.T) {
	if _, err := ParseResponse(nil); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestCheckServiceMismatch(t *testing.T) {
	resp := &Response{Service: ServiceECUReset}
	if err := resp.CheckService(ServiceReadDataByIdentifier); err == nil {
		t.Fatal("expected UnexpectedResponseError")
	}
	if err := resp.CheckService(ServiceECUReset); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCheckSubFunctionMismatch(t *testing.T) {
	sf := byte(0x02)
	resp := &Response{Service: ServiceDiagnosticSessionControl, SubFunction: &sf}
	if err := resp.CheckSubFunction(0x03); err == nil {
		t.Fatal("expected UnexpectedSubFunctionError")
	}
	if err := resp.CheckSubFunction(0x02); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestRequestResponseServiceIDRelation(t *testing.T) {
	if ServiceDiagnosticSessionControl.PositiveResponseID() != Service(0x50) {
		t.Fatalf("PositiveResponseID = 0x%02X, want 0x50", byte(ServiceDiagnosticSessionControl.PositiveResponseID()))
	}
	if RequestIDFromPositive(Service(0x50)) != ServiceDiagnosticSessionControl {
		t.Fatalf("RequestIDFromPositive(0x50) = %s", RequestIDFromPositive(Service(0x50)))
	}
}
