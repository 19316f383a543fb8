package canbus

import "testing"

func TestNewFrameCopiesData(t *testing.T) {
	data := []byte{1, 2, 3}
	f := NewFrame("can0", 0x7E0, false, data)
	data[0] = 0xFF
	if f.Data[0] != 1 {
		t.Fatalf("NewFrame did not copy data: got %v", f.Data)
	}
}

func TestAddressIDFor(t *testing.T) {
	a := Address{TxID: 0x7E0, RxID: 0x7E8, FID: 0x7DF}
	if got := a.IDFor(Physical); got != 0x7E0 {
		t.Fatalf("Physical IDFor = 0x%X, want 0x7E0", got)
	}
	if got := a.IDFor(Functional); got != 0x7DF {
		t.Fatalf("Functional IDFor = 0x%X, want 0x7DF", got)
	}
}

func TestAddressTypeString(t *testing.T) {
	if Physical.String() != "physical" {
		t.Fatalf("Physical.String() = %q", Physical.String())
	}
	if Functional.String() != "functional" {
		t.Fatalf("Functional.String() = %q", Functional.String())
	}
	if AddressType(99).String() == "" {
		t.Fatal("unknown AddressType must still render a string")
	}
}

func TestFrameString(t *testing.T) {
	f := NewFrame("can0", 0x123, false, []byte{0xAB, 0xCD})
	s := f.String()
	if s == "" {
		t.Fatal("Frame.String() returned empty string")
	}
}
