package uds

import "testing"

func TestMemoryAddressAndLengthRoundTripMinimalWidth(t *testing.T) {
	cfg := NewConfiguration()
	cfg.ByteOrderAddress = BigEndian
	cfg.ByteOrderMemorySize = BigEndian

	cases := []MemoryAddressAndLength{
		{Address: 0x1234, Size: 0x10},
		{Address: 0xFFFFFFFF, Size: 0x100},
		{Address: 0x00, Size: 0x00},
	}
	for _, m := range cases {
		encoded, err := m.Encode(cfg)
		if err != nil {
			t.Fatalf("Encode(%+v): %v", m, err)
		}
		decoded, n, err := DecodeMemoryAddressAndLength(cfg, encoded)
		if err != nil {
			t.Fatalf("Decode(%+v): %v", m, err)
		}
		if n != len(encoded) {
			t.Fatalf("consumed %d bytes, want %d", n, len(encoded))
		}
		if decoded.Address != m.Address || decoded.Size != m.Size {
			t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, m)
		}
	}
}

func TestMemoryAddressAndLengthMinimalWidthChoice(t *testing.T) {
	cfg := NewConfiguration()
	m := MemoryAddressAndLength{Address: 0xFF, Size: 0xFFFF}
	encoded, err := m.Encode(cfg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	alfi := encoded[0]
	addrW := int(alfi & 0x0F)
	sizeW := int(alfi>>4) & 0x0F
	if addrW != 1 {
		t.Fatalf("address width = %d, want 1 (smallest width fitting 0xFF)", addrW)
	}
	if sizeW != 2 {
		t.Fatalf("size width = %d, want 2 (smallest width fitting 0xFFFF)", sizeW)
	}
}

func TestMemoryAddressAndLengthLittleEndian(t *testing.T) {
	cfg := NewConfiguration()
	cfg.ByteOrderAddress = LittleEndian
	m := MemoryAddressAndLength{Address: 0x1122, Size: 0x10, AddressBytes: 2, SizeBytes: 1}
	encoded, err := m.Encode(cfg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// ALFI byte, then little-endian address bytes.
	if encoded[1] != 0x22 || encoded[2] != 0x11 {
		t.Fatalf("little-endian address bytes = % X, want 22 11", encoded[1:3])
	}
}

func TestMemoryAddressAndLengthTruncatedDecode(t *testing.T) {
	cfg := NewConfiguration()
	// ALFI says 4 address bytes, 4 size bytes, but only 2 bytes follow.
	if _, _, err := DecodeMemoryAddressAndLength(cfg, []byte{0x44, 0x01, 0x02}); err == nil {
		t.Fatal("expected error decoding truncated memory address/length field")
	}
}

func TestMemoryAddressAndLengthWidthOverflow(t *testing.T) {
	cfg := NewConfiguration()
	m := MemoryAddressAndLength{Address: 1, Size: 1, AddressBytes: 16}
	if _, err := m.Encode(cfg); err == nil {
		t.Fatal("expected error for a width wider than 15 bytes")
	}
}
