package uds

// MemoryAddressAndLength is the address/size pair carried by
// ReadMemoryByAddress (0x23), RequestDownload/RequestUpload (0x34/0x35),
// WriteMemoryByAddress (0x3D) and DynamicallyDefineDataIdentifier (0x2C).
// ISO 14229-1 calls the leading length-nibble byte the
// AddressAndLengthFormatIdentifier (ALFI): its low nibble is the byte
// width of Address, its high nibble the byte width of Size.
type MemoryAddressAndLength struct {
	Address uint64
	Size    uint64

	// AddressBytes/SizeBytes are the wire widths (1-15, conventionally
	// 1-8) used to build the ALFI byte. Zero means "size the field to
	// the minimum number of bytes needed".
	AddressBytes int
	SizeBytes    int
}

func minBytesFor(v uint64) int {
	n := 1
	for v >= 1<<(8*uint(n)) {
		n++
	}
	return n
}

func putUint(order ByteOrder, v uint64, width int) []byte {
	out := make([]byte, width)
	for i := 0; i < width; i++ {
		shift := uint(8 * i)
		if order == BigEndian {
			shift = uint(8 * (width - 1 - i))
		}
		out[i] = byte(v >> shift)
	}
	return out
}

func getUint(order ByteOrder, data []byte) uint64 {
	var v uint64
	for i, b := range data {
		shift := uint(8 * i)
		if order == BigEndian {
			shift = uint(8 * (len(data) - 1 - i))
		}
		v |= uint64(b) << shift
	}
	return v
}

// Encode serialises m as ALFI + address + size, using cfg's configured
// byte orders for the address and size fields respectively.
func (m MemoryAddressAndLength) Encode(cfg *Configuration) ([]byte, error) {
	addrW := m.AddressBytes
	if addrW == 0 {
		addrW = minBytesFor(m.Address)
	}
	sizeW := m.SizeBytes
	if sizeW == 0 {
		sizeW = minBytesFor(m.Size)
	}
	if addrW > 0x0F || sizeW > 0x0F {
		return nil, &InvalidParamError{Msg: "memory address/size field wider than 15 bytes"}
	}
	alfi := byte(sizeW<<4) | byte(addrW&0x0F)
	out := make([]byte, 0, 1+addrW+sizeW)
	out = append(out, alfi)
	out = append(out, putUint(cfg.ByteOrderAddress, m.Address, addrW)...)
	out = append(out, putUint(cfg.ByteOrderMemorySize, m.Size, sizeW)...)
	return out, nil
}

// DecodeMemoryAddressAndLength parses an ALFI-prefixed address/size field
// from data, returning the number of bytes consumed.
func DecodeMemoryAddressAndLength(cfg *Configuration, data []byte) (MemoryAddressAndLength, int, error) {
	if len(data) == 0 {
		return MemoryAddressAndLength{}, 0, &InvalidDataError{Msg: "missing ALFI byte"}
	}
	alfi := data[0]
	addrW := int(alfi & 0x0F)
	sizeW := int(alfi>>4) & 0x0F
	need := 1 + addrW + sizeW
	if len(data) < need {
		return MemoryAddressAndLength{}, 0, &InvalidDataError{Msg: "truncated memory address/size field"}
	}
	addr := getUint(cfg.ByteOrderAddress, data[1:1+addrW])
	size := getUint(cfg.ByteOrderMemorySize, data[1+addrW:need])
	return MemoryAddressAndLength{Address: addr, Size: size, AddressBytes: addrW, SizeBytes: sizeW}, need, nil
}
