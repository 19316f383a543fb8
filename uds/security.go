package uds

import "github.com/pkg/errors"

// SecurityLevel is the odd "request seed" sub-function value a
// SecurityAlgorithm is asked to answer for.
type SecurityLevel = SecurityAccessType

// K01Algorithm implements SecurityAlgorithm for the K01 ECU family: the
// 16-bit seed is multiplied by a level-specific magic constant and the
// low 16 bits of the product become the key. Adapted from the teacher's
// seedkey.GenerateK01Key, generalised from a fixed [2]byte seed to the
// variable-length seed a SecurityAlgorithm receives.
func K01Algorithm(level byte, seed []byte, _ []byte) ([]byte, error) {
	if len(seed) != 2 {
		return nil, errors.Errorf("uds: K01 security algorithm requires a 2-byte seed, got %d", len(seed))
	}
	var magic uint16
	switch SecurityAccessType(level) {
	case 0x03:
		magic = 0x4D4E
	case 0x05:
		magic = 0x6F31
	default:
		return nil, errors.Errorf("uds: no K01 magic constant for security level 0x%02X", level)
	}
	x := uint16(seed[0])<<8 | uint16(seed[1])
	key := magic * x
	return []byte{byte(key >> 8), byte(key)}, nil
}
