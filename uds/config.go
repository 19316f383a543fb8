// Package uds implements the UDS (ISO 14229-1) request/response codec and
// the per-channel client orchestration on top of it (session control,
// response-pending handling, security access, transfer sequencing).
package uds

import "sync"

// ByteOrder selects how a multi-byte memory address or memory size field
// is laid out on the wire. Per-channel and independently configurable for
// addresses vs sizes (spec.md §3 "Configuration (UDS)").
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

// Edition gates which services a build may construct requests for.
// 0x29 (Authentication) and 0x38 (RequestFileTransfer) are 2020-only;
// 0x83 (AccessTimingParameter) is 2006/2013-only (spec.md §9 "Feature
// gating").
type Edition int

const (
	Edition2006 Edition = iota
	Edition2013
	Edition2020
)

func (e Edition) supports(s Service) bool {
	switch s {
	case ServiceAuthentication, ServiceRequestFileTransfer:
		return e == Edition2020
	case ServiceAccessTimingParameter:
		return e == Edition2006 || e == Edition2013
	default:
		return true
	}
}

// SecurityAlgorithm computes a key from a seed for a given security level.
// A nil return means the exchange needs no key (spec.md §4.5).
type SecurityAlgorithm func(level byte, seed []byte, salt []byte) ([]byte, error)

// Configuration is the per-channel record the codec and client consult to
// know the DID table, the byte order of memory fields, and the optional
// security callback. It is intentionally mutable at runtime: DIDs are
// added/removed as ECU profiles are loaded (internal/ecuprofile).
type Configuration struct {
	mu sync.RWMutex

	// didLength maps a DID to its fixed response payload length in bytes,
	// needed to know where each DID's value ends when several DIDs are
	// read in one ReadDataByIdentifier response.
	didLength map[uint16]int

	ByteOrderAddress    ByteOrder
	ByteOrderMemorySize ByteOrder

	// P2OffsetMs is added to any ECU-reported P2 value.
	P2OffsetMs uint16

	Edition Edition

	SecurityAlgorithm SecurityAlgorithm
}

// NewConfiguration returns a Configuration with an empty DID table and
// big-endian memory fields, matching the ISO 14229-1 default.
func NewConfiguration() *Configuration {
	return &Configuration{
		didLength: make(map[uint16]int),
		Edition:   Edition2020,
	}
}

// AddDataIdentifier registers the fixed response length (in bytes) of did.
func (c *Configuration) AddDataIdentifier(did uint16, length int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.didLength[did] = length
}

// RemoveDataIdentifier forgets did.
func (c *Configuration) RemoveDataIdentifier(did uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.didLength, did)
}

// DataIdentifierLength returns the configured length for did, if any.
func (c *Configuration) DataIdentifierLength(did uint16) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.didLength[did]
	return n, ok
}
