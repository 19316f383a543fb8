// Package ecuprofile loads a named DID table and byte-order profile from
// YAML, the way the teacher's ecus package hard-codes a per-ECU table in Go
// source (ecus/ktm-16-20.go, ecus/husqvarna_ktm_euro4.go) — except here the
// table is data checked into the repo, not compiled in, so a new ECU
// family's DID set doesn't require a code change.
package ecuprofile

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/keestucker-fork/diagkit/uds"
)

// DataIdentifier is one entry of a profile's DID table.
type DataIdentifier struct {
	DID    uint16 `yaml:"did"`
	Length int    `yaml:"length"`
}

// Profile is the on-disk shape of one ECU family's Configuration.
type Profile struct {
	Name                string           `yaml:"name"`
	Edition             string           `yaml:"edition"`
	ByteOrderAddress    string           `yaml:"byte_order_address"`
	ByteOrderMemorySize string           `yaml:"byte_order_memory_size"`
	P2OffsetMs          uint16           `yaml:"p2_offset_ms"`
	DataIdentifiers     []DataIdentifier `yaml:"data_identifiers"`
}

// Load parses YAML profile data.
func Load(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "ecuprofile: parsing profile")
	}
	return &p, nil
}

// LoadFile reads and parses a profile from path.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "ecuprofile: reading %q", path)
	}
	return Load(data)
}

func parseByteOrder(s string) (uds.ByteOrder, error) {
	switch s {
	case "", "big":
		return uds.BigEndian, nil
	case "little":
		return uds.LittleEndian, nil
	default:
		return uds.BigEndian, errors.Errorf("ecuprofile: unknown byte order %q", s)
	}
}

func parseEdition(s string) (uds.Edition, error) {
	switch s {
	case "2006":
		return uds.Edition2006, nil
	case "2013":
		return uds.Edition2013, nil
	case "", "2020":
		return uds.Edition2020, nil
	default:
		return uds.Edition2020, errors.Errorf("ecuprofile: unknown edition %q", s)
	}
}

// NewConfiguration builds a *uds.Configuration from p, registering every
// configured DID.
func (p *Profile) NewConfiguration() (*uds.Configuration, error) {
	cfg := uds.NewConfiguration()

	addr, err := parseByteOrder(p.ByteOrderAddress)
	if err != nil {
		return nil, err
	}
	size, err := parseByteOrder(p.ByteOrderMemorySize)
	if err != nil {
		return nil, err
	}
	edition, err := parseEdition(p.Edition)
	if err != nil {
		return nil, err
	}

	cfg.ByteOrderAddress = addr
	cfg.ByteOrderMemorySize = size
	cfg.Edition = edition
	cfg.P2OffsetMs = p.P2OffsetMs

	for _, did := range p.DataIdentifiers {
		cfg.AddDataIdentifier(did.DID, did.Length)
	}
	return cfg, nil
}
