package pkcs15

import (
	"encoding/json"
	"fmt"

	"github.com/cardemu/actalis-go/types"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// Snapshot is a serializable view of a bound session.
type Snapshot struct {
	Emulator       string                `json:"emulator" yaml:"emulator" cbor:"emulator"`
	Label          string                `json:"label" yaml:"label" cbor:"label"`
	ManufacturerID string                `json:"manufacturer_id" yaml:"manufacturer_id" cbor:"manufacturer_id"`
	SerialNumber   string                `json:"serial_number" yaml:"serial_number" cbor:"serial_number"`
	Certificates   []CertificateSnapshot `json:"certificates" yaml:"certificates" cbor:"certificates"`
	Pins           []PinSnapshot         `json:"pins" yaml:"pins" cbor:"pins"`
	PrivateKeys    []PrivateKeySnapshot  `json:"private_keys" yaml:"private_keys" cbor:"private_keys"`
}

type CertificateSnapshot struct {
	ID        string `json:"id" yaml:"id" cbor:"id"`
	Label     string `json:"label" yaml:"label" cbor:"label"`
	Path      string `json:"path" yaml:"path" cbor:"path"`
	Authority bool   `json:"authority" yaml:"authority" cbor:"authority"`
	Size      int    `json:"size" yaml:"size" cbor:"size"`
	Subject   string `json:"subject,omitempty" yaml:"subject,omitempty" cbor:"subject,omitempty"`
}

type PinSnapshot struct {
	ID        string `json:"id" yaml:"id" cbor:"id"`
	Label     string `json:"label" yaml:"label" cbor:"label"`
	Path      string `json:"path" yaml:"path" cbor:"path"`
	Reference uint8  `json:"reference" yaml:"reference" cbor:"reference"`
	Type      string `json:"type" yaml:"type" cbor:"type"`
	MinLength int    `json:"min_length" yaml:"min_length" cbor:"min_length"`
	MaxLength int    `json:"max_length" yaml:"max_length" cbor:"max_length"`
	MaxTries  int    `json:"max_tries" yaml:"max_tries" cbor:"max_tries"`
}

type PrivateKeySnapshot struct {
	ID           string   `json:"id" yaml:"id" cbor:"id"`
	Label        string   `json:"label" yaml:"label" cbor:"label"`
	Path         string   `json:"path" yaml:"path" cbor:"path"`
	ModulusBits  int      `json:"modulus_bits" yaml:"modulus_bits" cbor:"modulus_bits"`
	KeyReference uint8    `json:"key_reference" yaml:"key_reference" cbor:"key_reference"`
	AuthID       string   `json:"auth_id" yaml:"auth_id" cbor:"auth_id"`
	Usage        []string `json:"usage" yaml:"usage" cbor:"usage"`
}

func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{
		Emulator:       s.Emulator(),
		Label:          s.Label,
		ManufacturerID: s.ManufacturerID,
		SerialNumber:   s.SerialNumber,
	}

	for _, c := range s.Certificates() {
		cs := CertificateSnapshot{
			ID:        c.ID.String(),
			Label:     c.Label,
			Path:      c.Path.String(),
			Authority: c.Authority,
			Size:      len(c.Value),
		}
		if x, err := c.X509(); err == nil {
			cs.Subject = x.Subject.String()
		}
		snap.Certificates = append(snap.Certificates, cs)
	}

	for _, p := range s.Pins() {
		snap.Pins = append(snap.Pins, PinSnapshot{
			ID:        p.ID.String(),
			Label:     p.Label,
			Path:      p.Path.String(),
			Reference: p.Reference,
			Type:      p.Type.String(),
			MinLength: p.MinLength,
			MaxLength: p.MaxLength,
			MaxTries:  p.MaxTries,
		})
	}

	for _, k := range s.PrivateKeys() {
		snap.PrivateKeys = append(snap.PrivateKeys, PrivateKeySnapshot{
			ID:           k.ID.String(),
			Label:        k.Label,
			Path:         k.Path.String(),
			ModulusBits:  k.ModulusBits,
			KeyReference: k.KeyReference,
			AuthID:       k.AuthID.String(),
			Usage:        usageNames(k.Usage),
		})
	}

	return snap
}

var usageBits = []struct {
	bit  types.KeyUsage
	name string
}{
	{types.UsageEncrypt, "encrypt"},
	{types.UsageDecrypt, "decrypt"},
	{types.UsageSign, "sign"},
	{types.UsageSignRecover, "sign_recover"},
	{types.UsageWrap, "wrap"},
	{types.UsageUnwrap, "unwrap"},
	{types.UsageVerify, "verify"},
	{types.UsageVerifyRecover, "verify_recover"},
	{types.UsageDerive, "derive"},
	{types.UsageNonRepudiation, "non_repudiation"},
}

func usageNames(u types.KeyUsage) []string {
	var names []string
	for _, b := range usageBits {
		if u&b.bit != 0 {
			names = append(names, b.name)
		}
	}

	return names
}

func (s *Snapshot) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(s, "", "  ")
	case FormatYAML:
		return yaml.Marshal(s)
	case FormatCBOR:
		return cbor.Marshal(s)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}
