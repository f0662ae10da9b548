package types

import (
	"bytes"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strings"
)

// ID is a PKCS#15 object identifier.
type ID []byte

func (id ID) String() string {
	return strings.ToUpper(hex.EncodeToString(id))
}

func (id ID) Equal(o ID) bool {
	return bytes.Equal(id, o)
}

type CardIdentity struct {
	Label          string
	ManufacturerID string
	SerialNumber   string
}

// File is the result of selecting a file on the card.
type File struct {
	Path Path
	ID   uint16
	Size int
}

type ObjectFlags uint

const (
	FlagPrivate ObjectFlags = 1 << iota
	FlagModifiable
)

type Certificate struct {
	ID        ID
	Label     string
	Path      Path
	Authority bool
	Flags     ObjectFlags
	Value     []byte
}

func (c *Certificate) X509() (*x509.Certificate, error) {
	return x509.ParseCertificate(c.Value)
}

type PinType int

const (
	PinTypeBCD PinType = iota
	PinTypeASCIINumeric
	PinTypeUTF8
)

func (t PinType) String() string {
	switch t {
	case PinTypeBCD:
		return "bcd"
	case PinTypeASCIINumeric:
		return "ascii-numeric"
	case PinTypeUTF8:
		return "utf8"
	default:
		return fmt.Sprintf("PinType(%d)", int(t))
	}
}

type PinFlags uint

const (
	PinFlagCaseSensitive PinFlags = 1 << iota
	PinFlagLocal
	PinFlagChangeDisabled
	PinFlagUnblockDisabled
	PinFlagInitialized
	PinFlagNeedsPadding
)

type Pin struct {
	ID        ID
	Label     string
	Path      Path
	Reference uint8
	Type      PinType
	MinLength int
	MaxLength int
	PinFlags  PinFlags
	MaxTries  int
	Flags     ObjectFlags
}

// Pad returns the PIN as sent to the card, zero padded up to MaxLength when
// the PIN requires padding.
func (p *Pin) Pad(pin []byte) []byte {
	if p.PinFlags&PinFlagNeedsPadding == 0 || len(pin) >= p.MaxLength {
		return pin
	}

	out := make([]byte, p.MaxLength)
	copy(out, pin)

	return out
}

type KeyType int

const (
	KeyTypeRSA KeyType = iota
	KeyTypeEC
)

type KeyUsage uint

const (
	UsageEncrypt KeyUsage = 1 << iota
	UsageDecrypt
	UsageSign
	UsageSignRecover
	UsageWrap
	UsageUnwrap
	UsageVerify
	UsageVerifyRecover
	UsageDerive
	UsageNonRepudiation
)

type PrivateKey struct {
	ID           ID
	Label        string
	Type         KeyType
	ModulusBits  int
	Usage        KeyUsage
	Path         Path
	KeyReference uint8
	AuthID       ID
	Flags        ObjectFlags
}
