package card

import (
	"github.com/cardemu/actalis-go/types"
)

// Signer is the part of a card that performs signatures. The card itself is
// the native Signer; emulators may substitute a different one per session.
type Signer interface {
	SetSecurityEnv(env types.SecurityEnv, seNum int) error
	ComputeSignature(in, out []byte) (int, error)
}

// Card is the access port to a connected smart card.
type Card interface {
	Signer

	// Name is the card operating system name, e.g. "CardOS M4".
	Name() string
	SelectFile(path types.Path) (*types.File, error)
	// ReadBinary reads count bytes at offset from the selected file.
	ReadBinary(offset, count int) ([]byte, error)
	RestoreSecurityEnv(seNum int) error
	Decipher(in, out []byte) (int, error)
	VerifyPIN(reference uint8, pin []byte) error
}
