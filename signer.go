package actalis

import (
	"github.com/cardemu/actalis-go/card"
	"github.com/cardemu/actalis-go/pkcs15"
	"github.com/cardemu/actalis-go/types"
)

// redirectSE is the security environment restored before each redirected
// operation.
const redirectSE = 0x40

// DecipherSigner services signature requests with the card's decipher
// operation. Sign environments are rewritten to decipher environments after
// restoring security environment 0x40.
type DecipherSigner struct {
	card   card.Card
	native card.Signer
}

var _ card.Signer = (*DecipherSigner)(nil)

func NewDecipherSigner(c card.Card, native card.Signer) *DecipherSigner {
	return &DecipherSigner{card: c, native: native}
}

func (d *DecipherSigner) SetSecurityEnv(env types.SecurityEnv, seNum int) error {
	env.KeyRef = append([]byte(nil), env.KeyRef...)
	if env.Operation == types.OperationSign {
		env.Operation = types.OperationDecipher
	}

	if err := d.card.RestoreSecurityEnv(redirectSE); err != nil {
		return err
	}

	return d.native.SetSecurityEnv(env, seNum)
}

func (d *DecipherSigner) ComputeSignature(in, out []byte) (int, error) {
	return d.card.Decipher(in, out)
}

// installSigner replaces the session signer with a DecipherSigner wrapping
// the current one. A session that already has one keeps it.
func installSigner(s *pkcs15.Session) {
	if _, ok := s.Signer.(*DecipherSigner); ok {
		logger.Debug("decipher signer already installed")
		return
	}

	s.Signer = NewDecipherSigner(s.Card, s.Signer)
}
