package actalis

import (
	"crypto"
	"crypto/rsa"
	"encoding/asn1"
	"errors"
	"fmt"
	"io"

	"github.com/cardemu/actalis-go/pkcs15"
	"github.com/cardemu/actalis-go/types"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	ErrUnsupportedHash    = errors.New("actalis: unsupported hash")
	ErrUnsupportedPadding = errors.New("actalis: only PKCS#1 v1.5 signatures are supported")
	ErrDigestLength       = errors.New("actalis: digest length does not match hash")
	ErrMessageTooLong     = errors.New("actalis: digest info too long for key size")
	ErrNotRSA             = errors.New("actalis: certificate key is not RSA")
)

var hashOIDs = map[crypto.Hash]asn1.ObjectIdentifier{
	crypto.SHA1:   {1, 3, 14, 3, 2, 26},
	crypto.SHA224: {2, 16, 840, 1, 101, 3, 4, 2, 4},
	crypto.SHA256: {2, 16, 840, 1, 101, 3, 4, 2, 1},
	crypto.SHA384: {2, 16, 840, 1, 101, 3, 4, 2, 2},
	crypto.SHA512: {2, 16, 840, 1, 101, 3, 4, 2, 3},
}

// Signer is a crypto.Signer backed by the authentication key of a bound
// session. Each signature verifies the PIN before using the key.
type Signer struct {
	session *pkcs15.Session
	key     *types.PrivateKey
	pin     *types.Pin
	code    []byte
	public  *rsa.PublicKey
}

var _ crypto.Signer = (*Signer)(nil)

// NewSigner returns a Signer for the authentication key of s. The public key
// is taken from the end-user certificate.
func NewSigner(s *pkcs15.Session, pin []byte) (*Signer, error) {
	key, err := s.PrivateKey(types.ID{0x01})
	if err != nil {
		return nil, err
	}

	p, err := s.Pin(key.AuthID)
	if err != nil {
		return nil, err
	}

	cert, err := s.Certificate(key.ID)
	if err != nil {
		return nil, err
	}

	x, err := cert.X509()
	if err != nil {
		return nil, fmt.Errorf("parse certificate %s: %w", cert.ID, err)
	}

	public, ok := x.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, ErrNotRSA
	}

	return &Signer{
		session: s,
		key:     key,
		pin:     p,
		code:    append([]byte(nil), pin...),
		public:  public,
	}, nil
}

func (k *Signer) Public() crypto.PublicKey {
	return k.public
}

// Sign signs digest with PKCS#1 v1.5 padding applied on the host. A zero
// hash signs digest as is, without a DigestInfo.
func (k *Signer) Sign(_ io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	if _, ok := opts.(*rsa.PSSOptions); ok {
		return nil, ErrUnsupportedPadding
	}

	size := k.public.Size()
	em, err := pkcs1Pad(digest, opts.HashFunc(), size)
	if err != nil {
		return nil, err
	}

	if err := k.session.Card.VerifyPIN(k.pin.Reference, k.pin.Pad(k.code)); err != nil {
		return nil, err
	}

	env := types.SecurityEnv{
		Operation: types.OperationSign,
		Flags:     types.SecurityEnvKeyRefPresent,
		KeyRef:    []byte{k.key.KeyReference},
	}
	if err := k.session.Signer.SetSecurityEnv(env, 0); err != nil {
		return nil, err
	}

	out := make([]byte, size)
	n, err := k.session.Signer.ComputeSignature(em, out)
	if err != nil {
		return nil, err
	}

	logger.Debug("digest signed", "key", k.key.ID, "hash", opts.HashFunc(), "size", n)

	return out[:n], nil
}

func digestInfo(digest []byte, hash crypto.Hash) ([]byte, error) {
	if hash == 0 {
		return digest, nil
	}

	oid, ok := hashOIDs[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedHash, hash)
	}

	if len(digest) != hash.Size() {
		return nil, fmt.Errorf("%w: %d bytes for %v", ErrDigestLength, len(digest), hash)
	}

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oid)
			b.AddASN1NULL()
		})
		b.AddASN1OctetString(digest)
	})

	return b.Bytes()
}

// pkcs1Pad builds the EMSA-PKCS1-v1_5 block 00 01 FF.. 00 T of size bytes.
func pkcs1Pad(digest []byte, hash crypto.Hash, size int) ([]byte, error) {
	t, err := digestInfo(digest, hash)
	if err != nil {
		return nil, err
	}

	if len(t)+11 > size {
		return nil, ErrMessageTooLong
	}

	em := make([]byte, size)
	em[1] = 0x01
	for i := 2; i < size-len(t)-1; i++ {
		em[i] = 0xFF
	}
	copy(em[size-len(t):], t)

	return em, nil
}
