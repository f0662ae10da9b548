package actalis

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/cardemu/actalis-go/card"
	"github.com/cardemu/actalis-go/card/cardtest"
	"github.com/cardemu/actalis-go/pkcs15"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfSigned(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "Mario Rossi"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	return der
}

// rawRSA performs the private key operation the card does on decipher.
func rawRSA(key *rsa.PrivateKey) func([]byte) []byte {
	return func(in []byte) []byte {
		m := new(big.Int).SetBytes(in)
		return m.Exp(m, key.D, key.N).FillBytes(make([]byte, key.Size()))
	}
}

func newSigningSession(t *testing.T) (*pkcs15.Session, *cardtest.Card, *rsa.PrivateKey) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	c := newTestCard(t)
	c.AddFileAt(certificateFiles[0].path, certificateBlob(t, selfSigned(t, key)))
	c.PIN = []byte{'1', '2', '3', '4', '5', 0, 0, 0}
	c.DecipherFunc = rawRSA(key)

	s := pkcs15.NewSession(c)
	require.NoError(t, Init(s, nil))

	return s, c, key
}

func TestSignerSign(t *testing.T) {
	s, c, key := newSigningSession(t)

	signer, err := NewSigner(s, []byte("12345"))
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(signer.Public()))

	digest := sha256.Sum256([]byte("hello actalis"))
	c.Calls = nil
	sig, err := signer.Sign(rand.Reader, digest[:], crypto.SHA256)
	require.NoError(t, err)

	assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, digest[:], sig))
	assert.Equal(t, []string{"verify 81", "restore 40", "set decipher 0", "decipher 128 128"}, c.Calls)
	require.Len(t, c.SetEnvCalls, 1)
	assert.Equal(t, []byte{keyReference}, c.SetEnvCalls[0].Env.KeyRef)
	assert.Empty(t, c.SignIn)
}

func TestSignerWrongPIN(t *testing.T) {
	s, c, _ := newSigningSession(t)

	signer, err := NewSigner(s, []byte("00000"))
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("hello"))
	_, err = signer.Sign(rand.Reader, digest[:], crypto.SHA256)

	var wrongPIN *card.WrongPINError
	require.ErrorAs(t, err, &wrongPIN)
	assert.Equal(t, 2, wrongPIN.RemainingAttempts)
	assert.Empty(t, c.DecipherIn)
}

func TestSignerRejectsPSS(t *testing.T) {
	s, _, _ := newSigningSession(t)

	signer, err := NewSigner(s, []byte("12345"))
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("hello"))
	_, err = signer.Sign(rand.Reader, digest[:], &rsa.PSSOptions{Hash: crypto.SHA256})
	assert.ErrorIs(t, err, ErrUnsupportedPadding)

	_, err = signer.Sign(rand.Reader, digest[:16], crypto.SHA256)
	assert.ErrorIs(t, err, ErrDigestLength)

	_, err = signer.Sign(rand.Reader, digest[:], crypto.MD4)
	assert.ErrorIs(t, err, ErrUnsupportedHash)
}

func TestNewSignerWithoutCertificate(t *testing.T) {
	s := pkcs15.NewSession(newTestCard(t))
	require.NoError(t, Init(s, nil))

	_, err := NewSigner(s, []byte("12345"))
	assert.Error(t, err)
}

func TestPKCS1Pad(t *testing.T) {
	em, err := pkcs1Pad([]byte{0xAA, 0xBB}, 0, 16)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x00, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0xAA, 0xBB,
	}, em)

	_, err = pkcs1Pad(make([]byte, 6), 0, 16)
	assert.ErrorIs(t, err, ErrMessageTooLong)
}
