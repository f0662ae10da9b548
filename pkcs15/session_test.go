package pkcs15

import (
	"errors"
	"testing"

	"github.com/cardemu/actalis-go/card/cardtest"
	"github.com/cardemu/actalis-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authPin() *types.Pin {
	return &types.Pin{
		ID:        types.ID{0x01},
		Label:     "Authentication PIN",
		Reference: 0x81,
		Type:      types.PinTypeASCIINumeric,
		MaxTries:  3,
	}
}

func TestAddPrivateKeyRequiresPin(t *testing.T) {
	s := NewSession(cardtest.New("CardOS M4"))
	key := &types.PrivateKey{ID: types.ID{0x01}, AuthID: types.ID{0x01}}

	err := s.AddPrivateKey(key)
	assert.ErrorIs(t, err, ErrAuthObjectNotFound)
	assert.Empty(t, s.PrivateKeys())

	require.NoError(t, s.AddPin(authPin()))
	require.NoError(t, s.AddPrivateKey(key))
	assert.Len(t, s.PrivateKeys(), 1)
}

func TestDuplicateIDs(t *testing.T) {
	s := NewSession(cardtest.New("CardOS M4"))

	require.NoError(t, s.AddCertificate(&types.Certificate{ID: types.ID{0x01}}))
	assert.ErrorIs(t, s.AddCertificate(&types.Certificate{ID: types.ID{0x01}}), ErrDuplicateID)

	require.NoError(t, s.AddPin(authPin()))
	assert.ErrorIs(t, s.AddPin(authPin()), ErrDuplicateID)

	assert.Equal(t, ErrEmptyID, s.AddCertificate(&types.Certificate{}))
}

func TestLookup(t *testing.T) {
	s := NewSession(cardtest.New("CardOS M4"))
	require.NoError(t, s.AddCertificate(&types.Certificate{ID: types.ID{0x02}, Label: "TSCA Certificate"}))

	c, err := s.Certificate(types.ID{0x02})
	require.NoError(t, err)
	assert.Equal(t, "TSCA Certificate", c.Label)

	_, err = s.Certificate(types.ID{0x03})
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = s.Pin(types.ID{0x01})
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestReadFileFromCache(t *testing.T) {
	c := cardtest.New("CardOS M4")
	s := NewSession(c)
	s.UseCache = true

	path := types.MustParsePath("3F00300060006002")
	cached := path
	cached.Count = 5
	s.CacheFile(cached, []byte("hello"))

	data, err := s.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Empty(t, c.Calls)

	part := path
	part.Index = 1
	part.Count = 3
	data, err = s.ReadFile(part)
	require.NoError(t, err)
	assert.Equal(t, []byte("ell"), data)
}

func TestReadFileFromCard(t *testing.T) {
	c := cardtest.New("CardOS M4")
	c.AddFile("3F0050155031", []byte{0xA8, 0x03, 0x01, 0x02, 0x03})
	s := NewSession(c)
	s.UseCache = true

	path := types.MustParsePath("3F0050155031")
	data, err := s.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA8, 0x03, 0x01, 0x02, 0x03}, data)
	assert.Equal(t, 1, c.Reads())

	_, err = s.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Reads())
}

func TestReadFileNotCachedWithoutUseCache(t *testing.T) {
	c := cardtest.New("CardOS M4")
	s := NewSession(c)
	s.CacheFile(types.MustParsePath("3F00300060006002"), []byte("cached"))

	_, err := s.ReadFile(types.MustParsePath("3F00300060006002"))
	assert.Error(t, err)
}

type fakeSigner struct{}

func (fakeSigner) SetSecurityEnv(types.SecurityEnv, int) error { return errors.New("unused") }
func (fakeSigner) ComputeSignature(in, out []byte) (int, error) { return 0, errors.New("unused") }

func TestResetAndClear(t *testing.T) {
	c := cardtest.New("CardOS M4")
	s := NewSession(c)
	s.Label = "Actalis"
	s.Signer = fakeSigner{}
	require.NoError(t, s.AddPin(authPin()))

	s.Clear()
	assert.Empty(t, s.Label)
	assert.Empty(t, s.Pins())
	assert.Equal(t, fakeSigner{}, s.Signer)

	s.Reset()
	assert.Equal(t, c, s.Signer)
}
