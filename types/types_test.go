package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	p, err := ParsePath("3F00300060006002")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x3F, 0x00, 0x30, 0x00, 0x60, 0x00, 0x60, 0x02}, p.Value)
	assert.Equal(t, PathTypePath, p.Type)
	assert.Equal(t, "3F00300060006002", p.String())

	p, err = ParsePath("i3f00")
	require.NoError(t, err)
	assert.Equal(t, PathTypeFileID, p.Type)
	assert.Equal(t, "i3F00", p.String())

	p, err = ParsePath("3F00:3000")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x3F, 0x00, 0x30, 0x00}, p.Value)
}

func TestParsePathErrors(t *testing.T) {
	_, err := ParsePath("")
	assert.Equal(t, ErrEmptyPath, err)

	_, err = ParsePath("3F0")
	assert.Equal(t, ErrOddPathLength, err)

	_, err = ParsePath("3F0G")
	assert.EqualError(t, err, `at position 4, unexpected character 'G'`)
}

func TestPathKeyIgnoresSpan(t *testing.T) {
	a := MustParsePath("3F00300060006002")
	b := a
	b.Count = 1200

	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, a.Equal(b))

	dfName := a
	dfName.Type = PathTypeDFName
	assert.NotEqual(t, a.Key(), dfName.Key())
}

func TestIsMasterFile(t *testing.T) {
	assert.True(t, MustParsePath("3F00").IsMasterFile())
	assert.False(t, MustParsePath("3F003000").IsMasterFile())
}

func TestPinPad(t *testing.T) {
	pin := &Pin{MaxLength: 8, PinFlags: PinFlagNeedsPadding}
	assert.Equal(t, []byte{'1', '2', '3', '4', '5', 0, 0, 0}, pin.Pad([]byte("12345")))

	pin.PinFlags = 0
	assert.Equal(t, []byte("12345"), pin.Pad([]byte("12345")))
}

func TestPinTypeString(t *testing.T) {
	assert.Equal(t, "bcd", PinTypeBCD.String())
	assert.Equal(t, "ascii-numeric", PinTypeASCIINumeric.String())
	assert.Equal(t, "utf8", PinTypeUTF8.String())
	assert.Equal(t, "PinType(7)", PinType(7).String())
}
