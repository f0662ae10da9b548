package iso7816

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func hexMustDecode(str string) []byte {
	out, _ := hex.DecodeString(str)
	return out
}

func TestFindTag(t *testing.T) {
	fcp := hexMustDecode("6213800204a28202010183026002850200008a0105")

	size, err := FindTag(fcp, TagFCP, TagFileSize)
	assert.NoError(t, err)
	assert.Equal(t, hexMustDecode("04a2"), size)

	fid, err := FindTag(fcp, TagFCP, TagFileIdentifier)
	assert.NoError(t, err)
	assert.Equal(t, hexMustDecode("6002"), fid)

	_, err = FindTag(fcp, TagFCP, 0x99)
	assert.Equal(t, &ErrTagNotFound{0x99}, err)
}

func TestFindTagN(t *testing.T) {
	data := hexMustDecode("a309020103020105010100")

	first, err := FindTagN(data, 0, 0xA3, 0x02)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x03}, first)

	second, err := FindTagN(data, 1, 0xA3, 0x02)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x05}, second)
}

func TestFindTagLongLength(t *testing.T) {
	value := make([]byte, 0x90)
	value[0] = 0x42
	data := append([]byte{0x70, 0x81, 0x90}, value...)

	found, err := FindTag(data, 0x70)
	assert.NoError(t, err)
	assert.Len(t, found, 0x90)
	assert.Equal(t, uint8(0x42), found[0])
}

func TestFindTagMalformed(t *testing.T) {
	_, err := FindTag(hexMustDecode("620a8002"), TagFCP)
	assert.Equal(t, ErrMalformedTLV, err)
}

func TestEncodeTLV(t *testing.T) {
	data := EncodeTLV(nil, TagAlgorithmReference, []byte{0x02})
	data = EncodeTLV(data, TagKeyReference, []byte{0x08})
	assert.Equal(t, hexMustDecode("800102840108"), data)
}
