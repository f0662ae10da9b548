package inflate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInflateRoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("actalis certificate payload "), 40)

	compressed, err := Deflate(plain)
	require.NoError(t, err)

	out, err := Inflate(compressed, 0)
	require.NoError(t, err)
	assert.Equal(t, plain, out)
}

func TestInflateBeyondRatio(t *testing.T) {
	// highly compressible input inflates far past 3x its compressed size
	plain := bytes.Repeat([]byte{0x30}, 8192)

	compressed, err := Deflate(plain)
	require.NoError(t, err)
	require.Less(t, 3*len(compressed), len(plain))

	out, err := Inflate(compressed, 64*1024)
	require.NoError(t, err)
	assert.Equal(t, plain, out)
}

func TestInflateLimit(t *testing.T) {
	plain := bytes.Repeat([]byte{0x30}, 4096)

	compressed, err := Deflate(plain)
	require.NoError(t, err)

	_, err = Inflate(compressed, 1024)
	assert.Equal(t, ErrTooLarge, err)

	out, err := Inflate(compressed, len(plain))
	require.NoError(t, err)
	assert.Len(t, out, len(plain))
}

func TestInflateTruncated(t *testing.T) {
	plain := bytes.Repeat([]byte("truncated "), 100)

	compressed, err := Deflate(plain)
	require.NoError(t, err)

	_, err = Inflate(compressed[:len(compressed)/2], 0)
	assert.ErrorIs(t, err, ErrCorrupt)

	// checksum trailer missing
	_, err = Inflate(compressed[:len(compressed)-2], 0)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestInflateGarbage(t *testing.T) {
	_, err := Inflate([]byte{0x01, 0x02, 0x03}, 0)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Inflate(nil, 0)
	assert.ErrorIs(t, err, ErrCorrupt)
}
