// Package inflate decompresses the zlib streams stored on the card.
package inflate

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

var (
	ErrCorrupt  = errors.New("inflate: corrupt input")
	ErrTooLarge = errors.New("inflate: output exceeds limit")
)

// initialRatio sizes the first output allocation. The buffer grows past it
// when the stream needs more room.
const initialRatio = 3

// Inflate decompresses a zlib stream and verifies its checksum. The output
// grows as needed up to limit bytes; limit <= 0 disables the ceiling.
func Inflate(compressed []byte, limit int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer r.Close()

	var src io.Reader = r
	if limit > 0 {
		src = io.LimitReader(r, int64(limit)+1)
	}

	hint := initialRatio * len(compressed)
	if limit > 0 && hint > limit {
		hint = limit
	}

	out := bytes.NewBuffer(make([]byte, 0, hint))
	if _, err := io.Copy(out, src); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if limit > 0 && out.Len() > limit {
		return nil, ErrTooLarge
	}

	return out.Bytes(), nil
}

// Deflate compresses data into a zlib stream, the format Inflate reads.
func Deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
