package iso7816

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

var ErrMalformedTLV = errors.New("malformed tlv")

// ErrTagNotFound is an error returned if a tag is not found in a TLV sequence.
type ErrTagNotFound struct {
	tag uint8
}

// Error implements the error interface
func (e *ErrTagNotFound) Error() string {
	return fmt.Sprintf("tag %x not found", e.tag)
}

// FindTag searches for a tag value within a TLV sequence.
func FindTag(raw []byte, tags ...uint8) ([]byte, error) {
	return findTag(raw, 0, tags...)
}

// FindTagN searches for a tag value within a TLV sequence and returns the n occurrence
func FindTagN(raw []byte, n int, tags ...uint8) ([]byte, error) {
	return findTag(raw, n, tags...)
}

func findTag(raw []byte, occurrence int, tags ...uint8) ([]byte, error) {
	if len(tags) == 0 {
		return raw, nil
	}

	target := tags[0]
	s := cryptobyte.String(raw)

	for !s.Empty() {
		var tag uint8
		if !s.ReadUint8(&tag) {
			return nil, ErrMalformedTLV
		}

		length, ok := readLength(&s)
		if !ok {
			return nil, ErrMalformedTLV
		}

		var data []byte
		if !s.ReadBytes(&data, length) {
			return nil, ErrMalformedTLV
		}

		if tag != target {
			continue
		}

		// if it's the last tag in the search path, we start counting the occurrences
		if len(tags) == 1 && occurrence > 0 {
			occurrence--
			continue
		}

		if len(tags) == 1 {
			return data, nil
		}

		return findTag(data, occurrence, tags[1:]...)
	}

	return []byte{}, &ErrTagNotFound{target}
}

// readLength reads a BER length field. Cards do not always use the minimal
// encoding, so 0x81 and 0x82 prefixes are accepted for any value.
func readLength(s *cryptobyte.String) (int, bool) {
	var b uint8
	if !s.ReadUint8(&b) {
		return 0, false
	}

	switch {
	case b < 0x80:
		return int(b), true
	case b == 0x81:
		var l uint8
		if !s.ReadUint8(&l) {
			return 0, false
		}
		return int(l), true
	case b == 0x82:
		var l uint16
		if !s.ReadUint16(&l) {
			return 0, false
		}
		return int(l), true
	default:
		return 0, false
	}
}

// EncodeTLV appends a short form TLV to b.
func EncodeTLV(b []byte, tag uint8, value []byte) []byte {
	var builder cryptobyte.Builder
	builder.AddUint8(tag)
	builder.AddUint8LengthPrefixed(func(child *cryptobyte.Builder) {
		child.AddBytes(value)
	})

	return append(b, builder.BytesOrPanic()...)
}
