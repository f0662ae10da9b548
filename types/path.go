package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

type PathType int

const (
	PathTypePath PathType = iota
	PathTypeFileID
	PathTypeDFName
)

func (t PathType) String() string {
	switch t {
	case PathTypePath:
		return "path"
	case PathTypeFileID:
		return "file-id"
	case PathTypeDFName:
		return "df-name"
	default:
		return fmt.Sprintf("PathType(%d)", int(t))
	}
}

// Path addresses a file on the card. Index and Count select a span inside
// the file; Count 0 means the whole file.
type Path struct {
	Value []byte
	Type  PathType
	Index int
	Count int
}

var MasterFile = []byte{0x3F, 0x00}

var (
	ErrEmptyPath     = errors.New("empty path")
	ErrOddPathLength = errors.New("odd number of hex digits")
)

const tokenFileID = 'i'

// ParsePath parses a hex path such as "3F0030000001". A leading 'i' or 'I'
// makes it a file identifier path.
func ParsePath(s string) (Path, error) {
	p := newPathParser(s)
	return p.parse()
}

func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}

	return p
}

func (p Path) String() string {
	s := strings.ToUpper(hex.EncodeToString(p.Value))
	if p.Type == PathTypeFileID {
		return "i" + s
	}

	return s
}

// Key identifies the file a path points to, ignoring the span.
func (p Path) Key() string {
	return fmt.Sprintf("%d:%X", p.Type, p.Value)
}

func (p Path) Equal(o Path) bool {
	return p.Type == o.Type && bytes.Equal(p.Value, o.Value)
}

func (p Path) IsMasterFile() bool {
	return p.Type == PathTypePath && bytes.Equal(p.Value, MasterFile)
}

type parseFunc = func() error

type pathParser struct {
	r      *strings.Reader
	f      parseFunc
	pos    int
	typ    PathType
	digits strings.Builder
}

func newPathParser(s string) *pathParser {
	p := &pathParser{
		r:   strings.NewReader(s),
		typ: PathTypePath,
	}
	p.f = p.parseStart

	return p
}

func (p *pathParser) parse() (Path, error) {
	for {
		err := p.f()
		if err == io.EOF {
			break
		}

		if err != nil {
			return Path{}, fmt.Errorf("at position %d, %w", p.pos, err)
		}
	}

	digits := p.digits.String()
	if len(digits) == 0 {
		return Path{}, ErrEmptyPath
	}

	if len(digits)%2 != 0 {
		return Path{}, ErrOddPathLength
	}

	value, err := hex.DecodeString(digits)
	if err != nil {
		return Path{}, err
	}

	return Path{Value: value, Type: p.typ}, nil
}

func (p *pathParser) readByte() (byte, error) {
	b, err := p.r.ReadByte()
	if err != nil {
		return b, err
	}

	p.pos++

	return b, nil
}

func (p *pathParser) parseStart() error {
	b, err := p.readByte()
	if err != nil {
		return err
	}

	if b|0x20 == tokenFileID {
		p.typ = PathTypeFileID
	} else if err := p.r.UnreadByte(); err == nil {
		p.pos--
	}

	p.f = p.parseDigits

	return nil
}

func (p *pathParser) parseDigits() error {
	b, err := p.readByte()
	if err != nil {
		return err
	}

	switch {
	case b == ' ' || b == ':':
		return nil
	case isHexDigit(b):
		p.digits.WriteByte(b)
		return nil
	default:
		return fmt.Errorf("unexpected character %q", b)
	}
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
