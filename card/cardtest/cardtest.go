// Package cardtest provides an in-memory card.Card for tests and demos.
package cardtest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/cardemu/actalis-go/card"
	"github.com/cardemu/actalis-go/types"
)

var ErrNoFileSelected = errors.New("no file selected")

// SetSecurityEnvCall records one SetSecurityEnv invocation.
type SetSecurityEnvCall struct {
	Env   types.SecurityEnv
	SENum int
}

// Card is a scripted card with a flat file system keyed by path.
type Card struct {
	OSName string

	// Calls logs every operation in order, e.g. "select 3F00" or "restore 40".
	Calls []string

	RestoredEnvs []int
	SetEnvCalls  []SetSecurityEnvCall
	DecipherIn   [][]byte
	SignIn       [][]byte

	RestoreErr  error
	SetEnvErr   error
	DecipherErr error

	// DecipherFunc computes the decipher result; the input is echoed when nil.
	DecipherFunc func(in []byte) []byte
	SignFunc     func(in []byte) []byte

	PIN      []byte
	PINTries int

	files    map[string][]byte
	selected *types.Path
}

var _ card.Card = (*Card)(nil)

func New(osName string) *Card {
	return &Card{
		OSName:   osName,
		PINTries: 3,
		files:    make(map[string][]byte),
	}
}

// AddFile stores data under the parsed hex path.
func (c *Card) AddFile(path string, data []byte) {
	c.AddFileAt(types.MustParsePath(path), data)
}

func (c *Card) AddFileAt(path types.Path, data []byte) {
	c.files[path.Key()] = data
}

func (c *Card) RemoveFile(path string) {
	delete(c.files, types.MustParsePath(path).Key())
}

// Reads counts ReadBinary calls.
func (c *Card) Reads() int {
	n := 0
	for _, call := range c.Calls {
		if len(call) > 4 && call[:4] == "read" {
			n++
		}
	}

	return n
}

func (c *Card) Name() string {
	return c.OSName
}

func (c *Card) SelectFile(path types.Path) (*types.File, error) {
	c.Calls = append(c.Calls, "select "+path.String())

	data, ok := c.files[path.Key()]
	if !ok && !path.IsMasterFile() {
		c.selected = nil
		return nil, fmt.Errorf("%w: %s", card.ErrFileNotFound, path)
	}

	p := path
	c.selected = &p

	return &types.File{Path: path, Size: len(data)}, nil
}

func (c *Card) ReadBinary(offset, count int) ([]byte, error) {
	c.Calls = append(c.Calls, fmt.Sprintf("read %d %d", offset, count))

	if c.selected == nil {
		return nil, ErrNoFileSelected
	}

	data := c.files[c.selected.Key()]
	if offset > len(data) {
		return nil, card.ErrInvalidOffset
	}

	end := offset + count
	if end > len(data) {
		out := append([]byte(nil), data[offset:]...)
		return out, fmt.Errorf("%w: read %d of %d bytes", io.ErrUnexpectedEOF, len(out), count)
	}

	return append([]byte(nil), data[offset:end]...), nil
}

func (c *Card) RestoreSecurityEnv(seNum int) error {
	c.Calls = append(c.Calls, fmt.Sprintf("restore %02X", seNum))
	c.RestoredEnvs = append(c.RestoredEnvs, seNum)

	return c.RestoreErr
}

func (c *Card) SetSecurityEnv(env types.SecurityEnv, seNum int) error {
	c.Calls = append(c.Calls, fmt.Sprintf("set %s %d", env.Operation, seNum))
	c.SetEnvCalls = append(c.SetEnvCalls, SetSecurityEnvCall{Env: env, SENum: seNum})

	return c.SetEnvErr
}

func (c *Card) Decipher(in, out []byte) (int, error) {
	c.Calls = append(c.Calls, fmt.Sprintf("decipher %d %d", len(in), len(out)))
	c.DecipherIn = append(c.DecipherIn, append([]byte(nil), in...))

	if c.DecipherErr != nil {
		return 0, c.DecipherErr
	}

	result := in
	if c.DecipherFunc != nil {
		result = c.DecipherFunc(in)
	}

	if len(result) > len(out) {
		return 0, card.ErrBufferTooSmall
	}

	return copy(out, result), nil
}

func (c *Card) ComputeSignature(in, out []byte) (int, error) {
	c.Calls = append(c.Calls, fmt.Sprintf("sign %d %d", len(in), len(out)))
	c.SignIn = append(c.SignIn, append([]byte(nil), in...))

	result := in
	if c.SignFunc != nil {
		result = c.SignFunc(in)
	}

	if len(result) > len(out) {
		return 0, card.ErrBufferTooSmall
	}

	return copy(out, result), nil
}

func (c *Card) VerifyPIN(reference uint8, pin []byte) error {
	c.Calls = append(c.Calls, fmt.Sprintf("verify %02X", reference))

	if c.PINTries == 0 {
		return card.ErrPINBlocked
	}

	if !bytes.Equal(pin, c.PIN) {
		c.PINTries--
		return &card.WrongPINError{RemainingAttempts: c.PINTries}
	}

	c.PINTries = 3

	return nil
}
