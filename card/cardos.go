package card

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/cardemu/actalis-go/iso7816"
	"github.com/cardemu/actalis-go/types"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/crypto/cryptobyte"
)

var logger = log.New("package", "actalis/card")

var (
	ErrFileNotFound         = errors.New("file not found")
	ErrUnsupportedPath      = errors.New("unsupported path type")
	ErrUnsupportedOperation = errors.New("unsupported security operation")
	ErrInvalidOffset        = errors.New("invalid offset")
	ErrInvalidSENumber      = errors.New("invalid security environment number")
	ErrBufferTooSmall       = errors.New("output buffer too small")
	ErrPINBlocked           = errors.New("pin blocked")
)

type WrongPINError struct {
	RemainingAttempts int
}

func (e *WrongPINError) Error() string {
	return fmt.Sprintf("wrong pin. remaining attempts: %d", e.RemainingAttempts)
}

const maxOffset = 0x7FFF

// CardOS drives a CardOS M4 card with ISO 7816-4 commands.
type CardOS struct {
	c    iso7816.Channel
	name string
}

func NewCardOS(c iso7816.Channel, atr []byte) *CardOS {
	return &CardOS{
		c:    c,
		name: Identify(atr),
	}
}

func (cs *CardOS) Name() string {
	return cs.name
}

func (cs *CardOS) SelectFile(path types.Path) (*types.File, error) {
	var p1 uint8
	data := path.Value

	switch path.Type {
	case types.PathTypeDFName:
		p1 = iso7816.P1SelectDFName
	case types.PathTypeFileID:
		p1 = iso7816.P1SelectFileID
	case types.PathTypePath:
		if path.IsMasterFile() {
			p1 = iso7816.P1SelectFileID
			break
		}

		p1 = iso7816.P1SelectPathFromMF
		if bytes.HasPrefix(data, types.MasterFile) {
			data = data[len(types.MasterFile):]
		}
	default:
		return nil, ErrUnsupportedPath
	}

	resp, err := cs.c.Send(iso7816.NewCommandSelect(p1, data))
	if err == nil && resp.Sw == iso7816.SwFileNotFound {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	if err = cs.checkOK(resp, err); err != nil {
		return nil, err
	}

	logger.Debug("file selected", "path", path, "fcp", len(resp.Data))

	return parseFile(path, resp.Data), nil
}

func parseFile(path types.Path, fci []byte) *types.File {
	f := &types.File{Path: path}

	tpl, err := iso7816.FindTag(fci, iso7816.TagFCP)
	if err != nil {
		tpl, _ = iso7816.FindTag(fci, iso7816.TagFCI)
	}

	if size, ok := readUint(tpl, iso7816.TagFileSize); ok {
		f.Size = int(size)
	} else if size, ok := readUint(tpl, iso7816.TagFileSizeTotal); ok {
		f.Size = int(size)
	}

	if fid, err := iso7816.FindTag(tpl, iso7816.TagFileIdentifier); err == nil {
		in := cryptobyte.String(fid)
		var id uint16
		if in.ReadUint16(&id) && in.Empty() {
			f.ID = id
		}
	}

	return f
}

// readUint reads the big-endian value of tag in tpl. Values of 1 to 4 bytes
// are accepted.
func readUint(tpl []byte, tag uint8) (uint32, bool) {
	value, err := iso7816.FindTag(tpl, tag)
	if err != nil {
		return 0, false
	}

	in := cryptobyte.String(value)
	var ok bool
	var v uint32
	switch len(value) {
	case 1:
		var b uint8
		ok = in.ReadUint8(&b)
		v = uint32(b)
	case 2:
		var w uint16
		ok = in.ReadUint16(&w)
		v = uint32(w)
	case 3:
		ok = in.ReadUint24(&v)
	case 4:
		ok = in.ReadUint32(&v)
	}

	return v, ok
}

func (cs *CardOS) ReadBinary(offset, count int) ([]byte, error) {
	if offset < 0 || offset+count > maxOffset+1 {
		return nil, ErrInvalidOffset
	}

	data := make([]byte, 0, count)
	for len(data) < count {
		n := min(count-len(data), iso7816.MaxShortLength)
		cmd := iso7816.NewCommandReadBinary(uint16(offset+len(data)), n)
		resp, err := cs.c.Send(cmd)
		if err = cs.checkOK(resp, err, iso7816.SwOK, iso7816.SwEndOfFile); err != nil {
			return data, err
		}

		if len(resp.Data) == 0 {
			break
		}

		data = append(data, resp.Data...)

		if resp.Sw == iso7816.SwEndOfFile {
			break
		}
	}

	if len(data) < count {
		return data, fmt.Errorf("%w: read %d of %d bytes", io.ErrUnexpectedEOF, len(data), count)
	}

	return data, nil
}

func (cs *CardOS) RestoreSecurityEnv(seNum int) error {
	if seNum < 0 || seNum > 0xFF {
		return ErrInvalidSENumber
	}

	resp, err := cs.c.Send(iso7816.NewCommandRestoreSecurityEnv(uint8(seNum)))
	return cs.checkOK(resp, err)
}

func (cs *CardOS) SetSecurityEnv(env types.SecurityEnv, seNum int) error {
	var crt uint8
	switch env.Operation {
	case types.OperationDecipher:
		crt = iso7816.P2MSECT
	case types.OperationSign:
		crt = iso7816.P2MSEDST
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedOperation, env.Operation)
	}

	if seNum < 0 || seNum > 0xFF {
		return ErrInvalidSENumber
	}

	var data []byte
	if env.Flags&types.SecurityEnvAlgRefPresent != 0 {
		data = iso7816.EncodeTLV(data, iso7816.TagAlgorithmReference, []byte{env.AlgorithmRef})
	}
	if env.Flags&types.SecurityEnvFileRefPresent != 0 {
		data = iso7816.EncodeTLV(data, iso7816.TagFileReference, env.FileRef.Value)
	}
	if env.Flags&types.SecurityEnvKeyRefPresent != 0 {
		data = iso7816.EncodeTLV(data, iso7816.TagKeyReference, env.KeyRef)
	}

	resp, err := cs.c.Send(iso7816.NewCommandSetSecurityEnv(crt, data))
	if err = cs.checkOK(resp, err); err != nil {
		return err
	}

	if seNum == 0 {
		return nil
	}

	resp, err = cs.c.Send(iso7816.NewCommandStoreSecurityEnv(uint8(seNum)))
	return cs.checkOK(resp, err)
}

func (cs *CardOS) Decipher(in, out []byte) (int, error) {
	resp, err := cs.c.Send(iso7816.NewCommandDecipher(in, expectedLength(out)))
	if err = cs.checkOK(resp, err); err != nil {
		return 0, err
	}

	return copyOut(out, resp.Data)
}

func (cs *CardOS) ComputeSignature(in, out []byte) (int, error) {
	resp, err := cs.c.Send(iso7816.NewCommandComputeSignature(in, expectedLength(out)))
	if err = cs.checkOK(resp, err); err != nil {
		return 0, err
	}

	return copyOut(out, resp.Data)
}

func (cs *CardOS) VerifyPIN(reference uint8, pin []byte) error {
	resp, err := cs.c.Send(iso7816.NewCommandVerify(reference, pin))
	if err = cs.checkOK(resp, err); err != nil {
		if resp != nil && (resp.Sw&0xFFF0) == 0x63C0 {
			return &WrongPINError{
				RemainingAttempts: int(resp.Sw & 0x000F),
			}
		}
		if resp != nil && resp.Sw == iso7816.SwAuthMethodBlocked {
			return ErrPINBlocked
		}
		return err
	}

	return nil
}

func (cs *CardOS) checkOK(resp *iso7816.Response, err error, allowedResponses ...uint16) error {
	return iso7816.CheckOK(resp, err, allowedResponses...)
}

func expectedLength(out []byte) int {
	if len(out) == 0 || len(out) > iso7816.MaxShortLength {
		return iso7816.MaxShortLength
	}

	return len(out)
}

func copyOut(out, data []byte) (int, error) {
	if len(data) > len(out) {
		return 0, ErrBufferTooSmall
	}

	return copy(out, data), nil
}
