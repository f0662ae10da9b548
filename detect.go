package actalis

import (
	"bytes"
	"fmt"

	"github.com/cardemu/actalis-go/card"
	"github.com/cardemu/actalis-go/pkcs15"
	"github.com/cardemu/actalis-go/types"
	"golang.org/x/text/encoding/charmap"
)

const (
	serialOffset = 0xC3
	serialLength = 8
	serialPrefix = 'H'
)

var serialPath = types.MustParsePath("3F0030000001")

func detectCard(s *pkcs15.Session) error {
	if name := s.Card.Name(); name != card.NameCardOSM4 {
		logger.Debug("card OS mismatch", "name", name)
		return fmt.Errorf("%w: card OS %q", pkcs15.ErrWrongCard, name)
	}

	return nil
}

// readSerial reads the serial number stored in the card identity file. Only
// serials starting with 'H' belong to Actalis cards.
func readSerial(c card.Card) (string, error) {
	if _, err := c.SelectFile(serialPath); err != nil {
		return "", fmt.Errorf("%w: select serial: %v", pkcs15.ErrWrongCard, err)
	}

	raw, err := c.ReadBinary(serialOffset, serialLength)
	if err != nil {
		return "", fmt.Errorf("%w: read serial: %v", pkcs15.ErrWrongCard, err)
	}

	if len(raw) == 0 || raw[0] != serialPrefix {
		logger.Debug("serial prefix mismatch", "serial", fmt.Sprintf("%X", raw))
		return "", fmt.Errorf("%w: serial %X", pkcs15.ErrWrongCard, raw)
	}

	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}

	serial, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: decode serial: %v", pkcs15.ErrWrongCard, err)
	}

	return string(serial), nil
}
