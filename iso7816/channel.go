package iso7816

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/skythen/apdu"
)

var logger = log.New("package", "actalis/iso7816")

const (
	SwOK                     = 0x9000
	SwEndOfFile              = 0x6282
	SwAuthMethodBlocked      = 0x6983
	SwFileNotFound           = 0x6A82
	SwReferencedDataNotFound = 0x6A88

	sw1BytesAvailable = 0x61
	sw1WrongLe        = 0x6C
)

// Transmitter sends a raw command APDU and returns the raw response APDU.
// *scard.Card satisfies it.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Channel is an interface with a Send method to send apdu commands and receive apdu responses.
type Channel interface {
	Send(*apdu.Capdu) (*Response, error)
}

type Response struct {
	Data []byte
	Sw   uint16
}

// TransmitChannel is a Channel over a Transmitter. It follows up 61xx with
// GET RESPONSE and repeats commands answered with 6Cxx using the advertised Le.
type TransmitChannel struct {
	t Transmitter
}

func NewTransmitChannel(t Transmitter) *TransmitChannel {
	return &TransmitChannel{t: t}
}

func (c *TransmitChannel) Send(cmd *apdu.Capdu) (*Response, error) {
	resp, err := c.transmit(cmd)
	if err != nil {
		return nil, err
	}

	if resp.Sw>>8 == sw1WrongLe {
		retry := *cmd
		retry.Ne = leToNe(uint8(resp.Sw))
		resp, err = c.transmit(&retry)
		if err != nil {
			return nil, err
		}
	}

	data := resp.Data
	for resp.Sw>>8 == sw1BytesAvailable {
		resp, err = c.transmit(NewCommandGetResponse(leToNe(uint8(resp.Sw))))
		if err != nil {
			return nil, err
		}
		data = append(data, resp.Data...)
	}

	return &Response{Data: data, Sw: resp.Sw}, nil
}

func (c *TransmitChannel) transmit(cmd *apdu.Capdu) (*Response, error) {
	raw, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding command: %w", err)
	}

	logger.Trace("apdu command", "ins", fmt.Sprintf("%02X", cmd.Ins), "p1", cmd.P1, "p2", cmd.P2, "lc", len(cmd.Data))

	out, err := c.t.Transmit(raw)
	if err != nil {
		return nil, err
	}

	rapdu, err := apdu.ParseRapdu(out)
	if err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	resp := &Response{
		Data: rapdu.Data,
		Sw:   uint16(rapdu.SW1)<<8 | uint16(rapdu.SW2),
	}

	logger.Trace("apdu response", "sw", fmt.Sprintf("%04X", resp.Sw), "len", len(resp.Data))

	return resp, nil
}

func leToNe(le uint8) int {
	if le == 0 {
		return MaxShortLength
	}
	return int(le)
}
