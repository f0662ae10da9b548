package iso7816

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedTransmitter struct {
	sent      [][]byte
	responses [][]byte
}

func (s *scriptedTransmitter) Transmit(cmd []byte) ([]byte, error) {
	s.sent = append(s.sent, cmd)
	if len(s.responses) == 0 {
		return nil, errors.New("no response scripted")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func TestTransmitChannelSend(t *testing.T) {
	tr := &scriptedTransmitter{responses: [][]byte{hexMustDecode("01029000")}}
	c := NewTransmitChannel(tr)

	resp, err := c.Send(NewCommandReadBinary(0x00C3, 2))
	require.NoError(t, err)
	assert.Equal(t, uint16(SwOK), resp.Sw)
	assert.Equal(t, []byte{0x01, 0x02}, resp.Data)
	assert.Equal(t, hexMustDecode("00b000c302"), tr.sent[0])
}

func TestTransmitChannelGetResponse(t *testing.T) {
	tr := &scriptedTransmitter{responses: [][]byte{
		hexMustDecode("6104"),
		hexMustDecode("aabbccdd9000"),
	}}
	c := NewTransmitChannel(tr)

	resp, err := c.Send(NewCommandRestoreSecurityEnv(0x40))
	require.NoError(t, err)
	assert.Equal(t, uint16(SwOK), resp.Sw)
	assert.Equal(t, hexMustDecode("aabbccdd"), resp.Data)
	require.Len(t, tr.sent, 2)
	assert.Equal(t, hexMustDecode("0022f340"), tr.sent[0])
	assert.Equal(t, hexMustDecode("00c0000004"), tr.sent[1])
}

func TestTransmitChannelWrongLe(t *testing.T) {
	tr := &scriptedTransmitter{responses: [][]byte{
		hexMustDecode("6c02"),
		hexMustDecode("48319000"),
	}}
	c := NewTransmitChannel(tr)

	resp, err := c.Send(NewCommandReadBinary(0, 8))
	require.NoError(t, err)
	assert.Equal(t, []byte("H1"), resp.Data)
	assert.Equal(t, hexMustDecode("00b0000002"), tr.sent[1])
}

func TestCheckOK(t *testing.T) {
	assert.NoError(t, CheckOK(&Response{Sw: SwOK}, nil))
	assert.NoError(t, CheckOK(&Response{Sw: SwFileNotFound}, nil, SwOK, SwFileNotFound))

	err := CheckOK(&Response{Sw: SwFileNotFound}, nil)
	var bad *ErrBadResponse
	require.True(t, errors.As(err, &bad))
	assert.Equal(t, uint16(SwFileNotFound), bad.Sw)

	sendErr := errors.New("reader removed")
	assert.Equal(t, sendErr, CheckOK(nil, sendErr))
}
