package pkcs15

import (
	"encoding/json"
	"testing"

	"github.com/cardemu/actalis-go/card/cardtest"
	"github.com/cardemu/actalis-go/types"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func snapshotSession(t *testing.T) *Session {
	s := NewSession(cardtest.New("CardOS M4"))
	s.Label = "Actalis"
	s.SerialNumber = "H1234567"

	require.NoError(t, s.AddCertificate(&types.Certificate{
		ID:    types.ID{0x01},
		Label: "User Non-repudiation Certificate",
		Path:  types.MustParsePath("3F00300060006002"),
		Value: []byte{0x01, 0x02, 0x03},
	}))
	require.NoError(t, s.AddPin(authPin()))
	require.NoError(t, s.AddPrivateKey(&types.PrivateKey{
		ID:           types.ID{0x01},
		Label:        "Authentication Key",
		ModulusBits:  1024,
		KeyReference: 0x08,
		AuthID:       types.ID{0x01},
		Usage:        types.UsageSign | types.UsageDecrypt,
	}))

	return s
}

func TestSnapshot(t *testing.T) {
	snap := snapshotSession(t).Snapshot()

	assert.Equal(t, "Actalis", snap.Label)
	assert.Equal(t, "H1234567", snap.SerialNumber)
	require.Len(t, snap.Certificates, 1)
	assert.Equal(t, 3, snap.Certificates[0].Size)
	assert.Equal(t, "3F00300060006002", snap.Certificates[0].Path)
	assert.Empty(t, snap.Certificates[0].Subject)
	require.Len(t, snap.Pins, 1)
	assert.Equal(t, "ascii-numeric", snap.Pins[0].Type)
	require.Len(t, snap.PrivateKeys, 1)
	assert.Equal(t, []string{"decrypt", "sign"}, snap.PrivateKeys[0].Usage)
}

func TestSnapshotMarshal(t *testing.T) {
	snap := snapshotSession(t).Snapshot()

	data, err := snap.Marshal(FormatJSON)
	require.NoError(t, err)
	var fromJSON Snapshot
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, *snap, fromJSON)

	data, err = snap.Marshal(FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "serial_number: H1234567")

	data, err = snap.Marshal(FormatCBOR)
	require.NoError(t, err)
	var fromCBOR Snapshot
	require.NoError(t, cbor.Unmarshal(data, &fromCBOR))
	assert.Equal(t, snap.PrivateKeys, fromCBOR.PrivateKeys)

	var fromYAML Snapshot
	data, _ = snap.Marshal(FormatYAML)
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, snap.Pins, fromYAML.Pins)

	_, err = snap.Marshal("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
