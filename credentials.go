package actalis

import (
	"github.com/cardemu/actalis-go/pkcs15"
	"github.com/cardemu/actalis-go/types"
)

const (
	pinReference = 0x81
	keyReference = 0x08
)

var (
	authID = types.ID{0x01}

	pinPath = types.Path{Value: []byte{0x05, 0x04, 0x02, 0x00}, Type: types.PathTypeDFName}
	keyPath = types.MustParsePath("3F00300040000008")
)

func authenticationPin() *types.Pin {
	return &types.Pin{
		ID:        authID,
		Label:     "Authentication PIN",
		Path:      pinPath,
		Reference: pinReference,
		Type:      types.PinTypeASCIINumeric,
		MinLength: 5,
		MaxLength: 8,
		PinFlags:  types.PinFlagCaseSensitive | types.PinFlagInitialized | types.PinFlagNeedsPadding,
		MaxTries:  3,
		Flags:     types.FlagModifiable | types.FlagPrivate,
	}
}

func authenticationKey() *types.PrivateKey {
	return &types.PrivateKey{
		ID:           types.ID{0x01},
		Label:        "Authentication Key",
		Type:         types.KeyTypeRSA,
		ModulusBits:  1024,
		Usage:        types.UsageSign | types.UsageSignRecover | types.UsageEncrypt | types.UsageDecrypt,
		Path:         keyPath,
		KeyReference: keyReference,
		AuthID:       authID,
		Flags:        types.FlagPrivate,
	}
}

func addCredentials(s *pkcs15.Session) error {
	if err := s.AddPin(authenticationPin()); err != nil {
		return err
	}

	return s.AddPrivateKey(authenticationKey())
}
