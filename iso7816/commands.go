package iso7816

import (
	"github.com/skythen/apdu"
)

const (
	ClaISO7816 = 0x00

	InsSelectFile               = 0xA4
	InsReadBinary               = 0xB0
	InsVerify                   = 0x20
	InsManageSecurityEnv        = 0x22
	InsPerformSecurityOperation = 0x2A
	InsGetResponse              = 0xC0

	P1SelectFileID     = 0x00
	P1SelectDFName     = 0x04
	P1SelectPathFromMF = 0x08
	P2SelectFCI        = 0x00

	P1MSESetCompute = 0x41
	P1MSEStore      = 0xF2
	P1MSERestore    = 0xF3
	P2MSEDST        = 0xB6
	P2MSECT         = 0xB8

	P1PSODecipher      = 0x80
	P2PSODecipher      = 0x86
	P1PSOSignature     = 0x9E
	P2PSOSignature     = 0x9A
	PaddingIndicatorNo = 0x00

	TagFCI                = 0x6F
	TagFCP                = 0x62
	TagFileSize           = 0x80
	TagFileSizeTotal      = 0x81
	TagFileIdentifier     = 0x83
	TagAlgorithmReference = 0x80
	TagFileReference      = 0x81
	TagKeyReference       = 0x84

	// MaxShortLength is the largest Ne a short APDU can carry.
	MaxShortLength = 256
)

func NewCommandSelect(p1 uint8, data []byte) *apdu.Capdu {
	return &apdu.Capdu{
		Cla:  ClaISO7816,
		Ins:  InsSelectFile,
		P1:   p1,
		P2:   P2SelectFCI,
		Data: data,
		Ne:   MaxShortLength,
	}
}

func NewCommandReadBinary(offset uint16, length int) *apdu.Capdu {
	return &apdu.Capdu{
		Cla: ClaISO7816,
		Ins: InsReadBinary,
		P1:  uint8(offset>>8) & 0x7F,
		P2:  uint8(offset),
		Ne:  length,
	}
}

func NewCommandGetResponse(length int) *apdu.Capdu {
	return &apdu.Capdu{
		Cla: ClaISO7816,
		Ins: InsGetResponse,
		Ne:  length,
	}
}

func NewCommandRestoreSecurityEnv(seNum uint8) *apdu.Capdu {
	return &apdu.Capdu{
		Cla: ClaISO7816,
		Ins: InsManageSecurityEnv,
		P1:  P1MSERestore,
		P2:  seNum,
	}
}

func NewCommandStoreSecurityEnv(seNum uint8) *apdu.Capdu {
	return &apdu.Capdu{
		Cla: ClaISO7816,
		Ins: InsManageSecurityEnv,
		P1:  P1MSEStore,
		P2:  seNum,
	}
}

// NewCommandSetSecurityEnv builds MSE SET. crt is P2MSEDST for signing and
// P2MSECT for deciphering.
func NewCommandSetSecurityEnv(crt uint8, data []byte) *apdu.Capdu {
	return &apdu.Capdu{
		Cla:  ClaISO7816,
		Ins:  InsManageSecurityEnv,
		P1:   P1MSESetCompute,
		P2:   crt,
		Data: data,
	}
}

func NewCommandDecipher(cryptogram []byte, length int) *apdu.Capdu {
	data := make([]byte, 0, len(cryptogram)+1)
	data = append(data, PaddingIndicatorNo)
	data = append(data, cryptogram...)

	return &apdu.Capdu{
		Cla:  ClaISO7816,
		Ins:  InsPerformSecurityOperation,
		P1:   P1PSODecipher,
		P2:   P2PSODecipher,
		Data: data,
		Ne:   length,
	}
}

func NewCommandComputeSignature(data []byte, length int) *apdu.Capdu {
	return &apdu.Capdu{
		Cla:  ClaISO7816,
		Ins:  InsPerformSecurityOperation,
		P1:   P1PSOSignature,
		P2:   P2PSOSignature,
		Data: data,
		Ne:   length,
	}
}

func NewCommandVerify(reference uint8, pin []byte) *apdu.Capdu {
	return &apdu.Capdu{
		Cla:  ClaISO7816,
		Ins:  InsVerify,
		P1:   0x00,
		P2:   reference,
		Data: pin,
	}
}
