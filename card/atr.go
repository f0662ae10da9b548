package card

import (
	"bytes"
	"encoding/hex"
	"strings"
)

const (
	NameCardOSM4 = "CardOS M4"
	NameUnknown  = "Unknown"
)

type atrEntry struct {
	atr  []byte
	mask []byte
	name string
}

var knownATRs = []atrEntry{
	{atr: mustHex("3b:e2:00:ff:c1:10:31:fe:55:c8:02:9c"), name: NameCardOSM4},
	{atr: mustHex("3b:f2:18:00:ff:c1:0a:31:fe:55:c8:06:8a"), name: NameCardOSM4},
	{atr: mustHex("3b:f2:18:00:02:c1:0a:31:fe:58:c8:08:74"), name: NameCardOSM4},
	{atr: mustHex("3b:d2:18:00:81:31:fe:58:c9:01:14"), name: NameCardOSM4},
	{
		atr:  mustHex("3b:d2:18:00:81:31:fe:58:c9:00:00"),
		mask: mustHex("ff:ff:ff:ff:ff:ff:ff:ff:ff:f0:00"),
		name: NameCardOSM4,
	},
}

// Identify returns the operating system name for a known ATR, or NameUnknown.
func Identify(atr []byte) string {
	for _, e := range knownATRs {
		if matchATR(atr, e.atr, e.mask) {
			return e.name
		}
	}

	return NameUnknown
}

func matchATR(atr, ref, mask []byte) bool {
	if len(atr) != len(ref) {
		return false
	}

	if mask == nil {
		return bytes.Equal(atr, ref)
	}

	for i := range atr {
		if atr[i]&mask[i] != ref[i]&mask[i] {
			return false
		}
	}

	return true
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(strings.ReplaceAll(s, ":", ""))
	if err != nil {
		panic(err)
	}

	return b
}
