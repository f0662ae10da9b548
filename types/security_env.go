package types

import "fmt"

type SecurityOperation int

const (
	OperationDecipher SecurityOperation = iota
	OperationSign
	OperationAuthenticate
)

func (o SecurityOperation) String() string {
	switch o {
	case OperationDecipher:
		return "decipher"
	case OperationSign:
		return "sign"
	case OperationAuthenticate:
		return "authenticate"
	default:
		return fmt.Sprintf("SecurityOperation(%d)", int(o))
	}
}

type SecurityEnvFlags uint

const (
	SecurityEnvAlgRefPresent SecurityEnvFlags = 1 << iota
	SecurityEnvFileRefPresent
	SecurityEnvKeyRefPresent
)

// SecurityEnv selects the key and algorithm used by the next cryptographic
// operation on the card.
type SecurityEnv struct {
	Operation    SecurityOperation
	Flags        SecurityEnvFlags
	AlgorithmRef uint8
	FileRef      Path
	KeyRef       []byte
}
