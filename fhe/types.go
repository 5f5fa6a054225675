package fhe

import (
	"fmt"
)

// FheType tags an encrypted value with its plaintext width. The numbering
// follows the fhevm type ids so envelopes stay recognisable to fhevm tooling.
type FheType uint8

const (
	TypeBool    FheType = 0
	TypeUint8   FheType = 2
	TypeUint16  FheType = 3
	TypeUint32  FheType = 4
	TypeUint64  FheType = 5
	TypeAddress FheType = 7
)

// Bits returns the plaintext width of t, or 0 for unknown tags.
func (t FheType) Bits() int {
	switch t {
	case TypeBool:
		return 1
	case TypeUint8:
		return 8
	case TypeUint16:
		return 16
	case TypeUint32:
		return 32
	case TypeUint64:
		return 64
	case TypeAddress:
		return 160
	default:
		return 0
	}
}

func (t FheType) Valid() bool {
	return t.Bits() != 0
}

func (t FheType) String() string {
	switch t {
	case TypeBool:
		return "ebool"
	case TypeUint8:
		return "euint8"
	case TypeUint16:
		return "euint16"
	case TypeUint32:
		return "euint32"
	case TypeUint64:
		return "euint64"
	case TypeAddress:
		return "eaddress"
	default:
		return fmt.Sprintf("FheType(%d)", uint8(t))
	}
}
