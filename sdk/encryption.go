package sdk

import (
	"fmt"
	"strings"

	"github.com/fhevm-network/fhevm-sdk/common/utils"
)

type EncryptedType string

const (
	TypeUint8   EncryptedType = "uint8"
	TypeUint16  EncryptedType = "uint16"
	TypeUint32  EncryptedType = "uint32"
	TypeUint64  EncryptedType = "uint64"
	TypeBool    EncryptedType = "bool"
	TypeAddress EncryptedType = "address"
)

// ParseEncryptedType accepts both the plain ("uint8") and the Solidity
// ("euint8") spelling.
func ParseEncryptedType(s string) (EncryptedType, error) {
	t := EncryptedType(strings.TrimPrefix(s, "e"))
	switch t {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeBool, TypeAddress:
		return t, nil
	}
	return "", fmt.Errorf("%w: unsupported type %q", ErrValidation, s)
}

func (t EncryptedType) bits() int {
	switch t {
	case TypeUint8, TypeBool:
		return 8
	case TypeUint16:
		return 16
	case TypeUint32:
		return 32
	case TypeUint64:
		return 64
	case TypeAddress:
		return 160
	}
	return 0
}

// EncryptedValue is an opaque engine envelope tagged with its type.
type EncryptedValue struct {
	Data []byte        `json:"data"`
	Type EncryptedType `json:"type"`
}

func (v EncryptedValue) Hex() string {
	return utils.ToHexString(v.Data)
}

type PlainValue struct {
	// Value is decimal or 0x hex for integers, true/false/1/0 for bool and
	// a hex address for address.
	Value string
	Type  EncryptedType
}

// Encrypter is the encryption half of FhevmClient.
type Encrypter interface {
	Encrypt8(value uint64) ([]byte, error)
	Encrypt16(value uint64) ([]byte, error)
	Encrypt32(value uint64) ([]byte, error)
	Encrypt64(value uint64) ([]byte, error)
	EncryptBool(value bool) ([]byte, error)
	EncryptAddress(address string) ([]byte, error)
}

var _ Encrypter = (*FhevmClient)(nil)

func EncryptRating(e Encrypter, rating uint64) ([]byte, error) {
	if rating < 1 || rating > 10 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 10, got %d", ErrValidation, rating)
	}
	return e.Encrypt8(rating)
}

func EncryptPercentage(e Encrypter, percentage uint64) ([]byte, error) {
	if percentage > 100 {
		return nil, fmt.Errorf("%w: percentage must be between 0 and 100, got %d", ErrValidation, percentage)
	}
	return e.Encrypt8(percentage)
}

// EncryptScore encrypts score at the given width, one of 8, 16, 32 and 64.
func EncryptScore(e Encrypter, score uint64, bits int) ([]byte, error) {
	switch bits {
	case 8:
		return e.Encrypt8(score)
	case 16:
		return e.Encrypt16(score)
	case 32:
		return e.Encrypt32(score)
	case 64:
		return e.Encrypt64(score)
	default:
		return nil, fmt.Errorf("%w: invalid bit size %d", ErrValidation, bits)
	}
}

func EncryptBoolean(e Encrypter, value bool) ([]byte, error) {
	return e.EncryptBool(value)
}

// EncryptAmount scales a decimal amount such as "1.5" by 10^decimals and
// encrypts it as a uint64.
func EncryptAmount(e Encrypter, amount string, decimals uint) ([]byte, error) {
	wei, err := utils.ParseUnits(amount, decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if !wei.IsUint64() {
		return nil, fmt.Errorf("%w: amount %s with %d decimals overflows uint64", ErrValidation, amount, decimals)
	}
	return e.Encrypt64(wei.Uint64())
}

// EncryptValue validates value against t and dispatches to the matching
// encrypt operation.
func EncryptValue(e Encrypter, t EncryptedType, value string) (EncryptedValue, error) {
	typ, err := ParseEncryptedType(string(t))
	if err != nil {
		return EncryptedValue{}, err
	}
	var data []byte
	switch typ {
	case TypeBool:
		b, perr := parseBool(value)
		if perr != nil {
			return EncryptedValue{}, perr
		}
		data, err = e.EncryptBool(b)
	case TypeAddress:
		data, err = e.EncryptAddress(value)
	default:
		v, perr := parseUint(value, typ)
		if perr != nil {
			return EncryptedValue{}, perr
		}
		data, err = EncryptScore(e, v, typ.bits())
	}
	if err != nil {
		return EncryptedValue{}, err
	}
	return EncryptedValue{Data: data, Type: typ}, nil
}

// BatchEncrypt encrypts values in order and stops at the first failure.
func BatchEncrypt(e Encrypter, values []PlainValue) ([]EncryptedValue, error) {
	out := make([]EncryptedValue, 0, len(values))
	for i, v := range values {
		ev, err := EncryptValue(e, v.Type, v.Value)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}
