package utils

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ZeroAddr is all 0s
	ZeroAddr common.Address
	// AddressLength is the expected length of an address in bytes
	AddressLength = common.AddressLength
)

// ========== Hex/Bytes ==========

// ToHexString returns the lowercase hex encoding of b with a 0x prefix. The
// result always has length 2+2*len(b).
func ToHexString(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// FromHexString is the strict inverse of ToHexString. The 0x prefix is
// optional; odd-length or non-hex input is rejected instead of being padded.
func FromHexString(s string) ([]byte, error) {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd length hex string: %d", len(s))
	}
	if !isHex(s) {
		return nil, fmt.Errorf("invalid hex string %q", s)
	}
	return hex.DecodeString(s)
}

// isHex validates whether each byte is valid hexadecimal string.
func isHex(str string) bool {
	if len(str)%2 != 0 {
		return false
	}
	for _, c := range []byte(str) {
		if !isHexCharacter(c) {
			return false
		}
	}
	return true
}

// isHexCharacter returns bool of c being a valid hexadecimal.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// has0xPrefix validates str begins with '0x' or '0X'.
func has0xPrefix(str string) bool {
	return len(str) >= 2 && str[0] == '0' && (str[1] == 'x' || str[1] == 'X')
}

// Bytes2Hex returns hex string without 0x prefix
func Bytes2Hex(b []byte) string {
	return hex.EncodeToString(b)
}

// ========== Address ==========

// IsHexAddress reports whether s is exactly 0x followed by 40 hex characters.
func IsHexAddress(s string) bool {
	return len(s) == 2+2*AddressLength && has0xPrefix(s) && isHex(s[2:])
}

// Hex2Addr accepts hex string with or without 0x prefix and return Address
func Hex2Addr(s string) common.Address {
	return common.HexToAddress(s)
}

// ParseAddress is Hex2Addr with validation.
func ParseAddress(s string) (common.Address, error) {
	if !IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// ========== Numbers ==========

// ParseBig parses a decimal or 0x-prefixed hex integer. Negative values are
// rejected.
func ParseBig(s string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("%s is not a valid integer", s)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%s is negative", s)
	}
	return value, nil
}

// ParseHandle parses a ciphertext handle. Handles are uint256 values given
// as decimal or 0x hex strings.
func ParseHandle(s string) (*big.Int, error) {
	value, err := ParseBig(s)
	if err != nil {
		return nil, err
	}
	if value.BitLen() > 256 {
		return nil, fmt.Errorf("handle %s exceeds 32 bytes", s)
	}
	return value, nil
}
