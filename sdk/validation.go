package sdk

import (
	"fmt"
	"math"
	"math/big"
	"net/url"
	"strconv"

	"github.com/fhevm-network/fhevm-sdk/common/utils"
)

type TypeRange struct {
	Min *big.Int
	Max *big.Int
}

// ValidateEncryptionType reports whether t is one of the encrypted types.
func ValidateEncryptionType(t string) bool {
	_, err := ParseEncryptedType(t)
	return err == nil
}

// ValidateValueForType reports whether value, in its textual form, fits t.
// Integers are decimal or 0x hex; bools are true, false, 1 or 0; addresses
// are 0x followed by 40 hex characters.
func ValidateValueForType(value string, t string) bool {
	typ, err := ParseEncryptedType(t)
	if err != nil {
		return false
	}
	switch typ {
	case TypeBool:
		_, err = parseBool(value)
		return err == nil
	case TypeAddress:
		return utils.IsHexAddress(value)
	default:
		_, err = parseUint(value, typ)
		return err == nil
	}
}

// GetTypeRange returns the inclusive range of an integer type, or nil for
// bool, address and unknown types.
func GetTypeRange(t string) *TypeRange {
	typ, err := ParseEncryptedType(t)
	if err != nil {
		return nil
	}
	var max uint64
	switch typ {
	case TypeUint8:
		max = math.MaxUint8
	case TypeUint16:
		max = math.MaxUint16
	case TypeUint32:
		max = math.MaxUint32
	case TypeUint64:
		max = math.MaxUint64
	default:
		return nil
	}
	return &TypeRange{Min: new(big.Int), Max: new(big.Int).SetUint64(max)}
}

// FormatEncryptedData renders a ciphertext for display, truncated to
// maxLength hex characters. maxLength <= 0 means 40.
func FormatEncryptedData(data []byte, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 40
	}
	h := utils.Bytes2Hex(data)
	if len(h) <= maxLength {
		return "0x" + h
	}
	return "0x" + h[:maxLength] + "..."
}

func ValidateContractAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: address is required", ErrValidation)
	}
	if !utils.IsHexAddress(address) {
		return fmt.Errorf("%w: invalid address format", ErrValidation)
	}
	if utils.Hex2Addr(address) == utils.ZeroAddr {
		return fmt.Errorf("%w: cannot use zero address", ErrValidation)
	}
	return nil
}

func ValidateChainId(chainId int64) bool {
	return chainId > 0
}

func ValidateRpcUrl(rpcUrl string) error {
	if rpcUrl == "" {
		return fmt.Errorf("%w: rpc url is required", ErrValidation)
	}
	u, err := url.Parse(rpcUrl)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: invalid url format", ErrValidation)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
		return nil
	default:
		return fmt.Errorf("%w: invalid protocol %s", ErrValidation, u.Scheme)
	}
}

func parseBool(value string) (bool, error) {
	switch value {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not a bool", ErrValidation, value)
}

func parseUint(value string, t EncryptedType) (uint64, error) {
	base := 10
	if len(value) > 2 && value[0] == '0' && (value[1] == 'x' || value[1] == 'X') {
		value, base = value[2:], 16
	}
	v, err := strconv.ParseUint(value, base, t.bits())
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a valid %s", ErrValidation, value, t)
	}
	return v, nil
}
