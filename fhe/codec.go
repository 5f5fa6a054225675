package fhe

import (
	"fmt"
	"math/big"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/schemes/bgv"
)

const (
	// LimbBits is the width of one plaintext slot. Values wider than a slot
	// are split into little-endian limbs, one per slot.
	LimbBits = 16

	plaintextModulus = 65537
)

// DefaultParametersLiteral is shared by the gateway and every engine; a
// ciphertext only decrypts under the parameters it was produced with.
var DefaultParametersLiteral = bgv.ParametersLiteral{
	LogN:             12,
	LogQ:             []int{56},
	PlaintextModulus: plaintextModulus,
}

func NewParameters() (bgv.Parameters, error) {
	params, err := bgv.NewParametersFromLiteral(DefaultParametersLiteral)
	if err != nil {
		return bgv.Parameters{}, fmt.Errorf("bgv.NewParametersFromLiteral err: %w", err)
	}
	return params, nil
}

func limbCount(t FheType) int {
	return (t.Bits() + LimbBits - 1) / LimbBits
}

func checkRange(value *big.Int, t FheType) error {
	if value.Sign() < 0 || value.BitLen() > t.Bits() {
		return fmt.Errorf("%w: %s does not fit %s", ErrValueOutOfRange, value.String(), t)
	}
	return nil
}

// toLimbs writes value into slots as little-endian LimbBits wide limbs.
func toLimbs(value *big.Int, slots []uint64, n int) {
	mask := big.NewInt(1<<LimbBits - 1)
	v := new(big.Int).Set(value)
	limb := new(big.Int)
	for i := 0; i < n; i++ {
		slots[i] = limb.And(v, mask).Uint64()
		v.Rsh(v, LimbBits)
	}
}

func fromLimbs(slots []uint64, n int) *big.Int {
	value := new(big.Int)
	for i := n - 1; i >= 0; i-- {
		value.Lsh(value, LimbBits)
		value.Or(value, new(big.Int).SetUint64(slots[i]))
	}
	return value
}

// An envelope is one FheType byte followed by the serialized ciphertext.
func marshalEnvelope(t FheType, ct *rlwe.Ciphertext) ([]byte, error) {
	b, err := ct.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("ct.MarshalBinary err: %w", err)
	}
	return append([]byte{byte(t)}, b...), nil
}

// ParseEnvelope splits an envelope into its type tag and ciphertext.
func ParseEnvelope(envelope []byte) (FheType, *rlwe.Ciphertext, error) {
	if len(envelope) < 2 {
		return 0, nil, ErrInvalidEnvelope
	}
	t := FheType(envelope[0])
	if !t.Valid() {
		return 0, nil, fmt.Errorf("%w: unknown type tag %d", ErrInvalidEnvelope, envelope[0])
	}
	ct := new(rlwe.Ciphertext)
	if err := ct.UnmarshalBinary(envelope[1:]); err != nil {
		return 0, nil, fmt.Errorf("%w: %s", ErrInvalidEnvelope, err.Error())
	}
	return t, ct, nil
}
