package sdk

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ratingABI = `[
	{"type":"function","name":"submitReview","stateMutability":"nonpayable","inputs":[{"name":"_restaurantId","type":"uint32"},{"name":"_overallRating","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"hasReviewed","stateMutability":"view","inputs":[{"name":"_restaurantId","type":"uint32"},{"name":"_user","type":"address"}],"outputs":[{"name":"","type":"bool"}]}
]`

// stubBackend satisfies ContractBackend; calling any method panics.
type stubBackend struct {
	ContractBackend
}

func TestNewContractHelper(t *testing.T) {
	noSigner, _ := newMockClient(t, nil)
	_, err := NewContractHelper(noSigner, testContract, ratingABI, stubBackend{})
	assert.ErrorIs(t, err, ErrPartiallyInitialized)

	signer := newTestSigner(t)
	c, _ := newMockClient(t, signer)
	_, err = NewContractHelper(c, "0x0000000000000000000000000000000000000000", ratingABI, stubBackend{})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = NewContractHelper(c, testContract, "{", stubBackend{})
	assert.ErrorIs(t, err, ErrValidation)
	// fakeProvider cannot serve contract calls
	_, err = NewContractHelper(c, testContract, ratingABI, nil)
	assert.ErrorContains(t, err, "provider does not support contract calls")

	h, err := NewContractHelper(c, testContract, ratingABI, stubBackend{})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testContract), h.Address())
	assert.Contains(t, h.ABI().Methods, "submitReview")
}

func TestContractHelperDecrypt(t *testing.T) {
	signer := newTestSigner(t)
	c, engine := newMockClient(t, signer)
	expectDecrypt(engine, signer, "1", big.NewInt(8), nil)
	expectDecrypt(engine, signer, "2", big.NewInt(9), nil)

	// the helper always decrypts on behalf of its own, checksummed address
	h, err := NewContractHelper(c, testContract, ratingABI, stubBackend{})
	require.NoError(t, err)

	v, err := h.Decrypt(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), v.Int64())

	results, err := h.BatchDecrypt(context.Background(), []string{"1", "2"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(9), results[1].Value.Int64())
	assert.Equal(t, common.HexToAddress(testContract).Hex(), results[1].ContractAddress)
}
