package sdk

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fhevm-network/fhevm-sdk/common/utils"
	"github.com/fhevm-network/fhevm-sdk/gateway"
	"github.com/fhevm-network/fhevm-sdk/gateway/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Encrypts with the real engine, registers the ciphertexts with a dev gateway
// and decrypts them back through the signer-authorised path.
func TestEncryptDecryptThroughGateway(t *testing.T) {
	svc, err := server.NewService(server.ServiceConfig{ChainId: testChainId})
	require.NoError(t, err)
	defer svc.Close()
	ts := httptest.NewServer(svc.Handler())
	defer ts.Close()

	config := testConfig()
	config.Network.GatewayUrl = ts.URL
	signer := newTestSigner(t)
	c := NewFhevmClient(config)
	require.NoError(t, c.Init(context.Background(), &fakeProvider{chainId: testChainId}, signer))
	defer c.Close()

	gw, err := gateway.NewClient(ts.URL)
	require.NoError(t, err)
	register := func(ct []byte) string {
		resp, err := gw.StoreCiphertext(context.Background(), &gateway.StoreCiphertextRequest{
			Ciphertext:      utils.ToHexString(ct),
			ContractAddress: testContract,
			AllowedUsers:    []string{signer.address.Hex()},
		})
		require.NoError(t, err)
		return resp.Handle
	}

	rating, err := EncryptRating(c, 9)
	require.NoError(t, err)
	flag, err := c.EncryptBool(true)
	require.NoError(t, err)
	owner, err := c.EncryptAddress(signer.address.Hex())
	require.NoError(t, err)
	handles := []string{register(rating), register(flag), register(owner)}

	r, err := DecryptRating(context.Background(), c, testContract, handles[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(9), r)

	results, err := c.BatchDecrypt(context.Background(), []DecryptionRequest{
		{ContractAddress: testContract, Handle: handles[1]},
		{ContractAddress: testContract, Handle: handles[2]},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), results[0].Value.Int64())
	assert.Equal(t, signer.address, common.BigToAddress(results[1].Value))

	// handles the gateway never saw fail the whole batch
	_, err = c.BatchDecrypt(context.Background(), []DecryptionRequest{
		{ContractAddress: testContract, Handle: handles[0]},
		{ContractAddress: testContract, Handle: "0x01"},
	})
	assert.ErrorIs(t, err, ErrBatchFailure)
}
