// Package fhe is the FHE engine consumed by the sdk client. It encrypts
// integers under the network public key, builds the EIP-712 payload that
// authorises a re-encryption and talks to the decryption gateway.
package fhe

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

var (
	ErrValueOutOfRange  = errors.New("value out of range")
	ErrNoPublicKey      = errors.New("no network public key: set a public key or a gateway url")
	ErrNoGateway        = errors.New("no gateway url configured")
	ErrInvalidEnvelope  = errors.New("invalid ciphertext envelope")
	ErrChainIdMismatch  = errors.New("chain id mismatch")
	ErrInvalidPublicKey = errors.New("invalid re-encryption public key")
)

// Params are the arguments of the engine factory.
type Params struct {
	ChainId uint64
	// PublicKey is the hex encoded network FHE public key. When empty the
	// engine fetches it from the gateway.
	PublicKey          string
	GatewayUrl         string
	AclAddress         string
	KmsVerifierAddress string
}

// Keypair is the user's re-encryption keypair. The gateway seals plaintexts
// to PublicKey and only PrivateKey can open them.
type Keypair struct {
	PublicKey  hexutil.Bytes `json:"publicKey"`
	PrivateKey hexutil.Bytes `json:"privateKey"`
}

// ReencryptParams carries everything the gateway needs to release a
// plaintext to UserAddress.
type ReencryptParams struct {
	Handle          string
	ContractAddress common.Address
	UserAddress     common.Address
	Signature       []byte
	Keypair         *Keypair
}

// Engine encrypts values locally and decrypts through the gateway. Encryption
// is synchronous and safe for concurrent use; Reencrypt blocks on the network.
type Engine interface {
	Encrypt8(value uint64) ([]byte, error)
	Encrypt16(value uint64) ([]byte, error)
	Encrypt32(value uint64) ([]byte, error)
	Encrypt64(value uint64) ([]byte, error)
	// Encrypt160 encrypts a full 20-byte address.
	Encrypt160(value *big.Int) ([]byte, error)

	GenerateKeypair() (*Keypair, error)
	CreateEIP712(publicKey []byte, handle string, contractAddress common.Address) (*apitypes.TypedData, error)
	Reencrypt(ctx context.Context, params ReencryptParams) (*big.Int, error)
}

// Factory creates an Engine. NewEngine is the default.
type Factory func(ctx context.Context, params Params) (Engine, error)

var _ Factory = NewEngine
