package sdk

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/fhevm-network/fhevm-sdk/fhe"
)

// Signer authorises re-encryption requests. SignTypedData may block on user
// confirmation and returns an error when the user rejects.
type Signer interface {
	Address(ctx context.Context) (common.Address, error)
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error)
}

// Transactor is implemented by signers that can also sign transactions.
// ContractHelper requires it for Transact.
type Transactor interface {
	TransactOpts(chainId *big.Int) (*bind.TransactOpts, error)
}

type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var (
	_ Signer     = (*LocalSigner)(nil)
	_ Transactor = (*LocalSigner)(nil)
)

// NewLocalSigner parses a hex encoded secp256k1 private key, with or without
// 0x prefix.
func NewLocalSigner(hexKey string) (*LocalSigner, error) {
	if len(hexKey) > 1 && hexKey[0] == '0' && (hexKey[1] == 'x' || hexKey[1] == 'X') {
		hexKey = hexKey[2:]
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key: %w", ErrValidation, err)
	}
	return NewLocalSignerFromKey(key), nil
}

func NewLocalSignerFromKey(key *ecdsa.PrivateKey) *LocalSigner {
	return &LocalSigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

func (s *LocalSigner) Address(_ context.Context) (common.Address, error) {
	return s.address, nil
}

// SignTypedData returns a 65 byte signature with V in {27, 28}, the format
// wallets produce for eth_signTypedData_v4.
func (s *LocalSigner) SignTypedData(_ context.Context, typedData apitypes.TypedData) ([]byte, error) {
	hash, err := fhe.TypedDataHash(typedData)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return nil, fmt.Errorf("crypto.Sign err: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func (s *LocalSigner) TransactOpts(chainId *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(s.key, chainId)
}
