package fhe

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	EIP712DomainName    = "Authorization token"
	EIP712DomainVersion = "1"
	ReencryptType       = "Reencrypt"
)

// NewReencryptTypedData binds a re-encryption public key and a ciphertext
// handle to the contract that owns the handle. The gateway rebuilds the same
// payload to check the user's signature.
func NewReencryptTypedData(chainId uint64, publicKey []byte, handle *big.Int, contractAddress common.Address) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			ReencryptType: {
				{Name: "publicKey", Type: "bytes"},
				{Name: "handle", Type: "uint256"},
			},
		},
		PrimaryType: ReencryptType,
		Domain: apitypes.TypedDataDomain{
			Name:              EIP712DomainName,
			Version:           EIP712DomainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetUint64(chainId)),
			VerifyingContract: contractAddress.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"publicKey": hexutil.Encode(publicKey),
			"handle":    handle.String(),
		},
	}
}

func TypedDataHash(typedData apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("apitypes.TypedDataAndHash err: %w", err)
	}
	return hash, nil
}

// RecoverTypedDataSigner returns the address that produced sig over
// typedData. Both wallet style (V = 27/28) and raw (V = 0/1) signatures are
// accepted.
func RecoverTypedDataSigner(typedData apitypes.TypedData, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(sig))
	}
	hash, err := TypedDataHash(typedData)
	if err != nil {
		return common.Address{}, err
	}
	s := make([]byte, len(sig))
	copy(s, sig)
	if s[crypto.RecoveryIDOffset] >= 27 {
		s[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(hash, s)
	if err != nil {
		return common.Address{}, fmt.Errorf("crypto.SigToPub err: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
