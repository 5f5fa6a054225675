package fhe

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/fhevm-network/fhevm-sdk/common/utils"
	"github.com/fhevm-network/fhevm-sdk/gateway"
	"github.com/rs/zerolog/log"
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/schemes/bgv"
)

// latticeEngine encrypts under a BGV public key. Each value occupies the
// first limbCount(t) slots of a single ciphertext.
type latticeEngine struct {
	chainId uint64
	params  bgv.Parameters
	gw      *gateway.Client

	// rlwe encoders and encryptors keep scratch buffers
	mu        sync.Mutex
	encoder   *bgv.Encoder
	encryptor *rlwe.Encryptor
}

// NewEngine creates the default engine. Without params.PublicKey the network
// key is fetched from params.GatewayUrl.
func NewEngine(ctx context.Context, p Params) (Engine, error) {
	if p.ChainId == 0 {
		return nil, fmt.Errorf("chain id is required")
	}
	var gw *gateway.Client
	if p.GatewayUrl != "" {
		var err error
		gw, err = gateway.NewClient(p.GatewayUrl)
		if err != nil {
			return nil, err
		}
	}

	pkBytes, err := resolvePublicKey(ctx, p, gw)
	if err != nil {
		return nil, err
	}
	params, err := NewParameters()
	if err != nil {
		return nil, err
	}
	pk := new(rlwe.PublicKey)
	if err = pk.UnmarshalBinary(pkBytes); err != nil {
		return nil, fmt.Errorf("pk.UnmarshalBinary err: %w", err)
	}

	return &latticeEngine{
		chainId:   p.ChainId,
		params:    params,
		gw:        gw,
		encoder:   bgv.NewEncoder(params),
		encryptor: rlwe.NewEncryptor(params, pk),
	}, nil
}

func resolvePublicKey(ctx context.Context, p Params, gw *gateway.Client) ([]byte, error) {
	if p.PublicKey != "" {
		return utils.FromHexString(p.PublicKey)
	}
	if gw == nil {
		return nil, ErrNoPublicKey
	}
	log.Debug().Str("gateway", gw.Url()).Msg("fetching network public key")
	resp, err := gw.GetPublicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetPublicKey err: %w", err)
	}
	if resp.ChainId != p.ChainId {
		return nil, fmt.Errorf("%w: gateway serves %d, want %d", ErrChainIdMismatch, resp.ChainId, p.ChainId)
	}
	return utils.FromHexString(resp.PublicKey)
}

func (e *latticeEngine) Encrypt8(value uint64) ([]byte, error) {
	return e.encrypt(TypeUint8, new(big.Int).SetUint64(value))
}

func (e *latticeEngine) Encrypt16(value uint64) ([]byte, error) {
	return e.encrypt(TypeUint16, new(big.Int).SetUint64(value))
}

func (e *latticeEngine) Encrypt32(value uint64) ([]byte, error) {
	return e.encrypt(TypeUint32, new(big.Int).SetUint64(value))
}

func (e *latticeEngine) Encrypt64(value uint64) ([]byte, error) {
	return e.encrypt(TypeUint64, new(big.Int).SetUint64(value))
}

func (e *latticeEngine) Encrypt160(value *big.Int) ([]byte, error) {
	return e.encrypt(TypeAddress, value)
}

func (e *latticeEngine) encrypt(t FheType, value *big.Int) ([]byte, error) {
	if err := checkRange(value, t); err != nil {
		return nil, err
	}
	slots := make([]uint64, e.params.MaxSlots())
	toLimbs(value, slots, limbCount(t))

	e.mu.Lock()
	defer e.mu.Unlock()

	pt := bgv.NewPlaintext(e.params, e.params.MaxLevel())
	if err := e.encoder.Encode(slots, pt); err != nil {
		return nil, fmt.Errorf("encoder.Encode err: %w", err)
	}
	ct := bgv.NewCiphertext(e.params, 1, e.params.MaxLevel())
	if err := e.encryptor.Encrypt(pt, ct); err != nil {
		return nil, fmt.Errorf("encryptor.Encrypt err: %w", err)
	}
	return marshalEnvelope(t, ct)
}

func (e *latticeEngine) GenerateKeypair() (*Keypair, error) {
	return GenerateKeypair()
}

func (e *latticeEngine) CreateEIP712(publicKey []byte, handle string, contractAddress common.Address) (*apitypes.TypedData, error) {
	if len(publicKey) != keySize {
		return nil, ErrInvalidPublicKey
	}
	h, err := utils.ParseHandle(handle)
	if err != nil {
		return nil, err
	}
	typedData := NewReencryptTypedData(e.chainId, publicKey, h, contractAddress)
	return &typedData, nil
}

func (e *latticeEngine) Reencrypt(ctx context.Context, p ReencryptParams) (*big.Int, error) {
	if e.gw == nil {
		return nil, ErrNoGateway
	}
	if p.Keypair == nil {
		return nil, fmt.Errorf("keypair is required")
	}
	resp, err := e.gw.Reencrypt(ctx, &gateway.ReencryptRequest{
		Handle:          p.Handle,
		ContractAddress: p.ContractAddress.Hex(),
		UserAddress:     p.UserAddress.Hex(),
		PublicKey:       hexutil.Encode(p.Keypair.PublicKey),
		Signature:       hexutil.Encode(p.Signature),
	})
	if err != nil {
		return nil, err
	}
	sealed, err := utils.FromHexString(resp.Sealed)
	if err != nil {
		return nil, fmt.Errorf("invalid sealed value: %w", err)
	}
	plaintext, err := p.Keypair.Open(sealed)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(plaintext), nil
}
