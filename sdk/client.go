package sdk

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/fhevm-network/fhevm-sdk/common/utils"
	"github.com/fhevm-network/fhevm-sdk/fhe"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

type DecryptionRequest struct {
	ContractAddress string `json:"contractAddress"`
	Handle          string `json:"handle"`
}

type DecryptionResult struct {
	Value           *big.Int `json:"value"`
	ContractAddress string   `json:"contractAddress"`
	Handle          string   `json:"handle"`
}

// SettledResult is one entry of BatchDecryptSettled. Exactly one of
// Result.Value and Err is set.
type SettledResult struct {
	Result DecryptionResult
	Err    error
}

// FhevmClient owns one FHE engine and the chain connection and signer used to
// authorise decryptions. Create it with NewFhevmClient, then call Init once.
// Encryption is safe for concurrent use once the client is ready.
type FhevmClient struct {
	config    FhevmConfig
	newEngine fhe.Factory
	dial      Dialer

	initGroup singleflight.Group

	mu sync.RWMutex
	// bumped by Close so a concurrent Init does not resurrect discarded state
	epoch        uint64
	state        State
	engine       fhe.Engine
	provider     Provider
	ownsProvider bool
	signer       Signer
	keypair      *fhe.Keypair
}

// NewFhevmClient holds config verbatim. It performs no I/O.
func NewFhevmClient(config FhevmConfig, opts ...ClientOption) *FhevmClient {
	c := &FhevmClient{
		config:    config,
		newEngine: fhe.NewEngine,
		dial:      DialProvider,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init creates the engine. A nil provider is dialed from the configured
// RpcUrl. With a signer the client also derives a re-encryption keypair and
// can decrypt; without one it can only encrypt.
//
// Concurrent calls share a single initialisation and all observe its result.
// The shared run does not inherit the cancellation of whichever caller
// started it; a caller whose ctx ends stops waiting and gets ctx.Err() while
// the others keep theirs. Init on a ready client is a no-op. After a failure
// the client stays usable and Init may be retried.
func (c *FhevmClient) Init(ctx context.Context, provider Provider, signer Signer) error {
	ch := c.initGroup.DoChan("init", func() (any, error) {
		return nil, c.init(context.WithoutCancel(ctx), provider, signer)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrInitialization, ctx.Err())
	}
}

func (c *FhevmClient) init(ctx context.Context, provider Provider, signer Signer) error {
	c.mu.Lock()
	if c.state == StateReady {
		c.mu.Unlock()
		return nil
	}
	c.state = StateInitializing
	epoch := c.epoch
	c.mu.Unlock()

	res, err := c.setup(ctx, provider, signer)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		res.close()
		return fmt.Errorf("%w: client closed during init", ErrInitialization)
	}
	if err != nil {
		res.close()
		c.state = StateFailed
		log.Warn().Err(err).Uint64("chain_id", c.config.Network.ChainId).Msg("fhevm client init failed")
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	c.engine = res.engine
	c.provider = res.provider
	c.ownsProvider = res.ownsProvider
	c.signer = signer
	c.keypair = res.keypair
	c.state = StateReady
	log.Debug().Uint64("chain_id", c.config.Network.ChainId).Bool("signer", signer != nil).Msg("fhevm client ready")
	return nil
}

type setupResult struct {
	engine       fhe.Engine
	provider     Provider
	ownsProvider bool
	keypair      *fhe.Keypair
}

func (r *setupResult) close() {
	if r.ownsProvider {
		closeProvider(r.provider)
	}
}

func (c *FhevmClient) setup(ctx context.Context, provider Provider, signer Signer) (*setupResult, error) {
	res := &setupResult{provider: provider}
	if err := c.config.Validate(); err != nil {
		return res, err
	}
	if provider == nil {
		p, err := c.dial(ctx, c.config.Network.RpcUrl)
		if err != nil {
			return res, fmt.Errorf("dial %s: %w", c.config.Network.RpcUrl, err)
		}
		res.provider, res.ownsProvider = p, true
	}
	chainId, err := res.provider.ChainID(ctx)
	if err != nil {
		return res, fmt.Errorf("provider.ChainID err: %w", err)
	}
	if !chainId.IsUint64() || chainId.Uint64() != c.config.Network.ChainId {
		return res, fmt.Errorf("provider is on chain %s, want %d", chainId, c.config.Network.ChainId)
	}

	res.engine, err = c.newEngine(ctx, fhe.Params{
		ChainId:            c.config.Network.ChainId,
		PublicKey:          c.publicKey(),
		GatewayUrl:         c.config.Network.GatewayUrl,
		AclAddress:         c.config.Network.AclAddress,
		KmsVerifierAddress: c.config.KmsVerifierAddress,
	})
	if err != nil {
		return res, fmt.Errorf("create engine: %w", err)
	}

	if signer != nil {
		if _, err = signer.Address(ctx); err != nil {
			return res, fmt.Errorf("signer.Address err: %w", err)
		}
		res.keypair, err = res.engine.GenerateKeypair()
		if err != nil {
			return res, fmt.Errorf("GenerateKeypair err: %w", err)
		}
	}
	return res, nil
}

// publicKey is always empty: the engine resolves the network key from the
// gateway itself.
func (c *FhevmClient) publicKey() string {
	return ""
}

func closeProvider(p Provider) {
	if closer, ok := p.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (c *FhevmClient) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engine != nil
}

func (c *FhevmClient) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *FhevmClient) Engine() (fhe.Engine, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.engine == nil {
		return nil, ErrUninitialized
	}
	return c.engine, nil
}

func (c *FhevmClient) Encrypt8(value uint64) ([]byte, error) {
	e, err := c.Engine()
	if err != nil {
		return nil, err
	}
	return e.Encrypt8(value)
}

func (c *FhevmClient) Encrypt16(value uint64) ([]byte, error) {
	e, err := c.Engine()
	if err != nil {
		return nil, err
	}
	return e.Encrypt16(value)
}

func (c *FhevmClient) Encrypt32(value uint64) ([]byte, error) {
	e, err := c.Engine()
	if err != nil {
		return nil, err
	}
	return e.Encrypt32(value)
}

func (c *FhevmClient) Encrypt64(value uint64) ([]byte, error) {
	e, err := c.Engine()
	if err != nil {
		return nil, err
	}
	return e.Encrypt64(value)
}

// EncryptBool encrypts true as Encrypt8(1) and false as Encrypt8(0).
func (c *FhevmClient) EncryptBool(value bool) ([]byte, error) {
	if value {
		return c.Encrypt8(1)
	}
	return c.Encrypt8(0)
}

// EncryptAddress encrypts all 160 bits of a 0x prefixed hex address.
func (c *FhevmClient) EncryptAddress(address string) ([]byte, error) {
	e, err := c.Engine()
	if err != nil {
		return nil, err
	}
	addr, err := utils.ParseAddress(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return e.Encrypt160(new(big.Int).SetBytes(addr.Bytes()))
}

// RequestDecrypt asks the signer to authorise a re-encryption of handle and
// returns the plaintext from the gateway. It blocks on the signer and the
// network.
func (c *FhevmClient) RequestDecrypt(ctx context.Context, contractAddress, handle string) (*big.Int, error) {
	c.mu.RLock()
	engine, signer, keypair := c.engine, c.signer, c.keypair
	c.mu.RUnlock()
	if engine == nil {
		return nil, fmt.Errorf("%w: %w", ErrPartiallyInitialized, ErrUninitialized)
	}
	if signer == nil || keypair == nil {
		return nil, ErrPartiallyInitialized
	}

	contract, err := utils.ParseAddress(contractAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrDecryption, ErrValidation, err)
	}
	user, err := signer.Address(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: signer address: %w", ErrDecryption, err)
	}
	typedData, err := engine.CreateEIP712(keypair.PublicKey, handle, contract)
	if err != nil {
		return nil, fmt.Errorf("%w: create EIP-712 payload: %w", ErrDecryption, err)
	}
	sig, err := signer.SignTypedData(ctx, *typedData)
	if err != nil {
		return nil, fmt.Errorf("%w: sign: %w", ErrDecryption, err)
	}
	value, err := engine.Reencrypt(ctx, fhe.ReencryptParams{
		Handle:          handle,
		ContractAddress: contract,
		UserAddress:     user,
		Signature:       sig,
		Keypair:         keypair,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reencrypt: %w", ErrDecryption, err)
	}
	return value, nil
}

// BatchDecrypt decrypts requests one at a time, in order, so a wallet signer
// never sees more than one pending prompt. The first failure aborts the batch
// and no results are returned.
func (c *FhevmClient) BatchDecrypt(ctx context.Context, requests []DecryptionRequest) ([]DecryptionResult, error) {
	results := make([]DecryptionResult, 0, len(requests))
	for i, req := range requests {
		value, err := c.RequestDecrypt(ctx, req.ContractAddress, req.Handle)
		if err != nil {
			return nil, fmt.Errorf("%w: request %d: %w", ErrBatchFailure, i, err)
		}
		results = append(results, DecryptionResult{Value: value, ContractAddress: req.ContractAddress, Handle: req.Handle})
	}
	return results, nil
}

// BatchDecryptSettled is BatchDecrypt with per-item errors. Every request is
// attempted, still sequentially.
func (c *FhevmClient) BatchDecryptSettled(ctx context.Context, requests []DecryptionRequest) []SettledResult {
	results := make([]SettledResult, len(requests))
	for i, req := range requests {
		results[i].Result = DecryptionResult{ContractAddress: req.ContractAddress, Handle: req.Handle}
		value, err := c.RequestDecrypt(ctx, req.ContractAddress, req.Handle)
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].Result.Value = value
	}
	return results
}

func (c *FhevmClient) Keypair() *fhe.Keypair {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keypair
}

func (c *FhevmClient) Signer() Signer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.signer
}

// SetSigner replaces the signer. On a ready client without a keypair one is
// derived, enabling decryption.
func (c *FhevmClient) SetSigner(signer Signer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if signer != nil && c.engine != nil && c.keypair == nil {
		kp, err := c.engine.GenerateKeypair()
		if err != nil {
			return fmt.Errorf("GenerateKeypair err: %w", err)
		}
		c.keypair = kp
	}
	c.signer = signer
	return nil
}

func (c *FhevmClient) Provider() Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.provider
}

func (c *FhevmClient) Config() FhevmConfig {
	return c.config
}

// Close discards the engine, provider, signer and keypair and returns the
// client to StateUninitialized. A provider dialed by Init is closed.
func (c *FhevmClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ownsProvider {
		closeProvider(c.provider)
	}
	c.epoch++
	c.state = StateUninitialized
	c.engine = nil
	c.provider = nil
	c.ownsProvider = false
	c.signer = nil
	c.keypair = nil
}
