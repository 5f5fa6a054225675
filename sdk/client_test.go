package sdk

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/fhevm-network/fhevm-sdk/fhe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testChainId = 31337

var testContract = "0x0f3e553484dF29aF3423AD6E301b571a255b1142"

type mockEngine struct {
	mock.Mock
}

func bytesArg(args mock.Arguments) ([]byte, error) {
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *mockEngine) Encrypt8(value uint64) ([]byte, error)  { return bytesArg(m.Called(value)) }
func (m *mockEngine) Encrypt16(value uint64) ([]byte, error) { return bytesArg(m.Called(value)) }
func (m *mockEngine) Encrypt32(value uint64) ([]byte, error) { return bytesArg(m.Called(value)) }
func (m *mockEngine) Encrypt64(value uint64) ([]byte, error) { return bytesArg(m.Called(value)) }
func (m *mockEngine) Encrypt160(value *big.Int) ([]byte, error) {
	return bytesArg(m.Called(value))
}

func (m *mockEngine) GenerateKeypair() (*fhe.Keypair, error) {
	args := m.Called()
	kp, _ := args.Get(0).(*fhe.Keypair)
	return kp, args.Error(1)
}

func (m *mockEngine) CreateEIP712(publicKey []byte, handle string, contractAddress common.Address) (*apitypes.TypedData, error) {
	args := m.Called(publicKey, handle, contractAddress)
	td, _ := args.Get(0).(*apitypes.TypedData)
	return td, args.Error(1)
}

func (m *mockEngine) Reencrypt(ctx context.Context, params fhe.ReencryptParams) (*big.Int, error) {
	args := m.Called(params)
	v, _ := args.Get(0).(*big.Int)
	return v, args.Error(1)
}

type fakeProvider struct {
	chainId uint64
	err     error
	closed  atomic.Bool
}

func (p *fakeProvider) ChainID(context.Context) (*big.Int, error) {
	if p.err != nil {
		return nil, p.err
	}
	return new(big.Int).SetUint64(p.chainId), nil
}

func (p *fakeProvider) Close() {
	p.closed.Store(true)
}

var testKeypair = &fhe.Keypair{PublicKey: make([]byte, 32), PrivateKey: make([]byte, 32)}

func testConfig() FhevmConfig {
	return FhevmConfig{Network: NetworkConfig{
		ChainId:    testChainId,
		RpcUrl:     "http://localhost:8545",
		GatewayUrl: "http://localhost:7077",
	}}
}

// newMockClient returns a ready client backed by a mock engine. The engine
// expects GenerateKeypair when signer is set.
func newMockClient(t *testing.T, signer Signer) (*FhevmClient, *mockEngine) {
	engine := new(mockEngine)
	if signer != nil {
		engine.On("GenerateKeypair").Return(testKeypair, nil).Once()
	}
	c := NewFhevmClient(testConfig(), WithEngineFactory(func(context.Context, fhe.Params) (fhe.Engine, error) {
		return engine, nil
	}))
	require.NoError(t, c.Init(context.Background(), &fakeProvider{chainId: testChainId}, signer))
	return c, engine
}

func newTestSigner(t *testing.T) *LocalSigner {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return NewLocalSignerFromKey(key)
}

func TestEncryptBeforeInit(t *testing.T) {
	var created atomic.Int32
	c := NewFhevmClient(testConfig(), WithEngineFactory(func(context.Context, fhe.Params) (fhe.Engine, error) {
		created.Add(1)
		return new(mockEngine), nil
	}))

	calls := map[string]func() ([]byte, error){
		"uint8":   func() ([]byte, error) { return c.Encrypt8(1) },
		"uint16":  func() ([]byte, error) { return c.Encrypt16(1) },
		"uint32":  func() ([]byte, error) { return c.Encrypt32(1) },
		"uint64":  func() ([]byte, error) { return c.Encrypt64(1) },
		"bool":    func() ([]byte, error) { return c.EncryptBool(true) },
		"address": func() ([]byte, error) { return c.EncryptAddress(testContract) },
	}
	for name, call := range calls {
		ct, err := call()
		assert.ErrorIs(t, err, ErrUninitialized, name)
		assert.Nil(t, ct, name)
	}
	_, err := c.RequestDecrypt(context.Background(), testContract, "1")
	assert.ErrorIs(t, err, ErrPartiallyInitialized)
	assert.ErrorIs(t, err, ErrUninitialized)
	_, err = c.Engine()
	assert.ErrorIs(t, err, ErrUninitialized)

	assert.Equal(t, int32(0), created.Load())
	assert.False(t, c.IsInitialized())
	assert.Equal(t, StateUninitialized, c.State())
}

func TestInitDialsProvider(t *testing.T) {
	provider := &fakeProvider{chainId: testChainId}
	var dialed string
	var params fhe.Params
	engine := new(mockEngine)
	c := NewFhevmClient(testConfig(),
		WithDialer(func(_ context.Context, url string) (Provider, error) {
			dialed = url
			return provider, nil
		}),
		WithEngineFactory(func(_ context.Context, p fhe.Params) (fhe.Engine, error) {
			params = p
			return engine, nil
		}),
	)

	require.NoError(t, c.Init(context.Background(), nil, nil))
	assert.Equal(t, "http://localhost:8545", dialed)
	assert.Equal(t, fhe.Params{ChainId: testChainId, PublicKey: "", GatewayUrl: "http://localhost:7077"}, params)
	assert.True(t, c.IsInitialized())
	assert.Equal(t, StateReady, c.State())
	assert.Nil(t, c.Keypair())
	assert.Nil(t, c.Signer())
	assert.Equal(t, Provider(provider), c.Provider())

	_, err := c.RequestDecrypt(context.Background(), testContract, "1")
	assert.ErrorIs(t, err, ErrPartiallyInitialized)

	c.Close()
	assert.True(t, provider.closed.Load())
	assert.Equal(t, StateUninitialized, c.State())
	assert.False(t, c.IsInitialized())
	assert.Nil(t, c.Provider())
}

func TestInitFailureAllowsRetry(t *testing.T) {
	engine := new(mockEngine)
	fail := true
	c := NewFhevmClient(testConfig(), WithEngineFactory(func(context.Context, fhe.Params) (fhe.Engine, error) {
		if fail {
			return nil, errors.New("gateway unreachable")
		}
		return engine, nil
	}))
	provider := &fakeProvider{chainId: testChainId}

	err := c.Init(context.Background(), provider, nil)
	assert.ErrorIs(t, err, ErrInitialization)
	assert.ErrorContains(t, err, "gateway unreachable")
	assert.Equal(t, StateFailed, c.State())
	assert.False(t, c.IsInitialized())
	_, err = c.Encrypt8(1)
	assert.ErrorIs(t, err, ErrUninitialized)
	// caller supplied providers are never closed
	assert.False(t, provider.closed.Load())

	fail = false
	require.NoError(t, c.Init(context.Background(), provider, nil))
	assert.Equal(t, StateReady, c.State())
}

func TestInitRejectsWrongChain(t *testing.T) {
	c := NewFhevmClient(testConfig(), WithEngineFactory(func(context.Context, fhe.Params) (fhe.Engine, error) {
		return new(mockEngine), nil
	}))
	err := c.Init(context.Background(), &fakeProvider{chainId: 1}, nil)
	assert.ErrorIs(t, err, ErrInitialization)

	err = c.Init(context.Background(), &fakeProvider{err: errors.New("connection refused")}, nil)
	assert.ErrorIs(t, err, ErrInitialization)

	bad := NewFhevmClient(FhevmConfig{})
	assert.ErrorIs(t, bad.Init(context.Background(), &fakeProvider{}, nil), ErrInitialization)
}

func TestConcurrentInitRunsOnce(t *testing.T) {
	var created atomic.Int32
	release := make(chan struct{})
	engine := new(mockEngine)
	c := NewFhevmClient(testConfig(), WithEngineFactory(func(context.Context, fhe.Params) (fhe.Engine, error) {
		created.Add(1)
		<-release
		return engine, nil
	}))

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Init(context.Background(), &fakeProvider{chainId: testChainId}, nil)
		}(i)
	}
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, StateReady, c.State())

	// ready clients ignore further Init calls
	require.NoError(t, c.Init(context.Background(), &fakeProvider{chainId: testChainId}, nil))
	assert.Equal(t, int32(1), created.Load())
}

func TestInitSurvivesCancelledCaller(t *testing.T) {
	var created atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	engine := new(mockEngine)
	c := NewFhevmClient(testConfig(), WithEngineFactory(func(ctx context.Context, _ fhe.Params) (fhe.Engine, error) {
		created.Add(1)
		close(entered)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return engine, nil
	}))
	provider := &fakeProvider{chainId: testChainId}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- c.Init(ctx, provider, nil) }()
	<-entered

	second := make(chan error, 1)
	go func() { second <- c.Init(context.Background(), provider, nil) }()

	cancel()
	err := <-first
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrInitialization)

	close(release)
	require.NoError(t, <-second)
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, int32(1), created.Load())
}

func TestEncrypt8PassesValueThrough(t *testing.T) {
	c, engine := newMockClient(t, nil)
	engine.On("Encrypt8", mock.Anything).Return([]byte{0xaa}, nil)

	for v := uint64(0); v <= 255; v++ {
		ct, err := c.Encrypt8(v)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xaa}, ct)
		engine.AssertCalled(t, "Encrypt8", v)
	}
	// range checks belong to the engine
	_, err := c.Encrypt8(300)
	require.NoError(t, err)
	engine.AssertCalled(t, "Encrypt8", uint64(300))
}

func TestEncryptWidths(t *testing.T) {
	c, engine := newMockClient(t, nil)
	engine.On("Encrypt16", uint64(65535)).Return([]byte{16}, nil)
	engine.On("Encrypt32", uint64(7)).Return([]byte{32}, nil)
	engine.On("Encrypt64", uint64(1<<40)).Return([]byte{64}, nil)

	ct, err := c.Encrypt16(65535)
	require.NoError(t, err)
	assert.Equal(t, []byte{16}, ct)
	ct, err = c.Encrypt32(7)
	require.NoError(t, err)
	assert.Equal(t, []byte{32}, ct)
	ct, err = c.Encrypt64(1 << 40)
	require.NoError(t, err)
	assert.Equal(t, []byte{64}, ct)
	engine.AssertExpectations(t)
}

func TestEncryptBoolUsesEncrypt8(t *testing.T) {
	c, engine := newMockClient(t, nil)
	engine.On("Encrypt8", uint64(1)).Return([]byte{1}, nil).Once()
	engine.On("Encrypt8", uint64(0)).Return([]byte{0}, nil).Once()

	ct, err := c.EncryptBool(true)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, ct)
	ct, err = c.EncryptBool(false)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, ct)
	engine.AssertExpectations(t)
}

func TestEncryptAddressKeepsAllBits(t *testing.T) {
	c, engine := newMockClient(t, nil)
	addr := "0xFFeeDDccBBaa99887766554433221100fFEEddcc"
	want, _ := new(big.Int).SetString("ffeeddccbbaa99887766554433221100ffeeddcc", 16)
	engine.On("Encrypt160", want).Return([]byte{7}, nil).Once()

	ct, err := c.EncryptAddress(addr)
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, ct)
	engine.AssertExpectations(t)

	_, err = c.EncryptAddress("0x1234")
	assert.ErrorIs(t, err, ErrValidation)
	engine.AssertNumberOfCalls(t, "Encrypt160", 1)
}

func expectDecrypt(engine *mockEngine, signer *LocalSigner, handle string, value *big.Int, err error) {
	contract := common.HexToAddress(testContract)
	td := fhe.NewReencryptTypedData(testChainId, testKeypair.PublicKey, big.NewInt(1), contract)
	engine.On("CreateEIP712", []byte(testKeypair.PublicKey), handle, contract).Return(&td, nil)
	engine.On("Reencrypt", mock.MatchedBy(func(p fhe.ReencryptParams) bool {
		return p.Handle == handle && p.UserAddress == signer.address && p.ContractAddress == contract &&
			p.Keypair == testKeypair && len(p.Signature) == 65
	})).Return(value, err)
}

func TestRequestDecrypt(t *testing.T) {
	signer := newTestSigner(t)
	c, engine := newMockClient(t, signer)
	expectDecrypt(engine, signer, "1", big.NewInt(42), nil)

	v, err := c.RequestDecrypt(context.Background(), testContract, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int64())
	assert.Equal(t, testKeypair, c.Keypair())
	engine.AssertExpectations(t)

	_, err = c.RequestDecrypt(context.Background(), "not-an-address", "1")
	assert.ErrorIs(t, err, ErrDecryption)
	assert.ErrorIs(t, err, ErrValidation)
}

type rejectingSigner struct {
	*LocalSigner
}

func (rejectingSigner) SignTypedData(context.Context, apitypes.TypedData) ([]byte, error) {
	return nil, errors.New("user rejected")
}

func TestRequestDecryptSignatureRejected(t *testing.T) {
	signer := rejectingSigner{newTestSigner(t)}
	c, engine := newMockClient(t, signer)
	td := fhe.NewReencryptTypedData(testChainId, testKeypair.PublicKey, big.NewInt(1), common.HexToAddress(testContract))
	engine.On("CreateEIP712", mock.Anything, "1", mock.Anything).Return(&td, nil)

	_, err := c.RequestDecrypt(context.Background(), testContract, "1")
	assert.ErrorIs(t, err, ErrDecryption)
	assert.ErrorContains(t, err, "user rejected")
	engine.AssertNotCalled(t, "Reencrypt", mock.Anything)
}

func TestBatchDecryptFailFast(t *testing.T) {
	signer := newTestSigner(t)
	c, engine := newMockClient(t, signer)
	expectDecrypt(engine, signer, "1", big.NewInt(10), nil)
	expectDecrypt(engine, signer, "2", nil, errors.New("gateway unreachable"))
	expectDecrypt(engine, signer, "3", big.NewInt(30), nil)

	requests := []DecryptionRequest{
		{ContractAddress: testContract, Handle: "1"},
		{ContractAddress: testContract, Handle: "2"},
		{ContractAddress: testContract, Handle: "3"},
	}
	results, err := c.BatchDecrypt(context.Background(), requests)
	assert.Nil(t, results)
	assert.ErrorIs(t, err, ErrBatchFailure)
	assert.ErrorIs(t, err, ErrDecryption)
	assert.ErrorContains(t, err, "gateway unreachable")
	engine.AssertNotCalled(t, "CreateEIP712", []byte(testKeypair.PublicKey), "3", common.HexToAddress(testContract))

	settled := c.BatchDecryptSettled(context.Background(), requests)
	require.Len(t, settled, 3)
	assert.Equal(t, int64(10), settled[0].Result.Value.Int64())
	assert.ErrorIs(t, settled[1].Err, ErrDecryption)
	assert.Nil(t, settled[1].Result.Value)
	assert.Equal(t, "2", settled[1].Result.Handle)
	assert.Equal(t, int64(30), settled[2].Result.Value.Int64())
}

func TestBatchDecryptPreservesOrder(t *testing.T) {
	signer := newTestSigner(t)
	c, engine := newMockClient(t, signer)
	expectDecrypt(engine, signer, "5", big.NewInt(5), nil)
	expectDecrypt(engine, signer, "4", big.NewInt(4), nil)

	results, err := c.BatchDecrypt(context.Background(), []DecryptionRequest{
		{ContractAddress: testContract, Handle: "5"},
		{ContractAddress: testContract, Handle: "4"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, DecryptionResult{Value: big.NewInt(5), ContractAddress: testContract, Handle: "5"}, results[0])
	assert.Equal(t, DecryptionResult{Value: big.NewInt(4), ContractAddress: testContract, Handle: "4"}, results[1])

	results, err = c.BatchDecrypt(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSetSignerEnablesDecrypt(t *testing.T) {
	c, engine := newMockClient(t, nil)
	signer := newTestSigner(t)
	engine.On("GenerateKeypair").Return(testKeypair, nil).Once()
	expectDecrypt(engine, signer, "1", big.NewInt(1), nil)

	require.NoError(t, c.SetSigner(signer))
	assert.Equal(t, Signer(signer), c.Signer())
	v, err := c.RequestDecrypt(context.Background(), testContract, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int64())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "State(9)", State(9).String())
}
