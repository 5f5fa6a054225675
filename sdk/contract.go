package sdk

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fhevm-network/fhevm-sdk/common/utils"
	"github.com/rs/zerolog/log"
)

// ContractHelper calls an FHE-enabled contract and decrypts its handles
// through the client it was created from.
type ContractHelper struct {
	client   *FhevmClient
	address  common.Address
	abi      abi.ABI
	backend  ContractBackend
	contract *bind.BoundContract
}

// NewContractHelper binds abiJSON at address. A nil backend uses the
// client's provider, which must then implement ContractBackend. The client
// must have a signer.
func NewContractHelper(client *FhevmClient, address string, abiJSON string, backend ContractBackend) (*ContractHelper, error) {
	if client.Signer() == nil {
		return nil, fmt.Errorf("%w: signer not available in FhevmClient", ErrPartiallyInitialized)
	}
	if err := ValidateContractAddress(address); err != nil {
		return nil, err
	}
	if backend == nil {
		b, ok := client.Provider().(ContractBackend)
		if !ok {
			return nil, fmt.Errorf("provider does not support contract calls")
		}
		backend = b
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: abi.JSON err: %w", ErrValidation, err)
	}
	addr := utils.Hex2Addr(address)
	return &ContractHelper{
		client:   client,
		address:  addr,
		abi:      parsed,
		backend:  backend,
		contract: bind.NewBoundContract(addr, parsed, backend, backend, backend),
	}, nil
}

func (h *ContractHelper) Address() common.Address {
	return h.address
}

func (h *ContractHelper) ABI() abi.ABI {
	return h.abi
}

// Call invokes a view or pure method and returns its unpacked outputs.
func (h *ContractHelper) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	var out []any
	if err := h.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("call %s err: %w", method, err)
	}
	return out, nil
}

// Transact sends a transaction signed by the client's signer, which must
// implement Transactor.
func (h *ContractHelper) Transact(ctx context.Context, method string, args ...any) (*types.Transaction, error) {
	t, ok := h.client.Signer().(Transactor)
	if !ok {
		return nil, fmt.Errorf("signer cannot sign transactions")
	}
	opts, err := t.TransactOpts(new(big.Int).SetUint64(h.client.Config().Network.ChainId))
	if err != nil {
		return nil, fmt.Errorf("TransactOpts err: %w", err)
	}
	opts.Context = ctx
	tx, err := h.contract.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("transact %s err: %w", method, err)
	}
	log.Debug().Str("method", method).Str("tx", tx.Hash().Hex()).Msg("sent contract tx")
	return tx, nil
}

// TransactAndWait is Transact followed by waiting for the receipt. A
// reverted transaction is an error.
func (h *ContractHelper) TransactAndWait(ctx context.Context, method string, args ...any) (*types.Receipt, error) {
	tx, err := h.Transact(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	receipt, err := bind.WaitMined(ctx, h.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("WaitMined err: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("tx %s reverted", tx.Hash().Hex())
	}
	return receipt, nil
}

// Decrypt requests decryption of a handle owned by this contract.
func (h *ContractHelper) Decrypt(ctx context.Context, handle string) (*big.Int, error) {
	return h.client.RequestDecrypt(ctx, h.address.Hex(), handle)
}

func (h *ContractHelper) BatchDecrypt(ctx context.Context, handles []string) ([]DecryptionResult, error) {
	return BatchDecryptFromContract(ctx, h.client, h.address.Hex(), handles)
}
