package sdk

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Provider is the chain connection held by the client. *ethclient.Client
// satisfies it, as well as ContractBackend.
type Provider interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// ContractBackend is what ContractHelper needs from the provider to call,
// transact and wait for receipts.
type ContractBackend interface {
	bind.ContractBackend
	bind.DeployBackend
}

type Dialer func(ctx context.Context, rpcUrl string) (Provider, error)

// DialProvider opens a read-only JSON-RPC provider.
func DialProvider(ctx context.Context, rpcUrl string) (Provider, error) {
	if err := ValidateRpcUrl(rpcUrl); err != nil {
		return nil, err
	}
	ec, err := ethclient.DialContext(ctx, rpcUrl)
	if err != nil {
		return nil, fmt.Errorf("ethclient.DialContext err: %w", err)
	}
	return ec, nil
}

var (
	_ Provider        = (*ethclient.Client)(nil)
	_ ContractBackend = (*ethclient.Client)(nil)
)
