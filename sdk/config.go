package sdk

import (
	"fmt"

	fhevmCommon "github.com/fhevm-network/fhevm-sdk/common"
	"github.com/fhevm-network/fhevm-sdk/fhe"
)

type NetworkConfig struct {
	ChainId uint64 `mapstructure:"chain_id" json:"chainId"`
	// RpcUrl is dialed by Init when no provider is supplied.
	RpcUrl string `mapstructure:"rpc_url" json:"rpcUrl"`
	// GatewayUrl is the decryption gateway. The engine also fetches the
	// network public key from it.
	GatewayUrl string `mapstructure:"gateway_url" json:"gatewayUrl,omitempty"`
	AclAddress string `mapstructure:"acl_address" json:"aclAddress,omitempty"`
}

type FhevmConfig struct {
	Network            NetworkConfig `mapstructure:"network" json:"network"`
	KmsVerifierAddress string        `mapstructure:"kms_verifier_address" json:"kmsVerifierAddress,omitempty"`
}

// NewFhevmConfig returns a config for one of the known chains, pointing at
// its default RPC endpoint and the local gateway.
func NewFhevmConfig(chainId uint64) (FhevmConfig, error) {
	rpcUrl, ok := fhevmCommon.DefaultRpcUrls[chainId]
	if !ok {
		return FhevmConfig{}, fmt.Errorf("%w: no default rpc url for chain %d", ErrValidation, chainId)
	}
	return FhevmConfig{
		Network: NetworkConfig{
			ChainId:    chainId,
			RpcUrl:     rpcUrl,
			GatewayUrl: fhevmCommon.DefaultGatewayUrl,
		},
	}, nil
}

func (c FhevmConfig) Validate() error {
	if c.Network.ChainId == 0 {
		return fmt.Errorf("%w: chain id must be positive", ErrValidation)
	}
	if c.Network.AclAddress != "" {
		if err := ValidateContractAddress(c.Network.AclAddress); err != nil {
			return fmt.Errorf("acl address: %w", err)
		}
	}
	if c.KmsVerifierAddress != "" {
		if err := ValidateContractAddress(c.KmsVerifierAddress); err != nil {
			return fmt.Errorf("kms verifier address: %w", err)
		}
	}
	return nil
}

type ClientOption func(*FhevmClient)

// WithEngineFactory replaces the engine constructor, fhe.NewEngine by default.
func WithEngineFactory(f fhe.Factory) ClientOption {
	return func(c *FhevmClient) {
		c.newEngine = f
	}
}

// WithDialer replaces the function used to open a provider from RpcUrl when
// Init is called without one.
func WithDialer(d Dialer) ClientOption {
	return func(c *FhevmClient) {
		c.dial = d
	}
}
