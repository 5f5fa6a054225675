package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	fhevmCommon "github.com/fhevm-network/fhevm-sdk/common"
	"github.com/fhevm-network/fhevm-sdk/sdk"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileKey         = "config"
	logLevelKey           = "log-level"
	chainIdKey            = "chain-id"
	rpcUrlKey             = "rpc-url"
	gatewayUrlKey         = "gateway-url"
	aclAddressKey         = "acl-address"
	kmsVerifierAddressKey = "kms-verifier-address"
	offlineKey            = "offline"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fhevm",
		Short:        "Encrypt values for FHE-enabled contracts and decrypt them through a gateway",
		SilenceUsage: true,
	}
	fs := root.PersistentFlags()
	fs.String(configFileKey, "", "config file (json, yaml or toml)")
	fs.String(logLevelKey, "info", "log level: debug, info, warn or error")
	fs.Uint64(chainIdKey, fhevmCommon.LocalChainId, "chain id")
	fs.String(rpcUrlKey, fhevmCommon.DefaultRpcUrl, "JSON-RPC endpoint")
	fs.String(gatewayUrlKey, fhevmCommon.DefaultGatewayUrl, "decryption gateway")
	fs.String(aclAddressKey, "", "ACL contract address")
	fs.String(kmsVerifierAddressKey, "", "KMS verifier contract address")
	fs.Bool(offlineKey, false, "skip the RPC connection and trust --chain-id")

	root.AddCommand(
		newServeCmd(),
		newGatewayCmd(),
		newEncryptCmd(),
		newDecryptCmd(),
		newKeysCmd(),
	)
	return root
}

// buildViper layers, from highest precedence: flags, FHEVM_* environment
// variables, the config file.
func buildViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("FHEVM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	if file := v.GetString(configFileKey); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	if err := setupLogger(v.GetString(logLevelKey)); err != nil {
		return nil, err
	}
	return v, nil
}

func setupLogger(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %s", level)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()
	return nil
}

func fhevmConfig(v *viper.Viper) sdk.FhevmConfig {
	return sdk.FhevmConfig{
		Network: sdk.NetworkConfig{
			ChainId:    v.GetUint64(chainIdKey),
			RpcUrl:     v.GetString(rpcUrlKey),
			GatewayUrl: v.GetString(gatewayUrlKey),
			AclAddress: v.GetString(aclAddressKey),
		},
		KmsVerifierAddress: v.GetString(kmsVerifierAddressKey),
	}
}

// staticChain stands in for an RPC connection with --offline.
type staticChain uint64

func (c staticChain) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).SetUint64(uint64(c)), nil
}

// initClient creates and initialises a client from the command's config.
func initClient(ctx context.Context, v *viper.Viper, signer sdk.Signer) (*sdk.FhevmClient, error) {
	config := fhevmConfig(v)
	client := sdk.NewFhevmClient(config)
	var provider sdk.Provider
	if v.GetBool(offlineKey) {
		provider = staticChain(config.Network.ChainId)
	}
	if err := client.Init(ctx, provider, signer); err != nil {
		return nil, err
	}
	return client, nil
}
