package main

import (
	"github.com/fhevm-network/fhevm-sdk/gateway/server"
	"github.com/fhevm-network/fhevm-sdk/sdk"
	"github.com/fhevm-network/fhevm-sdk/sdk/api"
	"github.com/spf13/cobra"
)

const (
	bindKey               = "bind"
	portKey               = "port"
	allowedOriginsKey     = "allowed-origins"
	persistenceTypeKey    = "persistence-type"
	persistenceOptionsKey = "persistence-options"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the /api/fhe HTTP routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := buildViper(cmd.Flags())
			if err != nil {
				return err
			}
			svc := api.NewService(api.ServiceConfig{
				Bind:           v.GetString(bindKey),
				Port:           v.GetUint(portKey),
				AllowedOrigins: v.GetStringSlice(allowedOriginsKey),
				Fhevm:          fhevmConfig(v),
			})
			var provider sdk.Provider
			if v.GetBool(offlineKey) {
				provider = staticChain(v.GetUint64(chainIdKey))
			}
			if err = svc.Init(cmd.Context(), provider); err != nil {
				return err
			}
			return svc.Serve()
		},
	}
	cmd.Flags().String(bindKey, "localhost", "listen address")
	cmd.Flags().Uint(portKey, 3000, "listen port")
	cmd.Flags().StringSlice(allowedOriginsKey, nil, "CORS origins, all when empty")
	return cmd
}

func newGatewayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Run a development decryption gateway holding the network key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := buildViper(cmd.Flags())
			if err != nil {
				return err
			}
			svc, err := server.NewService(server.ServiceConfig{
				Bind:               v.GetString(bindKey),
				Port:               v.GetUint(portKey),
				ChainId:            v.GetUint64(chainIdKey),
				PersistenceType:    v.GetString(persistenceTypeKey),
				PersistenceOptions: v.GetString(persistenceOptionsKey),
				AllowedOrigins:     v.GetStringSlice(allowedOriginsKey),
			})
			if err != nil {
				return err
			}
			return svc.Serve()
		},
	}
	cmd.Flags().String(bindKey, "localhost", "listen address")
	cmd.Flags().Uint(portKey, 7077, "listen port")
	cmd.Flags().StringSlice(allowedOriginsKey, nil, "CORS origins, all when empty")
	cmd.Flags().String(persistenceTypeKey, "syncmap", "store type: syncmap, file, badgerdb or s3")
	cmd.Flags().String(persistenceOptionsKey, "", `store options as JSON, e.g. {"dir": "$HOME/fhevm-gateway"}`)
	return cmd
}
