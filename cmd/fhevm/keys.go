package main

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fhevm-network/fhevm-sdk/common/utils"
	"github.com/fhevm-network/fhevm-sdk/fhe"
	"github.com/fhevm-network/fhevm-sdk/gateway"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const generateKey = "generate"

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Show the gateway's network key or generate a re-encryption keypair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := buildViper(cmd.Flags())
			if err != nil {
				return err
			}
			if v.GetBool(generateKey) {
				kp, err := fhe.GenerateKeypair()
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(kp)
			}

			gw, err := gateway.NewClient(v.GetString(gatewayUrlKey))
			if err != nil {
				return err
			}
			resp, err := gw.GetPublicKey(cmd.Context())
			if err != nil {
				return err
			}
			pk, err := utils.FromHexString(resp.PublicKey)
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetStyle(table.StyleLight)
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendRows([]table.Row{
				{"gateway", gw.Url()},
				{"chain id", resp.ChainId},
				{"key size", len(pk)},
				{"fingerprint", crypto.Keccak256Hash(pk).Hex()},
			})
			t.Render()
			return nil
		},
	}
	cmd.Flags().Bool(generateKey, false, "print a new re-encryption keypair as JSON")
	return cmd
}
