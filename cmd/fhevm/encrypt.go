package main

import (
	"fmt"
	"io"

	"github.com/fhevm-network/fhevm-sdk/gateway"
	"github.com/fhevm-network/fhevm-sdk/sdk"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const (
	typeKey     = "type"
	registerKey = "register"
	contractKey = "contract"
	allowKey    = "allow"
	fullKey     = "full"
)

func newEncryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt [values...]",
		Short: "Encrypt values under the network key",
		Long: `Encrypt one or more values of the same type. With --register the
ciphertexts are also stored at the gateway on behalf of --contract and their
handles are printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := buildViper(cmd.Flags())
			if err != nil {
				return err
			}
			typ, err := sdk.ParseEncryptedType(v.GetString(typeKey))
			if err != nil {
				return err
			}
			client, err := initClient(cmd.Context(), v, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			values := make([]sdk.PlainValue, len(args))
			for i, a := range args {
				values[i] = sdk.PlainValue{Value: a, Type: typ}
			}
			encrypted, err := sdk.BatchEncrypt(client, values)
			if err != nil {
				return err
			}

			var handles []string
			if v.GetBool(registerKey) {
				contract := v.GetString(contractKey)
				if err = sdk.ValidateContractAddress(contract); err != nil {
					return err
				}
				gw, err := gateway.NewClient(client.Config().Network.GatewayUrl)
				if err != nil {
					return err
				}
				for _, ev := range encrypted {
					resp, err := gw.StoreCiphertext(cmd.Context(), &gateway.StoreCiphertextRequest{
						Ciphertext:      ev.Hex(),
						ContractAddress: contract,
						AllowedUsers:    v.GetStringSlice(allowKey),
					})
					if err != nil {
						return fmt.Errorf("register ciphertext: %w", err)
					}
					handles = append(handles, resp.Handle)
				}
			}
			renderEncrypted(cmd.OutOrStdout(), args, encrypted, handles, v.GetBool(fullKey))
			return nil
		},
	}
	cmd.Flags().String(typeKey, string(sdk.TypeUint32), "uint8, uint16, uint32, uint64, bool or address")
	cmd.Flags().Bool(registerKey, false, "store the ciphertexts at the gateway")
	cmd.Flags().String(contractKey, "", "contract owning the registered ciphertexts")
	cmd.Flags().StringSlice(allowKey, nil, "accounts allowed to decrypt, anyone when empty")
	cmd.Flags().Bool(fullKey, false, "print full ciphertexts instead of a prefix")
	return cmd
}

func renderEncrypted(w io.Writer, plain []string, encrypted []sdk.EncryptedValue, handles []string, full bool) {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetOutputMirror(w)
	header := table.Row{"#", "type", "value", "bytes", "ciphertext"}
	if handles != nil {
		header = append(header, "handle")
	}
	t.AppendHeader(header)
	for i, ev := range encrypted {
		ct := sdk.FormatEncryptedData(ev.Data, 0)
		if full {
			ct = ev.Hex()
		}
		row := table.Row{i, ev.Type, plain[i], len(ev.Data), ct}
		if handles != nil {
			row = append(row, handles[i])
		}
		t.AppendRow(row)
	}
	t.Render()
}
