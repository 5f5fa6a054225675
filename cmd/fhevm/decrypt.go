package main

import (
	"fmt"
	"io"

	"github.com/fhevm-network/fhevm-sdk/sdk"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	privateKeyKey = "private-key"
	decimalsKey   = "decimals"
	retriesKey    = "retries"
	retryDelayKey = "retry-delay"
	settledKey    = "settled"
)

func newDecryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt [handles...]",
		Short: "Decrypt handles owned by --contract through the gateway",
		Long: `Decrypt handles one at a time. Each request is signed by --private-key
(or FHEVM_PRIVATE_KEY). A single handle is retried; batches stop at the
first failure unless --settled is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := buildViper(cmd.Flags())
			if err != nil {
				return err
			}
			contract := v.GetString(contractKey)
			if err = sdk.ValidateContractAddress(contract); err != nil {
				return err
			}
			signer, err := sdk.NewLocalSigner(v.GetString(privateKeyKey))
			if err != nil {
				return err
			}
			client, err := initClient(cmd.Context(), v, signer)
			if err != nil {
				return err
			}
			defer client.Close()

			results, err := decryptHandles(cmd, v, client, contract, args)
			if err != nil {
				return err
			}
			renderDecrypted(cmd.OutOrStdout(), results, v.GetUint(decimalsKey))
			return nil
		},
	}
	cmd.Flags().String(contractKey, "", "contract owning the handles")
	cmd.Flags().String(privateKeyKey, "", "hex private key of the requesting account")
	cmd.Flags().Uint(decimalsKey, 0, "render values as fixed point with this many decimals")
	cmd.Flags().Int(retriesKey, sdk.DefaultMaxRetries, "attempts for a single handle")
	cmd.Flags().Duration(retryDelayKey, sdk.DefaultRetryDelay, "pause between attempts")
	cmd.Flags().Bool(settledKey, false, "decrypt every handle and report failures per handle")
	return cmd
}

func decryptHandles(cmd *cobra.Command, v *viper.Viper, client *sdk.FhevmClient, contract string, handles []string) ([]sdk.SettledResult, error) {
	ctx := cmd.Context()
	if len(handles) == 1 {
		value, err := sdk.DecryptWithRetry(ctx, client, contract, handles[0], sdk.RetryPolicy{
			MaxRetries: v.GetInt(retriesKey),
			Delay:      v.GetDuration(retryDelayKey),
		})
		if err != nil {
			return nil, err
		}
		return []sdk.SettledResult{{Result: sdk.DecryptionResult{Value: value, ContractAddress: contract, Handle: handles[0]}}}, nil
	}

	requests := make([]sdk.DecryptionRequest, len(handles))
	for i, h := range handles {
		requests[i] = sdk.DecryptionRequest{ContractAddress: contract, Handle: h}
	}
	if v.GetBool(settledKey) {
		return client.BatchDecryptSettled(ctx, requests), nil
	}
	results, err := client.BatchDecrypt(ctx, requests)
	if err != nil {
		return nil, err
	}
	settled := make([]sdk.SettledResult, len(results))
	for i, r := range results {
		settled[i].Result = r
	}
	return settled, nil
}

func renderDecrypted(w io.Writer, results []sdk.SettledResult, decimals uint) {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "handle", "value", "error"})
	for i, r := range results {
		value, errMsg := "", ""
		if r.Err != nil {
			errMsg = r.Err.Error()
		} else {
			value = sdk.FormatDecrypted(r.Result.Value, decimals)
		}
		t.AppendRow(table.Row{i, r.Result.Handle, value, errMsg})
	}
	t.Render()
	fmt.Fprintln(w)
}
