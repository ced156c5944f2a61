package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/farcaster-ops/opkit/contracts"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "inspect signer/FID status and probe contracts for unauthorized mutations",
	}
	cmd.AddCommand(newVerifySignerCmd(), newVerifyFIDCmd(), newVerifySecurityCmd())
	return cmd
}

func newVerifySignerCmd() *cobra.Command {
	var keyHex string
	cmd := &cobra.Command{
		Use:   "signer <fid>",
		Short: "report whether a signer key is registered under an FID, and its state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			var fid uint64
			if _, err := fmt.Sscanf(args[0], "%d", &fid); err != nil {
				return fmt.Errorf("invalid fid %q: %w", args[0], err)
			}
			material, err := parseHexBytes(keyHex)
			if err != nil {
				return fmt.Errorf("invalid --key: %w", err)
			}

			verdict, aerr := a.Verifier.SignerStatus(ctx, contracts.FID(fid), material)
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
			printJSON(map[string]interface{}{
				"fid":    fid,
				"found":  verdict.Found,
				"state":  verdict.State.String(),
				"scheme": verdict.Scheme,
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&keyHex, "key", "", "0x-prefixed signer public key bytes to look up")
	cmd.MarkFlagRequired("key")
	return cmd
}

func newVerifyFIDCmd() *cobra.Command {
	var custody string
	cmd := &cobra.Command{
		Use:   "fid <fid>",
		Short: "confirm a custody address still owns an FID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			var fid uint64
			if _, err := fmt.Sscanf(args[0], "%d", &fid); err != nil {
				return fmt.Errorf("invalid fid %q: %w", args[0], err)
			}
			expected := common.HexToAddress(custody)

			verdict, aerr := a.Verifier.FIDOwnership(ctx, contracts.FID(fid), expected)
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
			printJSON(map[string]interface{}{
				"fid":      fid,
				"owns":     verdict.Owns,
				"current":  verdict.Current.Hex(),
				"active":   verdict.Active,
				"inactive": verdict.Inactive,
				"pending":  verdict.Pending,
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&custody, "custody", "", "expected custody address")
	cmd.MarkFlagRequired("custody")
	return cmd
}

func newVerifySecurityCmd() *cobra.Command {
	var custody string
	cmd := &cobra.Command{
		Use:   "security <fid>",
		Short: "simulate unauthorized addFor/removeFor/remove calls and confirm every one reverts",
		Long: "Nothing is broadcast: each mutation is simulated via eth_call with a\n" +
			"zeroed signature and a bogus key. Exits with the SecurityBreach code\n" +
			"if any simulated call would have succeeded.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			var fid uint64
			if _, err := fmt.Sscanf(args[0], "%d", &fid); err != nil {
				return fmt.Errorf("invalid fid %q: %w", args[0], err)
			}
			custodyAddr := common.HexToAddress(custody)

			verdict, aerr := a.Verifier.SecurityProbe(ctx, contracts.FID(fid), custodyAddr)
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
			printJSON(map[string]interface{}{
				"fid":               fid,
				"add_for_failed":    verdict.AddForFailed,
				"remove_for_failed": verdict.RemoveForFailed,
				"remove_failed":     verdict.RemoveFailed,
				"breach":            verdict.Breach,
				"notes":             verdict.Notes,
			})
			if verdict.Breach {
				os.Exit(exitSecurityBreach)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&custody, "custody", "", "custody address the probe impersonates as the (unauthorized) caller")
	cmd.MarkFlagRequired("custody")
	return cmd
}
