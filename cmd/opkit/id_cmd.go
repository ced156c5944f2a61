package main

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/farcaster-ops/opkit/contracts"
)

func newIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "id",
		Short: "register and inspect FIDs",
	}
	cmd.AddCommand(newIDRegisterCmd(), newIDInfoCmd())
	return cmd
}

func newIDRegisterCmd() *cobra.Command {
	var custodyFID uint64
	var recovery string
	var extraStorage int64
	cmd := &cobra.Command{
		Use:   "register",
		Short: "mint a new FID for a custody key held in the vault",
		Long: "The vault entry for --custody-fid must already exist — create one\n" +
			"with `vault create-random` or `vault create-mnemonic` first, using\n" +
			"the FID this account is about to mint (typically the ID Registry's\n" +
			"idCounter() value).",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			custodyAddr, aerr := a.Vault.AddressOf(custodyFID)
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
			recoveryAddr := common.HexToAddress(recovery)

			pw, err := password(a.Cfg)
			if err != nil {
				return err
			}
			key, aerr := a.Vault.Unlock(custodyFID, pw)
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
			if serr := a.Sequencer.Bind(ctx, custodyAddr); serr != nil {
				os.Exit(exitForError(serr))
			}

			var call contracts.Call
			units := big.NewInt(extraStorage)
			if units.Sign() > 0 {
				price := a.IDGateway.PriceWithExtra(ctx, units)
				if !price.IsOk() {
					os.Exit(exitForError(price.Err))
				}
				c, e := a.IDGateway.RegisterWithStorage(ctx, recoveryAddr, units, price.Value)
				if e != nil {
					os.Exit(exitForError(e))
				}
				call = c
			} else {
				price := a.IDGateway.Price(ctx)
				if !price.IsOk() {
					os.Exit(exitForError(price.Err))
				}
				c, e := a.IDGateway.Register(ctx, recoveryAddr, price.Value)
				if e != nil {
					os.Exit(exitForError(e))
				}
				call = c
			}

			chainID, err := mustChainID(ctx, a)
			if err != nil {
				return err
			}
			res := a.Orch.SubmitDirect(ctx, key, call, chainID)
			os.Exit(exitForResult(res))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&custodyFID, "custody-fid", 0, "FID (and vault entry) paying for and submitting the registration")
	cmd.Flags().StringVar(&recovery, "recovery", "", "recovery address for the new FID")
	cmd.Flags().Int64Var(&extraStorage, "extra-storage", 0, "extra storage units to rent atomically with registration")
	cmd.MarkFlagRequired("custody-fid")
	cmd.MarkFlagRequired("recovery")
	return cmd
}

func newIDInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <fid>",
		Short: "print custody, recovery, and pausedness for an FID",
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

			custody := a.IDRegistry.CustodyOf(ctx, contracts.FID(fid))
			if !custody.IsOk() {
				os.Exit(exitForError(custody.Err))
			}
			recovery := a.IDRegistry.RecoveryOf(ctx, contracts.FID(fid))
			if !recovery.IsOk() {
				os.Exit(exitForError(recovery.Err))
			}
			paused := a.IDRegistry.Paused(ctx)
			if !paused.IsOk() {
				os.Exit(exitForError(paused.Err))
			}

			printJSON(map[string]interface{}{
				"fid":      fid,
				"custody":  custody.Value.Hex(),
				"recovery": recovery.Value.Hex(),
				"paused":   paused.Value,
			})
			return nil
		},
	}
	return cmd
}
