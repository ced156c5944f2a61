package main

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"github.com/farcaster-ops/opkit/contracts"
)

func newStorageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "rent and inspect per-FID storage leases",
	}
	cmd.AddCommand(newStorageRentCmd(), newStorageInfoCmd())
	return cmd
}

func newStorageRentCmd() *cobra.Command {
	var payerFID uint64
	var fid uint64
	var units int64
	cmd := &cobra.Command{
		Use:   "rent",
		Short: "rent storage units for an FID, paid from a vault address",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			payerAddr, aerr := a.Vault.AddressOf(payerFID)
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
			unitCount := big.NewInt(units)

			pw, err := password(a.Cfg)
			if err != nil {
				return err
			}
			key, aerr := a.Vault.Unlock(payerFID, pw)
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
			if serr := a.Sequencer.Bind(ctx, payerAddr); serr != nil {
				os.Exit(exitForError(serr))
			}

			price := a.Storage.Price(ctx, unitCount)
			if !price.IsOk() {
				os.Exit(exitForError(price.Err))
			}
			call, cerr := a.Storage.Rent(ctx, contracts.FID(fid), unitCount, price.Value)
			if cerr != nil {
				os.Exit(exitForError(cerr))
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
	cmd.Flags().Uint64Var(&payerFID, "payer-fid", 0, "vault FID that pays for and submits the rental")
	cmd.Flags().Uint64Var(&fid, "fid", 0, "FID the storage units are leased to")
	cmd.Flags().Int64Var(&units, "units", 1, "number of storage units to rent")
	cmd.MarkFlagRequired("payer-fid")
	cmd.MarkFlagRequired("fid")
	return cmd
}

func newStorageInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <fid>",
		Short: "print an FID's leased units alongside registry-wide pricing and caps",
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

			leased := a.Storage.StorageUnitsOf(ctx, contracts.FID(fid))
			if !leased.IsOk() {
				os.Exit(exitForError(leased.Err))
			}
			unitPrice := a.Storage.UnitPrice(ctx)
			if !unitPrice.IsOk() {
				os.Exit(exitForError(unitPrice.Err))
			}
			usdUnitPrice := a.Storage.USDUnitPrice(ctx)
			if !usdUnitPrice.IsOk() {
				os.Exit(exitForError(usdUnitPrice.Err))
			}
			maxUnits := a.Storage.MaxUnits(ctx)
			if !maxUnits.IsOk() {
				os.Exit(exitForError(maxUnits.Err))
			}
			rentedUnits := a.Storage.RentedUnits(ctx)
			if !rentedUnits.IsOk() {
				os.Exit(exitForError(rentedUnits.Err))
			}

			printJSON(map[string]interface{}{
				"fid":            fid,
				"leased_units":   leased.Value.String(),
				"unit_price_wei": unitPrice.Value.String(),
				"unit_price_usd": usdUnitPrice.Value.String(),
				"max_units":      maxUnits.Value.String(),
				"rented_units":   rentedUnits.Value.String(),
			})
			return nil
		},
	}
	return cmd
}
