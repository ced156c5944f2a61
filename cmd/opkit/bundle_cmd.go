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

func newBundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "register an FID, admit its initial signer keys, and rent storage in one transaction",
	}
	cmd.AddCommand(newBundleRegisterCmd())
	return cmd
}

func newBundleRegisterCmd() *cobra.Command {
	var custodyFID uint64
	var recovery, keyHex, metadataHex string
	var metadataType uint8
	var extraStorage int64
	cmd := &cobra.Command{
		Use:   "register",
		Short: "mint a new FID with one initial signer key, atomically",
		Long: "The vault entry for --custody-fid must already exist — create one\n" +
			"with `vault create-random` or `vault create-mnemonic` first, using\n" +
			"the FID this account is about to mint.",
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
			keyMaterial, err := parseHexBytes(keyHex)
			if err != nil {
				return fmt.Errorf("invalid --key: %w", err)
			}
			metadata, err := parseHexBytes(metadataHex)
			if err != nil {
				return fmt.Errorf("invalid --metadata: %w", err)
			}

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

			units := big.NewInt(extraStorage)
			price := a.Bundler.Price(ctx, units)
			if !price.IsOk() {
				os.Exit(exitForError(price.Err))
			}
			keys := []contracts.BundlerKeyAdd{{
				KeyType:      contracts.Ed25519Scheme,
				Key:          keyMaterial,
				MetadataType: metadataType,
				Metadata:     metadata,
			}}
			call, cerr := a.Bundler.Register(ctx, recoveryAddr, keys, units, price.Value)
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
	cmd.Flags().Uint64Var(&custodyFID, "custody-fid", 0, "vault FID paying for and submitting the bundled registration")
	cmd.Flags().StringVar(&recovery, "recovery", "", "recovery address for the new FID")
	cmd.Flags().StringVar(&keyHex, "key", "", "0x-prefixed initial signer public key bytes")
	cmd.Flags().StringVar(&metadataHex, "metadata", "0x", "0x-prefixed opaque metadata accompanying the key")
	cmd.Flags().Uint8Var(&metadataType, "metadata-type", 1, "metadata encoding type the registry expects")
	cmd.Flags().Int64Var(&extraStorage, "extra-storage", 0, "extra storage units to rent atomically with registration")
	cmd.MarkFlagRequired("custody-fid")
	cmd.MarkFlagRequired("recovery")
	cmd.MarkFlagRequired("key")
	return cmd
}
