package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/farcaster-ops/opkit/apperr"
	"github.com/farcaster-ops/opkit/vault"
)

func newVaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "manage the local encrypted custody key vault",
	}
	cmd.AddCommand(
		newVaultCreateRandomCmd(),
		newVaultCreateMnemonicCmd(),
		newVaultListCmd(),
		newVaultRemoveCmd(),
	)
	return cmd
}

func newVaultCreateRandomCmd() *cobra.Command {
	var label string
	var fid uint64
	cmd := &cobra.Command{
		Use:   "create-random",
		Short: "generate a fresh custody key with no mnemonic backing, bound to an FID",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(context.Background())
			if err != nil {
				return err
			}
			pw, err := password(a.Cfg)
			if err != nil {
				return err
			}
			addr, aerr := a.Vault.CreateRandom(fid, pw, label)
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
			printJSON(map[string]interface{}{"fid": fid, "address": addr.Hex()})
			return nil
		},
	}
	cmd.Flags().Uint64Var(&fid, "fid", 0, "FID this key will be bound to in the vault")
	cmd.Flags().StringVar(&label, "label", "", "human-readable label for this key")
	cmd.MarkFlagRequired("fid")
	return cmd
}

func newVaultCreateMnemonicCmd() *cobra.Command {
	var label, mnemonic, passphrase string
	var fid uint64
	var bip44 bool
	var generate bool
	cmd := &cobra.Command{
		Use:   "create-mnemonic",
		Short: "derive a custody key from a BIP-39 mnemonic, bound to an FID",
		Long: "By default this derives the key the way this protocol's wallets\n" +
			"historically have: the first 32 bytes of the BIP-39 seed, not a\n" +
			"BIP-32/44 path. Pass --bip44 for the standards-correct m/44'/60'/0'/0/0\n" +
			"derivation instead, for interop with wallets that expect that.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(context.Background())
			if err != nil {
				return err
			}
			if generate {
				m, merr := vault.NewMnemonic()
				if merr != nil {
					os.Exit(exitForError(merr))
				}
				mnemonic = m
				fmt.Fprintf(os.Stderr, "generated mnemonic (write this down, it is shown once): %s\n", mnemonic)
			}
			if mnemonic == "" {
				return fmt.Errorf("--mnemonic is required unless --generate is set")
			}
			pw, err := password(a.Cfg)
			if err != nil {
				return err
			}

			var addr common.Address
			var aerr *apperr.Error
			if bip44 {
				addr, aerr = a.Vault.CreateFromMnemonicBIP44(fid, mnemonic, pw, label)
			} else {
				addr, aerr = a.Vault.CreateFromMnemonic(fid, mnemonic, passphrase, pw, label)
			}
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
			printJSON(map[string]interface{}{"fid": fid, "address": addr.Hex()})
			return nil
		},
	}
	cmd.Flags().Uint64Var(&fid, "fid", 0, "FID this key will be bound to in the vault")
	cmd.Flags().StringVar(&label, "label", "", "human-readable label for this key")
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "BIP-39 mnemonic phrase")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "optional BIP-39 passphrase (shortcut derivation only)")
	cmd.Flags().BoolVar(&bip44, "bip44", false, "use standard m/44'/60'/0'/0/0 derivation instead of the shortcut")
	cmd.Flags().BoolVar(&generate, "generate", false, "generate a fresh mnemonic instead of taking --mnemonic")
	cmd.MarkFlagRequired("fid")
	return cmd
}

func newVaultListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list every FID/address pair stored in the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(context.Background())
			if err != nil {
				return err
			}
			printJSON(a.Vault.List())
			return nil
		},
	}
}

func newVaultRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <fid>",
		Short: "delete a key from the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(context.Background())
			if err != nil {
				return err
			}
			var fid uint64
			if _, err := fmt.Sscanf(args[0], "%d", &fid); err != nil {
				return fmt.Errorf("invalid fid %q: %w", args[0], err)
			}
			if aerr := a.Vault.Delete(fid); aerr != nil {
				os.Exit(exitForError(aerr))
			}
			printJSON(map[string]interface{}{"removed_fid": fid})
			return nil
		},
	}
}
