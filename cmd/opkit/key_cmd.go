package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/farcaster-ops/opkit/contracts"
	"github.com/farcaster-ops/opkit/eip712"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "add, remove, and list signer keys registered under an FID",
	}
	cmd.AddCommand(newKeyAddCmd(), newKeyAddForCmd(), newKeyRemoveCmd(), newKeyListCmd(), newKeyValidateMetadataCmd())
	return cmd
}

func newKeyAddCmd() *cobra.Command {
	var custodyFID uint64
	var keyHex, metadataHex string
	var metadataType uint8
	cmd := &cobra.Command{
		Use:   "add",
		Short: "add a signer key to custody's own FID directly",
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

			call, cerr := a.KeyGateway.Add(ctx, contracts.Ed25519Scheme, keyMaterial, metadataType, metadata)
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
	cmd.Flags().Uint64Var(&custodyFID, "custody-fid", 0, "vault FID that owns the account and signs directly")
	cmd.Flags().StringVar(&keyHex, "key", "", "0x-prefixed signer public key bytes to register")
	cmd.Flags().StringVar(&metadataHex, "metadata", "0x", "0x-prefixed opaque metadata accompanying the key")
	cmd.Flags().Uint8Var(&metadataType, "metadata-type", 1, "metadata encoding type the registry expects")
	cmd.MarkFlagRequired("custody-fid")
	cmd.MarkFlagRequired("key")
	return cmd
}

func newKeyAddForCmd() *cobra.Command {
	var ownerFID, payerFID uint64
	var keyHex, metadataHex string
	var metadataType uint8
	var deadlineSeconds int64
	cmd := &cobra.Command{
		Use:   "add-for",
		Short: "sign an Add authorization as owner and submit it from a separate payer wallet",
		Long: "owner's custody key signs an EIP-712 Add authorization off-chain;\n" +
			"payer then submits addFor and covers the gas. owner and payer may be\n" +
			"the same vault address for the delegated-same-wallet path.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			if payerFID == 0 {
				payerFID = ownerFID
			}
			ownerAddr, aerr := a.Vault.AddressOf(ownerFID)
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
			payerAddress, aerr := a.Vault.AddressOf(payerFID)
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
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
			ownerKey, aerr := a.Vault.Unlock(ownerFID, pw)
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
			var payerKey = ownerKey
			if payerAddress != ownerAddr {
				payerKey, aerr = a.Vault.Unlock(payerFID, pw)
				if aerr != nil {
					os.Exit(exitForError(aerr))
				}
			}

			chainID, err := mustChainID(ctx, a)
			if err != nil {
				return err
			}
			nonceRes := a.KeyGateway.Nonces(ctx, ownerAddr)
			if !nonceRes.IsOk() {
				os.Exit(exitForError(nonceRes.Err))
			}
			deadline := big.NewInt(time.Now().Add(time.Duration(deadlineSeconds) * time.Second).Unix())

			domain := eip712.Domain{
				Name:              "Key Gateway",
				Version:           "1",
				ChainID:           chainID,
				VerifyingContract: a.Cfg.Addresses.KeyGateway,
			}
			msg := eip712.AddMessage{
				Owner:        ownerAddr,
				KeyType:      uint32(contracts.Ed25519Scheme),
				Key:          keyMaterial,
				MetadataType: metadataType,
				Metadata:     metadata,
				Nonce:        nonceRes.Value,
				Deadline:     deadline,
			}
			sig, serr := eip712.Sign(ownerKey, domain, msg)
			if serr != nil {
				os.Exit(exitForError(serr))
			}

			if perr := a.Sequencer.Bind(ctx, payerAddress); perr != nil {
				os.Exit(exitForError(perr))
			}
			call, cerr := a.KeyGateway.AddFor(ctx, ownerAddr, contracts.Ed25519Scheme, keyMaterial, metadataType, metadata, deadline, sig)
			if cerr != nil {
				os.Exit(exitForError(cerr))
			}

			submit := a.Orch.SubmitSeparatePayer
			if payerAddress == ownerAddr {
				submit = a.Orch.SubmitDelegatedSameWallet
			}
			res := submit(ctx, payerKey, call, chainID)
			os.Exit(exitForResult(res))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&ownerFID, "owner-fid", 0, "vault FID that owns the account and signs the Add authorization")
	cmd.Flags().Uint64Var(&payerFID, "payer-fid", 0, "vault FID that submits and pays gas (defaults to --owner-fid)")
	cmd.Flags().StringVar(&keyHex, "key", "", "0x-prefixed signer public key bytes to register")
	cmd.Flags().StringVar(&metadataHex, "metadata", "0x", "0x-prefixed opaque metadata accompanying the key")
	cmd.Flags().Uint8Var(&metadataType, "metadata-type", 1, "metadata encoding type the registry expects")
	cmd.Flags().Int64Var(&deadlineSeconds, "deadline-seconds", 600, "seconds from now the authorization remains valid")
	cmd.MarkFlagRequired("owner-fid")
	return cmd
}

func newKeyRemoveCmd() *cobra.Command {
	var custodyFID uint64
	var keyHex string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "retire one of custody's own signer keys",
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
			keyMaterial, err := parseHexBytes(keyHex)
			if err != nil {
				return fmt.Errorf("invalid --key: %w", err)
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

			call, cerr := a.KeyRegistry.Remove(ctx, keyMaterial)
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
	cmd.Flags().Uint64Var(&custodyFID, "custody-fid", 0, "vault FID that owns the account and signs directly")
	cmd.Flags().StringVar(&keyHex, "key", "", "0x-prefixed signer public key bytes to remove")
	cmd.MarkFlagRequired("custody-fid")
	cmd.MarkFlagRequired("key")
	return cmd
}

func newKeyListCmd() *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "list <fid>",
		Short: "list signer keys registered under an FID in a given state",
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
			keyState, err := parseKeyState(state)
			if err != nil {
				return err
			}

			keys := a.KeyRegistry.KeysOf(ctx, contracts.FID(fid), keyState)
			if !keys.IsOk() {
				os.Exit(exitForError(keys.Err))
			}
			out := make([]string, len(keys.Value))
			for i, k := range keys.Value {
				out[i] = fmt.Sprintf("0x%x", k)
			}
			printJSON(map[string]interface{}{"fid": fid, "state": keyState.String(), "keys": out})
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "state", "active", "key state to list: active, inactive, or pending")
	return cmd
}

func newKeyValidateMetadataCmd() *cobra.Command {
	var keyHex, metadataHex string
	var fid uint64
	cmd := &cobra.Command{
		Use:   "validate-metadata",
		Short: "check a signed-key-request metadata blob against the validator contract before spending gas on add",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			keyMaterial, err := parseHexBytes(keyHex)
			if err != nil {
				return fmt.Errorf("invalid --key: %w", err)
			}
			metadata, err := parseHexBytes(metadataHex)
			if err != nil {
				return fmt.Errorf("invalid --metadata: %w", err)
			}

			ok := a.Validator.Validate(ctx, keyMaterial, contracts.FID(fid), metadata)
			if !ok.IsOk() {
				os.Exit(exitForError(ok.Err))
			}
			printJSON(map[string]interface{}{"fid": fid, "valid": ok.Value})
			return nil
		},
	}
	cmd.Flags().StringVar(&keyHex, "key", "", "0x-prefixed signer public key bytes the metadata was signed for")
	cmd.Flags().StringVar(&metadataHex, "metadata", "", "0x-prefixed signed-key-request metadata blob")
	cmd.Flags().Uint64Var(&fid, "fid", 0, "app FID the signed request names")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("metadata")
	cmd.MarkFlagRequired("fid")
	return cmd
}

func parseKeyState(s string) (contracts.KeyState, error) {
	switch s {
	case "active":
		return contracts.KeyStateActive, nil
	case "inactive":
		return contracts.KeyStateInactive, nil
	case "pending":
		return contracts.KeyStatePending, nil
	default:
		return 0, fmt.Errorf("invalid --state %q: want active, inactive, or pending", s)
	}
}
