package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newSessionCmd exposes appctx.App's SessionManager: unlock issues a
// token for a vault FID, redeem and revoke check or end it. Each opkit
// invocation bootstraps a fresh in-memory signing secret, so a token is
// only accepted by the process that issued it; a later invocation
// rejects it, and no other subcommand accepts a token in place of the
// vault password.
func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "unlock a vault FID once and reuse the resulting token until it expires",
	}
	cmd.AddCommand(newSessionUnlockCmd(), newSessionRedeemCmd(), newSessionRevokeCmd())
	return cmd
}

func newSessionRedeemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redeem <token>",
		Short: "confirm a session token is still valid and print the address it would sign with",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			addr, _, aerr := a.RedeemSession(args[0])
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
			printJSON(map[string]interface{}{"address": addr.Hex()})
			return nil
		},
	}
	return cmd
}

func newSessionUnlockCmd() *cobra.Command {
	var fid uint64
	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "decrypt a vault FID's custody key and print a session token",
		Long: "The decrypted key never leaves this process. The printed token is an\n" +
			"opaque, signed reference to it, valid until the configured session TTL\n" +
			"expires or `session revoke` is called — it is not a substitute for the\n" +
			"vault password and should be treated as a bearer credential. The\n" +
			"signing secret lives only in this process, so a later opkit\n" +
			"invocation rejects the token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			pw, err := password(a.Cfg)
			if err != nil {
				return err
			}
			token, aerr := a.UnlockSession(fid, pw)
			if aerr != nil {
				os.Exit(exitForError(aerr))
			}
			printJSON(map[string]interface{}{"fid": fid, "token": token})
			return nil
		},
	}
	cmd.Flags().Uint64Var(&fid, "fid", 0, "vault FID to unlock")
	cmd.MarkFlagRequired("fid")
	return cmd
}

func newSessionRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <token>",
		Short: "end a session immediately and forget its cached key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			if aerr := a.RevokeSession(args[0]); aerr != nil {
				os.Exit(exitForError(aerr))
			}
			fmt.Fprintln(os.Stderr, "session revoked")
			return nil
		},
	}
	return cmd
}
