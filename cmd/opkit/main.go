// Command opkit is the CLI entrypoint: it wires config, the key vault,
// the contract adapters, the nonce sequencer, the EIP-712 signer, the
// transaction orchestrator, and the verification layer into a small set
// of subcommands, mirroring the teacher's flat main()-does-the-wiring
// style but split across cobra subcommands instead of a single HTTP
// server loop. All wiring lives in internal/appctx so a future embedder
// of this core (outside this CLI's scope) can reuse the same bootstrap.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/farcaster-ops/opkit/apperr"
	"github.com/farcaster-ops/opkit/config"
	"github.com/farcaster-ops/opkit/internal/appctx"
	"github.com/farcaster-ops/opkit/txorch"
)

// Exit codes per spec §6: Confirmed/Reverted/Timeout/AuthFailure/
// SecurityBreach map to 0/10/20/30/40; anything else falls through to a
// generic non-zero code.
const (
	exitOK             = 0
	exitReverted       = 10
	exitTimeout        = 20
	exitAuthFailure    = 30
	exitSecurityBreach = 40
	exitGeneric        = 1
)

// app is every wired dependency a subcommand needs; bootstrap hands out
// the shared appctx.App bundle so the CLI and anything else embedding
// this core (e.g. a test harness) wire dependencies identically.
type app = appctx.App

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitGeneric)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "opkit",
		Short: "operator CLI for registering FIDs, managing signer keys, and renting storage",
	}
	root.AddCommand(newVaultCmd(), newIDCmd(), newKeyCmd(), newStorageCmd(), newBundleCmd(), newVerifyCmd(), newSessionCmd())
	return root
}

// bootstrap loads config, dials the node, opens the vault, and wires the
// adapters/orchestrator/verifier every subcommand shares.
func bootstrap(ctx context.Context) (*app, error) {
	return appctx.Bootstrap(ctx)
}

// password resolves the vault password: the configured PASSWORD env var
// if set, otherwise an interactive masked prompt.
func password(cfg *config.Config) (string, error) {
	if cfg.Password != "" {
		return cfg.Password, nil
	}
	fmt.Fprint(os.Stderr, "vault password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// exitForError maps an *apperr.Error to the process exit code spec §6
// names, and prints a structured error to stdout before returning it.
func exitForError(err error) int {
	code, ok := apperr.CodeOf(err)
	if !ok {
		printJSON(map[string]string{"error": err.Error()})
		return exitGeneric
	}
	printJSON(map[string]string{"error": string(code), "detail": err.Error()})
	switch code {
	case apperr.Reverted:
		return exitReverted
	case apperr.Timeout:
		return exitTimeout
	case apperr.AuthFailure:
		return exitAuthFailure
	case apperr.SecurityBreach:
		return exitSecurityBreach
	default:
		return exitGeneric
	}
}

func exitForResult(res txorch.Result) int {
	if res.Err != nil {
		return exitForError(res.Err)
	}
	printJSON(res)
	switch res.Outcome {
	case txorch.Reverted:
		return exitReverted
	case txorch.TimedOut:
		return exitTimeout
	default:
		return exitOK
	}
}

func parseHexBytes(s string) ([]byte, error) {
	return hex.DecodeString(trimHexPrefix(s))
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func mustChainID(ctx context.Context, a *app) (*big.Int, error) {
	return a.Client.ChainID(ctx)
}
