// Package appctx wires config, the key vault, the contract adapters, the
// nonce sequencer, the transaction orchestrator, and the verification
// layer into one bundle that every opkit subcommand builds the same way,
// plus a session cache (vault.SessionManager) that maps a session token
// to its decrypted key. The cache and the token signing secret live only
// in memory, so a token is redeemable only inside the process that
// issued it.
package appctx

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/farcaster-ops/opkit/apperr"
	"github.com/farcaster-ops/opkit/config"
	"github.com/farcaster-ops/opkit/contracts"
	"github.com/farcaster-ops/opkit/node"
	"github.com/farcaster-ops/opkit/nonce"
	"github.com/farcaster-ops/opkit/txorch"
	"github.com/farcaster-ops/opkit/vault"
	"github.com/farcaster-ops/opkit/verify"
)

// App bundles every wired dependency a CLI subcommand or MCP tool
// handler needs.
type App struct {
	Cfg       *config.Config
	Client    *node.Client
	Vault     *vault.Vault
	Sequencer *nonce.Sequencer
	Orch      *txorch.Orchestrator

	IDRegistry  *contracts.IDRegistry
	IDGateway   *contracts.IDGateway
	KeyRegistry *contracts.KeyRegistry
	KeyGateway  *contracts.KeyGateway
	Storage     *contracts.StorageRegistry
	Bundler     *contracts.Bundler
	Validator   *contracts.SignedKeyRequestValidator
	Verifier    *verify.Verifier

	Sessions *vault.SessionManager

	walletsMu sync.Mutex
	wallets   map[string]*ecdsa.PrivateKey // session ID -> decrypted custody key
}

// Bootstrap loads config, dials the node, opens the vault, and wires
// every adapter/orchestrator/verifier both entrypoints share.
func Bootstrap(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	client, err := node.Dial(ctx, cfg.ChainRPCURL, cfg.RPCTimeout)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", cfg.ChainRPCURL, err)
	}

	vaultPath := cfg.VaultPath
	if vaultPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		vaultPath = filepath.Join(dir, "opkit", "vault.json")
		_ = os.MkdirAll(filepath.Dir(vaultPath), 0700)
	}
	v, aerr := vault.Open(vaultPath)
	if aerr != nil {
		return nil, aerr
	}

	secret, aerr := vault.NewEphemeralSecret()
	if aerr != nil {
		return nil, aerr
	}

	seq := nonce.NewSequencer(client)
	orch := txorch.NewOrchestrator(client, seq, cfg.ReceiptTimeout)

	a := &App{
		Cfg:         cfg,
		Client:      client,
		Vault:       v,
		Sequencer:   seq,
		Orch:        orch,
		IDRegistry:  contracts.NewIDRegistry(client, cfg.Addresses.IDRegistry),
		IDGateway:   contracts.NewIDGateway(client, cfg.Addresses.IDGateway),
		KeyRegistry: contracts.NewKeyRegistry(client, cfg.Addresses.KeyRegistry),
		KeyGateway:  contracts.NewKeyGateway(client, cfg.Addresses.KeyGateway),
		Storage:     contracts.NewStorageRegistry(client, cfg.Addresses.StorageRegistry),
		Bundler:     contracts.NewBundler(client, cfg.Addresses.Bundler),
		Validator:   contracts.NewSignedKeyRequestValidator(client, cfg.Addresses.SignedKeyRequestValidator),
		Sessions:    vault.NewSessionManager(secret, cfg.SessionTTL),
		wallets:     make(map[string]*ecdsa.PrivateKey),
	}
	a.Verifier = verify.NewVerifier(client, a.IDRegistry, a.KeyRegistry, a.KeyGateway)
	return a, nil
}

// UnlockSession decrypts fid's custody key from the vault and issues a
// session token redeemable for it until the configured TTL expires. The
// decrypted key itself never leaves this process — only the opaque
// token does.
func (a *App) UnlockSession(fid uint64, password string) (string, *apperr.Error) {
	key, aerr := a.Vault.Unlock(fid, password)
	if aerr != nil {
		return "", aerr
	}
	address := crypto.PubkeyToAddress(key.PublicKey)
	token, err := a.Sessions.IssueSession(a.Cfg.VaultPath, address.Hex())
	if err != nil {
		return "", apperr.Wrap(apperr.AuthFailure, err)
	}
	claims, err := a.Sessions.ValidateSession(token)
	if err != nil {
		return "", apperr.Wrap(apperr.AuthFailure, err)
	}
	a.walletsMu.Lock()
	a.wallets[claims.SessionID] = key
	a.walletsMu.Unlock()
	return token, nil
}

// RedeemSession validates token and returns the custody key it was
// issued for, so a caller can submit several transactions within the
// session's TTL without supplying the vault password again.
func (a *App) RedeemSession(token string) (common.Address, *ecdsa.PrivateKey, *apperr.Error) {
	claims, err := a.Sessions.ValidateSession(token)
	if err != nil {
		return common.Address{}, nil, apperr.Wrap(apperr.AuthFailure, err)
	}
	a.walletsMu.Lock()
	key, ok := a.wallets[claims.SessionID]
	a.walletsMu.Unlock()
	if !ok {
		return common.Address{}, nil, apperr.New(apperr.NotFound)
	}
	return common.HexToAddress(claims.Address), key, nil
}

// RevokeSession ends token's session immediately and forgets its cached
// key, independent of the token's signed expiry.
func (a *App) RevokeSession(token string) *apperr.Error {
	claims, err := a.Sessions.ValidateSession(token)
	if err != nil {
		return apperr.Wrap(apperr.AuthFailure, err)
	}
	a.Sessions.Revoke(claims)
	a.walletsMu.Lock()
	delete(a.wallets, claims.SessionID)
	a.walletsMu.Unlock()
	return nil
}
