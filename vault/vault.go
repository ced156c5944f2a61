// Package vault stores secp256k1 custody keys encrypted at rest: a
// password stretched through Argon2id protects each key's private
// material under AES-256-GCM, and the whole vault round-trips through a
// single base64-encoded JSON file written atomically (temp file, then
// rename) so a crash never leaves a half-written vault on disk.
//
// Entries are keyed by decimal FID string rather than by address: a
// custody key in this tool's vault always exists to serve one account,
// and "which FID is this for" is the question every CLI command actually
// asks. The FID map is not the file's top-level object; it sits under
// "entries" beside a "version" tag:
// `{"version": 1, "entries": {"<fid>": {...}}}`.
package vault

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/farcaster-ops/opkit/apperr"
)

const vaultFormatVersion = 1

// Entry is one encrypted custody key, bound to the FID it was created
// for. Address is recorded alongside so metadata operations (List,
// AddressOf) never need to touch the ciphertext.
type Entry struct {
	FID       uint64 `json:"fid"`
	Address   string `json:"address"`
	Salt      string `json:"salt"`       // base64
	Nonce     string `json:"nonce"`      // base64
	Cipher    string `json:"ciphertext"` // base64, ciphertext||16-byte GCM tag
	CreatedAt int64  `json:"created_at"` // unix seconds
	Label     string `json:"label,omitempty"`
}

// file is the on-disk shape: a version tag plus every stored entry,
// keyed by decimal FID string under "entries".
type file struct {
	Version int               `json:"version"`
	Entries map[string]*Entry `json:"entries"`
}

// Vault is an opened key store backed by a single file on disk. Nothing
// is decrypted until a caller asks for a specific key — Open only
// parses the envelope, never the ciphertext within it.
type Vault struct {
	path string
	data file
}

// Open reads and parses path, or starts an empty in-memory vault if the
// file doesn't exist yet (first run).
func Open(path string) (*Vault, *apperr.Error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Vault{path: path, data: file{Version: vaultFormatVersion, Entries: map[string]*Entry{}}}, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Transport, err)
	}
	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, apperr.Wrap(apperr.DecodeFailure, err)
	}
	if f.Entries == nil {
		f.Entries = map[string]*Entry{}
	}
	return &Vault{path: path, data: f}, nil
}

func fidKey(fid uint64) string { return fmt.Sprintf("%d", fid) }

// save writes the vault's current contents atomically: encode to a temp
// file in the same directory, then rename over the real path, relying
// on rename's atomicity on the target filesystem.
func (v *Vault) save() *apperr.Error {
	raw, err := json.MarshalIndent(v.data, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.DecodeFailure, err)
	}
	dir := filepath.Dir(v.path)
	tmp, err := os.CreateTemp(dir, ".vault-*.tmp")
	if err != nil {
		return apperr.Wrap(apperr.Transport, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apperr.Wrap(apperr.Transport, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apperr.Wrap(apperr.Transport, err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return apperr.Wrap(apperr.Transport, err)
	}
	if err := os.Rename(tmpPath, v.path); err != nil {
		os.Remove(tmpPath)
		return apperr.Wrap(apperr.Transport, err)
	}
	return nil
}

// addKey seals key under password and stores it against fid. Refuses a
// fid already present with Conflict, per spec §4.1's "duplicate FID on
// create" failure mode. The encrypt round-trips through open() before
// the record is committed, so a vault entry is never written unless
// decrypting it would actually re-derive the recorded address.
func (v *Vault) addKey(fid uint64, password, label string, key *ecdsa.PrivateKey) (common.Address, *apperr.Error) {
	k := fidKey(fid)
	if _, exists := v.data.Entries[k]; exists {
		return common.Address{}, apperr.New(apperr.Conflict)
	}

	addr := crypto.PubkeyToAddress(key.PublicKey)
	plaintext := crypto.FromECDSA(key)

	salt, nonce, ciphertext, err := seal(password, plaintext)
	if err != nil {
		return common.Address{}, apperr.Wrap(apperr.Transport, err)
	}
	roundTripped, aerr := open(password, salt, nonce, ciphertext)
	if aerr != nil {
		return common.Address{}, apperr.New(apperr.Tampered)
	}
	roundKey, rerr := crypto.ToECDSA(roundTripped)
	if rerr != nil || crypto.PubkeyToAddress(roundKey.PublicKey) != addr {
		return common.Address{}, apperr.New(apperr.Tampered)
	}

	v.data.Entries[k] = &Entry{
		FID:       fid,
		Address:   addr.Hex(),
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Nonce:     base64.StdEncoding.EncodeToString(nonce),
		Cipher:    base64.StdEncoding.EncodeToString(ciphertext),
		CreatedAt: time.Now().Unix(),
		Label:     label,
	}
	if aerr := v.save(); aerr != nil {
		delete(v.data.Entries, k)
		return common.Address{}, aerr
	}
	return addr, nil
}

// CreateFromMnemonic derives a custody key from mnemonic using this
// protocol family's shortcut derivation (first 32 bytes of the BIP-39
// seed — see DESIGN.md), encrypts it under password, and binds it to
// fid. mnemonic must be a valid 12/15/18/21/24-word BIP-39 phrase.
func (v *Vault) CreateFromMnemonic(fid uint64, mnemonic, passphrase, password, label string) (common.Address, *apperr.Error) {
	if !ValidMnemonic(mnemonic) {
		return common.Address{}, apperr.New(apperr.DecodeFailure)
	}
	key, err := deriveCustodyKeyShortcut(mnemonic, passphrase)
	if err != nil {
		return common.Address{}, err
	}
	return v.addKey(fid, password, label, key)
}

// CreateFromMnemonicBIP44 derives a custody key from mnemonic using the
// standard Ethereum HD path m/44'/60'/0'/0/0, for interop with wallets
// that don't use this protocol family's shortcut derivation.
func (v *Vault) CreateFromMnemonicBIP44(fid uint64, mnemonic, password, label string) (common.Address, *apperr.Error) {
	if !ValidMnemonic(mnemonic) {
		return common.Address{}, apperr.New(apperr.DecodeFailure)
	}
	key, err := deriveCustodyKeyBIP44(mnemonic)
	if err != nil {
		return common.Address{}, err
	}
	return v.addKey(fid, password, label, key)
}

// CreateRandom generates a fresh secp256k1 key with no mnemonic backing
// it at all, encrypts it under password, and binds it to fid.
func (v *Vault) CreateRandom(fid uint64, password, label string) (common.Address, *apperr.Error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return common.Address{}, apperr.Wrap(apperr.Transport, err)
	}
	return v.addKey(fid, password, label, key)
}

// Import encrypts an already-held raw private key and binds it to fid.
func (v *Vault) Import(fid uint64, key *ecdsa.PrivateKey, password, label string) (common.Address, *apperr.Error) {
	return v.addKey(fid, password, label, key)
}

// Unlock decrypts the key stored under fid using password. If the
// derived address does not match the address recorded at creation time,
// Unlock fails closed with Tampered rather than returning a key whose
// provenance it can't vouch for.
func (v *Vault) Unlock(fid uint64, password string) (*ecdsa.PrivateKey, *apperr.Error) {
	entry, ok := v.data.Entries[fidKey(fid)]
	if !ok {
		return nil, apperr.New(apperr.NotFound)
	}
	salt, err := base64.StdEncoding.DecodeString(entry.Salt)
	if err != nil {
		return nil, apperr.Wrap(apperr.DecodeFailure, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(entry.Nonce)
	if err != nil {
		return nil, apperr.Wrap(apperr.DecodeFailure, err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(entry.Cipher)
	if err != nil {
		return nil, apperr.Wrap(apperr.DecodeFailure, err)
	}
	plaintext, aerr := open(password, salt, nonce, ciphertext)
	if aerr != nil {
		return nil, aerr
	}
	key, perr := crypto.ToECDSA(plaintext)
	if perr != nil {
		return nil, apperr.Wrap(apperr.Tampered, perr)
	}
	if crypto.PubkeyToAddress(key.PublicKey).Hex() != entry.Address {
		return nil, apperr.New(apperr.Tampered)
	}
	return key, nil
}

// List returns every entry in the vault, without decrypting anything.
func (v *Vault) List() []Entry {
	out := make([]Entry, 0, len(v.data.Entries))
	for _, e := range v.data.Entries {
		out = append(out, *e)
	}
	return out
}

// Has reports whether fid has a vault entry, without touching the
// ciphertext or requiring a password.
func (v *Vault) Has(fid uint64) bool {
	_, ok := v.data.Entries[fidKey(fid)]
	return ok
}

// AddressOf returns the custody address bound to fid, without
// decrypting anything.
func (v *Vault) AddressOf(fid uint64) (common.Address, *apperr.Error) {
	entry, ok := v.data.Entries[fidKey(fid)]
	if !ok {
		return common.Address{}, apperr.New(apperr.NotFound)
	}
	return common.HexToAddress(entry.Address), nil
}

// Delete removes fid's entry from the vault and persists the change.
// Deleting a fid that isn't present returns NotFound and leaves the file
// unchanged.
func (v *Vault) Delete(fid uint64) *apperr.Error {
	k := fidKey(fid)
	if _, ok := v.data.Entries[k]; !ok {
		return apperr.New(apperr.NotFound)
	}
	delete(v.data.Entries, k)
	return v.save()
}
