package vault

import (
	"crypto/ecdsa"

	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/tyler-smith/go-bip39"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/farcaster-ops/opkit/apperr"
)

// legacyDerivationKeyLen matches the 32 bytes a secp256k1 private key
// needs; the BIP-39 seed itself is 64 bytes.
const legacyDerivationKeyLen = 32

// deriveCustodyKeyShortcut reproduces this protocol family's historic
// (non-BIP-32) derivation: the private key is simply the first 32 bytes
// of the BIP-39 seed, with no further HD derivation path walked. This is
// the default because it's what the deployed wallets and the reference
// implementation actually use — callers who want BIP-44-correct
// derivation must opt into CreateFromMnemonicBIP44 explicitly.
func deriveCustodyKeyShortcut(mnemonic, passphrase string) (*ecdsa.PrivateKey, *apperr.Error) {
	seed := bip39.NewSeed(mnemonic, passphrase)
	if len(seed) < legacyDerivationKeyLen {
		return nil, apperr.New(apperr.DecodeFailure)
	}
	key, err := crypto.ToECDSA(seed[:legacyDerivationKeyLen])
	if err != nil {
		return nil, apperr.Wrap(apperr.DecodeFailure, err)
	}
	return key, nil
}

// deriveCustodyKeyBIP44 walks the standard Ethereum HD path
// m/44'/60'/0'/0/0 over the BIP-39 seed, for callers who need
// interoperability with wallets that derive keys the conventional way
// (spec's open question on mnemonic derivation, resolved in DESIGN.md:
// both constructors are offered, shortcut is default).
func deriveCustodyKeyBIP44(mnemonic string) (*ecdsa.PrivateKey, *apperr.Error) {
	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, apperr.Wrap(apperr.DecodeFailure, err)
	}
	path := hdwallet.MustParseDerivationPath("m/44'/60'/0'/0/0")
	account, err := wallet.Derive(path, false)
	if err != nil {
		return nil, apperr.Wrap(apperr.DecodeFailure, err)
	}
	key, err := wallet.PrivateKey(account)
	if err != nil {
		return nil, apperr.Wrap(apperr.DecodeFailure, err)
	}
	return key, nil
}

// NewMnemonic generates a fresh 24-word (256-bit entropy) BIP-39
// mnemonic.
func NewMnemonic() (string, *apperr.Error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", apperr.Wrap(apperr.Transport, err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", apperr.Wrap(apperr.DecodeFailure, err)
	}
	return mnemonic, nil
}

// ValidMnemonic reports whether mnemonic is well-formed BIP-39 (correct
// word count and checksum).
func ValidMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}
