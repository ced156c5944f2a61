package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/farcaster-ops/opkit/apperr"
)

// Argon2id parameters. time=3, memory=64MiB, threads=4 are the
// argon2id.Draft-13 recommended interactive-use minimums; a vault
// unlock happens once per CLI invocation, not in a hot loop, so a
// moderately expensive KDF is acceptable.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32

	saltLen  = 16
	nonceLen = 12
)

// deriveKey stretches password+salt into a 32-byte AES-256 key via
// Argon2id.
func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// newSalt generates a fresh random KDF salt.
func newSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// seal encrypts plaintext under a key derived from password+salt using
// AES-256-GCM with a fresh random nonce, returning (salt, nonce,
// ciphertext-with-tag).
func seal(password string, plaintext []byte) (salt, nonce, ciphertext []byte, err error) {
	salt, err = newSalt()
	if err != nil {
		return nil, nil, nil, err
	}
	key := deriveKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, nil, err
	}
	nonce = make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, nil, err
	}
	ciphertext = gcm.Seal(nil, nonce, plaintext, nil)
	return salt, nonce, ciphertext, nil
}

// open decrypts ciphertext under a key derived from password+salt,
// authenticating nonce. A wrong password or tampered ciphertext both
// surface as apperr.AuthFailure — GCM's tag check doesn't distinguish
// the two, and neither should a caller need to.
func open(password string, salt, nonce, ciphertext []byte) ([]byte, *apperr.Error) {
	key := deriveKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperr.Wrap(apperr.DecodeFailure, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperr.Wrap(apperr.DecodeFailure, err)
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, apperr.Wrap(apperr.Tampered, errors.New("malformed nonce length"))
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.AuthFailure, err)
	}
	return plaintext, nil
}
