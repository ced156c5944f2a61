package eip712

import (
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/farcaster-ops/opkit/apperr"
)

// Sign produces a 65-byte [R || S || V] signature over the Add
// authorization's digest, then locally ecrecover-verifies it against
// key's own address before returning — the same belt-and-suspenders
// check the teacher's facilitator runs on signatures it receives,
// applied here to signatures this side produces, so a key-derivation
// bug never silently ships a useless authorization.
//
// An Add authorization whose Deadline has already passed is not a
// valid Add regardless of signature correctness, so Sign rejects it
// before ever touching the digest.
func Sign(key *ecdsa.PrivateKey, domain Domain, msg AddMessage) ([]byte, *apperr.Error) {
	if msg.Deadline == nil || msg.Deadline.Cmp(big.NewInt(time.Now().Unix())) <= 0 {
		return nil, apperr.New(apperr.AuthFailure)
	}

	digest := Digest(domain, msg)
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, apperr.Wrap(apperr.AuthFailure, err)
	}

	expected := crypto.PubkeyToAddress(key.PublicKey)
	recovered, verr := RecoverSigner(domain, msg, sig)
	if verr != nil {
		return nil, verr
	}
	if recovered != expected {
		return nil, apperr.New(apperr.AuthFailure)
	}

	// Normalize V to Ethereum's 27/28 convention; crypto.Sign returns 0/1.
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}

// RecoverSigner recovers the address that produced sig over domain/msg's
// digest. sig may carry either V convention (0/1 or 27/28).
func RecoverSigner(domain Domain, msg AddMessage, sig []byte) (common.Address, *apperr.Error) {
	if len(sig) != 65 {
		return common.Address{}, apperr.New(apperr.DecodeFailure)
	}
	normalized := make([]byte, 65)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}

	digest := Digest(domain, msg)
	pubBytes, err := crypto.Ecrecover(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, apperr.Wrap(apperr.AuthFailure, err)
	}
	pub, err := crypto.UnmarshalPubkey(pubBytes)
	if err != nil {
		return common.Address{}, apperr.Wrap(apperr.AuthFailure, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
