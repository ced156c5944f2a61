// Package codec is a hand-rolled Solidity ABI encoder/decoder reserved
// for call sites the typed accounts/abi path can't serve: a legacy
// contract replying with a bool word that isn't strictly zero-padded to
// its low byte, or a selector collision between two candidate signatures. Every other adapter method
// goes through accounts/abi for full type safety.
package codec

import (
	"github.com/ethereum/go-ethereum/crypto"
)

// Selector returns the first 4 bytes of keccak256(signature), e.g.
// Selector("verifyFidSignature(address,uint256,bytes32,bytes)").
func Selector(signature string) [4]byte {
	hash := crypto.Keccak256([]byte(signature))
	var sel [4]byte
	copy(sel[:], hash[:4])
	return sel
}
