// Package eip712 constructs and signs the "Add" authorization a custody
// wallet grants so a separate payer (or the Key Gateway itself, via
// addFor) can submit a key addition on the owner's behalf. The domain
// separator and struct hash construction follow the same hand-rolled
// keccak256 encoding the teacher's local payment facilitator uses for
// its own EIP-712 authorization, applied to the Key Gateway's "Add"
// struct under a caller-supplied domain. Add is the only struct type
// this package hashes.
package eip712

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Domain identifies the verifying contract an authorization is scoped
// to, per EIP-712's EIP712Domain struct (name, version, chainId,
// verifyingContract — salt is unused by this protocol family).
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

var domainTypeHash = crypto.Keccak256Hash([]byte(
	"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
))

// AddTypeHash is the typehash for the "Add" struct the Key Gateway's
// addFor expects: an owner authorizing a key addition, bound to a
// replay nonce and a deadline.
var AddTypeHash = crypto.Keccak256Hash([]byte(
	"Add(address owner,uint32 keyType,bytes key,uint8 metadataType,bytes metadata,uint256 nonce,uint256 deadline)",
))

// Separator computes keccak256(abi.encode(domainTypeHash, keccak256(name),
// keccak256(version), chainId, verifyingContract)).
func (d Domain) Separator() common.Hash {
	enc := make([]byte, 5*32)
	copy(enc[0:32], domainTypeHash.Bytes())
	copy(enc[32:64], crypto.Keccak256([]byte(d.Name)))
	copy(enc[64:96], crypto.Keccak256([]byte(d.Version)))
	copy(enc[96:128], pad32(d.ChainID))
	copy(enc[128:160], addrPad(d.VerifyingContract))
	return crypto.Keccak256Hash(enc)
}

// AddMessage is the signable content of a PendingAdd authorization.
type AddMessage struct {
	Owner        common.Address
	KeyType      uint32
	Key          []byte
	MetadataType uint8
	Metadata     []byte
	Nonce        *big.Int
	Deadline     *big.Int
}

// StructHash computes keccak256(abi.encode(AddTypeHash, owner, keyType,
// keccak256(key), metadataType, keccak256(metadata), nonce, deadline)).
func (m AddMessage) StructHash() common.Hash {
	enc := make([]byte, 8*32)
	copy(enc[0:32], AddTypeHash.Bytes())
	copy(enc[32:64], addrPad(m.Owner))
	copy(enc[64:96], pad32(new(big.Int).SetUint64(uint64(m.KeyType))))
	copy(enc[96:128], crypto.Keccak256(m.Key))
	copy(enc[128:160], pad32(new(big.Int).SetUint64(uint64(m.MetadataType))))
	copy(enc[160:192], crypto.Keccak256(m.Metadata))
	copy(enc[192:224], pad32(m.Nonce))
	copy(enc[224:256], pad32(m.Deadline))
	return crypto.Keccak256Hash(enc)
}

// Digest computes the final EIP-712 digest keccak256(0x1901 ||
// domainSeparator || structHash) a signature is produced over.
func Digest(domain Domain, msg AddMessage) common.Hash {
	ds := domain.Separator()
	sh := msg.StructHash()
	buf := make([]byte, 0, 2+32+32)
	buf = append(buf, 0x19, 0x01)
	buf = append(buf, ds.Bytes()...)
	buf = append(buf, sh.Bytes()...)
	return crypto.Keccak256Hash(buf)
}

func pad32(n *big.Int) []byte {
	b := n.Bytes()
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}

func addrPad(a common.Address) []byte {
	padded := make([]byte, 32)
	copy(padded[12:], a.Bytes())
	return padded
}
