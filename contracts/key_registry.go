package contracts

import (
	"context"
	"math/big"

	"github.com/farcaster-ops/opkit/apperr"
	"github.com/farcaster-ops/opkit/node"
)

const keyRegistryABI = `[
	{"name":"keys","type":"function","stateMutability":"view",
	 "inputs":[{"name":"fid","type":"uint256"},{"name":"key","type":"bytes"}],
	 "outputs":[{"name":"state","type":"uint8"},{"name":"keyType","type":"uint32"}]},
	{"name":"keysOf","type":"function","stateMutability":"view",
	 "inputs":[{"name":"fid","type":"uint256"},{"name":"state","type":"uint8"}],
	 "outputs":[{"name":"","type":"bytes[]"}]},
	{"name":"totalKeys","type":"function","stateMutability":"view",
	 "inputs":[{"name":"fid","type":"uint256"},{"name":"state","type":"uint8"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"name":"keyGateway","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"name":"paused","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"name":"remove","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"key","type":"bytes"}],"outputs":[]},
	{"name":"removeFor","type":"function","stateMutability":"nonpayable",
	 "inputs":[
	   {"name":"owner","type":"address"},
	   {"name":"key","type":"bytes"},
	   {"name":"deadline","type":"uint256"},
	   {"name":"sig","type":"bytes"}
	 ],"outputs":[]}
]`

// KeyRegistry holds the per-FID set of signer-key records.
type KeyRegistry struct{ base }

// NewKeyRegistry binds a KeyRegistry adapter to address over client.
func NewKeyRegistry(client node.Caller, address Address) *KeyRegistry {
	return &KeyRegistry{base{client: client, address: address, abi: mustABI(keyRegistryABI)}}
}

// KeyRecord mirrors spec §3's (fid, scheme, material, state) tuple as
// returned by a single keys() lookup (fid/material are the lookup keys,
// not part of the reply).
type KeyRecord struct {
	State  KeyState
	Scheme KeyScheme
}

// Keys looks up the record for (fid, material). A record that was never
// written reads back as {State: Active(0), Scheme: 0} on-chain — callers
// distinguish "found" from "never added" by the zero Scheme, since State
// alone can't tell them apart (see verify.SignerStatus).
func (k *KeyRegistry) Keys(ctx context.Context, fid FID, material []byte) Result[KeyRecord] {
	var out struct {
		State   uint8
		KeyType uint32
	}
	if err := k.readCall(ctx, &out, "keys", new(big.Int).SetUint64(uint64(fid)), material); err != nil {
		return Err[KeyRecord](err)
	}
	return Ok(KeyRecord{State: KeyState(out.State), Scheme: KeyScheme(out.KeyType)})
}

// KeysOf lists every key material registered under fid in the given
// state.
func (k *KeyRegistry) KeysOf(ctx context.Context, fid FID, state KeyState) Result[[][]byte] {
	var out [][]byte
	if err := k.readCall(ctx, &out, "keysOf", new(big.Int).SetUint64(uint64(fid)), uint8(state)); err != nil {
		return Err[[][]byte](err)
	}
	return Ok(out)
}

// TotalKeys returns the count of keys registered under fid in the given
// state.
func (k *KeyRegistry) TotalKeys(ctx context.Context, fid FID, state KeyState) Result[*big.Int] {
	var out *big.Int
	if err := k.readCall(ctx, &out, "totalKeys", new(big.Int).SetUint64(uint64(fid)), uint8(state)); err != nil {
		return Err[*big.Int](err)
	}
	return Ok(out)
}

// KeyGateway returns the address authorized to call add/remove on behalf
// of this registry.
func (k *KeyRegistry) KeyGateway(ctx context.Context) Result[Address] {
	var out Address
	if err := k.readCall(ctx, &out, "keyGateway"); err != nil {
		return Err[Address](err)
	}
	return Ok(out)
}

// Paused reports whether the registry currently rejects mutations.
func (k *KeyRegistry) Paused(ctx context.Context) Result[bool] {
	var out bool
	if err := k.readCall(ctx, &out, "paused"); err != nil {
		return Err[bool](err)
	}
	return Ok(out)
}

// Remove prepares calldata for the caller to retire one of their own
// keys.
func (k *KeyRegistry) Remove(ctx context.Context, material []byte) (Call, *apperr.Error) {
	if err := k.requireNotPaused(ctx); err != nil {
		return Call{}, err
	}
	return k.packCall(nil, "remove", material)
}

// RemoveFor prepares calldata removing owner's key via an EIP-712
// delegated authorization, letting a separate payer submit the removal.
func (k *KeyRegistry) RemoveFor(ctx context.Context, owner Address, material []byte, deadline *big.Int, sig []byte) (Call, *apperr.Error) {
	if err := k.requireNotPaused(ctx); err != nil {
		return Call{}, err
	}
	return k.packCall(nil, "removeFor", owner, material, deadline, sig)
}

func (k *KeyRegistry) requireNotPaused(ctx context.Context) *apperr.Error {
	p := k.Paused(ctx)
	if !p.IsOk() {
		return p.Err
	}
	if p.Value {
		return apperr.New(apperr.Unauthorized)
	}
	return nil
}
