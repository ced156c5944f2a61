package contracts

import (
	"context"
	"math/big"

	"github.com/farcaster-ops/opkit/codec"
	"github.com/farcaster-ops/opkit/node"
)

const idRegistryABI = `[
	{"name":"custodyOf","type":"function","stateMutability":"view",
	 "inputs":[{"name":"fid","type":"uint256"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"name":"idOf","type":"function","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"name":"recoveryOf","type":"function","stateMutability":"view",
	 "inputs":[{"name":"fid","type":"uint256"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"name":"idCounter","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"paused","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"name":"gatewayFrozen","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"name":"version","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

// verifyFidSignatureSelector is computed and called by hand through
// codec rather than accounts/abi: some legacy signature-validator
// proxies reply with a bool word that isn't strictly zero-padded to the
// single low byte the typed ABI unpacker expects, which it rejects as a
// decode error. codec.Reader's Bool treats any nonzero word as true
// (see its doc comment) and tolerates that reply shape.
var verifyFidSignatureSelector = codec.Selector("verifyFidSignature(address,uint256,bytes32,bytes)")

// IDRegistry wraps the contract of record for FID ownership and recovery.
// It never mutates state directly — register/transfer go through the ID
// Gateway (spec §4.3's adapter table).
type IDRegistry struct{ base }

// NewIDRegistry binds an IDRegistry adapter to address over client.
func NewIDRegistry(client node.Caller, address Address) *IDRegistry {
	return &IDRegistry{base{client: client, address: address, abi: mustABI(idRegistryABI)}}
}

// CustodyOf returns the current custody address owning fid.
func (r *IDRegistry) CustodyOf(ctx context.Context, fid FID) Result[Address] {
	var out Address
	if err := r.readCall(ctx, &out, "custodyOf", new(big.Int).SetUint64(uint64(fid))); err != nil {
		return Err[Address](err)
	}
	return Ok(out)
}

// IDOf returns the FID owned by addr, or zero if addr owns no FID.
func (r *IDRegistry) IDOf(ctx context.Context, addr Address) Result[FID] {
	var out *big.Int
	if err := r.readCall(ctx, &out, "idOf", addr); err != nil {
		return Err[FID](err)
	}
	return Ok(FID(out.Uint64()))
}

// RecoveryOf returns the recovery address empowered to relocate fid.
func (r *IDRegistry) RecoveryOf(ctx context.Context, fid FID) Result[Address] {
	var out Address
	if err := r.readCall(ctx, &out, "recoveryOf", new(big.Int).SetUint64(uint64(fid))); err != nil {
		return Err[Address](err)
	}
	return Ok(out)
}

// IDCounter returns the next FID to be minted.
func (r *IDRegistry) IDCounter(ctx context.Context) Result[FID] {
	var out *big.Int
	if err := r.readCall(ctx, &out, "idCounter"); err != nil {
		return Err[FID](err)
	}
	return Ok(FID(out.Uint64()))
}

// Paused reports whether the ID Registry currently rejects mutations.
func (r *IDRegistry) Paused(ctx context.Context) Result[bool] {
	var out bool
	if err := r.readCall(ctx, &out, "paused"); err != nil {
		return Err[bool](err)
	}
	return Ok(out)
}

// GatewayFrozen reports whether the registry has permanently frozen its
// gateway pointer (a one-way migration flag some deployments expose).
func (r *IDRegistry) GatewayFrozen(ctx context.Context) Result[bool] {
	var out bool
	if err := r.readCall(ctx, &out, "gatewayFrozen"); err != nil {
		return Err[bool](err)
	}
	return Ok(out)
}

// Version returns the contract's semantic version string.
func (r *IDRegistry) Version(ctx context.Context) Result[string] {
	var out string
	if err := r.readCall(ctx, &out, "version"); err != nil {
		return Err[string](err)
	}
	return Ok(out)
}

// VerifyFIDSignature asks the registry to verify that sig over digest was
// produced by custodyAddress acting for fid. Used by the verification
// layer's security probe and by callers validating an externally supplied
// authorization before spending gas on it. Encoded and decoded through
// codec rather than accounts/abi — see verifyFidSignatureSelector's doc.
func (r *IDRegistry) VerifyFIDSignature(ctx context.Context, custodyAddress Address, fid FID, digest [32]byte, sig []byte) Result[bool] {
	data := codec.NewBuilder(verifyFidSignatureSelector).
		PutWord(codec.EncodeAddress(custodyAddress)).
		PutWord(codec.EncodeUint256(new(big.Int).SetUint64(uint64(fid)))).
		PutWord(codec.Word(digest)).
		PutDynamic(sig).
		Bytes()

	result, err := r.rawCall(ctx, data)
	if err != nil {
		return Err[bool](err)
	}
	out, derr := codec.NewReader(result).Bool(0)
	if derr != nil {
		return Err[bool](derr)
	}
	return Ok(out)
}
