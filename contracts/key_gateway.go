package contracts

import (
	"context"
	"math/big"

	"github.com/farcaster-ops/opkit/apperr"
	"github.com/farcaster-ops/opkit/node"
)

const keyGatewayABI = `[
	{"name":"keyRegistry","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"name":"paused","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"name":"nonces","type":"function","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"name":"add","type":"function","stateMutability":"nonpayable",
	 "inputs":[
	   {"name":"keyType","type":"uint32"},
	   {"name":"key","type":"bytes"},
	   {"name":"metadataType","type":"uint8"},
	   {"name":"metadata","type":"bytes"}
	 ],"outputs":[]},
	{"name":"addFor","type":"function","stateMutability":"nonpayable",
	 "inputs":[
	   {"name":"fidOwner","type":"address"},
	   {"name":"keyType","type":"uint32"},
	   {"name":"key","type":"bytes"},
	   {"name":"metadataType","type":"uint8"},
	   {"name":"metadata","type":"bytes"},
	   {"name":"deadline","type":"uint256"},
	   {"name":"sig","type":"bytes"}
	 ],"outputs":[]}
]`

// KeyGateway is the mutation-side contract that admits new signer keys
// for an FID, either directly from the custody wallet or via a
// delegated PendingAdd authorization (spec §3's PendingAdd lifecycle).
type KeyGateway struct{ base }

// NewKeyGateway binds a KeyGateway adapter to address over client.
func NewKeyGateway(client node.Caller, address Address) *KeyGateway {
	return &KeyGateway{base{client: client, address: address, abi: mustABI(keyGatewayABI)}}
}

// KeyRegistry returns the Key Registry this gateway writes key records
// into.
func (g *KeyGateway) KeyRegistry(ctx context.Context) Result[Address] {
	var out Address
	if err := g.readCall(ctx, &out, "keyRegistry"); err != nil {
		return Err[Address](err)
	}
	return Ok(out)
}

// Paused reports whether the gateway currently rejects key additions.
func (g *KeyGateway) Paused(ctx context.Context) Result[bool] {
	var out bool
	if err := g.readCall(ctx, &out, "paused"); err != nil {
		return Err[bool](err)
	}
	return Ok(out)
}

// Nonces returns owner's current EIP-712 replay nonce, the value a
// PendingAdd authorization for owner must embed (spec §3).
func (g *KeyGateway) Nonces(ctx context.Context, owner Address) Result[*big.Int] {
	var out *big.Int
	if err := g.readCall(ctx, &out, "nonces", owner); err != nil {
		return Err[*big.Int](err)
	}
	return Ok(out)
}

// Add prepares calldata for the caller to add a key to their own FID
// directly from their custody wallet.
func (g *KeyGateway) Add(ctx context.Context, keyType KeyScheme, key []byte, metadataType uint8, metadata []byte) (Call, *apperr.Error) {
	if err := g.requireNotPaused(ctx); err != nil {
		return Call{}, err
	}
	return g.packCall(nil, "add", uint32(keyType), key, metadataType, metadata)
}

// AddFor prepares calldata adding a key to fidOwner's FID on their
// behalf, authorized by an EIP-712 "Add" signature — the delegated
// same-wallet or separate-payer submission path (spec §4.6).
func (g *KeyGateway) AddFor(ctx context.Context, fidOwner Address, keyType KeyScheme, key []byte, metadataType uint8, metadata []byte, deadline *big.Int, sig []byte) (Call, *apperr.Error) {
	if err := g.requireNotPaused(ctx); err != nil {
		return Call{}, err
	}
	return g.packCall(nil, "addFor", fidOwner, uint32(keyType), key, metadataType, metadata, deadline, sig)
}

func (g *KeyGateway) requireNotPaused(ctx context.Context) *apperr.Error {
	p := g.Paused(ctx)
	if !p.IsOk() {
		return p.Err
	}
	if p.Value {
		return apperr.New(apperr.Unauthorized)
	}
	return nil
}
