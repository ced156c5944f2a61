package contracts

import (
	"context"
	"math/big"

	"github.com/farcaster-ops/opkit/apperr"
	"github.com/farcaster-ops/opkit/node"
)

const bundlerABI = `[
	{"name":"idGateway","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"name":"keyGateway","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"name":"paused","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"name":"price","type":"function","stateMutability":"view",
	 "inputs":[{"name":"extraStorage","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"name":"register","type":"function","stateMutability":"payable",
	 "inputs":[
	   {"name":"recovery","type":"address"},
	   {"name":"keys","type":"tuple[]","components":[
	      {"name":"keyType","type":"uint32"},
	      {"name":"key","type":"bytes"},
	      {"name":"metadataType","type":"uint8"},
	      {"name":"metadata","type":"bytes"}
	   ]},
	   {"name":"extraStorage","type":"uint256"}
	 ],
	 "outputs":[{"name":"fid","type":"uint256"}]}
]`

// BundlerKeyAdd is one signer key to admit as part of a bundled
// registration, mirroring the Key Gateway's add() arguments.
type BundlerKeyAdd struct {
	KeyType      KeyScheme
	Key          []byte
	MetadataType uint8
	Metadata     []byte
}

// Bundler atomically mints an FID, admits its initial signer keys, and
// rents extra storage in a single transaction — the onboarding path most
// wallets use instead of three separate calls (spec §4.3).
type Bundler struct{ base }

// NewBundler binds a Bundler adapter to address over client.
func NewBundler(client node.Caller, address Address) *Bundler {
	return &Bundler{base{client: client, address: address, abi: mustABI(bundlerABI)}}
}

// IDGateway returns the ID Gateway this bundler delegates registration
// to.
func (b *Bundler) IDGateway(ctx context.Context) Result[Address] {
	var out Address
	if err := b.readCall(ctx, &out, "idGateway"); err != nil {
		return Err[Address](err)
	}
	return Ok(out)
}

// KeyGateway returns the Key Gateway this bundler delegates key
// additions to.
func (b *Bundler) KeyGateway(ctx context.Context) Result[Address] {
	var out Address
	if err := b.readCall(ctx, &out, "keyGateway"); err != nil {
		return Err[Address](err)
	}
	return Ok(out)
}

// Paused reports whether the bundler currently rejects registrations.
func (b *Bundler) Paused(ctx context.Context) Result[bool] {
	var out bool
	if err := b.readCall(ctx, &out, "paused"); err != nil {
		return Err[bool](err)
	}
	return Ok(out)
}

// Price returns the wei cost of a bundled registration renting
// extraStorage units.
func (b *Bundler) Price(ctx context.Context, extraStorage *big.Int) Result[*big.Int] {
	var out *big.Int
	if err := b.readCall(ctx, &out, "price", extraStorage); err != nil {
		return Err[*big.Int](err)
	}
	return Ok(out)
}

// Register prepares calldata that mints a new FID for recovery, admits
// keys as its initial signers, and rents extraStorage units, all in one
// transaction, paying exactly value.
func (b *Bundler) Register(ctx context.Context, recovery Address, keys []BundlerKeyAdd, extraStorage, value *big.Int) (Call, *apperr.Error) {
	p := b.Paused(ctx)
	if !p.IsOk() {
		return Call{}, p.Err
	}
	if p.Value {
		return Call{}, apperr.New(apperr.Unauthorized)
	}
	type keyTuple struct {
		KeyType      uint32
		Key          []byte
		MetadataType uint8
		Metadata     []byte
	}
	tuples := make([]keyTuple, len(keys))
	for i, k := range keys {
		tuples[i] = keyTuple{
			KeyType:      uint32(k.KeyType),
			Key:          k.Key,
			MetadataType: k.MetadataType,
			Metadata:     k.Metadata,
		}
	}
	return b.packCall(value, "register", recovery, tuples, extraStorage)
}
