package contracts

import (
	"context"
	"math/big"

	"github.com/farcaster-ops/opkit/apperr"
	"github.com/farcaster-ops/opkit/node"
)

const idGatewayABI = `[
	{"name":"price","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"priceForUnits","type":"function","stateMutability":"view",
	 "inputs":[{"name":"extraStorage","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"name":"storageRegistry","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"name":"paused","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"name":"register","type":"function","stateMutability":"payable",
	 "inputs":[{"name":"recovery","type":"address"}],
	 "outputs":[{"name":"fid","type":"uint256"}]},
	{"name":"registerWithStorage","type":"function","stateMutability":"payable",
	 "inputs":[{"name":"recovery","type":"address"},{"name":"extraStorage","type":"uint256"}],
	 "outputs":[{"name":"fid","type":"uint256"}]}
]`

// IDGateway is the mutation-side contract that mints FIDs. It gates
// registration on price, pausedness, and (for register_for) a signature.
type IDGateway struct{ base }

// NewIDGateway binds an IDGateway adapter to address over client.
func NewIDGateway(client node.Caller, address Address) *IDGateway {
	return &IDGateway{base{client: client, address: address, abi: mustABI(idGatewayABI)}}
}

// Price returns the wei cost of a bare registration (no extra storage).
func (g *IDGateway) Price(ctx context.Context) Result[*big.Int] {
	var out *big.Int
	if err := g.readCall(ctx, &out, "price"); err != nil {
		return Err[*big.Int](err)
	}
	return Ok(out)
}

// PriceWithExtra returns the wei cost of registering with units of extra
// storage rented atomically.
func (g *IDGateway) PriceWithExtra(ctx context.Context, units *big.Int) Result[*big.Int] {
	var out *big.Int
	if err := g.readCall(ctx, &out, "priceForUnits", units); err != nil {
		return Err[*big.Int](err)
	}
	return Ok(out)
}

// StorageRegistry returns the Storage Registry address this gateway pays
// into when extra storage is requested.
func (g *IDGateway) StorageRegistry(ctx context.Context) Result[Address] {
	var out Address
	if err := g.readCall(ctx, &out, "storageRegistry"); err != nil {
		return Err[Address](err)
	}
	return Ok(out)
}

// Paused reports whether the gateway currently rejects registrations.
func (g *IDGateway) Paused(ctx context.Context) Result[bool] {
	var out bool
	if err := g.readCall(ctx, &out, "paused"); err != nil {
		return Err[bool](err)
	}
	return Ok(out)
}

// Register prepares calldata to mint a new FID for the caller with the
// given recovery address, paying exactly value (the current Price()).
// Refuses with Unauthorized if the gateway is paused, per spec §4.3's
// pausedness invariant.
func (g *IDGateway) Register(ctx context.Context, recovery Address, value *big.Int) (Call, *apperr.Error) {
	if p := g.Paused(ctx); !p.IsOk() {
		return Call{}, p.Err
	} else if p.Value {
		return Call{}, apperr.New(apperr.Unauthorized)
	}
	return g.packCall(value, "register", recovery)
}

// RegisterWithStorage prepares calldata to mint a new FID and rent
// extraStorage units atomically, paying exactly value.
func (g *IDGateway) RegisterWithStorage(ctx context.Context, recovery Address, extraStorage, value *big.Int) (Call, *apperr.Error) {
	if p := g.Paused(ctx); !p.IsOk() {
		return Call{}, p.Err
	} else if p.Value {
		return Call{}, apperr.New(apperr.Unauthorized)
	}
	return g.packCall(value, "registerWithStorage", recovery, extraStorage)
}
