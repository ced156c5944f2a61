package contracts

import (
	"context"
	"math/big"

	"github.com/farcaster-ops/opkit/apperr"
	"github.com/farcaster-ops/opkit/node"
)

const storageRegistryABI = `[
	{"name":"price","type":"function","stateMutability":"view",
	 "inputs":[{"name":"units","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"name":"unitPrice","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"usdUnitPrice","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"maxUnits","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"rentedUnits","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"storageUnitsOf","type":"function","stateMutability":"view",
	 "inputs":[{"name":"fid","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"name":"deprecationTimestamp","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"paused","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"name":"rent","type":"function","stateMutability":"payable",
	 "inputs":[{"name":"fid","type":"uint256"},{"name":"units","type":"uint256"}],
	 "outputs":[]}
]`

// StorageRegistry meters the per-FID storage lease a hub enforces before
// accepting a user's messages (spec §3's StorageLease).
type StorageRegistry struct{ base }

// NewStorageRegistry binds a StorageRegistry adapter to address over
// client.
func NewStorageRegistry(client node.Caller, address Address) *StorageRegistry {
	return &StorageRegistry{base{client: client, address: address, abi: mustABI(storageRegistryABI)}}
}

// Price returns the wei cost of renting units of storage.
func (s *StorageRegistry) Price(ctx context.Context, units *big.Int) Result[*big.Int] {
	var out *big.Int
	if err := s.readCall(ctx, &out, "price", units); err != nil {
		return Err[*big.Int](err)
	}
	return Ok(out)
}

// UnitPrice returns the current wei price of a single storage unit.
func (s *StorageRegistry) UnitPrice(ctx context.Context) Result[*big.Int] {
	var out *big.Int
	if err := s.readCall(ctx, &out, "unitPrice"); err != nil {
		return Err[*big.Int](err)
	}
	return Ok(out)
}

// USDUnitPrice returns the USD-denominated price of a single storage
// unit (fixed-point, contract-defined decimals) — distinct from
// UnitPrice's wei quote, and the figure the registry's own price
// oracle reconciles against when recomputing the wei unit price.
func (s *StorageRegistry) USDUnitPrice(ctx context.Context) Result[*big.Int] {
	var out *big.Int
	if err := s.readCall(ctx, &out, "usdUnitPrice"); err != nil {
		return Err[*big.Int](err)
	}
	return Ok(out)
}

// MaxUnits returns the global cap on units that may be rented across all
// FIDs.
func (s *StorageRegistry) MaxUnits(ctx context.Context) Result[*big.Int] {
	var out *big.Int
	if err := s.readCall(ctx, &out, "maxUnits"); err != nil {
		return Err[*big.Int](err)
	}
	return Ok(out)
}

// RentedUnits returns the units currently rented across all FIDs.
func (s *StorageRegistry) RentedUnits(ctx context.Context) Result[*big.Int] {
	var out *big.Int
	if err := s.readCall(ctx, &out, "rentedUnits"); err != nil {
		return Err[*big.Int](err)
	}
	return Ok(out)
}

// StorageUnitsOf returns the units currently leased to fid.
func (s *StorageRegistry) StorageUnitsOf(ctx context.Context, fid FID) Result[*big.Int] {
	var out *big.Int
	if err := s.readCall(ctx, &out, "storageUnitsOf", new(big.Int).SetUint64(uint64(fid))); err != nil {
		return Err[*big.Int](err)
	}
	return Ok(out)
}

// DeprecationTimestamp returns the unix time after which this registry's
// leases are no longer renewable (a sunset some deployments schedule
// ahead of a storage model migration).
func (s *StorageRegistry) DeprecationTimestamp(ctx context.Context) Result[*big.Int] {
	var out *big.Int
	if err := s.readCall(ctx, &out, "deprecationTimestamp"); err != nil {
		return Err[*big.Int](err)
	}
	return Ok(out)
}

// Paused reports whether the registry currently rejects new rentals.
func (s *StorageRegistry) Paused(ctx context.Context) Result[bool] {
	var out bool
	if err := s.readCall(ctx, &out, "paused"); err != nil {
		return Err[bool](err)
	}
	return Ok(out)
}

// Rent prepares calldata renting units of storage for fid, paying
// exactly value (the current Price(units)).
func (s *StorageRegistry) Rent(ctx context.Context, fid FID, units, value *big.Int) (Call, *apperr.Error) {
	p := s.Paused(ctx)
	if !p.IsOk() {
		return Call{}, p.Err
	}
	if p.Value {
		return Call{}, apperr.New(apperr.Unauthorized)
	}
	return s.packCall(value, "rent", new(big.Int).SetUint64(uint64(fid)), units)
}
