package contracts

import (
	"context"
	"math/big"

	"github.com/farcaster-ops/opkit/node"
)

const signedKeyRequestValidatorABI = `[
	{"name":"idRegistry","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"name":"validate","type":"function","stateMutability":"view",
	 "inputs":[
	   {"name":"key","type":"bytes"},
	   {"name":"fid","type":"uint256"},
	   {"name":"metadata","type":"bytes"}
	 ],
	 "outputs":[{"name":"","type":"bool"}]}
]`

// SignedKeyRequestValidator checks that a key-add's ABI-encoded metadata
// carries a valid signed request from the app FID it names — the
// metadataType=1 convention most app-key onboarding flows use (spec's
// expansion of the Key Gateway's metadata argument).
type SignedKeyRequestValidator struct{ base }

// NewSignedKeyRequestValidator binds a SignedKeyRequestValidator adapter
// to address over client.
func NewSignedKeyRequestValidator(client node.Caller, address Address) *SignedKeyRequestValidator {
	return &SignedKeyRequestValidator{base{client: client, address: address, abi: mustABI(signedKeyRequestValidatorABI)}}
}

// IDRegistry returns the ID Registry this validator resolves app FIDs
// against.
func (v *SignedKeyRequestValidator) IDRegistry(ctx context.Context) Result[Address] {
	var out Address
	if err := v.readCall(ctx, &out, "idRegistry"); err != nil {
		return Err[Address](err)
	}
	return Ok(out)
}

// Validate reports whether metadata is a well-formed, signed request
// admitting key under fid.
func (v *SignedKeyRequestValidator) Validate(ctx context.Context, key []byte, fid FID, metadata []byte) Result[bool] {
	var out bool
	if err := v.readCall(ctx, &out, "validate", key, new(big.Int).SetUint64(uint64(fid)), metadata); err != nil {
		return Err[bool](err)
	}
	return Ok(out)
}
