// Package verify answers the read-only questions an operator asks
// before trusting a key or an FID, and runs the security probe that
// confirms unauthorized mutation calldata actually reverts rather than
// merely assuming the contracts enforce their own authorization.
package verify

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/farcaster-ops/opkit/apperr"
	"github.com/farcaster-ops/opkit/contracts"
	"github.com/farcaster-ops/opkit/node"
)

// SignerVerdict reports whether a key was ever registered under an FID,
// and if so, its current lifecycle state.
type SignerVerdict struct {
	Found  bool
	State  contracts.KeyState
	Scheme contracts.KeyScheme
}

// FIDVerdict reports whether a custody address currently owns the FID
// it claims to, plus its active/inactive/pending signer key counts —
// spec §4.7's "FID verdict" names both in the same breath, since an FID
// ownership check made without the key counts can't tell an operator
// whether a just-added key actually landed.
type FIDVerdict struct {
	Owns     bool
	Current  contracts.Address
	Active   uint64
	Inactive uint64
	Pending  uint64
}

// SecurityVerdict is the outcome of the three-mutation unauthorized-
// operation probe. A clean system reports every *Failed field true;
// any false field — a mutation that was simulated and did NOT revert —
// indicates SecurityBreach.
type SecurityVerdict struct {
	AddForFailed    bool
	RemoveForFailed bool
	RemoveFailed    bool
	Breach          bool
	Notes           []string
}

// Verifier answers status questions and runs the security probe against
// a live node and the three contract adapters it touches.
type Verifier struct {
	client      node.Caller
	idRegistry  *contracts.IDRegistry
	keyRegistry *contracts.KeyRegistry
	keyGateway  *contracts.KeyGateway
}

// NewVerifier constructs a Verifier over the given node and adapters.
func NewVerifier(client node.Caller, idRegistry *contracts.IDRegistry, keyRegistry *contracts.KeyRegistry, keyGateway *contracts.KeyGateway) *Verifier {
	return &Verifier{client: client, idRegistry: idRegistry, keyRegistry: keyRegistry, keyGateway: keyGateway}
}

// SignerStatus looks up material under fid. A key that was never
// registered reads back with Scheme 0 on-chain — indistinguishable from
// a populated Active(0) record by the raw reply alone, so Scheme==0 is
// treated as "never added" rather than "added with scheme 0" (no scheme
// 0 is ever assigned by the gateway).
func (v *Verifier) SignerStatus(ctx context.Context, fid contracts.FID, material []byte) (SignerVerdict, *apperr.Error) {
	rec := v.keyRegistry.Keys(ctx, fid, material)
	if !rec.IsOk() {
		return SignerVerdict{}, rec.Err
	}
	if rec.Value.Scheme == 0 {
		return SignerVerdict{Found: false}, nil
	}
	return SignerVerdict{Found: true, State: rec.Value.State, Scheme: rec.Value.Scheme}, nil
}

// FIDOwnership checks whether expectedCustody currently owns fid, and
// reads back fid's active/inactive/pending signer key counts alongside.
func (v *Verifier) FIDOwnership(ctx context.Context, fid contracts.FID, expectedCustody contracts.Address) (FIDVerdict, *apperr.Error) {
	current := v.idRegistry.CustodyOf(ctx, fid)
	if !current.IsOk() {
		return FIDVerdict{}, current.Err
	}

	active := v.keyRegistry.TotalKeys(ctx, fid, contracts.KeyStateActive)
	if !active.IsOk() {
		return FIDVerdict{}, active.Err
	}
	inactive := v.keyRegistry.TotalKeys(ctx, fid, contracts.KeyStateInactive)
	if !inactive.IsOk() {
		return FIDVerdict{}, inactive.Err
	}
	pending := v.keyRegistry.TotalKeys(ctx, fid, contracts.KeyStatePending)
	if !pending.IsOk() {
		return FIDVerdict{}, pending.Err
	}

	return FIDVerdict{
		Owns:     current.Value == expectedCustody,
		Current:  current.Value,
		Active:   active.Value.Uint64(),
		Inactive: inactive.Value.Uint64(),
		Pending:  pending.Value.Uint64(),
	}, nil
}

// SecurityProbe simulates three unauthorized mutations against the
// supplied custody address — an addFor and a removeFor, each carrying a
// zeroed, structurally invalid signature, and a direct remove sent from
// the zero address — and confirms every one reverts under eth_call.
// targetFID is not read; the probe works from custody alone. Nothing is broadcast; a
// simulated call that does NOT revert is treated as SecurityBreach,
// since it means the deployed contract would have accepted an
// unauthorized mutation had this been a real transaction.
func (v *Verifier) SecurityProbe(ctx context.Context, targetFID contracts.FID, custody contracts.Address) (SecurityVerdict, *apperr.Error) {
	var verdict SecurityVerdict
	deadline := big.NewInt(9999999999)
	zeroSig := make([]byte, 65)
	bogusKey := make([]byte, 32)
	bogusKey[0] = 0xff

	addForCall, aerr := v.keyGateway.AddFor(ctx, custody, contracts.Ed25519Scheme, bogusKey, 1, nil, deadline, zeroSig)
	if aerr != nil {
		// Paused or otherwise refused before reaching the chain still
		// counts as "did not succeed".
		verdict.AddForFailed = true
	} else {
		verdict.AddForFailed = v.simulateShouldRevert(ctx, custody, addForCall, &verdict, "unauthorized addFor")
	}

	removeForCall, rerr := v.keyRegistry.RemoveFor(ctx, custody, bogusKey, deadline, zeroSig)
	if rerr != nil {
		verdict.RemoveForFailed = true
	} else {
		verdict.RemoveForFailed = v.simulateShouldRevert(ctx, custody, removeForCall, &verdict, "unauthorized removeFor")
	}

	removeCall, dErr := v.keyRegistry.Remove(ctx, bogusKey)
	if dErr != nil {
		verdict.RemoveFailed = true
	} else {
		// A direct remove must be attempted as some address other than
		// the target custody wallet, or it would be self-authorized by
		// construction. The zero address stands in for "an arbitrary
		// unauthorized caller".
		verdict.RemoveFailed = v.simulateShouldRevert(ctx, common.Address{}, removeCall, &verdict, "unauthorized direct remove")
	}

	verdict.Breach = !(verdict.AddForFailed && verdict.RemoveForFailed && verdict.RemoveFailed)
	return verdict, nil
}

// simulateShouldRevert returns true (the mutation "failed" as expected)
// when eth_call errors out; false, and appends a breach note, when the
// call would have succeeded.
func (v *Verifier) simulateShouldRevert(ctx context.Context, from contracts.Address, call contracts.Call, verdict *SecurityVerdict, label string) bool {
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	_, err := v.client.CallContract(ctx, ethereum.CallMsg{From: from, To: &call.To, Data: call.Data, Value: value})
	if err != nil {
		return true
	}
	verdict.Notes = append(verdict.Notes, "SECURITY ISSUE: "+label+" did not revert")
	return false
}
