// Package contracts provides one typed, side-effect-free adapter per
// on-chain contract: read methods return a Result[T] sum, write methods
// return pre-built calldata (and payable value) for the orchestrator to
// sign and send. No adapter sends a transaction itself.
package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/farcaster-ops/opkit/apperr"
)

// Address is a 20-byte EVM address. It is a type alias over go-ethereum's
// common.Address so adapters interoperate directly with ethclient/abi
// without conversion boilerplate.
type Address = common.Address

// ParseAddress parses a 0x-prefixed hex string into an Address.
func ParseAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return Address{}, apperr.Wrap(apperr.DecodeFailure, errInvalidAddress(s))
	}
	return common.HexToAddress(s), nil
}

type errInvalidAddress string

func (e errInvalidAddress) Error() string { return "invalid address: " + string(e) }

// FID is the unsigned 64-bit account identifier.
type FID uint64

// KeyScheme identifies the cryptosystem of a registered signer key.
type KeyScheme uint32

// Ed25519Scheme is the only signer-key scheme this spec's protocol family
// currently defines.
const Ed25519Scheme KeyScheme = 1

// KeyState is a KeyRecord's lifecycle state. Transitions only ever run
// Pending -> Active -> Inactive; there is no cycle back.
type KeyState uint8

const (
	KeyStateActive   KeyState = 0
	KeyStateInactive KeyState = 1
	KeyStatePending  KeyState = 2
)

func (s KeyState) String() string {
	switch s {
	case KeyStateActive:
		return "active"
	case KeyStateInactive:
		return "inactive"
	case KeyStatePending:
		return "pending"
	default:
		return "unknown"
	}
}

// Result is the sum type every adapter read returns: exactly one of Value
// or Err is meaningful, selected by Ok.
type Result[T any] struct {
	Value T
	Err   *apperr.Error
}

// Ok constructs a successful Result.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Err constructs a failed Result.
func Err[T any](e *apperr.Error) Result[T] { return Result[T]{Err: e} }

// IsOk reports whether the call succeeded.
func (r Result[T]) IsOk() bool { return r.Err == nil }

// Unwrap returns the value and a plain error (nil on success), for callers
// that prefer the (T, error) idiom over inspecting Result directly.
func (r Result[T]) Unwrap() (T, error) {
	if r.Err != nil {
		return r.Value, r.Err
	}
	return r.Value, nil
}

// Call is pre-built, unsent calldata for a write operation: the
// orchestrator signs and broadcasts it, the adapter never does.
type Call struct {
	To    Address
	Data  []byte
	Value *big.Int // nil means zero-value (non-payable) call
}
