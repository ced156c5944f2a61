package contracts

import (
	"context"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/farcaster-ops/opkit/apperr"
	"github.com/farcaster-ops/opkit/node"
)

// base is embedded by every adapter. It holds the dependencies common to
// all six contracts plus the signed-key-request validator: the RPC
// caller, this contract's address, and its parsed ABI fragment.
type base struct {
	client  node.Caller
	address Address
	abi     gethabi.ABI
}

// mustABI parses a hand-authored ABI fragment covering only the methods
// an adapter exercises. Panics on malformed JSON — a programmer error,
// never a runtime condition.
func mustABI(jsonStr string) gethabi.ABI {
	a, err := gethabi.JSON(strings.NewReader(jsonStr))
	if err != nil {
		panic(err)
	}
	return a
}

// Address returns the contract address this adapter is bound to.
func (b *base) Address() Address { return b.address }

// readCall packs method(args...), issues eth_call against this contract,
// and unpacks the reply into out. Any failure along that path — pack,
// transport, revert, or decode — becomes a CallError; a short return
// value (spec §4.2's "return values shorter than 32 bytes signal a
// revert or empty response") is treated as DecodeFailure.
func (b *base) readCall(ctx context.Context, out interface{}, method string, args ...interface{}) *apperr.Error {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return apperr.Wrap(apperr.DecodeFailure, err)
	}
	result, err := b.client.CallContract(ctx, ethereum.CallMsg{To: &b.address, Data: data})
	if err != nil {
		return classifyCallErr(err)
	}
	if len(result) == 0 {
		return apperr.New(apperr.DecodeFailure)
	}
	if err := b.abi.UnpackIntoInterface(out, method, result); err != nil {
		return apperr.Wrap(apperr.DecodeFailure, err)
	}
	return nil
}

// rawCall issues an eth_call with pre-built calldata and returns the raw
// reply bytes, unpacked by nothing — the caller decodes via codec.Reader.
// Reserved for the adapter methods whose reply the accounts/abi path
// can't be trusted to unpack (codec's package doc explains why).
func (b *base) rawCall(ctx context.Context, data []byte) ([]byte, *apperr.Error) {
	result, err := b.client.CallContract(ctx, ethereum.CallMsg{To: &b.address, Data: data})
	if err != nil {
		return nil, classifyCallErr(err)
	}
	if len(result) == 0 {
		return nil, apperr.New(apperr.DecodeFailure)
	}
	return result, nil
}

// packCall builds calldata for a write method without sending it; value
// is the payable amount (nil for non-payable calls).
func (b *base) packCall(value *big.Int, method string, args ...interface{}) (Call, *apperr.Error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return Call{}, apperr.Wrap(apperr.DecodeFailure, err)
	}
	return Call{To: b.address, Data: data, Value: value}, nil
}

// dataError is the subset of go-ethereum's rpc.DataError this package
// relies on to recover a contract's revert reason from a failed eth_call.
type dataError interface {
	ErrorData() interface{}
}

// classifyCallErr turns a transport-level error from CallContract into
// the taxonomy: a JSON-RPC error carrying revert data becomes Reverted
// (with the decoded reason when present), anything else is Transport.
func classifyCallErr(err error) *apperr.Error {
	if de, ok := err.(dataError); ok {
		if reason := decodeRevertReason(de.ErrorData()); reason != "" {
			return apperr.RevertedWithReason(reason)
		}
		return apperr.Wrap(apperr.Reverted, err)
	}
	return apperr.Wrap(apperr.Transport, err)
}

func decodeRevertReason(data interface{}) string {
	hexStr, ok := data.(string)
	if !ok {
		return ""
	}
	b, err := hexutil.Decode(hexStr)
	if err != nil || len(b) < 4 {
		return ""
	}
	reason, err := gethabi.UnpackRevert(b)
	if err != nil {
		return ""
	}
	return reason
}
