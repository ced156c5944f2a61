package contracts

import (
	"context"
	"math/big"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/farcaster-ops/opkit/codec"
)

// fakeCaller scripts CallContract so tests control exactly what raw bytes
// the "chain" hands back, without a live node.
type fakeCaller struct {
	call func(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

func (f *fakeCaller) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(10), nil }
func (f *fakeCaller) BlockNumber(ctx context.Context) (uint64, error) { return 0, nil }
func (f *fakeCaller) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}
func (f *fakeCaller) NonceAt(ctx context.Context, a common.Address) (uint64, error) { return 0, nil }
func (f *fakeCaller) PendingNonceAt(ctx context.Context, a common.Address) (uint64, error) {
	return 0, nil
}
func (f *fakeCaller) BalanceAt(ctx context.Context, a common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}
func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return f.call(ctx, msg)
}
func (f *fakeCaller) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 0, nil
}
func (f *fakeCaller) SendRawTransaction(ctx context.Context, tx *types.Transaction) error {
	return nil
}
func (f *fakeCaller) TransactionReceipt(ctx context.Context, h common.Hash) (*types.Receipt, error) {
	return nil, nil
}

// TestVerifyFIDSignatureUsesCodecSelector asserts VerifyFIDSignature
// builds its calldata through codec, not accounts/abi: the scripted
// CallContract checks the selector on the wire matches codec.Selector's
// hand-computed one, and returns a bool word with a nonzero high byte,
// which codec.Reader decodes as true and accounts/abi would reject.
func TestVerifyFIDSignatureUsesCodecSelector(t *testing.T) {
	wantSelector := codec.Selector("verifyFidSignature(address,uint256,bytes32,bytes)")
	custody := common.HexToAddress("0x00000000fc25870c6ed6b6c7e41fb8c1ae4cfd0")
	var digest [32]byte
	digest[31] = 0xab
	sig := []byte{1, 2, 3}

	fc := &fakeCaller{call: func(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
		var gotSelector [4]byte
		copy(gotSelector[:], msg.Data[:4])
		if gotSelector != wantSelector {
			t.Fatalf("selector = %x, want %x (did not route through codec)", gotSelector, wantSelector)
		}
		word := make([]byte, 32)
		word[0] = 1
		word[31] = 1
		return word, nil
	}}

	reg := NewIDRegistry(fc, common.HexToAddress("0x00000000fc6f7ec6bdf43d8a7d3f9f3a6e3a01a2"))
	res := reg.VerifyFIDSignature(context.Background(), custody, FID(1), digest, sig)
	if !res.IsOk() {
		t.Fatalf("verify: %v", res.Err)
	}
	if !res.Value {
		t.Fatal("expected true")
	}
}
