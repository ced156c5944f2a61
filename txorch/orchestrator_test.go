package txorch

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/farcaster-ops/opkit/apperr"
	"github.com/farcaster-ops/opkit/contracts"
	"github.com/farcaster-ops/opkit/nonce"
)

// fakeNode is a fully in-memory node.Caller: it mints a receipt for any
// transaction handed to SendRawTransaction, immediately available on the
// next TransactionReceipt poll.
type fakeNode struct {
	mu       sync.Mutex
	mined    map[common.Address]uint64
	receipts map[common.Hash]*types.Receipt
	sendErr  error
	callErr  error
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		mined:    make(map[common.Address]uint64),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (f *fakeNode) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(10), nil }
func (f *fakeNode) BlockNumber(ctx context.Context) (uint64, error) { return 1, nil }
func (f *fakeNode) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}
func (f *fakeNode) NonceAt(ctx context.Context, a common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mined[a], nil
}
func (f *fakeNode) PendingNonceAt(ctx context.Context, a common.Address) (uint64, error) {
	return f.mined[a], nil
}
func (f *fakeNode) BalanceAt(ctx context.Context, a common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}
func (f *fakeNode) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return nil, f.callErr
}
func (f *fakeNode) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 50_000, nil
}
func (f *fakeNode) SendRawTransaction(ctx context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		err := f.sendErr
		f.sendErr = nil // only fail once, so the orchestrator's retry succeeds
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts[tx.Hash()] = &types.Receipt{Status: types.ReceiptStatusSuccessful, GasUsed: 21000}
	return nil
}
func (f *fakeNode) TransactionReceipt(ctx context.Context, h common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[h]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func setup(t *testing.T) (*Orchestrator, *fakeNode, common.Address) {
	t.Helper()
	fn := newFakeNode()
	seq := nonce.NewSequencer(fn)
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	if err := seq.Bind(context.Background(), addr); err != nil {
		t.Fatalf("bind: %v", err)
	}
	return NewOrchestrator(fn, seq, 5*time.Second), fn, addr
}

func TestSubmitDirectConfirms(t *testing.T) {
	orch, _, _ := setup(t)
	key, _ := crypto.GenerateKey()
	call := contracts.Call{To: common.HexToAddress("0x00000000fc25870c6ed6b6c7e41fb8c1ae4cfd0"), Data: []byte{0x01}}

	res := orch.SubmitDirect(context.Background(), key, call, big.NewInt(10))
	if res.Err != nil {
		t.Fatalf("submit: %v", res.Err)
	}
	if res.Outcome != Confirmed {
		t.Fatalf("outcome = %v, want Confirmed", res.Outcome)
	}
	if res.CorrelationID == "" {
		t.Fatal("expected a correlation id")
	}
}

func TestSubmitRetriesOnceOnTransportError(t *testing.T) {
	orch, fn, _ := setup(t)
	fn.sendErr = errors.New("connection reset by peer")
	key, _ := crypto.GenerateKey()
	call := contracts.Call{To: common.HexToAddress("0x00000000fc25870c6ed6b6c7e41fb8c1ae4cfd0"), Data: []byte{0x01}}

	res := orch.SubmitDirect(context.Background(), key, call, big.NewInt(10))
	if res.Err != nil {
		t.Fatalf("expected the single retry to succeed, got: %v", res.Err)
	}
	if res.Outcome != Confirmed {
		t.Fatalf("outcome = %v, want Confirmed", res.Outcome)
	}
}

func TestSubmitSurfacesRevert(t *testing.T) {
	orch, fn, _ := setup(t)
	fn.callErr = revertError{data: "0x08c379a0"}
	key, _ := crypto.GenerateKey()
	call := contracts.Call{To: common.HexToAddress("0x00000000fc25870c6ed6b6c7e41fb8c1ae4cfd0"), Data: []byte{0x01}}

	res := orch.SubmitDirect(context.Background(), key, call, big.NewInt(10))
	if res.Err == nil {
		t.Fatal("expected an error")
	}
	if code, _ := apperr.CodeOf(res.Err); code != apperr.Reverted {
		t.Fatalf("code = %v, want Reverted", code)
	}
}

type revertError struct{ data string }

func (e revertError) Error() string          { return "execution reverted" }
func (e revertError) ErrorData() interface{} { return e.data }
