package nonce

import (
	"context"
	"math/big"
	"sync"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeCaller is a minimal node.Caller stub: only NonceAt is exercised by
// this package, everything else panics if called.
type fakeCaller struct {
	mu    sync.Mutex
	mined map[common.Address]uint64
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{mined: make(map[common.Address]uint64)}
}

func (f *fakeCaller) setMined(addr common.Address, n uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mined[addr] = n
}

func (f *fakeCaller) NonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mined[addr], nil
}

func (f *fakeCaller) ChainID(ctx context.Context) (*big.Int, error)            { panic("unused") }
func (f *fakeCaller) BlockNumber(ctx context.Context) (uint64, error)          { panic("unused") }
func (f *fakeCaller) SuggestGasPrice(ctx context.Context) (*big.Int, error)    { panic("unused") }
func (f *fakeCaller) PendingNonceAt(ctx context.Context, a common.Address) (uint64, error) {
	panic("unused")
}
func (f *fakeCaller) BalanceAt(ctx context.Context, a common.Address) (*big.Int, error) {
	panic("unused")
}
func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	panic("unused")
}
func (f *fakeCaller) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	panic("unused")
}
func (f *fakeCaller) SendRawTransaction(ctx context.Context, tx *types.Transaction) error {
	panic("unused")
}
func (f *fakeCaller) TransactionReceipt(ctx context.Context, h common.Hash) (*types.Receipt, error) {
	panic("unused")
}

func TestBindSeedsFromChain(t *testing.T) {
	addr := common.HexToAddress("0x00000000fc25870c6ed6b6c7e41fb8c1ae4cfd0")
	fc := newFakeCaller()
	fc.setMined(addr, 5)
	s := NewSequencer(fc)

	if err := s.Bind(context.Background(), addr); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if got := s.Peek(addr); got != 5 {
		t.Fatalf("peek = %d, want 5", got)
	}
}

func TestNextAllocatesDistinctNoncesUnderConcurrency(t *testing.T) {
	addr := common.HexToAddress("0x00000000fc25870c6ed6b6c7e41fb8c1ae4cfd0")
	fc := newFakeCaller()
	fc.setMined(addr, 0)
	s := NewSequencer(fc)
	if err := s.Bind(context.Background(), addr); err != nil {
		t.Fatalf("bind: %v", err)
	}

	const n = 200
	seen := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.Next(addr)
			if err != nil {
				t.Errorf("next: %v", err)
				return
			}
			seen[i] = v
		}(i)
	}
	wg.Wait()

	dedup := make(map[uint64]bool, n)
	for _, v := range seen {
		if dedup[v] {
			t.Fatalf("duplicate nonce allocated: %d", v)
		}
		dedup[v] = true
	}
	if len(dedup) != n {
		t.Fatalf("got %d distinct nonces, want %d", len(dedup), n)
	}
}

func TestNextBeforeBindIsConflict(t *testing.T) {
	addr := common.HexToAddress("0x00000000fc25870c6ed6b6c7e41fb8c1ae4cfd0")
	s := NewSequencer(newFakeCaller())
	if _, err := s.Next(addr); err == nil {
		t.Fatal("expected conflict before Bind")
	}
}

func TestSyncReconcilesToChain(t *testing.T) {
	addr := common.HexToAddress("0x00000000fc25870c6ed6b6c7e41fb8c1ae4cfd0")
	fc := newFakeCaller()
	fc.setMined(addr, 3)
	s := NewSequencer(fc)
	_ = s.Bind(context.Background(), addr)
	_, _ = s.Next(addr)
	_, _ = s.Next(addr)

	fc.setMined(addr, 9)
	if err := s.Sync(context.Background(), addr); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if got := s.Peek(addr); got != 9 {
		t.Fatalf("peek after sync = %d, want 9", got)
	}
}

func TestResetForcesLocalCounter(t *testing.T) {
	addr := common.HexToAddress("0x00000000fc25870c6ed6b6c7e41fb8c1ae4cfd0")
	s := NewSequencer(newFakeCaller())
	s.Reset(addr, 42)
	if got := s.Peek(addr); got != 42 {
		t.Fatalf("peek after reset = %d, want 42", got)
	}
	v, err := s.Next(addr)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if v != 42 {
		t.Fatalf("next after reset = %d, want 42", v)
	}
}
