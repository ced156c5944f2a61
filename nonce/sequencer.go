// Package nonce allocates and reconciles per-address transaction nonces
// for the orchestrator's submission paths, independent of whichever
// wallet eventually signs the transaction.
package nonce

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/farcaster-ops/opkit/apperr"
	"github.com/farcaster-ops/opkit/node"
)

// confirmAttempts and confirmBaseDelay implement spec §5's nonce
// confirmation backoff: a poll after 500ms*attempt, for up to 10
// attempts (27.5s total worst case).
const (
	confirmAttempts  = 10
	confirmBaseDelay = 500 * time.Millisecond
)

// book is the per-address nonce state: an atomically incremented
// counter seeded from the chain, guarded against concurrent
// reconciliation by mu.
type book struct {
	mu      sync.Mutex
	counter uint64 // next nonce to hand out; accessed via atomic ops
	bound   bool
}

// Sequencer hands out non-colliding nonces per address, backed by a
// live node for initial binding and reconciliation.
type Sequencer struct {
	client node.Caller

	mu    sync.RWMutex
	books map[common.Address]*book
}

// NewSequencer constructs a Sequencer with no addresses bound yet.
func NewSequencer(client node.Caller) *Sequencer {
	return &Sequencer{client: client, books: make(map[common.Address]*book)}
}

func (s *Sequencer) bookFor(addr common.Address) *book {
	s.mu.RLock()
	b, ok := s.books[addr]
	s.mu.RUnlock()
	if ok {
		return b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.books[addr]; ok {
		return b
	}
	b = &book{}
	s.books[addr] = b
	return b
}

// Bind seeds addr's counter from the chain's current mined transaction
// count. Safe to call more than once; a later Bind only resets the
// counter if the chain's count has since advanced past it (never moves
// it backward over nonces already handed out locally).
func (s *Sequencer) Bind(ctx context.Context, addr common.Address) *apperr.Error {
	chainNonce, err := s.client.NonceAt(ctx, addr)
	if err != nil {
		return apperr.Wrap(apperr.Transport, err)
	}
	b := s.bookFor(addr)
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.bound || chainNonce > b.counter {
		atomic.StoreUint64(&b.counter, chainNonce)
	}
	b.bound = true
	return nil
}

// Next allocates the next nonce for addr via a lock-free fetch-add,
// letting concurrent callers each receive a distinct nonce without
// serializing on the reconciliation lock.
func (s *Sequencer) Next(addr common.Address) (uint64, *apperr.Error) {
	b := s.bookFor(addr)
	if !b.bound {
		return 0, apperr.New(apperr.Conflict)
	}
	return atomic.AddUint64(&b.counter, 1) - 1, nil
}

// Confirm polls the chain for nonce to be mined under addr, backing off
// 500ms*attempt between polls for up to 10 attempts. Returns Timeout if
// the chain's mined count never reaches nonce+1 in that window.
func (s *Sequencer) Confirm(ctx context.Context, addr common.Address, target uint64) *apperr.Error {
	for attempt := 1; attempt <= confirmAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return apperr.Wrap(apperr.Timeout, ctx.Err())
		case <-time.After(time.Duration(attempt) * confirmBaseDelay):
		}
		mined, err := s.client.NonceAt(ctx, addr)
		if err != nil {
			return apperr.Wrap(apperr.Transport, err)
		}
		if mined > target {
			return nil
		}
	}
	return apperr.New(apperr.Timeout)
}

// Sync reconciles addr's local counter against the chain's mined count,
// taking the reconciliation lock so it never races a concurrent Bind.
// Used after an orchestrator detects a "nonce too low" revert to pull
// the book back in line with reality.
func (s *Sequencer) Sync(ctx context.Context, addr common.Address) *apperr.Error {
	chainNonce, err := s.client.NonceAt(ctx, addr)
	if err != nil {
		return apperr.Wrap(apperr.Transport, err)
	}
	b := s.bookFor(addr)
	b.mu.Lock()
	defer b.mu.Unlock()
	atomic.StoreUint64(&b.counter, chainNonce)
	b.bound = true
	return nil
}

// Reset forces addr's local counter to exactly n, bypassing the
// chain-only floor Sync enforces. Used for recovery from a known-bad
// local state (e.g. after a SecurityBreach escalation halts submission).
func (s *Sequencer) Reset(addr common.Address, n uint64) {
	b := s.bookFor(addr)
	b.mu.Lock()
	defer b.mu.Unlock()
	atomic.StoreUint64(&b.counter, n)
	b.bound = true
}

// Peek returns addr's next nonce to be handed out without allocating it,
// for diagnostics.
func (s *Sequencer) Peek(addr common.Address) uint64 {
	b := s.bookFor(addr)
	return atomic.LoadUint64(&b.counter)
}
