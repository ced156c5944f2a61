// Package node wraps go-ethereum's ethclient.Client down to exactly the
// JSON-RPC method subset spec §6 names, with the per-call timeout from
// spec §5 (10s) baked into every call.
package node

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// DefaultTimeout is the per-call RPC bound from spec §5.
const DefaultTimeout = 10 * time.Second

// Caller is the JSON-RPC surface the contract adapters and orchestrator
// consume. A fake implementation backs the package's tests instead of a
// live node.
type Caller interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendRawTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Client is the live Caller, backed by an *ethclient.Client over HTTP(S).
type Client struct {
	eth     *ethclient.Client
	timeout time.Duration
}

// Dial connects to rpcURL and returns a Client bounding every call to
// timeout (pass 0 for DefaultTimeout).
func Dial(ctx context.Context, rpcURL string, timeout time.Duration) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{eth: eth, timeout: timeout}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() { c.eth.Close() }

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.eth.ChainID(ctx)
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.eth.BlockNumber(ctx)
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.eth.SuggestGasPrice(ctx)
}

// NonceAt returns the mined transaction count (eth_getTransactionCount at
// "latest") — the authoritative count the Nonce Sequencer binds against.
func (c *Client) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.eth.NonceAt(ctx, account, nil)
}

// PendingNonceAt returns the transaction count including the mempool.
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.eth.PendingNonceAt(ctx, account)
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.eth.BalanceAt(ctx, account, nil)
}

func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.eth.CallContract(ctx, msg, nil)
}

func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.eth.EstimateGas(ctx, msg)
}

func (c *Client) SendRawTransaction(ctx context.Context, tx *types.Transaction) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.eth.SendTransaction(ctx, tx)
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.eth.TransactionReceipt(ctx, txHash)
}
