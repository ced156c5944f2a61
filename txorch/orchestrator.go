// Package txorch signs and submits the calldata contract adapters
// produce, across the three submission paths the system supports: a
// custody wallet acting directly, a custody wallet submitting its own
// delegated (EIP-712-authorized) call, and a separate payer wallet
// submitting a call authorized by someone else's signature. All three
// share the same simulate-then-gas-estimate-then-sign-then-broadcast
// pipeline; what differs is only which private key signs and whose
// nonce is consumed. The raw-transaction construction follows the
// teacher's settlement path in its local payment facilitator.
package txorch

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/farcaster-ops/opkit/apperr"
	"github.com/farcaster-ops/opkit/contracts"
	"github.com/farcaster-ops/opkit/node"
	"github.com/farcaster-ops/opkit/nonce"
)

// gasLimitBuffer widens an EstimateGas result to absorb the small
// variance between simulation and inclusion.
const gasLimitBuffer = 12 // x/10, i.e. +20%

// receiptPollInterval is how often awaitReceipt polls for a mined receipt
// inside the caller-supplied timeout.
const receiptPollInterval = 2 * time.Second

// Orchestrator drives calldata from a contract adapter through gas
// estimation, nonce allocation, signing, and broadcast, then polls for
// a receipt.
type Orchestrator struct {
	client         node.Caller
	sequencer      *nonce.Sequencer
	receiptTimeout time.Duration
}

// NewOrchestrator constructs an Orchestrator backed by client and
// sequencer, polling for receipts for up to receiptTimeout.
func NewOrchestrator(client node.Caller, sequencer *nonce.Sequencer, receiptTimeout time.Duration) *Orchestrator {
	return &Orchestrator{client: client, sequencer: sequencer, receiptTimeout: receiptTimeout}
}

// SubmitDirect signs and sends call from the custody wallet acting on
// its own behalf — submission path 1 of spec §4.6.
func (o *Orchestrator) SubmitDirect(ctx context.Context, custody *ecdsa.PrivateKey, call contracts.Call, chainID *big.Int) Result {
	return o.submit(ctx, custody, call, chainID)
}

// SubmitDelegatedSameWallet signs and sends call from the same custody
// wallet that produced the EIP-712 authorization embedded in its
// calldata — submission path 2. Mechanically identical to SubmitDirect;
// named separately because the two paths differ upstream in who built
// the calldata, not in how it's broadcast.
func (o *Orchestrator) SubmitDelegatedSameWallet(ctx context.Context, custody *ecdsa.PrivateKey, call contracts.Call, chainID *big.Int) Result {
	return o.submit(ctx, custody, call, chainID)
}

// SubmitSeparatePayer signs and sends call from payer, a wallet distinct
// from whoever authorized the underlying operation — submission path 3,
// the one a sponsor/relayer uses to cover another account's gas.
func (o *Orchestrator) SubmitSeparatePayer(ctx context.Context, payer *ecdsa.PrivateKey, call contracts.Call, chainID *big.Int) Result {
	return o.submit(ctx, payer, call, chainID)
}

func (o *Orchestrator) submit(ctx context.Context, payer *ecdsa.PrivateKey, call contracts.Call, chainID *big.Int) Result {
	correlationID := uuid.New().String()
	from := crypto.PubkeyToAddress(payer.PublicKey)

	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	msg := ethereum.CallMsg{From: from, To: &call.To, Data: call.Data, Value: value}

	// Simulate first: a call that would revert is cheaper to catch here
	// than after consuming a nonce and paying for inclusion.
	if _, err := o.client.CallContract(ctx, msg); err != nil {
		return Result{Err: classifySendErr(err), CorrelationID: correlationID}
	}

	gasLimit, err := o.client.EstimateGas(ctx, msg)
	if err != nil {
		return Result{Err: classifySendErr(err), CorrelationID: correlationID}
	}
	gasLimit = gasLimit * gasLimitBuffer / 10

	gasPrice, err := o.client.SuggestGasPrice(ctx)
	if err != nil {
		return Result{Err: apperr.Wrap(apperr.Transport, err), CorrelationID: correlationID}
	}

	res, aerr := o.signAndSend(ctx, payer, from, call, value, gasLimit, gasPrice, chainID)
	if aerr != nil && aerr.Code == apperr.Conflict {
		// A stale local nonce: resync once against the chain and retry
		// exactly once, per spec §7's Conflict handling.
		if serr := o.sequencer.Sync(ctx, from); serr != nil {
			return Result{Err: serr, CorrelationID: correlationID}
		}
		res, aerr = o.signAndSend(ctx, payer, from, call, value, gasLimit, gasPrice, chainID)
	}
	if aerr != nil {
		return Result{Err: aerr, CorrelationID: correlationID}
	}
	res.CorrelationID = correlationID
	return res
}

func (o *Orchestrator) signAndSend(ctx context.Context, payer *ecdsa.PrivateKey, from common.Address, call contracts.Call, value *big.Int, gasLimit uint64, gasPrice, chainID *big.Int) (Result, *apperr.Error) {
	txNonce, nerr := o.sequencer.Next(from)
	if nerr != nil {
		return Result{}, nerr
	}

	tx := types.NewTransaction(txNonce, call.To, value, gasLimit, gasPrice, call.Data)
	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), payer)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.AuthFailure, err)
	}

	if err := o.client.SendRawTransaction(ctx, signed); err != nil {
		cerr := classifySendErr(err)
		if cerr.Code == apperr.Transport {
			// One retry on a bare transport hiccup, per spec §7.
			if err := o.client.SendRawTransaction(ctx, signed); err != nil {
				return Result{}, classifySendErr(err)
			}
		} else {
			return Result{}, cerr
		}
	}

	return o.awaitReceipt(ctx, signed.Hash(), txNonce)
}

func (o *Orchestrator) awaitReceipt(ctx context.Context, txHash common.Hash, txNonce uint64) (Result, *apperr.Error) {
	ctx, cancel := context.WithTimeout(ctx, o.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := o.client.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			outcome := Confirmed
			if receipt.Status == types.ReceiptStatusFailed {
				outcome = Reverted
			}
			return Result{
				Outcome: outcome,
				TxHash:  txHash,
				Nonce:   txNonce,
				GasUsed: receipt.GasUsed,
			}, nil
		}
		select {
		case <-ctx.Done():
			return Result{Outcome: TimedOut, TxHash: txHash, Nonce: txNonce}, apperr.New(apperr.Timeout)
		case <-ticker.C:
		}
	}
}
