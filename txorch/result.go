package txorch

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/farcaster-ops/opkit/apperr"
)

// Outcome classifies how a submission ended.
type Outcome uint8

const (
	// Confirmed means the transaction mined with a success receipt.
	Confirmed Outcome = iota
	// Reverted means the transaction mined but the receipt reports
	// failure.
	Reverted
	// TimedOut means the receipt never appeared within the configured
	// window.
	TimedOut
)

// Result is the structured outcome of one orchestrated submission,
// carrying enough to let a caller decide whether to retry, resync
// nonces, or surface the failure.
type Result struct {
	Outcome         Outcome
	TxHash          common.Hash
	Nonce           uint64
	GasUsed         uint64
	CorrelationID   string
	Err             *apperr.Error
}
