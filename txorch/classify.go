package txorch

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/farcaster-ops/opkit/apperr"
)

// dataError is the subset of go-ethereum's rpc.DataError the classifier
// relies on, mirrored from contracts/call.go since both packages
// independently turn a raw JSON-RPC error into the shared taxonomy.
type dataError interface {
	ErrorData() interface{}
}

// classifySendErr turns a failed eth_call/eth_sendRawTransaction error
// into the taxonomy. A JSON-RPC error carrying revert data becomes
// Reverted; a nonce-ordering complaint becomes Conflict so the
// orchestrator knows to resync before retrying; anything else is
// Transport.
func classifySendErr(err error) *apperr.Error {
	if de, ok := err.(dataError); ok {
		if reason := decodeRevertReason(de.ErrorData()); reason != "" {
			return apperr.RevertedWithReason(reason)
		}
		return apperr.Wrap(apperr.Reverted, err)
	}
	if isNonceConflict(err) {
		return apperr.New(apperr.Conflict)
	}
	return apperr.Wrap(apperr.Transport, err)
}

// isNonceConflict matches the handful of node-side error strings that
// indicate the locally tracked nonce has drifted from the chain — "nonce
// too low", "nonce too high", "already known", and "replacement
// transaction underpriced".
func isNonceConflict(err error) bool {
	msg := strings.ToLower(err.Error())
	needles := []string{"nonce too low", "nonce too high", "already known", "replacement transaction underpriced"}
	for _, n := range needles {
		if strings.Contains(msg, n) {
			return true
		}
	}
	return false
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
