// Package apperr defines the error taxonomy every fallible core operation
// returns: network/crypto/contract failures all converge on *Error rather
// than ad-hoc fmt.Errorf strings, so callers can dispatch with errors.Is
// and errors.As instead of parsing messages.
package apperr

import (
	"errors"
	"fmt"
)

// Code is one tag of the taxonomy in spec §7.
type Code string

const (
	// AuthFailure marks a wrong password, wrong mnemonic, or a local
	// signature that did not recover to the expected address.
	AuthFailure Code = "auth_failure"
	// Tampered marks a vault record that is structurally bad or whose
	// decrypted key does not re-derive the recorded address. A modified
	// ciphertext fails the AEAD tag check and is reported as AuthFailure,
	// not Tampered: the tag check cannot tell it apart from a wrong
	// password.
	Tampered Code = "tampered"
	// NotFound marks a missing FID, key, or vault record.
	NotFound Code = "not_found"
	// Conflict marks a duplicate FID on create, or a nonce-too-low
	// rejection from the chain.
	Conflict Code = "conflict"
	// Reverted marks a contract call or simulation that reverted.
	Reverted Code = "reverted"
	// Unauthorized marks a caller lacking the custody/recovery role, or
	// a gateway that is currently paused.
	Unauthorized Code = "unauthorized"
	// InsufficientFunds marks a pre-broadcast balance check failure.
	InsufficientFunds Code = "insufficient_funds"
	// Transport marks an RPC/network-level failure.
	Transport Code = "transport"
	// Timeout marks an exhausted poll/wait.
	Timeout Code = "timeout"
	// DecodeFailure marks a calldata or return-value decode failure.
	DecodeFailure Code = "decode_failure"
	// SecurityBreach marks a fatal, never-retried condition: an
	// unauthorized mutation that should have reverted actually succeeded.
	SecurityBreach Code = "security_breach"
)

// Error is the taxonomy's concrete carrier. Reason holds the decoded
// revert string for Reverted; Nonce holds the rejected nonce for
// Conflict. Both are optional and zero-valued otherwise.
type Error struct {
	Code   Code
	Reason string
	Nonce  uint64
	Err    error // underlying cause, if any (wrapped)
}

func (e *Error) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Code, e.Err)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, apperr.New(SomeCode)) match on Code alone,
// ignoring Reason/Nonce/Err — callers compare by taxonomy tag, not by
// the specific instance.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New constructs a bare Error of the given code.
func New(code Code) *Error { return &Error{Code: code} }

// Wrap constructs an Error of the given code wrapping cause.
func Wrap(code Code, cause error) *Error { return &Error{Code: code, Err: cause} }

// RevertedWithReason constructs a Reverted error carrying the decoded
// revert reason string.
func RevertedWithReason(reason string) *Error { return &Error{Code: Reverted, Reason: reason} }

// ConflictNonceTooLow constructs a Conflict error carrying the nonce the
// chain rejected as stale.
func ConflictNonceTooLow(nonce uint64) *Error { return &Error{Code: Conflict, Nonce: nonce} }

// CodeOf extracts the Code from err if it is (or wraps) an *Error,
// returning ("", false) otherwise.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// Is reports whether err is (or wraps) an *Error with the given code.
func Is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
