package codec

import (
	"math/big"

	"github.com/farcaster-ops/opkit/apperr"
)

// Reader walks a raw ABI reply word by word, resolving dynamic
// arguments via their head offset.
type Reader struct {
	data []byte
}

// NewReader wraps a raw eth_call reply (selector already stripped).
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) wordAt(i int) (Word, *apperr.Error) {
	start := i * wordSize
	if start+wordSize > len(r.data) {
		return Word{}, apperr.New(apperr.DecodeFailure)
	}
	var w Word
	copy(w[:], r.data[start:start+wordSize])
	return w, nil
}

// Uint256 decodes the word at head index i as a big-endian unsigned
// integer.
func (r *Reader) Uint256(i int) (*big.Int, *apperr.Error) {
	w, err := r.wordAt(i)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(w[:]), nil
}

// Bool decodes the word at head index i, treating any nonzero word as
// true — a concession to legacy contracts that don't always
// zero-pad booleans to the spec-exact single low byte.
func (r *Reader) Bool(i int) (bool, *apperr.Error) {
	w, err := r.wordAt(i)
	if err != nil {
		return false, err
	}
	for _, b := range w {
		if b != 0 {
			return true, nil
		}
	}
	return false, nil
}

// Bytes decodes the dynamic bytes/string argument whose offset is
// stored at head index i.
func (r *Reader) Bytes(i int) ([]byte, *apperr.Error) {
	offWord, err := r.wordAt(i)
	if err != nil {
		return nil, err
	}
	off := new(big.Int).SetBytes(offWord[:]).Int64()
	if off < 0 || int(off)+wordSize > len(r.data) {
		return nil, apperr.New(apperr.DecodeFailure)
	}
	lenStart := int(off)
	var lenWord Word
	copy(lenWord[:], r.data[lenStart:lenStart+wordSize])
	length := new(big.Int).SetBytes(lenWord[:]).Int64()
	dataStart := lenStart + wordSize
	if length < 0 || dataStart+int(length) > len(r.data) {
		return nil, apperr.New(apperr.DecodeFailure)
	}
	out := make([]byte, length)
	copy(out, r.data[dataStart:dataStart+int(length)])
	return out, nil
}
