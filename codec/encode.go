package codec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const wordSize = 32

// Word is a single right-aligned 32-byte ABI slot.
type Word [wordSize]byte

// EncodeUint256 right-aligns v into a word.
func EncodeUint256(v *big.Int) Word {
	var w Word
	b := v.Bytes()
	copy(w[wordSize-len(b):], b)
	return w
}

// EncodeAddress left-pads a 20-byte address into a word.
func EncodeAddress(a common.Address) Word {
	var w Word
	copy(w[wordSize-common.AddressLength:], a.Bytes())
	return w
}

// EncodeBool encodes a bool as a word whose low byte is 0 or 1.
func EncodeBool(v bool) Word {
	var w Word
	if v {
		w[wordSize-1] = 1
	}
	return w
}

// Builder assembles a call's static head and dynamic tail, following
// the standard ABI layout: fixed-size arguments inline, dynamic
// arguments (bytes, string) replaced in the head by an offset pointing
// into the tail. Dynamic segments are staged as raw bytes and only
// concatenated — with offsets patched in — when Bytes() is called, since
// an offset depends on the total head size, which isn't final until
// every Put call has run.
type Builder struct {
	selector [4]byte
	head     []Word
	dynSlot  []int  // head index of each dynamic argument's offset word, in call order
	dynSeg   [][]byte // that argument's encoded (length-prefixed, padded) segment
}

// NewBuilder starts a call encoded under the 4-byte selector.
func NewBuilder(selector [4]byte) *Builder {
	return &Builder{selector: selector}
}

// PutWord appends a static 32-byte argument.
func (b *Builder) PutWord(w Word) *Builder {
	b.head = append(b.head, w)
	return b
}

// PutDynamic appends a dynamic bytes/string argument.
func (b *Builder) PutDynamic(data []byte) *Builder {
	slot := len(b.head)
	b.head = append(b.head, Word{}) // patched in Bytes()
	b.dynSlot = append(b.dynSlot, slot)
	b.dynSeg = append(b.dynSeg, encodeDynamicSegment(data))
	return b
}

// Bytes finalizes the call: selector, head with patched dynamic
// offsets, then the concatenated dynamic tail in call order.
func (b *Builder) Bytes() []byte {
	headBytes := len(b.head) * wordSize
	tail := make([]byte, 0, 64)
	written := 0
	for i, slot := range b.dynSlot {
		b.head[slot] = EncodeUint256(big.NewInt(int64(headBytes + written)))
		tail = append(tail, b.dynSeg[i]...)
		written += len(b.dynSeg[i])
	}
	out := make([]byte, 0, 4+headBytes+len(tail))
	out = append(out, b.selector[:]...)
	for _, w := range b.head {
		out = append(out, w[:]...)
	}
	out = append(out, tail...)
	return out
}

func encodeDynamicSegment(data []byte) []byte {
	lenWord := EncodeUint256(big.NewInt(int64(len(data))))
	padded := make([]byte, roundUp32(len(data)))
	copy(padded, data)
	out := make([]byte, 0, wordSize+len(padded))
	out = append(out, lenWord[:]...)
	out = append(out, padded...)
	return out
}

func roundUp32(n int) int {
	if n%wordSize == 0 {
		return n
	}
	return n + (wordSize - n%wordSize)
}
