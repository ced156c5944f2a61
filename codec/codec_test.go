package codec

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestSelectorKnownSignature(t *testing.T) {
	sel := Selector("verifyFidSignature(address,uint256,bytes32,bytes)")
	if sel == ([4]byte{}) {
		t.Fatal("selector must not be zero")
	}
	again := Selector("verifyFidSignature(address,uint256,bytes32,bytes)")
	if sel != again {
		t.Fatal("selector must be deterministic")
	}
}

func TestBuilderStaticArgsRoundTrip(t *testing.T) {
	fid := big.NewInt(424242)
	addr := common.HexToAddress("0x00000000fc25870c6ed6b6c7e41fb8c1ae4cfd0")

	b := NewBuilder(Selector("dummy(address,uint256)"))
	b.PutWord(EncodeAddress(addr))
	b.PutWord(EncodeUint256(fid))
	out := b.Bytes()

	if len(out) != 4+2*wordSize {
		t.Fatalf("unexpected length %d", len(out))
	}

	r := NewReader(out[4:])
	gotFID, err := r.Uint256(1)
	if err != nil {
		t.Fatalf("decode fid: %v", err)
	}
	if gotFID.Cmp(fid) != 0 {
		t.Fatalf("fid round-trip mismatch: got %s want %s", gotFID, fid)
	}
}

func TestBuilderDynamicArgRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0xab}, 32)
	b := NewBuilder(Selector("dummy(bytes)"))
	b.PutDynamic(key)
	out := b.Bytes()

	r := NewReader(out[4:])
	got, err := r.Bytes(0)
	if err != nil {
		t.Fatalf("decode bytes: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Fatalf("bytes round-trip mismatch: got %x want %x", got, key)
	}
}

func TestBuilderMixedStaticAndDynamic(t *testing.T) {
	fid := big.NewInt(7)
	metadata := []byte("hello world, this is longer than one word")

	b := NewBuilder(Selector("dummy(uint256,bytes)"))
	b.PutWord(EncodeUint256(fid))
	b.PutDynamic(metadata)
	out := b.Bytes()

	r := NewReader(out[4:])
	gotFID, err := r.Uint256(0)
	if err != nil {
		t.Fatalf("decode fid: %v", err)
	}
	if gotFID.Cmp(fid) != 0 {
		t.Fatalf("fid mismatch: got %s want %s", gotFID, fid)
	}
	gotMeta, err := r.Bytes(1)
	if err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if !bytes.Equal(gotMeta, metadata) {
		t.Fatalf("metadata mismatch: got %q want %q", gotMeta, metadata)
	}
}

func TestReaderBoolTreatsNonzeroAsTrue(t *testing.T) {
	var w Word
	w[31] = 1
	b := NewBuilder(Selector("dummy()"))
	b.PutWord(w)
	out := b.Bytes()

	r := NewReader(out[4:])
	v, err := r.Bool(0)
	if err != nil {
		t.Fatalf("decode bool: %v", err)
	}
	if !v {
		t.Fatal("expected true")
	}
}

func TestReaderTruncatedDataIsDecodeFailure(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.Uint256(0); err == nil {
		t.Fatal("expected decode failure on truncated data")
	}
}
