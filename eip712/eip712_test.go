package eip712

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/farcaster-ops/opkit/apperr"
)

func testDomain() Domain {
	return Domain{
		Name:              "KeyGateway",
		Version:           "1",
		ChainID:           big.NewInt(10),
		VerifyingContract: common.HexToAddress("0x00000000fc56947c7e7183f8ca4b62398caadf0b"),
	}
}

func TestSignRecoversToSignerAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	owner := crypto.PubkeyToAddress(key.PublicKey)

	msg := AddMessage{
		Owner:        owner,
		KeyType:      1,
		Key:          []byte{0x01, 0x02, 0x03},
		MetadataType: 1,
		Metadata:     []byte("metadata"),
		Nonce:        big.NewInt(0),
		Deadline:     big.NewInt(9999999999),
	}

	sig, serr := Sign(key, testDomain(), msg)
	if serr != nil {
		t.Fatalf("sign: %v", serr)
	}
	if len(sig) != 65 {
		t.Fatalf("signature length = %d, want 65", len(sig))
	}

	recovered, rerr := RecoverSigner(testDomain(), msg, sig)
	if rerr != nil {
		t.Fatalf("recover: %v", rerr)
	}
	if recovered != owner {
		t.Fatalf("recovered %s, want %s", recovered.Hex(), owner.Hex())
	}
}

func TestDigestChangesWithMessage(t *testing.T) {
	key, _ := crypto.GenerateKey()
	owner := crypto.PubkeyToAddress(key.PublicKey)
	base := AddMessage{
		Owner: owner, KeyType: 1, Key: []byte{1}, MetadataType: 1,
		Metadata: []byte("a"), Nonce: big.NewInt(0), Deadline: big.NewInt(1),
	}
	mutated := base
	mutated.Nonce = big.NewInt(1)

	if Digest(testDomain(), base) == Digest(testDomain(), mutated) {
		t.Fatal("digest must change when nonce changes")
	}
}

func TestRecoverSignerDetectsTamperedMessage(t *testing.T) {
	key, _ := crypto.GenerateKey()
	owner := crypto.PubkeyToAddress(key.PublicKey)
	msg := AddMessage{
		Owner: owner, KeyType: 1, Key: []byte{1}, MetadataType: 1,
		Metadata: []byte("a"), Nonce: big.NewInt(0), Deadline: big.NewInt(9999999999),
	}
	sig, err := Sign(key, testDomain(), msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tampered := msg
	tampered.Deadline = big.NewInt(9999999998)
	recovered, rerr := RecoverSigner(testDomain(), tampered, sig)
	if rerr != nil {
		t.Fatalf("recover: %v", rerr)
	}
	if recovered == owner {
		t.Fatal("signature over a different message must not recover to the original signer")
	}
}

func TestSignRejectsExpiredDeadline(t *testing.T) {
	key, _ := crypto.GenerateKey()
	owner := crypto.PubkeyToAddress(key.PublicKey)
	msg := AddMessage{
		Owner: owner, KeyType: 1, Key: []byte{1}, MetadataType: 1,
		Metadata: []byte("a"), Nonce: big.NewInt(0), Deadline: big.NewInt(1),
	}

	_, err := Sign(key, testDomain(), msg)
	if err == nil {
		t.Fatal("sign with a past deadline must fail")
	}
	if err.Code != apperr.AuthFailure {
		t.Fatalf("code = %v, want AuthFailure", err.Code)
	}
}
