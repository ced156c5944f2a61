package vault

import (
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/farcaster-ops/opkit/apperr"
)

const testMnemonic = "test test test test test test test test test test test junk"

func TestCreateFromMnemonicIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	v1, err := Open(filepath.Join(dir, "v1.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	v2, err := Open(filepath.Join(dir, "v2.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	addr1, aerr := v1.CreateFromMnemonic(1, testMnemonic, "", "hunter2", "a")
	if aerr != nil {
		t.Fatalf("create 1: %v", aerr)
	}
	addr2, aerr := v2.CreateFromMnemonic(2, testMnemonic, "", "hunter2", "b")
	if aerr != nil {
		t.Fatalf("create 2: %v", aerr)
	}
	if addr1 != addr2 {
		t.Fatalf("same mnemonic must derive the same address: %s != %s", addr1.Hex(), addr2.Hex())
	}
}

func TestCreateFromMnemonicRejectsInvalidMnemonic(t *testing.T) {
	v, _ := Open(filepath.Join(t.TempDir(), "v.json"))
	_, err := v.CreateFromMnemonic(1, "not a real mnemonic", "", "pw", "")
	if err == nil {
		t.Fatal("expected decode failure for invalid mnemonic")
	}
}

func TestCreateFromMnemonicRejectsWrongWordCount(t *testing.T) {
	v, _ := Open(filepath.Join(t.TempDir(), "v.json"))
	elevenWords := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon"
	_, err := v.CreateFromMnemonic(1, elevenWords, "", "pw", "")
	if code, _ := apperr.CodeOf(err); code != apperr.DecodeFailure {
		t.Fatalf("code = %v, want DecodeFailure for an 11-word phrase", code)
	}
}

func TestCreateFromMnemonicBIP44DerivesDifferentAddress(t *testing.T) {
	v, _ := Open(filepath.Join(t.TempDir(), "v.json"))
	shortcutAddr, aerr := v.CreateFromMnemonic(1, testMnemonic, "", "pw", "")
	if aerr != nil {
		t.Fatalf("create shortcut: %v", aerr)
	}
	bip44Addr, aerr := v.CreateFromMnemonicBIP44(2, testMnemonic, "pw", "")
	if aerr != nil {
		t.Fatalf("create bip44: %v", aerr)
	}
	if shortcutAddr == bip44Addr {
		t.Fatal("the shortcut and BIP-44 derivations must not coincide for the same phrase")
	}
}

func TestCreateDuplicateFIDIsConflict(t *testing.T) {
	v, _ := Open(filepath.Join(t.TempDir(), "v.json"))
	if _, aerr := v.CreateRandom(7, "pw", "first"); aerr != nil {
		t.Fatalf("create: %v", aerr)
	}
	_, aerr := v.CreateRandom(7, "pw", "second")
	if code, _ := apperr.CodeOf(aerr); code != apperr.Conflict {
		t.Fatalf("code = %v, want Conflict for a duplicate fid", code)
	}
}

func TestUnlockRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.json")
	v, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, aerr := v.CreateRandom(42, "correct horse battery staple", "main")
	if aerr != nil {
		t.Fatalf("create: %v", aerr)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	key, aerr := reopened.Unlock(42, "correct horse battery staple")
	if aerr != nil {
		t.Fatalf("unlock: %v", aerr)
	}
	if key == nil {
		t.Fatal("expected a non-nil key")
	}
}

func TestUnlockWrongPasswordIsAuthFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.json")
	v, _ := Open(path)
	_, aerr := v.CreateRandom(1, "right-password", "main")
	if aerr != nil {
		t.Fatalf("create: %v", aerr)
	}

	_, aerr = v.Unlock(1, "wrong-password")
	if aerr == nil {
		t.Fatal("expected unlock to fail")
	}
	if code, _ := apperr.CodeOf(aerr); code != apperr.AuthFailure {
		t.Fatalf("code = %v, want AuthFailure", code)
	}
}

func TestUnlockTamperedCiphertextIsAuthFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.json")
	v, _ := Open(path)
	if _, aerr := v.CreateRandom(1, "pw", "main"); aerr != nil {
		t.Fatalf("create: %v", aerr)
	}
	entry := v.data.Entries[fidKey(1)]
	raw, err := base64.StdEncoding.DecodeString(entry.Cipher)
	if err != nil {
		t.Fatalf("decode ciphertext: %v", err)
	}
	raw[0] ^= 0xff
	entry.Cipher = base64.StdEncoding.EncodeToString(raw)

	_, aerr := v.Unlock(1, "pw")
	if code, _ := apperr.CodeOf(aerr); code != apperr.AuthFailure {
		t.Fatalf("code = %v, want AuthFailure (GCM tag rejects before any address comparison)", code)
	}
}

func TestHasAndAddressOf(t *testing.T) {
	v, _ := Open(filepath.Join(t.TempDir(), "v.json"))
	if v.Has(5) {
		t.Fatal("empty vault must not report Has(5) == true")
	}
	addr, aerr := v.CreateRandom(5, "pw", "main")
	if aerr != nil {
		t.Fatalf("create: %v", aerr)
	}
	if !v.Has(5) {
		t.Fatal("expected Has(5) == true after create")
	}
	got, aerr := v.AddressOf(5)
	if aerr != nil {
		t.Fatalf("address of: %v", aerr)
	}
	if got != addr {
		t.Fatalf("AddressOf = %s, want %s", got.Hex(), addr.Hex())
	}
}

func TestDeleteThenUnlockIsNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.json")
	v, _ := Open(path)
	if _, aerr := v.CreateRandom(9, "pw", "main"); aerr != nil {
		t.Fatalf("create: %v", aerr)
	}
	if aerr := v.Delete(9); aerr != nil {
		t.Fatalf("delete: %v", aerr)
	}
	_, aerr := v.Unlock(9, "pw")
	if code, _ := apperr.CodeOf(aerr); code != apperr.NotFound {
		t.Fatalf("code = %v, want NotFound", code)
	}
}

func TestDeleteTwiceIsNotFoundAndFileUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.json")
	v, _ := Open(path)
	if _, aerr := v.CreateRandom(9, "pw", "main"); aerr != nil {
		t.Fatalf("create: %v", aerr)
	}
	if aerr := v.Delete(9); aerr != nil {
		t.Fatalf("first delete: %v", aerr)
	}
	before := len(v.data.Entries)
	aerr := v.Delete(9)
	if code, _ := apperr.CodeOf(aerr); code != apperr.NotFound {
		t.Fatalf("code = %v, want NotFound on second delete", code)
	}
	if len(v.data.Entries) != before {
		t.Fatal("second delete must not change the vault's contents")
	}
}

func TestSessionManagerIssueAndValidate(t *testing.T) {
	sm := NewSessionManager([]byte("test-secret-not-persisted"), time.Minute)
	token, err := sm.IssueSession("/tmp/v.json", "0xabc")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := sm.ValidateSession(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.VaultPath != "/tmp/v.json" {
		t.Fatalf("vault path = %q", claims.VaultPath)
	}
}

func TestSessionManagerRevoke(t *testing.T) {
	sm := NewSessionManager([]byte("test-secret-not-persisted"), time.Minute)
	token, err := sm.IssueSession("/tmp/v.json", "0xabc")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := sm.ValidateSession(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	sm.Revoke(claims)
	if _, err := sm.ValidateSession(token); err != ErrSessionRevoked {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}
