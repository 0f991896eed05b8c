package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateSalt(t *testing.T) {
	a, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if len(a) != saltSize {
		t.Errorf("salt length = %d, want %d", len(a), saltSize)
	}
	b, _ := GenerateSalt()
	if bytes.Equal(a, b) {
		t.Error("two salts should not be equal")
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{1}, saltSize)
	k1 := DeriveKey("passphrase", salt)
	k2 := DeriveKey("passphrase", salt)
	if !bytes.Equal(k1, k2) {
		t.Error("same passphrase and salt must derive the same key")
	}
	if len(k1) != keySize {
		t.Errorf("key length = %d, want %d", len(k1), keySize)
	}
	if bytes.Equal(k1, DeriveKey("other", salt)) {
		t.Error("different passphrases must derive different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	salt, _ := GenerateSalt()
	plaintext := []byte("the shopping list database")

	sealed, err := Encrypt(plaintext, "hunter2", salt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("ciphertext contains plaintext")
	}

	opened, err := Decrypt(sealed, "hunter2")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("round trip = %q, want %q", opened, plaintext)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	salt, _ := GenerateSalt()
	sealed, _ := Encrypt([]byte("secret"), "correct", salt)

	if _, err := Decrypt(sealed, "wrong"); err == nil {
		t.Error("expected error for wrong passphrase")
	}
}

func TestDecryptTruncated(t *testing.T) {
	if _, err := Decrypt([]byte("short"), "pass"); err == nil {
		t.Error("expected error for truncated data")
	}
}

func TestEncryptDecryptFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")
	dec := filepath.Join(dir, "restored.db")

	content := []byte("file round trip")
	if err := os.WriteFile(src, content, 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	salt, _ := GenerateSalt()
	if err := EncryptFile(src, enc, "pass", salt); err != nil {
		t.Fatalf("encrypt file: %v", err)
	}
	if err := DecryptFile(enc, dec, "pass"); err != nil {
		t.Fatalf("decrypt file: %v", err)
	}

	got, _ := os.ReadFile(dec)
	if !bytes.Equal(got, content) {
		t.Errorf("restored = %q, want %q", got, content)
	}
}
