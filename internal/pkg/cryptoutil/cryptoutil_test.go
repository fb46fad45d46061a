package cryptoutil

import (
	"strings"
	"testing"
)

const testKey = "6368616e676520746869732070617373776f726420746f206120736563726574" // "change this password to a secret"

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c, err := New(testKey)
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	for _, plain := range []string{"Alice", "+375 29 123-45-67", "имя с юникодом"} {
		enc, err := c.Encrypt(plain)
		if err != nil {
			t.Fatalf("encrypt %q: %v", plain, err)
		}
		if enc == plain {
			t.Errorf("ciphertext equals plaintext for %q", plain)
		}
		dec, err := c.Decrypt(enc)
		if err != nil {
			t.Fatalf("decrypt %q: %v", plain, err)
		}
		if dec != plain {
			t.Errorf("round trip: got %q, want %q", dec, plain)
		}
	}
}

func TestEncrypt_EmptyStaysEmpty(t *testing.T) {
	c, _ := New(testKey)
	enc, err := c.Encrypt("")
	if err != nil || enc != "" {
		t.Errorf("expected empty ciphertext, got %q err=%v", enc, err)
	}
	dec, err := c.Decrypt("")
	if err != nil || dec != "" {
		t.Errorf("expected empty plaintext, got %q err=%v", dec, err)
	}
}

func TestEncrypt_NoncesDiffer(t *testing.T) {
	c, _ := New(testKey)
	a, _ := c.Encrypt("same input")
	b, _ := c.Encrypt("same input")
	if a == b {
		t.Error("two encryptions of the same input must not be identical")
	}
}

func TestNew_RejectsBadKeys(t *testing.T) {
	if _, err := New("deadbeef"); err == nil {
		t.Error("expected error for short key")
	}
	if _, err := New(strings.Repeat("zz", 32)); err == nil {
		t.Error("expected error for non-hex key")
	}
}

func TestDecrypt_RejectsTamperedCiphertext(t *testing.T) {
	c, _ := New(testKey)
	enc, _ := c.Encrypt("secret")
	tampered := "A" + enc[1:]
	if _, err := c.Decrypt(tampered); err == nil {
		t.Error("expected error for tampered ciphertext")
	}
}
