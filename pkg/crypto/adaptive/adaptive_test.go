package adaptive

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func testKey(t *testing.T, size int) []byte {
	t.Helper()
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return key
}

func TestRoundTrip(t *testing.T) {
	for _, ct := range []CipherType{CipherAESGCM, CipherChaCha20} {
		t.Run(string(ct), func(t *testing.T) {
			c, err := NewWithType(testKey(t, 32), ct)
			if err != nil {
				t.Fatalf("NewWithType: %v", err)
			}

			plain := []byte(`{"x":7}`)
			aad := []byte("varmesh-snapshot")

			enc, err := c.Encrypt(plain, aad)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			if bytes.Equal(enc, plain) {
				t.Fatal("ciphertext equals plaintext")
			}

			dec, err := c.Decrypt(enc, aad)
			if err != nil {
				t.Fatalf("Decrypt: %v", err)
			}
			if !bytes.Equal(dec, plain) {
				t.Fatalf("Decrypt = %q, want %q", dec, plain)
			}
		})
	}
}

func TestDecryptWrongAAD(t *testing.T) {
	c, err := New(testKey(t, 32))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	enc, err := c.Encrypt([]byte("payload"), []byte("aad-1"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := c.Decrypt(enc, []byte("aad-2")); err == nil {
		t.Fatal("Decrypt with wrong AAD should fail")
	}
}

func TestDecryptTruncated(t *testing.T) {
	c, err := New(testKey(t, 32))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Decrypt([]byte("short"), nil); err == nil {
		t.Fatal("Decrypt of truncated ciphertext should fail")
	}
}

func TestInvalidKeySizes(t *testing.T) {
	if _, err := NewAESGCM(make([]byte, 15)); err == nil {
		t.Fatal("AES-GCM with 15-byte key should fail")
	}
	if _, err := NewChaCha20(make([]byte, 16)); err == nil {
		t.Fatal("ChaCha20 with 16-byte key should fail")
	}
}
