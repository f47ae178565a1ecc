package snapshot

import (
	"fmt"

	"github.com/yndnr/varmesh-go/pkg/crypto/adaptive"
)

// snapshotAAD binds ciphertexts to their purpose so a payload lifted
// from another varmesh file cannot be replayed here.
var snapshotAAD = []byte("varmesh-snapshot-v1")

// EncryptedSink wraps another sink with authenticated encryption of the
// payload. The wrapped sink only ever sees ciphertext.
type EncryptedSink struct {
	inner  Sink
	cipher adaptive.Cipher
}

// NewEncryptedSink wraps inner with the given cipher.
func NewEncryptedSink(inner Sink, cipher adaptive.Cipher) *EncryptedSink {
	return &EncryptedSink{inner: inner, cipher: cipher}
}

// Load reads and decrypts the payload.
func (s *EncryptedSink) Load() ([]byte, bool, error) {
	data, ok, err := s.inner.Load()
	if err != nil || !ok {
		return nil, ok, err
	}
	plain, err := s.cipher.Decrypt(data, snapshotAAD)
	if err != nil {
		return nil, false, fmt.Errorf("snapshot: decrypt: %w", err)
	}
	return plain, true, nil
}

// Store encrypts and persists the payload.
func (s *EncryptedSink) Store(data []byte) error {
	enc, err := s.cipher.Encrypt(data, snapshotAAD)
	if err != nil {
		return fmt.Errorf("snapshot: encrypt: %w", err)
	}
	return s.inner.Store(enc)
}

// Close closes the wrapped sink.
func (s *EncryptedSink) Close() error {
	return s.inner.Close()
}
