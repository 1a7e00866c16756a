// Package sealbox seals and opens small secrets (backend passwords, API
// tokens) for storage at rest. It wraps XChaCha20-Poly1305 with a random
// nonce prepended to the ciphertext, so a sealed blob is self-contained.
package sealbox

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrInvalidKey is returned when the key material is empty.
	ErrInvalidKey = errors.New("sealbox: key material cannot be empty")

	// ErrCorruptBox is returned when a blob is too short or fails
	// authentication.
	ErrCorruptBox = errors.New("sealbox: blob is corrupt or key is wrong")
)

// Box seals and opens secrets with a key derived from arbitrary key
// material.
type Box struct {
	key [chacha20poly1305.KeySize]byte
}

// New derives a sealing key from the given key material.
func New(material []byte) (*Box, error) {
	if len(material) == 0 {
		return nil, ErrInvalidKey
	}
	b := &Box{key: sha256.Sum256(material)}
	return b, nil
}

// Seal encrypts plaintext into a self-contained blob.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(b.key[:])
	if err != nil {
		return nil, fmt.Errorf("sealbox: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("sealbox: nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a blob produced by Seal.
func (b *Box) Open(blob []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(b.key[:])
	if err != nil {
		return nil, fmt.Errorf("sealbox: %w", err)
	}
	if len(blob) < aead.NonceSize() {
		return nil, ErrCorruptBox
	}

	nonce, ciphertext := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrCorruptBox
	}
	return plaintext, nil
}
