// Package secrets holds the card-data decryption capability. PAN and CVC
// travel encrypted inside domain events and are only decrypted immediately
// before a gateway call.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Decrypter recovers plaintext card fields from event ciphertext.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}

// AESDecrypter decrypts base64(nonce || AES-256-GCM ciphertext).
type AESDecrypter struct {
	aead cipher.AEAD
}

// NewAESDecrypter builds a decrypter from a hex-encoded 32-byte key.
func NewAESDecrypter(hexKey string) (*AESDecrypter, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode card decryption key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return &AESDecrypter{aead: aead}, nil
}

func (d *AESDecrypter) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	nonceSize := d.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("ciphertext shorter than nonce")
	}
	plaintext, err := d.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}
