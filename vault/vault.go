/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package vault seals stored passwords with a per-user key.
package vault

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	argonTime    = 1
	argonMemory  = 19 * 1024
	argonThreads = 4
)

// Vault derives per-user keys from a server secret.
type Vault struct {
	secret []byte
}

// New returns a Vault for the given server secret.
func New(secret string) (*Vault, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}

	return &Vault{secret: []byte(secret)}, nil
}

func (v *Vault) key(userID uuid.UUID) []byte {
	return argon2.IDKey(v.secret, userID[:], argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}

// Seal encrypts plaintext for the user. The random nonce is prefixed to the output.
func (v *Vault) Seal(userID uuid.UUID, plaintext string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(v.key(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, []byte(plaintext), userID[:]), nil
}

// Open decrypts data produced by Seal for the same user.
func (v *Vault) Open(userID uuid.UUID, sealed []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(v.key(userID))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize() {
		return "", ErrCiphertextTooShort
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, userID[:])
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}
