/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package vault

import "errors"

var (
	// ErrSecretRequired is returned when the vault is created without a secret.
	ErrSecretRequired = errors.New("vault secret is required")
	// ErrCiphertextTooShort is returned when sealed data cannot hold a nonce.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	// ErrDecrypt is returned when sealed data fails authentication.
	ErrDecrypt = errors.New("failed to decrypt entry")
)
