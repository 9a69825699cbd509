/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errMissingDate        = errors.New("missing date")
	errInvalidDate        = errors.New("invalid date")
	errSessionUserMissing = errors.New("session user missing")
	errVaultUnavailable   = errors.New("password vault is not configured")
)
