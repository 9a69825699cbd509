/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import "errors"

var (
	// ErrInvalidAmount is returned when an amount cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidMonth is returned when a month is not in YYYY-MM form.
	ErrInvalidMonth = errors.New("invalid month")
	// ErrInsufficientQuantity is returned when a sell exceeds the held quantity.
	ErrInsufficientQuantity = errors.New("sell quantity exceeds held quantity")
	// ErrUnknownTradeSide is returned for trades that are neither buys nor sells.
	ErrUnknownTradeSide = errors.New("unknown trade side")
)
