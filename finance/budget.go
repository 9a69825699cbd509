/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

// TargetProgress describes how much of a monthly budget target has been used.
type TargetProgress struct {
	Target       decimal.Decimal
	Spent        decimal.Decimal
	Remaining    decimal.Decimal
	RemainingAbs decimal.Decimal
	IsOver       bool
	Progress     float64
}

// ComputeTargetProgress derives usage for a target given the amount spent.
// Negative spending (net refunds) counts as nothing spent.
func ComputeTargetProgress(target, spent decimal.Decimal) TargetProgress {
	if spent.IsNegative() {
		spent = decimal.Zero
	}

	remaining := target.Sub(spent)

	progress := 0.0
	if target.IsPositive() && spent.IsPositive() {
		progress = spent.Div(target).Mul(hundred).InexactFloat64()
	}
	progress = math.Max(0, math.Min(progress, 100))

	return TargetProgress{
		Target:       target,
		Spent:        spent,
		Remaining:    remaining,
		RemainingAbs: remaining.Abs(),
		IsOver:       remaining.IsNegative(),
		Progress:     progress,
	}
}
