/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// InterestMethod selects which balance simple interest accrues on.
type InterestMethod string

// InterestMethod values.
const (
	// InterestDeclining accrues on the principal minus repayments applied so far.
	InterestDeclining InterestMethod = "declining"
	// InterestFlat always accrues on the original principal.
	InterestFlat InterestMethod = "flat"
)

const daysPerYear = 365

var (
	hundred     = decimal.NewFromInt(100)
	yearDivisor = decimal.NewFromInt(daysPerYear)
)

// Repayment is a single payment made against a debt or loan.
type Repayment struct {
	Amount decimal.Decimal
	PaidAt time.Time
}

// DebtTerms describes a debt or loan for the remaining balance calculation.
type DebtTerms struct {
	Principal  decimal.Decimal
	AnnualRate decimal.Decimal // percentage, e.g. 12 for 12%
	StartedAt  time.Time
	DueAt      *time.Time
	Method     InterestMethod
	Repayments []Repayment
}

// Balance is the outcome of applying interest and repayments up to AsOf.
type Balance struct {
	Principal         decimal.Decimal
	AccruedInterest   decimal.Decimal
	TotalWithInterest decimal.Decimal
	Repaid            decimal.Decimal
	RemainingAmount   decimal.Decimal
	AsOf              time.Time
	DaysElapsed       int64
}

// Overpaid reports whether repayments exceeded the total owed.
func (b Balance) Overpaid() bool {
	return b.RemainingAmount.IsNegative()
}

// IsSettled reports whether nothing is left to repay.
func (b Balance) IsSettled() bool {
	return !b.RemainingAmount.IsPositive()
}

// EvaluationDate returns the instant interest stops accruing: now, or the due
// date when it has already passed.
func EvaluationDate(dueAt *time.Time, now time.Time) time.Time {
	if dueAt != nil && dueAt.Before(now) {
		return *dueAt
	}

	return now
}

// DaysElapsed returns the number of whole days between from and to, never negative.
func DaysElapsed(from, to time.Time) int64 {
	if !to.After(from) {
		return 0
	}

	return int64(to.Sub(from) / (24 * time.Hour))
}

// CalculateBalance computes the total owed including simple interest and the
// remaining amount after repayments, evaluated at now (or the due date).
//
// Inputs are not validated: a negative principal or repayments larger than the
// total produce negative results rather than errors.
func CalculateBalance(terms DebtTerms, now time.Time) Balance {
	asOf := EvaluationDate(terms.DueAt, now)
	if asOf.Before(terms.StartedAt) {
		asOf = terms.StartedAt
	}

	repayments := sortedRepayments(terms.Repayments)

	repaid := decimal.Zero
	for _, r := range repayments {
		repaid = repaid.Add(r.Amount)
	}

	var interest decimal.Decimal

	switch terms.Method {
	case InterestFlat:
		interest = accrue(terms.Principal, terms.AnnualRate, DaysElapsed(terms.StartedAt, asOf))
	default:
		interest = accrueDeclining(terms, repayments, asOf)
	}

	total := terms.Principal.Add(interest).Round(2)

	return Balance{
		Principal:         terms.Principal.Round(2),
		AccruedInterest:   total.Sub(terms.Principal.Round(2)),
		TotalWithInterest: total,
		Repaid:            repaid.Round(2),
		RemainingAmount:   total.Sub(repaid).Round(2),
		AsOf:              asOf,
		DaysElapsed:       DaysElapsed(terms.StartedAt, asOf),
	}
}

// accrueDeclining walks the repayments in date order, accruing interest on the
// interest-bearing balance for each segment. Day counts are taken from the start
// date so segment lengths always sum to the total elapsed days.
func accrueDeclining(terms DebtTerms, repayments []Repayment, asOf time.Time) decimal.Decimal {
	interest := decimal.Zero
	outstanding := terms.Principal
	cursorDay := int64(0)

	for _, r := range repayments {
		at := r.PaidAt
		if at.Before(terms.StartedAt) {
			at = terms.StartedAt
		}
		if at.After(asOf) {
			at = asOf
		}

		day := DaysElapsed(terms.StartedAt, at)
		interest = interest.Add(accrue(nonNegative(outstanding), terms.AnnualRate, day-cursorDay))
		cursorDay = day
		outstanding = outstanding.Sub(r.Amount)
	}

	endDay := DaysElapsed(terms.StartedAt, asOf)
	interest = interest.Add(accrue(nonNegative(outstanding), terms.AnnualRate, endDay-cursorDay))

	return interest
}

func accrue(balance, annualRate decimal.Decimal, days int64) decimal.Decimal {
	if days <= 0 || balance.IsZero() || annualRate.IsZero() {
		return decimal.Zero
	}

	return balance.Mul(annualRate).Div(hundred).Mul(decimal.NewFromInt(days)).Div(yearDivisor)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}

	return d
}

func sortedRepayments(repayments []Repayment) []Repayment {
	sorted := make([]Repayment, len(repayments))
	copy(sorted, repayments)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PaidAt.Before(sorted[j].PaidAt)
	})

	return sorted
}

// BalanceSeries evaluates the balance at each of the given instants.
func BalanceSeries(terms DebtTerms, points []time.Time) []Balance {
	series := make([]Balance, 0, len(points))
	for _, at := range points {
		applied := terms
		applied.Repayments = repaymentsUpTo(terms.Repayments, at)
		series = append(series, CalculateBalance(applied, at))
	}

	return series
}

func repaymentsUpTo(repayments []Repayment, at time.Time) []Repayment {
	var filtered []Repayment
	for _, r := range repayments {
		if r.PaidAt.After(at) {
			continue
		}
		filtered = append(filtered, r)
	}

	return filtered
}
