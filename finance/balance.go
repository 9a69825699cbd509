/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import "github.com/shopspring/decimal"

// DebtKind distinguishes money borrowed from money lent.
type DebtKind string

// DebtKind values.
const (
	// DebtBorrowed is money the user owes; the account is credited on creation.
	DebtBorrowed DebtKind = "debt"
	// DebtLent is money owed to the user; the account is debited on creation.
	DebtLent DebtKind = "loan"
)

// TradeSide is the direction of an investment trade.
type TradeSide string

// TradeSide values.
const (
	TradeBuy  TradeSide = "buy"
	TradeSell TradeSide = "sell"
)

// ExpenseDelta is the account balance change caused by recording an expense.
func ExpenseDelta(amount decimal.Decimal) decimal.Decimal {
	return amount.Abs().Neg()
}

// IncomeDelta is the account balance change caused by recording income.
func IncomeDelta(amount decimal.Decimal) decimal.Decimal {
	return amount.Abs()
}

// TradeValue is quantity times price, before fees.
func TradeValue(quantity, price decimal.Decimal) decimal.Decimal {
	return quantity.Mul(price)
}

// TradeDelta is the account balance change caused by an investment trade. Buys
// cost the trade value plus fee; sells return the trade value minus fee.
func TradeDelta(side TradeSide, quantity, price, fee decimal.Decimal) (decimal.Decimal, error) {
	value := TradeValue(quantity, price)

	switch side {
	case TradeBuy:
		return value.Add(fee).Neg(), nil
	case TradeSell:
		return value.Sub(fee), nil
	default:
		return decimal.Zero, ErrUnknownTradeSide
	}
}

// DebtOpeningDelta is the account balance change when a debt or loan is created.
func DebtOpeningDelta(kind DebtKind, principal decimal.Decimal) decimal.Decimal {
	if kind == DebtLent {
		return principal.Neg()
	}

	return principal
}

// RepaymentDelta is the account balance change when a repayment is recorded.
// Paying back a debt takes money out; receiving a loan repayment brings it in.
func RepaymentDelta(kind DebtKind, amount decimal.Decimal) decimal.Decimal {
	if kind == DebtLent {
		return amount
	}

	return amount.Neg()
}

// Reverse returns the delta that undoes the given one.
func Reverse(delta decimal.Decimal) decimal.Decimal {
	return delta.Neg()
}

// IsValidDebtKind reports whether kind is supported.
func IsValidDebtKind(kind DebtKind) bool {
	return kind == DebtBorrowed || kind == DebtLent
}

// IsValidTradeSide reports whether side is supported.
func IsValidTradeSide(side TradeSide) bool {
	return side == TradeBuy || side == TradeSell
}

// IsValidInterestMethod reports whether method is supported.
func IsValidInterestMethod(method InterestMethod) bool {
	return method == InterestDeclining || method == InterestFlat
}
