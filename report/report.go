/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/finance"
	"github.com/humaidq/tally/logging"
)

var logger = logging.Logger(logging.SourceReport)

const dateLayout = "2006-01-02"

// TransactionRow is a single income or expense line in an export.
type TransactionRow struct {
	Date        time.Time
	Kind        finance.EntryKind
	Category    string
	Description string
	Account     string
	Amount      decimal.Decimal
}

// DebtRow is a debt or loan together with its calculated balance.
type DebtRow struct {
	Kind         finance.DebtKind
	Counterparty string
	Principal    decimal.Decimal
	AnnualRate   decimal.Decimal
	Method       finance.InterestMethod
	StartedAt    time.Time
	DueAt        *time.Time
	Balance      finance.Balance
}

// TargetLine is a budget target with its usage for the report month.
type TargetLine struct {
	Category string
	Progress finance.TargetProgress
}

// MonthlyReport is everything rendered into the monthly summary PDF.
type MonthlyReport struct {
	Owner       string
	Currency    string
	Summary     finance.MonthlySummary
	Targets     []TargetLine
	Debts       []DebtRow
	GeneratedAt time.Time
}

func kindLabel(kind finance.DebtKind) string {
	if kind == finance.DebtLent {
		return "Loan"
	}

	return "Debt"
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.Format(dateLayout)
}
