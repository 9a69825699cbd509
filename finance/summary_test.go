// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSummarizeMonth(t *testing.T) {
	t.Parallel()

	period := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	entries := []CashFlowEntry{
		{Kind: EntryIncome, Category: "Salary", Amount: dec(t, "5000"), OccurredAt: period.AddDate(0, 0, 0)},
		{Kind: EntryExpense, Category: "Rent", Amount: dec(t, "2000"), OccurredAt: period.AddDate(0, 0, 1)},
		{Kind: EntryExpense, Category: "Groceries", Amount: dec(t, "300"), OccurredAt: period.AddDate(0, 0, 1)},
		{Kind: EntryExpense, Category: "Groceries", Amount: dec(t, "200"), OccurredAt: period.AddDate(0, 0, 10)},
		{Kind: EntryExpense, Category: "", Amount: dec(t, "500"), OccurredAt: period.AddDate(0, 0, 27)},
		{Kind: EntryExpense, Category: "Rent", Amount: dec(t, "9999"), OccurredAt: period.AddDate(0, 1, 0)},
		{Kind: EntryIncome, Category: "Salary", Amount: dec(t, "9999"), OccurredAt: period.Add(-time.Second)},
	}

	got := SummarizeMonth(period, entries)

	assertDecimal(t, "Income", got.Income, "5000")
	assertDecimal(t, "Expenses", got.Expenses, "3000")
	assertDecimal(t, "Net", got.Net, "2000")
	if got.SavingsRate != 40 {
		t.Fatalf("SavingsRate = %.2f, want 40", got.SavingsRate)
	}

	if len(got.ExpensesByCategory) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(got.ExpensesByCategory))
	}
	first := got.ExpensesByCategory[0]
	if first.Category != "Rent" || first.Share != 66.67 {
		t.Fatalf("unexpected first category: %+v", first)
	}
	if got.ExpensesByCategory[1].Category != "Groceries" || got.ExpensesByCategory[2].Category != "Uncategorized" {
		t.Fatalf("unexpected category order: %+v", got.ExpensesByCategory)
	}

	if len(got.DailySpending) != 28 {
		t.Fatalf("expected 28 daily points, got %d", len(got.DailySpending))
	}
	assertDecimal(t, "day 2 cumulative", got.DailySpending[1].Cumulative, "2300")
	assertDecimal(t, "last cumulative", got.DailySpending[27].Cumulative, "3000")
}

func TestSummarizeMonthWithoutIncomeHasZeroSavingsRate(t *testing.T) {
	t.Parallel()

	period := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	got := SummarizeMonth(period, []CashFlowEntry{
		{Kind: EntryExpense, Category: "Fuel", Amount: dec(t, "80"), OccurredAt: period},
	})

	if got.SavingsRate != 0 {
		t.Fatalf("SavingsRate = %.2f, want 0", got.SavingsRate)
	}
	assertDecimal(t, "Net", got.Net, "-80")
}

func TestMonthlyTotalsFor(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	months := LastMonths(now, 3)
	if len(months) != 3 || months[0].Month() != time.April || months[2].Month() != time.June {
		t.Fatalf("unexpected months: %v", months)
	}

	totals := MonthlyTotalsFor(months, []CashFlowEntry{
		{Kind: EntryIncome, Amount: dec(t, "100"), OccurredAt: months[0].AddDate(0, 0, 3)},
		{Kind: EntryExpense, Amount: dec(t, "40"), OccurredAt: months[2].AddDate(0, 0, 1)},
		{Kind: EntryExpense, Amount: dec(t, "999"), OccurredAt: months[0].AddDate(0, -1, 0)},
	})

	assertDecimal(t, "april income", totals[0].Income, "100")
	assertDecimal(t, "may expenses", totals[1].Expenses, "0")
	assertDecimal(t, "june expenses", totals[2].Expenses, "40")
}

func TestNetWorth(t *testing.T) {
	t.Parallel()

	got := NetWorth(NetWorthInput{
		AccountBalances:  []decimal.Decimal{dec(t, "1000"), dec(t, "-200")},
		HoldingsValue:    dec(t, "500"),
		LoansOutstanding: dec(t, "300"),
		DebtsOutstanding: dec(t, "800"),
	})

	assertDecimal(t, "NetWorth", got, "800")
}
