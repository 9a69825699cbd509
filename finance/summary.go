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

// EntryKind tells income and expense entries apart.
type EntryKind string

// EntryKind values.
const (
	EntryIncome  EntryKind = "income"
	EntryExpense EntryKind = "expense"
)

// CashFlowEntry is an income or expense reduced to what summaries need.
type CashFlowEntry struct {
	Kind       EntryKind
	Category   string
	Amount     decimal.Decimal
	OccurredAt time.Time
}

// CategoryTotal is the amount spent in a single category.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
	Share    float64
}

// DailyPoint is the cumulative spending at the end of a day.
type DailyPoint struct {
	Day        time.Time
	Cumulative decimal.Decimal
}

// MonthlySummary aggregates a month of cash flow.
type MonthlySummary struct {
	PeriodStart        time.Time
	Income             decimal.Decimal
	Expenses           decimal.Decimal
	Net                decimal.Decimal
	SavingsRate        float64
	ExpensesByCategory []CategoryTotal
	DailySpending      []DailyPoint
}

// MonthTotals holds income and expense totals for one month.
type MonthTotals struct {
	PeriodStart time.Time
	Income      decimal.Decimal
	Expenses    decimal.Decimal
}

// SummarizeMonth totals the entries that fall inside the month starting at
// periodStart. Entries outside the month are ignored.
func SummarizeMonth(periodStart time.Time, entries []CashFlowEntry) MonthlySummary {
	periodStart = MonthStart(periodStart)
	periodEnd := periodStart.AddDate(0, 1, 0)

	summary := MonthlySummary{
		PeriodStart: periodStart,
		Income:      decimal.Zero,
		Expenses:    decimal.Zero,
	}

	byCategory := make(map[string]decimal.Decimal)
	byDay := make(map[int]decimal.Decimal)

	for _, entry := range entries {
		if entry.OccurredAt.Before(periodStart) || !entry.OccurredAt.Before(periodEnd) {
			continue
		}

		switch entry.Kind {
		case EntryIncome:
			summary.Income = summary.Income.Add(entry.Amount)
		case EntryExpense:
			summary.Expenses = summary.Expenses.Add(entry.Amount)
			category := entry.Category
			if category == "" {
				category = "Uncategorized"
			}
			byCategory[category] = byCategory[category].Add(entry.Amount)
			day := entry.OccurredAt.In(periodStart.Location()).Day()
			byDay[day] = byDay[day].Add(entry.Amount)
		}
	}

	summary.Net = summary.Income.Sub(summary.Expenses)
	if summary.Income.IsPositive() {
		summary.SavingsRate = summary.Net.Div(summary.Income).Mul(hundred).Round(2).InexactFloat64()
	}

	summary.ExpensesByCategory = categoryTotals(byCategory, summary.Expenses)
	summary.DailySpending = dailySeries(periodStart, periodEnd, byDay)

	return summary
}

func categoryTotals(byCategory map[string]decimal.Decimal, total decimal.Decimal) []CategoryTotal {
	totals := make([]CategoryTotal, 0, len(byCategory))
	for category, amount := range byCategory {
		share := 0.0
		if total.IsPositive() {
			share = amount.Div(total).Mul(hundred).Round(2).InexactFloat64()
		}
		totals = append(totals, CategoryTotal{Category: category, Amount: amount, Share: share})
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Amount.Equal(totals[j].Amount) {
			return totals[i].Category < totals[j].Category
		}
		return totals[i].Amount.GreaterThan(totals[j].Amount)
	})

	return totals
}

func dailySeries(periodStart, periodEnd time.Time, byDay map[int]decimal.Decimal) []DailyPoint {
	var points []DailyPoint

	cumulative := decimal.Zero
	for day := periodStart; day.Before(periodEnd); day = day.AddDate(0, 0, 1) {
		cumulative = cumulative.Add(byDay[day.Day()])
		points = append(points, DailyPoint{Day: day, Cumulative: cumulative})
	}

	return points
}

// MonthlyTotalsFor buckets entries into the given months. Months must be first
// days of their month; entries outside every month are ignored.
func MonthlyTotalsFor(months []time.Time, entries []CashFlowEntry) []MonthTotals {
	totals := make([]MonthTotals, len(months))
	index := make(map[string]int, len(months))

	for i, month := range months {
		totals[i] = MonthTotals{PeriodStart: month, Income: decimal.Zero, Expenses: decimal.Zero}
		index[month.Format("2006-01")] = i
	}

	for _, entry := range entries {
		i, ok := index[entry.OccurredAt.In(locationOf(months)).Format("2006-01")]
		if !ok {
			continue
		}

		switch entry.Kind {
		case EntryIncome:
			totals[i].Income = totals[i].Income.Add(entry.Amount)
		case EntryExpense:
			totals[i].Expenses = totals[i].Expenses.Add(entry.Amount)
		}
	}

	return totals
}

// LastMonths returns the first day of the n months ending with now's month,
// oldest first.
func LastMonths(now time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}

	last := MonthStart(now)
	months := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		months = append(months, last.AddDate(0, -i, 0))
	}

	return months
}

func locationOf(months []time.Time) *time.Location {
	if len(months) == 0 {
		return time.UTC
	}

	return months[0].Location()
}

// NetWorthInput lists the components of net worth.
type NetWorthInput struct {
	AccountBalances  []decimal.Decimal
	HoldingsValue    decimal.Decimal
	LoansOutstanding decimal.Decimal
	DebtsOutstanding decimal.Decimal
}

// NetWorth is cash plus holdings plus money owed to the user, minus money the
// user owes.
func NetWorth(input NetWorthInput) decimal.Decimal {
	total := decimal.Zero
	for _, balance := range input.AccountBalances {
		total = total.Add(balance)
	}

	return total.Add(input.HoldingsValue).Add(input.LoansOutstanding).Sub(input.DebtsOutstanding)
}
