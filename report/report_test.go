// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/finance"
)

func day(value string) time.Time {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		panic(err)
	}

	return t
}

func TestWriteTransactionsCSV(t *testing.T) {
	t.Parallel()

	rows := []TransactionRow{
		{
			Date:        day("2025-03-01"),
			Kind:        finance.EntryIncome,
			Category:    "Salary",
			Description: "March salary",
			Account:     "Main",
			Amount:      decimal.RequireFromString("5000"),
		},
		{
			Date:        day("2025-03-04"),
			Kind:        finance.EntryExpense,
			Category:    "Groceries",
			Description: "Milk, eggs",
			Account:     "Main",
			Amount:      decimal.RequireFromString("42.5"),
		},
	}

	var buf bytes.Buffer
	if err := WriteTransactionsCSV(&buf, rows); err != nil {
		t.Fatalf("WriteTransactionsCSV returned error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv output: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}

	if strings.Join(records[0], ",") != strings.Join(transactionHeader, ",") {
		t.Fatalf("unexpected header %v", records[0])
	}

	if records[1][5] != "5000.00" {
		t.Fatalf("expected income amount 5000.00, got %q", records[1][5])
	}

	if records[2][5] != "-42.50" {
		t.Fatalf("expected negative expense amount, got %q", records[2][5])
	}

	if records[2][3] != "Milk, eggs" {
		t.Fatalf("expected description with comma preserved, got %q", records[2][3])
	}
}

func TestWriteTransactionsCSVEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteTransactionsCSV(&buf, nil); err != nil {
		t.Fatalf("WriteTransactionsCSV returned error: %v", err)
	}

	if got := strings.TrimSpace(buf.String()); got != strings.Join(transactionHeader, ",") {
		t.Fatalf("expected header only, got %q", got)
	}
}

func TestWriteDebtsCSV(t *testing.T) {
	t.Parallel()

	start := day("2024-01-01")
	terms := finance.DebtTerms{
		Principal:  decimal.NewFromInt(1000),
		AnnualRate: decimal.NewFromInt(12),
		StartedAt:  start,
		Method:     finance.InterestDeclining,
	}
	balance := finance.CalculateBalance(terms, start.AddDate(0, 0, 365))

	rows := []DebtRow{{
		Kind:         finance.DebtBorrowed,
		Counterparty: "Bank",
		Principal:    terms.Principal,
		AnnualRate:   terms.AnnualRate,
		Method:       terms.Method,
		StartedAt:    start,
		Balance:      balance,
	}}

	var buf bytes.Buffer
	if err := WriteDebtsCSV(&buf, rows); err != nil {
		t.Fatalf("WriteDebtsCSV returned error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv output: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected header plus 1 row, got %d records", len(records))
	}

	row := records[1]
	if row[6] != "" {
		t.Fatalf("expected empty due date, got %q", row[6])
	}
	if row[8] != "365" {
		t.Fatalf("expected 365 days elapsed, got %q", row[8])
	}
	if row[10] != "1120.00" {
		t.Fatalf("expected total 1120.00, got %q", row[10])
	}
	if row[12] != "1120.00" {
		t.Fatalf("expected remaining 1120.00, got %q", row[12])
	}
}

func TestWriteSummaryPDF(t *testing.T) {
	t.Parallel()

	month := day("2025-03-01")
	summary := finance.SummarizeMonth(month, []finance.CashFlowEntry{
		{Kind: finance.EntryIncome, Category: "Salary", Amount: decimal.NewFromInt(5000), OccurredAt: month},
		{Kind: finance.EntryExpense, Category: "Café", Amount: decimal.NewFromInt(30), OccurredAt: month.AddDate(0, 0, 2)},
	})

	report := MonthlyReport{
		Owner:    "Tester",
		Currency: finance.DefaultCurrency,
		Summary:  summary,
		Targets: []TargetLine{{
			Category: "Café",
			Progress: finance.ComputeTargetProgress(decimal.NewFromInt(20), decimal.NewFromInt(30)),
		}},
		GeneratedAt: month.AddDate(0, 1, 0),
	}

	var buf bytes.Buffer
	if err := WriteSummaryPDF(&buf, report); err != nil {
		t.Fatalf("WriteSummaryPDF returned error: %v", err)
	}

	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected PDF header, got %q", buf.Bytes()[:8])
	}
}

func TestAlignFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		aligns string
		column int
		want   string
	}{
		{aligns: "LRR", column: 0, want: "L"},
		{aligns: "LRR", column: 2, want: "R"},
		{aligns: "LR", column: 5, want: "L"},
	}

	for _, tt := range tests {
		if got := alignFor(tt.aligns, tt.column); got != tt.want {
			t.Fatalf("alignFor(%q, %d) = %q, want %q", tt.aligns, tt.column, got, tt.want)
		}
	}
}
