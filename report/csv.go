/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/humaidq/tally/finance"
)

var transactionHeader = []string{"date", "type", "category", "description", "account", "amount"}

var debtHeader = []string{
	"type", "counterparty", "principal", "annual_rate", "interest_method",
	"started_at", "due_at", "as_of", "days_elapsed", "accrued_interest",
	"total_with_interest", "repaid", "remaining",
}

// WriteTransactionsCSV writes income and expense rows. Expenses are exported
// as negative amounts so the column sums to the net cash flow.
func WriteTransactionsCSV(w io.Writer, rows []TransactionRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(transactionHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range rows {
		amount := row.Amount
		if row.Kind == finance.EntryExpense {
			amount = amount.Neg()
		}

		record := []string{
			row.Date.Format(dateLayout),
			string(row.Kind),
			row.Category,
			row.Description,
			row.Account,
			amount.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}

// WriteDebtsCSV writes debts and loans with their calculated balances.
func WriteDebtsCSV(w io.Writer, rows []DebtRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(debtHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			string(row.Kind),
			row.Counterparty,
			row.Principal.StringFixed(2),
			row.AnnualRate.String(),
			string(row.Method),
			row.StartedAt.Format(dateLayout),
			formatDate(row.DueAt),
			row.Balance.AsOf.Format(dateLayout),
			fmt.Sprintf("%d", row.Balance.DaysElapsed),
			row.Balance.AccruedInterest.StringFixed(2),
			row.Balance.TotalWithInterest.StringFixed(2),
			row.Balance.Repaid.StringFixed(2),
			row.Balance.RemainingAmount.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}
