/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/finance"
)

const (
	pageMargin = 15.0
	lineHeight = 7.0
)

// WriteSummaryPDF renders the monthly summary as an A4 PDF document.
func WriteSummaryPDF(w io.Writer, r MonthlyReport) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetCreationDate(r.GeneratedAt)
	pdf.SetModificationDate(r.GeneratedAt)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	month := r.Summary.PeriodStart.Format("January 2006")

	pdf.SetTitle(tr("Tally summary "+month), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr("Monthly summary: "+month), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Prepared for %s on %s", r.Owner, r.GeneratedAt.Format("2 Jan 2006"))), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Totals")
	keyValue(pdf, tr, "Income", money(r.Currency, r.Summary.Income))
	keyValue(pdf, tr, "Expenses", money(r.Currency, r.Summary.Expenses))
	keyValue(pdf, tr, "Net", money(r.Currency, r.Summary.Net))
	keyValue(pdf, tr, "Savings rate", fmt.Sprintf("%.1f%%", r.Summary.SavingsRate))
	pdf.Ln(4)

	section(pdf, "Expenses by category")
	if len(r.Summary.ExpensesByCategory) == 0 {
		emptyLine(pdf, "No expenses recorded.")
	} else {
		tableHeader(pdf, []string{"Category", "Amount", "Share"}, []float64{90, 50, 40}, "LRR")
		for _, cat := range r.Summary.ExpensesByCategory {
			tableRow(pdf, tr, []string{
				cat.Category,
				finance.FormatAmount(cat.Amount),
				fmt.Sprintf("%.1f%%", cat.Share),
			}, []float64{90, 50, 40}, "LRR")
		}
	}
	pdf.Ln(4)

	section(pdf, "Budget targets")
	if len(r.Targets) == 0 {
		emptyLine(pdf, "No targets set for this month.")
	} else {
		widths := []float64{60, 40, 40, 40}
		tableHeader(pdf, []string{"Category", "Target", "Spent", "Remaining"}, widths, "LRRR")
		for _, t := range r.Targets {
			remaining := finance.FormatAmount(t.Progress.RemainingAbs)
			if t.Progress.IsOver {
				remaining = "-" + remaining
			}
			tableRow(pdf, tr, []string{
				t.Category,
				finance.FormatAmount(t.Progress.Target),
				finance.FormatAmount(t.Progress.Spent),
				remaining,
			}, widths, "LRRR")
		}
	}
	pdf.Ln(4)

	section(pdf, "Debts and loans")
	if len(r.Debts) == 0 {
		emptyLine(pdf, "No debts or loans.")
	} else {
		widths := []float64{20, 50, 35, 40, 35}
		tableHeader(pdf, []string{"Type", "Counterparty", "Principal", "With interest", "Remaining"}, widths, "LLRRR")
		for _, d := range r.Debts {
			tableRow(pdf, tr, []string{
				kindLabel(d.Kind),
				d.Counterparty,
				finance.FormatAmount(d.Principal),
				finance.FormatAmount(d.Balance.TotalWithInterest),
				finance.FormatAmount(d.Balance.RemainingAmount),
			}, widths, "LLRRR")
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}

	logger.Debug("Rendered summary report", "month", month, "categories", len(r.Summary.ExpensesByCategory), "debts", len(r.Debts))

	return nil
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func emptyLine(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, lineHeight, text, "", 1, "L", false, 0, "")
}

func keyValue(pdf *fpdf.Fpdf, tr func(string) string, key, value string) {
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(50, lineHeight, tr(key), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, lineHeight, tr(value), "", 1, "L", false, 0, "")
}

func tableHeader(pdf *fpdf.Fpdf, columns []string, widths []float64, aligns string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, col := range columns {
		pdf.CellFormat(widths[i], lineHeight, col, "1", 0, alignFor(aligns, i), true, 0, "")
	}
	pdf.Ln(-1)
}

func tableRow(pdf *fpdf.Fpdf, tr func(string) string, values []string, widths []float64, aligns string) {
	pdf.SetFont("Helvetica", "", 10)
	for i, value := range values {
		pdf.CellFormat(widths[i], lineHeight, tr(value), "1", 0, alignFor(aligns, i), false, 0, "")
	}
	pdf.Ln(-1)
}

// aligns holds one of L or R per column.
func alignFor(aligns string, column int) string {
	if column < len(aligns) {
		return aligns[column : column+1]
	}

	return "L"
}

func money(currency string, amount decimal.Decimal) string {
	return currency + " " + finance.FormatAmount(amount)
}
