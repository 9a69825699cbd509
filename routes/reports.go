/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	"net/http"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/tally/db"
	"github.com/humaidq/tally/finance"
	"github.com/humaidq/tally/report"
)

var (
	listTransactionsDBFn = db.ListTransactions
	listDebtsDBFn        = db.ListDebts
)

// ReportsView renders the export page.
func ReportsView(c flamego.Context, t template.Template, data template.Data) {
	month, ok := selectedMonth(c, time.Now().UTC())
	if !ok {
		data["Error"] = "Invalid month, showing the current month"
	}

	data["Month"] = newMonthNav(month)
	data["IsReports"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Reports", URL: "/reports", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "reports")
}

// TransactionsCSV exports the month's income and expenses.
func TransactionsCSV(c flamego.Context, s session.Session, user CurrentUser) {
	month, ok := selectedMonth(c, time.Now().UTC())
	if !ok {
		SetErrorFlash(s, "Invalid month")
		c.Redirect("/reports", http.StatusSeeOther)

		return
	}

	transactions, err := listTransactionsDBFn(c.Request().Context(), user.ID, month, month.AddDate(0, 1, 0))
	if err != nil {
		logger.Error("Error fetching transactions", "error", err)
		SetErrorFlash(s, "Failed to export transactions")
		c.Redirect("/reports", http.StatusSeeOther)

		return
	}

	var buf bytes.Buffer
	if err := report.WriteTransactionsCSV(&buf, transactionRows(transactions)); err != nil {
		logger.Error("Error writing transactions CSV", "error", err)
		SetErrorFlash(s, "Failed to export transactions")
		c.Redirect("/reports", http.StatusSeeOther)

		return
	}

	writeDownload(c, "text/csv; charset=utf-8", "transactions-"+month.Format("2006-01")+".csv", buf.Bytes())
}

// DebtsCSV exports every debt and loan with its current balance.
func DebtsCSV(c flamego.Context, s session.Session, user CurrentUser) {
	now := time.Now().UTC()

	debts, err := listDebtsDBFn(c.Request().Context(), user.ID, now)
	if err != nil {
		logger.Error("Error fetching debts", "error", err)
		SetErrorFlash(s, "Failed to export debts")
		c.Redirect("/reports", http.StatusSeeOther)

		return
	}

	var buf bytes.Buffer
	if err := report.WriteDebtsCSV(&buf, debtRows(debts)); err != nil {
		logger.Error("Error writing debts CSV", "error", err)
		SetErrorFlash(s, "Failed to export debts")
		c.Redirect("/reports", http.StatusSeeOther)

		return
	}

	writeDownload(c, "text/csv; charset=utf-8", "debts-"+now.Format("2006-01-02")+".csv", buf.Bytes())
}

// SummaryPDF renders the monthly summary as a PDF document.
func SummaryPDF(c flamego.Context, s session.Session, user CurrentUser) {
	now := time.Now().UTC()

	month, ok := selectedMonth(c, now)
	if !ok {
		SetErrorFlash(s, "Invalid month")
		c.Redirect("/reports", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	entries, err := listCashFlowEntriesDBFn(ctx, user.ID, month, month.AddDate(0, 1, 0))
	if err != nil {
		logger.Error("Error fetching cash flow", "error", err)
		SetErrorFlash(s, "Failed to build report")
		c.Redirect("/reports", http.StatusSeeOther)

		return
	}

	targets, err := db.ListTargetsWithProgress(ctx, user.ID, month)
	if err != nil {
		logger.Error("Error fetching budget targets", "error", err)
		targets = []db.TargetWithProgress{}
	}

	debts, err := listDebtsDBFn(ctx, user.ID, now)
	if err != nil {
		logger.Error("Error fetching debts", "error", err)
		debts = []db.DebtWithBalance{}
	}

	lines := make([]report.TargetLine, 0, len(targets))
	for _, target := range targets {
		lines = append(lines, report.TargetLine{Category: target.Category, Progress: target.TargetProgress})
	}

	var buf bytes.Buffer
	if err := report.WriteSummaryPDF(&buf, report.MonthlyReport{
		Owner:       user.DisplayName,
		Currency:    user.Currency,
		Summary:     finance.SummarizeMonth(month, entries),
		Targets:     lines,
		Debts:       debtRows(debts),
		GeneratedAt: now,
	}); err != nil {
		logger.Error("Error writing summary PDF", "error", err)
		SetErrorFlash(s, "Failed to build report")
		c.Redirect("/reports", http.StatusSeeOther)

		return
	}

	writeDownload(c, "application/pdf", "summary-"+month.Format("2006-01")+".pdf", buf.Bytes())
}

func writeDownload(c flamego.Context, contentType, filename string, body []byte) {
	headers := c.ResponseWriter().Header()
	headers.Set("Content-Type", contentType)
	headers.Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	headers.Set("Cache-Control", "no-store, max-age=0")

	c.ResponseWriter().WriteHeader(http.StatusOK)

	if _, err := c.ResponseWriter().Write(body); err != nil {
		logger.Warn("Failed to write download", "filename", filename, "error", err)
	}
}

func transactionRows(transactions []db.Transaction) []report.TransactionRow {
	rows := make([]report.TransactionRow, 0, len(transactions))
	for _, t := range transactions {
		rows = append(rows, report.TransactionRow{
			Date:        t.OccurredAt,
			Kind:        t.Kind,
			Category:    t.Category,
			Description: t.Description,
			Account:     t.AccountName,
			Amount:      t.Amount,
		})
	}

	return rows
}

func debtRows(debts []db.DebtWithBalance) []report.DebtRow {
	rows := make([]report.DebtRow, 0, len(debts))
	for _, d := range debts {
		rows = append(rows, report.DebtRow{
			Kind:         d.Kind,
			Counterparty: d.Counterparty,
			Principal:    d.Principal,
			AnnualRate:   d.InterestRate,
			Method:       d.InterestMethod,
			StartedAt:    d.StartedAt,
			DueAt:        d.DueAt,
			Balance:      d.Balance,
		})
	}

	return rows
}
