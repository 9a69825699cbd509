/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	htmltemplate "html/template"
	"net/http"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/template"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/cache"
	"github.com/humaidq/tally/db"
	"github.com/humaidq/tally/finance"
)

const (
	dashboardCacheTTL = 15 * time.Minute
	historyMonths     = 12
)

var listCashFlowEntriesDBFn = db.ListCashFlowEntries

// dashboardAggregates is the cached part of the dashboard.
type dashboardAggregates struct {
	Summary finance.MonthlySummary
	History []finance.MonthTotals
}

// Dashboard renders the monthly overview: cash flow, charts, net worth,
// budget targets and outstanding debts.
func Dashboard(c flamego.Context, user CurrentUser, store cache.Cache, t template.Template, data template.Data) {
	ctx := c.Request().Context()
	now := time.Now().UTC()

	month, ok := selectedMonth(c, now)
	if !ok {
		data["Error"] = "Invalid month, showing the current month"
	}

	aggregates, err := loadDashboardAggregates(ctx, store, user.ID, month)
	if err != nil {
		logger.Error("Error loading dashboard summary", "error", err)
		data["Error"] = "Failed to load summary"
		aggregates.Summary = finance.SummarizeMonth(month, nil)
	}

	accounts, err := db.ListAccounts(ctx, user.ID)
	if err != nil {
		logger.Error("Error fetching accounts", "error", err)
		data["Error"] = "Failed to load accounts"
		accounts = []db.Account{}
	}

	investments, err := db.ListInvestments(ctx, user.ID)
	if err != nil {
		logger.Error("Error fetching investments", "error", err)
		data["Error"] = "Failed to load investments"
		investments = []db.InvestmentWithPosition{}
	}

	debts, err := db.ListDebts(ctx, user.ID, now)
	if err != nil {
		logger.Error("Error fetching debts", "error", err)
		data["Error"] = "Failed to load debts"
		debts = []db.DebtWithBalance{}
	}

	targets, err := db.ListTargetsWithProgress(ctx, user.ID, month)
	if err != nil {
		logger.Error("Error fetching budget targets", "error", err)
		data["Error"] = "Failed to load budget targets"
		targets = []db.TargetWithProgress{}
	}

	balances := make([]decimal.Decimal, 0, len(accounts))
	for _, account := range accounts {
		balances = append(balances, account.Balance)
	}

	holdings := db.HoldingsValue(investments)
	outstanding := db.SumOutstanding(debts)

	data["Summary"] = aggregates.Summary
	data["History"] = aggregates.History
	data["Accounts"] = accounts
	data["CashTotal"] = db.TotalBalance(accounts)
	data["HoldingsValue"] = holdings
	data["OwedByUser"] = outstanding.OwedByUser
	data["OwedToUser"] = outstanding.OwedToUser
	data["NetWorth"] = finance.NetWorth(finance.NetWorthInput{
		AccountBalances:  balances,
		HoldingsValue:    holdings,
		LoansOutstanding: outstanding.OwedToUser,
		DebtsOutstanding: outstanding.OwedByUser,
	})
	data["Targets"] = targets
	data["Debts"] = openDebts(debts)
	data["Month"] = newMonthNav(month)
	data["IsDashboard"] = true

	setDashboardCharts(data, user, aggregates)

	t.HTML(http.StatusOK, "dashboard")
}

func setDashboardCharts(data template.Data, user CurrentUser, aggregates dashboardAggregates) {
	var (
		categoryChart htmltemplate.HTML
		historyChart  htmltemplate.HTML
		spendingChart htmltemplate.HTML
		err           error
	)

	if categoryChart, err = renderCategoryPie("dashboard_categories", aggregates.Summary.ExpensesByCategory); err != nil {
		logger.Error("Error rendering category chart", "error", err)
	}

	if historyChart, err = renderIncomeExpenseBar("dashboard_history", user.Currency, aggregates.History); err != nil {
		logger.Error("Error rendering history chart", "error", err)
	}

	if aggregates.Summary.Expenses.IsPositive() {
		if spendingChart, err = renderCumulativeSpendingLine("dashboard_spending", user.Currency, aggregates.Summary.DailySpending); err != nil {
			logger.Error("Error rendering spending chart", "error", err)
		}
	}

	data["CategoryChart"] = categoryChart
	data["HistoryChart"] = historyChart
	data["SpendingChart"] = spendingChart
}

// loadDashboardAggregates reads the month summary and the trailing history
// from the cache, computing and storing them on a miss.
func loadDashboardAggregates(ctx context.Context, store cache.Cache, userID uuid.UUID, month time.Time) (dashboardAggregates, error) {
	key := cache.SummaryKey(userID.String(), month)

	var aggregates dashboardAggregates
	if store != nil && cache.GetJSON(ctx, store, key, &aggregates) {
		return aggregates, nil
	}

	months := finance.LastMonths(month, historyMonths)

	entries, err := listCashFlowEntriesDBFn(ctx, userID, months[0], month.AddDate(0, 1, 0))
	if err != nil {
		return dashboardAggregates{}, err
	}

	aggregates = dashboardAggregates{
		Summary: finance.SummarizeMonth(month, entries),
		History: finance.MonthlyTotalsFor(months, entries),
	}

	if store != nil {
		if err := cache.SetJSON(ctx, store, key, aggregates, dashboardCacheTTL); err != nil {
			logger.Warn("Failed to cache dashboard summary", "key", key, "error", err)
		}
	}

	return aggregates, nil
}

func openDebts(debts []db.DebtWithBalance) []db.DebtWithBalance {
	open := make([]db.DebtWithBalance, 0, len(debts))
	for _, debt := range debts {
		if !debt.Balance.IsSettled() {
			open = append(open, debt)
		}
	}

	return open
}
