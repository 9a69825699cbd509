/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/cache"
	"github.com/humaidq/tally/db"
	"github.com/humaidq/tally/events"
	"github.com/humaidq/tally/finance"
)

var (
	createExpenseDBFn = db.CreateExpense
	updateExpenseDBFn = db.UpdateExpense
	deleteExpenseDBFn = db.DeleteExpense
)

// ExpensesList renders the expenses of a month.
func ExpensesList(c flamego.Context, user CurrentUser, t template.Template, data template.Data) {
	month, ok := selectedMonth(c, time.Now().UTC())
	if !ok {
		data["Error"] = "Invalid month, showing the current month"
	}

	expenses, err := db.ListExpenses(c.Request().Context(), user.ID, month, month.AddDate(0, 1, 0))
	if err != nil {
		logger.Error("Error fetching expenses", "error", err)
		data["Error"] = "Failed to load expenses"
		expenses = []db.Expense{}
	}

	data["Expenses"] = expenses
	data["Total"] = sumExpenses(expenses)
	data["Month"] = newMonthNav(month)
	data["IsExpenses"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Expenses", URL: "/expenses", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "expenses")
}

// ExpenseNewForm renders the add expense page.
func ExpenseNewForm(c flamego.Context, s session.Session, user CurrentUser, t template.Template, data template.Data) {
	if !loadCashFlowFormData(c, s, user, data, db.ListExpenseCategories) {
		return
	}

	data["Today"] = today(time.Now()).Format(formDateLayout)
	data["IsExpenses"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Expenses", URL: "/expenses"},
		{Name: "New", URL: "/expenses/new", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "expense_new")
}

// CreateExpense records an expense and debits its account.
func CreateExpense(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing expense form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/expenses/new", http.StatusSeeOther)

		return
	}

	input, message := parseExpenseForm(c.Request().Form, time.Now())
	if message != "" {
		SetErrorFlash(s, message)
		c.Redirect("/expenses/new", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	expenseID, err := createExpenseDBFn(ctx, user.ID, input)
	if err != nil {
		logger.Error("Error creating expense", "error", err)
		setMutationErrorFlash(s, err, "Failed to add expense")
		c.Redirect("/expenses/new", http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID,
		events.New(events.ExpenseCreated, user.ID, expenseID, map[string]string{
			"category": input.Category,
			"amount":   input.Amount.StringFixed(2),
		}),
		balanceChangedEvent(user.ID, input.AccountID, finance.ExpenseDelta(input.Amount)),
	)

	SetSuccessFlash(s, "Expense added")

	if isAddAnother(c) {
		c.Redirect("/expenses/new", http.StatusSeeOther)
		return
	}

	c.Redirect("/expenses?month="+input.SpentAt.Format("2006-01"), http.StatusSeeOther)
}

// ExpenseEditForm renders the edit expense page.
func ExpenseEditForm(c flamego.Context, s session.Session, user CurrentUser, t template.Template, data template.Data) {
	expenseID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid expense ID")
		c.Redirect("/expenses", http.StatusSeeOther)

		return
	}

	expense, err := db.GetExpense(c.Request().Context(), user.ID, expenseID)
	if err != nil {
		logger.Error("Error fetching expense", "error", err)
		setMutationErrorFlash(s, err, "Failed to load expense")
		c.Redirect("/expenses", http.StatusSeeOther)

		return
	}

	if !loadCashFlowFormData(c, s, user, data, db.ListExpenseCategories) {
		return
	}

	data["Expense"] = expense
	data["IsExpenses"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Expenses", URL: "/expenses"},
		{Name: "Edit", URL: "/expenses/" + expense.ID.String() + "/edit", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "expense_edit")
}

// UpdateExpense changes an expense, moving the balance effect as needed.
func UpdateExpense(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	expenseID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid expense ID")
		c.Redirect("/expenses", http.StatusSeeOther)

		return
	}

	editURL := "/expenses/" + expenseID.String() + "/edit"

	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing expense form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect(editURL, http.StatusSeeOther)

		return
	}

	input, message := parseExpenseForm(c.Request().Form, time.Now())
	if message != "" {
		SetErrorFlash(s, message)
		c.Redirect(editURL, http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	previous, err := db.GetExpense(ctx, user.ID, expenseID)
	if err != nil {
		logger.Error("Error fetching expense", "error", err)
		setMutationErrorFlash(s, err, "Failed to update expense")
		c.Redirect("/expenses", http.StatusSeeOther)

		return
	}

	if err := updateExpenseDBFn(ctx, user.ID, expenseID, input); err != nil {
		logger.Error("Error updating expense", "error", err)
		setMutationErrorFlash(s, err, "Failed to update expense")
		c.Redirect(editURL, http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID,
		balanceChangedEvent(user.ID, previous.AccountID, finance.Reverse(finance.ExpenseDelta(previous.Amount))),
		balanceChangedEvent(user.ID, input.AccountID, finance.ExpenseDelta(input.Amount)),
	)

	SetSuccessFlash(s, "Expense updated")
	c.Redirect("/expenses?month="+input.SpentAt.Format("2006-01"), http.StatusSeeOther)
}

// DeleteExpense removes an expense and refunds its account.
func DeleteExpense(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	expenseID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid expense ID")
		c.Redirect("/expenses", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	deleted, err := deleteExpenseDBFn(ctx, user.ID, expenseID)
	if err != nil {
		logger.Error("Error deleting expense", "error", err)
		setMutationErrorFlash(s, err, "Failed to delete expense")
		c.Redirect("/expenses", http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID,
		events.New(events.ExpenseDeleted, user.ID, deleted.ID, nil),
		balanceChangedEvent(user.ID, deleted.AccountID, finance.Reverse(finance.ExpenseDelta(deleted.Amount))),
	)

	SetSuccessFlash(s, "Expense deleted")
	c.Redirect("/expenses?month="+deleted.SpentAt.Format("2006-01"), http.StatusSeeOther)
}

// parseExpenseForm validates the expense fields. A non-empty message means
// the form was rejected.
func parseExpenseForm(form url.Values, now time.Time) (db.ExpenseInput, string) {
	accountID, err := uuid.Parse(strings.TrimSpace(form.Get("account_id")))
	if err != nil {
		return db.ExpenseInput{}, "Account is required"
	}

	category := strings.TrimSpace(form.Get("category"))
	if category == "" {
		return db.ExpenseInput{}, "Category is required"
	}

	amount, err := finance.ParseAmount(form.Get("amount"))
	if err != nil {
		return db.ExpenseInput{}, "Amount must be a number"
	}

	if !amount.IsPositive() {
		return db.ExpenseInput{}, "Amount must be greater than zero"
	}

	spentAt, err := parseFormDateOrToday(form.Get("spent_at"), now)
	if err != nil {
		return db.ExpenseInput{}, "Invalid expense date"
	}

	return db.ExpenseInput{
		AccountID:   accountID,
		Category:    category,
		Amount:      amount,
		Description: getOptionalString(form.Get("description")),
		SpentAt:     spentAt,
	}, ""
}

func sumExpenses(expenses []db.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, expense := range expenses {
		total = total.Add(expense.Amount)
	}

	return total
}

type categoryLister func(ctx context.Context, userID uuid.UUID) ([]string, error)

// loadCashFlowFormData fills the account picker and category suggestions. It
// redirects to the new account form when the user has no accounts yet.
func loadCashFlowFormData(c flamego.Context, s session.Session, user CurrentUser, data template.Data, listCategories categoryLister) bool {
	ctx := c.Request().Context()

	accounts, err := db.ListAccounts(ctx, user.ID)
	if err != nil {
		logger.Error("Error fetching accounts", "error", err)
		data["Error"] = "Failed to load accounts"
		accounts = []db.Account{}
	}

	if err == nil && len(accounts) == 0 {
		SetInfoFlash(s, "Create an account first")
		c.Redirect("/accounts/new", http.StatusSeeOther)

		return false
	}

	categories, err := listCategories(ctx, user.ID)
	if err != nil {
		logger.Error("Error fetching categories", "error", err)
		categories = []string{}
	}

	data["Accounts"] = accounts
	data["Categories"] = categories

	return true
}
