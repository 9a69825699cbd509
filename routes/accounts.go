/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/tally/cache"
	"github.com/humaidq/tally/db"
	"github.com/humaidq/tally/events"
	"github.com/humaidq/tally/finance"
)

var createAccountDBFn = db.CreateAccount

// AccountsList renders all accounts with their balances.
func AccountsList(c flamego.Context, user CurrentUser, t template.Template, data template.Data) {
	accounts, err := db.ListAccounts(c.Request().Context(), user.ID)
	if err != nil {
		logger.Error("Error fetching accounts", "error", err)
		data["Error"] = "Failed to load accounts"
		accounts = []db.Account{}
	}

	data["Accounts"] = accounts
	data["Total"] = db.TotalBalance(accounts)
	data["IsAccounts"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Accounts", URL: "/accounts", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "accounts")
}

// AccountNewForm renders the create account page.
func AccountNewForm(user CurrentUser, t template.Template, data template.Data) {
	data["AccountTypeOptions"] = accountTypeOptions()
	data["DefaultCurrency"] = user.Currency
	data["IsAccounts"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Accounts", URL: "/accounts"},
		{Name: "New", URL: "/accounts/new", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "account_new")
}

// CreateAccount handles the create account form.
func CreateAccount(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing account form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/accounts/new", http.StatusSeeOther)

		return
	}

	form := c.Request().Form

	name := strings.TrimSpace(form.Get("name"))
	if name == "" {
		SetErrorFlash(s, "Account name is required")
		c.Redirect("/accounts/new", http.StatusSeeOther)

		return
	}

	accountType := db.AccountType(strings.TrimSpace(form.Get("account_type")))
	if !db.IsValidAccountType(accountType) {
		SetErrorFlash(s, "Invalid account type")
		c.Redirect("/accounts/new", http.StatusSeeOther)

		return
	}

	opening, err := parseOptionalAmount(form.Get("opening_balance"))
	if err != nil {
		SetErrorFlash(s, "Opening balance must be a number")
		c.Redirect("/accounts/new", http.StatusSeeOther)

		return
	}

	currency := strings.TrimSpace(form.Get("currency"))
	if currency == "" {
		currency = user.Currency
	}

	ctx := c.Request().Context()

	accountID, err := createAccountDBFn(ctx, user.ID, db.CreateAccountInput{
		Name:           name,
		AccountType:    accountType,
		BankName:       getOptionalString(form.Get("bank_name")),
		OpeningBalance: opening,
		Currency:       currency,
		Description:    getOptionalString(form.Get("description")),
	})
	if err != nil {
		logger.Error("Error creating account", "error", err)
		setMutationErrorFlash(s, err, "Failed to create account")
		c.Redirect("/accounts/new", http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID)

	SetSuccessFlash(s, "Account created")
	c.Redirect("/accounts/"+accountID.String(), http.StatusSeeOther)
}

// AccountView renders a single account with this month's activity.
func AccountView(c flamego.Context, s session.Session, user CurrentUser, t template.Template, data template.Data) {
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid account ID")
		c.Redirect("/accounts", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	account, err := db.GetAccount(ctx, user.ID, accountID)
	if err != nil {
		logger.Error("Error fetching account", "error", err)
		setMutationErrorFlash(s, err, "Failed to load account")
		c.Redirect("/accounts", http.StatusSeeOther)

		return
	}

	month := finance.MonthStart(time.Now().UTC())
	monthEnd := month.AddDate(0, 1, 0)

	expenses, err := db.ListExpenses(ctx, user.ID, month, monthEnd)
	if err != nil {
		logger.Error("Error fetching expenses", "error", err)
		data["Error"] = "Failed to load activity"
	}

	incomes, err := db.ListIncomes(ctx, user.ID, month, monthEnd)
	if err != nil {
		logger.Error("Error fetching incomes", "error", err)
		data["Error"] = "Failed to load activity"
	}

	data["Account"] = account
	data["Expenses"] = filterExpensesByAccount(expenses, account)
	data["Incomes"] = filterIncomesByAccount(incomes, account)
	data["Month"] = newMonthNav(month)
	data["IsAccounts"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Accounts", URL: "/accounts"},
		{Name: account.Name, URL: "/accounts/" + account.ID.String(), IsCurrent: true},
	}

	t.HTML(http.StatusOK, "account_view")
}

// AccountEditForm renders the edit account page.
func AccountEditForm(c flamego.Context, s session.Session, user CurrentUser, t template.Template, data template.Data) {
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid account ID")
		c.Redirect("/accounts", http.StatusSeeOther)

		return
	}

	account, err := db.GetAccount(c.Request().Context(), user.ID, accountID)
	if err != nil {
		logger.Error("Error fetching account", "error", err)
		setMutationErrorFlash(s, err, "Failed to load account")
		c.Redirect("/accounts", http.StatusSeeOther)

		return
	}

	data["Account"] = account
	data["AccountTypeOptions"] = accountTypeOptions()
	data["IsAccounts"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Accounts", URL: "/accounts"},
		{Name: account.Name, URL: "/accounts/" + account.ID.String()},
		{Name: "Edit", URL: "/accounts/" + account.ID.String() + "/edit", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "account_edit")
}

// UpdateAccount handles the edit account form. The balance only changes
// through records.
func UpdateAccount(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid account ID")
		c.Redirect("/accounts", http.StatusSeeOther)

		return
	}

	redirectURL := "/accounts/" + accountID.String()

	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing account form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect(redirectURL+"/edit", http.StatusSeeOther)

		return
	}

	form := c.Request().Form
	ctx := c.Request().Context()

	err := db.UpdateAccount(ctx, user.ID, db.UpdateAccountInput{
		ID:          accountID,
		Name:        form.Get("name"),
		AccountType: db.AccountType(strings.TrimSpace(form.Get("account_type"))),
		BankName:    getOptionalString(form.Get("bank_name")),
		Currency:    form.Get("currency"),
		Description: getOptionalString(form.Get("description")),
	})
	if err != nil {
		logger.Error("Error updating account", "error", err)
		setMutationErrorFlash(s, err, "Failed to update account")
		c.Redirect(redirectURL+"/edit", http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID)

	SetSuccessFlash(s, "Account updated")
	c.Redirect(redirectURL, http.StatusSeeOther)
}

// DeleteAccount removes an account with all of its records.
func DeleteAccount(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid account ID")
		c.Redirect("/accounts", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	if err := db.DeleteAccount(ctx, user.ID, accountID); err != nil {
		logger.Error("Error deleting account", "error", err)
		setMutationErrorFlash(s, err, "Failed to delete account")
		c.Redirect("/accounts/"+accountID.String(), http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID)

	SetSuccessFlash(s, "Account deleted")
	c.Redirect("/accounts", http.StatusSeeOther)
}

func accountTypeOptions() []selectOption {
	options := make([]selectOption, 0, len(db.AccountTypes))
	for _, accountType := range db.AccountTypes {
		options = append(options, selectOption{
			Value: string(accountType),
			Label: titleCase(string(accountType)),
		})
	}

	return options
}

func titleCase(value string) string {
	if value == "" {
		return value
	}

	return strings.ToUpper(value[:1]) + value[1:]
}

func filterExpensesByAccount(expenses []db.Expense, account *db.Account) []db.Expense {
	filtered := make([]db.Expense, 0, len(expenses))
	for _, expense := range expenses {
		if expense.AccountID == account.ID {
			filtered = append(filtered, expense)
		}
	}

	return filtered
}

func filterIncomesByAccount(incomes []db.Income, account *db.Account) []db.Income {
	filtered := make([]db.Income, 0, len(incomes))
	for _, income := range incomes {
		if income.AccountID == account.ID {
			filtered = append(filtered, income)
		}
	}

	return filtered
}
