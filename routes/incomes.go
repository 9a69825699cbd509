/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
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
	createIncomeDBFn = db.CreateIncome
	deleteIncomeDBFn = db.DeleteIncome
)

// IncomesList renders the income received in a month.
func IncomesList(c flamego.Context, user CurrentUser, t template.Template, data template.Data) {
	month, ok := selectedMonth(c, time.Now().UTC())
	if !ok {
		data["Error"] = "Invalid month, showing the current month"
	}

	incomes, err := db.ListIncomes(c.Request().Context(), user.ID, month, month.AddDate(0, 1, 0))
	if err != nil {
		logger.Error("Error fetching incomes", "error", err)
		data["Error"] = "Failed to load income"
		incomes = []db.Income{}
	}

	total := decimal.Zero
	for _, income := range incomes {
		total = total.Add(income.Amount)
	}

	data["Incomes"] = incomes
	data["Total"] = total
	data["Month"] = newMonthNav(month)
	data["IsIncomes"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Income", URL: "/incomes", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "incomes")
}

// IncomeNewForm renders the add income page.
func IncomeNewForm(c flamego.Context, s session.Session, user CurrentUser, t template.Template, data template.Data) {
	if !loadCashFlowFormData(c, s, user, data, db.ListIncomeCategories) {
		return
	}

	data["Today"] = today(time.Now()).Format(formDateLayout)
	data["IsIncomes"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Income", URL: "/incomes"},
		{Name: "New", URL: "/incomes/new", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "income_new")
}

// CreateIncome records income and credits its account.
func CreateIncome(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing income form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/incomes/new", http.StatusSeeOther)

		return
	}

	input, message := parseIncomeForm(c.Request().Form, time.Now())
	if message != "" {
		SetErrorFlash(s, message)
		c.Redirect("/incomes/new", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	incomeID, err := createIncomeDBFn(ctx, user.ID, input)
	if err != nil {
		logger.Error("Error creating income", "error", err)
		setMutationErrorFlash(s, err, "Failed to add income")
		c.Redirect("/incomes/new", http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID,
		events.New(events.IncomeCreated, user.ID, incomeID, map[string]string{
			"source": input.Source,
			"amount": input.Amount.StringFixed(2),
		}),
		balanceChangedEvent(user.ID, input.AccountID, finance.IncomeDelta(input.Amount)),
	)

	SetSuccessFlash(s, "Income added")

	if isAddAnother(c) {
		c.Redirect("/incomes/new", http.StatusSeeOther)
		return
	}

	c.Redirect("/incomes?month="+input.ReceivedAt.Format("2006-01"), http.StatusSeeOther)
}

// IncomeEditForm renders the edit income page.
func IncomeEditForm(c flamego.Context, s session.Session, user CurrentUser, t template.Template, data template.Data) {
	incomeID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid income ID")
		c.Redirect("/incomes", http.StatusSeeOther)

		return
	}

	income, err := db.GetIncome(c.Request().Context(), user.ID, incomeID)
	if err != nil {
		logger.Error("Error fetching income", "error", err)
		setMutationErrorFlash(s, err, "Failed to load income")
		c.Redirect("/incomes", http.StatusSeeOther)

		return
	}

	if !loadCashFlowFormData(c, s, user, data, db.ListIncomeCategories) {
		return
	}

	data["Income"] = income
	data["IsIncomes"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Income", URL: "/incomes"},
		{Name: "Edit", URL: "/incomes/" + income.ID.String() + "/edit", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "income_edit")
}

// UpdateIncome changes an income record, moving the balance effect as needed.
func UpdateIncome(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	incomeID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid income ID")
		c.Redirect("/incomes", http.StatusSeeOther)

		return
	}

	editURL := "/incomes/" + incomeID.String() + "/edit"

	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing income form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect(editURL, http.StatusSeeOther)

		return
	}

	input, message := parseIncomeForm(c.Request().Form, time.Now())
	if message != "" {
		SetErrorFlash(s, message)
		c.Redirect(editURL, http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	previous, err := db.GetIncome(ctx, user.ID, incomeID)
	if err != nil {
		logger.Error("Error fetching income", "error", err)
		setMutationErrorFlash(s, err, "Failed to update income")
		c.Redirect("/incomes", http.StatusSeeOther)

		return
	}

	if err := db.UpdateIncome(ctx, user.ID, incomeID, input); err != nil {
		logger.Error("Error updating income", "error", err)
		setMutationErrorFlash(s, err, "Failed to update income")
		c.Redirect(editURL, http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID,
		balanceChangedEvent(user.ID, previous.AccountID, finance.Reverse(finance.IncomeDelta(previous.Amount))),
		balanceChangedEvent(user.ID, input.AccountID, finance.IncomeDelta(input.Amount)),
	)

	SetSuccessFlash(s, "Income updated")
	c.Redirect("/incomes?month="+input.ReceivedAt.Format("2006-01"), http.StatusSeeOther)
}

// DeleteIncome removes income and debits its account.
func DeleteIncome(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	incomeID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid income ID")
		c.Redirect("/incomes", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	deleted, err := deleteIncomeDBFn(ctx, user.ID, incomeID)
	if err != nil {
		logger.Error("Error deleting income", "error", err)
		setMutationErrorFlash(s, err, "Failed to delete income")
		c.Redirect("/incomes", http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID,
		events.New(events.IncomeDeleted, user.ID, deleted.ID, nil),
		balanceChangedEvent(user.ID, deleted.AccountID, finance.Reverse(finance.IncomeDelta(deleted.Amount))),
	)

	SetSuccessFlash(s, "Income deleted")
	c.Redirect("/incomes?month="+deleted.ReceivedAt.Format("2006-01"), http.StatusSeeOther)
}

func parseIncomeForm(form url.Values, now time.Time) (db.IncomeInput, string) {
	accountID, err := uuid.Parse(strings.TrimSpace(form.Get("account_id")))
	if err != nil {
		return db.IncomeInput{}, "Account is required"
	}

	source := strings.TrimSpace(form.Get("source"))
	if source == "" {
		return db.IncomeInput{}, "Source is required"
	}

	category := strings.TrimSpace(form.Get("category"))
	if category == "" {
		category = "Other"
	}

	amount, err := finance.ParseAmount(form.Get("amount"))
	if err != nil {
		return db.IncomeInput{}, "Amount must be a number"
	}

	if !amount.IsPositive() {
		return db.IncomeInput{}, "Amount must be greater than zero"
	}

	receivedAt, err := parseFormDateOrToday(form.Get("received_at"), now)
	if err != nil {
		return db.IncomeInput{}, "Invalid income date"
	}

	return db.IncomeInput{
		AccountID:   accountID,
		Source:      source,
		Category:    category,
		Amount:      amount,
		Description: getOptionalString(form.Get("description")),
		ReceivedAt:  receivedAt,
	}, ""
}
