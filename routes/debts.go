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
	"github.com/google/uuid"

	"github.com/humaidq/tally/cache"
	"github.com/humaidq/tally/db"
	"github.com/humaidq/tally/events"
	"github.com/humaidq/tally/finance"
)

const maxDebtChartPoints = 60

var (
	getDebtDBFn         = db.GetDebt
	createDebtDBFn      = db.CreateDebt
	createRepaymentDBFn = db.CreateRepayment
	deleteRepaymentDBFn = db.DeleteRepayment
)

// DebtsList renders debts owed by the user and loans owed to the user.
func DebtsList(c flamego.Context, user CurrentUser, t template.Template, data template.Data) {
	debts, err := db.ListDebts(c.Request().Context(), user.ID, time.Now().UTC())
	if err != nil {
		logger.Error("Error fetching debts", "error", err)
		data["Error"] = "Failed to load debts"
		debts = []db.DebtWithBalance{}
	}

	var borrowed, lent []db.DebtWithBalance

	for _, debt := range debts {
		switch debt.Kind {
		case finance.DebtLent:
			lent = append(lent, debt)
		default:
			borrowed = append(borrowed, debt)
		}
	}

	totals := db.SumOutstanding(debts)

	data["Borrowed"] = borrowed
	data["Lent"] = lent
	data["OwedByUser"] = totals.OwedByUser
	data["OwedToUser"] = totals.OwedToUser
	data["IsDebts"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Debts & Loans", URL: "/debts", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "debts")
}

// DebtNewForm renders the add debt or loan page.
func DebtNewForm(c flamego.Context, s session.Session, user CurrentUser, t template.Template, data template.Data) {
	accounts, err := db.ListAccounts(c.Request().Context(), user.ID)
	if err != nil {
		logger.Error("Error fetching accounts", "error", err)
		data["Error"] = "Failed to load accounts"
	} else if len(accounts) == 0 {
		SetInfoFlash(s, "Create an account first")
		c.Redirect("/accounts/new", http.StatusSeeOther)

		return
	}

	kind := finance.DebtKind(strings.TrimSpace(c.Query("kind")))
	if !finance.IsValidDebtKind(kind) {
		kind = finance.DebtBorrowed
	}

	data["Accounts"] = accounts
	data["Kind"] = string(kind)
	data["KindOptions"] = debtKindOptions()
	data["MethodOptions"] = interestMethodOptions()
	data["Today"] = today(time.Now()).Format(formDateLayout)
	data["IsDebts"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Debts & Loans", URL: "/debts"},
		{Name: "New", URL: "/debts/new", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "debt_new")
}

// CreateDebt records a debt or loan and moves the principal on its account.
func CreateDebt(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing debt form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/debts/new", http.StatusSeeOther)

		return
	}

	form := c.Request().Form

	kind := finance.DebtKind(strings.TrimSpace(form.Get("kind")))
	if !finance.IsValidDebtKind(kind) {
		SetErrorFlash(s, "Kind must be debt or loan")
		c.Redirect("/debts/new", http.StatusSeeOther)

		return
	}

	newURL := "/debts/new?kind=" + string(kind)

	accountID, err := uuid.Parse(strings.TrimSpace(form.Get("account_id")))
	if err != nil {
		SetErrorFlash(s, "Account is required")
		c.Redirect(newURL, http.StatusSeeOther)

		return
	}

	counterparty := strings.TrimSpace(form.Get("counterparty"))
	if counterparty == "" {
		SetErrorFlash(s, "Counterparty is required")
		c.Redirect(newURL, http.StatusSeeOther)

		return
	}

	principal, err := finance.ParseAmount(form.Get("principal"))
	if err != nil || !principal.IsPositive() {
		SetErrorFlash(s, "Principal must be greater than zero")
		c.Redirect(newURL, http.StatusSeeOther)

		return
	}

	rate, err := parseOptionalAmount(strings.TrimSuffix(strings.TrimSpace(form.Get("interest_rate")), "%"))
	if err != nil || rate.IsNegative() {
		SetErrorFlash(s, "Interest rate must be zero or more")
		c.Redirect(newURL, http.StatusSeeOther)

		return
	}

	method := finance.InterestMethod(strings.TrimSpace(form.Get("interest_method")))
	if method == "" {
		method = finance.InterestDeclining
	} else if !finance.IsValidInterestMethod(method) {
		SetErrorFlash(s, "Invalid interest method")
		c.Redirect(newURL, http.StatusSeeOther)

		return
	}

	startedAt, err := parseFormDateOrToday(form.Get("started_at"), time.Now())
	if err != nil {
		SetErrorFlash(s, "Invalid start date")
		c.Redirect(newURL, http.StatusSeeOther)

		return
	}

	dueAt, err := parseOptionalFormDate(form.Get("due_at"))
	if err != nil {
		SetErrorFlash(s, "Invalid due date")
		c.Redirect(newURL, http.StatusSeeOther)

		return
	}

	if dueAt != nil && dueAt.Before(startedAt) {
		SetErrorFlash(s, "Due date must not be before the start date")
		c.Redirect(newURL, http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	debtID, err := createDebtDBFn(ctx, user.ID, db.CreateDebtInput{
		AccountID:      accountID,
		Kind:           kind,
		Counterparty:   counterparty,
		Principal:      principal,
		InterestRate:   rate,
		InterestMethod: method,
		StartedAt:      startedAt,
		DueAt:          dueAt,
		Note:           getOptionalString(form.Get("note")),
	})
	if err != nil {
		logger.Error("Error creating debt", "error", err)
		setMutationErrorFlash(s, err, "Failed to add "+debtKindNoun(kind))
		c.Redirect(newURL, http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID,
		events.New(events.DebtCreated, user.ID, debtID, map[string]string{
			"kind":      string(kind),
			"principal": principal.StringFixed(2),
			"rate":      rate.String(),
		}),
		balanceChangedEvent(user.ID, accountID, finance.DebtOpeningDelta(kind, principal)),
	)

	SetSuccessFlash(s, titleCase(debtKindNoun(kind))+" added")
	c.Redirect("/debts/"+debtID.String(), http.StatusSeeOther)
}

// DebtView renders a debt with the remaining balance calculation, its
// repayments and the balance history. ?as_of=YYYY-MM-DD evaluates the balance
// on another date.
func DebtView(c flamego.Context, s session.Session, user CurrentUser, t template.Template, data template.Data) {
	debtID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid debt ID")
		c.Redirect("/debts", http.StatusSeeOther)

		return
	}

	now := time.Now().UTC()

	debt, err := getDebtDBFn(c.Request().Context(), user.ID, debtID, now)
	if err != nil {
		logger.Error("Error fetching debt", "error", err)
		setMutationErrorFlash(s, err, "Failed to load debt")
		c.Redirect("/debts", http.StatusSeeOther)

		return
	}

	terms := debt.Terms(debt.Repayments)
	balance := debt.Balance

	if raw := strings.TrimSpace(c.Query("as_of")); raw != "" {
		asOf, err := parseFormDate(raw)
		if err != nil {
			data["Error"] = "Invalid evaluation date"
		} else {
			balance = finance.BalanceSeries(terms, []time.Time{asOf})[0]
			data["AsOf"] = asOf.Format(formDateLayout)
		}
	}

	chart, err := renderDebtBalanceLine(chartID("debt_balance", debt.ID.String()), user.Currency,
		finance.BalanceSeries(terms, debtChartPoints(debt.StartedAt, debt.Balance.AsOf)))
	if err != nil {
		logger.Error("Error rendering debt chart", "error", err)
	}

	data["Debt"] = debt
	data["Balance"] = balance
	data["BalanceChart"] = chart
	data["KindNoun"] = debtKindNoun(debt.Kind)
	data["Today"] = today(now).Format(formDateLayout)
	data["IsDebts"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Debts & Loans", URL: "/debts"},
		{Name: debt.Counterparty, URL: "/debts/" + debt.ID.String(), IsCurrent: true},
	}

	t.HTML(http.StatusOK, "debt_view")
}

// CreateRepayment records a repayment against a debt or loan.
func CreateRepayment(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	debtID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid debt ID")
		c.Redirect("/debts", http.StatusSeeOther)

		return
	}

	viewURL := "/debts/" + debtID.String()

	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing repayment form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	form := c.Request().Form

	amount, err := finance.ParseAmount(form.Get("amount"))
	if err != nil || !amount.IsPositive() {
		SetErrorFlash(s, "Repayment amount must be greater than zero")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	paidAt, err := parseFormDateOrToday(form.Get("paid_at"), time.Now())
	if err != nil {
		SetErrorFlash(s, "Invalid repayment date")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	debt, err := getDebtDBFn(ctx, user.ID, debtID, time.Now().UTC())
	if err != nil {
		logger.Error("Error fetching debt", "error", err)
		setMutationErrorFlash(s, err, "Failed to record repayment")
		c.Redirect("/debts", http.StatusSeeOther)

		return
	}

	if paidAt.Before(debt.StartedAt) {
		SetErrorFlash(s, "Repayment date must not be before the start date")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	repayment, err := createRepaymentDBFn(ctx, user.ID, debtID, db.RepaymentInput{
		Amount: amount,
		PaidAt: paidAt,
		Note:   getOptionalString(form.Get("note")),
	})
	if err != nil {
		logger.Error("Error creating repayment", "error", err)
		setMutationErrorFlash(s, err, "Failed to record repayment")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID,
		events.New(events.RepaymentCreated, user.ID, repayment.ID, map[string]string{
			"debt_id": debtID.String(),
			"amount":  repayment.Amount.StringFixed(2),
		}),
		balanceChangedEvent(user.ID, debt.AccountID, finance.RepaymentDelta(debt.Kind, repayment.Amount)),
	)

	after := finance.CalculateBalance(debt.Terms(append(debt.Repayments, *repayment)), time.Now().UTC())
	if after.Overpaid() {
		SetWarningFlash(s, "Repayment recorded; repayments now exceed the amount owed")
	} else {
		SetSuccessFlash(s, "Repayment recorded")
	}

	c.Redirect(viewURL, http.StatusSeeOther)
}

// DeleteRepayment removes a repayment and reverses its cash effect.
func DeleteRepayment(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	debtID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid debt ID")
		c.Redirect("/debts", http.StatusSeeOther)

		return
	}

	viewURL := "/debts/" + debtID.String()

	repaymentID, ok := parseIDParam(c, "repayment_id")
	if !ok {
		SetErrorFlash(s, "Invalid repayment ID")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	debt, err := getDebtDBFn(ctx, user.ID, debtID, time.Now().UTC())
	if err != nil {
		logger.Error("Error fetching debt", "error", err)
		setMutationErrorFlash(s, err, "Failed to delete repayment")
		c.Redirect("/debts", http.StatusSeeOther)

		return
	}

	deleted, err := deleteRepaymentDBFn(ctx, user.ID, debtID, repaymentID)
	if err != nil {
		logger.Error("Error deleting repayment", "error", err)
		setMutationErrorFlash(s, err, "Failed to delete repayment")
		c.Redirect(viewURL, http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID,
		events.New(events.RepaymentDeleted, user.ID, deleted.ID, map[string]string{
			"debt_id": debtID.String(),
		}),
		balanceChangedEvent(user.ID, debt.AccountID, finance.Reverse(finance.RepaymentDelta(debt.Kind, deleted.Amount))),
	)

	SetSuccessFlash(s, "Repayment deleted")
	c.Redirect(viewURL, http.StatusSeeOther)
}

// DeleteDebt removes a debt or loan and reverses every cash effect it had.
func DeleteDebt(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	debtID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid debt ID")
		c.Redirect("/debts", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	deleted, err := db.DeleteDebt(ctx, user.ID, debtID)
	if err != nil {
		logger.Error("Error deleting debt", "error", err)
		setMutationErrorFlash(s, err, "Failed to delete debt")
		c.Redirect("/debts/"+debtID.String(), http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID,
		events.New(events.DebtDeleted, user.ID, deleted.ID, map[string]string{
			"kind": string(deleted.Kind),
		}),
	)

	SetSuccessFlash(s, titleCase(debtKindNoun(deleted.Kind))+" deleted")
	c.Redirect("/debts", http.StatusSeeOther)
}

// debtChartPoints returns month starts after start up to end, plus start and
// end themselves, thinned to at most maxDebtChartPoints.
func debtChartPoints(start, end time.Time) []time.Time {
	if end.Before(start) {
		end = start
	}

	points := []time.Time{start}
	for month := finance.MonthStart(start).AddDate(0, 1, 0); month.Before(end); month = month.AddDate(0, 1, 0) {
		points = append(points, month)
	}

	if end.After(start) {
		points = append(points, end)
	}

	if len(points) <= maxDebtChartPoints {
		return points
	}

	step := (len(points) + maxDebtChartPoints - 1) / maxDebtChartPoints
	thinned := make([]time.Time, 0, maxDebtChartPoints+1)

	for i := 0; i < len(points)-1; i += step {
		thinned = append(thinned, points[i])
	}

	return append(thinned, points[len(points)-1])
}

func debtKindNoun(kind finance.DebtKind) string {
	if kind == finance.DebtLent {
		return "loan"
	}

	return "debt"
}

func debtKindOptions() []selectOption {
	return []selectOption{
		{Value: string(finance.DebtBorrowed), Label: "Debt (I borrowed)"},
		{Value: string(finance.DebtLent), Label: "Loan (I lent)"},
	}
}

func interestMethodOptions() []selectOption {
	return []selectOption{
		{Value: string(finance.InterestDeclining), Label: "Declining balance"},
		{Value: string(finance.InterestFlat), Label: "Flat (original principal)"},
	}
}
