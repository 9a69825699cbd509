/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/cache"
	"github.com/humaidq/tally/db"
	"github.com/humaidq/tally/events"
	"github.com/humaidq/tally/finance"
)

var createTargetDBFn = db.CreateTarget

// TargetsList renders the month's budget targets with spending progress.
func TargetsList(c flamego.Context, user CurrentUser, t template.Template, data template.Data) {
	month, ok := selectedMonth(c, time.Now().UTC())
	if !ok {
		data["Error"] = "Invalid month, showing the current month"
	}

	ctx := c.Request().Context()

	targets, err := db.ListTargetsWithProgress(ctx, user.ID, month)
	if err != nil {
		logger.Error("Error fetching budget targets", "error", err)
		data["Error"] = "Failed to load budget targets"
		targets = []db.TargetWithProgress{}
	}

	categories, err := db.ListExpenseCategories(ctx, user.ID)
	if err != nil {
		logger.Error("Error fetching categories", "error", err)
		categories = []string{}
	}

	budgeted, spent := decimal.Zero, decimal.Zero
	for _, target := range targets {
		budgeted = budgeted.Add(target.Target)
		spent = spent.Add(target.Spent)
	}

	data["Targets"] = targets
	data["Overall"] = finance.ComputeTargetProgress(budgeted, spent)
	data["Categories"] = categories
	data["Month"] = newMonthNav(month)
	data["IsTargets"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Targets", URL: "/targets", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "targets")
}

// CreateTarget sets a spending limit for a category in a month.
func CreateTarget(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing target form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/targets", http.StatusSeeOther)

		return
	}

	form := c.Request().Form

	month, err := finance.ParseMonth(form.Get("month"), time.Now().UTC())
	if err != nil {
		SetErrorFlash(s, "Invalid month")
		c.Redirect("/targets", http.StatusSeeOther)

		return
	}

	listURL := "/targets?month=" + month.Format("2006-01")

	category := strings.TrimSpace(form.Get("category"))
	if category == "" {
		SetErrorFlash(s, "Category is required")
		c.Redirect(listURL, http.StatusSeeOther)

		return
	}

	amount, err := finance.ParseAmount(form.Get("amount"))
	if err != nil || !amount.IsPositive() {
		SetErrorFlash(s, "Target amount must be greater than zero")
		c.Redirect(listURL, http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	if _, err := createTargetDBFn(ctx, user.ID, category, month, amount); err != nil {
		logger.Error("Error creating budget target", "error", err)
		setMutationErrorFlash(s, err, "Failed to add target")
		c.Redirect(listURL, http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID)

	SetSuccessFlash(s, "Target added")
	c.Redirect(listURL, http.StatusSeeOther)
}

// UpdateTarget changes the amount of a target.
func UpdateTarget(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid target ID")
		c.Redirect("/targets", http.StatusSeeOther)

		return
	}

	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing target form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/targets", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	target, err := db.GetTarget(ctx, user.ID, targetID)
	if err != nil {
		logger.Error("Error fetching budget target", "error", err)
		setMutationErrorFlash(s, err, "Failed to update target")
		c.Redirect("/targets", http.StatusSeeOther)

		return
	}

	listURL := "/targets?month=" + target.PeriodStart.Format("2006-01")

	amount, err := finance.ParseAmount(c.Request().Form.Get("amount"))
	if err != nil || !amount.IsPositive() {
		SetErrorFlash(s, "Target amount must be greater than zero")
		c.Redirect(listURL, http.StatusSeeOther)

		return
	}

	if err := db.UpdateTargetAmount(ctx, user.ID, targetID, amount); err != nil {
		logger.Error("Error updating budget target", "error", err)
		setMutationErrorFlash(s, err, "Failed to update target")
		c.Redirect(listURL, http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID)

	SetSuccessFlash(s, "Target updated")
	c.Redirect(listURL, http.StatusSeeOther)
}

// DeleteTarget removes a target.
func DeleteTarget(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid target ID")
		c.Redirect("/targets", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	target, err := db.GetTarget(ctx, user.ID, targetID)
	if err != nil {
		logger.Error("Error fetching budget target", "error", err)
		setMutationErrorFlash(s, err, "Failed to delete target")
		c.Redirect("/targets", http.StatusSeeOther)

		return
	}

	listURL := "/targets?month=" + target.PeriodStart.Format("2006-01")

	if err := db.DeleteTarget(ctx, user.ID, targetID); err != nil {
		logger.Error("Error deleting budget target", "error", err)
		setMutationErrorFlash(s, err, "Failed to delete target")
		c.Redirect(listURL, http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID)

	SetSuccessFlash(s, "Target deleted")
	c.Redirect(listURL, http.StatusSeeOther)
}

// CopyTargets copies the previous month's targets into the selected month.
func CopyTargets(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing copy form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/targets", http.StatusSeeOther)

		return
	}

	month, err := finance.ParseMonth(c.Request().Form.Get("month"), time.Now().UTC())
	if err != nil {
		SetErrorFlash(s, "Invalid month")
		c.Redirect("/targets", http.StatusSeeOther)

		return
	}

	listURL := "/targets?month=" + month.Format("2006-01")
	ctx := c.Request().Context()

	copied, err := db.CopyTargets(ctx, user.ID, month.AddDate(0, -1, 0), month)
	if err != nil {
		logger.Error("Error copying budget targets", "error", err)
		SetErrorFlash(s, "Failed to copy targets")
		c.Redirect(listURL, http.StatusSeeOther)

		return
	}

	if copied == 0 {
		SetInfoFlash(s, "No targets to copy from the previous month")
		c.Redirect(listURL, http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID)

	SetSuccessFlash(s, fmt.Sprintf("Copied %d targets", copied))
	c.Redirect(listURL, http.StatusSeeOther)
}
