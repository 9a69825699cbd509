/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/cache"
	"github.com/humaidq/tally/db"
	"github.com/humaidq/tally/events"
	"github.com/humaidq/tally/finance"
)

const formDateLayout = "2006-01-02"

// BreadcrumbItem represents a single breadcrumb entry.
type BreadcrumbItem struct {
	Name      string
	URL       string
	IsCurrent bool
}

type selectOption struct {
	Value string
	Label string
}

func getOptionalString(val string) *string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}

// parseFormDate parses a YYYY-MM-DD form value as a UTC calendar date.
func parseFormDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, errMissingDate
	}

	parsed, err := time.ParseInLocation(formDateLayout, trimmed, time.UTC)
	if err != nil {
		return time.Time{}, errInvalidDate
	}

	return parsed, nil
}

// parseFormDateOrToday falls back to today when the field is left blank.
func parseFormDateOrToday(value string, now time.Time) (time.Time, error) {
	parsed, err := parseFormDate(value)
	if errors.Is(err, errMissingDate) {
		return today(now), nil
	}

	return parsed, err
}

func parseOptionalFormDate(value string) (*time.Time, error) {
	parsed, err := parseFormDate(value)
	if errors.Is(err, errMissingDate) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &parsed, nil
}

func today(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// parseOptionalAmount parses a money value where blank means zero.
func parseOptionalAmount(value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}

	return finance.ParseAmount(value)
}

func parseIDParam(c flamego.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

// selectedMonth reads ?month=YYYY-MM, defaulting to the current month.
func selectedMonth(c flamego.Context, now time.Time) (time.Time, bool) {
	month, err := finance.ParseMonth(c.Query("month"), now)
	if err != nil {
		return finance.MonthStart(now), false
	}

	return month, true
}

type monthNav struct {
	Current  time.Time
	Label    string
	Value    string
	Previous string
	Next     string
}

func newMonthNav(month time.Time) monthNav {
	return monthNav{
		Current:  month,
		Label:    month.Format("January 2006"),
		Value:    month.Format("2006-01"),
		Previous: month.AddDate(0, -1, 0).Format("2006-01"),
		Next:     month.AddDate(0, 1, 0).Format("2006-01"),
	}
}

func isAddAnother(c flamego.Context) bool {
	return strings.TrimSpace(c.Request().Form.Get("action")) == "add_another"
}

// recordMutation invalidates the user's cached aggregates and publishes the
// given events. Neither step can fail the request.
func recordMutation(ctx context.Context, store cache.Cache, pub events.Publisher, userID uuid.UUID, evts ...events.Event) {
	if store != nil {
		if err := store.DeletePrefix(ctx, cache.UserPrefix(userID.String())); err != nil {
			logger.Warn("Failed to invalidate cache", "user_id", userID, "error", err)
		}
	}

	for _, event := range evts {
		events.PublishQuietly(ctx, pub, event)
	}
}

func balanceChangedEvent(userID, accountID uuid.UUID, delta decimal.Decimal) events.Event {
	return events.New(events.AccountBalanceChanged, userID, accountID, map[string]string{
		"delta": delta.StringFixed(2),
	})
}

func setMutationErrorFlash(s session.Session, err error, fallback string) {
	if message, ok := mutationErrorMessage(err); ok {
		SetErrorFlash(s, message)

		return
	}

	SetErrorFlash(s, fallback)
}

func mutationErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, db.ErrUsernameRequired):
		return "Username is required", true
	case errors.Is(err, db.ErrUsernameTaken):
		return "Username is already taken", true
	case errors.Is(err, db.ErrDisplayNameRequired):
		return "Display name is required", true
	case errors.Is(err, db.ErrPasswordTooShort):
		return "Password is too short", true
	case errors.Is(err, db.ErrAmountMustBePositive):
		return "Amount must be greater than zero", true
	case errors.Is(err, db.ErrCategoryRequired):
		return "Category is required", true
	case errors.Is(err, db.ErrDateRequired):
		return "Date is required", true
	case errors.Is(err, db.ErrAccountNotFound):
		return "Account not found", true
	case errors.Is(err, db.ErrAccountNameRequired):
		return "Account name is required", true
	case errors.Is(err, db.ErrInvalidAccountType):
		return "Invalid account type", true
	case errors.Is(err, db.ErrExpenseNotFound):
		return "Expense not found", true
	case errors.Is(err, db.ErrIncomeNotFound):
		return "Income not found", true
	case errors.Is(err, db.ErrSourceRequired):
		return "Source is required", true
	case errors.Is(err, db.ErrInvestmentNotFound):
		return "Investment not found", true
	case errors.Is(err, db.ErrTradeNotFound):
		return "Trade not found", true
	case errors.Is(err, db.ErrSymbolRequired):
		return "Symbol is required", true
	case errors.Is(err, db.ErrInvalidAssetType):
		return "Invalid asset type", true
	case errors.Is(err, db.ErrInvalidTradeSide), errors.Is(err, finance.ErrUnknownTradeSide):
		return "Trade side must be buy or sell", true
	case errors.Is(err, db.ErrPriceMustNotBeNegative):
		return "Price cannot be negative", true
	case errors.Is(err, db.ErrFeeMustNotBeNegative):
		return "Fee cannot be negative", true
	case errors.Is(err, finance.ErrInsufficientQuantity):
		return "Cannot sell more than the quantity held", true
	case errors.Is(err, db.ErrDebtNotFound):
		return "Debt not found", true
	case errors.Is(err, db.ErrRepaymentNotFound):
		return "Repayment not found", true
	case errors.Is(err, db.ErrCounterpartyRequired):
		return "Counterparty is required", true
	case errors.Is(err, db.ErrInvalidDebtKind):
		return "Kind must be debt or loan", true
	case errors.Is(err, db.ErrInvalidInterestMethod):
		return "Invalid interest method", true
	case errors.Is(err, db.ErrRateMustNotBeNegative):
		return "Interest rate cannot be negative", true
	case errors.Is(err, db.ErrDueBeforeStart):
		return "Due date must not be before the start date", true
	case errors.Is(err, db.ErrPasswordEntryNotFound):
		return "Password entry not found", true
	case errors.Is(err, db.ErrTitleRequired):
		return "Title is required", true
	case errors.Is(err, db.ErrTargetNotFound):
		return "Target not found", true
	case errors.Is(err, db.ErrTargetExists):
		return "A target for this category and month already exists", true
	case errors.Is(err, errVaultUnavailable):
		return "Password vault is not configured", true
	default:
		return "", false
	}
}
