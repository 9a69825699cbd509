/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "errors"

// Connection errors.
var (
	ErrDatabaseURLNotSet                = errors.New("database URL is not set")
	ErrDatabaseNameNotSpecified         = errors.New("database name not specified in URL")
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")
)

// User errors.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUsernameRequired     = errors.New("username is required")
	ErrUsernameTaken        = errors.New("username is already taken")
	ErrDisplayNameRequired  = errors.New("display name is required")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrRegistrationDisabled = errors.New("registration is disabled")
)

// Shared validation errors.
var (
	ErrAmountMustBePositive = errors.New("amount must be greater than zero")
	ErrCategoryRequired     = errors.New("category is required")
	ErrDateRequired         = errors.New("date is required")
)

// Account errors.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountNameRequired = errors.New("account name is required")
	ErrInvalidAccountType  = errors.New("invalid account type")
)

// Cash flow errors.
var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrIncomeNotFound  = errors.New("income not found")
	ErrSourceRequired  = errors.New("income source is required")
)

// Investment errors.
var (
	ErrInvestmentNotFound     = errors.New("investment not found")
	ErrTradeNotFound          = errors.New("trade not found")
	ErrSymbolRequired         = errors.New("symbol is required")
	ErrInvalidAssetType       = errors.New("invalid asset type")
	ErrInvalidTradeSide       = errors.New("invalid trade side")
	ErrPriceMustNotBeNegative = errors.New("price must not be negative")
	ErrFeeMustNotBeNegative   = errors.New("fee must not be negative")
)

// Debt errors.
var (
	ErrDebtNotFound          = errors.New("debt not found")
	ErrRepaymentNotFound     = errors.New("repayment not found")
	ErrCounterpartyRequired  = errors.New("counterparty is required")
	ErrInvalidDebtKind       = errors.New("invalid debt kind")
	ErrInvalidInterestMethod = errors.New("invalid interest method")
	ErrRateMustNotBeNegative = errors.New("interest rate must not be negative")
	ErrDueBeforeStart        = errors.New("due date is before start date")
)

// Vault and target errors.
var (
	ErrPasswordEntryNotFound = errors.New("password entry not found")
	ErrTitleRequired         = errors.New("title is required")
	ErrTargetNotFound        = errors.New("budget target not found")
	ErrTargetExists          = errors.New("a target for this category and month already exists")
)
