/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/finance"
)

// User represents an account holder that can sign in.
type User struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	DisplayName  string    `db:"display_name"`
	PasswordHash string    `db:"password_hash"`
	Currency     string    `db:"currency"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// AccountType represents the type of a bank or cash account.
type AccountType string

// AccountType values.
const (
	AccountTypeChecking  AccountType = "checking"
	AccountTypeSavings   AccountType = "savings"
	AccountTypeCash      AccountType = "cash"
	AccountTypeCredit    AccountType = "credit"
	AccountTypeBrokerage AccountType = "brokerage"
)

// AccountTypes lists the supported account types in display order.
var AccountTypes = []AccountType{
	AccountTypeChecking,
	AccountTypeSavings,
	AccountTypeCash,
	AccountTypeCredit,
	AccountTypeBrokerage,
}

// IsValidAccountType reports whether t is a supported account type.
func IsValidAccountType(t AccountType) bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}

	return false
}

// Account is a bank, cash, or brokerage account with a running balance.
type Account struct {
	ID          uuid.UUID       `db:"id"`
	UserID      uuid.UUID       `db:"user_id"`
	Name        string          `db:"name"`
	AccountType AccountType     `db:"account_type"`
	BankName    *string         `db:"bank_name"`
	Balance     decimal.Decimal `db:"balance"`
	Currency    string          `db:"currency"`
	Description *string         `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// Expense is money spent from an account.
type Expense struct {
	ID          uuid.UUID       `db:"id"`
	UserID      uuid.UUID       `db:"user_id"`
	AccountID   uuid.UUID       `db:"account_id"`
	AccountName string          `db:"account_name"`
	Category    string          `db:"category"`
	Amount      decimal.Decimal `db:"amount"`
	Description *string         `db:"description"`
	SpentAt     time.Time       `db:"spent_at"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Income is money received into an account.
type Income struct {
	ID          uuid.UUID       `db:"id"`
	UserID      uuid.UUID       `db:"user_id"`
	AccountID   uuid.UUID       `db:"account_id"`
	AccountName string          `db:"account_name"`
	Source      string          `db:"source"`
	Category    string          `db:"category"`
	Amount      decimal.Decimal `db:"amount"`
	Description *string         `db:"description"`
	ReceivedAt  time.Time       `db:"received_at"`
	CreatedAt   time.Time       `db:"created_at"`
}

// AssetType classifies an investment.
type AssetType string

// AssetType values.
const (
	AssetTypeStock     AssetType = "stock"
	AssetTypeFund      AssetType = "fund"
	AssetTypeBond      AssetType = "bond"
	AssetTypeCrypto    AssetType = "crypto"
	AssetTypeCommodity AssetType = "commodity"
	AssetTypeOther     AssetType = "other"
)

// AssetTypes lists the supported asset types in display order.
var AssetTypes = []AssetType{
	AssetTypeStock,
	AssetTypeFund,
	AssetTypeBond,
	AssetTypeCrypto,
	AssetTypeCommodity,
	AssetTypeOther,
}

// IsValidAssetType reports whether t is a supported asset type.
func IsValidAssetType(t AssetType) bool {
	for _, known := range AssetTypes {
		if t == known {
			return true
		}
	}

	return false
}

// Investment is a tracked holding funded from an account.
type Investment struct {
	ID           uuid.UUID       `db:"id"`
	UserID       uuid.UUID       `db:"user_id"`
	AccountID    uuid.UUID       `db:"account_id"`
	AccountName  string          `db:"account_name"`
	Symbol       string          `db:"symbol"`
	Name         string          `db:"name"`
	AssetType    AssetType       `db:"asset_type"`
	CurrentPrice decimal.Decimal `db:"current_price"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// InvestmentTrade is a buy or sell of an investment.
type InvestmentTrade struct {
	ID           uuid.UUID         `db:"id"`
	InvestmentID uuid.UUID         `db:"investment_id"`
	Side         finance.TradeSide `db:"side"`
	Quantity     decimal.Decimal   `db:"quantity"`
	Price        decimal.Decimal   `db:"price"`
	Fee          decimal.Decimal   `db:"fee"`
	TradedAt     time.Time         `db:"traded_at"`
	CreatedAt    time.Time         `db:"created_at"`
}

// Trade converts the row into the form used for position calculations.
func (t InvestmentTrade) Trade() finance.Trade {
	return finance.Trade{
		Side:     t.Side,
		Quantity: t.Quantity,
		Price:    t.Price,
		Fee:      t.Fee,
		TradedAt: t.TradedAt,
	}
}

// Debt is money borrowed (kind debt) or lent (kind loan).
type Debt struct {
	ID             uuid.UUID              `db:"id"`
	UserID         uuid.UUID              `db:"user_id"`
	AccountID      uuid.UUID              `db:"account_id"`
	AccountName    string                 `db:"account_name"`
	Kind           finance.DebtKind       `db:"kind"`
	Counterparty   string                 `db:"counterparty"`
	Principal      decimal.Decimal        `db:"principal"`
	InterestRate   decimal.Decimal        `db:"interest_rate"`
	InterestMethod finance.InterestMethod `db:"interest_method"`
	StartedAt      time.Time              `db:"started_at"`
	DueAt          *time.Time             `db:"due_at"`
	Note           *string                `db:"note"`
	CreatedAt      time.Time              `db:"created_at"`
	UpdatedAt      time.Time              `db:"updated_at"`
}

// Terms builds the calculator input from the debt and its repayments.
func (d Debt) Terms(repayments []DebtRepayment) finance.DebtTerms {
	terms := finance.DebtTerms{
		Principal:  d.Principal,
		AnnualRate: d.InterestRate,
		StartedAt:  d.StartedAt,
		DueAt:      d.DueAt,
		Method:     d.InterestMethod,
		Repayments: make([]finance.Repayment, 0, len(repayments)),
	}

	for _, r := range repayments {
		terms.Repayments = append(terms.Repayments, finance.Repayment{Amount: r.Amount, PaidAt: r.PaidAt})
	}

	return terms
}

// DebtRepayment is a payment made against a debt or received for a loan.
type DebtRepayment struct {
	ID        uuid.UUID       `db:"id"`
	DebtID    uuid.UUID       `db:"debt_id"`
	Amount    decimal.Decimal `db:"amount"`
	PaidAt    time.Time       `db:"paid_at"`
	Note      *string         `db:"note"`
	CreatedAt time.Time       `db:"created_at"`
}

// PasswordEntry is a stored credential. The secret is only held encrypted.
type PasswordEntry struct {
	ID         uuid.UUID `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	Title      string    `db:"title"`
	Username   *string   `db:"username"`
	URL        *string   `db:"url"`
	Ciphertext []byte    `db:"ciphertext"`
	Note       *string   `db:"note"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// BudgetTarget is a monthly spending limit for a category.
type BudgetTarget struct {
	ID          uuid.UUID       `db:"id"`
	UserID      uuid.UUID       `db:"user_id"`
	Category    string          `db:"category"`
	PeriodStart time.Time       `db:"period_start"`
	Amount      decimal.Decimal `db:"amount"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}
