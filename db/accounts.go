/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/finance"
)

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name           string
	AccountType    AccountType
	BankName       *string
	OpeningBalance decimal.Decimal
	Currency       string
	Description    *string
}

// UpdateAccountInput represents input for updating an account. The balance is
// only ever changed through the records that affect it.
type UpdateAccountInput struct {
	ID          uuid.UUID
	Name        string
	AccountType AccountType
	BankName    *string
	Currency    string
	Description *string
}

const accountColumns = `id, user_id, name, account_type, bank_name, balance, currency, description, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var account Account
	if err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Name,
		&account.AccountType,
		&account.BankName,
		&account.Balance,
		&account.Currency,
		&account.Description,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &account, nil
}

func normalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return finance.DefaultCurrency
	}

	return currency
}

func validateAccount(name string, accountType AccountType) error {
	if strings.TrimSpace(name) == "" {
		return ErrAccountNameRequired
	}
	if !IsValidAccountType(accountType) {
		return ErrInvalidAccountType
	}

	return nil
}

// ListAccounts returns the user's accounts ordered by name.
func ListAccounts(ctx context.Context, userID uuid.UUID) ([]Account, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// GetAccount returns a single account owned by the user.
func GetAccount(ctx context.Context, userID, accountID uuid.UUID) (*Account, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	account, err := scanAccount(pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2`,
		accountID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// CreateAccount creates an account starting at its opening balance.
func CreateAccount(ctx context.Context, userID uuid.UUID, input CreateAccountInput) (uuid.UUID, error) {
	if pool == nil {
		return uuid.Nil, ErrDatabaseConnectionNotInitialized
	}

	if err := validateAccount(input.Name, input.AccountType); err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err := pool.QueryRow(ctx, `
		INSERT INTO accounts (user_id, name, account_type, bank_name, balance, currency, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		userID,
		strings.TrimSpace(input.Name),
		input.AccountType,
		trimOptional(input.BankName),
		input.OpeningBalance.Round(2),
		normalizeCurrency(input.Currency),
		trimOptional(input.Description),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create account: %w", err)
	}

	return id, nil
}

// UpdateAccount updates account details.
func UpdateAccount(ctx context.Context, userID uuid.UUID, input UpdateAccountInput) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if err := validateAccount(input.Name, input.AccountType); err != nil {
		return err
	}

	tag, err := pool.Exec(ctx, `
		UPDATE accounts
		SET name = $1, account_type = $2, bank_name = $3, currency = $4, description = $5
		WHERE id = $6 AND user_id = $7`,
		strings.TrimSpace(input.Name),
		input.AccountType,
		trimOptional(input.BankName),
		normalizeCurrency(input.Currency),
		trimOptional(input.Description),
		input.ID,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// DeleteAccount removes an account and every record attached to it.
func DeleteAccount(ctx context.Context, userID, accountID uuid.UUID) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	tag, err := pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// TotalBalance sums the balances of the given accounts.
func TotalBalance(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for _, account := range accounts {
		total = total.Add(account.Balance)
	}

	return total
}
