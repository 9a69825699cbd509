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
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/finance"
)

// ExpenseInput represents the editable fields of an expense.
type ExpenseInput struct {
	AccountID   uuid.UUID
	Category    string
	Amount      decimal.Decimal
	Description *string
	SpentAt     time.Time
}

func (in ExpenseInput) validate() error {
	if !in.Amount.IsPositive() {
		return ErrAmountMustBePositive
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrCategoryRequired
	}
	if in.SpentAt.IsZero() {
		return ErrDateRequired
	}

	return nil
}

const expenseSelect = `
	SELECT e.id, e.user_id, e.account_id, a.name, e.category, e.amount, e.description, e.spent_at, e.created_at
	FROM expenses e
	JOIN accounts a ON a.id = e.account_id`

func scanExpense(row pgx.Row) (*Expense, error) {
	var expense Expense
	if err := row.Scan(
		&expense.ID,
		&expense.UserID,
		&expense.AccountID,
		&expense.AccountName,
		&expense.Category,
		&expense.Amount,
		&expense.Description,
		&expense.SpentAt,
		&expense.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &expense, nil
}

// ListExpenses returns expenses with spent_at in [from, to), newest first.
func ListExpenses(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Expense, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx,
		expenseSelect+`
		WHERE e.user_id = $1 AND e.spent_at >= $2 AND e.spent_at < $3
		ORDER BY e.spent_at DESC, e.created_at DESC`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *expense)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}

	return expenses, nil
}

// GetExpense returns a single expense owned by the user.
func GetExpense(ctx context.Context, userID, expenseID uuid.UUID) (*Expense, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	expense, err := scanExpense(pool.QueryRow(ctx,
		expenseSelect+` WHERE e.id = $1 AND e.user_id = $2`,
		expenseID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// CreateExpense records an expense and debits its account in one transaction.
func CreateExpense(ctx context.Context, userID uuid.UUID, input ExpenseInput) (uuid.UUID, error) {
	if err := input.validate(); err != nil {
		return uuid.Nil, err
	}

	amount := input.Amount.Round(2)

	var id uuid.UUID
	err := withTx(ctx, func(tx pgx.Tx) error {
		if err := applyAccountDelta(ctx, tx, userID, input.AccountID, finance.ExpenseDelta(amount)); err != nil {
			return err
		}

		return tx.QueryRow(ctx, `
			INSERT INTO expenses (user_id, account_id, category, amount, description, spent_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			userID,
			input.AccountID,
			strings.TrimSpace(input.Category),
			amount,
			trimOptional(input.Description),
			input.SpentAt,
		).Scan(&id)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create expense: %w", err)
	}

	return id, nil
}

// UpdateExpense replaces an expense. The old amount is credited back to the old
// account and the new amount debited from the new one.
func UpdateExpense(ctx context.Context, userID, expenseID uuid.UUID, input ExpenseInput) error {
	if err := input.validate(); err != nil {
		return err
	}

	amount := input.Amount.Round(2)

	err := withTx(ctx, func(tx pgx.Tx) error {
		var oldAccountID uuid.UUID
		var oldAmount decimal.Decimal

		err := tx.QueryRow(ctx,
			`SELECT account_id, amount FROM expenses WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			expenseID, userID,
		).Scan(&oldAccountID, &oldAmount)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrExpenseNotFound
			}
			return err
		}

		if err := applyAccountDelta(ctx, tx, userID, oldAccountID, finance.Reverse(finance.ExpenseDelta(oldAmount))); err != nil {
			return err
		}
		if err := applyAccountDelta(ctx, tx, userID, input.AccountID, finance.ExpenseDelta(amount)); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE expenses
			SET account_id = $1, category = $2, amount = $3, description = $4, spent_at = $5
			WHERE id = $6 AND user_id = $7`,
			input.AccountID,
			strings.TrimSpace(input.Category),
			amount,
			trimOptional(input.Description),
			input.SpentAt,
			expenseID,
			userID,
		)

		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	return nil
}

// DeleteExpense removes an expense, credits its account, and returns the
// deleted row.
func DeleteExpense(ctx context.Context, userID, expenseID uuid.UUID) (*Expense, error) {
	var deleted Expense

	err := withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			DELETE FROM expenses WHERE id = $1 AND user_id = $2
			RETURNING id, user_id, account_id, category, amount, description, spent_at, created_at`,
			expenseID, userID,
		).Scan(
			&deleted.ID,
			&deleted.UserID,
			&deleted.AccountID,
			&deleted.Category,
			&deleted.Amount,
			&deleted.Description,
			&deleted.SpentAt,
			&deleted.CreatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrExpenseNotFound
			}
			return err
		}

		return applyAccountDelta(ctx, tx, userID, deleted.AccountID, finance.Reverse(finance.ExpenseDelta(deleted.Amount)))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete expense: %w", err)
	}

	return &deleted, nil
}

// ListExpenseCategories returns the distinct categories the user has spent in.
func ListExpenseCategories(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx,
		`SELECT DISTINCT category FROM expenses WHERE user_id = $1 ORDER BY category ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense categories: %w", err)
	}

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect expense categories: %w", err)
	}

	return categories, nil
}
