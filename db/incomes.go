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

// IncomeInput represents the editable fields of an income.
type IncomeInput struct {
	AccountID   uuid.UUID
	Source      string
	Category    string
	Amount      decimal.Decimal
	Description *string
	ReceivedAt  time.Time
}

func (in IncomeInput) validate() error {
	if !in.Amount.IsPositive() {
		return ErrAmountMustBePositive
	}
	if strings.TrimSpace(in.Source) == "" {
		return ErrSourceRequired
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrCategoryRequired
	}
	if in.ReceivedAt.IsZero() {
		return ErrDateRequired
	}

	return nil
}

const incomeSelect = `
	SELECT i.id, i.user_id, i.account_id, a.name, i.source, i.category, i.amount, i.description, i.received_at, i.created_at
	FROM incomes i
	JOIN accounts a ON a.id = i.account_id`

func scanIncome(row pgx.Row) (*Income, error) {
	var income Income
	if err := row.Scan(
		&income.ID,
		&income.UserID,
		&income.AccountID,
		&income.AccountName,
		&income.Source,
		&income.Category,
		&income.Amount,
		&income.Description,
		&income.ReceivedAt,
		&income.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &income, nil
}

// ListIncomes returns incomes with received_at in [from, to), newest first.
func ListIncomes(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Income, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx,
		incomeSelect+`
		WHERE i.user_id = $1 AND i.received_at >= $2 AND i.received_at < $3
		ORDER BY i.received_at DESC, i.created_at DESC`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list incomes: %w", err)
	}
	defer rows.Close()

	var incomes []Income
	for rows.Next() {
		income, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan income: %w", err)
		}
		incomes = append(incomes, *income)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incomes: %w", err)
	}

	return incomes, nil
}

// GetIncome returns a single income owned by the user.
func GetIncome(ctx context.Context, userID, incomeID uuid.UUID) (*Income, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	income, err := scanIncome(pool.QueryRow(ctx,
		incomeSelect+` WHERE i.id = $1 AND i.user_id = $2`,
		incomeID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIncomeNotFound
		}
		return nil, fmt.Errorf("failed to get income: %w", err)
	}

	return income, nil
}

// CreateIncome records an income and credits its account in one transaction.
func CreateIncome(ctx context.Context, userID uuid.UUID, input IncomeInput) (uuid.UUID, error) {
	if err := input.validate(); err != nil {
		return uuid.Nil, err
	}

	amount := input.Amount.Round(2)

	var id uuid.UUID
	err := withTx(ctx, func(tx pgx.Tx) error {
		if err := applyAccountDelta(ctx, tx, userID, input.AccountID, finance.IncomeDelta(amount)); err != nil {
			return err
		}

		return tx.QueryRow(ctx, `
			INSERT INTO incomes (user_id, account_id, source, category, amount, description, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			userID,
			input.AccountID,
			strings.TrimSpace(input.Source),
			strings.TrimSpace(input.Category),
			amount,
			trimOptional(input.Description),
			input.ReceivedAt,
		).Scan(&id)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create income: %w", err)
	}

	return id, nil
}

// UpdateIncome replaces an income. The old amount is taken back from the old
// account and the new amount credited to the new one.
func UpdateIncome(ctx context.Context, userID, incomeID uuid.UUID, input IncomeInput) error {
	if err := input.validate(); err != nil {
		return err
	}

	amount := input.Amount.Round(2)

	err := withTx(ctx, func(tx pgx.Tx) error {
		var oldAccountID uuid.UUID
		var oldAmount decimal.Decimal

		err := tx.QueryRow(ctx,
			`SELECT account_id, amount FROM incomes WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			incomeID, userID,
		).Scan(&oldAccountID, &oldAmount)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrIncomeNotFound
			}
			return err
		}

		if err := applyAccountDelta(ctx, tx, userID, oldAccountID, finance.Reverse(finance.IncomeDelta(oldAmount))); err != nil {
			return err
		}
		if err := applyAccountDelta(ctx, tx, userID, input.AccountID, finance.IncomeDelta(amount)); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE incomes
			SET account_id = $1, source = $2, category = $3, amount = $4, description = $5, received_at = $6
			WHERE id = $7 AND user_id = $8`,
			input.AccountID,
			strings.TrimSpace(input.Source),
			strings.TrimSpace(input.Category),
			amount,
			trimOptional(input.Description),
			input.ReceivedAt,
			incomeID,
			userID,
		)

		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update income: %w", err)
	}

	return nil
}

// DeleteIncome removes an income, debits its account, and returns the
// deleted row.
func DeleteIncome(ctx context.Context, userID, incomeID uuid.UUID) (*Income, error) {
	var deleted Income

	err := withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			DELETE FROM incomes WHERE id = $1 AND user_id = $2
			RETURNING id, user_id, account_id, source, category, amount, description, received_at, created_at`,
			incomeID, userID,
		).Scan(
			&deleted.ID,
			&deleted.UserID,
			&deleted.AccountID,
			&deleted.Source,
			&deleted.Category,
			&deleted.Amount,
			&deleted.Description,
			&deleted.ReceivedAt,
			&deleted.CreatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrIncomeNotFound
			}
			return err
		}

		return applyAccountDelta(ctx, tx, userID, deleted.AccountID, finance.Reverse(finance.IncomeDelta(deleted.Amount)))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete income: %w", err)
	}

	return &deleted, nil
}

// ListIncomeCategories returns the distinct categories the user has received income under.
func ListIncomeCategories(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx,
		`SELECT DISTINCT category FROM incomes WHERE user_id = $1 ORDER BY category ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list income categories: %w", err)
	}

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect income categories: %w", err)
	}

	return categories, nil
}
