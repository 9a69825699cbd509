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

// TargetWithProgress is a budget target with the month's spending against it.
type TargetWithProgress struct {
	BudgetTarget
	finance.TargetProgress
}

const targetColumns = `id, user_id, category, period_start, amount, created_at, updated_at`

func scanTarget(row pgx.Row) (*BudgetTarget, error) {
	var target BudgetTarget
	if err := row.Scan(
		&target.ID,
		&target.UserID,
		&target.Category,
		&target.PeriodStart,
		&target.Amount,
		&target.CreatedAt,
		&target.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &target, nil
}

// ListTargetsWithProgress returns targets for the month starting at
// periodStart, each with the amount spent in its category that month.
func ListTargetsWithProgress(ctx context.Context, userID uuid.UUID, periodStart time.Time) ([]TargetWithProgress, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	periodStart = finance.MonthStart(periodStart)
	periodEnd := periodStart.AddDate(0, 1, 0)

	rows, err := pool.Query(ctx, `
		SELECT t.id, t.user_id, t.category, t.period_start, t.amount, t.created_at, t.updated_at,
			COALESCE((
				SELECT SUM(e.amount) FROM expenses e
				WHERE e.user_id = t.user_id
					AND lower(e.category) = lower(t.category)
					AND e.spent_at >= $2 AND e.spent_at < $3
			), 0) AS spent
		FROM budget_targets t
		WHERE t.user_id = $1 AND t.period_start = $2
		ORDER BY t.category ASC`,
		userID, periodStart, periodEnd,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget targets: %w", err)
	}
	defer rows.Close()

	var targets []TargetWithProgress
	for rows.Next() {
		var target BudgetTarget
		var spent decimal.Decimal

		if err := rows.Scan(
			&target.ID,
			&target.UserID,
			&target.Category,
			&target.PeriodStart,
			&target.Amount,
			&target.CreatedAt,
			&target.UpdatedAt,
			&spent,
		); err != nil {
			return nil, fmt.Errorf("failed to scan budget target: %w", err)
		}

		targets = append(targets, TargetWithProgress{
			BudgetTarget:   target,
			TargetProgress: finance.ComputeTargetProgress(target.Amount, spent),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget targets: %w", err)
	}

	return targets, nil
}

// GetTarget returns a single target owned by the user.
func GetTarget(ctx context.Context, userID, targetID uuid.UUID) (*BudgetTarget, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	target, err := scanTarget(pool.QueryRow(ctx,
		`SELECT `+targetColumns+` FROM budget_targets WHERE id = $1 AND user_id = $2`,
		targetID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("failed to get budget target: %w", err)
	}

	return target, nil
}

// CreateTarget sets a spending limit for a category in a month.
func CreateTarget(ctx context.Context, userID uuid.UUID, category string, periodStart time.Time, amount decimal.Decimal) (uuid.UUID, error) {
	if pool == nil {
		return uuid.Nil, ErrDatabaseConnectionNotInitialized
	}

	category = strings.TrimSpace(category)
	if category == "" {
		return uuid.Nil, ErrCategoryRequired
	}
	if !amount.IsPositive() {
		return uuid.Nil, ErrAmountMustBePositive
	}

	var id uuid.UUID
	err := pool.QueryRow(ctx, `
		INSERT INTO budget_targets (user_id, category, period_start, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		userID, category, finance.MonthStart(periodStart), amount.Round(2),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, ErrTargetExists
		}
		return uuid.Nil, fmt.Errorf("failed to create budget target: %w", err)
	}

	return id, nil
}

// UpdateTargetAmount changes the limit of an existing target.
func UpdateTargetAmount(ctx context.Context, userID, targetID uuid.UUID, amount decimal.Decimal) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if !amount.IsPositive() {
		return ErrAmountMustBePositive
	}

	tag, err := pool.Exec(ctx,
		`UPDATE budget_targets SET amount = $1 WHERE id = $2 AND user_id = $3`,
		amount.Round(2), targetID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget target: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTargetNotFound
	}

	return nil
}

// DeleteTarget removes a target owned by the user.
func DeleteTarget(ctx context.Context, userID, targetID uuid.UUID) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	tag, err := pool.Exec(ctx, `DELETE FROM budget_targets WHERE id = $1 AND user_id = $2`, targetID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete budget target: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTargetNotFound
	}

	return nil
}

// CopyTargets copies every target from one month into another, skipping
// categories that already have a target there. It returns the number copied.
func CopyTargets(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	if pool == nil {
		return 0, ErrDatabaseConnectionNotInitialized
	}

	tag, err := pool.Exec(ctx, `
		INSERT INTO budget_targets (user_id, category, period_start, amount)
		SELECT user_id, category, $3, amount FROM budget_targets
		WHERE user_id = $1 AND period_start = $2
		ON CONFLICT (user_id, category, period_start) DO NOTHING`,
		userID, finance.MonthStart(from), finance.MonthStart(to),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy budget targets: %w", err)
	}

	return tag.RowsAffected(), nil
}
