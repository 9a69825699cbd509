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

// CreateDebtInput represents input for creating a debt or loan.
type CreateDebtInput struct {
	AccountID      uuid.UUID
	Kind           finance.DebtKind
	Counterparty   string
	Principal      decimal.Decimal
	InterestRate   decimal.Decimal
	InterestMethod finance.InterestMethod
	StartedAt      time.Time
	DueAt          *time.Time
	Note           *string
}

// RepaymentInput represents input for recording a repayment.
type RepaymentInput struct {
	Amount decimal.Decimal
	PaidAt time.Time
	Note   *string
}

// DebtWithBalance is a debt with its repayments and calculated balance.
type DebtWithBalance struct {
	Debt
	Repayments []DebtRepayment
	Balance    finance.Balance
}

// DebtTotals are the outstanding amounts across all debts and loans.
type DebtTotals struct {
	OwedByUser decimal.Decimal
	OwedToUser decimal.Decimal
}

func (in *CreateDebtInput) validate() error {
	if !finance.IsValidDebtKind(in.Kind) {
		return ErrInvalidDebtKind
	}
	if strings.TrimSpace(in.Counterparty) == "" {
		return ErrCounterpartyRequired
	}
	if !in.Principal.IsPositive() {
		return ErrAmountMustBePositive
	}
	if in.InterestRate.IsNegative() {
		return ErrRateMustNotBeNegative
	}
	if in.InterestMethod == "" {
		in.InterestMethod = finance.InterestDeclining
	}
	if !finance.IsValidInterestMethod(in.InterestMethod) {
		return ErrInvalidInterestMethod
	}
	if in.StartedAt.IsZero() {
		return ErrDateRequired
	}
	if in.DueAt != nil && in.DueAt.Before(in.StartedAt) {
		return ErrDueBeforeStart
	}

	return nil
}

const debtSelect = `
	SELECT d.id, d.user_id, d.account_id, a.name, d.kind, d.counterparty, d.principal, d.interest_rate,
		d.interest_method, d.started_at, d.due_at, d.note, d.created_at, d.updated_at
	FROM debts d
	JOIN accounts a ON a.id = d.account_id`

func scanDebt(row pgx.Row) (*Debt, error) {
	var debt Debt
	if err := row.Scan(
		&debt.ID,
		&debt.UserID,
		&debt.AccountID,
		&debt.AccountName,
		&debt.Kind,
		&debt.Counterparty,
		&debt.Principal,
		&debt.InterestRate,
		&debt.InterestMethod,
		&debt.StartedAt,
		&debt.DueAt,
		&debt.Note,
		&debt.CreatedAt,
		&debt.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &debt, nil
}

const repaymentColumns = `id, debt_id, amount, paid_at, note, created_at`

func collectRepayments(rows pgx.Rows) ([]DebtRepayment, error) {
	defer rows.Close()

	var repayments []DebtRepayment
	for rows.Next() {
		var r DebtRepayment
		if err := rows.Scan(&r.ID, &r.DebtID, &r.Amount, &r.PaidAt, &r.Note, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan repayment: %w", err)
		}
		repayments = append(repayments, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repayments: %w", err)
	}

	return repayments, nil
}

func repaymentsFor(ctx context.Context, q querier, debtID uuid.UUID) ([]DebtRepayment, error) {
	rows, err := q.Query(ctx,
		`SELECT `+repaymentColumns+` FROM debt_repayments WHERE debt_id = $1 ORDER BY paid_at ASC, created_at ASC`,
		debtID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list repayments: %w", err)
	}

	return collectRepayments(rows)
}

// ListDebts returns the user's debts and loans evaluated at now.
func ListDebts(ctx context.Context, userID uuid.UUID, now time.Time) ([]DebtWithBalance, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx,
		debtSelect+` WHERE d.user_id = $1 ORDER BY d.kind ASC, d.started_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []DebtWithBalance
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, DebtWithBalance{Debt: *debt})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating debts: %w", err)
	}

	repaymentRows, err := pool.Query(ctx, `
		SELECT r.id, r.debt_id, r.amount, r.paid_at, r.note, r.created_at
		FROM debt_repayments r
		JOIN debts d ON d.id = r.debt_id
		WHERE d.user_id = $1
		ORDER BY r.paid_at ASC, r.created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list repayments: %w", err)
	}

	repayments, err := collectRepayments(repaymentRows)
	if err != nil {
		return nil, err
	}

	byDebt := make(map[uuid.UUID][]DebtRepayment)
	for _, r := range repayments {
		byDebt[r.DebtID] = append(byDebt[r.DebtID], r)
	}

	for i := range debts {
		d := &debts[i]
		d.Repayments = byDebt[d.ID]
		d.Balance = finance.CalculateBalance(d.Terms(d.Repayments), now)
	}

	return debts, nil
}

// GetDebt returns a debt with its repayments evaluated at now.
func GetDebt(ctx context.Context, userID, debtID uuid.UUID, now time.Time) (*DebtWithBalance, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	debt, err := scanDebt(pool.QueryRow(ctx, debtSelect+` WHERE d.id = $1 AND d.user_id = $2`, debtID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDebtNotFound
		}
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}

	repayments, err := repaymentsFor(ctx, pool, debtID)
	if err != nil {
		return nil, err
	}

	return &DebtWithBalance{
		Debt:       *debt,
		Repayments: repayments,
		Balance:    finance.CalculateBalance(debt.Terms(repayments), now),
	}, nil
}

// CreateDebt records a debt or loan and moves the principal on its account.
func CreateDebt(ctx context.Context, userID uuid.UUID, input CreateDebtInput) (uuid.UUID, error) {
	if err := input.validate(); err != nil {
		return uuid.Nil, err
	}

	principal := input.Principal.Round(2)

	var id uuid.UUID
	err := withTx(ctx, func(tx pgx.Tx) error {
		if err := applyAccountDelta(ctx, tx, userID, input.AccountID, finance.DebtOpeningDelta(input.Kind, principal)); err != nil {
			return err
		}

		return tx.QueryRow(ctx, `
			INSERT INTO debts (user_id, account_id, kind, counterparty, principal, interest_rate, interest_method, started_at, due_at, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			userID,
			input.AccountID,
			input.Kind,
			strings.TrimSpace(input.Counterparty),
			principal,
			input.InterestRate,
			input.InterestMethod,
			input.StartedAt,
			input.DueAt,
			trimOptional(input.Note),
		).Scan(&id)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create debt: %w", err)
	}

	return id, nil
}

// lockDebt locks the debt row and returns what repayments need from it.
func lockDebt(ctx context.Context, tx pgx.Tx, userID, debtID uuid.UUID) (finance.DebtKind, uuid.UUID, error) {
	var kind finance.DebtKind
	var accountID uuid.UUID

	err := tx.QueryRow(ctx,
		`SELECT kind, account_id FROM debts WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		debtID, userID,
	).Scan(&kind, &accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", uuid.Nil, ErrDebtNotFound
		}
		return "", uuid.Nil, err
	}

	return kind, accountID, nil
}

// CreateRepayment records a repayment. Paying more than is owed is allowed and
// shows up as an overpaid balance.
func CreateRepayment(ctx context.Context, userID, debtID uuid.UUID, input RepaymentInput) (*DebtRepayment, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrAmountMustBePositive
	}
	if input.PaidAt.IsZero() {
		return nil, ErrDateRequired
	}

	repayment := DebtRepayment{
		DebtID: debtID,
		Amount: input.Amount.Round(2),
		PaidAt: input.PaidAt,
		Note:   trimOptional(input.Note),
	}

	err := withTx(ctx, func(tx pgx.Tx) error {
		kind, accountID, err := lockDebt(ctx, tx, userID, debtID)
		if err != nil {
			return err
		}

		if err := applyAccountDelta(ctx, tx, userID, accountID, finance.RepaymentDelta(kind, repayment.Amount)); err != nil {
			return err
		}

		return tx.QueryRow(ctx, `
			INSERT INTO debt_repayments (debt_id, amount, paid_at, note)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			debtID, repayment.Amount, repayment.PaidAt, repayment.Note,
		).Scan(&repayment.ID, &repayment.CreatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create repayment: %w", err)
	}

	return &repayment, nil
}

// DeleteRepayment removes a repayment and reverses its account effect.
func DeleteRepayment(ctx context.Context, userID, debtID, repaymentID uuid.UUID) (*DebtRepayment, error) {
	var deleted DebtRepayment

	err := withTx(ctx, func(tx pgx.Tx) error {
		kind, accountID, err := lockDebt(ctx, tx, userID, debtID)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`DELETE FROM debt_repayments WHERE id = $1 AND debt_id = $2 RETURNING `+repaymentColumns,
			repaymentID, debtID,
		).Scan(&deleted.ID, &deleted.DebtID, &deleted.Amount, &deleted.PaidAt, &deleted.Note, &deleted.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRepaymentNotFound
			}
			return err
		}

		return applyAccountDelta(ctx, tx, userID, accountID, finance.Reverse(finance.RepaymentDelta(kind, deleted.Amount)))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete repayment: %w", err)
	}

	return &deleted, nil
}

// DeleteDebt removes a debt and its repayments, reversing the principal and
// every repayment on the account.
func DeleteDebt(ctx context.Context, userID, debtID uuid.UUID) (*Debt, error) {
	var deleted *Debt

	err := withTx(ctx, func(tx pgx.Tx) error {
		debt, err := scanDebt(tx.QueryRow(ctx,
			debtSelect+` WHERE d.id = $1 AND d.user_id = $2 FOR UPDATE OF d`,
			debtID, userID,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrDebtNotFound
			}
			return err
		}

		repayments, err := repaymentsFor(ctx, tx, debtID)
		if err != nil {
			return err
		}

		total := finance.DebtOpeningDelta(debt.Kind, debt.Principal)
		for _, r := range repayments {
			total = total.Add(finance.RepaymentDelta(debt.Kind, r.Amount))
		}

		if err := applyAccountDelta(ctx, tx, userID, debt.AccountID, finance.Reverse(total)); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM debts WHERE id = $1`, debtID); err != nil {
			return err
		}

		deleted = debt

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete debt: %w", err)
	}

	return deleted, nil
}

// SumOutstanding totals the positive remaining balances by direction.
// Overpaid debts count as zero outstanding.
func SumOutstanding(debts []DebtWithBalance) DebtTotals {
	totals := DebtTotals{OwedByUser: decimal.Zero, OwedToUser: decimal.Zero}

	for _, d := range debts {
		if !d.Balance.RemainingAmount.IsPositive() {
			continue
		}

		switch d.Kind {
		case finance.DebtLent:
			totals.OwedToUser = totals.OwedToUser.Add(d.Balance.RemainingAmount)
		default:
			totals.OwedByUser = totals.OwedByUser.Add(d.Balance.RemainingAmount)
		}
	}

	return totals
}
