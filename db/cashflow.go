/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/finance"
)

// Transaction is an income or expense row flattened for listing and export.
type Transaction struct {
	ID          uuid.UUID
	Kind        finance.EntryKind
	Category    string
	Description string
	AccountName string
	Amount      decimal.Decimal
	OccurredAt  time.Time
}

// CashFlowEntry reduces the transaction to what summaries need.
func (t Transaction) CashFlowEntry() finance.CashFlowEntry {
	return finance.CashFlowEntry{
		Kind:       t.Kind,
		Category:   t.Category,
		Amount:     t.Amount,
		OccurredAt: t.OccurredAt,
	}
}

// ListTransactions returns incomes and expenses dated in [from, to), oldest
// first. Income descriptions fall back to the income source.
func ListTransactions(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Transaction, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT e.id, 'expense', e.category, COALESCE(e.description, ''), a.name, e.amount, e.spent_at, e.created_at
		FROM expenses e
		JOIN accounts a ON a.id = e.account_id
		WHERE e.user_id = $1 AND e.spent_at >= $2 AND e.spent_at < $3
		UNION ALL
		SELECT i.id, 'income', i.category, COALESCE(i.description, i.source), a.name, i.amount, i.received_at, i.created_at
		FROM incomes i
		JOIN accounts a ON a.id = i.account_id
		WHERE i.user_id = $1 AND i.received_at >= $2 AND i.received_at < $3
		ORDER BY 7 ASC, 8 ASC`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var t Transaction
		var kind string
		var createdAt time.Time

		if err := rows.Scan(&t.ID, &kind, &t.Category, &t.Description, &t.AccountName, &t.Amount, &t.OccurredAt, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		t.Kind = finance.EntryKind(kind)
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// ListCashFlowEntries returns income and expense entries dated in [from, to).
func ListCashFlowEntries(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]finance.CashFlowEntry, error) {
	transactions, err := ListTransactions(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	entries := make([]finance.CashFlowEntry, 0, len(transactions))
	for _, t := range transactions {
		entries = append(entries, t.CashFlowEntry())
	}

	return entries, nil
}
