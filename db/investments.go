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

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// InvestmentInput represents the editable fields of an investment.
type InvestmentInput struct {
	AccountID    uuid.UUID
	Symbol       string
	Name         string
	AssetType    AssetType
	CurrentPrice decimal.Decimal
}

// TradeInput represents input for recording a trade.
type TradeInput struct {
	Side     finance.TradeSide
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Fee      decimal.Decimal
	TradedAt time.Time
}

// InvestmentWithPosition is an investment with its average-cost position.
type InvestmentWithPosition struct {
	Investment
	Position   finance.Position
	TradeCount int
}

func (in InvestmentInput) validate() error {
	if strings.TrimSpace(in.Symbol) == "" {
		return ErrSymbolRequired
	}
	if !IsValidAssetType(in.AssetType) {
		return ErrInvalidAssetType
	}
	if in.CurrentPrice.IsNegative() {
		return ErrPriceMustNotBeNegative
	}

	return nil
}

// Quantities and prices are stored as NUMERIC(18,6).
const tradeScale = 6

// normalized rounds the input to the scale the columns store, so the account
// delta computed on create matches the one recomputed from the stored row.
func (in TradeInput) normalized() TradeInput {
	in.Quantity = in.Quantity.Round(tradeScale)
	in.Price = in.Price.Round(tradeScale)
	in.Fee = in.Fee.Round(2)

	return in
}

func (in TradeInput) validate() error {
	if !finance.IsValidTradeSide(in.Side) {
		return ErrInvalidTradeSide
	}
	if !in.Quantity.IsPositive() {
		return ErrAmountMustBePositive
	}
	if in.Price.IsNegative() {
		return ErrPriceMustNotBeNegative
	}
	if in.Fee.IsNegative() {
		return ErrFeeMustNotBeNegative
	}
	if in.TradedAt.IsZero() {
		return ErrDateRequired
	}

	return nil
}

const investmentSelect = `
	SELECT i.id, i.user_id, i.account_id, a.name, i.symbol, i.name, i.asset_type, i.current_price, i.created_at, i.updated_at
	FROM investments i
	JOIN accounts a ON a.id = i.account_id`

func scanInvestment(row pgx.Row) (*Investment, error) {
	var inv Investment
	if err := row.Scan(
		&inv.ID,
		&inv.UserID,
		&inv.AccountID,
		&inv.AccountName,
		&inv.Symbol,
		&inv.Name,
		&inv.AssetType,
		&inv.CurrentPrice,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &inv, nil
}

const tradeColumns = `id, investment_id, side, quantity, price, fee, traded_at, created_at`

func collectTrades(rows pgx.Rows) ([]InvestmentTrade, error) {
	defer rows.Close()

	var trades []InvestmentTrade
	for rows.Next() {
		var trade InvestmentTrade
		if err := rows.Scan(
			&trade.ID,
			&trade.InvestmentID,
			&trade.Side,
			&trade.Quantity,
			&trade.Price,
			&trade.Fee,
			&trade.TradedAt,
			&trade.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

func tradesFor(ctx context.Context, q querier, investmentID uuid.UUID) ([]InvestmentTrade, error) {
	rows, err := q.Query(ctx,
		`SELECT `+tradeColumns+` FROM investment_trades WHERE investment_id = $1 ORDER BY traded_at ASC, created_at ASC`,
		investmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}

	return collectTrades(rows)
}

func toFinanceTrades(trades []InvestmentTrade) []finance.Trade {
	out := make([]finance.Trade, 0, len(trades))
	for _, trade := range trades {
		out = append(out, trade.Trade())
	}

	return out
}

func tradeDelta(trade InvestmentTrade) (decimal.Decimal, error) {
	delta, err := finance.TradeDelta(trade.Side, trade.Quantity, trade.Price, trade.Fee)
	if err != nil {
		return decimal.Zero, err
	}

	return delta.Round(2), nil
}

// ListInvestments returns the user's investments with their positions.
func ListInvestments(ctx context.Context, userID uuid.UUID) ([]InvestmentWithPosition, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, investmentSelect+` WHERE i.user_id = $1 ORDER BY i.symbol ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	var investments []InvestmentWithPosition
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, InvestmentWithPosition{Investment: *inv})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investments: %w", err)
	}

	tradeRows, err := pool.Query(ctx, `
		SELECT t.id, t.investment_id, t.side, t.quantity, t.price, t.fee, t.traded_at, t.created_at
		FROM investment_trades t
		JOIN investments i ON i.id = t.investment_id
		WHERE i.user_id = $1
		ORDER BY t.traded_at ASC, t.created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}

	trades, err := collectTrades(tradeRows)
	if err != nil {
		return nil, err
	}

	byInvestment := make(map[uuid.UUID][]finance.Trade)
	for _, trade := range trades {
		byInvestment[trade.InvestmentID] = append(byInvestment[trade.InvestmentID], trade.Trade())
	}

	for i := range investments {
		inv := &investments[i]
		inv.TradeCount = len(byInvestment[inv.ID])

		position, err := finance.BuildPosition(byInvestment[inv.ID], inv.CurrentPrice)
		if err != nil {
			logger.Warn("Inconsistent trade history", "investment_id", inv.ID, "error", err)
			continue
		}
		inv.Position = position
	}

	return investments, nil
}

// GetInvestment returns a single investment owned by the user.
func GetInvestment(ctx context.Context, userID, investmentID uuid.UUID) (*Investment, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	inv, err := scanInvestment(pool.QueryRow(ctx,
		investmentSelect+` WHERE i.id = $1 AND i.user_id = $2`,
		investmentID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvestmentNotFound
		}
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}

	return inv, nil
}

// CreateInvestment creates an investment without any trades.
func CreateInvestment(ctx context.Context, userID uuid.UUID, input InvestmentInput) (uuid.UUID, error) {
	if pool == nil {
		return uuid.Nil, ErrDatabaseConnectionNotInitialized
	}

	if err := input.validate(); err != nil {
		return uuid.Nil, err
	}

	if _, err := GetAccount(ctx, userID, input.AccountID); err != nil {
		return uuid.Nil, err
	}

	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = symbol
	}

	var id uuid.UUID
	err := pool.QueryRow(ctx, `
		INSERT INTO investments (user_id, account_id, symbol, name, asset_type, current_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		userID, input.AccountID, symbol, name, input.AssetType, input.CurrentPrice,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create investment: %w", err)
	}

	return id, nil
}

// UpdateInvestmentPrice sets the latest market price.
func UpdateInvestmentPrice(ctx context.Context, userID, investmentID uuid.UUID, price decimal.Decimal) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if price.IsNegative() {
		return ErrPriceMustNotBeNegative
	}

	tag, err := pool.Exec(ctx,
		`UPDATE investments SET current_price = $1 WHERE id = $2 AND user_id = $3`,
		price, investmentID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvestmentNotFound
	}

	return nil
}

// DeleteInvestment removes an investment and its trades, reversing the effect
// every trade had on the funding account.
func DeleteInvestment(ctx context.Context, userID, investmentID uuid.UUID) (*Investment, error) {
	var deleted *Investment

	err := withTx(ctx, func(tx pgx.Tx) error {
		inv, err := scanInvestment(tx.QueryRow(ctx,
			investmentSelect+` WHERE i.id = $1 AND i.user_id = $2 FOR UPDATE OF i`,
			investmentID, userID,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvestmentNotFound
			}
			return err
		}

		trades, err := tradesFor(ctx, tx, investmentID)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, trade := range trades {
			delta, err := tradeDelta(trade)
			if err != nil {
				return err
			}
			total = total.Add(delta)
		}

		if !total.IsZero() {
			if err := applyAccountDelta(ctx, tx, userID, inv.AccountID, finance.Reverse(total)); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM investments WHERE id = $1`, investmentID); err != nil {
			return err
		}

		deleted = inv

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete investment: %w", err)
	}

	return deleted, nil
}

// ListTrades returns the trades of an investment owned by the user.
func ListTrades(ctx context.Context, userID, investmentID uuid.UUID) ([]InvestmentTrade, error) {
	if _, err := GetInvestment(ctx, userID, investmentID); err != nil {
		return nil, err
	}

	return tradesFor(ctx, pool, investmentID)
}

// lockInvestment locks the investment row and returns its funding account.
func lockInvestment(ctx context.Context, tx pgx.Tx, userID, investmentID uuid.UUID) (uuid.UUID, error) {
	var accountID uuid.UUID

	err := tx.QueryRow(ctx,
		`SELECT account_id FROM investments WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		investmentID, userID,
	).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrInvestmentNotFound
		}
		return uuid.Nil, err
	}

	return accountID, nil
}

// CreateTrade records a trade and moves its cash value on the funding account.
// Sells that would take the held quantity below zero are rejected.
func CreateTrade(ctx context.Context, userID, investmentID uuid.UUID, input TradeInput) (*InvestmentTrade, error) {
	input = input.normalized()
	if err := input.validate(); err != nil {
		return nil, err
	}

	trade := InvestmentTrade{
		InvestmentID: investmentID,
		Side:         input.Side,
		Quantity:     input.Quantity,
		Price:        input.Price,
		Fee:          input.Fee,
		TradedAt:     input.TradedAt,
	}

	err := withTx(ctx, func(tx pgx.Tx) error {
		accountID, err := lockInvestment(ctx, tx, userID, investmentID)
		if err != nil {
			return err
		}

		existing, err := tradesFor(ctx, tx, investmentID)
		if err != nil {
			return err
		}

		if _, err := finance.BuildPosition(append(toFinanceTrades(existing), trade.Trade()), decimal.Zero); err != nil {
			return err
		}

		delta, err := tradeDelta(trade)
		if err != nil {
			return err
		}

		if err := applyAccountDelta(ctx, tx, userID, accountID, delta); err != nil {
			return err
		}

		return tx.QueryRow(ctx, `
			INSERT INTO investment_trades (investment_id, side, quantity, price, fee, traded_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`,
			investmentID, trade.Side, trade.Quantity, trade.Price, trade.Fee, trade.TradedAt,
		).Scan(&trade.ID, &trade.CreatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	return &trade, nil
}

// DeleteTrade removes a trade and reverses its account effect. Removing a buy
// that later sells depend on is rejected.
func DeleteTrade(ctx context.Context, userID, investmentID, tradeID uuid.UUID) (*InvestmentTrade, error) {
	var deleted InvestmentTrade

	err := withTx(ctx, func(tx pgx.Tx) error {
		accountID, err := lockInvestment(ctx, tx, userID, investmentID)
		if err != nil {
			return err
		}

		existing, err := tradesFor(ctx, tx, investmentID)
		if err != nil {
			return err
		}

		found := false
		remaining := make([]finance.Trade, 0, len(existing))
		for _, trade := range existing {
			if trade.ID == tradeID {
				deleted = trade
				found = true
				continue
			}
			remaining = append(remaining, trade.Trade())
		}
		if !found {
			return ErrTradeNotFound
		}

		if _, err := finance.BuildPosition(remaining, decimal.Zero); err != nil {
			return err
		}

		delta, err := tradeDelta(deleted)
		if err != nil {
			return err
		}

		if err := applyAccountDelta(ctx, tx, userID, accountID, finance.Reverse(delta)); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `DELETE FROM investment_trades WHERE id = $1`, tradeID)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete trade: %w", err)
	}

	return &deleted, nil
}

// HoldingsValue sums the market value of the given positions.
func HoldingsValue(investments []InvestmentWithPosition) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range investments {
		total = total.Add(inv.Position.MarketValue)
	}

	return total
}
