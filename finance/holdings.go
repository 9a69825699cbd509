/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a single buy or sell of an investment.
type Trade struct {
	Side     TradeSide
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Fee      decimal.Decimal
	TradedAt time.Time
}

// Position is an average-cost view of an investment holding.
type Position struct {
	Quantity       decimal.Decimal
	CostBasis      decimal.Decimal
	AverageCost    decimal.Decimal
	RealizedGain   decimal.Decimal
	MarketValue    decimal.Decimal
	UnrealizedGain decimal.Decimal
}

// BuildPosition replays trades in date order using average cost. Fees on buys
// are added to cost; fees on sells reduce proceeds.
func BuildPosition(trades []Trade, currentPrice decimal.Decimal) (Position, error) {
	ordered := make([]Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TradedAt.Before(ordered[j].TradedAt)
	})

	pos := Position{
		Quantity:     decimal.Zero,
		CostBasis:    decimal.Zero,
		AverageCost:  decimal.Zero,
		RealizedGain: decimal.Zero,
	}

	for _, trade := range ordered {
		switch trade.Side {
		case TradeBuy:
			pos.CostBasis = pos.CostBasis.Add(TradeValue(trade.Quantity, trade.Price)).Add(trade.Fee)
			pos.Quantity = pos.Quantity.Add(trade.Quantity)
		case TradeSell:
			if trade.Quantity.GreaterThan(pos.Quantity) {
				return Position{}, ErrInsufficientQuantity
			}

			avg := averageCost(pos)
			removed := avg.Mul(trade.Quantity)
			proceeds := TradeValue(trade.Quantity, trade.Price).Sub(trade.Fee)

			pos.RealizedGain = pos.RealizedGain.Add(proceeds.Sub(removed))
			pos.CostBasis = pos.CostBasis.Sub(removed)
			pos.Quantity = pos.Quantity.Sub(trade.Quantity)
			if pos.Quantity.IsZero() {
				pos.CostBasis = decimal.Zero
			}
		default:
			return Position{}, ErrUnknownTradeSide
		}
	}

	pos.AverageCost = averageCost(pos).Round(4)
	pos.MarketValue = pos.Quantity.Mul(currentPrice).Round(2)
	pos.UnrealizedGain = pos.MarketValue.Sub(pos.CostBasis).Round(2)
	pos.CostBasis = pos.CostBasis.Round(2)
	pos.RealizedGain = pos.RealizedGain.Round(2)

	return pos, nil
}

func averageCost(pos Position) decimal.Decimal {
	if !pos.Quantity.IsPositive() {
		return decimal.Zero
	}

	return pos.CostBasis.Div(pos.Quantity)
}
