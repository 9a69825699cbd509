/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package events publishes domain events for external consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/tally/logging"
)

var logger = logging.Logger(logging.SourceEvents)

// Event types emitted by the application.
const (
	AccountBalanceChanged = "account.balance_changed"
	ExpenseCreated        = "expense.created"
	ExpenseDeleted        = "expense.deleted"
	IncomeCreated         = "income.created"
	IncomeDeleted         = "income.deleted"
	TradeCreated          = "trade.created"
	TradeDeleted          = "trade.deleted"
	DebtCreated           = "debt.created"
	DebtDeleted           = "debt.deleted"
	RepaymentCreated      = "debt.repayment_created"
	RepaymentDeleted      = "debt.repayment_deleted"
)

// Event is a single domain event.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Type       string            `json:"type"`
	UserID     uuid.UUID         `json:"user_id"`
	EntityID   uuid.UUID         `json:"entity_id"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// New builds an event stamped with a fresh ID and the current time.
func New(eventType string, userID, entityID uuid.UUID, attributes map[string]string) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     userID,
		EntityID:   entityID,
		Attributes: attributes,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher sends events to a downstream system.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the log. It is used when no broker is configured.
type LogPublisher struct{}

// Publish logs the event at debug level.
func (LogPublisher) Publish(_ context.Context, event Event) error {
	logger.Debug("event", "type", event.Type, "user_id", event.UserID, "entity_id", event.EntityID)
	return nil
}

// Close is a no-op.
func (LogPublisher) Close() error {
	return nil
}

// PublishQuietly publishes and logs failures instead of returning them.
func PublishQuietly(ctx context.Context, p Publisher, event Event) {
	if p == nil {
		return
	}

	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish event", "type", event.Type, "error", err)
	}
}
