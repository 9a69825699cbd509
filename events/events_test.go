// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

var errTestPublish = errors.New("publish failed")

type failingPublisher struct {
	calls int
}

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.calls++
	return errTestPublish
}

func (f *failingPublisher) Close() error {
	return nil
}

func TestParseBrokers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  []string
	}{
		{value: "", want: nil},
		{value: "localhost:9092", want: []string{"localhost:9092"}},
		{value: " a:9092, ,b:9092 ", want: []string{"a:9092", "b:9092"}},
	}

	for _, tt := range tests {
		if got := ParseBrokers(tt.value); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("ParseBrokers(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestNewEventJSONShape(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	entityID := uuid.New()

	event := New(ExpenseCreated, userID, entityID, map[string]string{"amount": "12.00"})

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}

	if decoded["type"] != ExpenseCreated {
		t.Fatalf("unexpected type: %v", decoded["type"])
	}
	if decoded["user_id"] != userID.String() {
		t.Fatalf("unexpected user_id: %v", decoded["user_id"])
	}
	if event.ID == uuid.Nil || event.OccurredAt.IsZero() {
		t.Fatalf("expected id and timestamp to be set: %+v", event)
	}
}

func TestPublishQuietlySwallowsErrors(t *testing.T) {
	t.Parallel()

	p := &failingPublisher{}
	PublishQuietly(context.Background(), p, New(DebtCreated, uuid.New(), uuid.New(), nil))
	PublishQuietly(context.Background(), nil, New(DebtCreated, uuid.New(), uuid.New(), nil))

	if p.calls != 1 {
		t.Fatalf("expected 1 publish call, got %d", p.calls)
	}

	if err := (LogPublisher{}).Publish(context.Background(), New(IncomeCreated, uuid.New(), uuid.New(), nil)); err != nil {
		t.Fatalf("LogPublisher returned error: %v", err)
	}
}
