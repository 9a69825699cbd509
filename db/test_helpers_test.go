// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func testContext() context.Context {
	return context.Background()
}

func stringPtr(value string) *string {
	return &value
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func mustCreateUser(t *testing.T, username string) *User {
	t.Helper()

	user, err := CreateUser(testContext(), CreateUserInput{
		Username:    username,
		DisplayName: username,
		Password:    "correct horse battery",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

func mustCreateAccount(t *testing.T, userID uuid.UUID, name string, opening string) uuid.UUID {
	t.Helper()

	id, err := CreateAccount(testContext(), userID, CreateAccountInput{
		Name:           name,
		AccountType:    AccountTypeChecking,
		OpeningBalance: dec(opening),
	})
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	return id
}

func assertBalance(t *testing.T, userID, accountID uuid.UUID, want string) {
	t.Helper()

	account, err := GetAccount(testContext(), userID, accountID)
	if err != nil {
		t.Fatalf("failed to load account: %v", err)
	}

	if !account.Balance.Equal(dec(want)) {
		t.Fatalf("expected balance %s, got %s", want, account.Balance)
	}
}
