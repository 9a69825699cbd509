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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/humaidq/tally/finance"
)

// MinPasswordLength is the shortest accepted login password.
const MinPasswordLength = 8

// dummyHash is compared against when a username is unknown so failed logins
// take the same time either way.
var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z8iW3Wv3jQ2o6wzJx5c5Z9vW")

// CreateUserInput defines data for creating a user.
type CreateUserInput struct {
	Username    string
	DisplayName string
	Password    string
	Currency    string
}

const userColumns = `id, username, display_name, password_hash, currency, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.PasswordHash,
		&user.Currency,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// NormalizeUsername lowercases and trims a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// CountUsers returns the number of users.
func CountUsers(ctx context.Context) (int, error) {
	if pool == nil {
		return 0, ErrDatabaseConnectionNotInitialized
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

// CreateUser hashes the password with bcrypt and stores a new user.
func CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	username := NormalizeUsername(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return nil, ErrDisplayNameRequired
	}

	if len(input.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = finance.DefaultCurrency
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := scanUser(pool.QueryRow(ctx, `
		INSERT INTO users (username, display_name, password_hash, currency)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		username, displayName, string(hash), currency,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("Created user", "user_id", user.ID, "username", user.Username)

	return user, nil
}

// AuthenticateUser returns the user when the password matches.
func AuthenticateUser(ctx context.Context, username, password string) (*User, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	user, err := scanUser(pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`,
		NormalizeUsername(username),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUserByID returns a user by ID.
func GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	user, err := scanUser(pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// VerifyPassword checks password against the stored hash of the user.
func VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return nil
}

// ChangePassword verifies the current password and stores a new hash.
func ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if err := VerifyPassword(ctx, userID, current); err != nil {
		return err
	}

	if len(next) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := pool.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, string(hash), userID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
