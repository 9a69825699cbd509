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
)

// PasswordEntryInput holds a credential whose secret is already sealed.
type PasswordEntryInput struct {
	Title      string
	Username   *string
	URL        *string
	Ciphertext []byte
	Note       *string
}

const passwordEntryColumns = `id, user_id, title, username, url, ciphertext, note, created_at, updated_at`

func scanPasswordEntry(row pgx.Row) (*PasswordEntry, error) {
	var entry PasswordEntry
	if err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Title,
		&entry.Username,
		&entry.URL,
		&entry.Ciphertext,
		&entry.Note,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &entry, nil
}

// ListPasswordEntries returns the user's entries ordered by title.
func ListPasswordEntries(ctx context.Context, userID uuid.UUID) ([]PasswordEntry, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx,
		`SELECT `+passwordEntryColumns+` FROM password_entries WHERE user_id = $1 ORDER BY lower(title) ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list password entries: %w", err)
	}
	defer rows.Close()

	var entries []PasswordEntry
	for rows.Next() {
		entry, err := scanPasswordEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan password entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating password entries: %w", err)
	}

	return entries, nil
}

// GetPasswordEntry returns a single entry owned by the user.
func GetPasswordEntry(ctx context.Context, userID, entryID uuid.UUID) (*PasswordEntry, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	entry, err := scanPasswordEntry(pool.QueryRow(ctx,
		`SELECT `+passwordEntryColumns+` FROM password_entries WHERE id = $1 AND user_id = $2`,
		entryID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPasswordEntryNotFound
		}
		return nil, fmt.Errorf("failed to get password entry: %w", err)
	}

	return entry, nil
}

// CreatePasswordEntry stores a sealed credential.
func CreatePasswordEntry(ctx context.Context, userID uuid.UUID, input PasswordEntryInput) (uuid.UUID, error) {
	if pool == nil {
		return uuid.Nil, ErrDatabaseConnectionNotInitialized
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return uuid.Nil, ErrTitleRequired
	}

	var id uuid.UUID
	err := pool.QueryRow(ctx, `
		INSERT INTO password_entries (user_id, title, username, url, ciphertext, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		userID, title, trimOptional(input.Username), trimOptional(input.URL), input.Ciphertext, trimOptional(input.Note),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create password entry: %w", err)
	}

	return id, nil
}

// DeletePasswordEntry removes an entry owned by the user.
func DeletePasswordEntry(ctx context.Context, userID, entryID uuid.UUID) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	tag, err := pool.Exec(ctx, `DELETE FROM password_entries WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete password entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPasswordEntryNotFound
	}

	return nil
}
