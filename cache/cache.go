/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package cache stores computed dashboard data between requests.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/humaidq/tally/logging"
)

var logger = logging.Logger(logging.SourceCache)

// Cache is a string key/value store with expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// GetJSON decodes a cached JSON value into dst. A miss or an undecodable entry
// returns false.
func GetJSON(ctx context.Context, c Cache, key string, dst interface{}) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		logger.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		return false
	}

	return true
}

// SetJSON encodes value as JSON and stores it.
func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	return c.Set(ctx, key, string(data), ttl)
}

// UserPrefix is the key prefix for everything cached for a user.
func UserPrefix(userID string) string {
	return "tally:" + userID + ":"
}

// SummaryKey is the key for a user's monthly dashboard summary.
func SummaryKey(userID string, month time.Time) string {
	return UserPrefix(userID) + "summary:" + month.Format("2006-01")
}
