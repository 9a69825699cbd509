/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flamego/session"
	"github.com/jackc/pgx/v5"
)

// DefaultSessionLifetime is how long an idle session survives.
const DefaultSessionLifetime = 14 * 24 * time.Hour

// PostgresSessionConfig contains options for the PostgreSQL session store
type PostgresSessionConfig struct {
	// Lifetime is the idle duration before a session is recycled.
	Lifetime time.Duration
	// TableName defaults to "flamego_sessions".
	TableName string
	Encoder   session.Encoder
	Decoder   session.Decoder
}

// PostgresSessionStore implements session.Store on top of the shared pgx pool.
type PostgresSessionStore struct {
	lifetime time.Duration
	table    string
	encoder  session.Encoder
	decoder  session.Decoder
}

var errInvalidSessionConfig = errors.New("invalid PostgresSessionConfig")

// PostgresSessionIniter returns the Initer for the PostgreSQL session store
func PostgresSessionIniter() session.Initer {
	return func(_ context.Context, args ...interface{}) (session.Store, error) {
		var config PostgresSessionConfig
		if len(args) > 0 {
			var ok bool
			config, ok = args[0].(PostgresSessionConfig)
			if !ok {
				return nil, errInvalidSessionConfig
			}
		}

		return newPostgresSessionStore(config), nil
	}
}

func newPostgresSessionStore(config PostgresSessionConfig) *PostgresSessionStore {
	store := &PostgresSessionStore{
		lifetime: config.Lifetime,
		table:    pgx.Identifier{config.TableName}.Sanitize(),
		encoder:  config.Encoder,
		decoder:  config.Decoder,
	}

	if store.lifetime == 0 {
		store.lifetime = DefaultSessionLifetime
	}
	if config.TableName == "" {
		store.table = pgx.Identifier{"flamego_sessions"}.Sanitize()
	}
	if store.encoder == nil {
		store.encoder = session.GobEncoder
	}
	if store.decoder == nil {
		store.decoder = session.GobDecoder
	}

	return store
}

// Exist returns true if the session with given ID exists and hasn't expired
func (s *PostgresSessionStore) Exist(ctx context.Context, sid string) bool {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+s.table+` WHERE id = $1 AND expires_at > NOW())`,
		sid,
	).Scan(&exists)

	return err == nil && exists
}

// Read returns the session with given ID, or a fresh session under that ID.
func (s *PostgresSessionStore) Read(ctx context.Context, sid string) (session.Session, error) {
	var data []byte
	err := pool.QueryRow(ctx,
		`SELECT data FROM `+s.table+` WHERE id = $1 AND expires_at > NOW()`,
		sid,
	).Scan(&data)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// The session middleware writes the cookie itself.
	idWriter := func(http.ResponseWriter, *http.Request, string) {}

	if len(data) == 0 {
		return session.NewBaseSession(sid, s.encoder, idWriter), nil
	}

	values, err := s.decoder(data)
	if err != nil {
		logger.Warn("Discarding undecodable session", "error", err)
		return session.NewBaseSession(sid, s.encoder, idWriter), nil
	}

	return session.NewBaseSessionWithData(sid, s.encoder, idWriter, values), nil
}

// Destroy deletes session with given ID from the session store completely
func (s *PostgresSessionStore) Destroy(ctx context.Context, sid string) error {
	_, err := pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE id = $1`, sid)
	return err
}

// Touch updates the expiry time of the session with given ID
func (s *PostgresSessionStore) Touch(ctx context.Context, sid string) error {
	_, err := pool.Exec(ctx,
		`UPDATE `+s.table+` SET expires_at = $1 WHERE id = $2`,
		time.Now().Add(s.lifetime), sid,
	)

	return err
}

// Save persists session data to the session store
func (s *PostgresSessionStore) Save(ctx context.Context, sess session.Session) error {
	data, err := sess.Encode()
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO `+s.table+` (id, data, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			expires_at = EXCLUDED.expires_at`,
		sess.ID(), data, time.Now().Add(s.lifetime),
	)

	return err
}

// GC removes expired sessions.
func (s *PostgresSessionStore) GC(ctx context.Context) error {
	tag, err := pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE expires_at < NOW()`)
	if err != nil {
		return err
	}

	if n := tag.RowsAffected(); n > 0 {
		logger.Debug("Removed expired sessions", "count", n)
	}

	return nil
}
