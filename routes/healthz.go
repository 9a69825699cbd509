/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/tally/db"
)

const healthCheckTimeout = 2 * time.Second

var pingDBFn = db.Ping

// Healthz reports whether the server can reach the database.
func Healthz(c flamego.Context) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	c.ResponseWriter().Header().Set("Content-Type", "text/plain; charset=utf-8")

	if err := pingDBFn(ctx); err != nil {
		logger.Warn("Health check failed", "error", err)
		c.ResponseWriter().WriteHeader(http.StatusServiceUnavailable)
		_, _ = c.ResponseWriter().Write([]byte("database unavailable\n"))

		return
	}

	c.ResponseWriter().WriteHeader(http.StatusOK)
	_, _ = c.ResponseWriter().Write([]byte("ok\n"))
}
