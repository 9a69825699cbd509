/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "github.com/humaidq/tally/logging"

var logger = logging.Logger(logging.SourceDB)
