/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/tally/cmd"
	"github.com/humaidq/tally/logging"
)

func main() {
	cmd.LoadDotEnv(".env")

	app := &cli.Command{
		Name:  "tally",
		Usage: "Tally - Personal Finance Tracker",
		Commands: []*cli.Command{
			cmd.CmdStart,
			cmd.CmdMigrate,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logging.Logger(logging.SourceApp).Fatal("Command failed", "error", err)
	}
}
