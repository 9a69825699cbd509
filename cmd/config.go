/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/tally/events"
)

const (
	runtimeEnvVar     = "TALLY_ENV"
	defaultKafkaTopic = "tally.events"
)

type runtimeEnv string

const (
	envDevelopment runtimeEnv = "development"
	envProduction  runtimeEnv = "production"
)

// serverConfig is the resolved configuration of the start command.
type serverConfig struct {
	Port              string
	DatabaseURL       string
	CSRFSecret        string
	VaultSecret       string
	RedisAddr         string
	KafkaBrokers      []string
	KafkaTopic        string
	AllowRegistration bool
	Env               runtimeEnv
}

func (c serverConfig) isProduction() bool {
	return c.Env == envProduction
}

// LoadDotEnv reads .env files into the process environment. Variables that
// are already set win over the files.
func LoadDotEnv(files ...string) {
	existing := make([]string, 0, len(files))

	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}

	if len(existing) == 0 {
		return
	}

	if err := godotenv.Load(existing...); err != nil {
		appLogger.Warn("Failed to load env file", "files", existing, "error", err)
		return
	}

	appLogger.Info("Loaded env file", "files", existing)
}

func parseRuntimeEnv(value string) (runtimeEnv, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "development", "dev":
		return envDevelopment, nil
	case "production", "prod":
		return envProduction, nil
	default:
		return "", errInvalidRuntimeEnv
	}
}

func loadServerConfig(cmd *cli.Command) (serverConfig, error) {
	env, err := parseRuntimeEnv(cmd.String("env"))
	if err != nil {
		return serverConfig{}, err
	}

	config := serverConfig{
		Port:              strings.TrimSpace(cmd.String("port")),
		DatabaseURL:       strings.TrimSpace(cmd.String("database-url")),
		CSRFSecret:        strings.TrimSpace(cmd.String("csrf-secret")),
		VaultSecret:       cmd.String("vault-secret"),
		RedisAddr:         strings.TrimSpace(cmd.String("redis-addr")),
		KafkaBrokers:      events.ParseBrokers(cmd.String("kafka-brokers")),
		KafkaTopic:        strings.TrimSpace(cmd.String("kafka-topic")),
		AllowRegistration: cmd.Bool("allow-registration"),
		Env:               env,
	}

	if config.DatabaseURL == "" {
		return serverConfig{}, errDatabaseURLRequired
	}

	if config.CSRFSecret == "" {
		if config.isProduction() {
			return serverConfig{}, errCSRFSecretRequired
		}

		appLogger.Warn("CSRF_SECRET is not set, using a development secret")
		config.CSRFSecret = "tally-development-csrf-secret"
	}

	if config.KafkaTopic == "" {
		config.KafkaTopic = defaultKafkaTopic
	}

	if config.Port == "" {
		return serverConfig{}, errPortRequired
	}

	return config, nil
}
