// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"
)

func runConfigCommand(t *testing.T, args ...string) (serverConfig, error) {
	t.Helper()

	var (
		config  serverConfig
		loadErr error
	)

	cmd := &cli.Command{
		Name:  "start",
		Flags: startFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			config, loadErr = loadServerConfig(cmd)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), append([]string{"start"}, args...)); err != nil {
		t.Fatalf("failed to run command: %v", err)
	}

	return config, loadErr
}

func TestParseRuntimeEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		want    runtimeEnv
		wantErr bool
	}{
		{value: "", want: envDevelopment},
		{value: "dev", want: envDevelopment},
		{value: " Development ", want: envDevelopment},
		{value: "prod", want: envProduction},
		{value: "PRODUCTION", want: envProduction},
		{value: "staging", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseRuntimeEnv(tt.value)
		if tt.wantErr {
			if !errors.Is(err, errInvalidRuntimeEnv) {
				t.Fatalf("parseRuntimeEnv(%q) error = %v, want %v", tt.value, err, errInvalidRuntimeEnv)
			}

			continue
		}

		if err != nil {
			t.Fatalf("parseRuntimeEnv(%q) unexpected error: %v", tt.value, err)
		}

		if got != tt.want {
			t.Fatalf("parseRuntimeEnv(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestLoadServerConfigRequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	_, err := runConfigCommand(t, "--database-url= ", "--port=8080", "--env=development")
	if !errors.Is(err, errDatabaseURLRequired) {
		t.Fatalf("expected %v, got %v", errDatabaseURLRequired, err)
	}
}

func TestLoadServerConfigRequiresCSRFSecretInProduction(t *testing.T) {
	t.Parallel()

	_, err := runConfigCommand(t,
		"--database-url=postgres://localhost/tally",
		"--port=8080",
		"--csrf-secret= ",
		"--env=production",
	)
	if !errors.Is(err, errCSRFSecretRequired) {
		t.Fatalf("expected %v, got %v", errCSRFSecretRequired, err)
	}
}

func TestLoadServerConfigTrimsCSRFSecret(t *testing.T) {
	t.Parallel()

	config, err := runConfigCommand(t,
		"--database-url=postgres://localhost/tally",
		"--port=8080",
		"--csrf-secret=  s3cret ",
		"--env=production",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.CSRFSecret != "s3cret" {
		t.Fatalf("expected trimmed csrf secret, got %q", config.CSRFSecret)
	}
}

func TestLoadServerConfigDevelopmentDefaults(t *testing.T) {
	t.Parallel()

	config, err := runConfigCommand(t,
		"--database-url=postgres://localhost/tally",
		"--port=9090",
		"--csrf-secret= ",
		"--kafka-brokers=kafka-1:9092, kafka-2:9092,",
		"--kafka-topic= ",
		"--allow-registration",
		"--env=dev",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", config.Port)
	}

	if config.CSRFSecret == "" {
		t.Fatal("expected development csrf secret fallback")
	}

	if config.isProduction() {
		t.Fatal("expected development environment")
	}

	if len(config.KafkaBrokers) != 2 || config.KafkaBrokers[0] != "kafka-1:9092" || config.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected kafka brokers %v", config.KafkaBrokers)
	}

	if config.KafkaTopic != defaultKafkaTopic {
		t.Fatalf("expected default kafka topic, got %q", config.KafkaTopic)
	}

	if !config.AllowRegistration {
		t.Fatal("expected registration to be allowed")
	}
}

func TestLoadDotEnvKeepsExistingVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")

	content := "TALLY_TEST_FROM_FILE=file\nTALLY_TEST_PRESET=file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	t.Setenv("TALLY_TEST_PRESET", "process")
	t.Cleanup(func() {
		_ = os.Unsetenv("TALLY_TEST_FROM_FILE")
	})

	LoadDotEnv(filepath.Join(dir, "missing.env"), path)

	if got := os.Getenv("TALLY_TEST_FROM_FILE"); got != "file" {
		t.Fatalf("expected value from env file, got %q", got)
	}

	if got := os.Getenv("TALLY_TEST_PRESET"); got != "process" {
		t.Fatalf("expected process value to win, got %q", got)
	}
}
