// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SORTVIZ_CONFIG", "SORTVIZ_LOG_LEVEL", "SORTVIZ_LOG_DIR", "SORTVIZ_DATA_DIR",
		"SORTVIZ_GCS_BUCKET", "SORTVIZ_ADDR", "SORTVIZ_COLOR", "SORTVIZ_MAX_INPUT",
		"SORTVIZ_STEPS_PER_SECOND", "OTEL_TRACES_EXPORTER", "OTEL_METRICS_EXPORTER",
	} {
		t.Setenv(key, "")
	}
}

func TestDefault_IsValid(t *testing.T) {
	clearEnv(t)
	require.NoError(t, Default().Validate())
}

func TestParse_OverridesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(`
logging:
  level: debug
server:
  address: "0.0.0.0:9000"
  read_header_timeout: 2s
render:
  max_steps: 0
  color: never
limits:
  max_input_size: 500
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Address)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, 0, cfg.Render.MaxSteps)
	assert.Equal(t, "never", cfg.Render.Color)
	assert.Equal(t, 500, cfg.Limits.MaxInputSize)
	// untouched sections keep defaults
	assert.Equal(t, float64(20), cfg.Server.StepsPerSecond)
	assert.Equal(t, "sortviz", cfg.Telemetry.ServiceName)
}

func TestParse_Empty(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Invalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "server:\n  port: 80\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"bad color", "render:\n  color: rainbow\n"},
		{"zero max input", "limits:\n  max_input_size: 0\n"},
		{"bad address", "server:\n  address: nowhere\n"},
		{"bad exporter", "telemetry:\n  trace_exporter: zipkin\n"},
		{"not yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_input_size: 42\nstorage:\n  dir: /tmp/traces\n"), 0o600))

	t.Setenv("SORTVIZ_DATA_DIR", "/var/lib/sortviz")
	t.Setenv("SORTVIZ_STEPS_PER_SECOND", "5.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Limits.MaxInputSize)
	assert.Equal(t, "/var/lib/sortviz", cfg.Storage.Dir)
	assert.Equal(t, 5.5, cfg.Server.StepsPerSecond)
}

func TestLoad_ConfigEnvVar(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render:\n  max_steps: 7\n"), 0o600))
	t.Setenv("SORTVIZ_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Render.MaxSteps)
}

func TestLoad_MissingFiles(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err, "a missing default file falls back to defaults")
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_BadEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("SORTVIZ_MAX_INPUT", "lots")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_TooLarge(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "big.yaml")
	require.NoError(t, os.WriteFile(path, make([]byte, MaxFileSize+1), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStorageConfig_ResolvedDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	dir, err := StorageConfig{Dir: "~/.sortviz/traces"}.ResolvedDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".sortviz", "traces"), dir)

	dir, err = StorageConfig{Dir: "/srv/traces"}.ResolvedDir()
	require.NoError(t, err)
	assert.Equal(t, "/srv/traces", dir)
}

func TestValidate_StorageDir(t *testing.T) {
	cfg := Default()
	cfg.Storage.Dir = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.Storage.InMemory = true
	assert.NoError(t, cfg.Validate())
}
