// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads sortviz configuration.
//
// Configuration comes from three layers, later layers winning: built-in
// defaults, an optional YAML file, and SORTVIZ_* environment variables. The
// result is validated before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/sortviz/services/sortviz/telemetry"
)

// MaxFileSize bounds the size of a configuration file.
const MaxFileSize = 1 << 20

// DefaultDataDir is where traces are stored unless configured otherwise.
const DefaultDataDir = "~/.sortviz/traces"

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "sortviz.yaml"

// ErrInvalidConfig is returned when configuration cannot be parsed or fails
// validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete sortviz configuration.
type Config struct {
	Logging   LoggingConfig    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Storage   StorageConfig    `yaml:"storage"`
	Server    ServerConfig     `yaml:"server"`
	Render    RenderConfig     `yaml:"render"`
	Limits    LimitsConfig     `yaml:"limits"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error DEBUG INFO WARN ERROR"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// StorageConfig configures trace persistence.
type StorageConfig struct {
	// Dir is the badger directory. "~" is expanded.
	Dir string `yaml:"dir" validate:"required_unless=InMemory true"`

	// InMemory keeps traces in memory only. Dir is ignored.
	InMemory bool `yaml:"in_memory"`

	// GCSBucket enables uploading exported traces. Empty disables it.
	GCSBucket string `yaml:"gcs_bucket"`

	// GCSPrefix is prepended to uploaded object names.
	GCSPrefix string `yaml:"gcs_prefix"`

	// GCSCredentialsFile points at a service account key. Empty uses
	// application default credentials.
	GCSCredentialsFile string `yaml:"gcs_credentials_file"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address           string        `yaml:"address" validate:"required,hostname_port"`
	StepsPerSecond    float64       `yaml:"steps_per_second" validate:"gt=0"`
	StreamBurst       int           `yaml:"stream_burst" validate:"min=1"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// RenderConfig configures terminal output.
type RenderConfig struct {
	// MaxSteps caps the number of steps printed. 0 prints all.
	MaxSteps int `yaml:"max_steps" validate:"min=0"`

	// Color is "auto", "always" or "never".
	Color string `yaml:"color" validate:"oneof=auto always never"`
}

// LimitsConfig bounds work accepted from callers.
type LimitsConfig struct {
	// MaxInputSize is the largest dataset a run accepts.
	MaxInputSize int `yaml:"max_input_size" validate:"min=1"`
}

// ResolvedDir returns Dir with a leading "~" replaced by the home directory.
func (s StorageConfig) ResolvedDir() (string, error) {
	if s.Dir != "~" && !strings.HasPrefix(s.Dir, "~/") {
		return s.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve storage dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(s.Dir, "~")), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Telemetry: telemetry.DefaultConfig(),
		Storage:   StorageConfig{Dir: DefaultDataDir},
		Server: ServerConfig{
			Address:           "127.0.0.1:8088",
			StepsPerSecond:    20,
			StreamBurst:       1,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Render: RenderConfig{MaxSteps: 50, Color: "auto"},
		Limits: LimitsConfig{MaxInputSize: 10000},
	}
}

// Load builds the configuration from defaults, the file at path and the
// environment.
//
// Description:
//
//	When path is empty, SORTVIZ_CONFIG is consulted, then DefaultFileName in
//	the working directory. A missing default file is not an error; a missing
//	explicit file is.
//
// Inputs:
//
//	path - Optional YAML file path.
//
// Outputs:
//
//	Config - The validated configuration.
//	error - Wraps ErrInvalidConfig on parse or validation failure.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("SORTVIZ_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultFileName
	}

	data, err := readFile(path)
	switch {
	case err == nil:
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. The
// environment is not consulted.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrInvalidConfig, path, info.Size(), MaxFileSize)
	}
	return os.ReadFile(abs)
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overlays SORTVIZ_* variables.
func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("SORTVIZ_LOG_LEVEL", &cfg.Logging.Level)
	setString("SORTVIZ_LOG_DIR", &cfg.Logging.Dir)
	setString("SORTVIZ_DATA_DIR", &cfg.Storage.Dir)
	setString("SORTVIZ_GCS_BUCKET", &cfg.Storage.GCSBucket)
	setString("SORTVIZ_ADDR", &cfg.Server.Address)
	setString("SORTVIZ_COLOR", &cfg.Render.Color)

	if v := os.Getenv("SORTVIZ_MAX_INPUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SORTVIZ_MAX_INPUT=%q: %v", ErrInvalidConfig, v, err)
		}
		cfg.Limits.MaxInputSize = n
	}
	if v := os.Getenv("SORTVIZ_STEPS_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: SORTVIZ_STEPS_PER_SECOND=%q: %v", ErrInvalidConfig, v, err)
		}
		cfg.Server.StepsPerSecond = f
	}
	return nil
}
