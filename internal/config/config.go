// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package config loads service configuration from an optional YAML file with
// command-line flag overrides. Flags win over the file; the file wins over
// defaults.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// Config holds the full service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Tokens   TokenConfig    `koanf:"tokens"`
	TOTP     TOTPConfig     `koanf:"totp"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig configures the observability listener. An empty addr disables
// the metrics server.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// TokenConfig configures JWT signing. The two keys must be non-empty and
// distinct.
type TokenConfig struct {
	AccessKey  string        `koanf:"access_key"`
	RefreshKey string        `koanf:"refresh_key"`
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
}

// TOTPConfig configures second-factor enrollment.
type TOTPConfig struct {
	Issuer string `koanf:"issuer"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Metrics: MetricsConfig{Addr: ":9090"},
		Tokens: TokenConfig{
			AccessTTL:  auth.AccessTokenTTL,
			RefreshTTL: auth.RefreshTokenTTL,
		},
		TOTP: TOTPConfig{Issuer: "gatehouse"},
		Log:  LogConfig{Format: "json", Level: "info"},
	}
}

// Load builds a Config from defaults, an optional YAML file, and flag
// overrides. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_FILE_INVALID").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	return cfg, nil
}

// Validate checks the configuration for the serve command. Signing keys are
// required at startup so misconfiguration fails fast instead of at first
// login.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr cannot be empty")
	}
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}
	if c.Tokens.AccessKey == "" {
		return oops.Code("CONFIG_INVALID").Errorf("tokens.access_key is required")
	}
	if c.Tokens.RefreshKey == "" {
		return oops.Code("CONFIG_INVALID").Errorf("tokens.refresh_key is required")
	}
	if c.Tokens.AccessKey == c.Tokens.RefreshKey {
		return oops.Code("CONFIG_INVALID").Errorf("tokens.access_key and tokens.refresh_key must differ")
	}
	if c.Tokens.AccessTTL <= 0 || c.Tokens.RefreshTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("token lifetimes must be positive")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be json or text")
	}
	return nil
}
