// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package config reads CRYPTOKIT_* settings from the environment and
// from the nearest .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/golang-auth/go-cryptokit/sasl"
)

const prefix = "CRYPTOKIT_"

type Config struct {
	// LogLevel is a zap level name: debug, info, warn or error.
	LogLevel string
	// LogDevelopment selects the human readable console encoder.
	LogDevelopment bool

	// AppName is passed to SASL mechanisms.
	AppName string

	UserDBPath string

	SASLAllowPlain     bool
	SASLAllowAnonymous bool
	SASLMinSSF         int
	SASLMaxSSF         int

	MetricsNamespace string
}

func Load() *Config {
	loadDotEnv()

	return &Config{
		LogLevel:       env.GetString(prefix+"LOG_LEVEL", "info"),
		LogDevelopment: env.GetBool(prefix+"LOG_DEVELOPMENT", false),

		AppName: env.GetString(prefix+"APP_NAME", "cryptokit"),

		UserDBPath: env.GetString(prefix+"USERDB_PATH", "users.toml"),

		SASLAllowPlain:     env.GetBool(prefix+"SASL_ALLOW_PLAIN", false),
		SASLAllowAnonymous: env.GetBool(prefix+"SASL_ALLOW_ANONYMOUS", false),
		SASLMinSSF:         env.GetInt(prefix+"SASL_MIN_SSF", 0),
		SASLMaxSSF:         env.GetInt(prefix+"SASL_MAX_SSF", 256),

		MetricsNamespace: env.GetString(prefix+"METRICS_NAMESPACE", "cryptokit"),
	}
}

// Logger builds a zap logger at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	zc := zap.NewProductionConfig()
	if c.LogDevelopment {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}

// ConfigureSASL applies the SASL policy settings to s.
func (c *Config) ConfigureSASL(s *sasl.Session) {
	s.SetAllowPlain(c.SASLAllowPlain)
	s.SetAllowAnonymous(c.SASLAllowAnonymous)
	s.SetMinimumSSF(c.SASLMinSSF)
	s.SetMaximumSSF(c.SASLMaxSSF)
}

// loadDotEnv loads the first .env file found walking up from the
// working directory.  Variables already set are not overridden.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	for {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
