package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.LogLevel)
				assert.False(t, cfg.LogDevelopment)
				assert.Equal(t, "cryptokit", cfg.AppName)
				assert.Equal(t, "users.toml", cfg.UserDBPath)
				assert.False(t, cfg.SASLAllowPlain)
				assert.False(t, cfg.SASLAllowAnonymous)
				assert.Equal(t, 0, cfg.SASLMinSSF)
				assert.Equal(t, 256, cfg.SASLMaxSSF)
				assert.Equal(t, "cryptokit", cfg.MetricsNamespace)
			},
		},
		{
			name: "sasl policy",
			envVars: map[string]string{
				"CRYPTOKIT_SASL_ALLOW_PLAIN":     "true",
				"CRYPTOKIT_SASL_ALLOW_ANONYMOUS": "true",
				"CRYPTOKIT_SASL_MIN_SSF":         "56",
				"CRYPTOKIT_SASL_MAX_SSF":         "128",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.SASLAllowPlain)
				assert.True(t, cfg.SASLAllowAnonymous)
				assert.Equal(t, 56, cfg.SASLMinSSF)
				assert.Equal(t, 128, cfg.SASLMaxSSF)
			},
		},
		{
			name: "logging and paths",
			envVars: map[string]string{
				"CRYPTOKIT_LOG_LEVEL":         "debug",
				"CRYPTOKIT_LOG_DEVELOPMENT":   "true",
				"CRYPTOKIT_APP_NAME":          "mailer",
				"CRYPTOKIT_USERDB_PATH":       "/etc/cryptokit/users.toml",
				"CRYPTOKIT_METRICS_NAMESPACE": "mailer",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.True(t, cfg.LogDevelopment)
				assert.Equal(t, "mailer", cfg.AppName)
				assert.Equal(t, "/etc/cryptokit/users.toml", cfg.UserDBPath)
				assert.Equal(t, "mailer", cfg.MetricsNamespace)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			tt.validate(t, Load())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CRYPTOKIT_APP_NAME=from-dotenv\n"), 0o600))
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(sub))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// make sure the variable is unset and restored afterwards
	t.Setenv("CRYPTOKIT_APP_NAME", "")
	require.NoError(t, os.Unsetenv("CRYPTOKIT_APP_NAME"))

	assert.Equal(t, "from-dotenv", Load().AppName)
}

func TestLogger(t *testing.T) {
	cfg := &Config{LogLevel: "warn"}
	l, err := cfg.Logger()
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	cfg = &Config{LogLevel: "debug", LogDevelopment: true}
	l, err = cfg.Logger()
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	cfg.LogLevel = "loud"
	_, err = cfg.Logger()
	assert.Error(t, err)
}
