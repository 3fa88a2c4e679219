package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads; viper treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "APP_ENV", "LOG_LEVEL", "DATABASE_DRIVER", "DATABASE_PATH",
		"NOTES_DATABASE_HOST", "NOTES_DATABASE_PORT", "NOTES_DATABASE_USER",
		"NOTES_DATABASE_PASSWORD", "NOTES_DATABASE_NAME", "NOTES_DATABASE_SSL",
		"NOTES_DATABASE_MAX_CONNS", "JWT_SECRET", "JWT_EXPIRES_IN", "BCRYPT_COST",
		"AUTH_RATE_LIMIT_RPS", "AUTH_RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS",
		"MAINTENANCE_SCHEDULE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "./notes.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenLifetime)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "@daily", cfg.MaintenanceSchedule)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_DRIVER", "POSTGRES")
	t.Setenv("NOTES_DATABASE_HOST", "db.internal")
	t.Setenv("NOTES_DATABASE_PORT", "6543")
	t.Setenv("NOTES_DATABASE_SSL", "true")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("MAINTENANCE_SCHEDULE", "off")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.Database.SSL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenLifetime)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.MaintenanceSchedule)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "notes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: 7070\nBCRYPT_COST: 12\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Run("driver", func(t *testing.T) {
		t.Setenv("DATABASE_DRIVER", "mysql")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("lifetime", func(t *testing.T) {
		t.Setenv("JWT_EXPIRES_IN", "forever")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("port", func(t *testing.T) {
		t.Setenv("PORT", "0")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestParseLifetime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "1d", want: 24 * time.Hour},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: "90m", want: 90 * time.Minute},
		{in: "3600", want: time.Hour},
		{in: " 2h ", want: 2 * time.Hour},
		{in: "", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-1h", wantErr: true},
		{in: "xd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLifetime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
