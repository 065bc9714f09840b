package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ajstudioz?sslmode=disable")
	t.Setenv("SESSION_SECRET", "session-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3, cfg.UnauthDailyLimit)
	assert.Equal(t, 100, cfg.DailyMessageLimit)
	assert.Equal(t, 10000, cfg.EntitlementCacheSize)
	assert.Equal(t, 24*time.Hour, cfg.ResponseCacheTTL)
	assert.Equal(t, 30, cfg.ProPeriodDays)
	assert.False(t, cfg.CashfreeProduction)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "no database url",
			env:     map[string]string{"DATABASE_URL": "", "SESSION_SECRET": "x"},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "no session secret",
			env:     map[string]string{"DATABASE_URL": "postgres://x", "SESSION_SECRET": ""},
			wantErr: "SESSION_SECRET is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingProviderKeysDoNotFail(t *testing.T) {
	setRequired(t)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "gsk-live-1")

	cfg, err := Load()
	require.NoError(t, err)

	keys := cfg.ProviderKeys()
	assert.Equal(t, "", keys["openai"])
	assert.Equal(t, "gsk-live-1", keys["groq"])

	// Each call hands out an independent map.
	keys["groq"] = "mutated"
	assert.Equal(t, "gsk-live-1", cfg.ProviderKeys()["groq"])
}

func TestLoad_AdminAlertEmails(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_ALERT_EMAILS", " ops@ajstudioz.com, ,billing@ajstudioz.com ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@ajstudioz.com", "billing@ajstudioz.com"}, cfg.AdminAlertEmails)
}
