package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "BENCH_API_URL", "CHAT_POLL_INTERVAL", "CHAT_PAGE_SIZE", "CHAT_HTTP_TIMEOUT", "CHAT_PUSH_ENABLED", "LOG_LEVEL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, float64(DefaultRateLimitRPS), cfg.Server.RateLimitRPS)
	assert.Equal(t, DefaultRateLimitBurst, cfg.Server.RateLimitBurst)
	assert.Equal(t, "http://localhost:8080", cfg.Client.BaseURL)
	assert.Equal(t, DefaultPollInterval, cfg.Client.PollInterval)
	assert.Equal(t, DefaultPageSize, cfg.Client.PageSize)
	assert.False(t, cfg.Client.PushEnabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("BENCH_API_URL", "https://api.example.com/")
	t.Setenv("CHAT_POLL_INTERVAL", "3")
	t.Setenv("CHAT_HTTP_TIMEOUT", "500ms")
	t.Setenv("CHAT_PAGE_SIZE", "1000")
	t.Setenv("CHAT_PUSH_ENABLED", "true")
	t.Setenv("BENCH_COMPANY_ID", "acme")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 0.5, cfg.Server.RateLimitRPS)
	assert.Equal(t, 3, cfg.Server.RateLimitBurst)
	assert.Equal(t, "https://api.example.com", cfg.Client.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Client.PollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Client.HTTPTimeout)
	assert.Equal(t, MaxPageSize, cfg.Client.PageSize)
	assert.True(t, cfg.Client.PushEnabled)
	assert.Equal(t, "acme", cfg.Client.Identity.CompanyID)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CHAT_POLL_INTERVAL", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CHAT_POLL_INTERVAL", "")
	t.Setenv("PORT", "80 80")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("PORT", "")
	t.Setenv("RATE_LIMIT_RPS", "-1")
	_, err = Load()
	assert.Error(t, err)
}

func TestClientValidate(t *testing.T) {
	cfg := ClientConfig{BaseURL: "http://localhost:8080"}
	assert.Error(t, cfg.Validate())

	cfg.Token = "dev-acme-alice"
	assert.Error(t, cfg.Validate())

	cfg.Identity.CompanyID = "acme"
	assert.NoError(t, cfg.Validate())
}
