package config

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LINKEDIN_CLIENT_ID", "client-id")
	t.Setenv("LINKEDIN_CLIENT_SECRET", "client-secret")
	t.Setenv("LINKEDIN_REDIRECT_URI", "https://app.example/auth/callback")
	t.Setenv("COOKIE_SIGNING_KEY", "test-signing-key-32-bytes-long!!")
	t.Setenv("COOKIE_SEALING_KEY", "test-sealing-key-32-bytes-long!!")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "client-id", cfg.ClientID)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "openid profile w_member_social email", cfg.Scopes)
	assert.Equal(t, "https://www.linkedin.com/oauth/v2/authorization", cfg.AuthURL)
	assert.Equal(t, "202502", cfg.APIVersion)
	assert.Equal(t, 1440*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.HandshakeTTL)
	assert.Equal(t, "/success.html", cfg.DefaultReturnPath)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_TTL", "24h")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_MissingRequired(t *testing.T) {
	vars := []string{
		"LINKEDIN_CLIENT_ID",
		"LINKEDIN_CLIENT_SECRET",
		"LINKEDIN_REDIRECT_URI",
		"COOKIE_SIGNING_KEY",
		"COOKIE_SEALING_KEY",
	}
	for _, missing := range vars {
		t.Run(missing, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(missing, "")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestValidate_ShortKeys(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COOKIE_SIGNING_KEY", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("super-secret")
	assert.Equal(t, "***", s.String())
	assert.Equal(t, "***", fmt.Sprintf("%v", s))

	data, err := json.Marshal(struct {
		Key Secret `json:"key"`
	}{Key: s})
	require.NoError(t, err)
	assert.Equal(t, `{"key":"***"}`, string(data))

	assert.Equal(t, "", Secret("").String())
}
