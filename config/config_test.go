package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "bot-token")
	t.Setenv("DISCORD_PUBLIC_KEY", "abcdef")
	t.Setenv("DISCORD_CLIENT_ID", "123456789")

	for _, key := range []string{
		"PORT", "ENVIRONMENT", "REACTION_EVENT_SOURCE", "ROLE_MENU_TITLE", "DEFERRED_WORKERS",
		"SMTP_HOST", "SMTP_PORT", "RELAY_GATEWAY_URL", "RELAY_SEND_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, ReactionSourceRaw, cfg.ReactionEventSource)
	assert.Equal(t, "🎯 Sistema de Roles de Reunión", cfg.RoleMenuTitle)
	assert.Equal(t, 4, cfg.DeferredWorkers)
	assert.Equal(t, 587, cfg.MailConfig.Port)
	assert.Equal(t, 60*time.Second, cfg.RelayConfig.SendTimeout)
	assert.False(t, cfg.RelayConfig.IsConfigured())
	assert.False(t, cfg.MailConfig.IsConfigured())
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		errText string
	}{
		{name: "missing token", unset: "DISCORD_TOKEN", errText: "DISCORD_TOKEN is not set"},
		{name: "missing public key", unset: "DISCORD_PUBLIC_KEY", errText: "DISCORD_PUBLIC_KEY is not set"},
		{name: "missing client id", unset: "DISCORD_CLIENT_ID", errText: "DISCORD_CLIENT_ID is not set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			cfg, err := LoadConfig()
			assert.Nil(t, cfg)
			assert.EqualError(t, err, tt.errText)
		})
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		errText string
	}{
		{name: "bad reaction source", key: "REACTION_EVENT_SOURCE", value: "both", errText: "REACTION_EVENT_SOURCE must be"},
		{name: "bad worker count", key: "DEFERRED_WORKERS", value: "zero", errText: "DEFERRED_WORKERS must be an integer"},
		{name: "non positive workers", key: "DEFERRED_WORKERS", value: "0", errText: "DEFERRED_WORKERS must be at least 1"},
		{name: "bad smtp port", key: "SMTP_PORT", value: "x", errText: "SMTP_PORT must be an integer"},
		{name: "bad send timeout", key: "RELAY_SEND_TIMEOUT", value: "soon", errText: "RELAY_SEND_TIMEOUT is not a valid duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestLoadConfig_OptionalSections(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REACTION_EVENT_SOURCE", "NORMALIZED")
	t.Setenv("RELAY_GATEWAY_URL", "http://relay:8080")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ReactionSourceNormalized, cfg.ReactionEventSource)
	assert.True(t, cfg.RelayConfig.IsConfigured())
	assert.True(t, cfg.MailConfig.IsConfigured())
	assert.Equal(t, 2525, cfg.MailConfig.Port)
}
