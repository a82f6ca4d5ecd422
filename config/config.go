package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"rolebot/core/log"
)

// Reaction ingestion channels; exactly one is authoritative
const (
	ReactionSourceRaw        = "raw"
	ReactionSourceNormalized = "normalized"
)

type DiscordConfig struct {
	BotToken      string
	PublicKey     string
	ApplicationID string
}

type RelayConfig struct {
	GatewayURL  string
	APIKey      string
	SendTimeout time.Duration
}

// IsConfigured returns true if the relay gateway can be reached
func (c RelayConfig) IsConfigured() bool {
	return c.GatewayURL != ""
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// IsConfigured returns true if an SMTP host is set; credentials may come per message
func (c MailConfig) IsConfigured() bool {
	return c.Host != ""
}

type AppConfig struct {
	Port                string
	CORSAllowedOrigins  string
	Environment         string
	LogLevel            string
	SlackAlertWebhook   string
	ServerLogsURL       string
	ReactionEventSource string
	RoleBindingsFile    string
	RoleMenuTitle       string
	DeferredWorkers     int

	DiscordConfig DiscordConfig
	RelayConfig   RelayConfig
	MailConfig    MailConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn("⚠️ Could not load .env file, continuing with system env vars")
	}

	botToken, err := getEnvRequired("DISCORD_TOKEN")
	if err != nil {
		return nil, err
	}

	publicKey, err := getEnvRequired("DISCORD_PUBLIC_KEY")
	if err != nil {
		return nil, err
	}

	applicationID, err := getEnvRequired("DISCORD_CLIENT_ID")
	if err != nil {
		return nil, err
	}

	deferredWorkers, err := getEnvInt("DEFERRED_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	if deferredWorkers < 1 {
		return nil, fmt.Errorf("DEFERRED_WORKERS must be at least 1, got %d", deferredWorkers)
	}

	smtpPort, err := getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	sendTimeout, err := time.ParseDuration(getEnvWithDefault("RELAY_SEND_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("RELAY_SEND_TIMEOUT is not a valid duration: %w", err)
	}

	reactionSource := strings.ToLower(getEnvWithDefault("REACTION_EVENT_SOURCE", ReactionSourceRaw))
	if reactionSource != ReactionSourceRaw && reactionSource != ReactionSourceNormalized {
		return nil, fmt.Errorf("REACTION_EVENT_SOURCE must be %q or %q, got %q",
			ReactionSourceRaw, ReactionSourceNormalized, reactionSource)
	}

	config := &AppConfig{
		Port:                getEnvWithDefault("PORT", "3000"),
		CORSAllowedOrigins:  getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:         getEnvWithDefault("ENVIRONMENT", "dev"),
		LogLevel:            getEnvWithDefault("LOG_LEVEL", "info"),
		SlackAlertWebhook:   os.Getenv("SLACK_ALERT_WEBHOOK_URL"),
		ServerLogsURL:       os.Getenv("SERVER_LOGS_URL"),
		ReactionEventSource: reactionSource,
		RoleBindingsFile:    os.Getenv("ROLE_BINDINGS_FILE"),
		RoleMenuTitle:       getEnvWithDefault("ROLE_MENU_TITLE", "🎯 Sistema de Roles de Reunión"),
		DeferredWorkers:     deferredWorkers,

		DiscordConfig: DiscordConfig{
			BotToken:      botToken,
			PublicKey:     publicKey,
			ApplicationID: applicationID,
		},

		RelayConfig: RelayConfig{
			GatewayURL:  os.Getenv("RELAY_GATEWAY_URL"),
			APIKey:      os.Getenv("RELAY_GATEWAY_API_KEY"),
			SendTimeout: sendTimeout,
		},

		MailConfig: MailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
	}

	if config.RelayConfig.IsConfigured() {
		log.Info("✅ Relay gateway configured")
	} else {
		log.Warn("⚠️ Relay gateway not configured - whatsapp commands will report failure")
	}

	if config.MailConfig.IsConfigured() {
		log.Info("✅ Mail transport configured")
	} else {
		log.Warn("⚠️ Mail transport not configured - email commands will report failure")
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}
