package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Env        string
	LogLevel   string
	ClinicName string

	// Model collaborator
	LLMProvider         string
	LLMFallbackProvider string
	LLMTemperature      float32
	LLMTimeout          time.Duration
	GeminiAPIKey        string
	GeminiModelID       string
	BedrockModelID      string

	// AWS (Bedrock, SES)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Persistence
	StoreBackend   string
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	RedisKeyPrefix string
	DatabaseURL    string
	// DeskID scopes persisted rows so several front desks can share a database.
	DeskID string

	// Notification settings used until the store holds saved values
	AdminPhone  string
	AutoSend    bool
	NotifyDelay time.Duration

	// Report e-mail
	NotifyEmailProvider   string
	NotifyEmailRecipients []string
	SendGridAPIKey        string
	SendGridFromEmail     string
	SendGridFromName      string
	SESFromEmail          string

	MetricsEnabled bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:        getEnv("ENV", "development"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		ClinicName: getEnv("CLINIC_NAME", "City Hospital"),

		LLMProvider:         strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "gemini"))),
		LLMFallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_PROVIDER", ""))),
		LLMTemperature:      getEnvAsFloat("LLM_TEMPERATURE", 0.4),
		LLMTimeout:          getEnvAsDuration("LLM_TIMEOUT", 0),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:       getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		StoreBackend:   strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", "memory"))),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "mediassist"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DeskID:         getEnv("DESK_ID", "front-desk"),

		AdminPhone:  getEnv("ADMIN_PHONE", ""),
		AutoSend:    getEnvAsBool("AUTO_SEND", false),
		NotifyDelay: getEnvAsDuration("NOTIFY_DELAY", time.Second),

		NotifyEmailProvider:   strings.ToLower(strings.TrimSpace(getEnv("NOTIFY_EMAIL_PROVIDER", "none"))),
		NotifyEmailRecipients: getEnvAsList("NOTIFY_EMAIL_RECIPIENTS"),
		SendGridAPIKey:        getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:     getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:      getEnv("SENDGRID_FROM_NAME", "MediAssist"),
		SESFromEmail:          getEnv("SES_FROM_EMAIL", ""),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
