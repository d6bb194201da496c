package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/musicnerd/musicnerd/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string
	Env       string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyAPIURL       string
	SpotifyTokenURL     string

	DiscordWebhookURL string
	NotifyCooldown    time.Duration

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	SessionSecret string
	SessionTTL    time.Duration

	// SIWEDomain is the authority sign-in messages must name; SIWEURI, when set,
	// pins their URI scheme and host.
	SIWEDomain string
	SIWEURI    string

	// DisableWalletRequirement substitutes a fixed guest identity for every request.
	DisableWalletRequirement bool

	RedisURL     string
	ProbeTimeout time.Duration
}

// LoadDotEnv loads a .env file into the process environment if one exists.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", constants.DefaultPort),
		DBPath:    getEnv("DB_PATH", constants.DefaultDBPath),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		Env:       getEnv("APP_ENV", constants.EnvDevelopment),

		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyAPIURL:       getEnv("SPOTIFY_API_URL", constants.DefaultSpotifyAPIURL),
		SpotifyTokenURL:     getEnv("SPOTIFY_TOKEN_URL", constants.DefaultSpotifyTokenURL),

		DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		NotifyCooldown:    getSeconds("DISCORD_COOLDOWN_SECONDS", constants.DefaultNotifyCooldown),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", constants.DefaultOpenAIModel),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", constants.DefaultOpenAIBaseURL),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getDuration("SESSION_TTL", constants.DefaultSessionTTL),

		SIWEDomain: strings.TrimSpace(getEnv("SIWE_DOMAIN", "")),
		SIWEURI:    strings.TrimSpace(getEnv("SIWE_URI", "")),

		DisableWalletRequirement: getBool("DISABLE_WALLET_REQUIREMENT", false),

		RedisURL:     getEnv("REDIS_URL", ""),
		ProbeTimeout: getDuration("PROBE_TIMEOUT", constants.DefaultProbeTimeout),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == constants.EnvProduction
}

// GuestModeEnabled reports whether requests run as the fixed guest identity.
func (c *Config) GuestModeEnabled() bool {
	return c.DisableWalletRequirement && !c.IsProduction()
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	// Validate Port
	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	validEnvs := map[string]bool{
		constants.EnvDevelopment: true,
		constants.EnvProduction:  true,
		"test":                   true,
	}
	if !validEnvs[c.Env] {
		errors = append(errors, fmt.Sprintf("APP_ENV must be one of: development, production, test, got: %s", c.Env))
	}

	for name, raw := range map[string]string{
		"SPOTIFY_API_URL":   c.SpotifyAPIURL,
		"SPOTIFY_TOKEN_URL": c.SpotifyTokenURL,
		"OPENAI_BASE_URL":   c.OpenAIBaseURL,
	} {
		if raw == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be empty", name))
			continue
		}
		if _, err := url.ParseRequestURI(raw); err != nil {
			errors = append(errors, fmt.Sprintf("%s is not a valid URL: %s", name, raw))
		}
	}

	if c.SpotifyAPIURL != "" && !strings.HasSuffix(c.SpotifyAPIURL, "/") {
		errors = append(errors, fmt.Sprintf("SPOTIFY_API_URL must end with '/', got: %s", c.SpotifyAPIURL))
	}

	if c.DiscordWebhookURL != "" {
		if _, err := url.ParseRequestURI(c.DiscordWebhookURL); err != nil {
			errors = append(errors, "DISCORD_WEBHOOK_URL is not a valid URL")
		}
	}

	if c.NotifyCooldown < 0 {
		errors = append(errors, "DISCORD_COOLDOWN_SECONDS cannot be negative")
	}

	if c.ProbeTimeout <= 0 {
		errors = append(errors, "PROBE_TIMEOUT must be positive")
	}

	if c.SessionTTL <= 0 {
		errors = append(errors, "SESSION_TTL must be positive")
	}

	// Production sessions must be signed with a real secret.
	if c.IsProduction() && len(c.SessionSecret) < 32 {
		errors = append(errors, "SESSION_SECRET must be at least 32 characters in production")
	}

	// Without a domain a message signed for any site logs in here.
	if c.IsProduction() && c.SIWEDomain == "" {
		errors = append(errors, "SIWE_DOMAIN is required in production")
	}
	if c.SIWEURI != "" {
		if u, err := url.ParseRequestURI(c.SIWEURI); err != nil || u.Host == "" {
			errors = append(errors, fmt.Sprintf("SIWE_URI must be an absolute URL, got: %s", c.SIWEURI))
		}
	}

	if c.IsProduction() && c.DisableWalletRequirement {
		errors = append(errors, "DISABLE_WALLET_REQUIREMENT cannot be set in production")
	}

	if c.RedisURL != "" {
		if _, err := url.Parse(c.RedisURL); err != nil {
			errors = append(errors, fmt.Sprintf("REDIS_URL is not a valid URL: %s", c.RedisURL))
		}
	}

	// Validate LogLevel
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	// Validate LogFormat
	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return b
}

// getSeconds reads a whole number of seconds. Invalid values map to -1s so Validate reports them.
func getSeconds(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return -time.Second
	}
	return time.Duration(n) * time.Second
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return d
}
