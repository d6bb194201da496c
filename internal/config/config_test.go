package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/musicnerd/musicnerd/internal/constants"
)

func validConfig() Config {
	return Config{
		Port:            "8080",
		DBPath:          "test.db",
		LogLevel:        "info",
		LogFormat:       "text",
		Env:             constants.EnvDevelopment,
		SpotifyAPIURL:   constants.DefaultSpotifyAPIURL,
		SpotifyTokenURL: constants.DefaultSpotifyTokenURL,
		OpenAIBaseURL:   constants.DefaultOpenAIBaseURL,
		NotifyCooldown:  constants.DefaultNotifyCooldown,
		SessionTTL:      constants.DefaultSessionTTL,
		ProbeTimeout:    constants.DefaultProbeTimeout,
	}
}

func TestLoad(t *testing.T) {
	cfg := Load()

	if cfg.Port != constants.DefaultPort {
		t.Errorf("Expected Port to be %s, got %s", constants.DefaultPort, cfg.Port)
	}

	if cfg.DBPath != constants.DefaultDBPath {
		t.Errorf("Expected DBPath to be %s, got %s", constants.DefaultDBPath, cfg.DBPath)
	}

	if cfg.NotifyCooldown != constants.DefaultNotifyCooldown {
		t.Errorf("Expected NotifyCooldown to be %v, got %v", constants.DefaultNotifyCooldown, cfg.NotifyCooldown)
	}

	if cfg.ProbeTimeout != constants.DefaultProbeTimeout {
		t.Errorf("Expected ProbeTimeout to be %v, got %v", constants.DefaultProbeTimeout, cfg.ProbeTimeout)
	}

	if cfg.DisableWalletRequirement {
		t.Error("Expected DisableWalletRequirement to default to false")
	}
}

func TestLoadWithEnvVars(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("DISCORD_COOLDOWN_SECONDS", "60")
	t.Setenv("DISABLE_WALLET_REQUIREMENT", "true")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SIWE_DOMAIN", " musicnerd.xyz ")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Expected Port to be 9090, got %s", cfg.Port)
	}

	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("Expected DBPath to be /tmp/test.db, got %s", cfg.DBPath)
	}

	if cfg.NotifyCooldown != time.Minute {
		t.Errorf("Expected NotifyCooldown to be 1m, got %v", cfg.NotifyCooldown)
	}

	if !cfg.DisableWalletRequirement {
		t.Error("Expected DisableWalletRequirement to be true")
	}

	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("Expected SessionTTL to be 2h, got %v", cfg.SessionTTL)
	}

	if cfg.SIWEDomain != "musicnerd.xyz" {
		t.Errorf("Expected SIWEDomain to be musicnerd.xyz, got %q", cfg.SIWEDomain)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("MUSICNERD_DOTENV_PROBE=loaded\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("MUSICNERD_DOTENV_PROBE") })

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("MUSICNERD_DOTENV_PROBE"); got != "loaded" {
		t.Errorf("Expected MUSICNERD_DOTENV_PROBE=loaded, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("Expected missing file to be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty port",
			mutate:  func(c *Config) { c.Port = "" },
			wantErr: "PORT cannot be empty",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantErr: "PORT must be between 1 and 65535",
		},
		{
			name:    "spotify api url without trailing slash",
			mutate:  func(c *Config) { c.SpotifyAPIURL = "https://api.spotify.com/v1" },
			wantErr: "SPOTIFY_API_URL must end with '/'",
		},
		{
			name:    "negative cooldown",
			mutate:  func(c *Config) { c.NotifyCooldown = -time.Second },
			wantErr: "DISCORD_COOLDOWN_SECONDS cannot be negative",
		},
		{
			name: "production without secret",
			mutate: func(c *Config) {
				c.Env = constants.EnvProduction
			},
			wantErr: "SESSION_SECRET must be at least 32 characters",
		},
		{
			name: "guest mode in production",
			mutate: func(c *Config) {
				c.Env = constants.EnvProduction
				c.SessionSecret = strings.Repeat("s", 32)
				c.DisableWalletRequirement = true
			},
			wantErr: "DISABLE_WALLET_REQUIREMENT cannot be set in production",
		},
		{
			name: "production without siwe domain",
			mutate: func(c *Config) {
				c.Env = constants.EnvProduction
				c.SessionSecret = strings.Repeat("s", 32)
			},
			wantErr: "SIWE_DOMAIN is required in production",
		},
		{
			name: "production with siwe domain",
			mutate: func(c *Config) {
				c.Env = constants.EnvProduction
				c.SessionSecret = strings.Repeat("s", 32)
				c.SIWEDomain = "musicnerd.xyz"
				c.SIWEURI = "https://musicnerd.xyz"
			},
		},
		{
			name:    "relative siwe uri",
			mutate:  func(c *Config) { c.SIWEURI = "musicnerd.xyz/login" },
			wantErr: "SIWE_URI must be an absolute URL",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "LOG_LEVEL must be one of",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			wantErr: "LOG_FORMAT must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = ""
	cfg.DBPath = ""
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, want := range []string{"PORT", "DB_PATH", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %s, got %v", want, err)
		}
	}
}

func TestGuestModeEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.DisableWalletRequirement = true
	if !cfg.GuestModeEnabled() {
		t.Error("Expected guest mode outside production")
	}

	cfg.Env = constants.EnvProduction
	if cfg.GuestModeEnabled() {
		t.Error("Expected guest mode to be refused in production")
	}
}
