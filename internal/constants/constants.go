// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort              = "8080"
	DefaultDBPath            = "musicnerd.db"
	DefaultSpotifyAPIURL     = "https://api.spotify.com/v1/"
	DefaultSpotifyTokenURL   = "https://accounts.spotify.com/api/token"
	DefaultSpotifyMarket     = "US"
	DefaultOpenAIBaseURL     = "https://api.openai.com"
	DefaultOpenAIModel       = "gpt-4o-mini"
	DefaultNotifyCooldown    = 900 * time.Second
	DefaultProbeTimeout      = 10 * time.Second
	DefaultHTTPTimeout       = 10 * time.Second
	LLMHTTPTimeout           = 60 * time.Second
	DefaultRetryCount        = 3
	DefaultRetryBase         = 1 * time.Second
	DefaultCacheTTL          = 12 * time.Hour
	DefaultSessionTTL        = 7 * 24 * time.Hour
	NonceTTL                 = 10 * time.Minute
	DefaultWebhookMinSpacing = 500 * time.Millisecond
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// GuestUserID is the fixed identity substituted when the wallet requirement is disabled.
const GuestUserID = "00000000-0000-0000-0000-000000000000"

// Notification state keys
const (
	// LegacyPingSiteName marks the old sentinel row kept in ugcresearch; it is never a submission.
	LegacyPingSiteName = "ugc_discord_ping"
	DiscordPingKey     = "ugc_discord_ping"
)

// Cache key prefixes
const (
	CachePrefixSpotify = "spotify:"
	CachePrefixNonce   = "siwe:nonce:"
)

// UI/UX
const (
	MaxSearchResults   = 50
	MaxPendingResults  = 100
	MaxBulkApproveSize = 200
	MaxRequestBodySize = 1 << 20
)
