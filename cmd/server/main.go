package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/musicnerd/musicnerd/internal/app"
	"github.com/musicnerd/musicnerd/internal/auth"
	"github.com/musicnerd/musicnerd/internal/config"
	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/domain"
	httpapp "github.com/musicnerd/musicnerd/internal/http"
	"github.com/musicnerd/musicnerd/internal/httpclient"
	"github.com/musicnerd/musicnerd/internal/linkcheck"
	"github.com/musicnerd/musicnerd/internal/llm"
	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/metrics"
	"github.com/musicnerd/musicnerd/internal/notify"
	"github.com/musicnerd/musicnerd/internal/spotify"
	"github.com/musicnerd/musicnerd/internal/store"
)

const guestWallet = "0x0000000000000000000000000000000000000000"

func main() {
	bootLog := logger.Default()
	if err := config.LoadDotEnv(); err != nil {
		bootLog.Error("Failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		bootLog.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx := context.Background()

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.SeedLinkConfigs(ctx, domain.DefaultLinkConfigs()); err != nil {
		appLogger.Error("Failed to seed link configs", "error", err)
		os.Exit(1)
	}
	if cfg.GuestModeEnabled() {
		guest := &domain.User{ID: constants.GuestUserID, Wallet: guestWallet, IsAdmin: true, IsWhiteListed: true}
		if _, err := db.EnsureUser(ctx, guest); err != nil {
			appLogger.Error("Failed to create guest user", "error", err)
			os.Exit(1)
		}
		appLogger.Warn("Wallet requirement disabled, every request runs as the guest user")
	}

	m := metrics.New()

	sp := spotify.NewCachedClient(spotify.NewClient(spotify.Config{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		APIURL:       cfg.SpotifyAPIURL,
		TokenURL:     cfg.SpotifyTokenURL,
		Market:       constants.DefaultSpotifyMarket,
		Timeout:      constants.DefaultHTTPTimeout,
	}, appLogger, m), db, constants.DefaultCacheTTL)

	validator := linkcheck.New(nil, cfg.ProbeTimeout, appLogger, m)

	var stateStore notify.StateStore = store.NewNotificationStateRepo(db)
	if cfg.RedisURL != "" {
		rs, err := notify.NewRedisStateStore(ctx, cfg.RedisURL)
		if err != nil {
			appLogger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rs.Close()
		stateStore = rs
	}
	webhook := httpclient.NewClient(&http.Client{Timeout: constants.DefaultHTTPTimeout}, constants.DefaultWebhookMinSpacing).
		WithRetry(2, time.Second)
	throttle := notify.NewThrottle(stateStore,
		notify.NewDiscordNotifier(cfg.DiscordWebhookURL, webhook, appLogger),
		cfg.NotifyCooldown, appLogger, notify.WithMetrics(m))

	bioLLM := llm.NewOpenAIClient(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	}, appLogger, m)

	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL)
	siwe := newSIWE(cfg, db, appLogger)
	authn := auth.NewAuthenticator(sessions, db, cfg.GuestModeEnabled(), appLogger)

	ugc := app.NewUGCService(db, validator, throttle, m, appLogger)
	h := &httpapp.Handler{
		Artists:       app.NewArtistService(db, validator, sp, appLogger),
		UGC:           ugc,
		Leaderboard:   app.NewLeaderboardService(db),
		Users:         app.NewUserService(db, siwe, sessions, appLogger),
		Bio:           app.NewBioService(db, sp, bioLLM, appLogger),
		Coverage:      app.NewCoverageService(db),
		Logger:        appLogger,
		SecureCookies: cfg.IsProduction(),
	}
	router := httpapp.NewRouter(h, authn, m, func(r *http.Request) error {
		return db.Ping(r.Context())
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}
	// Pending moderator pings finish before the stores close.
	ugc.Wait()

	appLogger.Info("Server exiting")
}

// newSIWE binds sign-in to the configured domain. Validate already refuses an
// empty domain in production.
func newSIWE(cfg *config.Config, nonces auth.NonceStore, log *logger.Logger) *auth.SIWE {
	if cfg.SIWEDomain == "" {
		log.Warn("SIWE_DOMAIN not set, sign-in messages for any domain are accepted")
	}
	return auth.NewSIWE(nonces, cfg.SIWEDomain, cfg.SIWEURI)
}
