package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/musicnerd/musicnerd/internal/auth"
	"github.com/musicnerd/musicnerd/internal/config"
	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/store"
)

func signedLogin(t *testing.T, domain, nonce string) (string, string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	wallet := crypto.PubkeyToAddress(key.PublicKey).Hex()
	msg := strings.Join([]string{
		domain + " wants you to sign in with your Ethereum account:",
		wallet,
		"",
		"Sign in to MusicNerd.",
		"",
		"URI: https://" + domain,
		"Version: 1",
		"Chain ID: 1",
		"Nonce: " + nonce,
		"Issued At: " + time.Now().UTC().Format(time.RFC3339),
	}, "\n")
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return msg, hexutil.Encode(sig), wallet
}

func TestNewSIWE_ConfiguredDomain(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", strings.Repeat("s", 32))
	t.Setenv("SIWE_DOMAIN", "musicnerd.xyz")
	t.Setenv("SIWE_URI", "https://musicnerd.xyz")
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "main.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	defer db.Close()

	siwe := newSIWE(cfg, db, logger.Discard())
	ctx := context.Background()

	nonce, err := siwe.NewNonce(ctx)
	if err != nil {
		t.Fatalf("NewNonce failed: %v", err)
	}
	msg, sig, _ := signedLogin(t, "evil.example", nonce)
	if _, err := siwe.Verify(ctx, msg, sig); !errors.Is(err, auth.ErrWrongDomain) {
		t.Fatalf("Verify for another domain error = %v, want ErrWrongDomain", err)
	}

	// The rejected attempt left the nonce usable for the real site.
	msg, sig, wallet := signedLogin(t, "musicnerd.xyz", nonce)
	got, err := siwe.Verify(ctx, msg, sig)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if got != wallet {
		t.Errorf("Verify wallet = %s, want %s", got, wallet)
	}
}

func TestNewSIWE_ProductionRequiresDomain(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", strings.Repeat("s", 32))
	t.Setenv("SIWE_DOMAIN", "")
	if err := config.Load().Validate(); err == nil || !strings.Contains(err.Error(), "SIWE_DOMAIN") {
		t.Errorf("Validate error = %v, want SIWE_DOMAIN complaint", err)
	}
}
