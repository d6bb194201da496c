package auth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/domain"
	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/store"
)

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type siweFields struct {
	domain    string
	uri       string
	addr      common.Address
	nonce     string
	expires   time.Time
	notBefore time.Time
}

// String renders the fields in the EIP-4361 layout a wallet signs.
func (f siweFields) String() string {
	domain, uri := f.domain, f.uri
	if domain == "" {
		domain = "musicnerd.xyz"
	}
	if uri == "" {
		uri = "https://" + domain
	}
	lines := []string{
		domain + " wants you to sign in with your Ethereum account:",
		f.addr.Hex(),
		"",
		"Sign in to MusicNerd.",
		"",
		"URI: " + uri,
		"Version: 1",
		"Chain ID: 1",
		"Nonce: " + f.nonce,
		"Issued At: " + time.Now().UTC().Format(time.RFC3339),
	}
	if !f.expires.IsZero() {
		lines = append(lines, "Expiration Time: "+f.expires.UTC().Format(time.RFC3339))
	}
	if !f.notBefore.IsZero() {
		lines = append(lines, "Not Before: "+f.notBefore.UTC().Format(time.RFC3339))
	}
	return strings.Join(lines, "\n")
}

// sign mimics personal_sign: wallets report V as 27/28.
func sign(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func TestSIWE_Verify(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	s := NewSIWE(db, "musicnerd.xyz", "https://musicnerd.xyz")

	key, _ := crypto.GenerateKey()
	addr := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := s.NewNonce(ctx)
	if err != nil {
		t.Fatalf("NewNonce failed: %v", err)
	}
	msg := siweFields{addr: addr, nonce: nonce, expires: time.Now().Add(time.Hour)}.String()
	sig := sign(t, key, msg)

	wallet, err := s.Verify(ctx, msg, sig)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if wallet != addr.Hex() {
		t.Errorf("Verify wallet = %s, want %s", wallet, addr.Hex())
	}

	// Replaying the same signed message fails because the nonce is gone.
	if _, err := s.Verify(ctx, msg, sig); !errors.Is(err, ErrUnknownNonce) {
		t.Errorf("replay error = %v, want ErrUnknownNonce", err)
	}
}

func TestSIWE_VerifyRejects(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	s := NewSIWE(db, "musicnerd.xyz", "https://musicnerd.xyz")

	key, _ := crypto.GenerateKey()
	impostor, _ := crypto.GenerateKey()
	addr := crypto.PubkeyToAddress(key.PublicKey)

	tests := []struct {
		name   string
		fields func(nonce string) siweFields
		signer *ecdsa.PrivateKey
		sig    string
		want   error
	}{
		{
			name:   "wrong signer",
			fields: func(n string) siweFields { return siweFields{addr: addr, nonce: n} },
			signer: impostor,
			want:   ErrBadSignature,
		},
		{
			name:   "short signature",
			fields: func(n string) siweFields { return siweFields{addr: addr, nonce: n} },
			sig:    "0x1234",
			want:   ErrBadSignature,
		},
		{
			name:   "unknown nonce",
			fields: func(string) siweFields { return siweFields{addr: addr, nonce: "neverissued"} },
			want:   ErrUnknownNonce,
		},
		{
			name: "expired",
			fields: func(n string) siweFields {
				return siweFields{addr: addr, nonce: n, expires: time.Now().Add(-time.Minute)}
			},
			want: ErrExpiredMessage,
		},
		{
			name: "not yet valid",
			fields: func(n string) siweFields {
				return siweFields{addr: addr, nonce: n, notBefore: time.Now().Add(time.Hour)}
			},
			want: ErrExpiredMessage,
		},
		{
			name:   "other domain",
			fields: func(n string) siweFields { return siweFields{domain: "evil.example", addr: addr, nonce: n} },
			want:   ErrWrongDomain,
		},
		{
			name: "other origin",
			fields: func(n string) siweFields {
				return siweFields{uri: "https://evil.example/login", addr: addr, nonce: n}
			},
			want: ErrWrongURI,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nonce, _ := s.NewNonce(ctx)
			msg := tt.fields(nonce).String()
			sig := tt.sig
			if sig == "" {
				signer := tt.signer
				if signer == nil {
					signer = key
				}
				sig = sign(t, signer, msg)
			}
			if _, err := s.Verify(ctx, msg, sig); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			// A failed attempt leaves the issued nonce usable.
			ok, _ := db.ConsumeCache(ctx, constants.CachePrefixNonce+nonce)
			if !ok {
				t.Error("Expected nonce to remain after a rejected message")
			}
		})
	}
}

func TestSIWE_VerifyMalformed(t *testing.T) {
	s := NewSIWE(setupTestDB(t), "musicnerd.xyz", "")
	key, _ := crypto.GenerateKey()
	addr := crypto.PubkeyToAddress(key.PublicKey)
	valid := siweFields{addr: addr, nonce: "abc12345"}.String()

	bad := []string{
		"",
		"hello\nworld",
		strings.Replace(valid, addr.Hex(), "not-an-address", 1),
		strings.Replace(valid, "Version: 1", "Version: 2", 1),
		valid[:strings.Index(valid, "\nIssued At")],
	}
	for _, raw := range bad {
		if _, err := s.Verify(context.Background(), raw, sign(t, key, raw)); !errors.Is(err, ErrMalformedMessage) {
			t.Errorf("Verify(%q) error = %v, want ErrMalformedMessage", raw, err)
		}
	}
}

// Without a configured domain any domain is accepted; config only allows that
// outside production.
func TestSIWE_UnboundDomain(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	s := NewSIWE(db, "", "")
	key, _ := crypto.GenerateKey()
	addr := crypto.PubkeyToAddress(key.PublicKey)

	nonce, _ := s.NewNonce(ctx)
	msg := siweFields{domain: "localhost:3000", uri: "http://localhost:3000", addr: addr, nonce: nonce}.String()
	if _, err := s.Verify(ctx, msg, sign(t, key, msg)); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestSessions_RoundTrip(t *testing.T) {
	s := NewSessions("secret", time.Hour)
	user := &domain.User{ID: "user-1", Wallet: "0xabc"}

	token, exp, err := s.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry %v is not in the future", exp)
	}

	claims, err := s.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.Wallet != "0xabc" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestSessions_Rejects(t *testing.T) {
	s := NewSessions("secret", time.Hour)
	token, _, _ := s.Issue(&domain.User{ID: "user-1"})

	if _, err := NewSessions("other", time.Hour).Parse(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("wrong secret error = %v", err)
	}
	if _, err := s.Parse(token + "x"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("tampered error = %v", err)
	}

	expired := NewSessions("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, _ := expired.Issue(&domain.User{ID: "user-1"})
	if _, err := s.Parse(old); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expired error = %v", err)
	}

	if _, _, err := NewSessions("", time.Hour).Issue(&domain.User{ID: "u"}); err == nil {
		t.Error("Expected Issue to fail without a secret")
	}
}

func TestAuthenticator_Middleware(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := &domain.User{Wallet: "0x52908400098527886E0F7030069857D2E4169EE7", IsWhiteListed: true}
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	sessions := NewSessions("secret", time.Hour)
	token, _, _ := sessions.Issue(user)

	var seen *domain.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ActorFrom(r.Context())
	})
	mw := NewAuthenticator(sessions, db, false, logger.Discard()).Middleware(next)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		wantID  string
	}{
		{"anonymous", func(r *http.Request) {}, ""},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, user.ID},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) }, user.ID},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)
			mw.ServeHTTP(httptest.NewRecorder(), req)

			gotID := ""
			if seen != nil {
				gotID = seen.ID
			}
			if gotID != tt.wantID {
				t.Errorf("actor id = %q, want %q", gotID, tt.wantID)
			}
			if seen != nil && !seen.CanModerate() {
				t.Error("Expected whitelisted actor to moderate")
			}
		})
	}
}

func TestAuthenticator_GuestMode(t *testing.T) {
	var seen *domain.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ActorFrom(r.Context())
	})
	mw := NewAuthenticator(NewSessions("secret", 0), nil, true, logger.Discard()).Middleware(next)
	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == nil || seen.ID != constants.GuestUserID || !seen.CanAdmin() || !seen.Guest {
		t.Errorf("guest actor = %s", fmt.Sprintf("%+v", seen))
	}
}
