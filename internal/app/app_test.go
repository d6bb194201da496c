package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/musicnerd/musicnerd/internal/apperr"
	"github.com/musicnerd/musicnerd/internal/domain"
	"github.com/musicnerd/musicnerd/internal/linkcheck"
	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/spotify"
	"github.com/musicnerd/musicnerd/internal/store"
)

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.SeedLinkConfigs(context.Background(), domain.DefaultLinkConfigs()); err != nil {
		t.Fatalf("SeedLinkConfigs failed: %v", err)
	}
	return db
}

func createArtist(t *testing.T, db *store.DB, name string) *domain.Artist {
	t.Helper()
	a := &domain.Artist{Name: name}
	if err := db.CreateArtist(context.Background(), a); err != nil {
		t.Fatalf("CreateArtist failed: %v", err)
	}
	return a
}

func createUser(t *testing.T, db *store.DB, wallet string, whitelisted bool) *domain.User {
	t.Helper()
	u := &domain.User{Wallet: wallet, IsWhiteListed: whitelisted}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func strPtr(s string) *string { return &s }

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if got := apperr.StatusOf(err); got != status {
		t.Errorf("status = %d, want %d (err: %v)", got, status, err)
	}
}

// fakeValidator runs the real format check and pretends every probe succeeds
// except for URLs listed in dead.
type fakeValidator struct {
	dead  map[string]string
	calls atomic.Int32
}

func (f *fakeValidator) Validate(ctx context.Context, rawURL string, rules []domain.LinkConfig, hint string) linkcheck.Result {
	f.calls.Add(1)
	res, ok := linkcheck.New(nil, 0, logger.Discard(), nil).Match(rawURL, rules, hint)
	if !ok {
		return res
	}
	if reason, dead := f.dead[rawURL]; dead {
		res.Reason = reason
		return res
	}
	res.Valid = true
	return res
}

type fakePinger struct {
	calls atomic.Int32
	err   error
}

func (f *fakePinger) MaybeNotify(ctx context.Context) (bool, error) {
	f.calls.Add(1)
	return f.err == nil, f.err
}

type fakeSpotify struct {
	artists map[string]*spotify.Artist
	err     error
}

func (f *fakeSpotify) GetAccessToken(ctx context.Context) (string, error) { return "token", nil }

func (f *fakeSpotify) GetArtist(ctx context.Context, id string) (*spotify.Artist, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.artists[id], nil
}

func (f *fakeSpotify) GetReleaseCount(ctx context.Context, id string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.artists[id] == nil {
		return 0, nil
	}
	return 12, nil
}

func (f *fakeSpotify) GetTopTrack(ctx context.Context, id string) (*spotify.Track, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.artists[id] == nil {
		return nil, nil
	}
	return &spotify.Track{ID: "t1", Name: "Archie, Marry Me", AlbumName: "Alvvays"}, nil
}

type fakeLLM struct {
	out     string
	err     error
	prompts []string
}

func (f *fakeLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

var errUpstream = errors.New("upstream unavailable")
