package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/store"
)

type memoryStore struct {
	mu   sync.Mutex
	last map[string]time.Time
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{last: make(map[string]time.Time)}
}

func (m *memoryStore) GetLastSent(ctx context.Context, key string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last[key], m.err
}

func (m *memoryStore) SetLastSent(ctx context.Context, key string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[key] = at
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (r *recordingNotifier) Notify(ctx context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, content)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func TestThrottle_SendsOncePerCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}
	th := NewThrottle(newMemoryStore(), notifier, 900*time.Second, logger.Discard(), WithClock(clock.Now))
	ctx := context.Background()

	sent, err := th.MaybeNotify(ctx)
	if err != nil || !sent {
		t.Fatalf("first MaybeNotify = %v, %v", sent, err)
	}

	clock.t = clock.t.Add(10 * time.Second)
	sent, err = th.MaybeNotify(ctx)
	if err != nil || sent {
		t.Errorf("second MaybeNotify within cooldown = %v, %v", sent, err)
	}

	clock.t = clock.t.Add(890 * time.Second)
	if sent, _ := th.MaybeNotify(ctx); sent {
		t.Error("Expected exactly-at-cooldown call to be throttled")
	}

	clock.t = clock.t.Add(time.Second)
	if sent, _ := th.MaybeNotify(ctx); !sent {
		t.Error("Expected call after cooldown to send")
	}

	if got := notifier.count(); got != 2 {
		t.Errorf("Expected 2 messages, got %d", got)
	}
}

func TestThrottle_NotifierFailureDoesNotRecord(t *testing.T) {
	st := newMemoryStore()
	notifier := &recordingNotifier{err: errors.New("webhook down")}
	th := NewThrottle(st, notifier, time.Minute, logger.Discard())

	sent, err := th.MaybeNotify(context.Background())
	if err == nil || sent {
		t.Fatalf("MaybeNotify = %v, %v", sent, err)
	}
	if last, _ := st.GetLastSent(context.Background(), "ugc_discord_ping"); !last.IsZero() {
		t.Error("Expected failed send to leave state untouched")
	}

	notifier.err = nil
	if sent, err := th.MaybeNotify(context.Background()); err != nil || !sent {
		t.Errorf("retry MaybeNotify = %v, %v", sent, err)
	}
}

func TestThrottle_StoreFailure(t *testing.T) {
	st := newMemoryStore()
	st.err = errors.New("db locked")
	notifier := &recordingNotifier{}
	th := NewThrottle(st, notifier, time.Minute, logger.Discard())

	if _, err := th.MaybeNotify(context.Background()); err == nil {
		t.Fatal("Expected store error")
	}
	if notifier.count() != 0 {
		t.Error("Expected no message when state cannot be read")
	}
}

func TestThrottle_SQLiteStore(t *testing.T) {
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "notify.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	defer db.Close()

	notifier := &recordingNotifier{}
	repo := store.NewNotificationStateRepo(db)
	ctx := context.Background()

	// Two throttles over one table behave like two server instances.
	a := NewThrottle(repo, notifier, time.Hour, logger.Discard())
	b := NewThrottle(repo, notifier, time.Hour, logger.Discard())

	if sent, err := a.MaybeNotify(ctx); err != nil || !sent {
		t.Fatalf("a.MaybeNotify = %v, %v", sent, err)
	}
	if sent, err := b.MaybeNotify(ctx); err != nil || sent {
		t.Errorf("b.MaybeNotify = %v, %v", sent, err)
	}
	if notifier.count() != 1 {
		t.Errorf("Expected 1 message, got %d", notifier.count())
	}
}

func TestRedisStateStore(t *testing.T) {
	url := os.Getenv("MUSICNERD_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MUSICNERD_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	st, err := NewRedisStateStore(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisStateStore failed: %v", err)
	}
	defer st.Close()

	key := "test-" + time.Now().Format("150405.000000000")
	last, err := st.GetLastSent(ctx, key)
	if err != nil || !last.IsZero() {
		t.Fatalf("GetLastSent(unset) = %v, %v", last, err)
	}
	at := time.Now().UTC()
	if err := st.SetLastSent(ctx, key, at); err != nil {
		t.Fatalf("SetLastSent failed: %v", err)
	}
	last, err = st.GetLastSent(ctx, key)
	if err != nil || !last.Equal(at) {
		t.Errorf("GetLastSent = %v, %v; want %v", last, err, at)
	}
}

func TestNewRedisStateStore_BadURL(t *testing.T) {
	if _, err := NewRedisStateStore(context.Background(), "not a url"); err == nil {
		t.Error("Expected error for malformed redis url")
	}
}

func TestDiscordNotifier(t *testing.T) {
	payloads := make(chan webhookPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		var p webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		payloads <- p
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordNotifier(srv.URL, nil, logger.Discard())
	if err := d.Notify(context.Background(), "hello mods"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	got := <-payloads
	if got.Content != "hello mods" || got.Username != "MusicNerd" {
		t.Errorf("payload = %+v", got)
	}
}

func TestDiscordNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad webhook", http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewDiscordNotifier(srv.URL, nil, logger.Discard())
	if err := d.Notify(context.Background(), "x"); err == nil {
		t.Error("Expected error for 400 response")
	}
}

func TestDiscordNotifier_Unconfigured(t *testing.T) {
	d := NewDiscordNotifier("", nil, logger.Discard())
	if err := d.Notify(context.Background(), "x"); err != nil {
		t.Errorf("Expected no-op, got %v", err)
	}
}
