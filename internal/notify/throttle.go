package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/metrics"
)

// StateStore remembers when a notification key last fired. A key that never fired
// reads as the zero time.
type StateStore interface {
	GetLastSent(ctx context.Context, key string) (time.Time, error)
	SetLastSent(ctx context.Context, key string, at time.Time) error
}

const DefaultMessage = "New UGC submitted on MusicNerd, waiting for review."

// Throttle sends at most one notification per cooldown window. The read and the
// write are not atomic: two callers racing at the window edge may both send.
type Throttle struct {
	store    StateStore
	notifier Notifier
	cooldown time.Duration
	key      string
	now      func() time.Time
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

type ThrottleOption func(*Throttle)

// WithClock replaces time.Now; used by tests.
func WithClock(now func() time.Time) ThrottleOption {
	return func(t *Throttle) { t.now = now }
}

func WithMetrics(m *metrics.Metrics) ThrottleOption {
	return func(t *Throttle) { t.metrics = m }
}

func NewThrottle(store StateStore, notifier Notifier, cooldown time.Duration, log *logger.Logger, opts ...ThrottleOption) *Throttle {
	if cooldown <= 0 {
		cooldown = constants.DefaultNotifyCooldown
	}
	if log == nil {
		log = logger.Default()
	}
	t := &Throttle{
		store:    store,
		notifier: notifier,
		cooldown: cooldown,
		key:      constants.DiscordPingKey,
		now:      time.Now,
		logger:   log.WithComponent("notify"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// MaybeNotify sends when more than the cooldown has passed since the last send and
// records the send time. sent reports whether a message went out.
func (t *Throttle) MaybeNotify(ctx context.Context) (bool, error) {
	now := t.now().UTC()

	last, err := t.store.GetLastSent(ctx, t.key)
	if err != nil {
		t.metrics.Notification("failed")
		return false, fmt.Errorf("read last notification: %w", err)
	}
	if !last.IsZero() && now.Sub(last) <= t.cooldown {
		t.metrics.Notification("throttled")
		t.logger.Debug("notification throttled", "last_sent", last, "cooldown", t.cooldown)
		return false, nil
	}

	if err := t.notifier.Notify(ctx, DefaultMessage); err != nil {
		t.metrics.Notification("failed")
		return false, fmt.Errorf("send notification: %w", err)
	}
	if err := t.store.SetLastSent(ctx, t.key, now); err != nil {
		t.metrics.Notification("sent")
		return true, fmt.Errorf("record notification: %w", err)
	}

	t.metrics.Notification("sent")
	t.logger.Info("moderators notified", "key", t.key)
	return true, nil
}
