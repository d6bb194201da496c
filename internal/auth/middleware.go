package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/domain"
	"github.com/musicnerd/musicnerd/internal/logger"
)

const SessionCookie = "musicnerd_session"

type ctxKey struct{}

// WithActor returns ctx carrying actor.
func WithActor(ctx context.Context, actor *domain.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFrom returns the caller stored by the middleware, or nil for anonymous.
func ActorFrom(ctx context.Context) *domain.Actor {
	a, _ := ctx.Value(ctxKey{}).(*domain.Actor)
	return a
}

// GuestActor stands in for every caller when the wallet requirement is disabled.
func GuestActor() *domain.Actor {
	return &domain.Actor{
		ID:            constants.GuestUserID,
		IsAdmin:       true,
		IsWhiteListed: true,
		Guest:         true,
	}
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// Authenticator resolves the caller from a bearer token or session cookie.
type Authenticator struct {
	sessions *Sessions
	users    UserLookup
	guest    bool
	logger   *logger.Logger
}

func NewAuthenticator(sessions *Sessions, users UserLookup, guestMode bool, log *logger.Logger) *Authenticator {
	if log == nil {
		log = logger.Default()
	}
	return &Authenticator{
		sessions: sessions,
		users:    users,
		guest:    guestMode,
		logger:   log.WithComponent("auth"),
	}
}

// Middleware never rejects a request; services decide what an anonymous caller may do.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := a.resolve(r); actor != nil {
			r = r.WithContext(WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) resolve(r *http.Request) *domain.Actor {
	if a.guest {
		return GuestActor()
	}

	token := bearerToken(r)
	if token == "" {
		return nil
	}
	claims, err := a.sessions.Parse(token)
	if err != nil {
		a.logger.Debug("rejected session token", "error", err)
		return nil
	}
	user, err := a.users.GetUserByID(r.Context(), claims.Subject)
	if err != nil {
		a.logger.Error("failed to load session user", "user_id", claims.Subject, "error", err)
		return nil
	}
	return user.Actor()
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
