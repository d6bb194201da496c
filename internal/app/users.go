package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/musicnerd/musicnerd/internal/apperr"
	"github.com/musicnerd/musicnerd/internal/auth"
	"github.com/musicnerd/musicnerd/internal/domain"
	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/store"
)

const maxUsernameLength = 50

type UserService struct {
	Repo     *store.DB
	SIWE     *auth.SIWE
	Sessions *auth.Sessions
	Logger   *logger.Logger
}

func NewUserService(repo *store.DB, siwe *auth.SIWE, sessions *auth.Sessions, log *logger.Logger) *UserService {
	if log == nil {
		log = logger.Default()
	}
	return &UserService{Repo: repo, SIWE: siwe, Sessions: sessions, Logger: log.WithComponent("users")}
}

func (s *UserService) Nonce(ctx context.Context) (string, error) {
	return s.SIWE.NewNonce(ctx)
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// Login verifies a signed sign-in message, creates the user on first sight and
// issues a session.
func (s *UserService) Login(ctx context.Context, message, signature string) (*LoginResult, error) {
	if message == "" || signature == "" {
		return nil, apperr.Invalid("message and signature are required")
	}
	wallet, err := s.SIWE.Verify(ctx, message, signature)
	if err != nil {
		if errors.Is(err, auth.ErrMalformedMessage) {
			return nil, apperr.Invalid("%s", err.Error())
		}
		s.Logger.Info("Sign-in rejected", "error", err)
		return nil, apperr.Unauthorized("%s", err.Error())
	}

	user, err := s.Repo.EnsureUser(ctx, &domain.User{Wallet: wallet})
	if err != nil {
		return nil, err
	}
	token, exp, err := s.Sessions.Issue(user)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("User signed in", "user_id", user.ID, "wallet", user.Wallet)
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context, actor *domain.Actor) (*domain.User, error) {
	if actor == nil {
		return nil, apperr.Unauthorized("not signed in")
	}
	user, err := s.Repo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user %s not found", actor.ID)
	}
	return user, nil
}

type ProfileUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.Actor, upd ProfileUpdate) (*domain.User, error) {
	if actor == nil {
		return nil, apperr.Unauthorized("not signed in")
	}
	if upd.Username != nil {
		name := strings.TrimSpace(*upd.Username)
		if name == "" || len(name) > maxUsernameLength {
			return nil, apperr.Invalid("username must be 1 to %d characters", maxUsernameLength)
		}
		upd.Username = &name
	}
	if upd.Email != nil {
		addr, err := mail.ParseAddress(strings.TrimSpace(*upd.Email))
		if err != nil {
			return nil, apperr.Invalid("invalid email address")
		}
		upd.Email = &addr.Address
	}

	if err := s.Repo.UpdateUserProfile(ctx, actor.ID, upd.Username, upd.Email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("user %s not found", actor.ID)
		}
		return nil, err
	}
	return s.Me(ctx, actor)
}

func (s *UserService) ListWhitelist(ctx context.Context, actor *domain.Actor) ([]*domain.User, error) {
	if !actor.CanAdmin() {
		return nil, apperr.Forbidden("admin only")
	}
	return s.Repo.ListWhitelistedUsers(ctx)
}

// AddToWhitelist whitelists a wallet, creating its user if needed.
func (s *UserService) AddToWhitelist(ctx context.Context, actor *domain.Actor, wallet string) (*domain.User, error) {
	if !actor.CanAdmin() {
		return nil, apperr.Forbidden("admin only")
	}
	wallet = strings.TrimSpace(wallet)
	if !common.IsHexAddress(wallet) {
		return nil, apperr.Invalid("invalid wallet address %q", wallet)
	}

	user, err := s.Repo.EnsureUser(ctx, &domain.User{Wallet: wallet})
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetWhitelisted(ctx, user.ID, true); err != nil {
		return nil, err
	}
	user.IsWhiteListed = true
	s.Logger.Info("User whitelisted", "user_id", user.ID, "wallet", user.Wallet, "actor", actor.ID)
	return user, nil
}

func (s *UserService) RemoveFromWhitelist(ctx context.Context, actor *domain.Actor, userID string) error {
	if !actor.CanAdmin() {
		return apperr.Forbidden("admin only")
	}
	if err := s.Repo.SetWhitelisted(ctx, userID, false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("user %s not found", userID)
		}
		return err
	}
	s.Logger.Info("User removed from whitelist", "user_id", userID, "actor", actor.ID)
	return nil
}
