package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/musicnerd/musicnerd/internal/apperr"
	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/domain"
	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/metrics"
	"github.com/musicnerd/musicnerd/internal/store"
)

// Pinger tells moderators that new submissions are waiting.
type Pinger interface {
	MaybeNotify(ctx context.Context) (bool, error)
}

const defaultNotifyTimeout = 15 * time.Second

type UGCService struct {
	Repo          *store.DB
	Validator     LinkValidator
	Pinger        Pinger
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
	NotifyTimeout time.Duration

	inflight sync.WaitGroup
}

func NewUGCService(repo *store.DB, validator LinkValidator, pinger Pinger, m *metrics.Metrics, log *logger.Logger) *UGCService {
	if log == nil {
		log = logger.Default()
	}
	return &UGCService{
		Repo:          repo,
		Validator:     validator,
		Pinger:        pinger,
		Metrics:       m,
		Logger:        log.WithComponent("ugc"),
		NotifyTimeout: defaultNotifyTimeout,
	}
}

type SubmitRequest struct {
	ArtistID string `json:"artistId"`
	URL      string `json:"url"`
	SiteName string `json:"siteName"`
}

type SubmitResult struct {
	Status  domain.UGCStatus    `json:"status"`
	Message string              `json:"message"`
	UGC     *domain.UGCResearch `json:"ugc,omitempty"`
}

// Submit validates a link for an artist and queues it for moderation. Moderators'
// submissions are accepted in the same call.
func (s *UGCService) Submit(ctx context.Context, actor *domain.Actor, req SubmitRequest) (*SubmitResult, error) {
	result, err := s.submit(ctx, actor, req)
	outcome := "ok"
	if err != nil {
		outcome = apperr.CodeOf(err)
	}
	s.Metrics.UGCEvent("submit", outcome)
	return result, err
}

func (s *UGCService) submit(ctx context.Context, actor *domain.Actor, req SubmitRequest) (*SubmitResult, error) {
	if actor == nil {
		return nil, apperr.Forbidden("sign in to submit links")
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.ArtistID == "" || req.URL == "" {
		return nil, apperr.Invalid("artistId and url are required")
	}

	artist, err := s.Repo.GetArtistByID(ctx, req.ArtistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}
	if artist == nil {
		return nil, apperr.NotFound("artist %s not found", req.ArtistID)
	}

	rules, err := s.Repo.ListLinkConfigs(ctx, true)
	if err != nil {
		return nil, err
	}
	check := s.Validator.Validate(ctx, req.URL, rules, req.SiteName)
	if !check.Valid {
		return nil, apperr.Invalid("%s", check.Reason)
	}
	p, ok := domain.LookupPlatform(check.SiteName)
	if !ok {
		return nil, apperr.Invalid("platform %q has no artist column", check.SiteName)
	}
	if current, linked := p.Get(artist); linked && p.Same(current, check.Handle) {
		return nil, apperr.Conflict("artist already has this %s link", check.SiteName)
	}

	log := s.Logger.WithArtist(artist.ID, artist.Name)
	row, err := s.Repo.FindOpenUGC(ctx, artist.ID, check.SiteName, req.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check for open submission: %w", err)
	}
	if row == nil {
		row = &domain.UGCResearch{
			ArtistID:     &artist.ID,
			UserID:       actor.ID,
			SiteName:     check.SiteName,
			URL:          req.URL,
			SiteUsername: check.Handle,
		}
		if err := s.Repo.CreateUGC(ctx, row); err != nil {
			return nil, err
		}
		log.Info("UGC submitted", "ugc_id", row.ID, "site", row.SiteName, "user_id", actor.ID)
		if !actor.CanModerate() {
			s.notifyAsync()
		}
	} else {
		log.Info("UGC already pending", "ugc_id", row.ID, "site", row.SiteName)
	}

	if actor.CanModerate() {
		accepted, _, err := s.accept(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{Status: domain.UGCStatusAccepted, Message: "link added to artist", UGC: accepted}, nil
	}
	return &SubmitResult{Status: domain.UGCStatusPending, Message: "link submitted for review", UGC: row}, nil
}

// notifyAsync runs the throttle detached from the request so a slow webhook never
// delays or fails the submission.
func (s *UGCService) notifyAsync() {
	if s.Pinger == nil {
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.NotifyTimeout)
		defer cancel()
		if _, err := s.Pinger.MaybeNotify(ctx); err != nil {
			s.Logger.Warn("UGC notification failed", "error", err)
		}
	}()
}

// Wait blocks until detached notifications have finished.
func (s *UGCService) Wait() {
	s.inflight.Wait()
}

// Accept writes a pending submission's handle into its artist. Processed rows are
// returned unchanged.
func (s *UGCService) Accept(ctx context.Context, actor *domain.Actor, ugcID string) (*domain.UGCResearch, error) {
	if !actor.CanModerate() {
		return nil, apperr.Forbidden("only whitelisted users can approve submissions")
	}
	row, changed, err := s.accept(ctx, ugcID)
	s.recordModeration("accept", changed, err)
	return row, err
}

func (s *UGCService) accept(ctx context.Context, ugcID string) (*domain.UGCResearch, bool, error) {
	var out *domain.UGCResearch
	var changed bool
	err := s.Repo.RunInTx(ctx, func(tx *store.DB) error {
		row, err := tx.GetUGC(ctx, ugcID)
		if err != nil {
			return fmt.Errorf("failed to get ugc: %w", err)
		}
		if row == nil {
			return apperr.NotFound("submission %s not found", ugcID)
		}
		if row.IsProcessed() {
			out = row
			return nil
		}
		if row.ArtistID == nil {
			return apperr.Invalid("submission %s has no artist", ugcID)
		}
		p, ok := domain.LookupPlatform(row.SiteName)
		if !ok {
			return apperr.Invalid("submission %s has unknown platform %q", ugcID, row.SiteName)
		}
		if row.SiteUsername == "" {
			return apperr.Invalid("submission %s has no handle", ugcID)
		}

		handle := row.SiteUsername
		if err := tx.SetArtistPlatform(ctx, *row.ArtistID, p, &handle); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("artist %s not found", *row.ArtistID)
			}
			return err
		}
		if _, err := tx.MarkUGCAccepted(ctx, row.ID); err != nil {
			return err
		}
		out, err = tx.GetUGC(ctx, row.ID)
		changed = true
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if changed {
		s.Logger.WithUGC(out.ID, out.SiteName).Info("UGC accepted")
	}
	return out, changed, nil
}

// Reject closes a pending submission without touching the artist.
func (s *UGCService) Reject(ctx context.Context, actor *domain.Actor, ugcID string) (*domain.UGCResearch, error) {
	if !actor.CanModerate() {
		return nil, apperr.Forbidden("only whitelisted users can reject submissions")
	}
	row, err := s.Repo.GetUGC(ctx, ugcID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ugc: %w", err)
	}
	if row == nil {
		return nil, apperr.NotFound("submission %s not found", ugcID)
	}

	changed, err := s.Repo.MarkUGCRejected(ctx, ugcID)
	s.recordModeration("reject", changed, err)
	if err != nil {
		return nil, err
	}
	if changed {
		s.Logger.WithUGC(row.ID, row.SiteName).Info("UGC rejected", "actor", actor.ID)
		if row, err = s.Repo.GetUGC(ctx, ugcID); err != nil {
			return nil, err
		}
	}
	return row, nil
}

func (s *UGCService) recordModeration(action string, changed bool, err error) {
	switch {
	case err != nil:
		s.Metrics.UGCEvent(action, apperr.CodeOf(err))
	case changed:
		s.Metrics.UGCEvent(action, "ok")
	default:
		s.Metrics.UGCEvent(action, "noop")
	}
}

// ApproveResult is the outcome for one id of a bulk approval.
type ApproveResult struct {
	OK      bool   `json:"ok"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// ApproveAdmin accepts each id independently; one failure does not stop the rest.
func (s *UGCService) ApproveAdmin(ctx context.Context, actor *domain.Actor, ids []string) (map[string]ApproveResult, error) {
	if !actor.CanAdmin() {
		return nil, apperr.Forbidden("only admins can bulk approve submissions")
	}
	if len(ids) == 0 {
		return nil, apperr.Invalid("ugcIds is required")
	}
	if len(ids) > constants.MaxBulkApproveSize {
		return nil, apperr.Invalid("at most %d ids per request", constants.MaxBulkApproveSize)
	}

	results := make(map[string]ApproveResult, len(ids))
	for _, id := range ids {
		if _, seen := results[id]; seen {
			continue
		}
		_, changed, err := s.accept(ctx, id)
		s.recordModeration("accept", changed, err)
		switch {
		case err != nil:
			msg := err.Error()
			if _, typed := apperr.As(err); !typed {
				s.Logger.Error("Bulk approve failed", "ugc_id", id, "error", err)
				msg = "internal error"
			}
			results[id] = ApproveResult{OK: false, Status: apperr.StatusOf(err), Message: msg}
		case changed:
			results[id] = ApproveResult{OK: true, Status: 200, Message: "accepted"}
		default:
			results[id] = ApproveResult{OK: true, Status: 200, Message: "already processed"}
		}
	}
	return results, nil
}

func (s *UGCService) ListPending(ctx context.Context, actor *domain.Actor, limit int) ([]*domain.UGCResearch, error) {
	if !actor.CanModerate() {
		return nil, apperr.Forbidden("only whitelisted users can review submissions")
	}
	return s.Repo.ListPendingUGC(ctx, clampLimit(limit, constants.MaxPendingResults))
}

func (s *UGCService) ListForUser(ctx context.Context, userID string, limit int) ([]*domain.UGCResearch, error) {
	if userID == "" {
		return nil, apperr.Invalid("user id is required")
	}
	return s.Repo.ListUGCByUser(ctx, userID, clampLimit(limit, constants.MaxPendingResults))
}

func clampLimit(limit, ceiling int) int {
	if limit <= 0 || limit > ceiling {
		return ceiling
	}
	return limit
}
