package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/musicnerd/musicnerd/internal/apperr"
	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/domain"
	"github.com/musicnerd/musicnerd/internal/linkcheck"
	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/spotify"
	"github.com/musicnerd/musicnerd/internal/store"
)

// LinkValidator checks a submitted URL against the platform catalog.
type LinkValidator interface {
	Validate(ctx context.Context, rawURL string, rules []domain.LinkConfig, platformHint string) linkcheck.Result
}

type ArtistService struct {
	Repo      *store.DB
	Validator LinkValidator
	Spotify   spotify.API
	Logger    *logger.Logger
}

func NewArtistService(repo *store.DB, validator LinkValidator, sp spotify.API, log *logger.Logger) *ArtistService {
	if log == nil {
		log = logger.Default()
	}
	return &ArtistService{Repo: repo, Validator: validator, Spotify: sp, Logger: log.WithComponent("artists")}
}

// GetArtistByProperty looks an artist up by id, name or one platform column.
func (s *ArtistService) GetArtistByProperty(ctx context.Context, column, value string) (*domain.Artist, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, apperr.Invalid("a value for %q is required", column)
	}
	col, ok := store.ArtistLookupColumn(column)
	if !ok {
		return nil, apperr.Invalid("unknown artist property %q", column)
	}
	// Platform columns hold normalized handles; compare like with like.
	if p, ok := domain.LookupPlatform(col); ok {
		value = p.Normalize(value)
	}

	artist, err := s.Repo.GetArtistByColumn(ctx, col, value)
	if err != nil {
		return nil, fmt.Errorf("failed to look up artist by %s: %w", col, err)
	}
	if artist == nil {
		return nil, apperr.NotFound("no artist found with %s %q", col, value)
	}
	return artist, nil
}

func (s *ArtistService) GetArtist(ctx context.Context, id string) (*domain.Artist, error) {
	artist, err := s.Repo.GetArtistByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}
	if artist == nil {
		return nil, apperr.NotFound("artist %s not found", id)
	}
	return artist, nil
}

func (s *ArtistService) SearchByName(ctx context.Context, query string) ([]*domain.Artist, error) {
	return s.Repo.SearchArtistsByName(ctx, query, constants.MaxSearchResults)
}

// ListPlatforms returns the enabled platform catalog in card order.
func (s *ArtistService) ListPlatforms(ctx context.Context) ([]domain.LinkConfig, error) {
	return s.Repo.ListLinkConfigs(ctx, true)
}

// ValidateLink runs the link pipeline without touching any artist.
func (s *ArtistService) ValidateLink(ctx context.Context, rawURL, platformHint string) (linkcheck.Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return linkcheck.Result{}, apperr.Invalid("url is required")
	}
	rules, err := s.Repo.ListLinkConfigs(ctx, true)
	if err != nil {
		return linkcheck.Result{}, err
	}
	return s.Validator.Validate(ctx, rawURL, rules, platformHint), nil
}

// GetArtistLinks resolves every enabled platform the artist has a handle for.
func (s *ArtistService) GetArtistLinks(ctx context.Context, artist *domain.Artist) ([]domain.ArtistLink, error) {
	return resolveLinks(ctx, s.Repo, artist)
}

func resolveLinks(ctx context.Context, repo *store.DB, artist *domain.Artist) ([]domain.ArtistLink, error) {
	configs, err := repo.ListLinkConfigs(ctx, true)
	if err != nil {
		return nil, err
	}
	links := []domain.ArtistLink{}
	for _, cfg := range configs {
		p, ok := domain.LookupPlatform(cfg.SiteName)
		if !ok {
			continue
		}
		if handle, ok := p.Get(artist); ok {
			links = append(links, cfg.Resolve(handle))
		}
	}
	return links, nil
}

// GetAvailableLinks lists the enabled platforms the artist has no handle for yet.
func (s *ArtistService) GetAvailableLinks(ctx context.Context, artist *domain.Artist) ([]domain.LinkConfig, error) {
	configs, err := s.Repo.ListLinkConfigs(ctx, true)
	if err != nil {
		return nil, err
	}
	available := []domain.LinkConfig{}
	for _, cfg := range configs {
		p, ok := domain.LookupPlatform(cfg.SiteName)
		if !ok {
			continue
		}
		if _, linked := p.Get(artist); !linked {
			available = append(available, cfg)
		}
	}
	return available, nil
}

// ArtistDataResult reports what AddArtistData wrote.
type ArtistDataResult struct {
	Artist   *domain.Artist `json:"artist"`
	SiteName string         `json:"siteName"`
	Handle   string         `json:"handle"`
	Changed  bool           `json:"changed"`
}

// AddArtistData detects the platform of rawURL and writes its handle on the artist.
func (s *ArtistService) AddArtistData(ctx context.Context, actor *domain.Actor, artistID, rawURL string) (*ArtistDataResult, error) {
	if !actor.CanModerate() {
		return nil, apperr.Forbidden("only whitelisted users can edit artist links")
	}
	artist, err := s.GetArtist(ctx, artistID)
	if err != nil {
		return nil, err
	}
	result, err := s.ValidateLink(ctx, rawURL, "")
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, apperr.Invalid("%s", result.Reason)
	}
	p, ok := domain.LookupPlatform(result.SiteName)
	if !ok {
		return nil, apperr.Invalid("platform %q has no artist column", result.SiteName)
	}

	out := &ArtistDataResult{Artist: artist, SiteName: result.SiteName, Handle: result.Handle}
	current, linked := p.Get(artist)
	switch {
	case linked && p.Same(current, result.Handle):
		return out, nil
	case linked:
		return nil, apperr.Conflict("artist already has a different %s link", result.SiteName)
	}

	handle := result.Handle
	if err := s.Repo.SetArtistPlatform(ctx, artist.ID, p, &handle); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("artist %s not found", artist.ID)
		}
		return nil, err
	}
	p.Set(artist, handle)
	out.Changed = true
	s.Logger.WithArtist(artist.ID, artist.Name).Info("Artist link added", "site", result.SiteName, "actor", actor.ID)
	return out, nil
}

// RemoveArtistData clears one platform column.
func (s *ArtistService) RemoveArtistData(ctx context.Context, actor *domain.Actor, artistID, siteName string) (*domain.Artist, error) {
	if !actor.CanModerate() {
		return nil, apperr.Forbidden("only whitelisted users can edit artist links")
	}
	p, ok := domain.LookupPlatform(siteName)
	if !ok {
		return nil, apperr.Invalid("unknown platform %q", siteName)
	}
	artist, err := s.GetArtist(ctx, artistID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetArtistPlatform(ctx, artist.ID, p, nil); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("artist %s not found", artist.ID)
		}
		return nil, err
	}
	p.Set(artist, "")
	s.Logger.WithArtist(artist.ID, artist.Name).Info("Artist link removed", "site", p.SiteName, "actor", actor.ID)
	return artist, nil
}

// AddArtist creates an artist from its Spotify id. An artist already carrying that id
// is returned with created=false.
func (s *ArtistService) AddArtist(ctx context.Context, actor *domain.Actor, spotifyID string) (*domain.Artist, bool, error) {
	if !actor.CanModerate() {
		return nil, false, apperr.Forbidden("only whitelisted users can add artists")
	}
	spotifyID = strings.TrimSpace(spotifyID)
	if spotifyID == "" {
		return nil, false, apperr.Invalid("spotifyId is required")
	}

	existing, err := s.Repo.GetArtistByColumn(ctx, "spotify", spotifyID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	info, err := s.Spotify.GetArtist(ctx, spotifyID)
	if err != nil {
		return nil, false, apperr.Upstream("spotify lookup failed", err)
	}
	if info == nil {
		return nil, false, apperr.NotFound("spotify has no artist %s", spotifyID)
	}

	artist := &domain.Artist{Name: info.Name}
	p, _ := domain.LookupPlatform("spotify")
	p.Set(artist, spotifyID)
	if !actor.Guest {
		addedBy := actor.ID
		artist.AddedBy = &addedBy
	}
	if err := s.Repo.CreateArtist(ctx, artist); err != nil {
		return nil, false, err
	}
	s.Logger.WithArtist(artist.ID, artist.Name).Info("Artist added", "spotify", spotifyID, "actor", actor.ID)
	return artist, true, nil
}

// Profile is an artist with resolved links and whatever Spotify could tell us.
type Profile struct {
	Artist       *domain.Artist      `json:"artist"`
	Links        []domain.ArtistLink `json:"links"`
	ImageURL     string              `json:"imageUrl,omitempty"`
	Followers    int                 `json:"followers"`
	Genres       []string            `json:"genres,omitempty"`
	ReleaseCount int                 `json:"releaseCount"`
	TopTrack     *spotify.Track      `json:"topTrack,omitempty"`
}

func (s *ArtistService) GetProfile(ctx context.Context, id string) (*Profile, error) {
	artist, err := s.GetArtist(ctx, id)
	if err != nil {
		return nil, err
	}
	links, err := s.GetArtistLinks(ctx, artist)
	if err != nil {
		return nil, err
	}

	profile := &Profile{Artist: artist, Links: links}
	if artist.Spotify == nil || s.Spotify == nil {
		return profile, nil
	}

	facts := fetchSpotifyFacts(ctx, s.Spotify, *artist.Spotify, s.Logger)
	if facts.Artist != nil {
		profile.ImageURL = facts.Artist.ImageURL
		profile.Followers = facts.Artist.Followers
		profile.Genres = facts.Artist.Genres
	}
	profile.ReleaseCount = facts.ReleaseCount
	profile.TopTrack = facts.TopTrack
	return profile, nil
}
