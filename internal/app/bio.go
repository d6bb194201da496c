package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/musicnerd/musicnerd/internal/apperr"
	"github.com/musicnerd/musicnerd/internal/domain"
	"github.com/musicnerd/musicnerd/internal/llm"
	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/spotify"
	"github.com/musicnerd/musicnerd/internal/store"
)

const bioSystemPrompt = "You write short, factual artist bios for a music discovery site. " +
	"Use only the facts given. Two to four sentences, no lists, no marketing language."

type BioService struct {
	Repo    *store.DB
	Spotify spotify.API
	LLM     llm.Client
	Logger  *logger.Logger
}

func NewBioService(repo *store.DB, sp spotify.API, client llm.Client, log *logger.Logger) *BioService {
	if log == nil {
		log = logger.Default()
	}
	return &BioService{Repo: repo, Spotify: sp, LLM: client, Logger: log.WithComponent("bio")}
}

// GetBio returns the stored bio, generating one on first read. A generation failure
// yields an empty bio instead of an error.
func (s *BioService) GetBio(ctx context.Context, artistID string) (string, error) {
	artist, err := s.artist(ctx, artistID)
	if err != nil {
		return "", err
	}
	if artist.Bio != nil && *artist.Bio != "" {
		return *artist.Bio, nil
	}

	bio, err := s.generate(ctx, artist)
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			s.Logger.WithArtist(artist.ID, artist.Name).Warn("Bio generation failed", "error", err)
		}
		return "", nil
	}
	return bio, nil
}

// RegenerateBio replaces the stored bio.
func (s *BioService) RegenerateBio(ctx context.Context, actor *domain.Actor, artistID string) (string, error) {
	if !actor.CanAdmin() {
		return "", apperr.Forbidden("admin only")
	}
	artist, err := s.artist(ctx, artistID)
	if err != nil {
		return "", err
	}
	bio, err := s.generate(ctx, artist)
	if err != nil {
		return "", apperr.Upstream("bio generation failed", err)
	}
	return bio, nil
}

func (s *BioService) artist(ctx context.Context, id string) (*domain.Artist, error) {
	artist, err := s.Repo.GetArtistByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}
	if artist == nil {
		return nil, apperr.NotFound("artist %s not found", id)
	}
	return artist, nil
}

func (s *BioService) generate(ctx context.Context, artist *domain.Artist) (string, error) {
	if s.LLM == nil {
		return "", llm.ErrNotConfigured
	}
	var facts spotifyFacts
	if artist.Spotify != nil && s.Spotify != nil {
		facts = fetchSpotifyFacts(ctx, s.Spotify, *artist.Spotify, s.Logger)
	}

	links, err := resolveLinks(ctx, s.Repo, artist)
	if err != nil {
		s.Logger.WithArtist(artist.ID, artist.Name).Warn("Failed to resolve links for bio", "error", err)
	}

	bio, err := s.LLM.Complete(ctx, bioSystemPrompt, bioPrompt(artist, facts, links))
	if err != nil {
		return "", err
	}
	if bio == "" {
		return "", errors.New("empty completion")
	}
	if err := s.Repo.UpdateArtistBio(ctx, artist.ID, bio); err != nil {
		return "", err
	}
	s.Logger.WithArtist(artist.ID, artist.Name).Info("Bio generated", "length", len(bio))
	return bio, nil
}

func bioPrompt(artist *domain.Artist, facts spotifyFacts, links []domain.ArtistLink) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Artist: %s\n", artist.Name)
	if a := facts.Artist; a != nil {
		if len(a.Genres) > 0 {
			fmt.Fprintf(&b, "Genres: %s\n", strings.Join(a.Genres, ", "))
		}
		fmt.Fprintf(&b, "Spotify followers: %d\n", a.Followers)
	}
	if facts.ReleaseCount > 0 {
		fmt.Fprintf(&b, "Releases: %d\n", facts.ReleaseCount)
	}
	if t := facts.TopTrack; t != nil {
		fmt.Fprintf(&b, "Most popular track: %s", t.Name)
		if t.AlbumName != "" {
			fmt.Fprintf(&b, " (from %s)", t.AlbumName)
		}
		b.WriteString("\n")
	}

	if len(links) > 0 {
		b.WriteString("Links:\n")
		for _, l := range links {
			fmt.Fprintf(&b, "- %s: %s\n", l.SiteName, l.URL)
		}
	}
	b.WriteString("Write the bio.")
	return b.String()
}
