package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/spotify"
)

type spotifyFacts struct {
	Artist       *spotify.Artist
	ReleaseCount int
	TopTrack     *spotify.Track
}

// fetchSpotifyFacts loads the three Spotify views of an artist concurrently. A failing
// call leaves its field empty; it never fails the caller.
func fetchSpotifyFacts(ctx context.Context, api spotify.API, spotifyID string, log *logger.Logger) spotifyFacts {
	var facts spotifyFacts
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a, err := api.GetArtist(gctx, spotifyID)
		if err != nil {
			log.Warn("Spotify artist lookup failed", "spotify_id", spotifyID, "error", err)
			return nil
		}
		facts.Artist = a
		return nil
	})
	g.Go(func() error {
		n, err := api.GetReleaseCount(gctx, spotifyID)
		if err != nil {
			log.Warn("Spotify release count failed", "spotify_id", spotifyID, "error", err)
			return nil
		}
		facts.ReleaseCount = n
		return nil
	})
	g.Go(func() error {
		t, err := api.GetTopTrack(gctx, spotifyID)
		if err != nil {
			log.Warn("Spotify top track failed", "spotify_id", spotifyID, "error", err)
			return nil
		}
		facts.TopTrack = t
		return nil
	})

	_ = g.Wait()
	return facts
}
