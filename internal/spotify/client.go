package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	zspotify "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/metrics"
)

// ErrNotConfigured is returned when no client credentials were supplied.
var ErrNotConfigured = errors.New("spotify credentials not configured")

// API is the Spotify surface the services depend on.
type API interface {
	GetAccessToken(ctx context.Context) (string, error)
	GetArtist(ctx context.Context, id string) (*Artist, error)
	GetReleaseCount(ctx context.Context, id string) (int, error)
	GetTopTrack(ctx context.Context, id string) (*Track, error)
}

var _ API = (*Client)(nil)
var _ API = (*CachedClient)(nil)

type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Followers  int      `json:"followers"`
	Popularity int      `json:"popularity"`
	Genres     []string `json:"genres,omitempty"`
	ImageURL   string   `json:"imageUrl,omitempty"`
	URL        string   `json:"url,omitempty"`
}

type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AlbumName  string `json:"albumName,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
	URL        string `json:"url,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

type Config struct {
	ClientID     string
	ClientSecret string
	APIURL       string
	TokenURL     string
	Market       string
	Timeout      time.Duration
	// HTTPClient is the transport for both token and API calls; nil uses the default.
	HTTPClient *http.Client
}

type Client struct {
	creds   *clientcredentials.Config
	api     *zspotify.Client
	base    *http.Client
	market  string
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewClient(cfg Config, log *logger.Logger, m *metrics.Metrics) *Client {
	if cfg.TokenURL == "" {
		cfg.TokenURL = spotifyauth.TokenURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = constants.DefaultSpotifyAPIURL
	}
	if !strings.HasSuffix(cfg.APIURL, "/") {
		cfg.APIURL += "/"
	}
	if cfg.Market == "" {
		cfg.Market = constants.DefaultSpotifyMarket
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultHTTPTimeout
	}
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = logger.Default()
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	c := &Client{
		creds:   creds,
		base:    base,
		market:  cfg.Market,
		logger:  log.WithComponent("spotify"),
		metrics: m,
	}

	// API calls share one auto-refreshing token source.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := oauth2.NewClient(ctx, creds.TokenSource(ctx))
	hc.Timeout = cfg.Timeout
	c.api = zspotify.New(hc, zspotify.WithBaseURL(cfg.APIURL))
	return c
}

func (c *Client) configured() bool {
	return c.creds.ClientID != "" && c.creds.ClientSecret != ""
}

// GetAccessToken performs a fresh client-credentials exchange.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	if !c.configured() {
		return "", ErrNotConfigured
	}
	start := time.Now()
	tok, err := c.creds.Token(context.WithValue(ctx, oauth2.HTTPClient, c.base))
	c.metrics.ExternalCall("spotify", "token", time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("spotify token exchange: %w", err)
	}
	return tok.AccessToken, nil
}

// GetArtist returns nil, nil when Spotify does not know id.
func (c *Client) GetArtist(ctx context.Context, id string) (*Artist, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}
	start := time.Now()
	full, err := c.api.GetArtist(ctx, zspotify.ID(id))
	c.metrics.ExternalCall("spotify", "get_artist", time.Since(start), ignoreMissing(err))
	if isMissing(err) {
		c.logger.Debug("spotify artist not found", "spotify_id", id)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("spotify get artist %s: %w", id, err)
	}

	artist := &Artist{
		ID:         full.ID.String(),
		Name:       full.Name,
		Followers:  int(full.Followers.Count),
		Popularity: int(full.Popularity),
		Genres:     full.Genres,
		URL:        full.ExternalURLs["spotify"],
	}
	if len(full.Images) > 0 {
		artist.ImageURL = full.Images[0].URL
	}
	return artist, nil
}

// GetReleaseCount counts the artist's albums and singles. Unknown artists count 0.
func (c *Client) GetReleaseCount(ctx context.Context, id string) (int, error) {
	if !c.configured() {
		return 0, ErrNotConfigured
	}
	start := time.Now()
	page, err := c.api.GetArtistAlbums(ctx, zspotify.ID(id),
		[]zspotify.AlbumType{zspotify.AlbumTypeAlbum, zspotify.AlbumTypeSingle},
		zspotify.Limit(1))
	c.metrics.ExternalCall("spotify", "get_release_count", time.Since(start), ignoreMissing(err))
	if isMissing(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("spotify get albums %s: %w", id, err)
	}
	return int(page.Total), nil
}

// GetTopTrack returns the artist's most popular track in the configured market,
// or nil when there is none.
func (c *Client) GetTopTrack(ctx context.Context, id string) (*Track, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}
	start := time.Now()
	tracks, err := c.api.GetArtistsTopTracks(ctx, zspotify.ID(id), c.market)
	c.metrics.ExternalCall("spotify", "get_top_track", time.Since(start), ignoreMissing(err))
	if isMissing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("spotify get top tracks %s: %w", id, err)
	}
	if len(tracks) == 0 {
		return nil, nil
	}

	t := tracks[0]
	track := &Track{
		ID:         t.ID.String(),
		Name:       t.Name,
		AlbumName:  t.Album.Name,
		URL:        t.ExternalURLs["spotify"],
		PreviewURL: t.PreviewURL,
	}
	if len(t.Album.Images) > 0 {
		track.ImageURL = t.Album.Images[0].URL
	}
	return track, nil
}

// isMissing reports whether Spotify rejected the id as unknown. Malformed ids come
// back as 400 and are treated the same way.
func isMissing(err error) bool {
	var se zspotify.Error
	if errors.As(err, &se) {
		return se.Status == http.StatusNotFound || se.Status == http.StatusBadRequest
	}
	return false
}

func ignoreMissing(err error) error {
	if isMissing(err) {
		return nil
	}
	return err
}
