package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"skidoodle/now-playing/internal/nowplaying"

	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify"
	"golang.org/x/oauth2"
)

const (
	tokenURL            = "https://accounts.spotify.com/api/token"
	currentlyPlayingURL = "https://api.spotify.com/v1/me/player/currently-playing"
)

// Source reads the user's currently playing track from the Spotify API.
// It is safe for concurrent use.
type Source struct {
	httpClient *http.Client
	endpoint   string
	configured bool
	log        *logrus.Entry
}

// NewSource creates a Spotify source using the refresh token flow. A nil
// logger selects the standard logrus logger.
func NewSource(ctx context.Context, clientID, clientSecret, refreshToken string, logger *logrus.Logger) *Source {
	return newSource(ctx, clientID, clientSecret, refreshToken, tokenURL, currentlyPlayingURL, logger)
}

func newSource(ctx context.Context, clientID, clientSecret, refreshToken, tokenEndpoint, endpoint string, logger *logrus.Logger) *Source {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: tokenEndpoint,
		},
	}

	// The TokenSource is concurrency-safe and handles token refreshes automatically.
	tokenSource := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	return &Source{
		httpClient: oauth2.NewClient(ctx, tokenSource),
		endpoint:   endpoint,
		configured: clientID != "" && clientSecret != "" && refreshToken != "",
		log:        logger.WithField("component", "spotify"),
	}
}

func (s *Source) Name() string { return "spotify" }

func (s *Source) CacheKey() string { return "spotify:currently-playing" }

// Fetch returns the raw currently-playing body. Spotify answers 204 with no
// body when nothing is playing; that is returned as an empty body.
func (s *Source) Fetch(ctx context.Context) ([]byte, error) {
	if !s.configured {
		return nil, nowplaying.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", nowplaying.ErrUnavailable, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", nowplaying.ErrUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.log.WithError(err).Warn("failed to close spotify api response body")
		}
	}()

	if resp.StatusCode == http.StatusNoContent {
		return []byte{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", nowplaying.ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", nowplaying.ErrUnavailable, err)
	}
	return body, nil
}

// Decode normalizes a currently-playing body.
func (s *Source) Decode(body []byte) (nowplaying.Status, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nowplaying.Status{}, nil
	}

	var current spotify.CurrentlyPlaying
	if err := json.Unmarshal(body, &current); err != nil {
		return nowplaying.Status{}, fmt.Errorf("%w: %w", nowplaying.ErrMalformed, err)
	}
	if !current.Playing || current.Item == nil {
		return nowplaying.Status{}, nil
	}

	item := current.Item
	artists := make([]string, 0, len(item.Artists))
	for _, a := range item.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}

	status := nowplaying.Status{
		IsPlaying: true,
		Title:     item.Name,
		Artist:    strings.Join(artists, ", "),
		AlbumArt:  albumArt(item.Album.Images),
		SongURL:   item.ExternalURLs["spotify"],
	}
	if status.Title == "" || status.Artist == "" || status.SongURL == "" {
		return nowplaying.Status{}, fmt.Errorf("%w: playing item without name, artist or url", nowplaying.ErrMalformed)
	}
	return status, nil
}

// albumArt picks the middle entry of Spotify's widest-first image list,
// which is the 300px variant for regular albums.
func albumArt(images []spotify.Image) *string {
	if len(images) == 0 {
		return nil
	}
	url := images[len(images)/2].URL
	if url == "" {
		return nil
	}
	return &url
}
