package lastfm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"skidoodle/now-playing/internal/nowplaying"

	"github.com/sirupsen/logrus"
)

// DefaultAPIURL is the public Last.fm API root.
const DefaultAPIURL = "https://ws.audioscrobbler.com/2.0/"

const maxBodySize = 1 << 20

// Client reads a single user's most recent track from Last.fm.
// The returned client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	username   string
	log        *logrus.Entry
}

// NewClient creates a Last.fm client. An empty apiURL selects DefaultAPIURL,
// a nil httpClient selects http.DefaultClient and a nil logger the standard
// logrus logger.
func NewClient(apiURL, apiKey, username string, httpClient *http.Client, logger *logrus.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		httpClient: httpClient,
		apiURL:     apiURL,
		apiKey:     apiKey,
		username:   username,
		log:        logger.WithField("component", "lastfm"),
	}
}

func (c *Client) Name() string { return "lastfm" }

// CacheKey identifies the request without exposing the API key.
func (c *Client) CacheKey() string {
	sum := sha256.Sum256([]byte(c.requestURL()))
	return "lastfm:" + hex.EncodeToString(sum[:8])
}

func (c *Client) requestURL() string {
	q := url.Values{}
	q.Set("method", "user.getrecenttracks")
	q.Set("user", c.username)
	q.Set("api_key", c.apiKey)
	q.Set("format", "json")
	q.Set("limit", "1")
	return c.apiURL + "?" + q.Encode()
}

// Fetch returns the raw recent tracks body for the configured user.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	if c.apiKey == "" || c.username == "" {
		return nil, nowplaying.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", nowplaying.ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Strip the URL from the error so the API key never reaches the logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%w: %w", nowplaying.ErrUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.WithError(err).Warn("failed to close lastfm api response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", nowplaying.ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope RecentTracks
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != 0 {
			return nil, fmt.Errorf("%w: status %d: lastfm error %d: %s",
				nowplaying.ErrUnavailable, resp.StatusCode, envelope.Error, envelope.Message)
		}
		return nil, fmt.Errorf("%w: status %d", nowplaying.ErrUnavailable, resp.StatusCode)
	}

	return body, nil
}

// Decode normalizes a recent tracks body. A track list that is present but
// whose first entry is not marked as now playing is not an error.
func (c *Client) Decode(body []byte) (nowplaying.Status, error) {
	var recent RecentTracks
	if err := json.Unmarshal(body, &recent); err != nil {
		return nowplaying.Status{}, fmt.Errorf("%w: %w", nowplaying.ErrMalformed, err)
	}
	if recent.Error != 0 {
		return nowplaying.Status{}, fmt.Errorf("%w: lastfm error %d: %s", nowplaying.ErrMalformed, recent.Error, recent.Message)
	}
	if recent.RecentTracks == nil {
		return nowplaying.Status{}, fmt.Errorf("%w: missing recenttracks", nowplaying.ErrMalformed)
	}
	if len(recent.RecentTracks.Track) == 0 {
		return nowplaying.Status{}, nowplaying.ErrNoTracks
	}

	track := recent.RecentTracks.Track[0]
	if !track.IsNowPlaying() {
		return nowplaying.Status{}, nil
	}
	if track.Name == "" || track.Artist.Text == "" || track.URL == "" {
		return nowplaying.Status{}, fmt.Errorf("%w: now playing track without name, artist or url", nowplaying.ErrMalformed)
	}

	return nowplaying.Status{
		IsPlaying: true,
		Title:     track.Name,
		Artist:    track.Artist.Text,
		AlbumArt:  track.AlbumArt(),
		SongURL:   track.URL,
	}, nil
}
