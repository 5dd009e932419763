package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"skidoodle/now-playing/internal/nowplaying"

	"github.com/sirupsen/logrus"
)

// HTTPFetcher calls the now-playing endpoint over HTTP.
type HTTPFetcher struct {
	client *http.Client
	url    string
	log    *logrus.Entry
}

// NewHTTPFetcher creates a fetcher for url. A nil client selects
// http.DefaultClient and a nil logger the standard logrus logger.
func NewHTTPFetcher(client *http.Client, url string, logger *logrus.Logger) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HTTPFetcher{client: client, url: url, log: logger.WithField("component", "fetcher")}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (nowplaying.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nowplaying.Status{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nowplaying.Status{}, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.log.WithError(err).Warn("failed to close now playing response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nowplaying.Status{}, fmt.Errorf("now playing endpoint returned %d", resp.StatusCode)
	}

	var status nowplaying.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nowplaying.Status{}, fmt.Errorf("decoding now playing status: %w", err)
	}
	return status, nil
}
